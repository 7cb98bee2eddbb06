package backup

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

// magic prefixes every snapshot so foreign objects are rejected before any
// key derivation.
var magic = []byte("HEARTH1\n")

// ErrNotSnapshot is returned when data does not start with the snapshot header.
var ErrNotSnapshot = errors.New("not a hearth snapshot")

// deriveKey derives an AES-256 key from a passphrase and salt using Argon2id.
func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keySize)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext under passphrase with a fresh salt and nonce.
// Layout: magic, 16-byte salt, 12-byte nonce, AES-256-GCM ciphertext. The
// header is bound as additional data.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("passphrase is required")
	}
	header := make([]byte, len(magic)+saltSize+nonceSize)
	copy(header, magic)
	if _, err := io.ReadFull(rand.Reader, header[len(magic):]); err != nil {
		return nil, fmt.Errorf("generate salt and nonce: %w", err)
	}
	salt := header[len(magic) : len(magic)+saltSize]
	nonce := header[len(magic)+saltSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(header, nonce, plaintext, header), nil
}

// Open reverses Seal.
func Open(data []byte, passphrase string) ([]byte, error) {
	headerSize := len(magic) + saltSize + nonceSize
	if len(data) < headerSize || !bytes.Equal(data[:len(magic)], magic) {
		return nil, ErrNotSnapshot
	}
	header := data[:headerSize]
	salt := header[len(magic) : len(magic)+saltSize]
	nonce := header[len(magic)+saltSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, data[headerSize:], header)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}
