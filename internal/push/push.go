package push

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dukerupert/hearth/internal/metrics"
	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/store"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone).
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON sent to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Service delivers web push notifications to a household's subscriptions.
type Service struct {
	publicKey  string
	privateKey string
	subscriber string
	subs       *store.PushStore
	httpClient webpush.HTTPClient
	logger     *slog.Logger
}

type Option func(*Service)

func WithHTTPClient(c webpush.HTTPClient) Option {
	return func(s *Service) {
		s.httpClient = c
	}
}

// NewService creates a push service signing with the given VAPID keys.
// subscriber is the contact address sent to push services.
func NewService(publicKey, privateKey, subscriber string, subs *store.PushStore, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		publicKey:  publicKey,
		privateKey: privateKey,
		subscriber: subscriber,
		subs:       subs,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether VAPID keys are set.
func (s *Service) Configured() bool {
	return s.publicKey != "" && s.privateKey != ""
}

// VAPIDPublicKey returns the VAPID public key for client-side subscription.
func (s *Service) VAPIDPublicKey() string {
	return s.publicKey
}

// Send sends a push notification to a subscription.
func (s *Service) Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		HTTPClient:      s.httpClient,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		Subscriber:      s.subscriber,
		TTL:             86400,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	return nil
}

// Notify sends payload to every subscription of the household and returns
// how many deliveries succeeded. Expired subscriptions are deleted; other
// failures are logged.
func (s *Service) Notify(ctx context.Context, householdID int64, payload Payload) int {
	if !s.Configured() {
		return 0
	}

	subs, err := s.subs.ListByHousehold(ctx, householdID)
	if err != nil {
		s.logger.Error("list push subscriptions", "household_id", householdID, "error", err)
		return 0
	}

	sent := 0
	for i := range subs {
		sub := &subs[i]
		err := s.Send(ctx, sub, payload)
		switch {
		case err == nil:
			sent++
		case errors.Is(err, ErrExpired):
			if err := s.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				s.logger.Error("delete expired push subscription", "subscription_id", sub.ID, "error", err)
			} else {
				s.logger.Info("expired push subscription removed", "subscription_id", sub.ID)
			}
		default:
			s.logger.Warn("send push", "subscription_id", sub.ID, "error", err)
		}
	}
	metrics.RecordPush(sent, len(subs))
	return sent
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.FillBytes(make([]byte, 32)))

	return publicKey, privateKey, nil
}
