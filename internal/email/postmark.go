package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"
)

const postmarkURL = "https://api.postmarkapp.com/email"

type Client struct {
	serverToken string
	fromEmail   string
	inviteURL   string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient returns a Postmark client. inviteURL is the page of the app where
// invites are accepted; it is linked from invite mail as is.
func NewClient(serverToken, fromEmail, inviteURL string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		inviteURL:   inviteURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendInvite tells toEmail they were invited to householdName. The invite
// itself is accepted in the app after signing in with that address.
func (c *Client) SendInvite(toEmail, householdName, inviterName string) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	from := inviterName
	if from == "" {
		from = "A household member"
	}
	subject := fmt.Sprintf("You've been invited to %s on Hearth", householdName)
	link := c.inviteURL

	textBody := fmt.Sprintf(
		"%s invited you to share %s on Hearth.\n\nSign in with %s to accept:\n\n%s",
		from, householdName, toEmail, link,
	)
	htmlBody := fmt.Sprintf(
		`<p>%s invited you to share <strong>%s</strong> on Hearth.</p><p>Sign in with %s to <a href="%s">accept your invitation</a>.</p>`,
		html.EscapeString(from), html.EscapeString(householdName), html.EscapeString(toEmail), html.EscapeString(link),
	)

	return c.send(postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	})
}

func (c *Client) send(payload postmarkEmail) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, postmarkURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
