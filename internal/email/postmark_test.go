package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendInvite(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://app.hearth.test/join",
		WithHTTPClient(&http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}))

	if err := client.SendInvite("bob@example.com", "Smith Family", "Alice"); err != nil {
		t.Fatalf("send invite: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "bob@example.com" {
		t.Errorf("To = %q, want %q", received.To, "bob@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if received.Subject != "You've been invited to Smith Family on Hearth" {
		t.Errorf("Subject = %q, want invite subject", received.Subject)
	}
	if !strings.Contains(received.TextBody, "Alice invited you") {
		t.Errorf("TextBody = %q, want inviter name", received.TextBody)
	}
	if !strings.Contains(received.TextBody, "https://app.hearth.test/join") || strings.Contains(received.TextBody, "/household/invites") {
		t.Errorf("TextBody = %q, want invite link", received.TextBody)
	}
}

func TestSendInviteEscapesHTML(t *testing.T) {
	var received postmarkEmail
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://hearth.test",
		WithHTTPClient(&http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}))

	if err := client.SendInvite("bob@example.com", "<script>", ""); err != nil {
		t.Fatalf("send invite: %v", err)
	}
	if strings.Contains(received.HtmlBody, "<script>") {
		t.Errorf("HtmlBody not escaped: %q", received.HtmlBody)
	}
	if !strings.Contains(received.TextBody, "A household member invited you") {
		t.Errorf("TextBody = %q, want fallback inviter", received.TextBody)
	}
}

func TestSendInviteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://hearth.test",
		WithHTTPClient(&http.Client{Transport: &rewriteTransport{base: http.DefaultTransport, target: server.URL}}))

	if err := client.SendInvite("bob@example.com", "Home", "Alice"); err == nil {
		t.Fatal("expected error for API failure")
	}
}

func TestSendInviteNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com", "https://hearth.test")
	if err := client.SendInvite("bob@example.com", "Home", "Alice"); err == nil {
		t.Fatal("expected error for unconfigured client")
	}
}

func TestConfigured(t *testing.T) {
	if !NewClient("token", "from@test.com", "https://test.com").Configured() {
		t.Error("expected Configured() = true")
	}
	if NewClient("", "from@test.com", "https://test.com").Configured() {
		t.Error("expected Configured() = false")
	}
}

// rewriteTransport redirects all requests to a test server URL.
type rewriteTransport struct {
	base   http.RoundTripper
	target string
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = "http"
	req.URL.Host = strings.TrimPrefix(t.target, "http://")
	return t.base.RoundTrip(req)
}
