package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/hearth/internal/model"
)

// Profile is the display information of an identity.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Directory resolves identities to display profiles.
type Directory interface {
	Profile(ctx context.Context, userID string) (Profile, error)
}

// UserLookup is the part of the user store a StoreDirectory needs.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// StoreDirectory answers profile lookups from the locally cached users table.
// Unknown identities resolve to an empty profile.
type StoreDirectory struct {
	users UserLookup
}

func NewStoreDirectory(users UserLookup) *StoreDirectory {
	return &StoreDirectory{users: users}
}

func (d *StoreDirectory) Profile(ctx context.Context, userID string) (Profile, error) {
	u, err := d.users.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("lookup profile: %w", err)
	}
	if u == nil {
		return Profile{}, nil
	}
	return Profile{Name: u.Name, Email: u.Email}, nil
}

// Client fetches profiles from the identity provider's admin API at
// {baseURL}/users/{id}.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithToken sets the bearer token sent with profile requests.
func WithToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Profile(ctx context.Context, userID string) (Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return Profile{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Profile{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("profile API error: status %d", resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}
