package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Name identifies an external OAuth provider.
type Name string

const (
	GitLab Name = "gitlab"
	GitHub Name = "github"
)

// DisplayName returns the human readable provider name.
func (n Name) DisplayName() string {
	switch n {
	case GitLab:
		return "GitLab"
	case GitHub:
		return "GitHub"
	default:
		return string(n)
	}
}

const maxTokenResponseBytes = 1 << 20

var (
	// ErrMissingAccessToken is returned when the provider answered without an access token.
	ErrMissingAccessToken = errors.New("token response missing access_token")
	// ErrExchangeFailed is returned when the provider rejected the exchange.
	ErrExchangeFailed = errors.New("token exchange failed")
)

// Config describes one OAuth client registration at a provider.
type Config struct {
	Name         Name
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	Scopes       []string
}

// Configured reports whether the credentials required for a code exchange are present.
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RedirectURI != "" && c.TokenURL != ""
}

func (c Config) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  c.RedirectURI,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.AuthURL,
			TokenURL:  c.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// TokenPayload is the provider token response, relayed without reinterpretation.
type TokenPayload map[string]any

// AccessToken returns the access_token field or an empty string.
func (p TokenPayload) AccessToken() string {
	s, _ := p["access_token"].(string)
	return s
}

// ExchangeError carries the provider response for diagnostics.
type ExchangeError struct {
	StatusCode int
	Payload    map[string]any
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v: status=%d", e.Err, e.StatusCode)
	}
	return e.Err.Error()
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Client performs authorization code exchanges against provider token endpoints.
type Client struct {
	httpClient *http.Client
}

// NewClient constructs a Client. A nil http.Client gets a 10 second timeout.
func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{httpClient: httpClient}
}

// AuthCodeURL builds the provider authorize URL for a PKCE S256 challenge.
func (c *Client) AuthCodeURL(cfg Config, state, codeChallenge string) string {
	if cfg.AuthURL == "" {
		return ""
	}
	return cfg.oauth2Config().AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// Exchange trades an authorization code for tokens. codeVerifier is sent only when non-empty.
func (c *Client) Exchange(ctx context.Context, cfg Config, code, codeVerifier string) (TokenPayload, error) {
	data := url.Values{}
	data.Set("client_id", cfg.ClientID)
	data.Set("client_secret", cfg.ClientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", cfg.RedirectURI)
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{
			Payload: map[string]any{"error": err.Error()},
			Err:     fmt.Errorf("%w: %w", ErrExchangeFailed, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	payload := decodePayload(body)

	if resp.StatusCode >= 300 {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Payload: payload, Err: ErrExchangeFailed}
	}

	token := TokenPayload(payload)
	if token.AccessToken() == "" {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Payload: payload, Err: ErrMissingAccessToken}
	}

	return token, nil
}

// decodePayload accepts JSON and form encoded bodies; anything else is returned under "body".
func decodePayload(body []byte) map[string]any {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		return raw
	}

	if vals, err := url.ParseQuery(string(body)); err == nil && len(vals) > 0 {
		raw = make(map[string]any, len(vals))
		for k := range vals {
			raw[k] = vals.Get(k)
		}
		return raw
	}

	return map[string]any{"body": string(body)}
}
