package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func testConfig(tokenURL string) Config {
	return Config{
		Name:         GitLab,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://console.example.com/oauth/gitlab",
		AuthURL:      "https://gitlab.example.com/oauth/authorize",
		TokenURL:     tokenURL,
		Scopes:       []string{"read_user"},
	}
}

func TestClient_Exchange(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"glpat-1","token_type":"Bearer","expires_in":7200,"created_at":1700000000}`))
	}))
	defer srv.Close()

	payload, err := NewClient(srv.Client()).Exchange(context.Background(), testConfig(srv.URL), "auth-code", "verifier")
	require.NoError(t, err)
	require.Equal(t, "glpat-1", payload.AccessToken())
	require.Equal(t, float64(1700000000), payload["created_at"])

	require.Equal(t, "client-id", form.Get("client_id"))
	require.Equal(t, "client-secret", form.Get("client_secret"))
	require.Equal(t, "auth-code", form.Get("code"))
	require.Equal(t, "authorization_code", form.Get("grant_type"))
	require.Equal(t, "https://console.example.com/oauth/gitlab", form.Get("redirect_uri"))
	require.Equal(t, "verifier", form.Get("code_verifier"))
}

func TestClient_ExchangeWithoutVerifier(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		_, _ = w.Write([]byte(`access_token=gho_1&scope=read%3Auser&token_type=bearer`))
	}))
	defer srv.Close()

	payload, err := NewClient(srv.Client()).Exchange(context.Background(), testConfig(srv.URL), "auth-code", "")
	require.NoError(t, err)
	require.Equal(t, "gho_1", payload.AccessToken())
	require.Equal(t, "read:user", payload["scope"])
	_, ok := form["code_verifier"]
	require.False(t, ok)
}

func TestClient_ExchangeMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client()).Exchange(context.Background(), testConfig(srv.URL), "stale", "")
	require.ErrorIs(t, err, ErrMissingAccessToken)

	var exErr *ExchangeError
	require.True(t, errors.As(err, &exErr))
	require.Equal(t, "bad_verification_code", exErr.Payload["error"])
}

func TestClient_ExchangeProviderRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client()).Exchange(context.Background(), testConfig(srv.URL), "code", "verifier")
	require.ErrorIs(t, err, ErrExchangeFailed)

	var exErr *ExchangeError
	require.True(t, errors.As(err, &exErr))
	require.Equal(t, http.StatusBadRequest, exErr.StatusCode)
	require.Equal(t, "invalid_grant", exErr.Payload["error"])
}

func TestClient_AuthCodeURL(t *testing.T) {
	raw := NewClient(nil).AuthCodeURL(testConfig("https://gitlab.example.com/oauth/token"), "state-1", "challenge-1")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, "challenge-1", q.Get("code_challenge"))
	require.Equal(t, "S256", q.Get("code_challenge_method"))
	require.Equal(t, "client-id", q.Get("client_id"))
	require.Equal(t, "code", q.Get("response_type"))
}

func TestConfig_Configured(t *testing.T) {
	cfg := testConfig("https://gitlab.example.com/oauth/token")
	require.True(t, cfg.Configured())

	cfg.ClientID = ""
	require.False(t, cfg.Configured())
}
