package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/config"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/model"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/repository"
	"github.com/vasapolrittideah/scanner-auth/shared/pkce"
	"github.com/vasapolrittideah/scanner-auth/shared/provider"
)

// OAuthUsecase drives the authorization code flows of the external providers.
type OAuthUsecase interface {
	// GitLabParameters starts a PKCE protected GitLab authorization.
	GitLabParameters(ctx context.Context) (*OAuthParameters, error)

	// ExchangeGitLabCode redeems the callback code. The stored state is consumed before the
	// provider is called, so a replayed callback fails with ErrInvalidOAuthState.
	ExchangeGitLabCode(ctx context.Context, code, state string) (provider.TokenPayload, error)

	// ExchangeGitHubCode redeems a GitHub code without state or PKCE verification.
	ExchangeGitHubCode(ctx context.Context, code string) (provider.TokenPayload, error)
}

// TokenExchanger talks to provider endpoints.
type TokenExchanger interface {
	AuthCodeURL(cfg provider.Config, state, codeChallenge string) string
	Exchange(ctx context.Context, cfg provider.Config, code, codeVerifier string) (provider.TokenPayload, error)
}

// OAuthParameters is handed to the browser to build the authorize redirect.
type OAuthParameters struct {
	State               string `json:"state"`
	CodeChallenge       string `json:"code_challenge"`
	CodeChallengeMethod string `json:"code_challenge_method"`
	AuthorizeURL        string `json:"authorize_url,omitempty"`
}

type oauthUsecase struct {
	stateRepo repository.OAuthStateRepository
	exchanger TokenExchanger
	gitlab    provider.Config
	github    provider.Config
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewOAuthUsecase(
	stateRepo repository.OAuthStateRepository,
	exchanger TokenExchanger,
	authServiceCfg *config.AuthServiceConfig,
	logger *zerolog.Logger,
) OAuthUsecase {
	return &oauthUsecase{
		stateRepo: stateRepo,
		exchanger: exchanger,
		gitlab:    GitLabProviderConfig(authServiceCfg.GitLab),
		github:    GitHubProviderConfig(authServiceCfg.GitHub),
		logger:    logger,
		now:       time.Now,
	}
}

func GitLabProviderConfig(cfg config.GitLabConfig) provider.Config {
	return provider.Config{
		Name:         provider.GitLab,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		AuthURL:      cfg.AuthURL(),
		TokenURL:     cfg.TokenURL(),
		Scopes:       cfg.Scopes,
	}
}

func GitHubProviderConfig(cfg config.GitHubConfig) provider.Config {
	return provider.Config{
		Name:         provider.GitHub,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURI:  cfg.RedirectURI,
		AuthURL:      cfg.AuthURL,
		TokenURL:     cfg.TokenURL,
	}
}

func (u *oauthUsecase) GitLabParameters(ctx context.Context) (*OAuthParameters, error) {
	state, err := pkce.GenerateState()
	if err != nil {
		return nil, err
	}

	pair, err := pkce.NewPair()
	if err != nil {
		return nil, err
	}

	if err := u.stateRepo.SaveState(ctx, &model.OAuthState{
		State:        state,
		CodeVerifier: pair.CodeVerifier,
		Provider:     string(provider.GitLab),
		CreatedAt:    u.now(),
	}); err != nil {
		return nil, storageError(err)
	}

	return &OAuthParameters{
		State:               state,
		CodeChallenge:       pair.CodeChallenge,
		CodeChallengeMethod: pkce.MethodS256,
		AuthorizeURL:        u.exchanger.AuthCodeURL(u.gitlab, state, pair.CodeChallenge),
	}, nil
}

func (u *oauthUsecase) ExchangeGitLabCode(ctx context.Context, code, state string) (provider.TokenPayload, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	if !u.gitlab.Configured() {
		u.logger.Error().Str("provider", string(provider.GitLab)).Msg("oauth client credentials are not configured")
		return nil, &ProviderError{Provider: provider.GitLab, Err: ErrProviderNotConfigured}
	}

	record, err := u.stateRepo.TakeState(ctx, string(provider.GitLab), state)
	if err != nil {
		if errors.Is(err, repository.ErrStateNotFound) {
			return nil, ErrInvalidOAuthState
		}
		return nil, storageError(err)
	}

	return u.exchange(ctx, u.gitlab, code, record.CodeVerifier)
}

func (u *oauthUsecase) ExchangeGitHubCode(ctx context.Context, code string) (provider.TokenPayload, error) {
	if code == "" {
		return nil, ErrMissingCode
	}

	if !u.github.Configured() {
		u.logger.Error().Str("provider", string(provider.GitHub)).Msg("oauth client credentials are not configured")
		return nil, &ProviderError{Provider: provider.GitHub, Err: ErrProviderNotConfigured}
	}

	return u.exchange(ctx, u.github, code, "")
}

func (u *oauthUsecase) exchange(
	ctx context.Context,
	cfg provider.Config,
	code, codeVerifier string,
) (provider.TokenPayload, error) {
	payload, err := u.exchanger.Exchange(ctx, cfg, code, codeVerifier)
	if err != nil {
		providerErr := &ProviderError{Provider: cfg.Name, Err: ErrTokenExchange}

		var exchangeErr *provider.ExchangeError
		if errors.As(err, &exchangeErr) {
			providerErr.Payload = exchangeErr.Payload
		} else {
			providerErr.Payload = map[string]any{"error": err.Error()}
		}

		u.logger.Warn().Err(err).Str("provider", string(cfg.Name)).Msg("oauth token exchange failed")
		return nil, providerErr
	}

	return payload, nil
}
