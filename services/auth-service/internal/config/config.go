package config

import (
	"errors"
	"net/netip"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/oauth2/github"

	"github.com/vasapolrittideah/scanner-auth/shared/discovery"
	"github.com/vasapolrittideah/scanner-auth/shared/mailer"
)

const (
	// EnvironmentProduction disables diagnostic responses such as returning reset links.
	EnvironmentProduction = "production"

	StateStoreMongo = "mongo"
	StateStoreRedis = "redis"
)

// AuthServiceConfig is parsed once at start-up and injected into every component.
type AuthServiceConfig struct {
	ServiceName         string `env:"SERVICE_NAME"            envDefault:"auth-service"`
	Environment         string `env:"ENVIRONMENT"             envDefault:"development"`
	LogLevel            string `env:"LOG_LEVEL"               envDefault:"info"`
	AppPasswordResetURL string `env:"APP_PASSWORD_RESET_URL"  envDefault:"http://localhost:3000/reset-password"`
	AutoActivateUsers   bool   `env:"AUTO_ACTIVATE_USERS"     envDefault:"false"`

	HTTP       HTTPConfig `envPrefix:"HTTP_"`
	Token      TokenConfig
	Mongo      MongoConfig      `envPrefix:"MONGO_"`
	StateStore StateStoreConfig `envPrefix:"STATE_STORE_"`
	Redis      RedisConfig      `envPrefix:"REDIS_"`
	GitLab     GitLabConfig     `envPrefix:"GITLAB_"`
	GitHub     GitHubConfig     `envPrefix:"GITHUB_"`
	SMTP       mailer.Config    `envPrefix:"SMTP_"`
	Consul     discovery.Config `envPrefix:"CONSUL_"`
	RateLimit  RateLimitConfig  `envPrefix:"RATE_LIMIT_"`
}

type HTTPConfig struct {
	Address            string        `env:"ADDR"                 envDefault:":8080"`
	HealthAddress      string        `env:"HEALTH_ADDR"          envDefault:":9090"`
	AllowedOrigins     []string      `env:"ALLOWED_ORIGINS"      envDefault:"http://localhost:3000" envSeparator:","`
	ReadTimeout        time.Duration `env:"READ_TIMEOUT"         envDefault:"15s"`
	WriteTimeout       time.Duration `env:"WRITE_TIMEOUT"        envDefault:"15s"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT"     envDefault:"10s"`
	OAuthClientTimeout time.Duration `env:"OAUTH_CLIENT_TIMEOUT" envDefault:"10s"`
	// TrustedProxies lists the CIDRs whose X-Forwarded-For and X-Real-IP headers are honored.
	TrustedProxies []netip.Prefix `env:"TRUSTED_PROXIES" envSeparator:","`
}

type TokenConfig struct {
	Issuer                      string        `env:"TOKEN_ISSUER"                     envDefault:"scanner-auth"`
	Audience                    string        `env:"TOKEN_AUDIENCE"                   envDefault:"scanner-console"`
	AccessTokenSecret           string        `env:"ACCESS_TOKEN_SECRET"`
	AccessTokenExpiresIn        time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN"          envDefault:"24h"`
	PasswordResetTokenSecret    string        `env:"PASSWORD_RESET_TOKEN_SECRET"`
	PasswordResetTokenExpiresIn time.Duration `env:"PASSWORD_RESET_TOKEN_EXPIRES_IN"  envDefault:"30m"`
}

type MongoConfig struct {
	URI      string `env:"URI"      envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"scanner_auth"`
}

// StateStoreConfig selects where pending OAuth states live.
type StateStoreConfig struct {
	Driver string        `env:"DRIVER" envDefault:"mongo"`
	TTL    time.Duration `env:"TTL"    envDefault:"600s"`
	// ReapSchedule is the cron expression for the expired state reaper.
	ReapSchedule string `env:"REAP_SCHEDULE" envDefault:"@every 1m"`
}

type RedisConfig struct {
	Address  string `env:"ADDR"     envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB"       envDefault:"0"`
}

// GitLabConfig credentials are optional at boot; their absence is reported per request.
type GitLabConfig struct {
	BaseURL      string   `env:"BASE_URL"      envDefault:"https://gitlab.com"`
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURI  string   `env:"REDIRECT_URI"`
	Scopes       []string `env:"SCOPES"        envDefault:"read_user" envSeparator:","`
}

// AuthURL returns the authorize endpoint of the configured GitLab instance.
func (c GitLabConfig) AuthURL() string {
	return c.BaseURL + "/oauth/authorize"
}

// TokenURL returns the token endpoint of the configured GitLab instance.
func (c GitLabConfig) TokenURL() string {
	return c.BaseURL + "/oauth/token"
}

type GitHubConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURI  string `env:"REDIRECT_URI"`
	AuthURL      string `env:"AUTH_URL"`
	TokenURL     string `env:"TOKEN_URL"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64       `env:"RPS"      envDefault:"5"`
	Burst             int           `env:"BURST"    envDefault:"10"`
	IdleTTL           time.Duration `env:"IDLE_TTL" envDefault:"10m"`
}

// Load parses the configuration from the process environment.
func Load() (*AuthServiceConfig, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (*AuthServiceConfig, error) {
	cfg, err := env.ParseAsWithOptions[AuthServiceConfig](opts)
	if err != nil {
		return nil, err
	}

	if cfg.GitHub.AuthURL == "" {
		cfg.GitHub.AuthURL = github.Endpoint.AuthURL
	}
	if cfg.GitHub.TokenURL == "" {
		cfg.GitHub.TokenURL = github.Endpoint.TokenURL
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction reports whether the service runs with production semantics.
func (c *AuthServiceConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

func (c *AuthServiceConfig) validate() error {
	if c.Token.AccessTokenSecret == "" {
		return errors.New("missing ACCESS_TOKEN_SECRET environment variable")
	}
	if c.Token.PasswordResetTokenSecret == "" {
		return errors.New("missing PASSWORD_RESET_TOKEN_SECRET environment variable")
	}
	if c.Token.AccessTokenSecret == c.Token.PasswordResetTokenSecret {
		return errors.New("ACCESS_TOKEN_SECRET and PASSWORD_RESET_TOKEN_SECRET must differ")
	}
	if c.StateStore.Driver != StateStoreMongo && c.StateStore.Driver != StateStoreRedis {
		return errors.New("STATE_STORE_DRIVER must be one of: mongo, redis")
	}
	if c.StateStore.TTL <= 0 {
		return errors.New("STATE_STORE_TTL must be positive")
	}
	if c.SMTP.Enabled() {
		if err := c.SMTP.Validate(); err != nil {
			return err
		}
	} else if c.IsProduction() {
		return errors.New("SMTP_HOST is required in production")
	}

	return nil
}
