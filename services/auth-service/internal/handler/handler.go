package handler

import (
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/metrics"
	"github.com/vasapolrittideah/scanner-auth/services/auth-service/internal/usecase"
	"github.com/vasapolrittideah/scanner-auth/shared/auth"
	"github.com/vasapolrittideah/scanner-auth/shared/middleware"
	"github.com/vasapolrittideah/scanner-auth/shared/validation"
)

// Usecases groups the business logic served over HTTP.
type Usecases struct {
	Auth          usecase.AuthUsecase
	OAuth         usecase.OAuthUsecase
	PasswordReset usecase.PasswordResetUsecase
	User          usecase.UserUsecase
	Org           usecase.OrgUsecase
	OrgType       usecase.OrgTypeUsecase
	Group         usecase.GroupUsecase
	Privilege     usecase.PrivilegeUsecase
}

// RouterOptions configures the transport concerns of the router.
type RouterOptions struct {
	AllowedOrigins    []string
	TrustedProxies    []netip.Prefix
	RateLimiter       *middleware.RateLimiter
	JWTAuth           auth.JWTAuthenticator
	AccessTokenSecret string
	HealthChecks      map[string]HealthCheck
}

type authHTTPHandler struct {
	usecases     Usecases
	validator    *validation.Validator
	metrics      *metrics.Metrics
	logger       *zerolog.Logger
	healthChecks map[string]HealthCheck
}

// NewRouter builds the HTTP API. Everything under /auth except the sign-in flows
// requires a bearer access token.
func NewRouter(
	usecases Usecases,
	opts RouterOptions,
	validator *validation.Validator,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) http.Handler {
	h := &authHTTPHandler{
		usecases:     usecases,
		validator:    validator,
		metrics:      m,
		logger:       logger,
		healthChecks: opts.HealthChecks,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.TrustedRealIP(opts.TrustedProxies))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(metrics.HTTPMetricsMiddleware(m))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", m.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(middleware.RateLimit(opts.RateLimiter))
			}

			r.Get("/gitlab-parameters", h.GitLabParameters)
			r.Post("/gitlab-oauth", h.GitLabOAuth)
			r.Post("/github-oauth", h.GitHubOAuth)
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewJWTAuth(opts.JWTAuth, opts.AccessTokenSecret))
			r.Use(h.requireSession)

			r.Route("/user", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{id}", h.GetUser)
				r.Put("/{id}", h.UpdateUser)
				r.Delete("/{id}", h.DeleteUser)
			})

			r.Route("/org", entityRoutes(h, usecases.Org, orgFromRequest))
			r.Route("/orgtype", entityRoutes(h, usecases.OrgType, orgTypeFromRequest))
			r.Route("/group", entityRoutes(h, usecases.Group, groupFromRequest))
			r.Route("/privilege", entityRoutes(h, usecases.Privilege, privilegeFromRequest))
		})
	})

	return r
}

// requireSession rejects bearer tokens whose login session was revoked, expired or
// belongs to a user that was deleted or deactivated.
func (h *authHTTPHandler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := middleware.ClaimsFromContext(r.Context())
		sessionID, _ := claims["sid"].(string)

		if err := h.usecases.Auth.ValidateSession(r.Context(), sessionID); err != nil {
			h.fail(w, r, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
