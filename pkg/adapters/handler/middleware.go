package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wadjakorntonsri/go-shortlink/pkg/config"
	"github.com/wadjakorntonsri/go-shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

// APIKeyHeader authenticates machine clients.
const APIKeyHeader = "X-Api-Key"

type contextKey string

const (
	userEmailKey contextKey = "user_email"
	apiKeyKey    contextKey = "api_key"
)

// APIKeyFromContext returns the API key the request was authenticated with, if any.
func APIKeyFromContext(ctx context.Context) *domain.APIKey {
	key, _ := ctx.Value(apiKeyKey).(*domain.APIKey)
	return key
}

// UserEmailFromContext returns the email of the logged-in user, if any.
func UserEmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(userEmailKey).(string)
	return email
}

type Middleware struct {
	jwtSecret []byte
	apiKeys   ports.APIKeyRepository
	logger    logger.Logger
}

func NewMiddleware(cfg *config.Config, apiKeys ports.APIKeyRepository, log logger.Logger) *Middleware {
	return &Middleware{
		jwtSecret: []byte(cfg.JWTSecret),
		apiKeys:   apiKeys,
		logger:    log,
	}
}

// AuthMiddleware accepts an X-Api-Key header or verifies the JWT from the cookie
func (m *Middleware) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get(APIKeyHeader); raw != "" {
			m.authenticateAPIKey(w, r, raw, next)
			return
		}

		cookie, err := r.Cookie("auth_token")
		if err != nil {
			unauthorized(w, r)
			return
		}

		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
			return m.jwtSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			unauthorized(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userEmailKey, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) authenticateAPIKey(w http.ResponseWriter, r *http.Request, raw string, next http.Handler) {
	if m.apiKeys == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	key, err := m.apiKeys.FindAPIKey(r.Context(), raw)
	if err != nil {
		m.logger.Error("Failed to look up API key", logger.Err(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if key == nil || !key.IsValid(time.Now()) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := context.WithValue(r.Context(), apiKeyKey, key)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	if isAPIRequest(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, "/auth/google/login", http.StatusTemporaryRedirect)
}

func isAPIRequest(r *http.Request) bool {
	// Dashboard might be viewed in browser
	return strings.HasPrefix(r.URL.Path, "/api/") && r.URL.Path != "/api/v1/dashboard"
}
