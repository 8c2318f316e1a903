package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-sg-itinerary-curator/config"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/api"
	"github.com/FACorreiaa/go-sg-itinerary-curator/internal/types"
)

type contextKey string

const (
	UserIDKey   contextKey = "userID"
	UserRoleKey contextKey = "userRole"
)

var (
	errMissingToken = errors.New("authorization header required")
	errBadHeader    = errors.New("authorization header format must be Bearer {token}")
)

// Middleware validates bearer access tokens issued by the identity provider.
type Middleware struct {
	logger    *slog.Logger
	cfg       config.JWTConfig
	secretKey []byte
	now       func() time.Time
}

func NewMiddleware(logger *slog.Logger, cfg config.JWTConfig) *Middleware {
	if cfg.SecretKey == "" {
		logger.Warn("JWT secret key is not configured; every bearer token will be rejected")
	}
	return &Middleware{
		logger:    logger,
		cfg:       cfg,
		secretKey: []byte(cfg.SecretKey),
		now:       time.Now,
	}
}

// Authenticate rejects requests without a valid bearer token.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return m.handler(next, false)
}

// OptionalAuthenticate lets anonymous requests through but still rejects
// requests that present an invalid token.
func (m *Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return m.handler(next, true)
}

func (m *Middleware) handler(next http.Handler, optional bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		l := m.logger.With(slog.String("middleware", "Authenticate"))

		tokenString, err := bearerToken(r)
		if errors.Is(err, errMissingToken) && optional {
			next.ServeHTTP(w, r)
			return
		}
		if err != nil {
			l.WarnContext(ctx, "Rejected Authorization header", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusUnauthorized, capitalize(err.Error()))
			return
		}

		claims, err := m.parse(tokenString)
		if err != nil {
			l.WarnContext(ctx, "Token parsing/validation failed", slog.Any("error", err))
			api.ErrorResponse(w, r, http.StatusUnauthorized, tokenErrorMessage(err))
			return
		}

		userID := claims.ResolvedUserID()
		if _, err := uuid.Parse(userID); err != nil {
			l.WarnContext(ctx, "Token subject is not a user id", slog.String("subject", userID))
			api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token subject")
			return
		}

		ctx = context.WithValue(ctx, UserIDKey, userID)
		ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
		l.DebugContext(ctx, "Authentication successful", slog.String("userID", userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *Middleware) parse(tokenString string) (*types.Claims, error) {
	if len(m.secretKey) == 0 {
		return nil, errors.New("jwt secret key not configured")
	}
	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token marked as invalid")
	}
	if m.cfg.Issuer != "" && claims.Issuer != m.cfg.Issuer {
		return nil, fmt.Errorf("%w: issuer %q", jwt.ErrTokenInvalidIssuer, claims.Issuer)
	}
	if !api.VerifyAudience(claims.Audience, m.cfg.Audience) {
		return nil, fmt.Errorf("%w: %v", jwt.ErrTokenInvalidAudience, claims.Audience)
	}
	return claims, nil
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errMissingToken
	}
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" || headerParts[1] == "" {
		return "", errBadHeader
	}
	return headerParts[1], nil
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "Malformed token"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "Invalid token signature"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return "Invalid token issuer"
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "Invalid token audience"
	default:
		return "Invalid or expired token"
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// GetUserIDFromContext returns the authenticated user id, if any.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	raw, ok := ctx.Value(UserIDKey).(string)
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

// WithUserID returns ctx carrying userID as if Authenticate had run.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID.String())
}
