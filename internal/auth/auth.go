package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"give-stripe-extended/internal/utils"

	"github.com/golang-jwt/jwt/v4"
)

const RoleAdmin = "admin"

type ctxKey int

const (
	claimsKey ctxKey = iota
	enabledKey
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Sign issues an HS256 token for subject with the given role.
func Sign(secret []byte, subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString(secret)
}

func Parse(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Authenticator checks bearer tokens. An empty secret disables it and the
// caller's admin headers are trusted as is.
type Authenticator struct {
	secret []byte
	log    *utils.Logger
}

func New(secret string, logger *utils.Logger) *Authenticator {
	return &Authenticator{secret: []byte(strings.TrimSpace(secret)), log: logger}
}

func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.secret) > 0
}

// Middleware attaches the token claims to the request context. Requests
// without a token pass through, requests with a bad token are rejected.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), enabledKey, true)

		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		claims, err := Parse(a.secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			a.log.Warn("auth_token_invalid", map[string]interface{}{"path": r.URL.Path, "error": err.Error()})
			utils.RespondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, claimsKey, claims)))
	})
}

// RequireAdmin rejects callers without an admin token when auth is enabled.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !Enabled(r.Context()) {
			next(w, r)
			return
		}
		if _, ok := FromContext(r.Context()); !ok {
			utils.RespondError(w, http.StatusUnauthorized, "token required")
			return
		}
		if !IsAdmin(r.Context()) {
			utils.RespondError(w, http.StatusForbidden, "admin only")
			return
		}
		next(w, r)
	}
}

func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok
}

func Enabled(ctx context.Context) bool {
	v, _ := ctx.Value(enabledKey).(bool)
	return v
}

func IsAdmin(ctx context.Context) bool {
	c, ok := FromContext(ctx)
	return ok && c.Role == RoleAdmin
}
