package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rentora/listings-service/internal/utils"
)

type contextKey string

const (
	ctxKeyUserID  contextKey = "userId"
	ctxKeyIsAdmin contextKey = "isAdmin"
)

const adminRole = "Admin"

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies RS256 bearer tokens and resolves the caller into the
// request context. Handlers downstream read the caller with UserID and
// IsAdmin rather than touching the token.
type Auth struct {
	publicKey *rsa.PublicKey
}

func NewAuth(publicKey *rsa.PublicKey) *Auth {
	return &Auth{publicKey: publicKey}
}

// Require rejects requests without a valid token.
func (a *Auth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, isAdmin, err := a.resolve(r)
		if err != nil {
			code := utils.ErrCodeUnauthorized
			if errors.Is(err, jwt.ErrTokenExpired) {
				code = utils.ErrCodeTokenExpired
			}
			utils.RespondErrorWithCode(w, http.StatusUnauthorized, code, "authentication required", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), userID, isAdmin)))
	})
}

// RequireAdmin rejects requests whose token lacks the admin role. Chain
// after Require.
func (a *Auth) RequireAdmin(next http.Handler) http.Handler {
	return a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeForbidden, "administrator access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// Optional resolves the caller when a token is present but lets anonymous
// requests through. Used on public reads that personalize when they can.
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, isAdmin, err := a.resolve(r); err == nil {
			r = r.WithContext(withCaller(r.Context(), userID, isAdmin))
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) resolve(r *http.Request) (string, bool, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false, errors.New("missing bearer token")
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return "", false, err
	}
	if !token.Valid || c.Subject == "" {
		return "", false, errors.New("invalid token")
	}
	return c.Subject, c.Role == adminRole, nil
}

func withCaller(ctx context.Context, userID string, isAdmin bool) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	return context.WithValue(ctx, ctxKeyIsAdmin, isAdmin)
}

// UserID returns the authenticated caller's id, or "" for anonymous
// requests.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserID).(string); ok {
		return v
	}
	return ""
}

func IsAdmin(ctx context.Context) bool {
	if v, ok := ctx.Value(ctxKeyIsAdmin).(bool); ok {
		return v
	}
	return false
}
