package middleware

import (
	"context"
	"net/http"
	"strings"

	"therapii_server/models"
	"therapii_server/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

type contextKey string

const callerIDKey contextKey = "callerID"

// CallerID returns the authenticated identity stored in the request
// context, or "" when the request is unauthenticated.
func CallerID(ctx context.Context) string {
	id, _ := ctx.Value(callerIDKey).(string)
	return id
}

// WithCallerID stores an identity in the context. Used by the auth
// middleware and by tests.
func WithCallerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, callerIDKey, id)
}

// RequireAuth verifies the bearer token minted by the identity provider
// (HS256, shared secret) and threads its subject through the request
// context as the caller identity.
func RequireAuth(secret string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			rawToken, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(rawToken) == "" {
				utils.WriteError(w, models.NewError(models.CodeUnauthenticated, "Sign in required."))
				return
			}

			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				utils.WriteError(w, models.NewError(models.CodeUnauthenticated, "Sign in required."))
				return
			}

			subject, err := token.Claims.GetSubject()
			if err != nil || subject == "" {
				utils.WriteError(w, models.NewError(models.CodeUnauthenticated, "Sign in required."))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCallerID(r.Context(), subject)))
		})
	}
}
