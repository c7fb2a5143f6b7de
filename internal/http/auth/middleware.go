package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrJamesThe3rd/budgetnest/internal/auth"
)

type ctxKey struct{}

// Verifier checks a bearer token.
type Verifier interface {
	Verify(token string) (auth.User, error)
}

// RequireUser rejects requests without a valid bearer token and stores the
// token's user in the request context.
func RequireUser(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				http.Error(w, "authorization header required", http.StatusUnauthorized)
				return
			}

			u, err := v.Verify(token)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
		})
	}
}

// UserFrom returns the user stored by RequireUser.
func UserFrom(ctx context.Context) (auth.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(auth.User)
	return u, ok
}
