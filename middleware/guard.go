package middleware

import (
	"context"
	"net/http"
	"strings"

	sessionauth "github.com/tidegate/sessionauth"
	"github.com/tidegate/sessionauth/session"
)

type sessionContextKey struct{}

// SessionFromContext returns the session record stored by [RequireSession].
func SessionFromContext(ctx context.Context) (*session.Record, bool) {
	rec, ok := ctx.Value(sessionContextKey{}).(*session.Record)
	return rec, ok
}

// RequireSession returns middleware that rejects requests without a valid
// bearer token. On success the session record is attached to the request
// context for downstream handlers.
func RequireSession(engine *sessionauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			rec, err := engine.Validate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, rec)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
