package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fernet/fernet-go"

	"github.com/ndewijer/Brokerage-Holdings-Backend/internal/api/response"
)

type userIDKey struct{}

// WithUserID returns a context carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the authenticated user id stored by Authenticator.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// Authenticator resolves the calling user. Session tokens are fernet
// tokens whose payload is the user id, sent as "Authorization: Bearer <token>".
// With no keys configured the user id is taken from the X-User-ID header,
// for deployments behind a gateway that has already authenticated the caller.
type Authenticator struct {
	keys []*fernet.Key
	ttl  time.Duration
}

// NewAuthenticator decodes the configured fernet keys. The first key is
// the current one; the others are accepted for rotation.
func NewAuthenticator(keys []string, ttl time.Duration) (*Authenticator, error) {
	a := &Authenticator{ttl: ttl}
	if len(keys) == 0 {
		return a, nil
	}
	decoded, err := fernet.DecodeKeys(keys...)
	if err != nil {
		return nil, fmt.Errorf("invalid fernet key: %w", err)
	}
	a.keys = decoded
	return a, nil
}

// Middleware rejects requests without a resolvable user with 401 and
// stores the user id in the request context otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.keys) == 0 {
			userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
			if userID == "" {
				response.RespondError(w, http.StatusUnauthorized, "authentication required", "Missing user")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			response.RespondError(w, http.StatusUnauthorized, "authentication required", "Missing session token")
			return
		}

		payload := fernet.VerifyAndDecrypt([]byte(strings.TrimSpace(token)), a.ttl, a.keys)
		if len(payload) == 0 {
			response.RespondError(w, http.StatusUnauthorized, "authentication required", "Invalid session token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), string(payload))))
	})
}
