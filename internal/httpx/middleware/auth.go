package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/hlog"

	"typst-relay/internal/auth"
	"typst-relay/internal/httpx/response"
)

// TokenQueryParam carries the token for websocket upgrades, where browsers
// cannot set headers.
const TokenQueryParam = "token"

// AuthAPI creates a bearer-token middleware. With an empty secret every
// request passes, which is the default for a loopback-only relay.
func AuthAPI(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(secret) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := GetToken(r)
			if token == "" {
				response.Unauthorized(w)
				return
			}
			if _, err := auth.Verify(secret, token); err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("rejected token")
				response.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetToken extracts the bearer token from the Authorization header or the
// token query parameter.
func GetToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return r.URL.Query().Get(TokenQueryParam)
}
