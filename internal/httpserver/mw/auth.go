package mw

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/hoarder/internal/logger"
)

type ctxKey int

const apiKeyCtxKey ctxKey = iota

// APIKeyFromContext returns the key the request authenticated with.
func APIKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(apiKeyCtxKey).(string)
	return key
}

// APIKey requires "Authorization: Bearer <key>" with one of keys and answers
// 401 otherwise.
func APIKey(keys []string, log logger.Logger) func(http.Handler) http.Handler {
	accepted := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			accepted = append(accepted, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if !knownKey(accepted, token) {
				log.Debug("unknown api key", logger.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "invalid api key")
				return
			}
			ctx := context.WithValue(r.Context(), apiKeyCtxKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func knownKey(accepted [][]byte, token string) bool {
	match := 0
	for _, k := range accepted {
		match |= subtle.ConstantTimeCompare(k, []byte(token))
	}
	return match == 1
}
