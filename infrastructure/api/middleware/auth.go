package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKeyHeader is the header carrying the client's API key.
const APIKeyHeader = "X-API-KEY"

// AuthConfig holds the keys accepted by WriteProtect. An empty key set
// disables authentication entirely.
type AuthConfig struct {
	keys []string
}

// NewAuthConfigWithKeys creates an AuthConfig accepting the given keys.
func NewAuthConfigWithKeys(keys []string) AuthConfig {
	return AuthConfig{keys: keys}
}

// Enabled reports whether any keys are configured.
func (c AuthConfig) Enabled() bool {
	return len(c.keys) > 0
}

// Accepts reports whether the presented key matches a configured key.
func (c AuthConfig) Accepts(key string) bool {
	if key == "" {
		return false
	}
	for _, k := range c.keys {
		if subtle.ConstantTimeCompare([]byte(k), []byte(key)) == 1 {
			return true
		}
	}
	return false
}

// WriteProtect returns middleware that requires a valid API key on mutating
// methods (POST, PUT, PATCH, DELETE). Safe methods pass through unchecked.
// With no keys configured, everything passes.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() || !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if !config.Accepts(r.Header.Get(APIKeyHeader)) {
				WriteError(w, r, NewAuthenticationError("missing or invalid API key"), nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
