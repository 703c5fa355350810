package middleware

import (
	"crypto/subtle"
	"net/http"
)

// AuthConfig holds API keys for write protection.
type AuthConfig struct {
	keys []string
}

// NewAuthConfigWithKeys creates an AuthConfig. An empty key list disables
// write protection.
func NewAuthConfigWithKeys(keys []string) AuthConfig {
	copied := make([]string, len(keys))
	copy(copied, keys)
	return AuthConfig{keys: copied}
}

// Enabled reports whether write protection is active.
func (c AuthConfig) Enabled() bool {
	return len(c.keys) > 0
}

// Validate reports whether the given key matches a configured key.
func (c AuthConfig) Validate(key string) bool {
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

// WriteProtect returns middleware requiring a valid X-API-KEY header on
// mutating methods. Read methods always pass. With no keys configured the
// middleware is a no-op.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.Enabled() || !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			if !config.Validate(r.Header.Get("X-API-KEY")) {
				WriteJSON(w, http.StatusUnauthorized, map[string]string{
					"error": "missing or invalid API key",
				})
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
