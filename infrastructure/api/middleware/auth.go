package middleware

import (
	"net/http"
)

// APIKeyHeader carries the API key on mutating requests.
const APIKeyHeader = "X-API-KEY"

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	apiKeys map[string]struct{}
	enabled bool
}

// NewAuthConfigWithKeys creates an AuthConfig accepting any of apiKeys.
// Empty keys are ignored; with no keys authentication is disabled.
func NewAuthConfigWithKeys(apiKeys []string) AuthConfig {
	keys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys[k] = struct{}{}
		}
	}
	if len(keys) == 0 {
		return AuthConfig{enabled: false}
	}
	return AuthConfig{apiKeys: keys, enabled: true}
}

// Enabled returns true if authentication is enabled.
func (c AuthConfig) Enabled() bool { return c.enabled }

func (c AuthConfig) valid(key string) bool {
	_, ok := c.apiKeys[key]
	return ok
}

// WriteProtect requires a valid X-API-KEY header on mutating requests.
// GET, HEAD and OPTIONS always pass.
func WriteProtect(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !config.enabled || readOnly(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(APIKeyHeader)
			switch {
			case key == "":
				WriteError(w, r, NewAuthenticationError(APIKeyHeader + " header is required"), nil)
			case !config.valid(key):
				WriteError(w, r, NewAuthenticationError("invalid API key"), nil)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// WriteProtectAuth builds WriteProtect from a slice of API keys.
func WriteProtectAuth(apiKeys []string) func(http.Handler) http.Handler {
	return WriteProtect(NewAuthConfigWithKeys(apiKeys))
}

func readOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
