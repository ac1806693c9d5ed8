package session

import "time"

// Config holds session manager configuration
type Config struct {
	// ProfileEndpoints are probed in order when resolving the current user;
	// the first one that answers with a decodable body wins.
	ProfileEndpoints []string `env:"AUTH_PROFILE_ENDPOINTS" envSeparator:"," envDefault:"/users/profile/,/users/me/"`

	// LivenessEndpoint is the lightweight authenticated call used to confirm
	// a freshly obtained token is actually accepted by the backend.
	LivenessEndpoint string `env:"AUTH_LIVENESS_ENDPOINT" envDefault:"/users/profile/"`

	// RefreshLeeway triggers a proactive token refresh when the access token
	// expires within this window. Zero disables proactive refresh.
	RefreshLeeway time.Duration `env:"AUTH_REFRESH_LEEWAY" envDefault:"30s"`
}

// DefaultConfig returns default session manager configuration
func DefaultConfig() Config {
	return Config{
		ProfileEndpoints: []string{"/users/profile/", "/users/me/"},
		LivenessEndpoint: "/users/profile/",
		RefreshLeeway:    30 * time.Second,
	}
}
