package apiclient

import "time"

// Config holds transport client configuration
type Config struct {
	// BaseURL is the backend API root, without a trailing slash
	BaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:8000/api"`

	// RequestTimeout bounds a single request/response exchange
	RequestTimeout time.Duration `env:"API_REQUEST_TIMEOUT" envDefault:"15s"`
}

// DefaultConfig returns default transport configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8000/api",
		RequestTimeout: 15 * time.Second,
	}
}
