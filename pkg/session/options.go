package session

import "log/slog"

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithConfig sets custom configuration
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		if len(cfg.ProfileEndpoints) > 0 {
			m.cfg.ProfileEndpoints = cfg.ProfileEndpoints
		}
		if cfg.LivenessEndpoint != "" {
			m.cfg.LivenessEndpoint = cfg.LivenessEndpoint
		}
		m.cfg.RefreshLeeway = cfg.RefreshLeeway
	}
}

// WithLogger sets the manager logger
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}
