package registration

import (
	"log/slog"
	"time"
)

// Option is a functional option for configuring the Flow
type Option func(*Flow)

// WithConfig sets custom configuration
func WithConfig(cfg Config) Option {
	return func(f *Flow) {
		if cfg.ResendCooldown > 0 {
			f.cfg.ResendCooldown = cfg.ResendCooldown
		}
	}
}

// WithTokenAcceptor wires the session manager so a token pair returned by
// OTP verification logs the user in directly.
func WithTokenAcceptor(acceptor TokenAcceptor) Option {
	return func(f *Flow) {
		f.acceptor = acceptor
	}
}

// WithLogger sets the flow logger
func WithLogger(log *slog.Logger) Option {
	return func(f *Flow) {
		if log != nil {
			f.log = log
		}
	}
}

// WithClock overrides the time source used for the resend cooldown.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		if now != nil {
			f.now = now
		}
	}
}
