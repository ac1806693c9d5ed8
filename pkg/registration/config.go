package registration

import "time"

// Config holds registration flow configuration
type Config struct {
	// ResendCooldown is the client-enforced minimum interval between OTP
	// resend requests. Independent of server-side rate limiting.
	ResendCooldown time.Duration `env:"REGISTRATION_RESEND_COOLDOWN" envDefault:"30s"`
}

// DefaultConfig returns default registration configuration
func DefaultConfig() Config {
	return Config{
		ResendCooldown: 30 * time.Second,
	}
}
