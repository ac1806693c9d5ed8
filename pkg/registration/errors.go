package registration

import "errors"

var (
	// ErrRegistrationPending indicates a registration attempt is already in flight
	ErrRegistrationPending = errors.New("registration.already_pending")

	// ErrNotPending indicates the operation requires a pending verification
	ErrNotPending = errors.New("registration.not_pending")

	// ErrCooldownActive indicates the resend cooldown has not elapsed yet.
	// Purely client-side; no request was sent.
	ErrCooldownActive = errors.New("registration.cooldown_active")
)
