// Package registration models the multi-step signup lifecycle:
//
//	Idle -> Submitting -> PendingVerification -> {Verified, Cancelled, Expired}
//
// Registering creates an inactive account server-side and emails a one-time
// code; no session exists until VerifyOTP succeeds. Terminal states behave
// like Idle for the next Register call, so a cancelled or expired attempt is
// simply started over.
//
// Resends are throttled client-side with a fixed cooldown window before any
// network traffic happens; the backend's own rate limiting is a separate,
// server-driven signal (apierror.KindRateLimited).
package registration
