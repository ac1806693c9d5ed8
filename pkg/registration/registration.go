package registration

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/studyportal/authkit/pkg/apiclient"
	"github.com/studyportal/authkit/pkg/apierror"
)

// State is a registration lifecycle state.
type State string

const (
	StateIdle                State = "idle"
	StateSubmitting          State = "submitting"
	StatePendingVerification State = "pending_verification"
	StateVerified            State = "verified"
	StateCancelled           State = "cancelled"
	StateExpired             State = "expired"
)

// terminal states are equivalent to Idle for a new Register call: the
// previous attempt is gone (cancelled server-side or expired) and the email
// is available again.
func (s State) terminal() bool {
	return s == StateVerified || s == StateCancelled || s == StateExpired
}

// Data is the registration payload. Validation runs client-side before any
// network call; the backend re-validates and its field errors surface as
// KindValidationFailed too.
type Data struct {
	Username        string `json:"username" validate:"required,min=3,max=30"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name"`
}

// TokenAcceptor adopts a token pair returned by OTP verification so the
// freshly verified user is logged in without a separate login call. The
// session manager satisfies this.
type TokenAcceptor interface {
	AdoptSession(ctx context.Context, access, refresh string) error
}

// Flow models the register -> pending-verification -> (verified | cancelled |
// expired) lifecycle for one registration attempt at a time, including the
// client-enforced resend cooldown.
type Flow struct {
	client   *apiclient.Client
	cfg      Config
	validate *validator.Validate
	acceptor TokenAcceptor
	log      *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	state    State
	email    string
	lastSent time.Time
}

// NewFlow creates a registration flow in the Idle state.
func NewFlow(client *apiclient.Client, opts ...Option) *Flow {
	validate := validator.New(validator.WithRequiredStructEnabled())
	// Report failures under the wire field names, same as the backend does.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	f := &Flow{
		client:   client,
		cfg:      DefaultConfig(),
		validate: validate,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
		state:    StateIdle,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// State returns the current registration state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Email returns the email of the pending registration attempt, if any.
func (f *Flow) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

// Register submits a new registration. Valid from Idle and from any terminal
// state (starting fresh). On success the flow moves to PendingVerification
// and the backend emails an OTP; no session is created until the OTP is
// verified. On validation failure the flow stays Idle.
func (f *Flow) Register(ctx context.Context, data Data) error {
	f.mu.Lock()
	switch {
	case f.state == StateIdle || f.state.terminal():
		f.state = StateSubmitting
		f.email = ""
		f.lastSent = time.Time{}
	default:
		f.mu.Unlock()
		return ErrRegistrationPending
	}
	f.mu.Unlock()

	if err := f.validate.Struct(data); err != nil {
		f.setState(StateIdle)
		return validationError(err)
	}

	if _, err := f.client.Post(ctx, "/register/", data, apiclient.WithoutAuth()); err != nil {
		f.setState(StateIdle)
		return apierror.ClassifyLogin(err)
	}

	f.mu.Lock()
	f.state = StatePendingVerification
	f.email = data.Email
	f.lastSent = f.now()
	f.mu.Unlock()

	f.log.InfoContext(ctx, "registration submitted, awaiting verification", "email", data.Email)
	return nil
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type otpResponse struct {
	Message string `json:"message"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// VerifyOTP confirms the emailed code. Only valid from PendingVerification.
// A wrong code keeps the attempt pending; an expired code (the backend has
// discarded the attempt) moves the flow to Expired. On success the flow is
// Verified, and when the backend returns a token pair it is handed to the
// configured TokenAcceptor so the user is logged in directly. The returned
// bool reports whether a session was adopted.
func (f *Flow) VerifyOTP(ctx context.Context, email, code string) (bool, error) {
	if err := f.require(StatePendingVerification); err != nil {
		return false, err
	}

	resp, err := f.client.Post(ctx, "/verify-otp/", otpRequest{Email: email, OTP: code}, apiclient.WithoutAuth())
	if err != nil {
		msg := transportMessage(err)
		if strings.Contains(strings.ToLower(msg), "expired") {
			f.setState(StateExpired)
			return false, apierror.New(apierror.KindValidationFailed, msg)
		}

		classified := apierror.ClassifyLogin(err)
		if classified.Status != 400 {
			return false, classified
		}

		// Wrong code: stay pending, the user can retype or resend.
		if msg == "" {
			msg = "invalid verification code"
		}
		return false, apierror.New(apierror.KindValidationFailed, msg)
	}

	var body otpResponse
	_ = resp.Decode(&body)

	f.setState(StateVerified)
	f.log.InfoContext(ctx, "registration verified", "email", email)

	if body.Access != "" && body.Refresh != "" && f.acceptor != nil {
		if err := f.acceptor.AdoptSession(ctx, body.Access, body.Refresh); err != nil {
			// Verification itself succeeded; the caller can still log in
			// explicitly.
			f.log.WarnContext(ctx, "failed to adopt session after verification", "error", err)
			return false, nil
		}
		return true, nil
	}

	return false, nil
}

type emailRequest struct {
	Email string `json:"email"`
}

// ResendOTP requests a fresh code for the pending attempt. The cooldown is
// enforced client-side before any network call; it is independent of the
// server's own rate limiting, which still surfaces as KindRateLimited.
func (f *Flow) ResendOTP(ctx context.Context, email string) error {
	f.mu.Lock()
	if f.state != StatePendingVerification {
		f.mu.Unlock()
		return ErrNotPending
	}
	if wait := f.cfg.ResendCooldown - f.now().Sub(f.lastSent); wait > 0 {
		f.mu.Unlock()
		return ErrCooldownActive
	}
	f.mu.Unlock()

	if _, err := f.client.Post(ctx, "/resend-otp/", emailRequest{Email: email}, apiclient.WithoutAuth()); err != nil {
		return apierror.ClassifyLogin(err)
	}

	f.mu.Lock()
	f.lastSent = f.now()
	f.mu.Unlock()
	return nil
}

// Cancel abandons the pending attempt, deleting the unconfirmed account
// server-side so the email becomes available for registration again.
// Cancelled is terminal; the next Register starts fresh.
func (f *Flow) Cancel(ctx context.Context, email string) error {
	if err := f.require(StatePendingVerification); err != nil {
		return err
	}

	if _, err := f.client.Post(ctx, "/cancel-registration/", emailRequest{Email: email}, apiclient.WithoutAuth()); err != nil {
		return apierror.ClassifyLogin(err)
	}

	f.setState(StateCancelled)
	f.log.InfoContext(ctx, "registration cancelled", "email", email)
	return nil
}

func (f *Flow) require(state State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != state {
		return ErrNotPending
	}
	return nil
}

func (f *Flow) setState(state State) {
	f.mu.Lock()
	f.state = state
	f.mu.Unlock()
}

// transportMessage extracts the backend's human-readable message from a
// transport failure, if one exists.
func transportMessage(err error) string {
	var terr *apiclient.TransportError
	if !errors.As(err, &terr) {
		return ""
	}
	return apierror.MessageFromBody(terr.Body)
}
