package session

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/studyportal/authkit/pkg/apiclient"
	"github.com/studyportal/authkit/pkg/apierror"
	"github.com/studyportal/authkit/pkg/credstore"
)

// State is the derived authentication state. It is never stored; it follows
// from the credential store contents and the manager's lifecycle operations.
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

// Manager orchestrates the session lifecycle: login, logout, profile
// resolution with endpoint fallback, startup session validation, and the
// retry-after-refresh policy exercised through the transport client's 401
// hook. Construct one instance at the composition root and share it.
type Manager struct {
	client  *apiclient.Client
	store   credstore.Store
	cfg     Config
	log     *slog.Logger
	refresh *refreshCoordinator

	mu    sync.RWMutex
	state State
	user  *credstore.UserSnapshot

	// logoutMu serializes Logout so concurrent dead-token signals produce a
	// single observable teardown.
	logoutMu sync.Mutex

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// New creates a session manager bound to the given transport client and
// credential store. It registers itself as the client's token source and
// 401 handler, so every authenticated request made through the client is
// covered by the single refresh-and-retry pass.
func New(client *apiclient.Client, store credstore.Store, opts ...Option) *Manager {
	m := &Manager{
		client: client,
		store:  store,
		cfg:    DefaultConfig(),
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:  StateUnauthenticated,
		subs:   make(map[int]func(Event)),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.refresh = newRefreshCoordinator(client, store, m.log, m.teardown, func(tok string) {
		m.emit(EventTokenRefreshed, nil)
	})

	client.SetTokenSource(m)
	client.SetUnauthorizedFunc(m.refresh.Refresh)
	client.SetAuthFailureHook(m.teardown)

	return m
}

// AccessToken implements apiclient.TokenSource.
func (m *Manager) AccessToken() string {
	creds, err := m.store.Credentials(context.Background())
	if err != nil {
		return ""
	}
	return creds.AccessToken
}

// State returns the current derived session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair, verifies the pair is actually
// usable with a liveness probe, and resolves the user profile. Profile
// resolution never fails a login that produced a working token: if every
// profile endpoint is down, a minimal snapshot is synthesized from the email.
func (m *Manager) Login(ctx context.Context, email, password string) (*credstore.UserSnapshot, error) {
	m.setState(StateAuthenticating, nil)

	resp, err := m.client.Post(ctx, "/token/", tokenRequest{Email: email, Password: password}, apiclient.WithoutAuth())
	if err != nil {
		m.setState(StateUnauthenticated, nil)
		return nil, apierror.ClassifyLogin(err)
	}

	var creds credstore.Credentials
	if err := resp.Decode(&creds); err != nil || !creds.Complete() {
		m.setState(StateUnauthenticated, nil)
		return nil, apierror.New(apierror.KindInvalidCredentials, "token exchange did not yield a full token pair")
	}

	if err := m.store.SetCredentials(ctx, creds); err != nil {
		m.setState(StateUnauthenticated, nil)
		return nil, apierror.Wrap(apierror.KindUnknown, "failed to persist credentials", err)
	}

	// A token that parses but is rejected by every protected endpoint must
	// not produce an authenticated session.
	if err := m.liveness(ctx); err != nil {
		classified := apierror.Classify(err)
		_ = m.store.Clear(ctx)
		m.setState(StateUnauthenticated, nil)
		m.log.WarnContext(ctx, "login liveness check failed", "kind", classified.Kind)
		return nil, classified
	}

	user, err := m.probeProfile(ctx)
	if err != nil {
		m.log.WarnContext(ctx, "profile resolution failed after login, synthesizing snapshot", "email", email)
		user = synthesizeSnapshot(email)
	}

	if err := m.store.SetCachedUser(ctx, user); err != nil {
		m.log.WarnContext(ctx, "failed to cache user snapshot", "error", err)
	}

	m.setState(StateAuthenticated, user)
	m.emit(EventLogin, user)
	return user, nil
}

// CurrentUser resolves the profile for the stored token. Without a token it
// returns (nil, nil) immediately with no network call. When every profile
// endpoint fails, the last cached snapshot is returned so a transient profile
// service outage does not force a logout.
func (m *Manager) CurrentUser(ctx context.Context) (*credstore.UserSnapshot, error) {
	creds, err := m.store.Credentials(ctx)
	if err != nil || creds.AccessToken == "" {
		return nil, nil
	}

	// Opportunistic: refresh ahead of expiry so the probe below does not
	// burn its fallback chain on a token known to be dead.
	if expiresWithin(creds.AccessToken, m.cfg.RefreshLeeway) {
		if _, err := m.refresh.Refresh(ctx); err != nil {
			return nil, apierror.Classify(err)
		}
	}

	user, err := m.probeProfile(ctx)
	if err != nil {
		if cached, cerr := m.store.CachedUser(ctx); cerr == nil && cached != nil {
			m.log.DebugContext(ctx, "profile probe failed, serving cached snapshot")
			return cached, nil
		}
		return nil, apierror.Classify(err)
	}

	if err := m.store.SetCachedUser(ctx, user); err != nil {
		m.log.WarnContext(ctx, "failed to cache user snapshot", "error", err)
	}
	m.setUser(user)
	return user, nil
}

// CheckSession validates a rehydrated session at startup. Policy: one profile
// probe across the endpoint fallback chain, then at most one refresh followed
// by one more probe. Anything beyond that is a dead session and is torn down.
func (m *Manager) CheckSession(ctx context.Context) bool {
	creds, err := m.store.Credentials(ctx)
	if err != nil || creds.AccessToken == "" {
		return false
	}

	if user, err := m.probeProfile(ctx); err == nil {
		_ = m.store.SetCachedUser(ctx, user)
		m.setState(StateAuthenticated, user)
		return true
	}

	if _, err := m.refresh.Refresh(ctx); err != nil {
		// Refresh failure already tore the session down, exactly once.
		return false
	}

	if user, err := m.probeProfile(ctx); err == nil {
		_ = m.store.SetCachedUser(ctx, user)
		m.setState(StateAuthenticated, user)
		return true
	}

	m.Logout()
	return false
}

// Logout is the universal recovery action: synchronous, side-effect only,
// never touches the network, safe to call in any state. It invalidates any
// in-flight refresh so a late refresh result cannot resurrect cleared
// credentials.
func (m *Manager) Logout() {
	m.logoutMu.Lock()
	defer m.logoutMu.Unlock()

	m.refresh.invalidate()

	ctx := context.Background()
	creds, _ := m.store.Credentials(ctx)
	_ = m.store.Clear(ctx)

	m.mu.Lock()
	wasActive := m.state != StateUnauthenticated || creds.AccessToken != ""
	m.state = StateUnauthenticated
	m.user = nil
	m.mu.Unlock()

	if wasActive {
		m.emit(EventLogout, nil)
	}
}

// AdoptSession installs a token pair obtained outside the login flow, e.g.
// from OTP verification, and resolves the profile for it.
func (m *Manager) AdoptSession(ctx context.Context, access, refresh string) error {
	creds := credstore.Credentials{AccessToken: access, RefreshToken: refresh}
	if !creds.Complete() {
		return apierror.New(apierror.KindInvalidCredentials, "incomplete token pair")
	}

	if err := m.store.SetCredentials(ctx, creds); err != nil {
		return apierror.Wrap(apierror.KindUnknown, "failed to persist credentials", err)
	}

	user, err := m.probeProfile(ctx)
	if err != nil {
		user = synthesizeSnapshot("")
	}
	_ = m.store.SetCachedUser(ctx, user)

	m.setState(StateAuthenticated, user)
	m.emit(EventLogin, user)
	return nil
}

// liveness confirms the freshly minted token is accepted by a protected
// endpoint. No refresh retry here: a rejected token straight out of the
// exchange is a failed login, not an expired session.
func (m *Manager) liveness(ctx context.Context) error {
	_, err := m.client.Get(ctx, m.cfg.LivenessEndpoint, apiclient.WithoutRetry())
	return err
}

// probeProfile tries the candidate profile endpoints in order and returns the
// first body that decodes. Individual endpoint failures are recovered locally
// by falling through to the next candidate; only total failure surfaces.
// Probes skip the 401 retry pass so the two-tier startup policy in
// CheckSession stays explicit and cannot loop.
func (m *Manager) probeProfile(ctx context.Context) (*credstore.UserSnapshot, error) {
	var lastErr error
	for _, endpoint := range m.cfg.ProfileEndpoints {
		resp, err := m.client.Get(ctx, endpoint, apiclient.WithoutRetry())
		if err != nil {
			lastErr = err
			continue
		}

		var user credstore.UserSnapshot
		if err := resp.Decode(&user); err != nil {
			lastErr = err
			continue
		}
		return &user, nil
	}

	if lastErr == nil {
		lastErr = ErrNoProfileEndpoints
	}
	return nil, lastErr
}

func (m *Manager) setState(state State, user *credstore.UserSnapshot) {
	m.mu.Lock()
	m.state = state
	m.user = user
	m.mu.Unlock()
}

func (m *Manager) setUser(user *credstore.UserSnapshot) {
	m.mu.Lock()
	m.user = user
	if user != nil {
		m.state = StateAuthenticated
	}
	m.mu.Unlock()
}

// teardown handles unrecoverable auth failures: refresh rejection (invoked
// inside the single shared refresh execution, so N waiting callers produce
// one logout) and a 401 on the refreshed-token replay. Idempotent: only the
// first call observes live state and emits the logout event.
func (m *Manager) teardown() {
	m.log.Warn("authentication unrecoverable, tearing session down")
	m.Logout()
}

// synthesizeSnapshot builds the minimal fallback profile used when a valid
// token exists but no profile endpoint answered.
func synthesizeSnapshot(email string) *credstore.UserSnapshot {
	username := email
	if i := strings.IndexByte(email, '@'); i > 0 {
		username = email[:i]
	}
	return &credstore.UserSnapshot{Email: email, Username: username}
}
