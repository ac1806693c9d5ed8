package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyportal/authkit/pkg/apiclient"
	"github.com/studyportal/authkit/pkg/apierror"
	"github.com/studyportal/authkit/pkg/credstore"
	"github.com/studyportal/authkit/pkg/session"
)

// setupWithClient mirrors setup but also exposes the transport client, so
// tests can drive authenticated requests directly and observe the 401 hook.
func setupWithClient(t *testing.T, mux *http.ServeMux) (*apiclient.Client, *session.Manager, *credstore.MemoryStore, func()) {
	t.Helper()
	srv := httptest.NewServer(mux)

	client := apiclient.New(apiclient.Config{BaseURL: srv.URL, RequestTimeout: 5 * time.Second})
	store := credstore.NewMemoryStore()
	mgr := session.New(client, store)

	return client, mgr, store, srv.Close
}

func TestRefresh_SingleFlight(t *testing.T) {
	ctx := context.Background()

	var dataCalls, refreshCalls atomic.Int32
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		dataCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(t, w, map[string]bool{"ok": true})
	})
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		// Hold the exchange open until every caller has hit its 401 and
		// parked behind the in-flight refresh.
		<-release
		writeJSON(t, w, map[string]string{"access": "fresh"})
	})

	client, mgr, store, done := setupWithClient(t, mux)
	defer done()

	require.NoError(t, store.SetCredentials(ctx, credstore.Credentials{AccessToken: "stale", RefreshToken: "rtok"}))

	var refreshed atomic.Int32
	mgr.Subscribe(func(e session.Event) {
		if e.Type == session.EventTokenRefreshed {
			refreshed.Add(1)
		}
	})

	const callers = 5
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := client.Get(ctx, "/data")
			errs <- err
		}()
	}

	// Give every goroutine time to take its 401 and join the shared exchange.
	time.Sleep(150 * time.Millisecond)
	close(release)

	for i := 0; i < callers; i++ {
		require.NoError(t, <-errs)
	}

	assert.Equal(t, int32(1), refreshCalls.Load(), "concurrent 401s must coalesce into one exchange")
	assert.Equal(t, int32(2*callers), dataCalls.Load(), "each caller fails once and replays once")
	assert.Equal(t, int32(1), refreshed.Load())

	creds, err := store.Credentials(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", creds.AccessToken)
}

func TestRefresh_FailureTearsDownOnce(t *testing.T) {
	ctx := context.Background()

	mux := http.NewServeMux()
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, mgr, store, done := setupWithClient(t, mux)
	defer done()

	require.NoError(t, store.SetCredentials(ctx, credstore.Credentials{AccessToken: "stale", RefreshToken: "dead"}))

	var logouts atomic.Int32
	mgr.Subscribe(func(e session.Event) {
		if e.Type == session.EventLogout {
			logouts.Add(1)
		}
	})

	const callers = 5
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Get(ctx, "/data")
			assert.True(t, apierror.IsKind(apierror.Classify(err), apierror.KindTokenRefreshFailed))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), logouts.Load(), "n waiting callers, one observable teardown")

	creds, err := store.Credentials(ctx)
	require.NoError(t, err)
	assert.False(t, creds.Complete())
}

func TestRefresh_NoInfiniteRetry(t *testing.T) {
	ctx := context.Background()

	// Refresh keeps succeeding, yet the resource rejects even fresh tokens.
	// Each request must fail after exactly one replay instead of looping.
	var dataCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		dataCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]string{"access": "fresh"})
	})

	client, mgr, store, done := setupWithClient(t, mux)
	defer done()

	require.NoError(t, store.SetCredentials(ctx, credstore.Credentials{AccessToken: "stale", RefreshToken: "rtok"}))

	var logouts atomic.Int32
	mgr.Subscribe(func(e session.Event) {
		if e.Type == session.EventLogout {
			logouts.Add(1)
		}
	})

	_, err := client.Get(ctx, "/data")
	require.Error(t, err)
	assert.True(t, apierror.IsKind(apierror.Classify(err), apierror.KindTokenExpired))

	assert.Equal(t, int32(2), dataCalls.Load(), "original attempt plus one replay, never a loop")
	assert.Equal(t, int32(1), logouts.Load(), "a 401 on the replayed token is unrecoverable")

	creds, _ := store.Credentials(ctx)
	assert.False(t, creds.Complete())
}

func TestRefresh_LogoutDuringRefresh(t *testing.T) {
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var enterOnce sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc("/data", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		enterOnce.Do(func() { close(entered) })
		<-release
		writeJSON(t, w, map[string]string{"access": "late-token"})
	})

	client, mgr, store, done := setupWithClient(t, mux)
	defer done()

	require.NoError(t, store.SetCredentials(ctx, credstore.Credentials{AccessToken: "stale", RefreshToken: "rtok"}))

	var logouts atomic.Int32
	mgr.Subscribe(func(e session.Event) {
		if e.Type == session.EventLogout {
			logouts.Add(1)
		}
	})

	errs := make(chan error, 1)
	go func() {
		_, err := client.Get(ctx, "/data")
		errs <- err
	}()

	// Logout lands while the exchange is parked inside the refresh endpoint.
	<-entered
	mgr.Logout()
	close(release)

	err := <-errs
	require.Error(t, err)
	assert.True(t, apierror.IsKind(apierror.Classify(err), apierror.KindTokenRefreshFailed))

	// The late token must not resurrect the cleared session, and the stale
	// exchange must not count as a second teardown.
	creds, serr := store.Credentials(ctx)
	require.NoError(t, serr)
	assert.False(t, creds.Complete())
	assert.Equal(t, session.StateUnauthenticated, mgr.State())
	assert.Equal(t, int32(1), logouts.Load())
}
