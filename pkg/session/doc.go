// Package session is the centerpiece of the auth core: it owns login, logout,
// current-user resolution with ordered endpoint fallback, startup session
// validation, and the single-flight token refresh that concurrent API calls
// coalesce onto.
//
// # Lifecycle
//
// The Manager is an explicitly constructed service instance: build it once at
// the composition root around a transport client and a credential store, and
// pass it by reference. It registers itself as the client's bearer token
// source and 401 handler, so any request made through that client transparently
// gets the refresh-and-retry treatment, bounded to one retry per request.
//
//	client := apiclient.New(apiclient.Config{BaseURL: baseURL})
//	store, _ := credstore.NewFileStore(path)
//	mgr := session.New(client, store, session.WithLogger(log))
//
//	user, err := mgr.Login(ctx, email, password)
//
// # Concurrency
//
// The refresh coordinator guarantees at most one in-flight refresh exchange:
// N requests observing an expired token during the same window produce one
// network exchange and N retried requests carrying the one resulting token.
// A failed exchange tears the session down exactly once. Logout is
// synchronous and safe to call mid-refresh: the coordinator checks a
// generation counter before writing a refreshed token back, so a late result
// cannot resurrect a cleared session.
//
// # Events
//
// Presentation layers observe the session through Subscribe rather than the
// manager importing any notification machinery; see Event and EventType.
package session
