// Package credstore persists the access/refresh token pair and the cached
// user snapshot. It is the only mutable shared state in the auth core.
//
// Three implementations of the Store interface are provided: MemoryStore for
// tests and ephemeral processes, FileStore for CLI-style clients that keep a
// session across restarts, and RedisStore for server-side holders of a portal
// session. All implementations write whole snapshots; a reader never observes
// a half-written token pair.
package credstore
