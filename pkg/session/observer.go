package session

import (
	"time"

	"github.com/studyportal/authkit/pkg/credstore"
)

// EventType identifies a session lifecycle event.
type EventType string

const (
	EventLogin          EventType = "login"
	EventLogout         EventType = "logout"
	EventTokenRefreshed EventType = "token_refreshed"
	EventUserUpdated    EventType = "user_updated"
)

// Event is delivered to subscribers on session state changes. User is set for
// login and user-update events.
type Event struct {
	Type EventType
	User *credstore.UserSnapshot
	At   time.Time
}

// Subscribe registers a listener for session events and returns an
// unsubscribe function. Listeners are invoked synchronously in subscription
// order; slow listeners slow down the operation that emitted the event, so
// presentation layers should hand off to their own queue.
func (m *Manager) Subscribe(fn func(Event)) func() {
	if fn == nil {
		return func() {}
	}

	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) emit(t EventType, user *credstore.UserSnapshot) {
	m.subMu.Lock()
	listeners := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		listeners = append(listeners, fn)
	}
	m.subMu.Unlock()

	evt := Event{Type: t, User: user, At: time.Now()}
	for _, fn := range listeners {
		fn(evt)
	}
}
