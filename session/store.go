package session

import (
	"sync"
)

// EventKind identifies which transition produced an Event.
type EventKind string

const (
	EventEstablished        EventKind = "established"
	EventRevalidated        EventKind = "revalidated"
	EventCleared            EventKind = "cleared"
	EventInvalidated        EventKind = "invalidated"
	EventInitialized        EventKind = "initialized"
	EventRefreshFailed      EventKind = "refresh_failed"
	EventReauthAcknowledged EventKind = "reauth_acknowledged"
)

// Event is delivered to subscribers after every transition.
type Event struct {
	Kind  EventKind
	State State
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// Store holds the process-wide session and publishes its transitions.
// Starts empty and uninitialized.
type Store struct {
	lock        sync.RWMutex
	state       State
	subscribers []subscriber
	nextID      uint64
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy that is safe to keep and read concurrently.
func (s *Store) Snapshot() State {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.copyState()
}

func (s *Store) Subject() string {
	return s.Snapshot().Subject()
}

func (s *Store) AntiForgeryToken() string {
	return s.Snapshot().AntiForgeryToken()
}

func (s *Store) Authenticated() bool {
	return s.Snapshot().Authenticated()
}

// Subscribe registers fn for every subsequent transition. Subscribers run
// synchronously on the mutating goroutine, outside the store lock, in
// registration order.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.nextID++
	id := s.nextID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lock.Lock()
			defer s.lock.Unlock()
			for i, sub := range s.subscribers {
				if sub.id == id {
					s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
					return
				}
			}
		})
	}
}

// Establish populates the session from a credential-establishing response
// (login, refresh or probe).
func (s *Store) Establish(identity *Identity) error {
	if identity == nil {
		return ErrNilIdentity
	}
	if identity.Subject == "" {
		return ErrEmptySubject
	}
	s.mutate(EventEstablished, func(st *State) {
		st.Identity = identity.clone()
		st.Initialized = true
		st.ForceReauthentication = false
		st.RefreshErr = nil
	})
	return nil
}

// Revalidate records a successful refresh that carried no identity body.
func (s *Store) Revalidate() {
	s.mutate(EventRevalidated, func(st *State) {
		st.Initialized = true
		st.RefreshErr = nil
	})
}

// Clear is the explicit logout transition.
func (s *Store) Clear() {
	s.mutate(EventCleared, func(st *State) {
		st.Identity = nil
		st.Initialized = true
		st.ForceReauthentication = false
		st.RefreshErr = nil
	})
}

// Invalidate clears the session after the backend rejected the refresh
// credential and requires the user to sign in again.
func (s *Store) Invalidate() {
	s.mutate(EventInvalidated, func(st *State) {
		st.Identity = nil
		st.Initialized = true
		st.ForceReauthentication = true
		st.RefreshErr = nil
	})
}

// MarkInitialized completes bootstrap without establishing an identity.
// An identity already present is left alone.
func (s *Store) MarkInitialized() {
	s.mutate(EventInitialized, func(st *State) {
		st.Initialized = true
	})
}

// ReportRefreshError records an infrastructure failure during refresh.
// Credentials and the force-reauthentication flag are not touched.
func (s *Store) ReportRefreshError(err error) {
	s.mutate(EventRefreshFailed, func(st *State) {
		st.Initialized = true
		st.RefreshErr = err
	})
}

// AcknowledgeReauth clears the force-reauthentication flag once the user has
// left the login surface.
func (s *Store) AcknowledgeReauth() {
	s.mutate(EventReauthAcknowledged, func(st *State) {
		st.ForceReauthentication = false
	})
}

func (s *Store) mutate(kind EventKind, fn func(*State)) {
	s.lock.Lock()
	fn(&s.state)
	event := Event{Kind: kind, State: s.copyState()}
	subs := make([]subscriber, len(s.subscribers))
	copy(subs, s.subscribers)
	s.lock.Unlock()

	for _, sub := range subs {
		sub.fn(event)
	}
}

// copyState must be called with the lock held.
func (s *Store) copyState() State {
	st := s.state
	st.Identity = s.state.Identity.clone()
	return st
}
