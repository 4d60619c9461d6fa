package ems

import (
	"fmt"
	"sync"
)

// Holder owns the current session for the whole process. Views receive it at
// construction; nothing reads the persisted copy directly.
type Holder struct {
	store  SessionStore
	clock  Clock
	logger Logger

	mu        sync.RWMutex
	current   *Session
	observers map[int]func(*Session)
	nextID    int
}

// NewHolder creates an empty Holder. Call Init to load the persisted session.
func NewHolder(store SessionStore, clock Clock, logger Logger) *Holder {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Holder{
		store:     store,
		clock:     clock,
		logger:    logger,
		observers: make(map[int]func(*Session)),
	}
}

// Init loads the persisted session. A session whose token has expired is
// removed from the store and treated as absent.
func (h *Holder) Init() error {
	s, err := h.store.Load()
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if s != nil && TokenExpired(s.Token, h.clock.Now()) {
		h.logger.Info("discarding expired session", "username", s.Username)
		if err := h.store.Clear(); err != nil {
			return fmt.Errorf("clearing expired session: %w", err)
		}
		s = nil
	}

	h.mu.Lock()
	h.current = s
	h.mu.Unlock()
	return nil
}

// Close drops all observers. The persisted session is left in place.
func (h *Holder) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = make(map[int]func(*Session))
	return nil
}

// Set replaces the current session, persists it and notifies observers.
// The caller is trusted; no validation happens here.
func (h *Holder) Set(s Session) error {
	if err := h.store.Save(&s); err != nil {
		return fmt.Errorf("persisting session: %w", err)
	}
	h.mu.Lock()
	h.current = &s
	h.mu.Unlock()

	h.notify(&s)
	return nil
}

// User returns a copy of the current session, or nil when logged out.
func (h *Holder) User() *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return nil
	}
	s := *h.current
	return &s
}

// Require is the guard every protected view runs before touching the
// network. It fails with ErrNotAuthenticated when no session is held.
func (h *Holder) Require() (*Session, error) {
	s := h.User()
	if s == nil {
		return nil, ErrNotAuthenticated
	}
	return s, nil
}

// Clear removes the session and its persisted copy.
func (h *Holder) Clear() error {
	if err := h.store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	h.mu.Lock()
	h.current = nil
	h.mu.Unlock()

	h.notify(nil)
	return nil
}

// SetName refreshes the cached display name of the current session.
func (h *Holder) SetName(name string) error {
	s := h.User()
	if s == nil {
		return ErrNotAuthenticated
	}
	if s.Name == name {
		return nil
	}
	s.Name = name
	return h.Set(*s)
}

// Subscribe registers fn to be called after every change with the new
// session (nil on logout). The returned func unregisters it.
func (h *Holder) Subscribe(fn func(*Session)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.observers[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.observers, id)
		h.mu.Unlock()
	}
}

func (h *Holder) notify(s *Session) {
	h.mu.RLock()
	fns := make([]func(*Session), 0, len(h.observers))
	for _, fn := range h.observers {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		if s == nil {
			fn(nil)
			continue
		}
		cp := *s
		fn(&cp)
	}
}

// Permissions answers role-gating questions for one session.
type Permissions struct {
	session *Session
}

// PermissionsFor returns the permissions of s. A nil session may do nothing.
func PermissionsFor(s *Session) Permissions {
	return Permissions{session: s}
}

func (p Permissions) CanCreate() bool { return p.session.IsAdmin() }

func (p Permissions) CanDelete() bool { return p.session.IsAdmin() }

// CanEdit reports whether e may be edited: admins edit anyone, employees
// only themselves.
func (p Permissions) CanEdit(e Employee) bool {
	if p.session == nil {
		return false
	}
	return p.session.IsAdmin() || p.session.Username == e.Username
}

// CanChangeRole reports whether role changes are honoured on update.
func (p Permissions) CanChangeRole() bool { return p.session.IsAdmin() }
