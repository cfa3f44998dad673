// Package session owns the answer to "who, if anyone, is logged in" for one
// client. Every mutation notifies subscribers before it returns.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"eduvista/internal/model"
	"eduvista/internal/service"

	"go.uber.org/zap"
)

type EventType string

const (
	EventLogin       EventType = "login"
	EventRegister    EventType = "register"
	EventLogout      EventType = "logout"
	EventRestore     EventType = "restore"
	EventInvalidated EventType = "invalidated"
)

// Event describes a session change. User is nil when the session ended.
type Event struct {
	Type EventType   `json:"type"`
	User *model.User `json:"user"`
}

// Listener is called synchronously after every session change. It may read
// the store but must not mutate it.
type Listener func(Event)

// Persister keeps the session record across restarts.
type Persister interface {
	Load() (*model.PersistedSession, error)
	Save(rec model.PersistedSession) error
	Clear() error
}

// Store holds at most one active session.
type Store struct {
	auth      service.AuthService
	persister Persister
	logger    *zap.Logger

	// notifyMu orders state changes together with their notifications.
	notifyMu sync.Mutex

	mu           sync.Mutex
	current      *model.Session
	pending      bool
	listeners    map[int]Listener
	nextListener int
}

// NewStore creates an empty store. Call Restore to pick up a persisted session.
func NewStore(auth service.AuthService, persister Persister, logger *zap.Logger) *Store {
	return &Store{
		auth:      auth,
		persister: persister,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// Login checks the credentials and, on success, replaces the active session.
// A failed login leaves the current session as it was.
func (s *Store) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	user, token, err := s.auth.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	s.establish(user, token, EventLogin, true)
	return user, nil
}

// Register creates the account and logs it in. A failed registration leaves
// the current session as it was.
func (s *Store) Register(ctx context.Context, form model.RegisterForm) (*model.User, error) {
	user, token, err := s.auth.Register(ctx, form)
	if err != nil {
		return nil, err
	}
	s.establish(user, token, EventRegister, true)
	return user, nil
}

// Logout ends the session. Calling it with no session is a no-op.
func (s *Store) Logout() {
	s.end(EventLogout)
}

// CurrentUser returns the logged-in user or nil.
func (s *Store) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	u := *s.current.User
	return &u
}

// Current returns a copy of the active session or nil.
func (s *Store) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	u := *s.current.User
	return &model.Session{User: &u, Token: s.current.Token, IssuedAt: s.current.IssuedAt}
}

// Role is the current user's role, or RoleNone.
func (s *Store) Role() model.Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return model.RoleNone
	}
	return s.current.User.Role
}

// Subscribe registers l and returns a function that removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Begin marks a login or registration as in flight. It returns false when
// one already is, in which case the caller must not submit again.
func (s *Store) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending {
		return false
	}
	s.pending = true
	return true
}

// End clears the in-flight mark set by Begin.
func (s *Store) End() {
	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
}

// Pending reports whether a submission is in flight.
func (s *Store) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Restore rehydrates the persisted session. Anything wrong with the record
// (missing, unreadable, expired, unknown user) leaves the store logged out.
func (s *Store) Restore(ctx context.Context) {
	rec, err := s.persister.Load()
	if err != nil {
		s.logger.Warn("discarding unreadable session record", zap.Error(err))
		s.clearRecord()
		return
	}
	if rec == nil {
		return
	}

	user, err := s.auth.Resolve(ctx, rec.Token)
	if err != nil || user.Username != rec.Username || user.Role != rec.Role {
		s.logger.Info("discarding stale session record",
			zap.String("username", rec.Username),
			zap.Error(err))
		s.clearRecord()
		return
	}
	s.establish(user, rec.Token, EventRestore, false)
}

// Revalidate ends the session if its token is no longer accepted. It reports
// whether a session is still active.
func (s *Store) Revalidate(ctx context.Context) bool {
	cur := s.Current()
	if cur == nil {
		return false
	}
	if _, err := s.auth.Resolve(ctx, cur.Token); err != nil {
		if !errors.Is(err, service.ErrInvalidToken) {
			s.logger.Warn("could not revalidate session", zap.String("username", cur.User.Username), zap.Error(err))
			return true
		}
		s.logger.Info("session token invalidated", zap.String("username", cur.User.Username))
		s.end(EventInvalidated)
		return false
	}
	return true
}

func (s *Store) establish(user *model.User, token string, typ EventType, persist bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	stored := *user
	s.mu.Lock()
	s.current = &model.Session{User: &stored, Token: token, IssuedAt: time.Now()}
	s.mu.Unlock()

	if persist {
		rec := model.PersistedSession{Username: user.Username, Role: user.Role, Token: token}
		if err := s.persister.Save(rec); err != nil {
			s.logger.Error("failed to persist session", zap.String("username", user.Username), zap.Error(err))
		}
	}
	s.logger.Info("session started", zap.String("event", string(typ)), zap.String("username", user.Username), zap.String("role", string(user.Role)))

	evUser := stored
	s.notify(Event{Type: typ, User: &evUser})
}

func (s *Store) end(typ EventType) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	had := s.current
	s.current = nil
	s.mu.Unlock()

	s.clearRecord()
	if had == nil {
		return
	}
	s.logger.Info("session ended", zap.String("event", string(typ)), zap.String("username", had.User.Username))
	s.notify(Event{Type: typ})
}

func (s *Store) clearRecord() {
	if err := s.persister.Clear(); err != nil {
		s.logger.Error("failed to clear session record", zap.Error(err))
	}
}

func (s *Store) notify(ev Event) {
	s.mu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(ev)
	}
}
