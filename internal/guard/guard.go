package guard

import (
	"errors"
	"sync"

	"eduvista/internal/model"
	"eduvista/internal/policy"

	"go.uber.org/zap"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrUnauthorized    = errors.New("role may not view this route")
	ErrNotFound        = errors.New("route not found")
)

// Outcome is the result of one navigation attempt.
type Outcome string

const (
	Render             Outcome = "render"
	RedirectToLogin    Outcome = "redirect_to_login"
	RedirectToFallback Outcome = "redirect_to_fallback"
	// Redirect sends the client elsewhere without an access problem: alias
	// routes, and logged-in users opening the login or registration page.
	Redirect Outcome = "redirect"
)

// Decision is what the view layer should do for a requested path. It never
// names the roles a route admits.
type Decision struct {
	Outcome  Outcome
	Location string // where to go, or the path to render
	Route    model.Route
	// Err is set for the redirect-to-login and fallback outcomes.
	Err error
}

// SessionReader is the slice of the session store the guard reads.
type SessionReader interface {
	CurrentUser() *model.User
}

// Guard decides render versus redirect for one client. It remembers the
// path an unauthenticated visitor asked for until ResumePath consumes it.
type Guard struct {
	sessions SessionReader
	policy   *policy.Policy
	logger   *zap.Logger

	mu      sync.Mutex
	pending string
}

func New(sessions SessionReader, p *policy.Policy, logger *zap.Logger) *Guard {
	return &Guard{sessions: sessions, policy: p, logger: logger}
}

// Evaluate runs on every navigation event.
func (g *Guard) Evaluate(path string) Decision {
	route, ok := g.policy.Lookup(path)
	if !ok {
		return g.fallback(path, ErrNotFound)
	}

	user := g.sessions.CurrentUser()
	role := model.RoleNone
	if user != nil {
		role = user.Role
	}

	if user != nil && (route.Path == policy.LoginPath || route.Path == policy.RegisterPath) {
		return Decision{Outcome: Redirect, Location: g.ResumePath(), Route: route}
	}

	if route.RequiresAuth && user == nil {
		g.remember(path)
		g.logger.Debug("navigation requires login", zap.String("path", path))
		return Decision{Outcome: RedirectToLogin, Location: policy.LoginPath, Route: route, Err: ErrUnauthenticated}
	}

	if route.RedirectTo != "" {
		return Decision{Outcome: Redirect, Location: route.RedirectTo, Route: route}
	}

	if !policy.IsAuthorized(role, route) {
		g.logger.Info("navigation denied",
			zap.String("path", path),
			zap.String("username", user.Username),
			zap.String("role", string(role)))
		return g.fallback(path, ErrUnauthorized)
	}

	return Decision{Outcome: Render, Location: route.Path, Route: route}
}

// RememberedPath peeks at the destination saved by the last login redirect.
func (g *Guard) RememberedPath() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// ResumePath returns where to go after a successful login and forgets it.
func (g *Guard) ResumePath() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	dest := g.pending
	g.pending = ""
	if dest == "" {
		return policy.HomePath
	}
	return dest
}

// Forget drops any remembered destination.
func (g *Guard) Forget() {
	g.mu.Lock()
	g.pending = ""
	g.mu.Unlock()
}

func (g *Guard) remember(path string) {
	g.mu.Lock()
	g.pending = path
	g.mu.Unlock()
}

func (g *Guard) fallback(path string, err error) Decision {
	route, _ := g.policy.Lookup(policy.NotFoundPath)
	g.logger.Debug("navigation falls back", zap.String("path", path), zap.Error(err))
	return Decision{Outcome: RedirectToFallback, Location: policy.NotFoundPath, Route: route, Err: err}
}
