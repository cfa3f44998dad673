// Package policy holds the static route table and decides whether a role may
// reach a route. The navigation menu and the route guard both read from it.
package policy

import (
	"fmt"

	"eduvista/internal/model"
)

const (
	LoginPath    = "/login"
	RegisterPath = "/registro"
	HomePath     = "/dashboard"
	NotFoundPath = "/404"
)

// Policy is an immutable path -> route table.
type Policy struct {
	routes map[string]model.Route
	order  []string
}

// NewPolicy validates the table and indexes it by path.
func NewPolicy(routes []model.Route) (*Policy, error) {
	p := &Policy{routes: make(map[string]model.Route, len(routes))}
	for _, r := range routes {
		if r.Path == "" {
			return nil, fmt.Errorf("route with empty path")
		}
		if _, dup := p.routes[r.Path]; dup {
			return nil, fmt.Errorf("duplicate route %s", r.Path)
		}
		if !r.RequiresAuth && len(r.Roles) > 0 {
			return nil, fmt.Errorf("public route %s declares roles", r.Path)
		}
		for _, role := range r.Roles {
			if !role.Valid() {
				return nil, fmt.Errorf("route %s declares unknown role %q", r.Path, role)
			}
		}
		r.Roles = append([]model.Role(nil), r.Roles...)
		p.routes[r.Path] = r
		p.order = append(p.order, r.Path)
	}
	for _, r := range p.routes {
		if r.RedirectTo == "" {
			continue
		}
		target, ok := p.routes[r.RedirectTo]
		if !ok {
			return nil, fmt.Errorf("route %s redirects to unknown route %s", r.Path, r.RedirectTo)
		}
		if target.RedirectTo != "" {
			return nil, fmt.Errorf("route %s redirects to alias %s", r.Path, r.RedirectTo)
		}
	}
	return p, nil
}

// MustDefault returns the dashboard route table. It panics only if the
// built-in table is malformed.
func MustDefault() *Policy {
	p, err := NewPolicy(DefaultRoutes())
	if err != nil {
		panic(err)
	}
	return p
}

// IsAuthorized reports whether role may view route. Public routes admit
// everyone; protected routes with no declared roles admit any logged-in role.
func IsAuthorized(role model.Role, route model.Route) bool {
	if !route.RequiresAuth {
		return true
	}
	if !role.Valid() {
		return false
	}
	if len(route.Roles) == 0 {
		return true
	}
	for _, allowed := range route.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Lookup finds the route declared for path.
func (p *Policy) Lookup(path string) (model.Route, bool) {
	r, ok := p.routes[path]
	return r, ok
}

// IsAuthorized is IsAuthorized over the route registered at path. Unknown
// paths are never authorized.
func (p *Policy) IsAuthorized(role model.Role, path string) bool {
	r, ok := p.routes[path]
	if !ok {
		return false
	}
	return IsAuthorized(role, r)
}

// Routes returns the table in declaration order.
func (p *Policy) Routes() []model.Route {
	out := make([]model.Route, 0, len(p.order))
	for _, path := range p.order {
		out = append(out, p.routes[path])
	}
	return out
}
