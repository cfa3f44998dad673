package navigation

import (
	"fmt"

	"eduvista/internal/model"
	"eduvista/internal/policy"
)

const Brand = "EduVista Pro"

// DefaultItems is the sidebar in display order.
func DefaultItems() []model.MenuItem {
	return []model.MenuItem{
		{Title: "Dashboard", Path: "/dashboard", Icon: "home"},

		{Title: "Gestionar Alumnos", Path: "/gestion-alumnos", Icon: "users"},
		{Title: "Gestionar Docentes", Path: "/gestion-docentes", Icon: "user-check"},
		{Title: "Reportes Financieros", Path: "/reportes-financieros", Icon: "bar-chart"},

		{Title: "Portal del Docente", Path: "/portal-docente", Icon: "presentation"},
		{Title: "Mis Clases", Path: "/mis-clases", Icon: "book-open"},

		{Title: "Mi Horario", Path: "/horario", Icon: "calendar"},
		{Title: "Mis Pagos", Path: "/pagos", Icon: "credit-card"},
		{Title: "Mis Calificaciones", Path: "/calificaciones", Icon: "graduation-cap"},
		{Title: "Mis Documentos", Path: "/mis-documentos", Icon: "file-text"},
		{Title: "Solicitar Documentos", Path: "/solicitar-documentos", Icon: "plus"},
	}
}

// Model derives the visible menu from the policy's route table.
type Model struct {
	items  []model.MenuItem
	policy *policy.Policy
}

// NewModel fails if an item points at a path the policy does not know, or
// at a public route that would show in the menu before login.
func NewModel(items []model.MenuItem, p *policy.Policy) (*Model, error) {
	for _, it := range items {
		r, ok := p.Lookup(it.Path)
		if !ok {
			return nil, fmt.Errorf("menu item %q points at unknown route %s", it.Title, it.Path)
		}
		if !r.RequiresAuth || r.RedirectTo != "" {
			return nil, fmt.Errorf("menu item %q points at non-page route %s", it.Title, it.Path)
		}
	}
	return &Model{items: append([]model.MenuItem(nil), items...), policy: p}, nil
}

// VisibleItems keeps the items role may open, in declaration order.
func (m *Model) VisibleItems(role model.Role) []model.MenuItem {
	visible := []model.MenuItem{}
	if !role.Valid() {
		return visible
	}
	for _, it := range m.items {
		if m.policy.IsAuthorized(role, it.Path) {
			visible = append(visible, it)
		}
	}
	return visible
}

// Menu builds the sidebar and header payload for user. A nil user gets an
// empty menu.
func (m *Model) Menu(user *model.User) model.Menu {
	if user == nil {
		return model.Menu{Brand: Brand, Items: []model.MenuItem{}}
	}
	return model.Menu{
		Brand:     Brand,
		Role:      user.Role,
		RoleLabel: user.Role.Label(),
		RoleColor: user.Role.Color(),
		Profile: &model.Profile{
			DisplayName: user.DisplayName(),
			Initial:     user.Initial(),
			Email:       user.Email,
		},
		Items: m.VisibleItems(user.Role),
	}
}
