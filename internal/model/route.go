package model

// Route is a navigable path with its access requirements.
type Route struct {
	Path         string `json:"path"`
	Title        string `json:"title"`
	RequiresAuth bool   `json:"-"`
	// Roles empty means any authenticated role.
	Roles []Role `json:"-"`
	// RedirectTo marks an alias route such as "/" -> "/dashboard".
	RedirectTo string `json:"-"`
}

// MenuItem is one sidebar entry. Its visibility comes from the route table.
type MenuItem struct {
	Title string `json:"title"`
	Path  string `json:"url"`
	Icon  string `json:"icon"`
}

// Profile is the user card shown at the bottom of the sidebar and in the header.
type Profile struct {
	DisplayName string `json:"display_name"`
	Initial     string `json:"initial"`
	Email       string `json:"email,omitempty"`
}

// Menu is everything the layout needs to draw the sidebar and header.
type Menu struct {
	Brand     string     `json:"brand"`
	Role      Role       `json:"role,omitempty"`
	RoleLabel string     `json:"role_label,omitempty"`
	RoleColor string     `json:"role_color,omitempty"`
	Profile   *Profile   `json:"profile,omitempty"`
	Items     []MenuItem `json:"items"`
}
