package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Role is the single role a user holds. The zero value is RoleNone and means
// nobody is logged in.
type Role string

const (
	RoleNone    Role = ""
	RoleAdmin   Role = "ADMIN"
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// AllRoles lists every assignable role in selection order.
var AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

// ParseRole converts stored or submitted text into a Role. The legacy
// dashboard codes DOCEN and ALUMN are accepted as well.
func ParseRole(s string) (Role, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ADMIN":
		return RoleAdmin, true
	case "TEACHER", "DOCEN":
		return RoleTeacher, true
	case "STUDENT", "ALUMN":
		return RoleStudent, true
	}
	return RoleNone, false
}

// Valid reports whether r is one of the assignable roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	case RoleNone:
		return false
	}
	return false
}

// Label is the human readable role name shown in the header and sidebar.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrador"
	case RoleTeacher:
		return "Docente"
	case RoleStudent:
		return "Estudiante"
	case RoleNone:
		return ""
	}
	return ""
}

// Color is the accent colour token the views use for this role.
func (r Role) Color() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTeacher:
		return "teacher"
	case RoleStudent:
		return "student"
	case RoleNone:
		return "primary"
	}
	return "primary"
}

// User represents a user in the directory
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // Do not expose password hash in JSON responses
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName is the full name when known, otherwise the username.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Initial is the upper-cased first letter of the display name, used for avatars.
func (u *User) Initial() string {
	r, _ := utf8.DecodeRuneInString(u.DisplayName())
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// Credentials is the login form input
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterForm is the registration form input
type RegisterForm struct {
	Username        string `json:"username" validate:"required,max=64"`
	FullName        string `json:"full_name" validate:"max=128"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
}
