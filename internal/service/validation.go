package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"eduvista/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateRegistration checks the registration form in the order the form
// reports problems: password confirmation, role, then field formats.
func ValidateRegistration(form model.RegisterForm) (model.Role, error) {
	if form.Password != form.ConfirmPassword {
		return model.RoleNone, ErrPasswordMismatch
	}
	if strings.TrimSpace(form.Role) == "" {
		return model.RoleNone, ErrMissingRole
	}
	role, ok := model.ParseRole(form.Role)
	if !ok {
		return model.RoleNone, fmt.Errorf("%w: role: unknown role %q", ErrInvalidInput, form.Role)
	}

	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)
	if err := validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return model.RoleNone, fmt.Errorf("%w: %s: %s", ErrInvalidInput, verrs[0].Field(), verrs[0].Tag())
		}
		return model.RoleNone, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return role, nil
}
