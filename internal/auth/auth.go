package auth

import (
	"strings"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/core/role"
	"github.com/frahmantamala/appraisal-portal/internal/session"
)

const invalidLoginMessage = "Invalid username or password"

// LoginResponse is the backend's answer to a login. Older backends send a
// single role, newer ones the full list.
type LoginResponse struct {
	Token   string   `json:"token"`
	Name    string   `json:"name"`
	Role    string   `json:"role"`
	Roles   []string `json:"roles,omitempty"`
	Message string   `json:"message,omitempty"`
}

// User builds the session profile. Every authenticated user is an employee.
func (r LoginResponse) User(username string) session.User {
	tags := append([]string{}, r.Roles...)
	if r.Role != "" {
		tags = append(tags, strings.Split(r.Role, ",")...)
	}
	roles := role.FromStrings(tags)
	roles[role.Employee] = struct{}{}

	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = username
	}
	return session.User{Name: name, Roles: roles}
}

func newInvalidLoginError(message string, cause error) *internal.AppError {
	if message == "" {
		message = invalidLoginMessage
	}
	return internal.NewUnauthorizedError(message, internal.ErrCodeInvalidLogin).WithCause(cause)
}
