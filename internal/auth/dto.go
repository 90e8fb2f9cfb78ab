package auth

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/core/common/validation"
)

// LoginDTO is what the login form and the CLI send to the backend.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginFromForm reads the login form. The password is taken verbatim.
func LoginFromForm(r *http.Request) LoginDTO {
	return LoginDTO{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
}

// Validate checks required fields.
func (d LoginDTO) Validate() *internal.AppError {
	validator := validation.NewValidator()
	validator.Field("username", d.Username).Required().MaxLength(255)
	validator.Field("password", d.Password).Required()
	return validator.Validate()
}
