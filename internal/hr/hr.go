package hr

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/core/common/validation"
)

// Dashboard is what the HR console shows: the latest successful read of each
// list. A list that never loaded stays empty.
type Dashboard struct {
	Employees   []appraisal.Person
	Managers    []appraisal.Person
	Cycles      []appraisal.Cycle
	Loaded      bool
	DefaultYear string
}

// InitiateForm starts an appraisal cycle for one employee.
type InitiateForm struct {
	EmployeeID int64
	Year       string
}

func InitiateFromForm(r *http.Request) InitiateForm {
	id, _ := strconv.ParseInt(strings.TrimSpace(r.PostFormValue("employeeId")), 10, 64)
	return InitiateForm{
		EmployeeID: id,
		Year:       strings.TrimSpace(r.PostFormValue("year")),
	}
}

func (f InitiateForm) Validate() *internal.AppError {
	validator := validation.NewValidator()
	validator.Field("employeeId", f.EmployeeID).Required()
	validator.Field("year", f.Year).Required().Year()
	return validator.Validate()
}

func (f InitiateForm) Request() appraisal.InitiateRequest {
	return appraisal.InitiateRequest{EmployeeID: f.EmployeeID, Year: f.Year}
}

func currentYear(now time.Time) string {
	return strconv.Itoa(now.Year())
}
