package boss

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/appraisal"
	"github.com/frahmantamala/appraisal-portal/internal/core/common/validation"
)

type Dashboard struct {
	Cycles []appraisal.Cycle
}

// CyclePage is the executive summary of one cycle with its chart.
type CyclePage struct {
	Summary *appraisal.Summary
	Chart   []appraisal.Bar
}

// CloseForm finalizes a cycle with the executive's comment.
type CloseForm struct {
	Comment string
}

func CloseFromForm(r *http.Request) CloseForm {
	return CloseForm{Comment: strings.TrimSpace(r.PostFormValue("bossComment"))}
}

func (f CloseForm) Validate() *internal.AppError {
	validator := validation.NewValidator()
	validator.Field("bossComment", f.Comment).MaxLength(2000)
	return validator.Validate()
}
