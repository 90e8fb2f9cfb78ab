package appraisal

import "strings"

const (
	MinRating     = 1
	MaxRating     = 10
	DefaultRating = 5
)

// Status is the lifecycle position of a cycle. Unknown values from the
// backend are kept and shown as-is.
type Status string

const (
	StatusOpen                 Status = "OPEN"
	StatusPendingPMReview      Status = "PENDING_PM_REVIEW"
	StatusPendingClarification Status = "PENDING_EMPLOYEE_CLARIFICATION"
	StatusPendingBossReview    Status = "PENDING_BOSS_REVIEW"
	StatusClosed               Status = "CLOSED"
)

func (s Status) Label() string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(string(s)), "_", " "))
	for i, w := range words {
		switch w {
		case "pm":
			words[i] = "PM"
		default:
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// Tone is the badge color class of the status.
func (s Status) Tone() string {
	switch s {
	case StatusOpen:
		return "success"
	case StatusPendingPMReview, StatusPendingClarification:
		return "warning"
	case StatusClosed:
		return "muted"
	default:
		return "info"
	}
}

// Assignable reports whether HR may still assign a reviewer.
func (s Status) Assignable() bool {
	return s == StatusOpen
}

func (s Status) Closed() bool {
	return s == StatusClosed
}

// ValidRating reports whether r is on the rating scale.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
