package appraisal

import (
	"fmt"
	"strings"
)

// Person is a user record as listed by the backend.
type Person struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Username    string `json:"username,omitempty"`
	Designation string `json:"designation,omitempty"`
}

// Cycle is one employee's yearly appraisal.
type Cycle struct {
	ID        int64  `json:"id"`
	Employee  Person `json:"employee"`
	StartDate string `json:"startDate,omitempty"`
	Status    Status `json:"status"`
	Year      Year   `json:"year"`
}

// Year is sent as text by the backend but some endpoints answer with a number.
type Year string

func (y *Year) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		s = ""
	}
	*y = Year(s)
	return nil
}

func (y Year) String() string {
	return string(y)
}

// Review is a manager's review of a cycle.
type Review struct {
	ID           int64   `json:"id"`
	Cycle        Cycle   `json:"appraisalCycle"`
	Status       string  `json:"status"`
	FeedbackDate *string `json:"feedbackDate,omitempty"`
}

type Question struct {
	ID       int64  `json:"id"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// RatingSubmission is one answered question, used by manager reviews and
// self-assessments alike.
type RatingSubmission struct {
	QuestionID int64  `json:"questionId"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// ReportLine compares the manager's average with the self rating of a question.
type ReportLine struct {
	QuestionText    string  `json:"questionText"`
	Category        string  `json:"category"`
	PMAverageRating float64 `json:"pmAverageRating"`
	SelfRating      *int    `json:"selfRating"`
}

// Feedback is a manager rating as seen by the employee, with the reply if any.
type Feedback struct {
	PMRatingID            int64   `json:"pmRatingId"`
	QuestionText          string  `json:"questionText"`
	PMName                string  `json:"pmName"`
	Rating                int     `json:"rating"`
	Comment               string  `json:"comment"`
	ExistingClarification *string `json:"existingClarification"`
}

func (f Feedback) Replied() bool {
	return f.ExistingClarification != nil && strings.TrimSpace(*f.ExistingClarification) != ""
}

// Summary is the executive's view of one cycle.
type Summary struct {
	CycleID        int64        `json:"cycleId"`
	EmployeeName   string       `json:"employeeName"`
	Designation    string       `json:"designation"`
	Status         Status       `json:"status"`
	Reports        []ReportLine `json:"reports"`
	Clarifications []Feedback   `json:"clarifications"`
}

type InitiateRequest struct {
	EmployeeID int64  `json:"employeeId"`
	Year       string `json:"year"`
}

type AssignRequest struct {
	PMID int64 `json:"pmId"`
}

type CloseRequest struct {
	BossComment string `json:"bossComment"`
}

type ClarifyRequest struct {
	PMRatingID int64  `json:"pmRatingId"`
	ReplyText  string `json:"replyText"`
}

// Bar is one pair of horizontal bars of a report chart, in percent of the
// rating scale.
type Bar struct {
	Label      string
	Category   string
	Manager    float64
	ManagerPct int
	Self       int
	SelfPct    int
	HasSelf    bool
}

// Chart turns report lines into bars scaled to the rating range.
func Chart(lines []ReportLine) []Bar {
	bars := make([]Bar, 0, len(lines))
	for _, l := range lines {
		b := Bar{
			Label:      l.QuestionText,
			Category:   l.Category,
			Manager:    l.PMAverageRating,
			ManagerPct: percent(l.PMAverageRating),
		}
		if l.SelfRating != nil {
			b.HasSelf = true
			b.Self = *l.SelfRating
			b.SelfPct = percent(float64(*l.SelfRating))
		}
		bars = append(bars, b)
	}
	return bars
}

func percent(rating float64) int {
	if rating <= 0 {
		return 0
	}
	if rating >= MaxRating {
		return 100
	}
	return int(rating*100/MaxRating + 0.5)
}

func (b Bar) ManagerLabel() string {
	return fmt.Sprintf("%.1f", b.Manager)
}
