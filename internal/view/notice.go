package view

import (
	"sync"

	"github.com/frahmantamala/appraisal-portal/internal"
	"github.com/frahmantamala/appraisal-portal/internal/apiclient"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notice is a transient message shown once after a write.
type Notice struct {
	Kind    Kind
	Title   string
	Message string
}

func Success(title, message string) Notice {
	return Notice{Kind: KindSuccess, Title: title, Message: message}
}

func Failure(title, message string) Notice {
	return Notice{Kind: KindError, Title: title, Message: message}
}

// NoticeFromError shows the server's message when it sent one, the message of
// a local validation error, or fallback.
func NoticeFromError(title string, err error, fallback string) Notice {
	if appErr, ok := internal.IsAppError(err); ok && appErr.Type == internal.ErrorTypeValidation {
		return Failure(title, appErr.GetDetailedMessage())
	}
	return Failure(title, apiclient.UserMessage(err, fallback))
}

// Notices queues notices per scope until the next page render takes them.
type Notices struct {
	mu      sync.Mutex
	byScope map[string][]Notice
}

func NewNotices() *Notices {
	return &Notices{byScope: make(map[string][]Notice)}
}

func (n *Notices) Add(scope string, notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.byScope[scope] = append(n.byScope[scope], notice)
}

// Take returns and clears the scope's pending notices.
func (n *Notices) Take(scope string) []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := n.byScope[scope]
	delete(n.byScope, scope)
	return out
}

func (n *Notices) ForgetScope(scope string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.byScope, scope)
}
