package command

import "coords-bot/internal/report"

type Kind string

const (
	KindSuccess  Kind = "success"
	KindNotFound Kind = "not_found"
)

// Result is what a command hands back to the transport. Not-found outcomes
// are informational, not errors.
type Result struct {
	Command string
	Kind    Kind
	Message string
	Report  report.Report
}

// Text is the plain-text reply: the rendered report if there is one,
// otherwise the message.
func (r *Result) Text() string {
	if r.Report != nil {
		return r.Report.Text()
	}
	return r.Message
}

func success(command, message string) *Result {
	return &Result{Command: command, Kind: KindSuccess, Message: message}
}

func notFound(command, message string) *Result {
	return &Result{Command: command, Kind: KindNotFound, Message: message}
}

func rendered(command string, r report.Report) *Result {
	return &Result{Command: command, Kind: KindSuccess, Report: r}
}
