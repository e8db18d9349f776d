package widget

import "time"

// Severity classifies a status banner.
type Severity string

// Banner severities.
const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// DefaultStatusDelay is how long a banner stays up after ShowStatus.
const DefaultStatusDelay = 5 * time.Second

// Status is the transient banner. Text always holds the most recent message;
// Visible drops to false when any pending hide timer fires.
type Status struct {
	Text     string
	Severity Severity
	Visible  bool
}

// Scheduler runs fn once after delay. The default wraps time.AfterFunc.
type Scheduler func(delay time.Duration, fn func())

func afterFuncScheduler(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

// Status banner texts.
const (
	statusModelsFailed  = "Error checking available models"
	statusCleared       = "Conversation cleared"
	statusClearFailed   = "Error clearing conversation"
	sendFailureFallback = "Failed to send message. Please try again."
)
