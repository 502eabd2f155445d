package resolve

import (
	"github.com/bastiangx/hintserve/pkg/trigger"
	"github.com/charmbracelet/log"
)

// DismissedRank is reported when the user closed the list without picking anything.
const DismissedRank = -1

// Feedback records what the user did with an offered slot.
type Feedback struct {
	Annotation string
	// Rank is 1-based, or DismissedRank.
	Rank       int
	Slot       trigger.Slot
	Identifier string
	Line       int
	SessionID  string
	// Filtered mirrors whether predictions were requested with type filtering on.
	Filtered bool
}

// Accepted builds feedback for a picked candidate.
func Accepted(c Candidate, sessionID string) Feedback {
	return Feedback{
		Annotation: c.Annotation,
		Rank:       int(c.Rank),
		Slot:       c.Slot,
		Identifier: c.Identifier,
		Line:       c.Line,
		SessionID:  sessionID,
	}
}

// Dismissed builds feedback for a slot whose candidates were all rejected.
func Dismissed(slot trigger.Slot, identifier string, line int, sessionID string) Feedback {
	return Feedback{
		Rank:       DismissedRank,
		Slot:       slot,
		Identifier: identifier,
		Line:       line,
		SessionID:  sessionID,
	}
}

// IsDismissed reports whether f describes a rejected slot.
func (f Feedback) IsDismissed() bool {
	return f.Rank == DismissedRank || f.Annotation == ""
}

// Reporter receives acceptance feedback.
type Reporter interface {
	Report(f Feedback)
}

// LogReporter writes feedback to a charm logger when sharing is enabled.
type LogReporter struct {
	logger  *log.Logger
	enabled bool
}

// NewLogReporter returns a reporter that drops everything unless enabled.
func NewLogReporter(logger *log.Logger, enabled bool) *LogReporter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogReporter{logger: logger, enabled: enabled}
}

// Report implements Reporter.
func (r *LogReporter) Report(f Feedback) {
	if !r.enabled {
		return
	}
	keyvals := []any{
		"slot", f.Slot.String(),
		"ident", f.Identifier,
		"line", f.Line,
		"session", f.SessionID,
		"filtered", f.Filtered,
	}
	if f.IsDismissed() {
		r.logger.Info("dismissed", keyvals...)
		return
	}
	r.logger.Info("accepted", append(keyvals, "type", f.Annotation, "rank", f.Rank)...)
}
