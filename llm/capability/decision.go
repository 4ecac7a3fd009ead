package capability

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies a run.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeDisabled    Outcome = "disabled"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeError       Outcome = "error"
)

// AttemptOutcome classifies one candidate invocation.
type AttemptOutcome string

const (
	AttemptSuccess AttemptOutcome = "success"
	AttemptFailed  AttemptOutcome = "failed"
	AttemptSkipped AttemptOutcome = "skipped"
)

// Attempt records one candidate invocation for one attachment.
type Attempt struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model,omitempty"`
	Outcome  AttemptOutcome `json:"outcome"`
	Kind     string         `json:"kind,omitempty"`
	Reason   string         `json:"reason,omitempty"`
	Duration time.Duration  `json:"duration_ns"`
}

// AttachmentDecision is the per-attachment part of a Decision.
type AttachmentDecision struct {
	Index    int       `json:"index"`
	Outcome  Outcome   `json:"outcome"`
	Provider string    `json:"provider,omitempty"`
	Model    string    `json:"model,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Attempts []Attempt `json:"attempts,omitempty"`
}

// Decision is the record of one run. Runners hand it out by value; use Clone
// before keeping it beyond the call.
type Decision struct {
	RunID       uuid.UUID            `json:"run_id"`
	Capability  Capability           `json:"capability"`
	Outcome     Outcome              `json:"outcome"`
	Reason      string               `json:"reason,omitempty"`
	Provider    string               `json:"provider,omitempty"`
	Model       string               `json:"model,omitempty"`
	Partial     bool                 `json:"partial,omitempty"`
	Succeeded   int                  `json:"succeeded"`
	Total       int                  `json:"total"`
	Attachments []AttachmentDecision `json:"attachments,omitempty"`
	Notes       []string             `json:"notes,omitempty"`
	StartedAt   time.Time            `json:"started_at"`
	Duration    time.Duration        `json:"duration_ns"`
}

// Clone returns a deep copy of d.
func (d Decision) Clone() Decision {
	out := d
	out.Notes = slices.Clone(d.Notes)
	if d.Attachments != nil {
		out.Attachments = make([]AttachmentDecision, len(d.Attachments))
		for i, a := range d.Attachments {
			a.Attempts = slices.Clone(a.Attempts)
			out.Attachments[i] = a
		}
	}
	return out
}

// RunResult is what a run returns: outputs ordered by attachment index and
// the decision.
type RunResult struct {
	Outputs  []Output `json:"outputs"`
	Decision Decision `json:"decision"`
}

// DecisionSink receives a copy of every decision after a run completes.
// Sinks are best effort; their failures never change a run's result.
type DecisionSink interface {
	RecordDecision(ctx context.Context, d Decision) error
}

// DecisionSinkFunc adapts a function to DecisionSink.
type DecisionSinkFunc func(ctx context.Context, d Decision) error

func (f DecisionSinkFunc) RecordDecision(ctx context.Context, d Decision) error {
	return f(ctx, d)
}
