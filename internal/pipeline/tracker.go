package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Tracker drives the per-turn phase sequence for one session. Phases
// must be entered in strict order; a turn ends back at idle whether it
// succeeded, degraded, or failed.
type Tracker struct {
	sessionID string
	phase     Phase
	steps     []StepExecution
	events    chan<- Event
	logger    *zap.Logger
}

// NewTracker creates a tracker in the idle phase. events may be nil
// when no observer is attached.
func NewTracker(sessionID string, events chan<- Event, logger *zap.Logger) *Tracker {
	return &Tracker{
		sessionID: sessionID,
		phase:     PhaseIdle,
		events:    events,
		logger:    logger,
	}
}

// Phase returns the current phase.
func (t *Tracker) Phase() Phase {
	return t.phase
}

// Steps returns the executions recorded for the current turn.
func (t *Tracker) Steps() []StepExecution {
	return t.steps
}

// Enter transitions into the next phase of the turn. Transitions that
// skip a phase or run out of order are rejected.
func (t *Tracker) Enter(phase Phase) error {
	expected := t.next()
	if phase != expected {
		return fmt.Errorf("invalid transition %s -> %s, expected %s", t.phase, phase, expected)
	}

	now := time.Now()
	t.phase = phase
	t.steps = append(t.steps, StepExecution{
		Phase:     phase,
		State:     StepStateRunning,
		StartedAt: &now,
	})
	t.emit(phase, StepStateRunning, now)
	return nil
}

func (t *Tracker) next() Phase {
	if t.phase == PhaseIdle {
		return order[0]
	}
	for i, p := range order {
		if p == t.phase && i < len(order)-1 {
			return order[i+1]
		}
	}
	return PhaseIdle
}

// Complete marks the current phase done with the given state and, when
// the phase was the last of the turn or failed terminally, returns the
// tracker to idle.
func (t *Tracker) Complete(state StepState, err error) {
	if t.phase == PhaseIdle || len(t.steps) == 0 {
		return
	}

	now := time.Now()
	step := &t.steps[len(t.steps)-1]
	step.State = state
	step.CompletedAt = &now
	if err != nil {
		step.Error = err.Error()
	}
	t.emit(t.phase, state, now)

	if state == StepStateFailed || t.phase == order[len(order)-1] {
		t.phase = PhaseIdle
		t.emit(PhaseIdle, StepStateCompleted, now)
	}
}

// Reset forces the tracker back to idle, clearing the step log. Used
// when a turn is abandoned before any phase ran.
func (t *Tracker) Reset() {
	t.phase = PhaseIdle
	t.steps = nil
}

func (t *Tracker) emit(phase Phase, state StepState, ts time.Time) {
	if t.events == nil {
		return
	}
	select {
	case t.events <- Event{SessionID: t.sessionID, Phase: phase, State: state, Timestamp: ts}:
	default:
		t.logger.Warn("pipeline event channel full, dropping event",
			zap.String("phase", string(phase)))
	}
}
