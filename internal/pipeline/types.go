package pipeline

import "time"

// Phase is the orchestrator's position within one turn. Every turn
// starts and terminates at PhaseIdle; no state is suspended across
// turns.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseAnalyzing  Phase = "analyzing"
	PhaseSelecting  Phase = "selecting"
	PhaseGenerating Phase = "generating"
	PhaseRecording  Phase = "recording"
)

// order is the strict execution sequence within a turn.
var order = []Phase{PhaseAnalyzing, PhaseSelecting, PhaseGenerating, PhaseRecording}

// StepState tracks the outcome of one phase of a turn.
type StepState string

const (
	StepStatePending   StepState = "pending"
	StepStateRunning   StepState = "running"
	StepStateCompleted StepState = "completed"
	StepStateDegraded  StepState = "degraded"
	StepStateFailed    StepState = "failed"
)

// StepExecution records timing and outcome for one phase.
type StepExecution struct {
	Phase       Phase      `json:"phase"`
	State       StepState  `json:"state"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Event is emitted at every phase transition for observability.
type Event struct {
	SessionID string    `json:"session_id"`
	Phase     Phase     `json:"phase"`
	State     StepState `json:"state"`
	Timestamp time.Time `json:"timestamp"`
}
