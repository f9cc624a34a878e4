package domain

type ThreadID string
type RunID string
type QueryID string

// RunStatus is the status string reported by the assistants service for a run.
type RunStatus string

const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
	RunCancelled  RunStatus = "cancelled"
	RunExpired    RunStatus = "expired"
)

// Pending reports whether the run still needs polling.
func (s RunStatus) Pending() bool {
	return s == RunQueued || s == RunInProgress
}

// Known reports whether the status is one the poll loop can continue or finish on.
func (s RunStatus) Known() bool {
	return s.Pending() || s == RunCompleted
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultPrompt is used when the caller sends no prompt.
const DefaultPrompt = "Describe esta imagen"
