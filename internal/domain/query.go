package domain

import "time"

// Query is one caller request. It only lives for the duration of the request.
type Query struct {
	Prompt   string
	Image    []byte
	MIMEType string

	// AssistantID is the remote assistant identity the run is started against.
	AssistantID string

	// Instructions is an optional system prompt for backends without
	// server-side assistants.
	Instructions string
}

// PromptOrDefault returns the prompt, falling back to DefaultPrompt when empty.
func (q Query) PromptOrDefault() string {
	if q.Prompt == "" {
		return DefaultPrompt
	}
	return q.Prompt
}

// Reply is the extracted answer plus the remote identifiers that produced it.
type Reply struct {
	Text     string
	ThreadID ThreadID
	RunID    RunID
	Polls    int
}

type QueryOutcome string

const (
	OutcomeSucceeded QueryOutcome = "succeeded"
	OutcomeFailed    QueryOutcome = "failed"
)

// QueryRecord is the ledger entry written after each /api/vision call.
// It stores metadata only, never the image bytes.
type QueryRecord struct {
	ID          QueryID
	RequestID   string
	Assistant   string
	Backend     string
	Prompt      string
	ImageBytes  int
	ThreadID    ThreadID
	RunID       RunID
	Polls       int
	Outcome     QueryOutcome
	FailureKind FailureKind
	Stage       Stage
	Error       string
	CreatedAt   time.Time
	Duration    time.Duration
}
