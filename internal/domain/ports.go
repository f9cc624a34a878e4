package domain

import "context"

// ImageAnalyzer answers a prompt about an image.
// Implementations return a *Failure on error.
type ImageAnalyzer interface {
	Analyze(ctx context.Context, q Query) (*Reply, error)
}

// AssistantsAPI is the remote conversation protocol the orchestrator drives.
// Each method performs exactly one outbound call and returns the raw body
// alongside the decoded fields so callers can surface upstream payloads.
type AssistantsAPI interface {
	CreateThread(ctx context.Context) (ThreadID, []byte, error)
	PostMessage(ctx context.Context, thread ThreadID, prompt string, image []byte) (int, []byte, error)
	StartRun(ctx context.Context, thread ThreadID, assistantID string) (RunID, []byte, error)
	GetRun(ctx context.Context, thread ThreadID, run RunID) (RunStatus, []byte, error)
	ListMessages(ctx context.Context, thread ThreadID) ([]ThreadMessage, []byte, error)
	DeleteThread(ctx context.Context, thread ThreadID) error
}

// ThreadMessage is the subset of a remote message the orchestrator reads.
// Text is "" when the message carries no text content block.
type ThreadMessage struct {
	Role Role
	Text string
}

// QueryStore persists the query ledger.
type QueryStore interface {
	AppendQuery(ctx context.Context, rec *QueryRecord) error
	ListRecentQueries(ctx context.Context, limit int) ([]*QueryRecord, error)
}
