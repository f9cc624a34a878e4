package vision_test

import (
	"context"
	"net/http"
	"sync"

	"github.com/PabloGalante/vision-relay/internal/domain"
)

// fakeAPI is a scripted domain.AssistantsAPI that records every call.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	threadID   domain.ThreadID
	threadBody []byte
	threadErr  error

	messageStatus int
	messageBody   []byte
	gotPrompt     string
	gotImage      []byte

	runID       domain.RunID
	runBody     []byte
	gotAssistID string

	// statuses are returned in order; the last one repeats.
	statuses []domain.RunStatus

	messages []domain.ThreadMessage
	listBody []byte
	listErr  error

	deleted      bool
	deleteCtxErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		threadID:      "thread_1",
		messageStatus: http.StatusOK,
		runID:         "run_1",
		statuses:      []domain.RunStatus{domain.RunCompleted},
		messages: []domain.ThreadMessage{
			{Role: domain.RoleAssistant, Text: "A cat."},
			{Role: domain.RoleUser, Text: "What is in this image?"},
		},
	}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeAPI) count(call string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeAPI) CreateThread(ctx context.Context) (domain.ThreadID, []byte, error) {
	f.record("create")
	return f.threadID, f.threadBody, f.threadErr
}

func (f *fakeAPI) PostMessage(ctx context.Context, thread domain.ThreadID, prompt string, image []byte) (int, []byte, error) {
	f.record("message")
	f.gotPrompt = prompt
	f.gotImage = image
	return f.messageStatus, f.messageBody, nil
}

func (f *fakeAPI) StartRun(ctx context.Context, thread domain.ThreadID, assistantID string) (domain.RunID, []byte, error) {
	f.record("run")
	f.gotAssistID = assistantID
	return f.runID, f.runBody, nil
}

func (f *fakeAPI) GetRun(ctx context.Context, thread domain.ThreadID, run domain.RunID) (domain.RunStatus, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	f.record("poll")

	f.mu.Lock()
	defer f.mu.Unlock()
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status, []byte(`{"status":"` + string(status) + `"}`), nil
}

func (f *fakeAPI) ListMessages(ctx context.Context, thread domain.ThreadID) ([]domain.ThreadMessage, []byte, error) {
	f.record("list")
	return f.messages, f.listBody, f.listErr
}

func (f *fakeAPI) DeleteThread(ctx context.Context, thread domain.ThreadID) error {
	f.record("delete")
	f.deleted = true
	f.deleteCtxErr = ctx.Err()
	return nil
}
