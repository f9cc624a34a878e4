package firestore

import (
	"testing"
	"time"

	"github.com/PabloGalante/vision-relay/internal/domain"
)

func TestQueryDocRoundTrip(t *testing.T) {
	rec := &domain.QueryRecord{
		ID:          "q1",
		RequestID:   "req-1",
		Assistant:   "default",
		Backend:     "assistants",
		Prompt:      "Describe esta imagen",
		ImageBytes:  42,
		ThreadID:    "thread_1",
		RunID:       "run_1",
		Polls:       2,
		Outcome:     domain.OutcomeFailed,
		FailureKind: domain.KindUpstream,
		Stage:       domain.StageRunStatus,
		Error:       "Error en ejecución: failed",
		CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:    1500 * time.Millisecond,
	}

	got := fromDoc("q1", toDoc(rec))
	if *got != *rec {
		t.Fatalf("expected %+v, got %+v", rec, got)
	}
}
