package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/vision-relay/internal/domain"
)

const queriesCollection = "vision_queries"

type Store struct {
	client *firestore.Client
}

var _ domain.QueryStore = (*Store)(nil)

// NewStore creates a Firestore store.
// Uses the project passed (VISION_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) queriesCol() *firestore.CollectionRef {
	return s.client.Collection(queriesCollection)
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type queryDoc struct {
	RequestID   string    `firestore:"request_id"`
	Assistant   string    `firestore:"assistant"`
	Backend     string    `firestore:"backend"`
	Prompt      string    `firestore:"prompt"`
	ImageBytes  int       `firestore:"image_bytes"`
	ThreadID    string    `firestore:"thread_id"`
	RunID       string    `firestore:"run_id"`
	Polls       int       `firestore:"polls"`
	Outcome     string    `firestore:"outcome"`
	FailureKind string    `firestore:"failure_kind"`
	Stage       string    `firestore:"stage"`
	Error       string    `firestore:"error"`
	CreatedAt   time.Time `firestore:"created_at"`
	DurationMS  int64     `firestore:"duration_ms"`
}

func toDoc(rec *domain.QueryRecord) queryDoc {
	return queryDoc{
		RequestID:   rec.RequestID,
		Assistant:   rec.Assistant,
		Backend:     rec.Backend,
		Prompt:      rec.Prompt,
		ImageBytes:  rec.ImageBytes,
		ThreadID:    string(rec.ThreadID),
		RunID:       string(rec.RunID),
		Polls:       rec.Polls,
		Outcome:     string(rec.Outcome),
		FailureKind: string(rec.FailureKind),
		Stage:       string(rec.Stage),
		Error:       rec.Error,
		CreatedAt:   rec.CreatedAt,
		DurationMS:  rec.Duration.Milliseconds(),
	}
}

func fromDoc(id string, doc queryDoc) *domain.QueryRecord {
	return &domain.QueryRecord{
		ID:          domain.QueryID(id),
		RequestID:   doc.RequestID,
		Assistant:   doc.Assistant,
		Backend:     doc.Backend,
		Prompt:      doc.Prompt,
		ImageBytes:  doc.ImageBytes,
		ThreadID:    domain.ThreadID(doc.ThreadID),
		RunID:       domain.RunID(doc.RunID),
		Polls:       doc.Polls,
		Outcome:     domain.QueryOutcome(doc.Outcome),
		FailureKind: domain.FailureKind(doc.FailureKind),
		Stage:       domain.Stage(doc.Stage),
		Error:       doc.Error,
		CreatedAt:   doc.CreatedAt,
		Duration:    time.Duration(doc.DurationMS) * time.Millisecond,
	}
}

// ─────────────────────────────────────────
// QueryStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendQuery(ctx context.Context, rec *domain.QueryRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("firestore AppendQuery: record id is required")
	}

	_, err := s.queriesCol().Doc(string(rec.ID)).Create(ctx, toDoc(rec))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("query record %s already exists", rec.ID)
		}
		return fmt.Errorf("firestore AppendQuery: %w", err)
	}
	return nil
}

func (s *Store) ListRecentQueries(ctx context.Context, limit int) ([]*domain.QueryRecord, error) {
	q := s.queriesCol().OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.QueryRecord
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("firestore ListRecentQueries: %w", err)
		}

		var doc queryDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode queryDoc: %w", err)
		}

		out = append(out, fromDoc(snap.Ref.ID, doc))
	}
	return out, nil
}
