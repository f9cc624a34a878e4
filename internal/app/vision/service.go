package vision

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/vision-relay/internal/app/catalog"
	"github.com/PabloGalante/vision-relay/internal/domain"
	"github.com/PabloGalante/vision-relay/internal/observability"
)

const defaultListLimit = 20

// Service resolves the requested assistant, runs the analyzer and writes the
// query ledger.
type Service struct {
	analyzer domain.ImageAnalyzer
	catalog  *catalog.Catalog
	store    domain.QueryStore
	backend  string
	now      func() time.Time
}

// NewService wires a service. store may be nil to disable the ledger.
func NewService(
	analyzer domain.ImageAnalyzer,
	cat *catalog.Catalog,
	store domain.QueryStore,
	backend string,
) *Service {
	if cat == nil {
		cat = catalog.FromAssistant(domain.Assistant{})
	}
	return &Service{
		analyzer: analyzer,
		catalog:  cat,
		store:    store,
		backend:  backend,
		now:      time.Now,
	}
}

type AnalyzeInput struct {
	Prompt    string
	Image     []byte
	MIMEType  string
	Assistant string // catalog slug, "" for the default
	RequestID string
}

func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*domain.Reply, error) {
	if len(in.Image) == 0 {
		return nil, domain.ClientError(domain.MsgNoImage)
	}

	log := observability.LoggerFromContext(ctx).With(
		"backend", s.backend,
		"assistant", in.Assistant,
	)

	assistant, ok := s.resolve(in.Assistant)
	if !ok {
		log.Warn("unknown assistant requested")
		return nil, &domain.Failure{Kind: domain.KindNotFound, Message: domain.MsgAssistantNotFound, Detail: in.Assistant}
	}

	q := domain.Query{
		Prompt:       in.Prompt,
		Image:        in.Image,
		MIMEType:     in.MIMEType,
		AssistantID:  assistant.RemoteID,
		Instructions: assistant.Instructions,
	}

	log.Info("analyzing image", "image_bytes", len(in.Image), "assistant_slug", assistant.Slug)
	start := s.now()

	reply, err := s.analyzer.Analyze(ctx, q)

	s.record(ctx, in, assistant, q, reply, err, start)

	if err != nil {
		f := domain.AsFailure(err)
		log.Error("image analysis failed",
			"kind", f.Kind,
			"stage", f.Stage,
			"error", err)
		return nil, f
	}
	return reply, nil
}

// Assistants lists the catalog.
func (s *Service) Assistants() []domain.Assistant {
	return s.catalog.List()
}

// DefaultAssistant is the entry used when a request names none.
func (s *Service) DefaultAssistant() (domain.Assistant, bool) {
	return s.catalog.Default()
}

// RecentQueries returns the newest ledger entries first.
func (s *Service) RecentQueries(ctx context.Context, limit int) ([]*domain.QueryRecord, error) {
	if s.store == nil {
		return []*domain.QueryRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.store.ListRecentQueries(ctx, limit)
}

func (s *Service) resolve(slug string) (domain.Assistant, bool) {
	if slug == "" {
		if a, ok := s.catalog.Default(); ok {
			return a, true
		}
		return domain.Assistant{}, true
	}
	return s.catalog.Lookup(slug)
}

// record writes the ledger entry. Ledger problems never fail the query.
func (s *Service) record(
	ctx context.Context,
	in AnalyzeInput,
	assistant domain.Assistant,
	q domain.Query,
	reply *domain.Reply,
	err error,
	start time.Time,
) {
	if s.store == nil {
		return
	}

	rec := &domain.QueryRecord{
		ID:         domain.QueryID(uuid.NewString()),
		RequestID:  in.RequestID,
		Assistant:  assistant.Slug,
		Backend:    s.backend,
		Prompt:     q.PromptOrDefault(),
		ImageBytes: len(q.Image),
		CreatedAt:  start,
		Duration:   s.now().Sub(start),
		Outcome:    domain.OutcomeSucceeded,
	}
	if reply != nil {
		rec.ThreadID = reply.ThreadID
		rec.RunID = reply.RunID
		rec.Polls = reply.Polls
	}
	if err != nil {
		f := domain.AsFailure(err)
		rec.Outcome = domain.OutcomeFailed
		rec.FailureKind = f.Kind
		rec.Stage = f.Stage
		rec.Error = f.Error()
	}

	if err := s.store.AppendQuery(ctx, rec); err != nil {
		observability.LoggerFromContext(ctx).Warn("failed to append query record", "error", err)
	}
}
