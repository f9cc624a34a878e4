package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/PabloGalante/vision-relay/internal/domain"
	"github.com/PabloGalante/vision-relay/internal/observability"
)

const (
	DefaultPollInterval    = 1500 * time.Millisecond
	DefaultPollMaxAttempts = 200
	DefaultPollTimeout     = 5 * time.Minute

	cleanupTimeout = 10 * time.Second
)

// PollPolicy bounds the run status loop. A zero MaxAttempts or Timeout
// disables that bound.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	Timeout     time.Duration
}

func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:    DefaultPollInterval,
		MaxAttempts: DefaultPollMaxAttempts,
		Timeout:     DefaultPollTimeout,
	}
}

type Options struct {
	// AssistantID is used when the query does not name one.
	AssistantID string
	Poll        PollPolicy

	// DeleteThreads removes the remote thread once the reply was read.
	DeleteThreads bool
}

// Orchestrator drives one query through the assistants protocol:
// create thread, post message, start run, poll run, fetch reply.
// It keeps no state between calls.
type Orchestrator struct {
	api  domain.AssistantsAPI
	opts Options
}

var _ domain.ImageAnalyzer = (*Orchestrator)(nil)

func NewOrchestrator(api domain.AssistantsAPI, opts Options) *Orchestrator {
	if opts.Poll.Interval <= 0 {
		opts.Poll.Interval = DefaultPollInterval
	}
	return &Orchestrator{api: api, opts: opts}
}

func (o *Orchestrator) Analyze(ctx context.Context, q domain.Query) (*domain.Reply, error) {
	if len(q.Image) == 0 {
		return nil, domain.ClientError(domain.MsgNoImage)
	}

	assistantID := q.AssistantID
	if assistantID == "" {
		assistantID = o.opts.AssistantID
	}

	ctx, span := observability.Tracer().Start(ctx, "vision.analyze")
	span.SetAttributes(
		attribute.String("assistant.id", assistantID),
		attribute.Int("image.bytes", len(q.Image)),
	)

	reply, err := o.analyze(ctx, assistantID, q)
	observability.EndSpan(span, err)
	return reply, err
}

func (o *Orchestrator) analyze(ctx context.Context, assistantID string, q domain.Query) (*domain.Reply, error) {
	log := observability.LoggerFromContext(ctx).With("assistant_id", assistantID)
	start := time.Now()

	// 1) thread
	threadID, err := o.createThread(ctx)
	if err != nil {
		return nil, err
	}
	log = log.With("thread_id", threadID)
	log.Info("thread created")

	if o.opts.DeleteThreads {
		defer o.deleteThread(ctx, threadID, log)
	}

	// 2) message with the image attached
	if err := o.postMessage(ctx, threadID, q); err != nil {
		return nil, err
	}

	// 3) run
	runID, err := o.startRun(ctx, threadID, assistantID)
	if err != nil {
		return nil, err
	}
	log = log.With("run_id", runID)
	log.Info("run started")

	// 4) poll
	polls, err := o.waitForRun(ctx, threadID, runID)
	if err != nil {
		log.Warn("run did not complete", "polls", polls, "error", err)
		return nil, err
	}

	// 5) reply
	text, err := o.fetchReply(ctx, threadID)
	if err != nil {
		return nil, err
	}

	log.Info("query completed", "polls", polls, "elapsed_ms", time.Since(start).Milliseconds())

	return &domain.Reply{
		Text:     text,
		ThreadID: threadID,
		RunID:    runID,
		Polls:    polls,
	}, nil
}

// startStep opens a child span for one orchestration step.
func startStep(ctx context.Context, stage domain.Stage) (context.Context, trace.Span) {
	ctx, span := observability.Tracer().Start(ctx, "vision."+string(stage))
	span.SetAttributes(attribute.String("stage", string(stage)))
	return ctx, span
}

func (o *Orchestrator) createThread(ctx context.Context) (_ domain.ThreadID, err error) {
	ctx, span := startStep(ctx, domain.StageCreate)
	defer func() { observability.EndSpan(span, err) }()

	threadID, raw, err := o.api.CreateThread(ctx)
	if err != nil {
		return "", domain.UpstreamError(domain.StageCreate, domain.MsgCreateThread, domain.RawDetails(raw), err)
	}
	if threadID == "" {
		return "", domain.UpstreamError(domain.StageCreate, domain.MsgCreateThread, domain.RawDetails(raw), nil)
	}
	span.SetAttributes(attribute.String("thread.id", string(threadID)))
	return threadID, nil
}

func (o *Orchestrator) postMessage(ctx context.Context, threadID domain.ThreadID, q domain.Query) (err error) {
	ctx, span := startStep(ctx, domain.StageMessage)
	defer func() { observability.EndSpan(span, err) }()

	status, raw, err := o.api.PostMessage(ctx, threadID, q.PromptOrDefault(), q.Image)
	if err != nil {
		return domain.UpstreamError(domain.StageMessage, domain.MsgPostMessage, domain.RawDetails(raw), err)
	}
	span.SetAttributes(attribute.Int("http.status_code", status))
	if status < 200 || status > 299 {
		f := domain.UpstreamError(domain.StageMessage, domain.MsgPostMessage, domain.RawDetails(raw), nil)
		f.Detail = fmt.Sprintf("status=%d", status)
		return f
	}
	return nil
}

func (o *Orchestrator) startRun(ctx context.Context, threadID domain.ThreadID, assistantID string) (_ domain.RunID, err error) {
	ctx, span := startStep(ctx, domain.StageRunStart)
	defer func() { observability.EndSpan(span, err) }()

	runID, raw, err := o.api.StartRun(ctx, threadID, assistantID)
	if err != nil {
		return "", domain.UpstreamError(domain.StageRunStart, domain.MsgStartRun, domain.RawDetails(raw), err)
	}
	if runID == "" {
		return "", domain.UpstreamError(domain.StageRunStart, domain.MsgStartRun, domain.RawDetails(raw), nil)
	}
	span.SetAttributes(attribute.String("run.id", string(runID)))
	return runID, nil
}

// waitForRun sleeps the poll interval before every status check and returns
// once the run leaves {queued, in_progress}. It returns the number of checks made.
func (o *Orchestrator) waitForRun(ctx context.Context, threadID domain.ThreadID, runID domain.RunID) (polls int, err error) {
	ctx, span := startStep(ctx, domain.StageRunStatus)
	defer func() {
		span.SetAttributes(attribute.Int("polls", polls))
		observability.EndSpan(span, err)
	}()

	policy := o.opts.Poll

	pollCtx := ctx
	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	status := domain.RunQueued
	for status.Pending() {
		if policy.MaxAttempts > 0 && polls >= policy.MaxAttempts {
			return polls, deadlineFailure(status, fmt.Errorf("run still %s after %d status checks", status, polls))
		}

		if err := sleep(pollCtx, policy.Interval); err != nil {
			return polls, contextFailure(ctx, status, err)
		}

		next, raw, err := o.api.GetRun(pollCtx, threadID, runID)
		polls++
		if err != nil {
			if pollCtx.Err() != nil {
				return polls, contextFailure(ctx, status, err)
			}
			return polls, domain.UpstreamError(domain.StageRunStatus, domain.MsgRunStatus, domain.RawDetails(raw), err)
		}
		status = next

		if !status.Known() {
			f := domain.UpstreamError(domain.StageRunStatus, domain.MsgRunFailed+string(status), domain.RawDetails(raw), nil)
			f.Detail = string(status)
			return polls, f
		}
	}
	return polls, nil
}

func (o *Orchestrator) fetchReply(ctx context.Context, threadID domain.ThreadID) (_ string, err error) {
	ctx, span := startStep(ctx, domain.StageFetch)
	defer func() { observability.EndSpan(span, err) }()

	msgs, raw, err := o.api.ListMessages(ctx, threadID)
	if err != nil {
		return "", domain.UpstreamError(domain.StageFetch, domain.MsgFetchMessages, domain.RawDetails(raw), err)
	}

	for _, m := range msgs {
		if m.Role == domain.RoleAssistant {
			return m.Text, nil
		}
	}
	return "", domain.UpstreamError(domain.StageNoReply, domain.MsgNoReply, domain.RawDetails(raw), nil)
}

// deleteThread removes the remote thread. It runs on every exit path once the
// thread exists, on a context detached from the caller's cancellation.
func (o *Orchestrator) deleteThread(ctx context.Context, threadID domain.ThreadID, log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := o.api.DeleteThread(ctx, threadID); err != nil {
		log.Warn("thread cleanup failed", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func deadlineFailure(last domain.RunStatus, err error) *domain.Failure {
	return &domain.Failure{
		Kind:    domain.KindDeadline,
		Stage:   domain.StageRunStatus,
		Message: domain.MsgDeadline,
		Detail:  string(last),
		Err:     err,
	}
}

// contextFailure distinguishes the poll budget running out from the
// parent context being cancelled.
func contextFailure(parent context.Context, last domain.RunStatus, err error) *domain.Failure {
	if parent.Err() == nil || errors.Is(parent.Err(), context.DeadlineExceeded) {
		return deadlineFailure(last, err)
	}
	return &domain.Failure{
		Kind:    domain.KindUnexpected,
		Stage:   domain.StageRunStatus,
		Message: domain.MsgCancelled,
		Detail:  string(last),
		Err:     err,
	}
}
