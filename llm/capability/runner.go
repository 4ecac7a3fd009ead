package capability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/capflow/internal/ctxkeys"
	"github.com/BaSui01/capflow/llm/batch"
	"github.com/BaSui01/capflow/types"
)

const instrumentationName = "github.com/BaSui01/capflow/llm/capability"

// Observer receives run and attempt measurements. internal/metrics.Collector
// implements it.
type Observer interface {
	ObserveRun(capability, outcome string, partial bool, duration time.Duration)
	ObserveAttempt(capability, provider, outcome string, duration time.Duration)
}

// Runner resolves a capability, invokes providers and records the decision.
// A Runner holds no per-run state and is safe for concurrent use.
type Runner struct {
	registry  *Registry
	source    AttachmentSource
	logger    *zap.Logger
	tracer    trace.Tracer
	observers []Observer
	sinks     []DecisionSink
	sinkWait  time.Duration
	now       func() time.Time
}

const defaultSinkTimeout = 3 * time.Second

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithAttachmentSource replaces the default MediaCache.
func WithAttachmentSource(src AttachmentSource) RunnerOption {
	return func(r *Runner) {
		if src != nil {
			r.source = src
		}
	}
}

// WithTracer sets the tracer used for run and attempt spans.
func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// WithObserver appends a metrics observer.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// WithDecisionSinks appends sinks that receive each decision.
func WithDecisionSinks(sinks ...DecisionSink) RunnerOption {
	return func(r *Runner) {
		for _, s := range sinks {
			if s != nil {
				r.sinks = append(r.sinks, s)
			}
		}
	}
}

// WithSinkTimeout bounds each decision sink call. Non-positive values keep
// the default.
func WithSinkTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.sinkWait = d
		}
	}
}

// WithClock overrides time.Now. Used by tests.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner creates a Runner over reg.
func NewRunner(reg *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: reg,
		source:   NewMediaCache(nil),
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(instrumentationName),
		sinkWait: defaultSinkTimeout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "capability_runner"))
	return r
}

// Registry returns the registry the runner invokes.
func (r *Runner) Registry() *Registry {
	return r.registry
}

// ============================================================
// Run
// ============================================================

// slot holds the result of one attachment.
type slot struct {
	output   *Output
	decision AttachmentDecision
	failures []batch.OutputLine
}

// Run executes capability c over attachments under cfg. It never returns an
// error: every failure is folded into the Decision. Outputs follow the
// attachment order and contain one entry per attachment that succeeded.
func (r *Runner) Run(ctx context.Context, c Capability, cfg Config, attachments []Attachment) RunResult {
	start := r.now()
	dec := Decision{
		RunID:      uuid.New(),
		Capability: c,
		Total:      len(attachments),
		StartedAt:  start,
	}
	ctx = ctxkeys.WithRunID(ctx, dec.RunID.String())
	ctx, span := r.tracer.Start(ctx, "capability.run", trace.WithAttributes(
		attribute.String("capability.name", string(c)),
		attribute.String("capability.run_id", dec.RunID.String()),
		attribute.Int("capability.attachments", len(attachments)),
	))
	defer span.End()

	res := Resolve(c, cfg, r.registry)
	dec.Notes = res.Notes
	if !res.Enabled {
		dec.Outcome = OutcomeUnavailable
		if cfg.Enabled == ToggleOff {
			dec.Outcome = OutcomeDisabled
		}
		dec.Reason = res.Reason
		return r.finish(ctx, span, RunResult{Outputs: []Output{}, Decision: dec})
	}
	if len(attachments) == 0 {
		dec.Outcome = OutcomeUnavailable
		dec.Reason = ReasonNoAttachments
		return r.finish(ctx, span, RunResult{Outputs: []Output{}, Decision: dec})
	}

	slots := make([]slot, len(attachments))
	var g errgroup.Group
	g.SetLimit(max(cfg.Concurrency, 1))
	for i := range attachments {
		if ctx.Err() != nil {
			slots[i] = cancelledSlot(i)
			continue
		}
		g.Go(func() error {
			slots[i] = r.runAttachment(ctx, c, cfg, res.Candidates, i, attachments[i])
			return nil
		})
	}
	_ = g.Wait()

	outputs := make([]Output, 0, len(attachments))
	var failures []batch.OutputLine
	dec.Attachments = make([]AttachmentDecision, len(slots))
	for i, s := range slots {
		dec.Attachments[i] = s.decision
		if s.output != nil {
			outputs = append(outputs, *s.output)
			dec.Provider = s.output.Provider
			dec.Model = s.output.Model
			continue
		}
		failures = append(failures, s.failures...)
	}
	dec.Succeeded = len(outputs)

	cancelled := ctx.Err() != nil
	switch {
	case dec.Succeeded == dec.Total:
		dec.Outcome = OutcomeSuccess
	case dec.Succeeded == 0:
		dec.Outcome = OutcomeError
		dec.Reason = failureReason(failures, cancelled)
	default:
		dec.Outcome = OutcomeSuccess
		dec.Partial = true
		dec.Reason = failureReason(failures, cancelled)
	}
	return r.finish(ctx, span, RunResult{Outputs: outputs, Decision: dec})
}

func failureReason(failures []batch.OutputLine, cancelled bool) string {
	if cancelled {
		return ReasonCancelled
	}
	if msg := batch.ExtractBatchErrorMessage(failures); msg != "" {
		return msg
	}
	return "all candidates failed"
}

func cancelledSlot(index int) slot {
	return slot{
		decision: AttachmentDecision{Index: index, Outcome: OutcomeError, Reason: ReasonCancelled},
		failures: []batch.OutputLine{{Error: &batch.ErrorObject{Message: ReasonCancelled}}},
	}
}

// runAttachment walks the candidate list for one attachment until the first
// success.
func (r *Runner) runAttachment(ctx context.Context, c Capability, cfg Config, candidates []Candidate, index int, att Attachment) slot {
	s := slot{decision: AttachmentDecision{Index: index}}

	data, err := r.source.Fetch(ctx, att, cfg.MaxBytes)
	if err != nil {
		reason := err.Error()
		if !errors.Is(err, ErrAttachmentTooLarge) {
			reason = ReasonAttachmentNotLoaded + ": " + reason
		}
		s.decision.Outcome = OutcomeError
		s.decision.Reason = reason
		s.failures = append(s.failures, batch.OutputLine{Error: &batch.ErrorObject{Message: reason}})
		r.logger.Warn("attachment not loaded",
			zap.String("capability", string(c)),
			zap.Int("attachment", index),
			zap.Error(err))
		return s
	}

	for _, cand := range candidates {
		model := cand.Model
		if model == "" {
			model = DefaultModel(c, cand.Provider)
		}
		if ctx.Err() != nil {
			s.decision.Attempts = append(s.decision.Attempts, Attempt{
				Provider: cand.Provider, Model: model, Outcome: AttemptSkipped, Reason: ReasonCancelled,
			})
			break
		}
		req := &Request{
			Model:      model,
			Attachment: att,
			Data:       data,
			Prompt:     cfg.Prompt,
			Language:   cfg.Language,
			MaxTokens:  cfg.MaxTokens,
			Dimensions: cfg.Dimensions,
		}

		attempt := Attempt{Provider: cand.Provider, Model: model}
		out, err := r.attempt(ctx, c, cfg.Timeout, cand.Provider, index, req, &attempt)
		s.decision.Attempts = append(s.decision.Attempts, attempt)
		if err == nil {
			out.AttachmentIndex = index
			s.output = out
			s.decision.Outcome = OutcomeSuccess
			s.decision.Provider = out.Provider
			s.decision.Model = out.Model
			return s
		}
		s.failures = append(s.failures, batch.FromError(err))
	}

	s.decision.Outcome = OutcomeError
	s.decision.Reason = failureReason(s.failures, ctx.Err() != nil)
	return s
}

// attempt invokes one candidate and fills in the attempt record.
func (r *Runner) attempt(ctx context.Context, c Capability, timeout time.Duration, provider string, index int, req *Request, rec *Attempt) (*Output, error) {
	ctx, span := r.tracer.Start(ctx, "capability.attempt", trace.WithAttributes(
		attribute.String("capability.name", string(c)),
		attribute.String("capability.provider", provider),
		attribute.String("capability.model", req.Model),
		attribute.Int("capability.attachment", index),
	))
	defer span.End()

	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := r.now()
	out, err := r.registry.Invoke(callCtx, provider, c, req)
	rec.Duration = r.now().Sub(start)

	if err == nil {
		rec.Outcome = AttemptSuccess
		rec.Model = out.Model
		r.observeAttempt(c, provider, string(AttemptSuccess), rec.Duration)
		return out, nil
	}

	pe := types.AsProviderError(provider, err)
	rec.Outcome = AttemptFailed
	rec.Kind = string(pe.Kind)
	rec.Reason = batch.ExtractBatchErrorMessage([]batch.OutputLine{batch.FromError(pe)})
	span.RecordError(pe)
	span.SetStatus(codes.Error, rec.Reason)
	r.observeAttempt(c, provider, string(AttemptFailed), rec.Duration)
	r.logger.Debug("candidate failed",
		zap.String("capability", string(c)),
		zap.String("provider", provider),
		zap.String("model", req.Model),
		zap.Int("attachment", index),
		zap.String("kind", rec.Kind),
		zap.String("reason", rec.Reason))
	return nil, pe
}

func (r *Runner) observeAttempt(c Capability, provider, outcome string, d time.Duration) {
	for _, o := range r.observers {
		o.ObserveAttempt(string(c), provider, outcome, d)
	}
}

// finish stamps the duration, reports the decision and hands copies to sinks.
func (r *Runner) finish(ctx context.Context, span trace.Span, res RunResult) RunResult {
	dec := &res.Decision
	dec.Duration = r.now().Sub(dec.StartedAt)

	span.SetAttributes(
		attribute.String("capability.outcome", string(dec.Outcome)),
		attribute.Int("capability.succeeded", dec.Succeeded),
		attribute.Bool("capability.partial", dec.Partial),
	)
	if dec.Outcome == OutcomeError {
		span.SetStatus(codes.Error, dec.Reason)
	}
	for _, o := range r.observers {
		o.ObserveRun(string(dec.Capability), string(dec.Outcome), dec.Partial, dec.Duration)
	}

	fields := []zap.Field{
		zap.String("run_id", dec.RunID.String()),
		zap.String("capability", string(dec.Capability)),
		zap.String("outcome", string(dec.Outcome)),
		zap.Int("succeeded", dec.Succeeded),
		zap.Int("total", dec.Total),
		zap.Duration("duration", dec.Duration),
	}
	if dec.Reason != "" {
		fields = append(fields, zap.String("reason", dec.Reason))
	}
	if dec.Provider != "" {
		fields = append(fields, zap.String("provider", dec.Provider), zap.String("model", dec.Model))
	}
	r.logger.Info("capability run finished", fields...)

	// Sinks outlive the caller's cancellation but not the sink timeout.
	base := context.WithoutCancel(ctx)
	for _, sink := range r.sinks {
		if err := r.publish(base, sink, dec.Clone()); err != nil {
			r.logger.Warn("decision sink failed",
				zap.String("run_id", dec.RunID.String()),
				zap.Error(err))
		}
	}
	return res
}

func (r *Runner) publish(ctx context.Context, sink DecisionSink, d Decision) error {
	ctx, cancel := context.WithTimeout(ctx, r.sinkWait)
	defer cancel()
	return sink.RecordDecision(ctx, d)
}
