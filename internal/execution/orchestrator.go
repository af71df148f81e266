package execution

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/language"
)

var (
	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "acadflow",
		Subsystem: "executor",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of orchestrated executions including retries",
		Buckets:   prometheus.DefBuckets,
	}, []string{"language", "outcome"})

	runRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acadflow",
		Subsystem: "executor",
		Name:      "run_retries_total",
		Help:      "Number of transport-class retries issued",
	}, []string{"language"})

	runTimeouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acadflow",
		Subsystem: "executor",
		Name:      "run_timeouts_total",
		Help:      "Number of execution attempts that hit the deadline",
	}, []string{"language"})
)

// Outcome classifies a finished execution.
type Outcome string

// Possible outcomes of an orchestrated run.
const (
	OutcomeSuccess            Outcome = "success"
	OutcomeCompileError       Outcome = "compile_error"
	OutcomeRuntimeError       Outcome = "runtime_error"
	OutcomeTimedOut           Outcome = "timed_out"
	OutcomeBackendUnavailable Outcome = "backend_unavailable"
)

// Request describes one execution to orchestrate.
type Request struct {
	LanguageID string
	Source     string
	Stdin      string
	// Graded runs get the longer deadline: correctness matters more than
	// interactivity once marks depend on the output.
	Graded bool
}

// Result is the normalized outcome of a run. It is never partially
// populated: Success carries stdout and an exit code, failure variants
// carry explanatory stderr.
type Result struct {
	Outcome    Outcome
	Stdout     string
	Stderr     string
	ExitCode   *int
	DurationMs int64
}

// Policy holds the timeout and retry knobs. Zero values fall back to the
// interactive-execution defaults.
type Policy struct {
	RunTimeout    time.Duration
	GradedTimeout time.Duration
	MaxRetries    int
	BackoffBase   time.Duration
	BackoffFactor float64
	BackoffCap    time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.RunTimeout <= 0 {
		p.RunTimeout = 10 * time.Second
	}
	if p.GradedTimeout <= 0 {
		p.GradedTimeout = 20 * time.Second
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	} else if p.MaxRetries == 0 {
		p.MaxRetries = 2
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = 500 * time.Millisecond
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = 2
	}
	if p.BackoffCap <= 0 {
		p.BackoffCap = 4 * time.Second
	}
	return p
}

// Orchestrator coordinates one execution request per submission attempt:
// registry lookup, deadline, transport retries, outcome classification.
type Orchestrator struct {
	registry *language.Registry
	client   Client
	policy   Policy
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewOrchestrator constructs an orchestrator around the given client.
func NewOrchestrator(registry *language.Registry, client Client, policy Policy, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		registry: registry,
		client:   client,
		policy:   policy.withDefaults(),
		tracer:   otel.Tracer("github.com/kc-conquers-code11/AcadFlow-sub001/internal/execution"),
		logger:   logger.With().Str("component", "execution_orchestrator").Logger(),
	}
}

// Run executes the request and classifies the outcome. An unresolvable
// language fails here with language.ErrUnsupportedLanguage and never
// reaches the network. Backend-side failures come back as a Result, not
// an error; the error return is reserved for caller bugs and caller
// cancellation.
func (o *Orchestrator) Run(parent context.Context, req Request) (Result, error) {
	spec, err := o.registry.Resolve(req.LanguageID)
	if err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(req.Source) == "" {
		return Result{}, fmt.Errorf("source code must not be empty")
	}

	ctx, span := o.tracer.Start(parent, "execution.run", trace.WithAttributes(
		attribute.String("execution.language", spec.ID),
		attribute.Bool("execution.graded", req.Graded),
	))
	defer span.End()

	deadline := o.policy.RunTimeout
	if req.Graded {
		deadline = o.policy.GradedTimeout
	}

	started := time.Now()
	var lastErr error

	for attempt := 0; attempt <= o.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			runRetries.WithLabelValues(spec.ID).Inc()
			if err := o.backoff(ctx, attempt); err != nil {
				// Caller gave up while we were waiting to retry.
				span.SetStatus(codes.Error, "cancelled during backoff")
				return Result{}, err
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, deadline)
		resp, err := o.client.Execute(attemptCtx, spec, req.Source, req.Stdin)
		cancel()

		if err == nil {
			result := classify(resp)
			result.DurationMs = time.Since(started).Milliseconds()
			runDuration.WithLabelValues(spec.ID, string(result.Outcome)).Observe(time.Since(started).Seconds())
			span.SetAttributes(
				attribute.String("execution.outcome", string(result.Outcome)),
				attribute.Int("execution.attempts", attempt+1),
			)
			return result, nil
		}

		if parent.Err() != nil {
			// The caller cancelled; a late backend response must not be
			// acted on.
			span.SetStatus(codes.Error, "cancelled by caller")
			return Result{}, parent.Err()
		}

		if errors.Is(err, context.DeadlineExceeded) {
			runTimeouts.WithLabelValues(spec.ID).Inc()
			lastErr = err
			o.logger.Warn().
				Str("language", spec.ID).
				Int("attempt", attempt+1).
				Dur("deadline", deadline).
				Msg("execution attempt timed out")
			continue
		}

		if errors.Is(err, ErrBackendUnavailable) {
			lastErr = err
			o.logger.Warn().
				Err(err).
				Str("language", spec.ID).
				Int("attempt", attempt+1).
				Msg("execution backend unreachable")
			continue
		}

		// Anything else is a malformed request on our side: deterministic,
		// never retried.
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	elapsed := time.Since(started)
	result := Result{
		Outcome:    OutcomeBackendUnavailable,
		Stderr:     "execution backend unavailable, try again later",
		DurationMs: elapsed.Milliseconds(),
	}
	if errors.Is(lastErr, context.DeadlineExceeded) {
		result.Outcome = OutcomeTimedOut
		result.Stderr = fmt.Sprintf("execution timed out after %s", deadline)
	}

	runDuration.WithLabelValues(spec.ID, string(result.Outcome)).Observe(elapsed.Seconds())
	span.SetAttributes(attribute.String("execution.outcome", string(result.Outcome)))
	span.SetStatus(codes.Error, string(result.Outcome))

	return result, nil
}

func (o *Orchestrator) backoff(ctx context.Context, attempt int) error {
	delay := o.policy.BackoffBase
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * o.policy.BackoffFactor)
	}
	if delay > o.policy.BackoffCap {
		delay = o.policy.BackoffCap
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// classify maps the backend's stage output onto a normalized result.
// Compile failures win over run output; a nonzero run exit is a runtime
// error with the program's own stderr surfaced verbatim.
func classify(resp BackendResponse) Result {
	if resp.Compile != nil && resp.Compile.Failed() {
		return Result{
			Outcome: OutcomeCompileError,
			Stdout:  resp.Compile.Stdout,
			Stderr:  compileMessage(*resp.Compile),
		}
	}

	run := resp.Run
	if run.Failed() {
		return Result{
			Outcome:  OutcomeRuntimeError,
			Stdout:   run.Stdout,
			Stderr:   run.Stderr,
			ExitCode: run.Code,
		}
	}

	exit := 0
	if run.Code != nil {
		exit = *run.Code
	}
	return Result{
		Outcome:  OutcomeSuccess,
		Stdout:   run.Stdout,
		Stderr:   run.Stderr,
		ExitCode: &exit,
	}
}

func compileMessage(stage StageOutput) string {
	if strings.TrimSpace(stage.Stderr) != "" {
		return stage.Stderr
	}
	if strings.TrimSpace(stage.Output) != "" {
		return stage.Output
	}
	return "compilation failed"
}
