// Package orchestrator decides which backend runs a compile request, falls
// back along the preference order when a backend fails, fills in estimated
// statistics and remembers recent outcomes.
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/backend"
	"cpp-scratchpad/internal/cache"
	"cpp-scratchpad/internal/estimate"
	"cpp-scratchpad/internal/result"
)

type PrimaryBackend interface {
	State() backend.State
	Connect(ctx context.Context) bool
	CompileAndRun(ctx context.Context, req *result.CompileRequest) (*result.StructuredPayload, error)
}

type SandboxBackend interface {
	State() backend.State
	Initialize(ctx context.Context) bool
	CompileAndRun(ctx context.Context, source, stdin string) (*result.ConsolePayload, error)
}

type Phase int32

const (
	Idle Phase = iota
	SelectingBackend
	RunningPrimary
	RunningSandbox
	StaticCheckOnly
	Normalizing
	Reported
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case SelectingBackend:
		return "SelectingBackend"
	case RunningPrimary:
		return "RunningPrimary"
	case RunningSandbox:
		return "RunningSandbox"
	case StaticCheckOnly:
		return "StaticCheckOnly"
	case Normalizing:
		return "Normalizing"
	case Reported:
		return "Reported"
	default:
		return "Invalid"
	}
}

type Option func(o *Orchestrator)

// WithTranslator localizes the diagnostics of every outcome.
func WithTranslator(translator *result.Translator) Option {
	return func(o *Orchestrator) {
		o.normalizer.Translator = translator
	}
}

func WithCacheCapacity(capacity int) Option {
	return func(o *Orchestrator) {
		o.cache = cache.New(capacity)
	}
}

// Orchestrator runs one compile request at a time. The mutex serializing the
// requests also guards the cache.
type Orchestrator struct {
	// Either backend may be nil, a missing backend is skipped.
	primary PrimaryBackend
	sandbox SandboxBackend

	normalizer result.Normalizer
	phase      atomic.Int32

	mu    sync.Mutex
	cache *cache.Cache
}

func New(primary PrimaryBackend, sandbox SandboxBackend, options ...Option) *Orchestrator {
	orchestrator := &Orchestrator{
		primary: primary,
		sandbox: sandbox,
		cache:   cache.New(cache.DefaultCapacity),
	}

	for _, option := range options {
		option(orchestrator)
	}

	return orchestrator
}

// Phase returns what the orchestrator is doing right now.
func (o *Orchestrator) Phase() Phase { return Phase(o.phase.Load()) }

// Init connects the primary backend, and only when that fails prepares the
// sandbox so the first request does not pay for it.
func (o *Orchestrator) Init(ctx context.Context) {
	if o.primary != nil && o.primary.Connect(ctx) {
		log.Info().Msg("primary backend is ready")
		return
	}

	if o.sandbox != nil && o.sandbox.Initialize(ctx) {
		log.Info().Msg("sandbox backend is ready")
		return
	}

	log.Warn().Msg("no compiler backend is available, only static checks will be performed")
}

// CompileAndRun produces the outcome of the request, from the cache when the
// exact request was seen recently. Backend failures that allow a fallback are
// never returned, the only errors are the end of the context and errors no
// backend could recover from.
func (o *Orchestrator) CompileAndRun(ctx context.Context, request *result.CompileRequest) (*result.Outcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	defer o.setPhase(Idle)

	req := *request
	if req.FileName == "" {
		req.FileName = result.DefaultFileName
	}

	key := cache.KeyOf(&req)

	if outcome, ok := o.cache.Get(key); ok {
		log.Debug().Uint64("key", uint64(key)).Msg("outcome served from cache")
		return outcome, nil
	}

	outcome, err := o.attempt(ctx, &req)

	if err != nil {
		return nil, err
	}

	fillEstimates(outcome, req.SourceText)
	o.setPhase(Reported)

	log.Debug().
		Str("backend", outcome.Backend.String()).
		Bool("succeeded", outcome.Succeeded()).
		Msg("compile and run reported")

	if !outcome.Degraded() {
		o.cache.Put(key, outcome)
	}

	return outcome, nil
}

// attempt walks the preference order. A backend that fails with a fallback
// error is excluded for the rest of this attempt only.
func (o *Orchestrator) attempt(ctx context.Context, req *result.CompileRequest) (*result.Outcome, error) {
	excluded := map[backend.Kind]bool{}

	for {
		o.setPhase(SelectingBackend)

		kind := o.selectBackend(ctx, excluded)
		started := time.Now()

		var (
			outcome *result.Outcome
			err     error
		)

		switch kind {
		case backend.Primary:
			o.setPhase(RunningPrimary)
			outcome, err = o.runPrimary(ctx, req, started)
		case backend.Sandbox:
			o.setPhase(RunningSandbox)
			outcome, err = o.runSandbox(ctx, req, started)
		default:
			o.setPhase(StaticCheckOnly)
			return StaticCheck(req.SourceText, o.normalizer.Translator, elapsedMs(started)), nil
		}

		if err == nil {
			return outcome, nil
		}

		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "compile and run abandoned")
		}

		if !backend.IsFallback(err) {
			return nil, errors.Wrapf(err, "%s backend failed", kind)
		}

		log.Warn().Err(err).Str("backend", kind.String()).Msg("backend failed, falling back")
		excluded[kind] = true
	}
}

func (o *Orchestrator) selectBackend(ctx context.Context, excluded map[backend.Kind]bool) backend.Kind {
	if o.primary != nil && !excluded[backend.Primary] && o.primary.State() == backend.Ready {
		return backend.Primary
	}

	if o.sandbox != nil && !excluded[backend.Sandbox] {
		if state := o.sandbox.State(); state == backend.Unknown || state == backend.Unavailable {
			o.sandbox.Initialize(ctx)
		}

		if o.sandbox.State() == backend.Ready {
			return backend.Sandbox
		}
	}

	return backend.StaticCheck
}

func (o *Orchestrator) runPrimary(ctx context.Context, req *result.CompileRequest, started time.Time) (*result.Outcome, error) {
	payload, err := o.primary.CompileAndRun(ctx, req)

	if err != nil {
		return nil, err
	}

	o.setPhase(Normalizing)
	return o.normalizer.NormalizeStructured(payload, elapsedMs(started)), nil
}

func (o *Orchestrator) runSandbox(ctx context.Context, req *result.CompileRequest, started time.Time) (*result.Outcome, error) {
	payload, err := o.sandbox.CompileAndRun(ctx, req.SourceText, req.Stdin)

	if err != nil {
		return nil, err
	}

	o.setPhase(Normalizing)
	return o.normalizer.NormalizeConsole(payload, elapsedMs(started)), nil
}

func (o *Orchestrator) setPhase(phase Phase) {
	o.phase.Store(int32(phase))
}

// fillEstimates completes the statistics of a successful run with the source
// based estimates wherever the backend reported nothing.
func fillEstimates(outcome *result.Outcome, source string) {
	run := outcome.Run

	if run == nil || !run.Success {
		return
	}

	if run.MemoryBytes == nil {
		run.MemoryBytes = result.Int64(estimate.MemoryBytes(source).Bytes())
	}

	if run.TimeMs == nil {
		run.TimeMs = result.Float64(estimate.RunTimeMs(source))
	}
}

func elapsedMs(started time.Time) int64 {
	return time.Since(started).Milliseconds()
}
