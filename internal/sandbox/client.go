// Package sandbox is the isolated fallback backend. A worker goroutine owns a
// compiler toolchain and talks to the client only through messages, the
// client collects the raw console output of each attempt.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/backend"
	"cpp-scratchpad/internal/result"
)

const DefaultInitTimeout = time.Second * 5

type Option func(c *Client)

// WithInitTimeout bounds how long Initialize waits for the toolchain.
func WithInitTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.initTimeout = timeout }
}

// WithRunCeiling aborts an attempt that has not finished after the given
// duration. Zero, the default, never aborts.
func WithRunCeiling(ceiling time.Duration) Option {
	return func(c *Client) { c.runCeiling = ceiling }
}

type Client struct {
	backend.StateHolder

	toolchain   Toolchain
	initTimeout time.Duration
	runCeiling  time.Duration

	// mu serializes attempts, the worker handles one message at a time.
	mu        sync.Mutex
	requests  chan Message
	responses chan Message
	stop      context.CancelFunc
	stopped   chan struct{}
}

func New(toolchain Toolchain, options ...Option) *Client {
	client := &Client{
		toolchain:   toolchain,
		initTimeout: DefaultInitTimeout,
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// Initialize starts the worker and reports whether its toolchain became ready
// within the init timeout.
func (c *Client) Initialize(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.initialize(ctx)
}

func (c *Client) initialize(ctx context.Context) bool {
	c.Begin()
	c.shutdown()
	c.start()

	c.requests <- Message{ID: MessageInit}

	timer := time.NewTimer(c.initTimeout)
	defer timer.Stop()

	for {
		select {
		case message := <-c.responses:
			switch message.ID {
			case MessageInitComplete:
				log.Info().Msg("sandbox toolchain ready")
				return c.Settle(true)

			case MessageInitError:
				log.Warn().Str("reason", message.Data).Msg("sandbox toolchain failed to initialize")
				c.shutdown()
				c.Settle(false)
				return false
			}

		case <-timer.C:
			log.Warn().Dur("timeout", c.initTimeout).Msg("sandbox toolchain did not initialize in time")
			c.shutdown()
			c.Settle(false)
			return false

		case <-ctx.Done():
			c.shutdown()
			c.Settle(false)
			return false
		}
	}
}

// CompileAndRun posts a compileLinkRun and collects every console and error
// chunk until the worker reports the attempt finished.
func (c *Client) CompileAndRun(ctx context.Context, source, stdin string) (*result.ConsolePayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() != backend.Ready || c.requests == nil {
		return nil, errors.Wrap(backend.ErrSandboxInit, "sandbox is not ready")
	}

	var ceiling <-chan time.Time

	if c.runCeiling > 0 {
		timer := time.NewTimer(c.runCeiling)
		defer timer.Stop()

		ceiling = timer.C
	}

	select {
	case c.requests <- Message{ID: MessageCompileLinkRun, Data: source, Stdin: stdin}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var console, stderr strings.Builder

	for {
		select {
		case message := <-c.responses:
			switch message.ID {
			case MessageWrite:
				console.WriteString(message.Data)

			case MessageError:
				stderr.WriteString(message.Data)

			case MessageRunAsync:
				return &result.ConsolePayload{
					Console:     console.String(),
					Stderr:      stderr.String(),
					RunTimeMs:   message.RunTime,
					MemoryBytes: message.MemoryUsage,
					HasError:    message.HasError,
					Stage:       result.Stage(message.Data),
				}, nil
			}

		case <-ceiling:
			return c.exceeded(ctx, console.String()), nil

		case <-ctx.Done():
			c.abort()
			return nil, ctx.Err()
		}
	}
}

// Close stops the worker, aborting any attempt in flight.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.shutdown()
	c.Lose()
	return nil
}

// exceeded replaces the worker whose program ran past the ceiling and reports
// the attempt as a failed run.
func (c *Client) exceeded(ctx context.Context, console string) *result.ConsolePayload {
	log.Warn().Dur("ceiling", c.runCeiling).Msg("sandbox run exceeded the ceiling, restarting the toolchain")

	c.abort()

	if !c.initialize(ctx) {
		log.Warn().Msg("sandbox toolchain failed to restart")
	}

	return &result.ConsolePayload{
		Console:  console,
		Stderr:   fmt.Sprintf("Error: time limit of %s exceeded.", c.runCeiling),
		HasError: true,
		Stage:    result.StageRun,
	}
}

// abort gives up on the worker after an attempt was abandoned, its toolchain
// may still be busy with the program.
func (c *Client) abort() {
	c.shutdown()
	c.Lose()
}

func (c *Client) start() {
	ctx, cancel := context.WithCancel(context.Background())

	c.requests = make(chan Message)
	c.responses = make(chan Message, 64)
	c.stop = cancel
	c.stopped = make(chan struct{})

	w := &worker{toolchain: c.toolchain, requests: c.requests, responses: c.responses}

	go func(stopped chan struct{}) {
		defer close(stopped)
		w.serve(ctx)
	}(c.stopped)
}

func (c *Client) shutdown() {
	if c.stop == nil {
		return
	}

	c.stop()
	<-c.stopped

	c.stop = nil
	c.requests = nil
	c.responses = nil
}
