// Package daemon compiles and runs programs on the host for the primary backend
// daemon, streaming the program output while it runs.
package daemon

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/shlex"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/config"
	"cpp-scratchpad/internal/memory"
	"cpp-scratchpad/internal/pid"
	"cpp-scratchpad/internal/result"
	"cpp-scratchpad/internal/wire"
)

const (
	sampleInterval = time.Millisecond * 10
	// waitDelay bounds how long a killed process may keep its output pipes
	// open through its own children.
	waitDelay = time.Second
)

// Emit delivers one response to the requesting client.
type Emit func(response *wire.Response) error

type Status string

const (
	Completed      Status = "completed"
	CompileFailed  Status = "compile-failed"
	RunFailed      Status = "run-failed"
	RequestInvalid Status = "invalid"
)

// Execution is the record of one request kept for the execution history.
type Execution struct {
	ID       string
	FileName string
	Status   Status

	Success  bool
	ExitCode int

	CompileTime time.Duration
	RunTime     time.Duration
	Memory      memory.Memory

	Source      string
	Output      string
	ErrorOutput string
}

type Executor struct {
	profile  *config.CompilerProfile
	sequence atomic.Uint64
}

func NewExecutor(profile *config.CompilerProfile) *Executor {
	return &Executor{profile: profile}
}

// Execute compiles the request source and, when that succeeds, runs it with
// the request input. Exactly one terminal response is emitted, after any
// number of stdout and stderr chunks. The returned error covers only failures
// to prepare the request, which have also been emitted as an error response.
func (e *Executor) Execute(ctx context.Context, req *wire.Request, emit Emit) (*Execution, error) {
	emit = serialize(emit)

	fileName := req.FileName
	if fileName == "" {
		fileName = result.DefaultFileName
	}

	execution := &Execution{ID: uuid.NewString(), FileName: fileName, Source: req.Code}

	if err := os.MkdirAll(e.profile.TempDir, 0o700); err != nil {
		return e.fail(execution, req, emit, errors.Wrap(err, "failed to make temp directory"))
	}

	base := fmt.Sprintf("temp_%d%d", time.Now().UnixMilli(), e.sequence.Add(1))
	source := filepath.Join(e.profile.TempDir, base+".cpp")
	binary := filepath.Join(e.profile.TempDir, base)

	defer removeFiles(source, binary)

	if err := os.WriteFile(source, []byte(req.Code), 0o600); err != nil {
		return e.fail(execution, req, emit, errors.Wrap(err, "failed to write source file"))
	}

	if !e.compile(ctx, execution, req, source, binary, emit) {
		return execution, nil
	}

	e.run(ctx, execution, req, binary, emit)
	return execution, nil
}

func (e *Executor) compile(ctx context.Context, execution *Execution, req *wire.Request, source, binary string, emit Emit) bool {
	args, err := e.command(e.profile.Compile, source, binary)

	if err != nil {
		_ = emit(&wire.Response{Type: wire.CompileError, ID: req.ID, Message: err.Error()})
		execution.Status = CompileFailed
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, e.profile.CompileTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = e.profile.TempDir
	cmd.WaitDelay = waitDelay
	cmd.Stdout = &limitedBuffer{buffer: &stdout, limit: e.profile.MaxOutputBytes}
	cmd.Stderr = &limitedBuffer{buffer: &stderr, limit: e.profile.MaxOutputBytes}

	started := time.Now()
	runErr := cmd.Run()
	execution.CompileTime = time.Since(started)

	if runErr == nil {
		return true
	}

	var message string

	var exitErr *exec.ExitError

	switch {
	case ctx.Err() == context.DeadlineExceeded:
		message = fmt.Sprintf("error: compilation timed out after %s", e.profile.CompileTimeout)
	case errors.As(runErr, &exitErr):
		message = stderr.String()
		if strings.TrimSpace(message) == "" {
			message = stdout.String()
		}
	default:
		message = "failed to compile: " + runErr.Error()
	}

	message = RewriteDiagnostics(message, e.profile.TempDir, execution.FileName)

	execution.Status = CompileFailed
	execution.ErrorOutput = message

	_ = emit(&wire.Response{
		Type:        wire.CompileError,
		ID:          req.ID,
		Message:     message,
		CompileTime: milliseconds(execution.CompileTime),
	})

	return false
}

func (e *Executor) run(ctx context.Context, execution *Execution, req *wire.Request, binary string, emit Emit) {
	args, err := e.command(e.profile.Run, "", binary)

	if err != nil {
		e.runError(execution, req, emit, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, e.profile.RunTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = e.profile.TempDir
	cmd.WaitDelay = waitDelay
	cmd.Stdin = strings.NewReader(req.Input)
	cmd.Stdout = &streamWriter{kind: wire.Stdout, id: req.ID, emit: emit,
		out: limitedBuffer{buffer: &stdout, limit: e.profile.MaxOutputBytes}}
	cmd.Stderr = &streamWriter{kind: wire.Stderr, id: req.ID, emit: emit,
		out: limitedBuffer{buffer: &stderr, limit: e.profile.MaxOutputBytes}}

	started := time.Now()

	if err := cmd.Start(); err != nil {
		e.runError(execution, req, emit, err)
		return
	}

	tracker := pid.TrackPeak(cmd.Process.Pid, sampleInterval)
	waitErr := cmd.Wait()

	execution.Memory = tracker.Stop()
	execution.RunTime = time.Since(started)
	execution.ExitCode = cmd.ProcessState.ExitCode()
	execution.Success = waitErr == nil && execution.ExitCode == 0

	if ctx.Err() == context.DeadlineExceeded {
		fmt.Fprintf(&stderr, "Error: time limit of %s exceeded.\n", e.profile.RunTimeout)
	}

	execution.Status = Completed
	if !execution.Success {
		execution.Status = RunFailed
	}

	execution.Output = stdout.String()
	execution.ErrorOutput = stderr.String()

	exitCode := execution.ExitCode
	runTime := float64(execution.RunTime.Milliseconds())
	totalTime := float64((execution.CompileTime + execution.RunTime).Milliseconds())

	response := &wire.Response{
		Type:        wire.RunComplete,
		ID:          req.ID,
		Success:     execution.Success,
		Output:      execution.Output,
		ErrorOutput: execution.ErrorOutput,
		ExitCode:    &exitCode,
		CompileTime: milliseconds(execution.CompileTime),
		RunTime:     &runTime,
		TotalTime:   &totalTime,
	}

	if execution.Memory > 0 {
		peak := execution.Memory.Bytes()
		response.Memory = &peak
	}

	_ = emit(response)
}

func (e *Executor) runError(execution *Execution, req *wire.Request, emit Emit, err error) {
	execution.Status = RunFailed
	execution.ErrorOutput = "failed to run program: " + err.Error()

	_ = emit(&wire.Response{Type: wire.RunError, ID: req.ID, Message: execution.ErrorOutput})
}

func (e *Executor) fail(execution *Execution, req *wire.Request, emit Emit, err error) (*Execution, error) {
	log.Error().Err(err).Str("id", execution.ID).Msg("failed to prepare compile request")

	execution.Status = RequestInvalid
	_ = emit(&wire.Response{Type: wire.Error, ID: req.ID, Message: "failed to handle compile request: " + err.Error()})

	return execution, err
}

// command splits the template and substitutes the placeholders of every
// argument.
func (e *Executor) command(template, source, binary string) ([]string, error) {
	args, err := shlex.Split(template)

	if err != nil {
		return nil, errors.Wrapf(err, "failed to split command %q", template)
	}

	if len(args) == 0 {
		return nil, errors.Errorf("command %q is empty", template)
	}

	replacer := strings.NewReplacer("{source}", source, "{binary}", binary, "{dir}", e.profile.TempDir)

	for i, arg := range args {
		args[i] = replacer.Replace(arg)
	}

	return args, nil
}

func milliseconds(duration time.Duration) *int64 {
	ms := duration.Milliseconds()
	return &ms
}

func removeFiles(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("failed to remove temp file")
		}
	}
}

// serialize makes emit safe to call from the stdout and stderr copiers at once.
func serialize(emit Emit) Emit {
	var mu sync.Mutex

	return func(response *wire.Response) error {
		mu.Lock()
		defer mu.Unlock()

		return emit(response)
	}
}

// limitedBuffer keeps the first limit bytes written to it and silently drops
// the rest, a non positive limit keeps everything.
type limitedBuffer struct {
	buffer *bytes.Buffer
	limit  int
}

func (l *limitedBuffer) Write(p []byte) (int, error) {
	kept := p

	if l.limit > 0 {
		room := l.limit - l.buffer.Len()

		if room <= 0 {
			return len(p), nil
		}

		if len(kept) > room {
			kept = kept[:room]
		}
	}

	l.buffer.Write(kept)
	return len(p), nil
}

// streamWriter forwards every chunk of program output to the client while
// keeping it for the terminal response. A client that went away does not
// stop the program, its chunks are dropped.
type streamWriter struct {
	kind wire.MessageType
	id   string
	emit Emit
	out  limitedBuffer
}

func (s *streamWriter) Write(p []byte) (int, error) {
	before := s.out.buffer.Len()
	_, _ = s.out.Write(p)

	if chunk := s.out.buffer.Bytes()[before:]; len(chunk) > 0 {
		if err := s.emit(&wire.Response{Type: s.kind, ID: s.id, Data: string(chunk)}); err != nil {
			log.Debug().Err(err).Str("stream", string(s.kind)).Msg("dropped output chunk")
		}
	}

	return len(p), nil
}
