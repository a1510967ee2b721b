package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"cpp-scratchpad/internal/backend"
	"cpp-scratchpad/internal/estimate"
	"cpp-scratchpad/internal/result"
	"cpp-scratchpad/internal/terminal"
	"cpp-scratchpad/internal/wire"
)

type fakePrimary struct {
	mu       sync.Mutex
	state    backend.State
	connect  bool
	connects int
	requests []result.CompileRequest
	respond  func(req *result.CompileRequest) (*result.StructuredPayload, error)
}

func (f *fakePrimary) State() backend.State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

func (f *fakePrimary) Connect(_ context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.connects++
	f.state = backend.Unavailable

	if f.connect {
		f.state = backend.Ready
	}

	return f.connect
}

func (f *fakePrimary) CompileAndRun(_ context.Context, req *result.CompileRequest) (*result.StructuredPayload, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()

	return f.respond(req)
}

func (f *fakePrimary) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.requests)
}

type fakeSandbox struct {
	mu          sync.Mutex
	state       backend.State
	initialize  bool
	initializes int
	stdins      []string
	respond     func(source, stdin string) (*result.ConsolePayload, error)
}

func (f *fakeSandbox) State() backend.State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

func (f *fakeSandbox) Initialize(_ context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.initializes++
	f.state = backend.Unavailable

	if f.initialize {
		f.state = backend.Ready
	}

	return f.initialize
}

func (f *fakeSandbox) CompileAndRun(_ context.Context, source, stdin string) (*result.ConsolePayload, error) {
	f.mu.Lock()
	f.stdins = append(f.stdins, stdin)
	f.mu.Unlock()

	return f.respond(source, stdin)
}

func ranFine(_ *result.CompileRequest) (*result.StructuredPayload, error) {
	return &result.StructuredPayload{
		Terminal:    string(wire.RunComplete),
		Success:     true,
		Output:      "8\n",
		ExitCode:    intPtr(0),
		RunTimeMs:   result.Float64(4),
		MemoryBytes: result.Int64(3 * 1024 * 1024),
	}, nil
}

func sandboxRanFine(_, stdin string) (*result.ConsolePayload, error) {
	return &result.ConsolePayload{
		Console:   "\x1b[1;93m>\x1b[0m wasmtime run test.wasm --\nsandbox " + stdin,
		RunTimeMs: 2,
		Stage:     result.StageRun,
	}, nil
}

func intPtr(v int) *int { return &v }

const program = "#include <iostream>\nint main() { std::cout << 8; }\n"

type OrchestratorSuite struct {
	suite.Suite
	ctx     context.Context
	primary *fakePrimary
	sandbox *fakeSandbox
}

func (s *OrchestratorSuite) SetupTest() {
	s.ctx = context.Background()
	s.primary = &fakePrimary{connect: true, respond: ranFine}
	s.sandbox = &fakeSandbox{initialize: true, respond: sandboxRanFine}
}

func (s *OrchestratorSuite) TestInit() {
	s.Run("should not prepare the sandbox when the primary is ready", func() {
		New(s.primary, s.sandbox).Init(s.ctx)

		s.Equal(backend.Ready, s.primary.State())
		s.Equal(0, s.sandbox.initializes)
	})

	s.Run("should prepare the sandbox when the primary is unavailable", func() {
		s.primary.connect = false

		New(s.primary, s.sandbox).Init(s.ctx)

		s.Equal(backend.Unavailable, s.primary.State())
		s.Equal(1, s.sandbox.initializes)
	})
}

func (s *OrchestratorSuite) TestPrefersPrimary() {
	orchestrator := New(s.primary, s.sandbox)
	orchestrator.Init(s.ctx)

	outcome, err := orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program})

	s.Require().NoError(err)
	s.Equal(backend.Primary, outcome.Backend)
	s.Equal("8", outcome.Run.Stdout)
	s.Equal(4.0, *outcome.Run.TimeMs)
	s.Equal(int64(3*1024*1024), *outcome.Run.MemoryBytes)
	s.Equal(result.DefaultFileName, s.primary.requests[0].FileName)
	s.Equal(Idle, orchestrator.Phase())
}

func (s *OrchestratorSuite) TestCacheIdempotence() {
	orchestrator := New(s.primary, s.sandbox)
	orchestrator.Init(s.ctx)

	request := &result.CompileRequest{SourceText: program, Stdin: "1\n", FileName: "a.cpp"}

	first, err := orchestrator.CompileAndRun(s.ctx, request)
	s.Require().NoError(err)

	second, err := orchestrator.CompileAndRun(s.ctx, request)
	s.Require().NoError(err)

	s.Same(first, second)
	s.Equal(1, s.primary.calls())

	_, err = orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program, Stdin: "2\n", FileName: "a.cpp"})
	s.Require().NoError(err)
	s.Equal(2, s.primary.calls())
}

func (s *OrchestratorSuite) TestFallbackWithoutRedial() {
	s.primary.respond = func(_ *result.CompileRequest) (*result.StructuredPayload, error) {
		s.primary.mu.Lock()
		s.primary.state = backend.Unavailable
		s.primary.mu.Unlock()

		return nil, backend.ErrConnection
	}

	orchestrator := New(s.primary, s.sandbox)
	orchestrator.Init(s.ctx)

	outcome, err := orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program})

	s.Require().NoError(err)
	s.Equal(backend.Sandbox, outcome.Backend)
	s.Equal("sandbox", outcome.Run.Stdout)
	s.Equal(1, s.sandbox.initializes)

	_, err = orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program, Stdin: "x"})

	s.Require().NoError(err)
	s.Equal(1, s.primary.calls())
	s.Equal(1, s.primary.connects)
	s.Equal(1, s.sandbox.initializes)
	s.Len(s.sandbox.stdins, 2)
}

func (s *OrchestratorSuite) TestExclusionIsPerAttempt() {
	s.primary.respond = func(_ *result.CompileRequest) (*result.StructuredPayload, error) {
		return nil, errors.Wrap(backend.ErrTimeout, "no message for 30s")
	}

	orchestrator := New(s.primary, s.sandbox)
	orchestrator.Init(s.ctx)

	outcome, err := orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program})
	s.Require().NoError(err)
	s.Equal(backend.Sandbox, outcome.Backend)

	_, err = orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program, Stdin: "again"})
	s.Require().NoError(err)

	s.Equal(2, s.primary.calls())
}

func (s *OrchestratorSuite) TestDegraded() {
	s.primary.connect = false
	s.sandbox.initialize = false

	orchestrator := New(s.primary, s.sandbox)
	orchestrator.Init(s.ctx)

	outcome, err := orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program})

	s.Require().NoError(err)
	s.Equal(backend.StaticCheck, outcome.Backend)
	s.True(outcome.Degraded())
	s.True(outcome.Succeeded())
	s.Equal(result.CompiledPlaceholder, outcome.Run.Stdout)
	s.Equal(estimate.MemoryBytes(program).Bytes(), *outcome.Run.MemoryBytes)
	s.Equal(0, orchestrator.cache.Len())
	s.Equal(2, s.sandbox.initializes)
}

func (s *OrchestratorSuite) TestSandboxRetriedAfterLoss() {
	s.primary.connect = false
	lost := false

	s.sandbox.respond = func(source, stdin string) (*result.ConsolePayload, error) {
		if !lost {
			lost = true

			s.sandbox.mu.Lock()
			s.sandbox.state = backend.Unavailable
			s.sandbox.mu.Unlock()

			return nil, errors.Wrap(backend.ErrConnection, "toolchain worker stopped")
		}

		return sandboxRanFine(source, stdin)
	}

	orchestrator := New(s.primary, s.sandbox)
	orchestrator.Init(s.ctx)

	outcome, err := orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program})

	s.Require().NoError(err)
	s.Equal(backend.StaticCheck, outcome.Backend)
	s.Equal(1, s.sandbox.initializes)

	outcome, err = orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program, Stdin: "again"})

	s.Require().NoError(err)
	s.Equal(backend.Sandbox, outcome.Backend)
	s.Equal("sandbox again", outcome.Run.Stdout)
	s.Equal(2, s.sandbox.initializes)
}

func (s *OrchestratorSuite) TestStaticFailure() {
	orchestrator := New(nil, nil)

	outcome, err := orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: "int main() {\n  return 0;\n"})

	s.Require().NoError(err)

	failure, ok := outcome.Compile.(*result.CompileFailure)
	s.Require().True(ok)
	s.Nil(outcome.Run)
	s.Equal(uint(3), failure.Diagnostics[0].Line)
	s.Equal(uint(1), failure.Diagnostics[0].Column)
	s.Equal(1, orchestrator.cache.Len())
}

func (s *OrchestratorSuite) TestEstimates() {
	s.primary.respond = func(_ *result.CompileRequest) (*result.StructuredPayload, error) {
		return &result.StructuredPayload{Terminal: string(wire.RunComplete), Success: true, Output: "ok"}, nil
	}

	orchestrator := New(s.primary, nil)
	orchestrator.Init(s.ctx)

	source := "int a[100];\nint main() { return 0; }"
	outcome, err := orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: source})

	s.Require().NoError(err)
	s.Equal(estimate.MemoryBytes(source).Bytes(), *outcome.Run.MemoryBytes)
	s.Equal(estimate.RunTimeMs(source), *outcome.Run.TimeMs)
}

func (s *OrchestratorSuite) TestFailedRunHasNoStatistics() {
	s.primary.respond = func(_ *result.CompileRequest) (*result.StructuredPayload, error) {
		return &result.StructuredPayload{Terminal: string(wire.RunComplete), ExitCode: intPtr(3)}, nil
	}

	orchestrator := New(s.primary, nil)
	orchestrator.Init(s.ctx)

	outcome, err := orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program})

	s.Require().NoError(err)
	s.False(outcome.Run.Success)
	s.Nil(outcome.Run.TimeMs)
	s.Nil(outcome.Run.MemoryBytes)
}

func (s *OrchestratorSuite) TestUnrecoverableError() {
	s.primary.respond = func(_ *result.CompileRequest) (*result.StructuredPayload, error) {
		return nil, errors.New("disk full")
	}

	orchestrator := New(s.primary, s.sandbox)
	orchestrator.Init(s.ctx)

	_, err := orchestrator.CompileAndRun(s.ctx, &result.CompileRequest{SourceText: program})

	s.ErrorContains(err, "disk full")
	s.Empty(s.sandbox.stdins)
}

func (s *OrchestratorSuite) TestContextEnded() {
	ctx, cancel := context.WithCancel(s.ctx)

	s.primary.respond = func(_ *result.CompileRequest) (*result.StructuredPayload, error) {
		cancel()
		return nil, ctx.Err()
	}

	orchestrator := New(s.primary, s.sandbox)
	orchestrator.Init(s.ctx)

	_, err := orchestrator.CompileAndRun(ctx, &result.CompileRequest{SourceText: program})

	s.ErrorIs(err, context.Canceled)
	s.Equal(0, orchestrator.cache.Len())
}

func (s *OrchestratorSuite) TestRunInteractive() {
	s.Run("should run one cycle per line until exit", func() {
		s.primary.connect = false

		orchestrator := New(s.primary, s.sandbox)
		orchestrator.Init(s.ctx)

		recorder := terminal.NewRecorder("3", "5", " EXIT ")
		source := "#include <iostream>\nint main() { int n; std::cin >> n; std::cout << n; }"

		s.Require().NoError(orchestrator.Run(s.ctx, &result.CompileRequest{SourceText: source}, recorder))

		s.Equal([]string{"", "3\n", "5\n"}, s.sandbox.stdins)

		types := recorder.Types()
		s.Equal(terminal.Clear, types[0])
		s.NotContains(types, terminal.Complete)

		messages := recorder.Messages()
		s.Equal(loopEndedNotice, messages[len(messages)-1].Text)

		var outputs []string
		for _, message := range messages {
			if message.Type == terminal.Output {
				outputs = append(outputs, message.Text)
			}
		}

		s.Contains(outputs, "sandbox 3")
		s.Contains(outputs, "sandbox 5")
	})

	s.Run("should end when the input ends", func() {
		orchestrator := New(nil, nil)
		recorder := terminal.NewRecorder()

		s.Require().NoError(orchestrator.RunInteractive(s.ctx, "int main() { std::cin.get(); }", "", recorder))

		messages := recorder.Messages()
		s.Equal(loopEndedNotice, messages[len(messages)-1].Text)
	})

	s.Run("should stop at a compile failure", func() {
		orchestrator := New(nil, nil)
		recorder := terminal.NewRecorder("3")

		s.Require().NoError(orchestrator.RunInteractive(s.ctx, "int main() { std::cin.get();", "", recorder))

		s.Equal([]terminal.MessageType{terminal.Clear, terminal.Clear, terminal.Error}, recorder.Types())
	})
}

func (s *OrchestratorSuite) TestRunOnce() {
	orchestrator := New(s.primary, nil)
	orchestrator.Init(s.ctx)

	recorder := terminal.NewRecorder()

	s.Require().NoError(orchestrator.Run(s.ctx, &result.CompileRequest{SourceText: program}, recorder))

	s.Equal([]terminal.MessageType{terminal.Clear, terminal.Output, terminal.Output, terminal.Complete}, recorder.Types())
	s.Equal("8", recorder.Messages()[1].Text)
}

func (s *OrchestratorSuite) TestRunReportsErrors() {
	s.primary.respond = func(_ *result.CompileRequest) (*result.StructuredPayload, error) {
		return nil, errors.New("disk full")
	}

	orchestrator := New(s.primary, nil)
	orchestrator.Init(s.ctx)

	recorder := terminal.NewRecorder()
	err := orchestrator.Run(s.ctx, &result.CompileRequest{SourceText: program, Stdin: "1"}, recorder)

	s.Error(err)
	s.Equal([]terminal.MessageType{terminal.Clear, terminal.Error}, recorder.Types())
	s.Contains(recorder.Messages()[1].Text, "disk full")
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorSuite))
}

func TestCheckBalance(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{name: "balanced", source: "int main() { return 0; }"},
		{name: "brace in string", source: "int main() { puts(\"{\"); }"},
		{name: "paren in char", source: "int main() { char c = '('; }"},
		{name: "escaped quote", source: "int main() { puts(\"\\\"{\"); }"},
		{name: "missing brace", source: "int main() {", want: []string{unbalancedBraces}},
		{name: "missing paren", source: "int main( {}", want: []string{unbalancedParentheses}},
		{name: "both", source: "int main( {", want: []string{unbalancedBraces, unbalancedParentheses}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diagnostics := CheckBalance(tt.source)

			var messages []string
			for _, diagnostic := range diagnostics {
				messages = append(messages, diagnostic.Message)
			}

			assert.Equal(t, tt.want, messages)
		})
	}
}

func TestStaticCheckTranslation(t *testing.T) {
	translator, err := result.NewTranslator("zh")
	assert.NoError(t, err)

	outcome := StaticCheck("int main() {", translator, 0)

	failure := outcome.Compile.(*result.CompileFailure)
	assert.Equal(t, "缺少匹配的大括号", failure.Diagnostics[0].Message)
}

func TestReadsInput(t *testing.T) {
	assert.True(t, ReadsInput("std::cin >> n;"))
	assert.False(t, ReadsInput("std::cout << 1;"))
}
