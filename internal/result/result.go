// Package result defines the uniform compile/run result contract and the pure
// functions that normalize raw backend payloads into it.
package result

import (
	"cpp-scratchpad/internal/backend"
)

// DefaultFileName is used whenever the host did not supply a file name.
const DefaultFileName = "test.cpp"

type CompileRequest struct {
	// The complete C++ source text that will be compiled and executed.
	SourceText string
	// The standard input that is written to the program once it started.
	Stdin string
	// The name of the file the source came from. It is only used to make
	// diagnostics read naturally and never affects compilation.
	FileName string
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

type Diagnostic struct {
	Line     uint     `json:"line"`
	Column   uint     `json:"column"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// CompileResult is either a *CompileSuccess or a *CompileFailure, never both
// and never neither.
type CompileResult interface {
	CompileTime() int64
	isCompileResult()
}

type CompileSuccess struct {
	CompileTimeMs int64
	// Degraded is set when no compiler validated the source and only the
	// static brace/paren balance check passed.
	Degraded bool
}

func (s *CompileSuccess) CompileTime() int64 { return s.CompileTimeMs }
func (*CompileSuccess) isCompileResult()     {}

type CompileFailure struct {
	Diagnostics   []Diagnostic
	RawStderr     string
	CompileTimeMs int64
}

func (f *CompileFailure) CompileTime() int64 { return f.CompileTimeMs }
func (*CompileFailure) isCompileResult()     {}

type RunResult struct {
	Success bool
	// Stdout holds the normalized program output, it is always empty when the
	// run failed.
	Stdout string
	Stderr string
	// TimeMs and MemoryBytes are nil when the run failed.
	TimeMs      *float64
	MemoryBytes *int64
}

// FailedRun builds a failed run, suppressing output and statistics.
func FailedRun(stderr string) *RunResult {
	return &RunResult{Success: false, Stderr: stderr}
}

// SucceededRun builds a successful run. Statistics are left unset until the
// orchestrator fills them in, from the backend or from estimates.
func SucceededRun(stdout, stderr string) *RunResult {
	return &RunResult{Success: true, Stdout: stdout, Stderr: stderr}
}

// Outcome is the compile/run pair produced by one attempt and stored in the
// result cache.
type Outcome struct {
	Compile CompileResult
	// Run is nil when compilation failed.
	Run     *RunResult
	Backend backend.Kind
}

// Succeeded reports whether compilation and the run both succeeded.
func (o *Outcome) Succeeded() bool {
	if _, ok := o.Compile.(*CompileSuccess); !ok {
		return false
	}

	return o.Run != nil && o.Run.Success
}

// Degraded reports whether the outcome only reflects the static check fallback.
func (o *Outcome) Degraded() bool {
	success, ok := o.Compile.(*CompileSuccess)
	return ok && success.Degraded
}

// Float64 and Int64 are small helpers for filling optional statistics.
func Float64(v float64) *float64 { return &v }
func Int64(v int64) *int64       { return &v }
