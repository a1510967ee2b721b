package result

// StructuredPayload is what the primary backend client collected for one
// request: the terminal message plus every streamed chunk seen before it.
type StructuredPayload struct {
	// Either wire.RunComplete or wire.CompileError.
	Terminal string

	// compile-error message.
	Message string

	// run-complete fields.
	Success  bool
	Output   string
	Error    string
	ExitCode *int

	CompileTimeMs *int64
	RunTimeMs     *float64
	MemoryBytes   *int64

	// Chunks streamed while the program was running. They are kept for
	// diagnostics and used when the terminal message omitted its copy.
	StreamedStdout string
	StreamedStderr string
}

// Stage names the toolchain step that ended a sandbox attempt.
type Stage string

const (
	StageCompile Stage = "compile"
	StageLink    Stage = "link"
	StageRun     Stage = "run"
)

// ConsolePayload is what the sandbox backend client collected for one request:
// raw interleaved toolchain console text plus the terminal runAsync details.
type ConsolePayload struct {
	// Console is every `write` chunk, in order, including toolchain banners.
	Console string
	// Stderr is every `error` chunk, in order.
	Stderr string

	RunTimeMs   float64
	MemoryBytes int64
	HasError    bool
	// Stage is the toolchain step the worker reported the attempt ended in.
	Stage Stage
}
