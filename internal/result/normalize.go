package result

import (
	"fmt"
	"strings"

	"cpp-scratchpad/internal/backend"
)

const (
	terminalRunComplete  = "run-complete"
	terminalCompileError = "compile-error"
)

// Normalizer converts raw backend payloads into outcomes. It holds no state
// besides the diagnostics translator and performs no I/O.
type Normalizer struct {
	Translator *Translator
}

// NormalizeStructured converts a primary backend payload. A compile-error
// becomes a compile failure, a run-complete becomes a compile success with a
// run that succeeded only when the exit code is zero AND stderr is blank. The
// program output is never scanned for error words on this path.
//
// elapsedMs is used as the compile time when the daemon did not report one.
func (n Normalizer) NormalizeStructured(payload *StructuredPayload, elapsedMs int64) *Outcome {
	compileTime := elapsedMs
	if payload.CompileTimeMs != nil && *payload.CompileTimeMs >= 0 {
		compileTime = *payload.CompileTimeMs
	}

	if payload.Terminal == terminalCompileError {
		return &Outcome{
			Backend: backend.Primary,
			Compile: &CompileFailure{
				Diagnostics:   ParseDiagnostics(payload.Message, n.Translator),
				RawStderr:     payload.Message,
				CompileTimeMs: compileTime,
			},
		}
	}

	outcome := &Outcome{
		Backend: backend.Primary,
		Compile: &CompileSuccess{CompileTimeMs: compileTime},
	}

	stdout := payload.Output
	if stdout == "" {
		stdout = payload.StreamedStdout
	}

	stderr := payload.Error
	if stderr == "" {
		stderr = payload.StreamedStderr
	}

	exitCode := 1
	switch {
	case payload.ExitCode != nil:
		exitCode = *payload.ExitCode
	case payload.Success:
		exitCode = 0
	}

	if exitCode != 0 || strings.TrimSpace(stderr) != "" {
		outcome.Run = FailedRun(n.runErrorText(stderr, exitCode))
		return outcome
	}

	run := SucceededRun(CleanProgramOutput(stdout), stderr)

	if payload.RunTimeMs != nil && *payload.RunTimeMs >= 0 {
		run.TimeMs = Float64(*payload.RunTimeMs)
	}

	if payload.MemoryBytes != nil && *payload.MemoryBytes > 0 {
		run.MemoryBytes = Int64(*payload.MemoryBytes)
	}

	outcome.Run = run
	return outcome
}

// NormalizeConsole converts a sandbox payload. Success or failure is decided by
// ClassifyRawOutput over the original console text. On failure the console
// output is discarded and only the cleaned error text survives, as a compile
// failure when the toolchain stopped before running the program or the text
// holds located compiler diagnostics, as a failed run otherwise.
func (n Normalizer) NormalizeConsole(payload *ConsolePayload, elapsedMs int64) *Outcome {
	classification := ClassifyRawOutput(payload.Console, RawFlags{
		HasError: payload.HasError,
		Stderr:   payload.Stderr,
	})

	if classification == Failed {
		errorText := cleanToolchainErrorText(payload.Console + "\n" + payload.Stderr)

		if errorText == "" {
			errorText = "Error: the sandbox toolchain reported a failure without any output."
		}

		if payload.Stage == StageCompile || payload.Stage == StageLink || HasLocatedDiagnostic(errorText) {
			return &Outcome{
				Backend: backend.Sandbox,
				Compile: &CompileFailure{
					Diagnostics:   ParseDiagnostics(errorText, n.Translator),
					RawStderr:     errorText,
					CompileTimeMs: elapsedMs,
				},
			}
		}

		return &Outcome{
			Backend: backend.Sandbox,
			Compile: &CompileSuccess{CompileTimeMs: elapsedMs},
			Run:     FailedRun(n.Translator.Translate(errorText)),
		}
	}

	run := SucceededRun(CleanConsoleOutput(payload.Console), "")

	if payload.RunTimeMs > 0 {
		run.TimeMs = Float64(payload.RunTimeMs)
	}

	if payload.MemoryBytes > 0 {
		run.MemoryBytes = Int64(payload.MemoryBytes)
	}

	return &Outcome{
		Backend: backend.Sandbox,
		Compile: &CompileSuccess{CompileTimeMs: elapsedMs},
		Run:     run,
	}
}

func (n Normalizer) runErrorText(stderr string, exitCode int) string {
	text := CleanErrorText(stderr)

	if text == "" {
		text = strings.TrimSpace(StripANSI(stderr))
	}

	if text == "" {
		text = fmt.Sprintf("Error: process exited with code %d.", exitCode)
	}

	return n.Translator.Translate(text)
}
