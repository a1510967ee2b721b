package terminal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"cpp-scratchpad/internal/memory"
	"cpp-scratchpad/internal/result"
)

// DegradedNotice precedes the output of a success that no compiler vouched for.
const DegradedNotice = "No compiler backend is available, only the balance of braces and parentheses was checked. The program was not run."

// Render presents one outcome. A failure clears the terminal and shows a
// single error block. A success shows the output followed by the summary line
// and, unless the run is part of an interactive loop, the complete message.
func Render(p Presenter, outcome *result.Outcome, interactive bool) error {
	if failure, ok := outcome.Compile.(*result.CompileFailure); ok {
		return send(p, ClearMessage(), ErrorMessage(FormatDiagnostics(failure.Diagnostics)))
	}

	run := outcome.Run

	if run == nil {
		return errors.New("successful compile carries no run")
	}

	if !run.Success {
		return send(p, ClearMessage(), ErrorMessage("error: "+run.Stderr))
	}

	var messages []Message

	if outcome.Degraded() {
		messages = append(messages, InfoMessage(DegradedNotice))
	}

	messages = append(messages, OutputMessage(run.Stdout))

	if summary := Summary(run); summary != "" {
		messages = append(messages, OutputMessage(summary))
	}

	if !interactive {
		complete := Message{Type: Complete, Memory: run.MemoryBytes}

		if run.TimeMs != nil {
			seconds := Seconds(*run.TimeMs)
			complete.Time = &seconds
		}

		messages = append(messages, complete)
	}

	return send(p, messages...)
}

// FormatDiagnostics joins the diagnostics of a failed compile into one block,
// one `line:column: severity: message` line each.
func FormatDiagnostics(diagnostics []result.Diagnostic) string {
	lines := make([]string, 0, len(diagnostics))

	for _, diagnostic := range diagnostics {
		lines = append(lines, fmt.Sprintf("%d:%d: %s: %s",
			diagnostic.Line, diagnostic.Column, diagnostic.Severity, diagnostic.Message))
	}

	return strings.Join(lines, "\n")
}

// Summary is the statistics line shown below the program output, empty when
// the run has no statistics at all.
func Summary(run *result.RunResult) string {
	var summary strings.Builder

	if run.TimeMs != nil {
		fmt.Fprintf(&summary, "\nrun time: %s s", strconv.FormatFloat(Seconds(*run.TimeMs), 'f', 3, 64))
	}

	if run.MemoryBytes != nil {
		fmt.Fprintf(&summary, "\nmemory: %s", memory.Memory(*run.MemoryBytes))
	}

	return summary.String()
}

// Seconds converts milliseconds to seconds rounded to three decimals.
func Seconds(ms float64) float64 {
	return math.Round(ms) / 1000
}

func send(p Presenter, messages ...Message) error {
	for _, message := range messages {
		if err := p.Send(message); err != nil {
			return errors.Wrapf(err, "failed to send %s", message.Type)
		}
	}

	return nil
}
