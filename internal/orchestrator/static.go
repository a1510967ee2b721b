package orchestrator

import (
	"strings"

	"cpp-scratchpad/internal/backend"
	"cpp-scratchpad/internal/result"
)

const (
	unbalancedBraces      = "missing matching brace"
	unbalancedParentheses = "missing matching parenthesis"
)

// StaticCheck is the last resort when no compiler backend is reachable. An
// unbalanced source fails to compile, a balanced one is a degraded success
// whose program never ran.
func StaticCheck(source string, translator *result.Translator, elapsedMs int64) *result.Outcome {
	diagnostics := CheckBalance(source)

	if len(diagnostics) > 0 {
		messages := make([]string, 0, len(diagnostics))

		for i := range diagnostics {
			diagnostics[i].Message = translator.Translate(diagnostics[i].Message)
			messages = append(messages, diagnostics[i].Message)
		}

		return &result.Outcome{
			Backend: backend.StaticCheck,
			Compile: &result.CompileFailure{
				Diagnostics:   diagnostics,
				RawStderr:     strings.Join(messages, "\n"),
				CompileTimeMs: elapsedMs,
			},
		}
	}

	return &result.Outcome{
		Backend: backend.StaticCheck,
		Compile: &result.CompileSuccess{CompileTimeMs: elapsedMs, Degraded: true},
		Run:     result.SucceededRun(result.CompiledPlaceholder, ""),
	}
}

// CheckBalance counts braces and parentheses outside of string and character
// literals. Every imbalance is reported at the first column of the last line.
// A quote preceded by a backslash does not open or close a literal.
func CheckBalance(source string) []result.Diagnostic {
	lines := strings.Split(source, "\n")

	var (
		braces, parentheses int
		quote               byte
	)

	for _, line := range lines {
		for i := 0; i < len(line); i++ {
			char := line[i]

			if (char == '"' || char == '\'') && (i == 0 || line[i-1] != '\\') {
				switch quote {
				case 0:
					quote = char
				case char:
					quote = 0
				}

				continue
			}

			if quote != 0 {
				continue
			}

			switch char {
			case '{':
				braces++
			case '}':
				braces--
			case '(':
				parentheses++
			case ')':
				parentheses--
			}
		}
	}

	var diagnostics []result.Diagnostic

	if braces != 0 {
		diagnostics = append(diagnostics, imbalance(len(lines), unbalancedBraces))
	}

	if parentheses != 0 {
		diagnostics = append(diagnostics, imbalance(len(lines), unbalancedParentheses))
	}

	return diagnostics
}

func imbalance(line int, message string) result.Diagnostic {
	return result.Diagnostic{
		Line:     uint(line),
		Column:   1,
		Message:  message,
		Severity: result.SeverityError,
	}
}
