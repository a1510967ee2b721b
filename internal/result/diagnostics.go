package result

import (
	"regexp"
	"strconv"
	"strings"
)

// diagnosticPattern matches `<file>:<line>:<col>: (error|warning): <message>`.
var diagnosticPattern = regexp.MustCompile(`(?m)([^\s:]+):(\d+):(\d+):\s*(error|warning):\s*(.+)$`)

// ParseDiagnostics extracts every located diagnostic from compiler output, in
// the order the compiler emitted them. When nothing matches, a single
// diagnostic at 1:1 carries the complete raw message so that an unparseable
// error is never dropped.
func ParseDiagnostics(message string, translator *Translator) []Diagnostic {
	matches := diagnosticPattern.FindAllStringSubmatch(message, -1)

	if len(matches) == 0 {
		return []Diagnostic{{
			Line:     1,
			Column:   1,
			Message:  translator.Translate(message),
			Severity: SeverityError,
		}}
	}

	diagnostics := make([]Diagnostic, 0, len(matches))

	for _, match := range matches {
		diagnostics = append(diagnostics, Diagnostic{
			Line:     parsePosition(match[2]),
			Column:   parsePosition(match[3]),
			Message:  translator.Translate(strings.TrimSpace(match[5])),
			Severity: Severity(match[4]),
		})
	}

	return diagnostics
}

// HasLocatedDiagnostic reports whether the text contains at least one
// compiler diagnostic with a file position.
func HasLocatedDiagnostic(text string) bool {
	return diagnosticPattern.MatchString(text)
}

func parsePosition(value string) uint {
	position, err := strconv.ParseUint(value, 10, 32)

	if err != nil || position == 0 {
		return 1
	}

	return uint(position)
}
