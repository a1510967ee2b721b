package result

import (
	"regexp"
	"strings"
)

// CompiledPlaceholder is shown when a successful run produced no output, stdout
// is never silently empty after a successful run.
const CompiledPlaceholder = "Program compiled successfully!"

var (
	ansiPattern        = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)
	placeholderPattern = regexp.MustCompile(`<U\+[0-9A-Fa-f]+>`)
	promptPattern      = regexp.MustCompile(`(?m)^[ \t]*>+[ \t]?`)

	// Toolchain chrome written to the console around the program output.
	bannerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^[ \t]*>.*$`),
		regexp.MustCompile(`(?m)^.*Fetching and compiling .*$`),
		regexp.MustCompile(`(?m)^.*Untarring .*$`),
		regexp.MustCompile(`(?m)^.*clang(?:\+\+)? -cc1.*$`),
		regexp.MustCompile(`(?m)^.*clang\+\+ .*-o .*$`),
		regexp.MustCompile(`(?m)^.*wasm-ld.*$`),
		regexp.MustCompile(`(?m)^\S+\.wasm$`),
	}

	// Compiler chrome that can leak into the console of a run.
	errorChromePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\S+\.(?:cc|cpp|cxx):\d+:\d+: error:.*$`),
		regexp.MustCompile(`(?m)^[ \t~]*\^[~^ \t]*$`),
		regexp.MustCompile(`(?m)^\d+ (?:warnings?|errors?)(?: and \d+ errors?)? generated\.$`),
		regexp.MustCompile(`(?m)^Error: process exited with code \d+\.$`),
	}

	// A located compiler message, usually followed by the echoed source line
	// and its underline.
	diagnosticHeaderPattern = regexp.MustCompile(`^\S+\.(?:cc|cpp|cxx|c|h|hpp):\d+:\d+: (?:fatal error|error|warning|note):`)
	underlinePattern        = regexp.MustCompile(`^[ \t~]*\^[~^ \t]*$`)

	generatedPattern = regexp.MustCompile(`\d+ errors? generated`)
	locationPattern  = regexp.MustCompile(`\.(?:cc|cpp|cxx|c|h|hpp):\d+`)
)

// toolchainMarkers exclude a line from the recovery pass over raw output.
var toolchainMarkers = []string{
	"Fetching and compiling",
	"Untarring",
	"clang -cc1",
	"clang++ ",
	"wasm-ld",
	".wasm",
	"error:",
	"Error:",
	"^",
	"errors generated",
	"error generated",
	"process exited with code",
}

// errorKeywords keep a line in a user facing error block, anything else is
// treated as interleaved program output.
var errorKeywords = []string{
	"error:",
	"Error:",
	"warning:",
	"note:",
	"fatal",
	"process exited with code",
	"expected",
	"at end of",
	"expression",
	"declaration",
	"undefined reference",
	"Segmentation fault",
	"terminate called",
}

// StripANSI removes terminal color and cursor escape sequences.
func StripANSI(text string) string {
	return ansiPattern.ReplaceAllString(text, "")
}

// CleanConsoleOutput reduces raw interleaved toolchain console text to the
// program output. Banner and build-step lines, escapes, encoded character
// placeholders, prompt prefixes and blank lines are removed and every line is
// trimmed. When that leaves nothing, the original text is scanned again line by
// line for anything that is not toolchain chrome, and as a last resort the
// compiled placeholder is returned.
func CleanConsoleOutput(raw string) string {
	output := stripDiagnosticBlocks(normalizeNewlines(StripANSI(raw)))

	for _, pattern := range bannerPatterns {
		output = pattern.ReplaceAllString(output, "")
	}

	for _, pattern := range errorChromePatterns {
		output = pattern.ReplaceAllString(output, "")
	}

	output = promptPattern.ReplaceAllString(output, "")
	output = placeholderPattern.ReplaceAllString(output, "")
	output = trimLines(output)

	if output != "" {
		return output
	}

	if recovered := recoverProgramOutput(raw); recovered != "" {
		return recovered
	}

	return CompiledPlaceholder
}

// CleanProgramOutput is the lighter cleaning applied to output that is known
// to come from the program alone, as reported by the primary backend.
func CleanProgramOutput(output string) string {
	output = trimLines(placeholderPattern.ReplaceAllString(StripANSI(normalizeNewlines(output)), ""))

	if output == "" {
		return CompiledPlaceholder
	}

	return output
}

// CleanErrorText keeps only the lines of an error text that carry an error
// marker, dropping interleaved program output.
func CleanErrorText(text string) string {
	lines := strings.Split(normalizeNewlines(StripANSI(text)), "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if isErrorLine(line) {
			kept = append(kept, strings.TrimRight(line, " \t"))
		}
	}

	return strings.Join(kept, "\n")
}

// cleanToolchainErrorText removes invocation echoes, banners and prompts from
// raw console text before the error lines are picked out of it.
func cleanToolchainErrorText(raw string) string {
	text := normalizeNewlines(StripANSI(raw))

	for _, pattern := range bannerPatterns {
		text = pattern.ReplaceAllString(text, "")
	}

	text = promptPattern.ReplaceAllString(text, "")
	text = placeholderPattern.ReplaceAllString(text, "")

	if cleaned := CleanErrorText(text); cleaned != "" {
		return cleaned
	}

	return trimLines(text)
}

func isErrorLine(line string) bool {
	if generatedPattern.MatchString(line) || locationPattern.MatchString(line) {
		return true
	}

	for _, keyword := range errorKeywords {
		if strings.Contains(line, keyword) {
			return true
		}
	}

	return false
}

func recoverProgramOutput(raw string) string {
	var recovered []string

	for _, line := range strings.Split(stripDiagnosticBlocks(normalizeNewlines(StripANSI(raw))), "\n") {
		if strings.TrimSpace(line) == "" || hasToolchainMarker(line) {
			continue
		}

		line = placeholderPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(line)

		if line != "" {
			recovered = append(recovered, line)
		}
	}

	return strings.Join(recovered, "\n")
}

// stripDiagnosticBlocks removes located compiler messages, warnings and notes
// of a successful build included, together with the source line and underline
// printed below them.
func stripDiagnosticBlocks(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for i := 0; i < len(lines); i++ {
		if !diagnosticHeaderPattern.MatchString(lines[i]) {
			kept = append(kept, lines[i])
			continue
		}

		switch {
		case i+2 < len(lines) && underlinePattern.MatchString(lines[i+2]):
			i += 2
		case i+1 < len(lines) && underlinePattern.MatchString(lines[i+1]):
			i++
		}
	}

	return strings.Join(kept, "\n")
}

func hasToolchainMarker(line string) bool {
	if locationPattern.MatchString(line) {
		return true
	}

	for _, marker := range toolchainMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}

	return false
}

func trimLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}

	return strings.Join(kept, "\n")
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
