package result

import (
	"strings"
)

type Classification int

const (
	Succeeded Classification = iota
	Failed
)

func (c Classification) String() string {
	if c == Failed {
		return "failed"
	}

	return "succeeded"
}

// RawFlags are the signals that accompany raw console output from the sandbox.
type RawFlags struct {
	// HasError is the error flag of the terminal message. It is not trusted on
	// its own since it is sometimes inconsistent with the console content.
	HasError bool
	// Stderr holds every chunk the toolchain reported as error output.
	Stderr string
}

// ClassifyRawOutput decides whether raw sandbox console text describes a
// successful run. The content is always scanned for error markers, whatever the
// flag says, and any non blank error output is a failure.
func ClassifyRawOutput(text string, flags RawFlags) Classification {
	if flags.HasError {
		return Failed
	}

	if strings.TrimSpace(flags.Stderr) != "" {
		return Failed
	}

	if strings.Contains(text, "error:") || strings.Contains(text, "Error:") {
		return Failed
	}

	if generatedPattern.MatchString(text) {
		return Failed
	}

	return Succeeded
}
