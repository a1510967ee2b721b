package daemon

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	tempSourcePattern = regexp.MustCompile(`temp_[0-9]+\.cpp`)
	// an absolute directory prefix, include paths of system headers included.
	directoryPattern = regexp.MustCompile(`(?:/[^/\s:'"]+)+/`)
)

// RewriteDiagnostics makes compiler output refer to the file name the user
// knows instead of the temp file it was compiled from, and removes every host
// directory from it.
func RewriteDiagnostics(text, tempDir, fileName string) string {
	text = strings.ReplaceAll(text, filepath.ToSlash(tempDir)+"/", "")
	text = tempSourcePattern.ReplaceAllLiteralString(text, fileName)

	return directoryPattern.ReplaceAllString(text, "")
}
