package docker

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type daemonConfig struct {
	Runtimes map[string]struct {
		Path string `json:"path"`
	} `json:"runtimes"`
}

const (
	GVisorRuntime = "runsc"

	DefaultDaemonConfigPath = "/etc/docker/daemon.json"
)

// IsRuntimeInstalled reports whether the docker daemon configuration at path
// registers the named runtime.
func IsRuntimeInstalled(path, runtime string) bool {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false
	}

	fileBytes, err := os.ReadFile(path)

	if err != nil {
		log.Err(err).Str("path", path).Msg("failed to read daemon file but it exists")
		return false
	}

	daemon := &daemonConfig{}

	if err := json.Unmarshal(fileBytes, daemon); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("docker daemon file is not valid json")
		return false
	}

	_, ok := daemon.Runtimes[runtime]
	return ok
}

func IsGvisorInstalled() bool {
	return IsRuntimeInstalled(DefaultDaemonConfigPath, GVisorRuntime)
}

// ResolveRuntime returns the requested container runtime when the daemon
// knows it, otherwise the daemon default (an empty name).
func ResolveRuntime(path, requested string) string {
	if requested == "" || IsRuntimeInstalled(path, requested) {
		return requested
	}

	log.Warn().Str("runtime", requested).Msg("container runtime not installed, using the docker default")
	return ""
}

// HostPath converts a local path into the absolute form docker accepts for a
// bind mount. Windows drive paths such as C:\a\b become /c/a/b.
func HostPath(path string) string {
	if drive, rest, found := strings.Cut(path, ":"); found && len(drive) == 1 {
		return strings.ReplaceAll(fmt.Sprintf("/%s%s", strings.ToLower(drive), rest), "\\", "/")
	}

	abs, err := filepath.Abs(path)

	if err != nil {
		return filepath.ToSlash(path)
	}

	return filepath.ToSlash(abs)
}
