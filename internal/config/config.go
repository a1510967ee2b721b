// Package config resolves the environment the binaries run in and the compiler
// profile of the daemon.
package config

import (
	"os"
	"runtime"
	"strings"
	"sync"
)

const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"

	// EnvironmentVariable selects the environment, anything unknown is
	// treated as development.
	EnvironmentVariable = "SCRATCHPAD_ENVIRONMENT"
)

var (
	environment     string
	environmentOnce sync.Once
)

// Environment returns the environment named by SCRATCHPAD_ENVIRONMENT. The
// variable is read once per process.
func Environment() string {
	environmentOnce.Do(func() {
		environment = parseEnvironment(os.Getenv(EnvironmentVariable))
	})

	return environment
}

// IsDevelopment reports whether debug logging and local collaborators apply.
func IsDevelopment() bool {
	return Environment() == Development
}

// OperatingSystem returns windows or linux, mac hosts count as linux since
// docker runs them inside a linux virtual machine.
func OperatingSystem() string {
	if strings.EqualFold(runtime.GOOS, "windows") {
		return "windows"
	}

	return "linux"
}

func parseEnvironment(value string) string {
	switch value = strings.ToLower(strings.TrimSpace(value)); value {
	case Staging, Production, Development:
		return value
	default:
		return Development
	}
}
