package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// CompilerProfile describes how the daemon compiles and runs a program. The
// command lines are split like a shell would and may reference {source},
// {binary} and {dir}.
type CompilerProfile struct {
	Compile string `yaml:"compile"`
	Run     string `yaml:"run"`

	CompileTimeout time.Duration `yaml:"compileTimeout"`
	RunTimeout     time.Duration `yaml:"runTimeout"`

	// Program output beyond this many bytes per stream is dropped.
	MaxOutputBytes int `yaml:"maxOutputBytes"`

	// TempDir holds the source files and binaries while requests are in
	// flight. Files older than CleanupAge are removed every CleanupInterval.
	TempDir         string        `yaml:"tempDir"`
	CleanupInterval time.Duration `yaml:"cleanupInterval"`
	CleanupAge      time.Duration `yaml:"cleanupAge"`
}

func DefaultCompilerProfile() *CompilerProfile {
	return &CompilerProfile{
		Compile:         "clang++ -std=c++11 {source} -o {binary}",
		Run:             "{binary}",
		CompileTimeout:  time.Second * 10,
		RunTimeout:      time.Second * 5,
		MaxOutputBytes:  1024 * 1024,
		TempDir:         filepath.Join(os.TempDir(), "scratchpad-daemon"),
		CleanupInterval: time.Hour,
		CleanupAge:      time.Hour,
	}
}

// LoadCompilerProfile reads a YAML profile, every field it leaves out keeps
// its default. An empty path returns the defaults.
func LoadCompilerProfile(path string) (*CompilerProfile, error) {
	profile := DefaultCompilerProfile()

	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)

	if err != nil {
		return nil, errors.Wrapf(err, "failed to read compiler profile %s", path)
	}

	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, errors.Wrapf(err, "failed to parse compiler profile %s", path)
	}

	if profile.Compile == "" || profile.Run == "" {
		return nil, errors.Errorf("compiler profile %s needs both a compile and a run command", path)
	}

	return profile, nil
}
