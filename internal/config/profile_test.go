package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	return path
}

func TestLoadCompilerProfile(t *testing.T) {
	t.Run("should return the defaults without a path", func(t *testing.T) {
		profile, err := LoadCompilerProfile("")

		require.NoError(t, err)
		assert.Equal(t, DefaultCompilerProfile(), profile)
		assert.Equal(t, time.Second*10, profile.CompileTimeout)
		assert.Equal(t, time.Second*5, profile.RunTimeout)
	})

	t.Run("should override only the given fields", func(t *testing.T) {
		path := writeProfile(t, "compile: g++ -std=c++17 {source} -o {binary}\nrunTimeout: 2s\n")

		profile, err := LoadCompilerProfile(path)

		require.NoError(t, err)
		assert.Equal(t, "g++ -std=c++17 {source} -o {binary}", profile.Compile)
		assert.Equal(t, "{binary}", profile.Run)
		assert.Equal(t, time.Second*2, profile.RunTimeout)
		assert.Equal(t, time.Second*10, profile.CompileTimeout)
	})

	t.Run("should reject an empty command", func(t *testing.T) {
		_, err := LoadCompilerProfile(writeProfile(t, "run: \"\"\n"))
		assert.ErrorContains(t, err, "needs both a compile and a run command")
	})

	t.Run("should reject malformed yaml", func(t *testing.T) {
		_, err := LoadCompilerProfile(writeProfile(t, "compile: [\n"))
		assert.ErrorContains(t, err, "failed to parse compiler profile")
	})

	t.Run("should fail for a missing file", func(t *testing.T) {
		_, err := LoadCompilerProfile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "failed to read compiler profile")
	})
}
