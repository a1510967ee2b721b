package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpp-scratchpad/internal/primary"
	"cpp-scratchpad/internal/sandbox"
)

func TestParseDaemonArguments(t *testing.T) {
	t.Run("should use the defaults", func(t *testing.T) {
		args, err := ParseDaemonArguments(nil)

		require.NoError(t, err)
		assert.Equal(t, 3000, args.Port)
		assert.Equal(t, "executions", args.NsqTopic)
		assert.Empty(t, args.DatabaseConn)
	})

	t.Run("should read the flags", func(t *testing.T) {
		args, err := ParseDaemonArguments([]string{"-port", "8080", "-nsq-address", "nsqd", "-force-local-mode"})

		require.NoError(t, err)
		assert.Equal(t, 8080, args.Port)
		assert.Equal(t, "nsqd", args.NsqAddress)
		assert.True(t, args.ForceLocalMode)
	})

	t.Run("should reject an invalid port", func(t *testing.T) {
		_, err := ParseDaemonArguments([]string{"-port", "70000"})
		assert.Error(t, err)
	})
}

func TestParseScratchpadArguments(t *testing.T) {
	t.Run("should read the program from stdin by default", func(t *testing.T) {
		args, err := ParseScratchpadArguments(nil)

		require.NoError(t, err)
		assert.Equal(t, "-", args.SourcePath)
		assert.Empty(t, args.FileName)
		assert.Equal(t, primary.DefaultURL, args.PrimaryURL)
		assert.Equal(t, sandbox.DefaultToolchainImage, args.SandboxImage)
		assert.True(t, args.SandboxEnabled)
	})

	t.Run("should name diagnostics after the source file", func(t *testing.T) {
		args, err := ParseScratchpadArguments([]string{"-stdin", "3", "-sandbox-run-ceiling", "20s", "examples/sum.cpp"})

		require.NoError(t, err)
		assert.Equal(t, "examples/sum.cpp", args.SourcePath)
		assert.Equal(t, "sum.cpp", args.FileName)
		assert.Equal(t, "3", args.Stdin)
		assert.Equal(t, time.Second*20, args.SandboxRunCeiling)
	})

	t.Run("should reject more than one source", func(t *testing.T) {
		_, err := ParseScratchpadArguments([]string{"a.cpp", "b.cpp"})
		assert.Error(t, err)
	})
}
