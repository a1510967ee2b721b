// Package app wires the backends, the translator and the orchestrator of one
// scratchpad session together. Everything a host needs is reachable from the
// Context, nothing is kept in package state.
package app

import (
	"github.com/docker/docker/client"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/config"
	"cpp-scratchpad/internal/orchestrator"
	"cpp-scratchpad/internal/parser"
	"cpp-scratchpad/internal/primary"
	"cpp-scratchpad/internal/result"
	"cpp-scratchpad/internal/sandbox"
)

type Context struct {
	Primary *primary.Client
	// Sandbox is nil when the sandbox is disabled or docker is unreachable.
	Sandbox      *sandbox.Client
	Translator   *result.Translator
	Orchestrator *orchestrator.Orchestrator

	docker *client.Client
}

// New builds the session. No connection is made until the orchestrator is
// initialized.
func New(args *parser.ScratchpadArguments) (*Context, error) {
	translator, err := result.NewTranslator(args.Locale)

	if err != nil {
		return nil, errors.Wrap(err, "failed to create translator")
	}

	c := &Context{
		Primary:    primary.New(args.PrimaryURL),
		Translator: translator,
	}

	if args.SandboxEnabled {
		c.newSandbox(args)
	}

	var sandboxBackend orchestrator.SandboxBackend

	if c.Sandbox != nil {
		sandboxBackend = c.Sandbox
	}

	c.Orchestrator = orchestrator.New(c.Primary, sandboxBackend, orchestrator.WithTranslator(translator))

	return c, nil
}

func (c *Context) newSandbox(args *parser.ScratchpadArguments) {
	dockerClient, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())

	if err != nil {
		log.Warn().Err(err).Msg("docker is unavailable, the sandbox is disabled")
		return
	}

	profile := sandbox.ProfileFor(config.Environment(), config.OperatingSystem())

	log.Debug().
		Str("image", args.SandboxImage).
		Str("runtime", profile.Runtime.String()).
		Str("memory", profile.Memory.String()).
		Msg("sandbox profile")

	toolchain := sandbox.NewDockerToolchain(dockerClient, sandbox.DockerToolchainParams{
		Image:            args.SandboxImage,
		Profile:          profile,
		DaemonConfigPath: args.DockerConfigPath,
	})

	c.docker = dockerClient
	c.Sandbox = sandbox.New(toolchain, sandbox.WithRunCeiling(args.SandboxRunCeiling))
}

// Close releases the backends.
func (c *Context) Close() error {
	if err := c.Primary.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close primary backend")
	}

	if c.Sandbox != nil {
		_ = c.Sandbox.Close()
	}

	if c.docker != nil {
		return errors.Wrap(c.docker.Close(), "failed to close docker client")
	}

	return nil
}
