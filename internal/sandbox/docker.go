package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/docker"
)

const (
	DefaultToolchainImage = "scratchpad_toolchain_wasi"

	workspaceMount = "/workspace"
)

//go:generate mockgen -destination=mocks/docker.go -package=mocks cpp-scratchpad/internal/sandbox DockerAPI

// DockerAPI is the part of the docker client the toolchain uses.
type DockerAPI interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerExecCreate(ctx context.Context, containerID string, config types.ExecConfig) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, config types.ExecStartCheck) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (types.ContainerExecInspect, error)
}

type DockerToolchainParams struct {
	// The image holding clang++, wasm-ld and wasmtime, built by the
	// toolchain-builder tool.
	Image string
	// The host directory bind mounted into the container as the workspace.
	Dir string
	// The resource limits and runtime of the container.
	Profile *Profile
	// The docker daemon configuration consulted for the requested runtime.
	DaemonConfigPath string
	// Bounds each compile and link step. Zero means no bound.
	StepTimeout time.Duration
}

// DockerToolchain runs clang++ targeting wasm32-wasi inside one long-lived
// container with networking disabled, and runs the produced module with
// wasmtime in the same container.
type DockerToolchain struct {
	api    DockerAPI
	params DockerToolchainParams

	console     io.Writer
	containerID string
}

func NewDockerToolchain(api DockerAPI, params DockerToolchainParams) *DockerToolchain {
	if params.Image == "" {
		params.Image = DefaultToolchainImage
	}

	if params.DaemonConfigPath == "" {
		params.DaemonConfigPath = docker.DefaultDaemonConfigPath
	}

	if params.Dir == "" {
		params.Dir = filepath.Join(os.TempDir(), "scratchpad", uuid.NewString())
	}

	return &DockerToolchain{api: api, params: params}
}

func (d *DockerToolchain) Dir() string { return d.params.Dir }

// Prepare creates the workspace and starts the toolchain container.
func (d *DockerToolchain) Prepare(ctx context.Context, console io.Writer) error {
	d.console = console

	if err := os.MkdirAll(d.params.Dir, 0o750); err != nil {
		return errors.Wrap(err, "failed to make workspace directory")
	}

	d.banner(fmt.Sprintf("Starting toolchain container %s...", d.params.Image))

	hostConfig := &container.HostConfig{
		Runtime: docker.ResolveRuntime(d.params.DaemonConfigPath, d.params.Profile.Runtime.String()),
		Binds:   []string{fmt.Sprintf("%s:%s", docker.HostPath(d.params.Dir), workspaceMount)},
		Resources: container.Resources{
			Memory:     d.params.Profile.Memory.Bytes(),
			MemorySwap: d.params.Profile.MemorySwap.Bytes(),
		},
		AutoRemove: true,
	}

	if d.params.Profile.PidsLimit > 0 {
		hostConfig.Resources.PidsLimit = &d.params.Profile.PidsLimit
	}

	create, err := d.api.ContainerCreate(ctx,
		&container.Config{
			Image:           d.params.Image,
			Entrypoint:      []string{"sleep", "infinity"},
			NetworkDisabled: true,
			WorkingDir:      workspaceMount,
		},
		hostConfig,
		nil,
		nil,
		"scratchpad-"+uuid.NewString(),
	)

	if err != nil {
		return errors.Wrap(err, "failed to create toolchain container")
	}

	d.containerID = create.ID

	if err := d.api.ContainerStart(ctx, d.containerID, container.StartOptions{}); err != nil {
		return errors.Wrap(err, "failed to start toolchain container")
	}

	_, _ = io.WriteString(d.console, " done.\n")

	log.Info().
		Str("containerID", shortID(d.containerID)).
		Str("image", d.params.Image).
		Str("runtime", hostConfig.Runtime).
		Msg("toolchain container started")

	return nil
}

func (d *DockerToolchain) Compile(ctx context.Context, sourceFile, contents, objFile string) error {
	if err := os.WriteFile(filepath.Join(d.params.Dir, sourceFile), []byte(contents), 0o640); err != nil {
		return errors.Wrap(err, "failed to write source file")
	}

	ctx, cancel := d.stepContext(ctx)
	defer cancel()

	_, err := d.exec(ctx, "", "clang++", "--target=wasm32-wasi", "-std=c++11", "-O0",
		"-fno-exceptions", "-c", "-o", objFile, "-x", "c++", sourceFile)

	return err
}

func (d *DockerToolchain) Link(ctx context.Context, objFile, wasmOutput string) error {
	ctx, cancel := d.stepContext(ctx)
	defer cancel()

	_, err := d.exec(ctx, "", "wasm-ld", "-z", fmt.Sprintf("stack-size=%d", 8*1024*1024),
		"-L/opt/wasi-sysroot/lib/wasm32-wasi", "/opt/wasi-sysroot/lib/wasm32-wasi/crt1.o",
		objFile, "-lc", "-lc++", "-lc++abi", "-o", wasmOutput)

	return err
}

// Run executes the module with wasmtime, args are the program arguments with
// the module name first.
func (d *DockerToolchain) Run(ctx context.Context, module, stdin string, args ...string) (*Execution, error) {
	cmd := append([]string{"wasmtime", "run", module, "--"}, argsAfterName(args)...)

	start := time.Now()
	exitCode, err := d.exec(ctx, stdin, cmd...)

	if err != nil {
		return nil, err
	}

	_, _ = io.WriteString(d.console, "\n")

	return &Execution{ExitCode: exitCode, Duration: time.Since(start)}, nil
}

// Close removes the container, the workspace files stay for inspection until
// the next Prepare overwrites them.
func (d *DockerToolchain) Close(ctx context.Context) error {
	if d.containerID == "" {
		return nil
	}

	id := d.containerID
	d.containerID = ""

	if err := d.api.ContainerRemove(ctx, id, container.RemoveOptions{Force: true}); err != nil {
		return errors.Wrap(err, "failed to remove toolchain container")
	}

	return nil
}

// exec echoes and runs the command inside the container, streaming both of its
// output streams to the console, and returns its exit code.
func (d *DockerToolchain) exec(ctx context.Context, stdin string, cmd ...string) (int, error) {
	if d.containerID == "" {
		return 0, errors.New("toolchain container is not running")
	}

	d.banner(strings.Join(cmd, " ") + "\n")

	created, err := d.api.ContainerExecCreate(ctx, d.containerID, types.ExecConfig{
		Cmd:          cmd,
		WorkingDir:   workspaceMount,
		AttachStdin:  stdin != "",
		AttachStdout: true,
		AttachStderr: true,
	})

	if err != nil {
		return 0, errors.Wrapf(err, "failed to create exec for %s", cmd[0])
	}

	attach, err := d.api.ContainerExecAttach(ctx, created.ID, types.ExecStartCheck{})

	if err != nil {
		return 0, errors.Wrapf(err, "failed to attach to exec for %s", cmd[0])
	}

	defer attach.Close()

	if stdin != "" {
		if _, err := io.WriteString(attach.Conn, stdin); err != nil {
			return 0, errors.Wrap(err, "failed to write standard input")
		}

		_ = attach.CloseWrite()
	}

	copied := make(chan error, 1)

	go func() {
		_, err := stdcopy.StdCopy(d.console, d.console, attach.Reader)
		copied <- err
	}()

	select {
	case err := <-copied:
		if err != nil {
			return 0, errors.Wrap(err, "failed to read exec output")
		}
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	inspect, err := d.api.ContainerExecInspect(ctx, created.ID)

	if err != nil {
		return 0, errors.Wrap(err, "failed to inspect exec")
	}

	return inspect.ExitCode, nil
}

func (d *DockerToolchain) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.params.StepTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, d.params.StepTimeout)
}

func (d *DockerToolchain) banner(message string) {
	_, _ = fmt.Fprintf(d.console, "\x1b[1;93m>\x1b[0m %s", message)
}

func argsAfterName(args []string) []string {
	if len(args) <= 1 {
		return nil
	}

	return args[1:]
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}

	return id
}
