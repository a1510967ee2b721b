package sandbox

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"cpp-scratchpad/internal/memory"
	"cpp-scratchpad/internal/sandbox/mocks"
)

type DockerToolchainSuite struct {
	suite.Suite
	ctx       context.Context
	api       *mocks.MockDockerAPI
	toolchain *DockerToolchain
	console   *bytes.Buffer
}

func (s *DockerToolchainSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())

	s.ctx = context.Background()
	s.api = mocks.NewMockDockerAPI(ctrl)
	s.console = &bytes.Buffer{}
	s.toolchain = NewDockerToolchain(s.api, DockerToolchainParams{
		Dir:              s.T().TempDir(),
		DaemonConfigPath: "/nonexistent/daemon.json",
		Profile: &Profile{
			Runtime:   GVisor,
			Memory:    memory.Megabyte * 256,
			PidsLimit: 32,
		},
	})
}

func (s *DockerToolchainSuite) prepared() {
	s.api.EXPECT().
		ContainerCreate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Nil(), gomock.Nil(), gomock.Any()).
		Return(container.CreateResponse{ID: "0123456789abcdef"}, nil)
	s.api.EXPECT().
		ContainerStart(gomock.Any(), "0123456789abcdef", gomock.Any()).
		Return(nil)

	s.Require().NoError(s.toolchain.Prepare(s.ctx, s.console))
}

// hijacked returns an attach response whose output stream carries the given
// stdout and stderr in the docker multiplexed format.
func hijacked(stdout, stderr string) types.HijackedResponse {
	var stream bytes.Buffer

	if stdout != "" {
		_, _ = stdcopy.NewStdWriter(&stream, stdcopy.Stdout).Write([]byte(stdout))
	}

	if stderr != "" {
		_, _ = stdcopy.NewStdWriter(&stream, stdcopy.Stderr).Write([]byte(stderr))
	}

	local, remote := net.Pipe()

	go func() {
		_, _ = io.Copy(io.Discard, remote)
	}()

	return types.HijackedResponse{Conn: local, Reader: bufio.NewReader(&stream)}
}

func (s *DockerToolchainSuite) TestPrepare() {
	s.Run("should start an isolated container", func() {
		s.api.EXPECT().
			ContainerCreate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Nil(), gomock.Nil(), gomock.Any()).
			DoAndReturn(func(_ context.Context, config *container.Config, host *container.HostConfig, _, _ any, name string) (container.CreateResponse, error) {
				s.True(config.NetworkDisabled)
				s.Equal(DefaultToolchainImage, config.Image)
				s.Equal(workspaceMount, config.WorkingDir)

				// gVisor is not installed in the test daemon configuration
				s.Equal("", host.Runtime)
				s.Equal(int64(256*1024*1024), host.Resources.Memory)
				s.Equal(int64(32), *host.Resources.PidsLimit)
				s.Len(host.Binds, 1)
				s.True(strings.HasSuffix(host.Binds[0], ":"+workspaceMount))
				s.True(strings.HasPrefix(name, "scratchpad-"))

				return container.CreateResponse{ID: "0123456789abcdef"}, nil
			})
		s.api.EXPECT().ContainerStart(gomock.Any(), "0123456789abcdef", gomock.Any()).Return(nil)

		s.Require().NoError(s.toolchain.Prepare(s.ctx, s.console))
		s.Contains(s.console.String(), "Starting toolchain container")
	})

	s.Run("should fail when the container cannot be created", func() {
		s.api.EXPECT().
			ContainerCreate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Nil(), gomock.Nil(), gomock.Any()).
			Return(container.CreateResponse{}, errors.New("no such image"))

		err := s.toolchain.Prepare(s.ctx, s.console)
		s.ErrorContains(err, "no such image")
	})
}

func (s *DockerToolchainSuite) TestCompile() {
	s.prepared()

	s.api.EXPECT().
		ContainerExecCreate(gomock.Any(), "0123456789abcdef", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, config types.ExecConfig) (types.IDResponse, error) {
			s.Equal("clang++", config.Cmd[0])
			s.Contains(config.Cmd, "-std=c++11")
			s.False(config.AttachStdin)

			return types.IDResponse{ID: "exec-1"}, nil
		})
	s.api.EXPECT().
		ContainerExecAttach(gomock.Any(), "exec-1", gomock.Any()).
		Return(hijacked("", "test.cc:1:1: error: unknown type name 'x'\n"), nil)
	s.api.EXPECT().
		ContainerExecInspect(gomock.Any(), "exec-1").
		Return(types.ContainerExecInspect{ExitCode: 1}, nil)

	s.Require().NoError(s.toolchain.Compile(s.ctx, "test.cc", "x", "test.o"))

	s.Contains(s.console.String(), ">\x1b[0m clang++ --target=wasm32-wasi")
	s.Contains(s.console.String(), "test.cc:1:1: error: unknown type name 'x'")
}

func (s *DockerToolchainSuite) TestRun() {
	s.prepared()

	s.api.EXPECT().
		ContainerExecCreate(gomock.Any(), "0123456789abcdef", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, config types.ExecConfig) (types.IDResponse, error) {
			s.Equal([]string{"wasmtime", "run", "test.wasm", "--"}, config.Cmd)
			s.True(config.AttachStdin)

			return types.IDResponse{ID: "exec-2"}, nil
		})
	s.api.EXPECT().
		ContainerExecAttach(gomock.Any(), "exec-2", gomock.Any()).
		Return(hijacked("8\n", ""), nil)
	s.api.EXPECT().
		ContainerExecInspect(gomock.Any(), "exec-2").
		Return(types.ContainerExecInspect{ExitCode: 0}, nil)

	execution, err := s.toolchain.Run(s.ctx, "test.wasm", "3 5\n", "test.wasm")

	s.Require().NoError(err)
	s.Equal(0, execution.ExitCode)
	s.Contains(s.console.String(), "8\n")
}

func (s *DockerToolchainSuite) TestClose() {
	s.Run("should do nothing before prepare", func() {
		s.NoError(s.toolchain.Close(s.ctx))
	})

	s.Run("should remove the container", func() {
		s.prepared()

		s.api.EXPECT().
			ContainerRemove(gomock.Any(), "0123456789abcdef", container.RemoveOptions{Force: true}).
			Return(nil)

		s.NoError(s.toolchain.Close(s.ctx))
		s.NoError(s.toolchain.Close(s.ctx))
	})
}

func (s *DockerToolchainSuite) TestExecWithoutContainer() {
	err := s.toolchain.Link(s.ctx, "test.o", "test.wasm")
	s.ErrorContains(err, "not running")
}

func TestDockerToolchainSuite(t *testing.T) {
	suite.Run(t, new(DockerToolchainSuite))
}

func TestProfileFor(t *testing.T) {
	assert.Same(t, Profiles["production"], ProfileFor("production", "linux"))
	assert.Same(t, Profiles["development_linux"], ProfileFor("development", "linux"))
	assert.Same(t, Profiles["development_windows"], ProfileFor("development", "windows"))
	assert.Same(t, Profiles["development_linux"], ProfileFor("unknown", "linux"))
}
