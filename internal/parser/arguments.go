// Package parser reads the command line arguments of the binaries. Every
// flag can also be given as an environment variable, `-primary-url` as
// PRIMARY_URL.
package parser

import (
	"path/filepath"
	"time"

	"github.com/namsral/flag"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/primary"
	"cpp-scratchpad/internal/sandbox"
)

type DaemonArguments struct {
	Port int
	// The YAML compiler profile, the built in clang++ profile when empty.
	ProfilePath string

	// The execution history is only kept when a database is configured.
	DatabaseConn string
	FilesRoot    string
	S3BucketName string

	SqsQueue   string
	NsqAddress string
	NsqPort    int
	NsqTopic   string

	ForceLocalMode bool
}

func ParseDaemonArguments(arguments []string) (*DaemonArguments, error) {
	args := &DaemonArguments{}
	flags := flag.NewFlagSet("scratchpad-daemon", flag.ContinueOnError)

	flags.IntVar(&args.Port, "port", 3000, "the port the daemon listens on")
	flags.StringVar(&args.ProfilePath, "compiler-profile", "", "path of the YAML compiler profile")

	flags.StringVar(&args.DatabaseConn, "database-connection-string", "", "postgres connection of the execution history")
	flags.StringVar(&args.FilesRoot, "files-root", "", "directory the execution files are written to")
	flags.StringVar(&args.S3BucketName, "s3-bucket", "", "bucket the execution files are written to")

	flags.StringVar(&args.SqsQueue, "sqs-queue", "", "SQS queue url execution events are published to")
	flags.StringVar(&args.NsqAddress, "nsq-address", "", "nsqd address execution events are published to")
	flags.IntVar(&args.NsqPort, "nsq-port", 4150, "nsqd port")
	flags.StringVar(&args.NsqTopic, "nsq-topic", "executions", "NSQ topic of execution events")

	flags.BoolVar(&args.ForceLocalMode, "force-local-mode", false, "use NSQ and local files even when AWS is configured")

	if err := flags.Parse(arguments); err != nil {
		return nil, errors.Wrap(err, "failed to parse daemon arguments")
	}

	if args.Port <= 0 || args.Port > 65535 {
		return nil, errors.Errorf("port %d is out of range", args.Port)
	}

	log.Info().Msgf("%+v parsed arguments", *args)

	return args, nil
}

type ScratchpadArguments struct {
	// The C++ source file, "-" or empty reads the program from stdin.
	SourcePath string
	FileName   string
	// Input of the program. When empty a program reading input runs in
	// loop input mode.
	Stdin string

	PrimaryURL string
	Locale     string

	SandboxEnabled    bool
	SandboxImage      string
	SandboxRunCeiling time.Duration
	DockerConfigPath  string
}

func ParseScratchpadArguments(arguments []string) (*ScratchpadArguments, error) {
	args := &ScratchpadArguments{}
	flags := flag.NewFlagSet("scratchpad", flag.ContinueOnError)

	flags.StringVar(&args.FileName, "file-name", "", "file name used in diagnostics, the source file name by default")
	flags.StringVar(&args.Stdin, "stdin", "", "input of the program")

	flags.StringVar(&args.PrimaryURL, "primary-url", primary.DefaultURL, "websocket url of the compiler daemon")
	flags.StringVar(&args.Locale, "locale", "en", "language of translated messages (en, zh)")

	flags.BoolVar(&args.SandboxEnabled, "sandbox", true, "fall back to the docker sandbox toolchain")
	flags.StringVar(&args.SandboxImage, "sandbox-image", sandbox.DefaultToolchainImage, "image of the sandbox toolchain")
	flags.DurationVar(&args.SandboxRunCeiling, "sandbox-run-ceiling", 0, "bound of a sandbox compile and run, unbounded when zero")
	flags.StringVar(&args.DockerConfigPath, "docker-config", "", "docker daemon configuration consulted for gVisor")

	if err := flags.Parse(arguments); err != nil {
		return nil, errors.Wrap(err, "failed to parse scratchpad arguments")
	}

	switch flags.NArg() {
	case 0:
		args.SourcePath = "-"
	case 1:
		args.SourcePath = flags.Arg(0)
	default:
		return nil, errors.New("only one source file can be given")
	}

	if args.FileName == "" && args.SourcePath != "-" {
		args.FileName = filepath.Base(args.SourcePath)
	}

	return args, nil
}
