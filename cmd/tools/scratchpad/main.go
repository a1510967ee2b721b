package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/app"
	"cpp-scratchpad/internal/config"
	"cpp-scratchpad/internal/parser"
	"cpp-scratchpad/internal/result"
	"cpp-scratchpad/internal/terminal"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	if config.IsDevelopment() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := run(); err != nil {
		log.Error().Err(err).Msg("scratchpad failed")
		os.Exit(1)
	}
}

func run() error {
	args, err := parser.ParseScratchpadArguments(os.Args[1:])

	if err != nil {
		return err
	}

	source, err := readSource(args.SourcePath)

	if err != nil {
		return err
	}

	session, err := app.New(args)

	if err != nil {
		return err
	}

	defer session.Close()

	console, err := terminal.NewConsole(os.Stdout, os.Stdin)

	if err != nil {
		return errors.Wrap(err, "failed to open console")
	}

	defer console.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.Orchestrator.Init(ctx)

	return session.Orchestrator.Run(ctx, &result.CompileRequest{
		SourceText: source,
		Stdin:      args.Stdin,
		FileName:   args.FileName,
	}, console)
}

func readSource(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), errors.Wrap(err, "failed to read source from stdin")
	}

	data, err := os.ReadFile(path)

	if err != nil {
		return "", errors.Wrapf(err, "failed to read source %s", path)
	}

	return string(data), nil
}
