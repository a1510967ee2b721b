package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/config"
	"cpp-scratchpad/internal/daemon"
	"cpp-scratchpad/internal/files"
	"cpp-scratchpad/internal/parser"
	"cpp-scratchpad/internal/queue"
	"cpp-scratchpad/internal/repository"
	"cpp-scratchpad/internal/routing"
	"cpp-scratchpad/internal/validation"
)

func main() {
	if config.IsDevelopment() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Info().Str("environment", config.Environment()).Msg("starting scratchpad-daemon")

	args, err := parser.ParseDaemonArguments(os.Args[1:])

	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse arguments")
	}

	profile, err := config.LoadCompilerProfile(args.ProfilePath)

	if err != nil {
		log.Fatal().Err(err).Msg("failed to load compiler profile")
	}

	validate, translator, err := validation.New()

	if err != nil {
		log.Fatal().Err(err).Msg("failed to create validator")
	}

	handlers := &routing.CompilerHandlers{
		Executor:   daemon.NewExecutor(profile),
		Validator:  validate,
		Translator: translator,
	}

	if args.DatabaseConn != "" {
		repo, repoErr := repository.NewRepository(args.DatabaseConn)

		if repoErr != nil {
			log.Fatal().Err(repoErr).Msg("failed to create database connection")
		}

		handlers.Repo = repo
	}

	if args.FilesRoot != "" || args.S3BucketName != "" {
		fileHandler, filesErr := files.NewFilesHandler(&files.Config{
			Local:          &files.LocalConfig{LocalRootPath: args.FilesRoot},
			S3:             &files.S3Config{BucketName: args.S3BucketName},
			ForceLocalMode: args.ForceLocalMode,
		})

		if filesErr != nil {
			log.Fatal().Err(filesErr).Msg("failed to create file handler")
		}

		handlers.FileHandler = fileHandler
	}

	publisher, err := queue.NewPublisher(&queue.Config{
		Nsq:            &queue.NsqConfig{Topic: args.NsqTopic, Address: args.NsqAddress, Port: args.NsqPort},
		Sqs:            &queue.SqsConfig{QueueURL: args.SqsQueue},
		ForceLocalMode: args.ForceLocalMode,
	})

	if err != nil {
		log.Fatal().Err(err).Msg("failed to create publisher")
	}

	handlers.Publisher = publisher

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go daemon.RunCleanup(ctx, profile.TempDir, profile.CleanupInterval, profile.CleanupAge)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", args.Port),
		Handler:           routing.NewRouter(handlers, os.Stdout),
		ReadHeaderTimeout: time.Second * 10,
	}

	go func() {
		log.Info().Str("address", server.Addr).Msg("listening")

		if listenErr := server.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
			log.Fatal().Err(listenErr).Msg("failed to listen")
		}
	}()

	// wait for signal to exit
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("stopping scratchpad-daemon")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shut down server")
	}

	publisher.Stop()
}
