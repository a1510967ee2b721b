package sandbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/result"
)

const (
	sourceFile = "test.cc"
	objectFile = "test.o"
	moduleFile = "test.wasm"
)

// worker owns the toolchain and serves one message at a time from requests,
// posting every reply to responses.
type worker struct {
	toolchain Toolchain
	requests  <-chan Message
	responses chan<- Message
}

func (w *worker) serve(ctx context.Context) {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		if err := w.toolchain.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("failed to close sandbox toolchain")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case message := <-w.requests:
			switch message.ID {
			case MessageInit:
				w.initialize(ctx)
			case MessageCompileLinkRun:
				w.compileLinkRun(ctx, message.Data, message.Stdin)
			default:
				log.Debug().Str("id", string(message.ID)).Msg("sandbox worker ignoring message")
			}
		}
	}
}

// post delivers a reply unless the worker is shutting down.
func (w *worker) post(ctx context.Context) func(Message) {
	return func(message Message) {
		select {
		case w.responses <- message:
		case <-ctx.Done():
		}
	}
}

func (w *worker) initialize(ctx context.Context) {
	post := w.post(ctx)

	if err := w.toolchain.Prepare(ctx, chunkWriter{id: MessageWrite, post: post}); err != nil {
		log.Error().Err(err).Msg("sandbox toolchain failed to prepare")
		post(Message{ID: MessageInitError, Data: err.Error()})
		return
	}

	post(Message{ID: MessageInitComplete})
}

// compileLinkRun compiles, links and runs the source, always ending with a
// single runAsync naming the stage the attempt ended in. A missing artifact,
// not a return code, is what marks a compile or link step as failed.
func (w *worker) compileLinkRun(ctx context.Context, contents, stdin string) {
	post := w.post(ctx)
	errorOutput := chunkWriter{id: MessageError, post: post}

	fail := func(stage result.Stage, format string, args ...any) {
		_, _ = fmt.Fprintf(errorOutput, format+"\n", args...)
		post(Message{ID: MessageRunAsync, Data: string(stage), HasError: true})
	}

	w.remove(objectFile, moduleFile)

	if err := w.toolchain.Compile(ctx, sourceFile, contents, objectFile); err != nil {
		fail(result.StageCompile, "Error: compiling %s failed: %s", sourceFile, err)
		return
	}

	if !w.exists(objectFile) {
		fail(result.StageCompile, "Error: compilation failed, %s was not produced.", objectFile)
		return
	}

	if err := w.toolchain.Link(ctx, objectFile, moduleFile); err != nil {
		fail(result.StageLink, "Error: linking %s failed: %s", objectFile, err)
		return
	}

	if !w.exists(moduleFile) {
		fail(result.StageLink, "Error: linking failed, %s was not produced.", moduleFile)
		return
	}

	execution, err := w.toolchain.Run(ctx, moduleFile, stdin, moduleFile)

	if err != nil {
		fail(result.StageRun, "Error: running %s failed: %s", moduleFile, err)
		return
	}

	if execution.ExitCode != 0 {
		fail(result.StageRun, "Error: process exited with code %d.", execution.ExitCode)
		return
	}

	runTime := float64(execution.Duration.Microseconds()) / 1000
	if runTime < 1 {
		runTime = 1
	}

	post(Message{ID: MessageRunAsync, Data: string(result.StageRun), RunTime: runTime})
}

func (w *worker) exists(name string) bool {
	_, err := os.Stat(filepath.Join(w.toolchain.Dir(), name))
	return err == nil
}

func (w *worker) remove(names ...string) {
	for _, name := range names {
		_ = os.Remove(filepath.Join(w.toolchain.Dir(), name))
	}
}
