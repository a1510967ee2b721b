package routing

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/daemon"
	"cpp-scratchpad/internal/files"
	"cpp-scratchpad/internal/queue"
	"cpp-scratchpad/internal/repository"
	"cpp-scratchpad/internal/validation"
	"cpp-scratchpad/internal/wire"
)

const writeTimeout = time.Second * 10

// connection serializes the writes of the requests running on one socket.
type connection struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *connection) emit(response *wire.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(response)
}

// HandleCompile upgrades to a websocket and serves compile-run requests until
// the client goes away. Requests on one connection run concurrently, their
// responses carry the request id.
func (h *CompilerHandlers) HandleCompile(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(w, r, nil)

	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("failed to upgrade connection")
		return
	}

	client := &connection{conn: conn}
	log.Info().Str("remote", r.RemoteAddr).Msg("client connected")

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	defer func() {
		cancel()
		wg.Wait()

		_ = conn.Close()
		log.Info().Str("remote", r.RemoteAddr).Msg("client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()

		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("connection closed unexpectedly")
			}

			return
		}

		var request wire.Request

		if err := json.Unmarshal(data, &request); err != nil {
			_ = client.emit(&wire.Response{Type: wire.Error, Message: "invalid message format"})
			continue
		}

		if request.Type != wire.CompileRun {
			_ = client.emit(&wire.Response{
				Type:    wire.Error,
				ID:      request.ID,
				Message: "unknown message type " + string(request.Type),
			})

			continue
		}

		if err := h.Validator.Struct(&request); err != nil {
			_ = client.emit(&wire.Response{
				Type:    wire.Error,
				ID:      request.ID,
				Message: strings.Join(validation.TranslateError(err, h.Translator), "\n"),
			})

			continue
		}

		wg.Add(1)

		go func(request *wire.Request) {
			defer wg.Done()
			h.execute(ctx, request, client.emit)
		}(&request)
	}
}

func (h *CompilerHandlers) execute(ctx context.Context, request *wire.Request, emit daemon.Emit) {
	execution, err := h.Executor.Execute(ctx, request, emit)

	if err != nil {
		return
	}

	log.Info().
		Str("id", execution.ID).
		Str("status", string(execution.Status)).
		Dur("compileTime", execution.CompileTime).
		Dur("runTime", execution.RunTime).
		Msg("execution finished")

	h.record(execution)
}

// record stores the finished execution with every configured collaborator.
// Failures are logged, the client already has its response.
func (h *CompilerHandlers) record(execution *daemon.Execution) {
	if h.Repo != nil {
		if err := h.Repo.InsertExecution(toRecord(execution)); err != nil {
			log.Error().Err(err).Str("id", execution.ID).Msg("failed to record execution")
		}
	}

	if h.FileHandler != nil {
		errs := h.FileHandler.WriteFiles(
			&files.File{ID: execution.ID, Name: files.SourceFile, Data: []byte(execution.Source)},
			&files.File{ID: execution.ID, Name: files.OutputFile, Data: []byte(execution.Output)},
			&files.File{ID: execution.ID, Name: files.ErrorOutputFile, Data: []byte(execution.ErrorOutput)},
		)

		for _, err := range errs {
			log.Error().Err(err).Str("id", execution.ID).Msg("failed to write execution file")
		}
	}

	if h.Publisher != nil {
		if err := h.Publisher.Publish(toEvent(execution)); err != nil {
			log.Error().Err(err).Str("id", execution.ID).Msg("failed to publish execution")
		}
	}
}

func toRecord(execution *daemon.Execution) *repository.Execution {
	return &repository.Execution{
		ID:          execution.ID,
		FileName:    execution.FileName,
		Status:      string(execution.Status),
		Success:     execution.Success,
		ExitCode:    execution.ExitCode,
		CompileMs:   execution.CompileTime.Milliseconds(),
		RunMs:       execution.RunTime.Milliseconds(),
		MemoryBytes: execution.Memory.Bytes(),
	}
}

func toEvent(execution *daemon.Execution) *queue.ExecutionEvent {
	return &queue.ExecutionEvent{
		ID:          execution.ID,
		FileName:    execution.FileName,
		Status:      string(execution.Status),
		Success:     execution.Success,
		ExitCode:    execution.ExitCode,
		CompileMs:   execution.CompileTime.Milliseconds(),
		RunMs:       execution.RunTime.Milliseconds(),
		MemoryBytes: execution.Memory.Bytes(),
		FinishedAt:  time.Now().UTC(),
	}
}
