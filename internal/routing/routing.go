// Package routing serves the daemon: the websocket endpoint programs are
// compiled and run through, and the execution history.
package routing

import (
	"io"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"cpp-scratchpad/internal/daemon"
	"cpp-scratchpad/internal/files"
	"cpp-scratchpad/internal/queue"
	"cpp-scratchpad/internal/repository"
)

type CompilerHandlers struct {
	Executor   *daemon.Executor
	Validator  *validator.Validate
	Translator ut.Translator

	// The history collaborators are optional, a nil one is skipped.
	Repo        repository.Repository
	FileHandler files.Files
	Publisher   queue.Publisher

	Upgrader websocket.Upgrader
}

// NewRouter registers the daemon routes. Every request is logged to
// logOutput in the combined log format.
func NewRouter(h *CompilerHandlers, logOutput io.Writer) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", HandleHealth).Methods(http.MethodGet)

	r.Handle("/executions/{id}", handlers.CompressHandler(
		http.HandlerFunc(h.HandleGetExecution))).Methods(http.MethodGet)

	r.HandleFunc("/", h.HandleCompile)

	return handlers.CombinedLoggingHandler(logOutput, r)
}

func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	handleJSONResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}
