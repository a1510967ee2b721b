package routing

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

type ErrorResponse struct {
	Errors []string `json:"errors"`
}

type ExecutionResponse struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	Status   string `json:"status"`
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`

	CompileMs   int64  `json:"compile_ms"`
	RunMs       int64  `json:"run_ms"`
	MemoryBytes int64  `json:"memory_bytes"`
	Memory      string `json:"memory"`

	Source      string `json:"source"`
	Output      string `json:"output"`
	ErrorOutput string `json:"error_output"`

	CreatedAt time.Time `json:"created_at"`
}

func handleJSONResponse(w http.ResponseWriter, body any, code int) {
	response, err := json.Marshal(body)

	if err != nil {
		log.Error().Err(err).Msg("failed to encode response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func handleErrorResponse(w http.ResponseWriter, message string, code int) {
	handleJSONResponse(w, ErrorResponse{Errors: []string{message}}, code)
}
