package routing

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"cpp-scratchpad/internal/files"
	"cpp-scratchpad/internal/memory"
	"cpp-scratchpad/internal/repository"
)

func (h *CompilerHandlers) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	if h.Repo == nil {
		handleErrorResponse(w, "the execution history is not enabled.", http.StatusNotFound)
		return
	}

	parsedID, err := uuid.Parse(mux.Vars(r)["id"])

	if err != nil {
		handleErrorResponse(w, "failed to parse id value.", http.StatusBadRequest)
		return
	}

	execution, err := h.Repo.GetExecution(parsedID.String())

	if errors.Is(err, repository.ErrExecutionNotFound) {
		handleErrorResponse(w, "the execution does not exist by the provided id.", http.StatusNotFound)
		return
	}

	if err != nil {
		log.Error().Err(err).Str("id", parsedID.String()).Msg("failed to get execution")
		handleErrorResponse(w, "failed to get the execution.", http.StatusInternalServerError)

		return
	}

	resp := ExecutionResponse{
		ID:          execution.ID,
		FileName:    execution.FileName,
		Status:      execution.Status,
		Success:     execution.Success,
		ExitCode:    execution.ExitCode,
		CompileMs:   execution.CompileMs,
		RunMs:       execution.RunMs,
		MemoryBytes: execution.MemoryBytes,
		CreatedAt:   execution.CreatedAt,
	}

	if execution.MemoryBytes > 0 {
		resp.Memory = memory.Memory(execution.MemoryBytes).String()
	}

	if h.FileHandler != nil {
		resp.Source = h.readFile(execution.ID, files.SourceFile)
		resp.Output = h.readFile(execution.ID, files.OutputFile)
		resp.ErrorOutput = h.readFile(execution.ID, files.ErrorOutputFile)
	}

	handleJSONResponse(w, resp, http.StatusOK)
}

func (h *CompilerHandlers) readFile(id, name string) string {
	data, err := h.FileHandler.GetFile(id, name)

	if err != nil {
		if !errors.Is(err, files.ErrNotFound) {
			log.Warn().Err(err).Str("id", id).Str("file", name).Msg("failed to read execution file")
		}

		return ""
	}

	return string(data)
}
