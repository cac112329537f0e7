package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/paceline-ai/paceline-engine/pkg/format"
	"github.com/paceline-ai/paceline-engine/pkg/services"
)

// AskRequest is the request body for POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the success body: the executed query and display-ready rows.
type AskResponse struct {
	SQLQuery string                `json:"sql_query"`
	Rows     []format.FormattedRow `json:"rows"`
}

// AskHandler answers natural-language questions over recorded activities.
type AskHandler struct {
	service services.AnswerService
	logger  *zap.Logger
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(service services.AnswerService, logger *zap.Logger) *AskHandler {
	return &AskHandler{service: service, logger: logger}
}

// RegisterRoutes registers the ask handler's routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ask", h.Ask)
}

// Ask handles POST /api/ask requests.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a question field")
		return
	}

	answer, err := h.service.AnswerQuestion(r.Context(), req.Question)
	if err != nil {
		h.writeError(w, err)
		return
	}

	response := AskResponse{
		SQLQuery: answer.Query,
		Rows:     answer.Rows,
	}
	if response.Rows == nil {
		response.Rows = []format.FormattedRow{}
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ask response", zap.Error(err))
	}
}

// writeError maps a pipeline failure to an HTTP status. The error kind is
// the machine-readable code; the detail is safe for display.
func (h *AskHandler) writeError(w http.ResponseWriter, err error) {
	var pipeErr *services.PipelineError
	if !errors.As(err, &pipeErr) {
		h.logger.Error("unexpected pipeline failure", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch pipeErr.Kind {
	case services.ValidationError, services.RejectedQuery:
		status = http.StatusBadRequest
	case services.GenerationFailure:
		status = http.StatusBadGateway
	case services.ExecutionError:
		status = http.StatusUnprocessableEntity
	case services.NoResult:
		status = http.StatusNotFound
	}

	h.logger.Warn("question failed",
		zap.String("kind", string(pipeErr.Kind)),
		zap.Error(err))
	_ = ErrorResponse(w, status, string(pipeErr.Kind), pipeErr.Detail)
}
