package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jswider/quizforge/internal/extract"
	"github.com/jswider/quizforge/internal/feedback"
	"github.com/jswider/quizforge/internal/quizgen"
	"github.com/jswider/quizforge/internal/retrieval"
	"github.com/jswider/quizforge/internal/workflow"
)

type createRequest struct {
	// Documents is the raw study material; it is chunked into excerpts
	// server-side.
	Documents []string `json:"documents"`

	QuestionCount int `json:"question_count"`
}

type feedbackRequest struct {
	// Revision is the topic set revision the client was shown.
	Revision    int    `json:"revision"`
	Instruction string `json:"instruction"`
}

type answerRequest struct {
	Answer []string `json:"answer"`
}

type answerResponse struct {
	Correct bool         `json:"correct"`
	Score   float64      `json:"score"`
	Session *sessionView `json:"session"`
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if allBlank(req.Documents) {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "documents must not be empty")
		return
	}
	if req.QuestionCount == 0 {
		req.QuestionCount = s.opts.DefaultQuestionCount
	}
	if req.QuestionCount < 1 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "question_count must be positive")
		return
	}

	retriever := retrieval.NewMemoryRetriever(req.Documents, s.opts.ChunkSize)
	excerpts, err := retriever.Retrieve(r.Context(), "", s.opts.ChunkCount)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to prepare excerpts")
		return
	}

	state, err := s.orch.Start(r.Context(), excerpts, req.QuestionCount)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionView(state, nil))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	state, err := s.orch.GetState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(state, s.orch.CurrentQuestion(state)))
}

func (s *Server) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	state, err := s.orch.SubmitFeedback(r.Context(), chi.URLParam(r, "id"), req.Revision, req.Instruction)

	var stale *feedback.StaleRevisionError
	if errors.As(err, &stale) {
		// Conflict: return the current set so the client can resync.
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": apiError{
				Code:    "STALE_REVISION",
				Message: stale.Error(),
			},
			"session": newSessionView(state, nil),
		})
		return
	}
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(state, s.orch.CurrentQuestion(state)))
}

func (s *Server) confirmTopics(w http.ResponseWriter, r *http.Request) {
	state, err := s.orch.ConfirmTopics(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(state, s.orch.CurrentQuestion(state)))
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if len(req.Answer) == 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "answer must not be empty")
		return
	}

	state, record, err := s.orch.SubmitAnswer(r.Context(), chi.URLParam(r, "id"), req.Answer)
	if err != nil {
		s.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answerResponse{
		Correct: record.Correct,
		Score:   record.Score,
		Session: newSessionView(state, s.orch.CurrentQuestion(state)),
	})
}

// writeWorkflowError maps workflow errors onto HTTP statuses.
func (s *Server) writeWorkflowError(w http.ResponseWriter, err error) {
	var invalid *workflow.InvalidTransitionError
	var extraction *extract.ErrExtractionFailed
	var generation *quizgen.ErrGenerationFailed

	switch {
	case errors.Is(err, workflow.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "session not found")
	case errors.As(err, &invalid):
		writeError(w, http.StatusConflict, "INVALID_TRANSITION", invalid.Error())
	case errors.As(err, &extraction), errors.As(err, &generation):
		writeError(w, http.StatusBadGateway, "GENERATION_FAILED", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]apiError{"error": {Code: code, Message: message}})
}

func allBlank(docs []string) bool {
	for _, d := range docs {
		if strings.TrimSpace(d) != "" {
			return false
		}
	}
	return true
}
