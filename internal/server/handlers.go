package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ppiankov/ownfunds/internal/model"
	"github.com/ppiankov/ownfunds/internal/pipeline"
	"go.uber.org/zap"
)

type scenarioRequest struct {
	Text string `json:"text"`
}

type schemaResponse struct {
	Template string          `json:"template"`
	Currency string          `json:"currency"`
	Source   string          `json:"source"`
	Rows     []model.FormRow `json:"rows"`
}

type rulesResponse struct {
	Source string       `json:"source"`
	Rules  []model.Rule `json:"rules"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"template": s.engine.Schema().Template(),
		"rules":    len(s.engine.Rules().Concepts()),
	})
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)

	var req scenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large", err)
			return
		}
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "text is required", nil)
		return
	}

	report, err := s.engine.ProcessScenario(r.Context(), req.Text)
	if err != nil {
		var extractionErr *model.ExtractionError
		switch {
		case errors.Is(err, pipeline.ErrEmptyScenario):
			respondError(w, http.StatusBadRequest, "text is required", err)
		case errors.As(err, &extractionErr):
			respondError(w, http.StatusBadGateway, "extraction failed", err)
		default:
			s.logger.Error("scenario failed",
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal error", nil)
		}
		return
	}

	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	store := s.engine.Schema()
	respondJSON(w, http.StatusOK, schemaResponse{
		Template: store.Template(),
		Currency: store.Currency(),
		Source:   store.Source(),
		Rows:     store.Rows(),
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	table := s.engine.Rules()
	respondJSON(w, http.StatusOK, rulesResponse{
		Source: table.Source(),
		Rules:  table.Ordered(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]string{
		"error": message,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
