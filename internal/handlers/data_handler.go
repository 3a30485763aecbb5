package handlers

import (
	"encoding/json"
	"net/http"

	"payroll-recon/internal/services"
)

type DataHandler struct {
	ingestionService *services.IngestionService
}

func NewDataHandler(ingestionService *services.IngestionService) *DataHandler {
	return &DataHandler{
		ingestionService: ingestionService,
	}
}

type WorkedFactsRequest struct {
	PeriodStart string                     `json:"period_start"`
	PeriodEnd   string                     `json:"period_end"`
	Rows        []services.WorkedFactInput `json:"rows"`
}

type PaidFactsRequest struct {
	PeriodStart string                   `json:"period_start"`
	PeriodEnd   string                   `json:"period_end"`
	Rows        []services.PaidFactInput `json:"rows"`
}

type JournalFactsRequest struct {
	PeriodStart string                      `json:"period_start"`
	PeriodEnd   string                      `json:"period_end"`
	Rows        []services.JournalFactInput `json:"rows"`
}

func (h *DataHandler) IngestWorkedFacts(w http.ResponseWriter, r *http.Request) {
	var req WorkedFactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.PeriodStart == "" || req.PeriodEnd == "" {
		respondWithError(w, http.StatusBadRequest, "period_start and period_end are required")
		return
	}
	if len(req.Rows) == 0 {
		respondWithError(w, http.StatusBadRequest, "No rows provided")
		return
	}

	result, err := h.ingestionService.IngestWorkedFacts(req.PeriodStart, req.PeriodEnd, req.Rows)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusPartialContent
	}
	respondWithJSON(w, status, result)
}

func (h *DataHandler) IngestPaidFacts(w http.ResponseWriter, r *http.Request) {
	var req PaidFactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.PeriodStart == "" || req.PeriodEnd == "" {
		respondWithError(w, http.StatusBadRequest, "period_start and period_end are required")
		return
	}
	if len(req.Rows) == 0 {
		respondWithError(w, http.StatusBadRequest, "No rows provided")
		return
	}

	result, err := h.ingestionService.IngestPaidFacts(req.PeriodStart, req.PeriodEnd, req.Rows)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusPartialContent
	}
	respondWithJSON(w, status, result)
}

func (h *DataHandler) IngestJournalFacts(w http.ResponseWriter, r *http.Request) {
	var req JournalFactsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if req.PeriodStart == "" || req.PeriodEnd == "" {
		respondWithError(w, http.StatusBadRequest, "period_start and period_end are required")
		return
	}
	if len(req.Rows) == 0 {
		respondWithError(w, http.StatusBadRequest, "No rows provided")
		return
	}

	result, err := h.ingestionService.IngestJournalFacts(req.PeriodStart, req.PeriodEnd, req.Rows)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusPartialContent
	}
	respondWithJSON(w, status, result)
}
