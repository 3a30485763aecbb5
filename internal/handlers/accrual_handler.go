package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"payroll-recon/internal/repositories"
	"payroll-recon/internal/services"
)

type AccrualHandler struct {
	accrualService *services.AccrualService
}

func NewAccrualHandler(accrualService *services.AccrualService) *AccrualHandler {
	return &AccrualHandler{
		accrualService: accrualService,
	}
}

func (h *AccrualHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	periodID, err := periodIDFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid period ID")
		return
	}

	var request struct {
		AccrualStart string `json:"accrual_start"`
		AccrualEnd   string `json:"accrual_end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.AccrualStart == "" || request.AccrualEnd == "" {
		respondWithError(w, http.StatusBadRequest, "Both accrual_start and accrual_end are required")
		return
	}
	if _, err := time.Parse("2006-01-02", request.AccrualStart); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid accrual_start format. Use YYYY-MM-DD")
		return
	}
	if _, err := time.Parse("2006-01-02", request.AccrualEnd); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid accrual_end format. Use YYYY-MM-DD")
		return
	}

	result, err := h.accrualService.Calculate(periodID, request.AccrualStart, request.AccrualEnd)
	if err != nil {
		if errors.Is(err, repositories.ErrPeriodNotFound) {
			respondWithError(w, http.StatusNotFound, "Pay period not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *AccrualHandler) GetByPeriod(w http.ResponseWriter, r *http.Request) {
	periodID, err := periodIDFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid period ID")
		return
	}

	results, err := h.accrualService.GetByPeriod(periodID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, results)
}
