package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"payroll-recon/internal/repositories"
	"payroll-recon/internal/services"
)

type ReconciliationHandler struct {
	reconciliationService *services.ReconciliationService
}

func NewReconciliationHandler(reconciliationService *services.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliationService: reconciliationService,
	}
}

func (h *ReconciliationHandler) StartReconciliation(w http.ResponseWriter, r *http.Request) {
	periodID, err := periodIDFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid period ID")
		return
	}

	result, err := h.reconciliationService.StartReconciliation(periodID)
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

func (h *ReconciliationHandler) GetRunsByPeriod(w http.ResponseWriter, r *http.Request) {
	periodID, err := periodIDFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid period ID")
		return
	}

	runs, err := h.reconciliationService.GetRunsByPeriod(periodID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, runs)
}

func (h *ReconciliationHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	batchID := vars["batchID"]

	if batchID == "" {
		respondWithError(w, http.StatusBadRequest, "Batch ID is required")
		return
	}

	result, err := h.reconciliationService.GetRun(batchID)
	if err != nil {
		if errors.Is(err, repositories.ErrRunNotFound) {
			respondWithError(w, http.StatusNotFound, "Reconciliation run not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *ReconciliationHandler) ResolveException(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid exception ID")
		return
	}

	var request struct {
		Status     string `json:"status"`
		ResolvedBy string `json:"resolved_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if request.Status == "" {
		respondWithError(w, http.StatusBadRequest, "status is required")
		return
	}

	exception, err := h.reconciliationService.ResolveException(id, request.Status, request.ResolvedBy)
	if err != nil {
		if errors.Is(err, repositories.ErrExceptionNotFound) {
			respondWithError(w, http.StatusNotFound, "Exception not found")
			return
		}
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, exception)
}

func periodIDFromRequest(r *http.Request) (int64, error) {
	vars := mux.Vars(r)
	return strconv.ParseInt(vars["periodID"], 10, 64)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Error marshaling JSON response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
