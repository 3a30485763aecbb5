package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"payroll-recon/internal/models"
	"payroll-recon/internal/repositories"
	"payroll-recon/internal/services"
)

type AllocationHandler struct {
	allocationService *services.AllocationService
}

func NewAllocationHandler(allocationService *services.AllocationService) *AllocationHandler {
	return &AllocationHandler{
		allocationService: allocationService,
	}
}

func (h *AllocationHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	periodID, err := periodIDFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid period ID")
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = models.AllocationSourceDerived
	}

	result, err := h.allocationService.Rebuild(periodID, source)
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

func (h *AllocationHandler) ApplyOverride(w http.ResponseWriter, r *http.Request) {
	periodID, err := periodIDFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid period ID")
		return
	}

	vars := mux.Vars(r)
	employeeCode := vars["employeeCode"]
	if employeeCode == "" {
		respondWithError(w, http.StatusBadRequest, "Employee code is required")
		return
	}

	var request struct {
		Percentages map[string]decimal.Decimal `json:"percentages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(request.Percentages) == 0 {
		respondWithError(w, http.StatusBadRequest, "percentages must not be empty")
		return
	}

	rule, err := h.allocationService.ApplyOverride(periodID, employeeCode, request.Percentages)
	if err != nil {
		if errors.Is(err, repositories.ErrPeriodNotFound) {
			respondWithError(w, http.StatusNotFound, "Pay period not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, rule)
}

func (h *AllocationHandler) GetByPeriod(w http.ResponseWriter, r *http.Request) {
	periodID, err := periodIDFromRequest(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid period ID")
		return
	}

	rules, err := h.allocationService.GetByPeriod(periodID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, rules)
}
