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

type ReferenceDataHandler struct {
	referenceService *services.ReferenceDataService
}

func NewReferenceDataHandler(referenceService *services.ReferenceDataService) *ReferenceDataHandler {
	return &ReferenceDataHandler{
		referenceService: referenceService,
	}
}

func (h *ReferenceDataHandler) UpsertEmployees(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Employees []services.EmployeeInput `json:"employees"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if len(request.Employees) == 0 {
		respondWithError(w, http.StatusBadRequest, "No employees provided")
		return
	}

	count, err := h.referenceService.UpsertEmployees(request.Employees)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"upserted": count})
}

func (h *ReferenceDataHandler) GetEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.referenceService.GetEmployees()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, employees)
}

func (h *ReferenceDataHandler) UpsertLocationMapping(w http.ResponseWriter, r *http.Request) {
	var input services.LocationMappingInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	mapping, err := h.referenceService.UpsertLocationMapping(input)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, mapping)
}

func (h *ReferenceDataHandler) GetLocationMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.referenceService.GetLocationMappings()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, mappings)
}

func (h *ReferenceDataHandler) DeactivateLocationMapping(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid mapping ID")
		return
	}

	if err := h.referenceService.DeactivateLocationMapping(id); err != nil {
		if errors.Is(err, repositories.ErrMappingNotFound) {
			respondWithError(w, http.StatusNotFound, "Location mapping not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
