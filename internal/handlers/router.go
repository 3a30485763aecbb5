package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"payroll-recon/internal/services"
)

func SetupRouter(
	ingestionService *services.IngestionService,
	reconciliationService *services.ReconciliationService,
	allocationService *services.AllocationService,
	accrualService *services.AccrualService,
	referenceService *services.ReferenceDataService,
) *mux.Router {
	router := mux.NewRouter()

	dataHandler := NewDataHandler(ingestionService)
	reconciliationHandler := NewReconciliationHandler(reconciliationService)
	allocationHandler := NewAllocationHandler(allocationService)
	accrualHandler := NewAccrualHandler(accrualService)
	referenceHandler := NewReferenceDataHandler(referenceService)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.Use(loggingMiddleware)
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/facts/worked", dataHandler.IngestWorkedFacts).Methods(http.MethodPost)
	api.HandleFunc("/facts/paid", dataHandler.IngestPaidFacts).Methods(http.MethodPost)
	api.HandleFunc("/facts/journal", dataHandler.IngestJournalFacts).Methods(http.MethodPost)

	api.HandleFunc("/periods/{periodID}/reconcile", reconciliationHandler.StartReconciliation).Methods(http.MethodPost)
	api.HandleFunc("/periods/{periodID}/runs", reconciliationHandler.GetRunsByPeriod).Methods(http.MethodGet)
	api.HandleFunc("/runs/{batchID}", reconciliationHandler.GetRun).Methods(http.MethodGet)
	api.HandleFunc("/exceptions/{id}", reconciliationHandler.ResolveException).Methods(http.MethodPatch)

	api.HandleFunc("/periods/{periodID}/allocations/rebuild", allocationHandler.Rebuild).Methods(http.MethodPost)
	api.HandleFunc("/periods/{periodID}/allocations/{employeeCode}/override", allocationHandler.ApplyOverride).Methods(http.MethodPut)
	api.HandleFunc("/periods/{periodID}/allocations", allocationHandler.GetByPeriod).Methods(http.MethodGet)

	api.HandleFunc("/periods/{periodID}/accruals", accrualHandler.Calculate).Methods(http.MethodPost)
	api.HandleFunc("/periods/{periodID}/accruals", accrualHandler.GetByPeriod).Methods(http.MethodGet)

	api.HandleFunc("/employees", referenceHandler.UpsertEmployees).Methods(http.MethodPost)
	api.HandleFunc("/employees", referenceHandler.GetEmployees).Methods(http.MethodGet)
	api.HandleFunc("/mappings/locations", referenceHandler.UpsertLocationMapping).Methods(http.MethodPut)
	api.HandleFunc("/mappings/locations", referenceHandler.GetLocationMappings).Methods(http.MethodGet)
	api.HandleFunc("/mappings/locations/{id}", referenceHandler.DeactivateLocationMapping).Methods(http.MethodDelete)

	router.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)

	return router
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Debug("Handling request")
		next.ServeHTTP(w, r)
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status": "healthy",
	}
	respondWithJSON(w, http.StatusOK, response)
}
