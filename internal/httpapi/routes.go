package httpapi

import (
	"github.com/gorilla/mux"

	"brightlens.dev/optivault/internal/metrics"
)

// Routes configures and returns the HTTP router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	r.Use(metrics.Middleware)

	r.HandleFunc("/health", s.HealthHandler).Methods("GET")

	// Fixed paths before the {id} route so mux does not swallow them.
	r.HandleFunc("/patients/search", s.SearchPatientsHandler).Methods("GET")
	r.HandleFunc("/patients/export", s.ExportHandler).Methods("GET")
	r.HandleFunc("/patients/import", s.ImportHandler).Methods("POST")

	r.HandleFunc("/patients", s.ListPatientsHandler).Methods("GET")
	r.HandleFunc("/patients", s.CreatePatientHandler).Methods("POST")
	r.HandleFunc("/patients/{id}", s.UpdatePatientHandler).Methods("PUT")

	// Prometheus metrics endpoint
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	return r
}
