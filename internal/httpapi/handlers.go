// Package httpapi is the form-collaborator surface: JSON handlers over the
// record store, query engine and transfer codec.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"brightlens.dev/optivault/internal/metrics"
	"brightlens.dev/optivault/internal/patient"
	"brightlens.dev/optivault/internal/search"
	"brightlens.dev/optivault/internal/store"
	"brightlens.dev/optivault/internal/transfer"
)

// Server holds the core components the handlers operate on.
type Server struct {
	store  *store.Store
	engine *search.Engine
	codec  *transfer.Codec
}

// NewServer wires the query engine and codec around the given store.
func NewServer(s *store.Store) *Server {
	return &Server{
		store:  s,
		engine: search.NewEngine(s),
		codec:  transfer.NewCodec(s),
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// storeErrorStatus maps the store's error taxonomy to HTTP statuses.
func storeErrorStatus(err error) int {
	if errors.Is(err, store.ErrStorageUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// HealthHandler reports liveness.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListPatientsHandler returns the full collection.
func (s *Server) ListPatientsHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List(r.Context())
	if err != nil {
		log.Error().
			Err(err).
			Msg("Failed to list patient records")
		writeError(w, storeErrorStatus(err), "failed to list records")
		return
	}
	if records == nil {
		records = []patient.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// CreatePatientHandler persists a new record. The body must not carry an
// id; required fields are enforced here, at the form contract's edge.
func (s *Server) CreatePatientHandler(w http.ResponseWriter, r *http.Request) {
	var rec patient.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		log.Warn().
			Err(err).
			Msg("Failed to decode create request")
		metrics.RecordStoreOp("create", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if rec.ID != "" {
		metrics.RecordStoreOp("create", "validation_failed")
		writeError(w, http.StatusBadRequest, "new records must not carry an id")
		return
	}
	if missing := rec.MissingRequired(); len(missing) > 0 {
		log.Warn().
			Strs("missing", missing).
			Msg("Create request missing required fields")
		metrics.RecordStoreOp("create", "validation_failed")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "missing required fields",
			"missing": missing,
		})
		return
	}

	rec.RecomputeTotal()

	stored, err := s.store.Create(r.Context(), rec)
	if err != nil {
		log.Error().
			Err(err).
			Str("patient", rec.PatientName).
			Msg("Failed to create patient record")
		metrics.RecordStoreOp("create", "error")
		writeError(w, storeErrorStatus(err), "failed to save record")
		return
	}

	metrics.RecordStoreOp("create", "success")
	writeJSON(w, http.StatusCreated, stored)
}

// UpdatePatientHandler replaces the record with the path id wholesale.
func (s *Server) UpdatePatientHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var rec patient.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		log.Warn().
			Err(err).
			Str("id", id).
			Msg("Failed to decode update request")
		metrics.RecordStoreOp("update", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if rec.ID == "" {
		rec.ID = id
	}
	if rec.ID != id {
		metrics.RecordStoreOp("update", "validation_failed")
		writeError(w, http.StatusBadRequest, "body id does not match path id")
		return
	}

	rec.RecomputeTotal()

	ok, err := s.store.Update(r.Context(), rec)
	if err != nil {
		log.Error().
			Err(err).
			Str("id", id).
			Msg("Failed to update patient record")
		metrics.RecordStoreOp("update", "error")
		writeError(w, storeErrorStatus(err), "failed to save record")
		return
	}
	if !ok {
		metrics.RecordStoreOp("update", "not_found")
		writeError(w, http.StatusNotFound, "no record with that id")
		return
	}

	metrics.RecordStoreOp("update", "success")
	writeJSON(w, http.StatusOK, rec)
}

// SearchPatientsHandler answers q/by queries. by defaults to mobile.
func (s *Server) SearchPatientsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	field, err := search.ParseField(r.URL.Query().Get("by"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results, err := s.engine.Search(r.Context(), query, field)
	if err != nil {
		log.Error().
			Err(err).
			Str("query", query).
			Msg("Search failed")
		metrics.RecordStoreOp("search", "error")
		writeError(w, storeErrorStatus(err), "search failed")
		return
	}

	metrics.RecordStoreOp("search", "success")
	writeJSON(w, http.StatusOK, results)
}

// ExportHandler streams the export artifact with its conventional filename.
// An empty collection is a soft no-op, reported, with nothing produced.
func (s *Server) ExportHandler(w http.ResponseWriter, r *http.Request) {
	data, err := s.codec.Export(r.Context())
	if err != nil {
		if errors.Is(err, transfer.ErrNothingToExport) {
			metrics.RecordStoreOp("export", "empty")
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"message":  "no records to export",
				"exported": 0,
			})
			return
		}
		log.Error().
			Err(err).
			Msg("Export failed")
		metrics.RecordStoreOp("export", "error")
		writeError(w, storeErrorStatus(err), "export failed")
		return
	}

	metrics.RecordStoreOp("export", "success")
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+transfer.FileName(time.Now()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ImportHandler merges an export artifact into the collection.
func (s *Server) ImportHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	result, err := s.codec.Import(r.Context(), body)
	if err != nil {
		if errors.Is(err, transfer.ErrMalformedImport) {
			log.Warn().
				Err(err).
				Msg("Rejected malformed import")
			metrics.RecordStoreOp("import", "malformed")
			writeError(w, http.StatusBadRequest, "input is not an array of patient records")
			return
		}
		log.Error().
			Err(err).
			Msg("Import failed")
		metrics.RecordStoreOp("import", "error")
		writeError(w, storeErrorStatus(err), "import failed")
		return
	}

	metrics.RecordStoreOp("import", "success")
	writeJSON(w, http.StatusOK, result)
}
