// Package api provides HTTP API handlers for the violin practice coach.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/askumar/violincoach/internal/store"
)

// CalibrationHandler handles HTTP requests for calibration profile
// resources.
type CalibrationHandler struct {
	store *store.Store
}

// NewCalibrationHandler creates a new CalibrationHandler with the given store.
func NewCalibrationHandler(s *store.Store) *CalibrationHandler {
	return &CalibrationHandler{store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/calibration, /api/calibration/{id} or
	// /api/calibration/{id}/activate
	path := strings.TrimPrefix(r.URL.Path, "/api/calibration")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		// Collection endpoint: /api/calibration
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/activate"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.activate(w, r, id)
		return
	}

	// Item endpoint: /api/calibration/{id}
	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createProfileRequest struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

type profileResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Active    bool            `json:"active"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt string          `json:"created_at"`
}

type listProfilesResponse struct {
	Profiles []profileResponse `json:"profiles"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toProfileResponse converts a store.Profile to a profileResponse.
// Data is only included when withData is set; list responses stay small.
func toProfileResponse(p *store.Profile, withData bool) profileResponse {
	resp := profileResponse{
		ID:        p.ID,
		Name:      p.Name,
		Active:    p.Active,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if withData {
		resp.Data = json.RawMessage(p.Data)
	}
	return resp
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/calibration and returns all profiles.
func (h *CalibrationHandler) list(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.Profiles().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles")
		return
	}

	response := listProfilesResponse{
		Profiles: make([]profileResponse, 0, len(profiles)),
	}
	for _, p := range profiles {
		response.Profiles = append(response.Profiles, toProfileResponse(p, false))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/calibration/{id} and returns a single profile
// including its calibration data.
func (h *CalibrationHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	profile, err := h.store.Profiles().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get profile")
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(profile, true))
}

// create handles POST /api/calibration and stores an externally
// captured calibration record. The payload must decode as a complete
// record; partial records are rejected.
func (h *CalibrationHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	profile := &store.Profile{
		ID:   uuid.New().String(),
		Name: req.Name,
		Data: []byte(req.Data),
	}

	if _, err := profile.Record(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid calibration record")
		return
	}

	if err := h.store.Profiles().Create(profile); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create profile")
		return
	}

	writeJSON(w, http.StatusCreated, toProfileResponse(profile, false))
}

// activate handles POST /api/calibration/{id}/activate and marks the
// profile as the one loaded on startup.
func (h *CalibrationHandler) activate(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Activate(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to activate profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// delete handles DELETE /api/calibration/{id} and removes a profile.
func (h *CalibrationHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Profiles().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete profile")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
