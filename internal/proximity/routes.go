package proximity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Bookineo/BK-Backend/internal/geo"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes exposes the map service over HTTP. The mobile client polls
// /snapshot, posts its device location, and drives marker selection.
func SetupRoutes(svc *Service) http.Handler {
	r := chi.NewRouter()

	r.Get("/snapshot", svc.SnapshotHandler)
	r.Post("/location", svc.LocationHandler)
	r.Post("/select", svc.SelectHandler)
	r.Delete("/select", svc.DismissHandler)
	r.Get("/selection", svc.SelectionHandler)

	return r
}

func (s *Service) SnapshotHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	if snap.Stale {
		w.Header().Set("X-Data-Status", "stale")
	}
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// LocationHandler updates the reference coordinate from the device.
func (s *Service) LocationHandler(w http.ResponseWriter, r *http.Request) {
	var input geo.Coordinate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.SetReference(input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Service) SelectHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		BoxID string `json:"box_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.BoxID == "" {
		http.Error(w, "box_id is required", http.StatusBadRequest)
		return
	}

	sel, err := s.Select(input.BoxID)
	if err != nil {
		if errors.Is(err, ErrBoxNotFound) {
			http.Error(w, "Box not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to select box", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sel); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (s *Service) DismissHandler(w http.ResponseWriter, r *http.Request) {
	s.Dismiss()
	w.WriteHeader(http.StatusOK)
}

func (s *Service) SelectionHandler(w http.ResponseWriter, r *http.Request) {
	sel, ok := s.Selection()
	if !ok {
		http.Error(w, "No selection", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sel); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
