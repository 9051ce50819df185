package proximity

import (
	"context"
	"errors"
	"sync"

	"github.com/Bookineo/BK-Backend/internal/geo"
)

// ErrBoxNotFound is returned by Select for an id that is not in the last
// fetched collection.
var ErrBoxNotFound = errors.New("box not found")

// Selection is the currently selected marker plus the auxiliary data
// backfilled for it. Pointer fields are nil until their lookup resolves.
type Selection struct {
	Box            Box      `json:"box"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
	CreatorName    string   `json:"creator_name,omitempty"`
	VisitCount     *int64   `json:"visit_count,omitempty"`
	AverageRating  *float64 `json:"average_rating,omitempty"`
}

// selectionState guards the single selected record and the per-service
// creator-name cache. Auxiliary results are keyed by box id; a result that
// arrives for a box that is no longer selected is dropped.
type selectionState struct {
	mu      sync.Mutex
	current *Selection
	names   map[string]string
}

func newSelectionState() selectionState {
	return selectionState{names: make(map[string]string)}
}

// Select makes the box with the given id the current selection and kicks
// off the auxiliary lookups (creator name, visit count, average rating).
// The selection is visible immediately; aux fields fill in as lookups
// resolve. Selecting a different box while lookups are in flight simply
// supersedes them: their late results are discarded.
func (s *Service) Select(id string) (Selection, error) {
	box, ok := s.lookupBox(id)
	if !ok {
		return Selection{}, ErrBoxNotFound
	}

	sel := Selection{Box: box}
	if ref := s.Reference(); ref != nil && geo.IsValid(box.Coord.Lat, box.Coord.Lng) {
		d := geo.Distance(*ref, box.Coord)
		sel.DistanceMeters = &d
	}

	s.sel.mu.Lock()
	if name, ok := s.sel.names[box.CreatorID]; ok {
		sel.CreatorName = name
	}
	s.sel.current = &sel
	s.sel.mu.Unlock()

	go s.backfill(box)

	return sel, nil
}

// Dismiss clears the selection. Any in-flight auxiliary results for the
// previously selected box will be dropped when they arrive.
func (s *Service) Dismiss() {
	s.sel.mu.Lock()
	s.sel.current = nil
	s.sel.mu.Unlock()
}

// Selection returns a copy of the current selection, or false if nothing
// is selected.
func (s *Service) Selection() (Selection, bool) {
	s.sel.mu.Lock()
	defer s.sel.mu.Unlock()
	if s.sel.current == nil {
		return Selection{}, false
	}
	return *s.sel.current, true
}

// backfill runs the fire-and-forget auxiliary reads for a selection. Each
// result is applied only if the same box is still selected when it lands.
func (s *Service) backfill(box Box) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.FetchTimeout())
	defer cancel()

	if box.CreatorID != "" {
		s.sel.mu.Lock()
		_, cached := s.sel.names[box.CreatorID]
		s.sel.mu.Unlock()

		if !cached {
			if name, err := s.dir.Username(ctx, box.CreatorID); err == nil {
				s.applyAux(box.ID, func(sel *Selection) {
					sel.CreatorName = name
				})
				s.sel.mu.Lock()
				s.sel.names[box.CreatorID] = name
				s.sel.mu.Unlock()
			}
		}
	}

	if count, err := s.dir.VisitCount(ctx, box.ID); err == nil {
		s.applyAux(box.ID, func(sel *Selection) {
			sel.VisitCount = &count
		})
	}

	if rating, err := s.dir.AverageRating(ctx, box.ID); err == nil {
		s.applyAux(box.ID, func(sel *Selection) {
			sel.AverageRating = rating
		})
	}
}

// applyAux mutates the current selection only if boxID is still selected,
// so late results for a superseded selection are dropped.
func (s *Service) applyAux(boxID string, apply func(*Selection)) {
	s.sel.mu.Lock()
	defer s.sel.mu.Unlock()
	if s.sel.current == nil || s.sel.current.Box.ID != boxID {
		return
	}
	apply(s.sel.current)
}
