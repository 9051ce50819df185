// Package proximity implements the proximity map service: the radius
// filter over the box directory, the periodic refresh loop, and the
// marker-selection state the map screen binds to.
package proximity

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Bookineo/BK-Backend/internal/config"
	"github.com/Bookineo/BK-Backend/internal/geo"
)

// State is the refresh scheduler's lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateReady    State = "ready"
	StateError    State = "error"
)

// Box is one book-box record as consumed by the filter. It mirrors the
// directory's book_boxes rows but is immutable here: the service only
// reads, filters, and replaces whole collections.
type Box struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Coord     geo.Coordinate `json:"coord"`
	PhotoURL  string         `json:"photo_url,omitempty"`
	CreatorID string         `json:"creator_id"`
	CreatedAt time.Time      `json:"created_at"`
}

// Directory is the external box directory service.
type Directory interface {
	ListBoxes(ctx context.Context) ([]Box, error)
	Username(ctx context.Context, userID string) (string, error)
	VisitCount(ctx context.Context, boxID string) (int64, error)
	AverageRating(ctx context.Context, boxID string) (*float64, error)
}

// LocationProvider supplies the reference coordinate on demand.
type LocationProvider interface {
	CurrentCoordinate(ctx context.Context) (geo.Coordinate, error)
}

// ErrLocationUnavailable is returned by location providers that have no
// coordinate to give (permission denied, origin not configured). The
// service treats it as "no reference yet", not as a fatal error.
var ErrLocationUnavailable = errors.New("location unavailable")

// StaticLocation is a LocationProvider pinned to a configured origin.
// A nil Coord reports ErrLocationUnavailable.
type StaticLocation struct {
	Coord *geo.Coordinate
}

func (s StaticLocation) CurrentCoordinate(ctx context.Context) (geo.Coordinate, error) {
	if s.Coord == nil {
		return geo.Coordinate{}, ErrLocationUnavailable
	}
	return *s.Coord, nil
}

// Snapshot is the published view of the service: the radius-bounded subset
// of the last completed fetch, plus freshness bookkeeping.
type Snapshot struct {
	State     State     `json:"state"`
	Boxes     []Box     `json:"boxes"`
	FetchedAt time.Time `json:"fetched_at"`
	// Stale is set when the most recent fetch failed and Boxes still
	// reflects an earlier successful fetch.
	Stale bool `json:"stale"`
}

// Service owns the full record collection and the reference coordinate;
// both are replaced wholesale, never mutated in place, and read through
// copies. Single writer (the refresh loop plus explicit SetReference),
// many readers.
type Service struct {
	dir Directory
	loc LocationProvider
	cfg config.Map

	// OnFetch, when set, receives the full (unfiltered) collection after
	// each successful fetch. Used to rebuild the nearby-search index.
	OnFetch func([]Box)

	mu        sync.RWMutex
	state     State
	ref       *geo.Coordinate
	all       []Box
	visible   []Box
	fetchedAt time.Time
	stale     bool

	fetching atomic.Bool // single-flight guard

	cancel context.CancelFunc
	done   chan struct{}

	sel selectionState
}

// NewService wires the service to its collaborators. Nothing runs until
// Start.
func NewService(dir Directory, loc LocationProvider, cfg config.Map) *Service {
	return &Service{
		dir:   dir,
		loc:   loc,
		cfg:   cfg,
		state: StateIdle,
		sel:   newSelectionState(),
	}
}

// Start acquires the reference coordinate once, performs an initial fetch,
// and then refreshes on a fixed ticker until ctx is canceled or Stop is
// called. It does not block.
func (s *Service) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx)
}

// Stop cancels the refresh loop and waits for it to exit. Safe to call
// once after Start.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	locCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout())
	coord, err := s.loc.CurrentCoordinate(locCtx)
	cancel()
	if err != nil {
		// No coordinate: keep going with an empty snapshot until one is
		// posted via SetReference.
		log.Printf("[map] location unavailable: %v", err)
	} else {
		s.SetReference(coord)
	}

	s.Refresh(ctx)

	ticker := time.NewTicker(s.cfg.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Refresh performs one fetch-and-filter pass. If another fetch is already
// outstanding the call is skipped: at most one fetch is in flight at any
// instant.
func (s *Service) Refresh(ctx context.Context) {
	if !s.fetching.CompareAndSwap(false, true) {
		return
	}
	defer s.fetching.Store(false)

	s.mu.Lock()
	s.state = StateFetching
	s.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout())
	boxes, err := s.dir.ListBoxes(fetchCtx)
	cancel()

	if err != nil {
		// Stale-but-valid beats an empty map: keep the previous collection
		// and snapshot, retry on the next tick.
		s.mu.Lock()
		s.state = StateError
		s.stale = !s.fetchedAt.IsZero()
		s.mu.Unlock()
		log.Printf("[map] refresh failed: %v", err)
		return
	}

	s.mu.Lock()
	s.all = boxes
	s.visible = FilterWithin(s.ref, s.cfg.RadiusMeters, boxes)
	s.state = StateReady
	s.fetchedAt = time.Now()
	s.stale = false
	s.mu.Unlock()

	if s.OnFetch != nil {
		s.OnFetch(boxes)
	}
}

// SetReference replaces the reference coordinate and refilters the current
// collection against it.
func (s *Service) SetReference(coord geo.Coordinate) error {
	if err := coord.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	c := coord
	s.ref = &c
	s.visible = FilterWithin(s.ref, s.cfg.RadiusMeters, s.all)
	s.mu.Unlock()
	return nil
}

// Reference returns the current reference coordinate, or nil if none has
// been obtained yet.
func (s *Service) Reference() *geo.Coordinate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ref == nil {
		return nil
	}
	c := *s.ref
	return &c
}

// Snapshot returns the current proximity snapshot. The returned slice is a
// copy; callers can hold it across refreshes.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	boxes := make([]Box, len(s.visible))
	copy(boxes, s.visible)

	return Snapshot{
		State:     s.state,
		Boxes:     boxes,
		FetchedAt: s.fetchedAt,
		Stale:     s.stale,
	}
}

// lookupBox finds a record in the last fetched full collection.
func (s *Service) lookupBox(id string) (Box, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.all {
		if b.ID == id {
			return b, true
		}
	}
	return Box{}, false
}
