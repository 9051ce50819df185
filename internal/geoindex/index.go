// Package geoindex maintains an R-tree over book-box positions for the
// nearby-search endpoint. The tree is rebuilt wholesale from each refresh
// of the directory; queries run a bounding-box prefilter through the tree
// and a haversine post-filter for exact distances.
package geoindex

import (
	"math"
	"sort"
	"sync"

	"github.com/Bookineo/BK-Backend/internal/geo"
	"github.com/dhconnelly/rtreego"
)

const (
	tolerance   = 0.01
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// Entry is one indexed box position.
type Entry struct {
	ID  string
	Lat float64
	Lng float64
}

// Result pairs an entry with its exact distance from the query center.
type Result struct {
	Entry
	DistanceMeters float64
}

type spatialEntry struct {
	Entry
	rect *rtreego.Rect
}

func (e *spatialEntry) Bounds() *rtreego.Rect {
	return e.rect
}

// Index is a thread-safe R-tree over box positions.
type Index struct {
	mu   sync.RWMutex
	tree *rtreego.Rtree
	size int
}

func New() *Index {
	return &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}
}

// Rebuild replaces the whole index with the given entries. Entries with
// invalid coordinates are dropped. The swap is atomic with respect to
// concurrent queries.
func (ix *Index) Rebuild(entries []Entry) {
	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	count := 0
	for _, e := range entries {
		if !geo.IsValid(e.Lat, e.Lng) {
			continue
		}
		rect := rtreego.Point{e.Lat, e.Lng}.ToRect(tolerance)
		tree.Insert(&spatialEntry{Entry: e, rect: rect})
		count++
	}

	ix.mu.Lock()
	ix.tree = tree
	ix.size = count
	ix.mu.Unlock()
}

// Size returns the number of indexed entries.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.size
}

// SearchRadius returns all entries within radiusMeters of center
// (inclusive boundary), sorted by ascending distance.
func (ix *Index) SearchRadius(center geo.Coordinate, radiusMeters float64) ([]Result, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}

	// Bounding box in degrees around the center; the tree prefilter may
	// overshoot, the haversine post-filter is exact.
	deg := (radiusMeters / geo.EarthRadiusMeters) * (180 / math.Pi)
	bounds, err := rtreego.NewRect(
		rtreego.Point{center.Lat - deg, center.Lng - deg},
		[]float64{2 * deg, 2 * deg},
	)
	if err != nil {
		return nil, err
	}

	ix.mu.RLock()
	candidates := ix.tree.SearchIntersect(bounds)
	ix.mu.RUnlock()

	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		item, ok := c.(*spatialEntry)
		if !ok {
			continue
		}
		d := geo.Distance(center, geo.Coordinate{Lat: item.Lat, Lng: item.Lng})
		if d <= radiusMeters {
			results = append(results, Result{Entry: item.Entry, DistanceMeters: d})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})
	return results, nil
}

// Nearest returns up to n entries closest to center, sorted by ascending
// distance.
func (ix *Index) Nearest(center geo.Coordinate, n int) ([]Result, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []Result{}, nil
	}

	ix.mu.RLock()
	neighbors := ix.tree.NearestNeighbors(n, rtreego.Point{center.Lat, center.Lng})
	ix.mu.RUnlock()

	results := make([]Result, 0, len(neighbors))
	for _, nb := range neighbors {
		item, ok := nb.(*spatialEntry)
		if !ok {
			continue
		}
		d := geo.Distance(center, geo.Coordinate{Lat: item.Lat, Lng: item.Lng})
		results = append(results, Result{Entry: item.Entry, DistanceMeters: d})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})
	return results, nil
}
