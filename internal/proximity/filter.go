package proximity

import "github.com/Bookineo/BK-Backend/internal/geo"

// FilterWithin returns the records whose distance from ref is at most
// radiusMeters (inclusive boundary), preserving the relative order of the
// input. A nil reference yields an empty, non-nil slice: the map simply
// shows nothing until a coordinate is known. Records with malformed
// coordinates are skipped rather than failing the pass. The input slice is
// never mutated.
func FilterWithin(ref *geo.Coordinate, radiusMeters float64, records []Box) []Box {
	out := make([]Box, 0, len(records))
	if ref == nil {
		return out
	}

	for _, rec := range records {
		if !geo.IsValid(rec.Coord.Lat, rec.Coord.Lng) {
			continue
		}
		if geo.Distance(*ref, rec.Coord) <= radiusMeters {
			out = append(out, rec)
		}
	}
	return out
}
