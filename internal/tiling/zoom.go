package tiling

// Provider-imposed usable zoom range: below 14 the viewport is too wide for
// the listing endpoint to return area results, above 18 queries stop adding detail.
const (
	MinUsableZoom = 14
	MaxUsableZoom = 18
)

// farExceedFactor drops a zoom level whose tile width exceeds the requested
// radius this many times over. Tuned against the regression cases, not derived.
const farExceedFactor = 8.0

// PlanZooms returns the ascending sequence of zoom levels to search for the
// given radius, starting at the coarsest usable level at or above minZoom.
// Levels whose tiles dwarf the requested radius are skipped as wasted queries.
// The same inputs always produce the same plan.
func PlanZooms(radiusKM float64, minZoom int) []int {
	start := minZoom
	if start < MinUsableZoom {
		start = MinUsableZoom
	}
	if start > MaxUsableZoom {
		start = MaxUsableZoom
	}

	var levels []int
	for zoom := start; zoom <= MaxUsableZoom; zoom++ {
		if TileWidthKM(zoom) > radiusKM*farExceedFactor {
			continue
		}
		levels = append(levels, zoom)
	}

	// The finest level always remains searchable, whatever the radius.
	if len(levels) == 0 {
		levels = []int{MaxUsableZoom}
	}

	return levels
}
