package models

// GeoPoint represents a geographical point defined by its latitude and longitude.
type GeoPoint struct {
	Latitude  float64 `json:"lat"` // Latitude of the geographical point, in [-90, 90].
	Longitude float64 `json:"lng"` // Longitude of the geographical point, in [-180, 180].
}

// Valid reports whether the point lies within the WGS84 coordinate ranges.
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

// Tile addresses a single cell of the standard slippy-map grid at a given zoom level.
type Tile struct {
	X    int // X is the horizontal tile index.
	Y    int // Y is the vertical tile index.
	Zoom int // Zoom is the map zoom level the indices belong to.
}

// SearchTarget holds the parameters for one provider query: where to look,
// how wide the viewport is, and what to search for.
type SearchTarget struct {
	Point GeoPoint // Point is the viewport center of the query.
	Zoom  int      // Zoom is the viewport zoom level.
	Query string   // Query is the free-text search term, e.g. "restaurants".
	GL    string   // GL is the provider country code, e.g. "eg".
}
