package models

// Place is one extracted place listing. Identity uniquely distinguishes the
// real-world place across overlapping queries; the remaining fields are the
// payload extracted from the provider response and may be partially empty.
type Place struct {
	Identity         string   `json:"-"`
	Name             string   `json:"name"`
	Address          string   `json:"address,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	ReviewsCount     int      `json:"reviews_count,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	Website          string   `json:"website,omitempty"`
	PriceRange       string   `json:"price_range,omitempty"`
	CuisineType      string   `json:"cuisine_type,omitempty"`
	OpeningHours     string   `json:"opening_hours,omitempty"`
	ReviewHighlights []string `json:"review_highlights,omitempty"`
	Images           []string `json:"images,omitempty"`
	Coordinates      GeoPoint `json:"coordinates"`
}
