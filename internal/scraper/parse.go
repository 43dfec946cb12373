package scraper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mapgrid/placescout/internal/models"
)

// ErrMalformedResponse is returned when the response body cannot be decoded
// into the expected nested-array payload at all. A decoded payload that simply
// contains no places is not an error.
var ErrMalformedResponse = errors.New("response payload is not a place listing structure")

// webRawPlace wraps one entry of the listing payload. The interesting fields
// all live under index 14 of the entry; everything is navigated lazily so the
// identity can be derived without extracting the full record.
type webRawPlace struct {
	detail []any
}

// Identity derives the deduplication key from the place name and address,
// the only two fields stable across overlapping viewport queries.
func (r webRawPlace) Identity() string {
	return placeName(r.detail) + "_" + placeAddress(r.detail)
}

// Place extracts the full payload of the result.
func (r webRawPlace) Place() models.Place {
	d := r.detail
	place := models.Place{
		Identity:         r.Identity(),
		Name:             placeName(d),
		Address:          placeAddress(d),
		PriceRange:       placePriceRange(d),
		CuisineType:      asString(at(d, 13, 0)),
		Phone:            placePhones(d),
		Website:          placeWebsite(d),
		OpeningHours:     placeOpeningHours(d),
		ReviewHighlights: placeHighlights(d),
		Images:           placeImages(d),
	}

	if rating, ok := asFloat(at(d, 4, 7)); ok && rating >= 0 && rating <= 5 {
		place.Rating = rating
	}
	if count, ok := asFloat(at(d, 4, 8)); ok {
		place.ReviewsCount = int(count)
	}
	if lat, ok := asFloat(at(d, 9, 2)); ok && lat >= -90 && lat <= 90 {
		place.Coordinates.Latitude = lat
	}
	if lng, ok := asFloat(at(d, 9, 3)); ok && lng >= -180 && lng <= 180 {
		place.Coordinates.Longitude = lng
	}

	return place
}

// extractPlaces decodes a raw response body into its place results.
// Results without a recognizable name are dropped, matching the endpoint's
// habit of padding the listing array with ads and separators.
func extractPlaces(body []byte) ([]RawPlace, error) {
	payload, err := cleanPayload(body)
	if err != nil {
		return nil, err
	}

	entries, ok := at(payload, 0, 1).([]any)
	if !ok {
		return nil, nil
	}

	var places []RawPlace
	for _, entry := range entries {
		detail, ok := at(entry, 14).([]any)
		if !ok {
			continue
		}
		if placeName(detail) == "" {
			continue
		}
		places = append(places, webRawPlace{detail: detail})
	}

	return places, nil
}

// cleanPayload strips the anti-JSON prefix the endpoint prepends and decodes
// the remaining nested-array structure.
func cleanPayload(body []byte) (any, error) {
	body = bytes.TrimPrefix(body, []byte(")]}'\n"))
	body = bytes.TrimPrefix(body, []byte(")]}"))

	start := bytes.IndexByte(body, '[')
	if start == -1 {
		return nil, ErrMalformedResponse
	}

	var payload any
	if err := json.Unmarshal(body[start:], &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	return payload, nil
}

// at safely indexes into a nested array structure, returning nil when any
// step of the path is missing or not an array.
func at(data any, path ...int) any {
	for _, idx := range path {
		list, ok := data.([]any)
		if !ok || idx < 0 || idx >= len(list) {
			return nil
		}
		data = list[idx]
	}

	return data
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

func placeName(detail []any) string {
	if name := asString(at(detail, 11)); looksLikeName(name) {
		return name
	}

	// The name occasionally drifts to a neighboring index; take the first
	// string that is not an internal id, URL or address fragment.
	for _, v := range detail {
		if s, ok := v.(string); ok && looksLikeName(s) {
			return s
		}
	}

	return ""
}

func looksLikeName(s string) bool {
	if s == "" || len(s) >= 100 {
		return false
	}

	return !strings.Contains(s, "0x") && !strings.Contains(s, "http") && !strings.Contains(s, ":")
}

func placeAddress(detail []any) string {
	parts, ok := at(detail, 2).([]any)
	if !ok {
		return ""
	}

	fragments := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := asString(part); s != "" {
			fragments = append(fragments, s)
		}
	}

	return strings.Join(fragments, ", ")
}

func placePriceRange(detail []any) string {
	for _, path := range [][]int{{4, 2}, {4, 4}} {
		switch v := at(detail, path...).(type) {
		case string:
			if strings.Contains(v, "$") {
				return v
			}
		case float64:
			if v >= 1 && v <= 4 {
				return strings.Repeat("$", int(v))
			}
		}
	}

	return ""
}

func placePhones(detail []any) string {
	entries, ok := at(detail, 178).([]any)
	if !ok {
		return ""
	}

	var numbers []string
	for _, entry := range entries {
		phone := asString(at(entry, 0))
		if phone == "" {
			phone = asString(at(entry, 3))
		}
		if phone = strings.TrimSpace(phone); phone != "" {
			numbers = append(numbers, phone)
		}
	}

	return strings.Join(numbers, " | ")
}

func placeWebsite(detail []any) string {
	for _, path := range [][]int{{7, 0}, {7, 1}} {
		if s := asString(at(detail, path...)); strings.Contains(s, "http") || strings.Contains(s, "www.") {
			return s
		}
	}

	return ""
}

func placeOpeningHours(detail []any) string {
	days, ok := at(detail, 34, 1).([]any)
	if !ok {
		return ""
	}

	var lines []string
	for _, day := range days {
		name := asString(at(day, 0))
		slots, ok := at(day, 1).([]any)
		if name == "" || !ok {
			continue
		}

		var times []string
		for _, slot := range slots {
			if s := asString(slot); s != "" {
				times = append(times, s)
			}
		}
		if len(times) > 0 {
			lines = append(lines, name+": "+strings.Join(times, ", "))
		}
	}

	return strings.Join(lines, "; ")
}

func placeHighlights(detail []any) []string {
	items, ok := at(detail, 88).([]any)
	if !ok {
		return nil
	}

	name := placeName(detail)
	seen := make(map[string]bool)

	var highlights []string
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)

		if len(s) <= 2 || s == name || strings.HasPrefix(s, "SearchResult.TYPE_") || seen[s] {
			continue
		}
		seen[s] = true
		highlights = append(highlights, s)
	}

	return highlights
}

func placeImages(detail []any) []string {
	if u := asString(at(detail, 72, 0, 0, 6, 0)); strings.Contains(u, "googleusercontent") {
		return []string{u}
	}

	return nil
}
