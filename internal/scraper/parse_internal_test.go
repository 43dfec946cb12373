package scraper

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listingEntry assembles one payload entry the way the endpoint lays it out:
// the place detail array sits at index 14 of the entry.
func listingEntry(detail []any) []any {
	entry := make([]any, 15)
	entry[14] = detail

	return entry
}

// placeDetail builds a detail array with the given name at index 11 and
// address fragments at index 2.
func placeDetail(name string, addressParts ...any) []any {
	detail := make([]any, 15)
	detail[11] = name
	detail[2] = addressParts

	return detail
}

// listingBody serializes entries into a response body with the anti-JSON prefix.
func listingBody(t *testing.T, entries ...any) []byte {
	t.Helper()

	payload := []any{[]any{nil, entries}}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	return append([]byte(")]}'\n"), raw...)
}

func TestExtractPlaces(t *testing.T) {
	t.Parallel()

	t.Run("extracts name, address and identity", func(t *testing.T) {
		t.Parallel()

		body := listingBody(t,
			listingEntry(placeDetail("Koshary El Tahrir", "Tahrir Square", "Cairo")),
			listingEntry(placeDetail("Abou Tarek", "Champollion St", "Cairo")),
		)

		places, err := extractPlaces(body)

		require.NoError(t, err)
		require.Len(t, places, 2)

		first := places[0].Place()
		assert.Equal(t, "Koshary El Tahrir", first.Name)
		assert.Equal(t, "Tahrir Square, Cairo", first.Address)
		assert.Equal(t, "Koshary El Tahrir_Tahrir Square, Cairo", places[0].Identity())
	})

	t.Run("identity without full extraction", func(t *testing.T) {
		t.Parallel()

		body := listingBody(t, listingEntry(placeDetail("Sea Gull", "Corniche")))

		places, err := extractPlaces(body)

		require.NoError(t, err)
		require.Len(t, places, 1)
		assert.Equal(t, "Sea Gull_Corniche", places[0].Identity())
	})

	t.Run("extracts rating, reviews and coordinates", func(t *testing.T) {
		t.Parallel()

		detail := placeDetail("Balbaa Village", "Miami", "Alexandria")

		rating := make([]any, 9)
		rating[7] = 4.3
		rating[8] = float64(2841)
		detail[4] = rating

		coords := make([]any, 4)
		coords[2] = 31.264
		coords[3] = 29.989
		detail[9] = coords

		cuisine := []any{"Seafood restaurant"}
		detail[13] = cuisine

		body := listingBody(t, listingEntry(detail))

		places, err := extractPlaces(body)

		require.NoError(t, err)
		require.Len(t, places, 1)

		place := places[0].Place()
		assert.InEpsilon(t, 4.3, place.Rating, 1e-9)
		assert.Equal(t, 2841, place.ReviewsCount)
		assert.InEpsilon(t, 31.264, place.Coordinates.Latitude, 1e-9)
		assert.InEpsilon(t, 29.989, place.Coordinates.Longitude, 1e-9)
		assert.Equal(t, "Seafood restaurant", place.CuisineType)
	})

	t.Run("name drifts away from its usual index", func(t *testing.T) {
		t.Parallel()

		detail := placeDetail("0x14f5dab5:0x9bc", "Stanley")
		detail[12] = "Stanley Bridge Cafe"

		body := listingBody(t, listingEntry(detail))

		places, err := extractPlaces(body)

		require.NoError(t, err)
		require.Len(t, places, 1)
		assert.Equal(t, "Stanley Bridge Cafe", places[0].Place().Name)
	})

	t.Run("entries without a recognizable name are dropped", func(t *testing.T) {
		t.Parallel()

		body := listingBody(t,
			listingEntry(placeDetail("", "Somewhere")),
			listingEntry(placeDetail("Real Place", "Street 9")),
			"not an entry at all",
		)

		places, err := extractPlaces(body)

		require.NoError(t, err)
		require.Len(t, places, 1)
		assert.Equal(t, "Real Place", places[0].Place().Name)
	})

	t.Run("payload without a listing is zero results", func(t *testing.T) {
		t.Parallel()

		places, err := extractPlaces([]byte(")]}'\n[[null,null]]"))

		require.NoError(t, err)
		assert.Empty(t, places)
	})

	t.Run("undecodable payload is malformed", func(t *testing.T) {
		t.Parallel()

		_, err := extractPlaces([]byte("<html>blocked</html>"))
		require.ErrorIs(t, err, ErrMalformedResponse)

		_, err = extractPlaces([]byte(")]}'\n[truncated"))
		require.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("prefix variants are stripped", func(t *testing.T) {
		t.Parallel()

		payload := []any{[]any{nil, []any{listingEntry(placeDetail("Prefix Test", "Road"))}}}
		raw, err := json.Marshal(payload)
		require.NoError(t, err)

		for _, prefix := range []string{")]}'\n", ")]}", ""} {
			places, err := extractPlaces(append([]byte(prefix), raw...))

			require.NoError(t, err)
			assert.Len(t, places, 1)
		}
	})
}

func TestPlaceExtras(t *testing.T) {
	t.Parallel()

	detail := placeDetail("Extras Cafe", "Main Road")

	phones := []any{
		[]any{"+20 3 555 0101"},
		[]any{nil, nil, nil, "+2035550102"},
	}
	grow := make([]any, 179)
	copy(grow, detail)
	grow[178] = phones
	detail = grow

	website := make([]any, 2)
	website[0] = "https://extras.example.com"
	detail[7] = website

	hours := make([]any, 2)
	hours[1] = []any{
		[]any{"Monday", []any{"9 AM–11 PM"}},
		[]any{"Tuesday", []any{"9 AM–11 PM"}},
	}
	detail[34] = hours

	rating := make([]any, 9)
	rating[2] = 2.0
	detail[4] = rating

	place := webRawPlace{detail: detail}.Place()

	assert.Equal(t, "+20 3 555 0101 | +2035550102", place.Phone)
	assert.Equal(t, "https://extras.example.com", place.Website)
	assert.Equal(t, "Monday: 9 AM–11 PM; Tuesday: 9 AM–11 PM", place.OpeningHours)
	assert.Equal(t, "$$", place.PriceRange)
}
