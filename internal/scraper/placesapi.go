package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mapgrid/placescout/internal/models"
	"github.com/mapgrid/placescout/internal/tiling"
	"googlemaps.github.io/maps"
)

// PlacesAPIFetcher implements Fetcher on top of the official Places
// Text Search API. It trades the scraped endpoint's free access for
// stable provider-assigned place identities.
type PlacesAPIFetcher struct {
	client PlacesAPIClient // client is the Places API client
	log    *slog.Logger    // log is the logger for logging operations
}

type PlacesAPIClient interface {
	TextSearch(ctx context.Context, r *maps.TextSearchRequest) (maps.PlacesSearchResponse, error)
}

// NewPlacesAPIFetcher creates a Places API backed fetcher with the given client.
func NewPlacesAPIFetcher(client PlacesAPIClient, log *slog.Logger) *PlacesAPIFetcher {
	return &PlacesAPIFetcher{client: client, log: log}
}

// Fetch runs one text search biased to the target viewport. The search radius
// follows the viewport: half a tile width at the target zoom.
func (pf *PlacesAPIFetcher) Fetch(ctx context.Context, target models.SearchTarget) ([]RawPlace, error) {
	pf.log.DebugContext(ctx, "Fetching places via Places API",
		"query", target.Query, "lat", target.Point.Latitude, "lng", target.Point.Longitude)

	req := &maps.TextSearchRequest{
		Query:  target.Query,
		Region: target.GL,
		Location: &maps.LatLng{
			Lat: target.Point.Latitude,
			Lng: target.Point.Longitude,
		},
		Radius: uint(tiling.TileWidthKM(target.Zoom) * 1000 / 2),
	}

	resp, err := pf.client.TextSearch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search places: %w", err)
	}

	places := make([]RawPlace, 0, len(resp.Results))
	for _, result := range resp.Results {
		places = append(places, apiRawPlace{result: result})
	}

	return places, nil
}

// apiRawPlace wraps one Places API result. The provider assigns the identity.
type apiRawPlace struct {
	result maps.PlacesSearchResult
}

func (r apiRawPlace) Identity() string {
	return r.result.PlaceID
}

func (r apiRawPlace) Place() models.Place {
	place := models.Place{
		Identity:     r.result.PlaceID,
		Name:         r.result.Name,
		Address:      r.result.FormattedAddress,
		Rating:       float64(r.result.Rating),
		ReviewsCount: r.result.UserRatingsTotal,
		Coordinates: models.GeoPoint{
			Latitude:  r.result.Geometry.Location.Lat,
			Longitude: r.result.Geometry.Location.Lng,
		},
	}

	if r.result.PriceLevel >= 1 && r.result.PriceLevel <= 4 {
		place.PriceRange = strings.Repeat("$", r.result.PriceLevel)
	}
	if len(r.result.Types) > 0 {
		place.CuisineType = r.result.Types[0]
	}

	return place
}
