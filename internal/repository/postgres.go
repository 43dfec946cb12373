package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mapgrid/placescout/internal/models"
)

// SaveRun records the summary of one finished search run.
//
// Parameters:
// - ctx: The context for the operation, allowing for cancellation and timeout.
// - run: The run summary to persist.
//
// Returns an error if the insert fails.
func (s *Store) SaveRun(ctx context.Context, run RunRecord) error {
	query := `
		INSERT INTO search_runs (run_id, query, latitude, longitude, radius_km, target_count, results_count, strategy)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`

	_, err := s.db.Exec(ctx, query,
		run.ID, run.Query, run.Center.Latitude, run.Center.Longitude,
		run.RadiusKM, run.TargetCount, run.ResultsCount, run.Strategy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert search run: %w", err)
	}

	return nil
}

// SavePlaces upserts the collected places of a run, keyed by place identity.
// A place seen by an earlier run keeps its row; the payload fields and the
// last run reference are refreshed.
func (s *Store) SavePlaces(ctx context.Context, runID uuid.UUID, places []models.Place) error {
	query := `
		INSERT INTO places (identity, name, address, rating, reviews_count, phone, website, latitude, longitude, last_run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (identity) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			rating = EXCLUDED.rating,
			reviews_count = EXCLUDED.reviews_count,
			phone = EXCLUDED.phone,
			website = EXCLUDED.website,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			last_run_id = EXCLUDED.last_run_id;
	`

	for _, place := range places {
		_, err := s.db.Exec(ctx, query,
			place.Identity, place.Name, place.Address, place.Rating, place.ReviewsCount,
			place.Phone, place.Website, place.Coordinates.Latitude, place.Coordinates.Longitude, runID,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert place %q: %w", place.Identity, err)
		}

		s.log.DebugContext(ctx, "Stored place", "identity", place.Identity, "run", runID)
	}

	return nil
}
