package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mapgrid/placescout/internal/models"
	"github.com/mapgrid/placescout/internal/search"
)

// Report is the serialized result of one search run: the echoed input
// parameters, the result count and the places in discovery order.
type Report struct {
	RunID            string         `json:"run_id"`
	SearchParameters Parameters     `json:"search_parameters"`
	Strategy         string         `json:"strategy"`
	ResultsCount     int            `json:"results_count"`
	Places           []models.Place `json:"places"`
}

// Parameters echo the run inputs for downstream consumers.
type Parameters struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Zoom       int     `json:"zoom"`
	Query      string  `json:"query"`
	MaxResults int     `json:"max_results"`
	GL         string  `json:"gl"`
	RadiusKM   float64 `json:"search_radius_km"`
}

// NewReport builds the report for a finished session.
func NewReport(session *search.Session) Report {
	return Report{
		RunID: session.ID.String(),
		SearchParameters: Parameters{
			Lat:        session.Params.Center.Latitude,
			Lng:        session.Params.Center.Longitude,
			Zoom:       session.Params.MinZoom,
			Query:      session.Params.Query,
			MaxResults: session.Params.TargetCount,
			GL:         session.Params.GL,
			RadiusKM:   session.Params.RadiusKM,
		},
		Strategy:     string(session.Strategy),
		ResultsCount: len(session.Results),
		Places:       session.Results,
	}
}

// Write serializes the report as indented JSON to the given file, or to
// stdout when path is empty.
func Write(report Report, path string) error {
	var dst io.Writer = os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		dst = file
	}

	enc := json.NewEncoder(dst)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	return nil
}
