package search

import (
	"errors"

	"github.com/google/uuid"
	"github.com/mapgrid/placescout/internal/models"
	"github.com/mapgrid/placescout/internal/scraper"
)

// Strategy is the top-level search plan chosen for a session.
type Strategy string

const (
	// StrategySingleQuery issues one query at the requested viewport.
	StrategySingleQuery Strategy = "single_query"
	// StrategyMultiZoom sweeps tiles across multiple zoom levels.
	StrategyMultiZoom Strategy = "multi_zoom"
)

// Validation errors for run parameters. All are rejected before any query is issued.
var (
	ErrInvalidTargetCount = errors.New("target count must be at least 1")
	ErrInvalidRadius      = errors.New("search radius must be greater than zero")
	ErrInvalidCoordinates = errors.New("center coordinates are out of range")
	ErrEmptyQuery         = errors.New("search query must not be empty")
)

// Params are the inputs of one search run.
type Params struct {
	Center      models.GeoPoint // Center is the geographic middle of the search area.
	Query       string          // Query is the free-text search term.
	TargetCount int             // TargetCount is the number of unique places to collect.
	RadiusKM    float64         // RadiusKM bounds the search area around Center.
	MinZoom     int             // MinZoom is the coarsest zoom level to consider.
	GL          string          // GL is the provider country code.
	ZoomLevels  []int           // ZoomLevels overrides the planned zoom sequence when non-empty.
}

// Validate rejects malformed parameters before any query is issued.
func (p Params) Validate() error {
	switch {
	case p.TargetCount < 1:
		return ErrInvalidTargetCount
	case p.RadiusKM <= 0:
		return ErrInvalidRadius
	case !p.Center.Valid():
		return ErrInvalidCoordinates
	case p.Query == "":
		return ErrEmptyQuery
	default:
		return nil
	}
}

// Session accumulates the unique results of one search run. The identity set
// and result order are owned by the single orchestrator flow; independent
// sessions never share state.
type Session struct {
	ID       uuid.UUID      // ID identifies the run in logs, output and storage.
	Params   Params         // Params echo the run inputs for reporting.
	Strategy Strategy       // Strategy chosen for the run.
	Results  []models.Place // Results in discovery order, no duplicate identities.

	seen map[string]struct{}
}

// NewSession creates an empty session for the given parameters.
func NewSession(params Params) *Session {
	return &Session{
		ID:     uuid.New(),
		Params: params,
		seen:   make(map[string]struct{}),
	}
}

// Offer records a raw result if its identity has not been seen this session.
// It returns true and appends the extracted place on first sight, false with
// no mutation otherwise. The identity check never triggers full extraction.
func (s *Session) Offer(raw scraper.RawPlace) bool {
	identity := raw.Identity()
	if _, ok := s.seen[identity]; ok {
		return false
	}

	s.seen[identity] = struct{}{}
	s.Results = append(s.Results, raw.Place())

	return true
}

// Full reports whether the session reached its target count.
func (s *Session) Full() bool {
	return len(s.Results) >= s.Params.TargetCount
}

// Truncate caps the result list at the target count. Excess results from the
// final fetch batch are dropped so the session never exceeds its target.
func (s *Session) Truncate() {
	if len(s.Results) > s.Params.TargetCount {
		s.Results = s.Results[:s.Params.TargetCount]
	}
}
