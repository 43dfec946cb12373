package tiling

import (
	"log/slog"
	"math"
	"slices"

	"github.com/mapgrid/placescout/internal/models"
	"github.com/umahmood/haversine"
)

// earthCircumferenceKM is the equatorial circumference used for the slippy-map
// tile width formula: one tile side at zoom z spans earthCircumference / 2^z.
const earthCircumferenceKM = 40075.017

// Generator produces ordered tile plans covering a circular search area.
type Generator struct {
	log *slog.Logger // Logger for logging tile plan details
}

// NewGenerator creates a tile generator that logs plan statistics to the given logger.
func NewGenerator(log *slog.Logger) *Generator {
	return &Generator{log: log}
}

// TileWidthKM returns the ground width in kilometers of one tile side at the given zoom.
func TileWidthKM(zoom int) float64 {
	return earthCircumferenceKM / math.Exp2(float64(zoom))
}

// PointToTile converts a geographic point to the tile containing it,
// using the standard Web Mercator projection.
func PointToTile(p models.GeoPoint, zoom int) models.Tile {
	latRad := p.Latitude * math.Pi / 180
	n := math.Exp2(float64(zoom))
	x := int((p.Longitude + 180) / 360 * n)
	y := int((1 - math.Asinh(math.Tan(latRad))/math.Pi) / 2 * n)

	return models.Tile{X: x, Y: y, Zoom: zoom}
}

// TileCenter returns the geographic center of a tile.
func TileCenter(t models.Tile) models.GeoPoint {
	n := math.Exp2(float64(t.Zoom))
	lng := (float64(t.X)+0.5)/n*360 - 180
	latRad := math.Atan(math.Sinh(math.Pi * (1 - 2*(float64(t.Y)+0.5)/n)))

	return models.GeoPoint{Latitude: latRad * 180 / math.Pi, Longitude: lng}
}

// Distance returns the great-circle distance in kilometers between two points.
func Distance(a, b models.GeoPoint) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Latitude, Lon: a.Longitude},
		haversine.Coord{Lat: b.Latitude, Lon: b.Longitude},
	)

	return km
}

// Generate enumerates the tiles covering a circle of radiusKM around center at
// the given zoom, ordered nearest-to-center first. Candidates come from the
// bounding square of the circle; a candidate is kept when its center lies
// within radiusKM plus one tile width, so coverage has no gaps at the boundary.
// Ties on distance break by (x, y) ascending to keep the order deterministic.
// The tile containing the center is always part of the result.
func (g *Generator) Generate(center models.GeoPoint, radiusKM float64, zoom int) []models.Tile {
	width := TileWidthKM(zoom)
	span := int(math.Ceil(radiusKM / width))
	if span < 1 {
		span = 1
	}

	origin := PointToTile(center, zoom)

	type candidate struct {
		tile models.Tile
		dist float64
	}

	candidates := make([]candidate, 0, (2*span+1)*(2*span+1))
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			tile := models.Tile{X: origin.X + dx, Y: origin.Y + dy, Zoom: zoom}
			dist := Distance(center, TileCenter(tile))

			if dist > radiusKM+width && tile != origin {
				continue
			}

			candidates = append(candidates, candidate{tile: tile, dist: dist})
		}
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		case a.tile.X != b.tile.X:
			return a.tile.X - b.tile.X
		default:
			return a.tile.Y - b.tile.Y
		}
	})

	tiles := make([]models.Tile, len(candidates))
	for i, c := range candidates {
		tiles[i] = c.tile
	}

	g.log.Debug("Generated tile plan",
		"zoom", zoom, "radius_km", radiusKM, "tile_width_km", width, "tiles", len(tiles))

	return tiles
}
