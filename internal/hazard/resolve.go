package hazard

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
)

// Drought resolves the SPI drought category at (lat, lon) from the nearest
// survey point. Distance is squared Euclidean in degrees; ties go to the
// point listed first. It never fails: missing data yields an unavailable
// assessment with a provenance label.
func (s *Store) Drought(lat, lon float64) domain.DroughtAssessment {
	points, err := s.droughtPoints()
	if err != nil || len(points) == 0 {
		s.lookup(DatasetDrought, "unavailable")
		return domain.UnavailableDrought(domain.SourceUnavailable)
	}

	query := orb.Point{lon, lat}
	nearest := 0
	best := planar.DistanceSquared(query, points[0].Coord)
	for i := 1; i < len(points); i++ {
		if d := planar.DistanceSquared(query, points[i].Coord); d < best {
			best = d
			nearest = i
		}
	}

	p := points[nearest]
	for _, w := range domain.SPIPriority {
		spi, ok := p.SPI[w]
		if !ok {
			continue
		}
		s.lookup(DatasetDrought, "hit")
		return domain.DroughtAssessment{
			Available:  true,
			SPI:        &spi,
			Window:     w,
			Category:   domain.CategorizeSPI(spi),
			PointLabel: p.Label,
			Source:     domain.SourceDroughtIndex,
		}
	}

	s.lookup(DatasetDrought, "no_value")
	a := domain.UnavailableDrought(domain.SourceNoIndexValue)
	a.PointLabel = p.Label
	return a
}

// Watershed returns the first basin whose polygon contains (lat, lon).
// Points on a polygon edge count as inside.
func (s *Store) Watershed(lat, lon float64) domain.BasinAssessment {
	basins, err := s.basins()
	if err != nil {
		s.lookup(DatasetWatershed, "unavailable")
		return domain.UnavailableBasin(domain.SourceUnavailable)
	}

	query := orb.Point{lon, lat}
	for _, b := range basins {
		if !contains(b.Geometry, query) {
			continue
		}
		s.lookup(DatasetWatershed, "hit")
		return domain.BasinAssessment{
			Available: true,
			Name:      b.Name,
			ID:        b.ID,
			Stress:    b.Stress,
			Source:    domain.SourceBasinDataset,
		}
	}

	s.lookup(DatasetWatershed, "no_match")
	return domain.UnavailableBasin(domain.SourceNoContainingArea)
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, p)
	default:
		return false
	}
}

func (s *Store) lookup(dataset, outcome string) {
	s.metrics.HazardLookups.WithLabelValues(dataset, outcome).Inc()
}
