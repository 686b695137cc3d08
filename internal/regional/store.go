// Package regional matches a location against the optional regional tables
// (water resources, drought risk, agricultural context) and merges the hits
// into a domain.RegionalIntelligence record.
package regional

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/irrigation-decision-service/internal/dataset"
	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/observability"
)

// DefaultTolerance is the coordinate match window in degrees.
const DefaultTolerance = 0.5

// Datasets lists the regional tables in load order.
var Datasets = []string{domain.DatasetWaterResources, domain.DatasetDroughtRisk, domain.DatasetAgricultural}

type table struct {
	once sync.Once
	rows []row
	path string
	err  error
}

// Store loads each regional table once and matches locations against it.
type Store struct {
	dir       string
	tolerance float64
	tables    map[string]*table
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewStore creates a Store reading tables from dir. A non-positive tolerance
// uses DefaultTolerance.
func NewStore(dir string, tolerance float64, logger *slog.Logger, metrics *observability.Metrics) *Store {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	tables := make(map[string]*table, len(Datasets))
	for _, name := range Datasets {
		tables[name] = &table{}
	}
	return &Store{
		dir:       dir,
		tolerance: tolerance,
		tables:    tables,
		logger:    logger,
		metrics:   metrics,
	}
}

// Warm loads all tables concurrently. Missing tables are not errors;
// unreadable or malformed ones are.
func (s *Store) Warm(ctx context.Context) error {
	g, _ := errgroup.WithContext(ctx)
	for _, name := range Datasets {
		g.Go(func() error {
			_, err := s.load(name)
			if errors.Is(err, errNotFound) {
				return nil
			}
			return err
		})
	}
	return g.Wait()
}

// Loaded returns the names of the tables that loaded successfully, in
// Datasets order.
func (s *Store) Loaded() []string {
	out := []string{}
	for _, name := range Datasets {
		if _, err := s.load(name); err == nil {
			out = append(out, name)
		}
	}
	return out
}

// Counts reports rows per table; -1 marks a table that failed to load.
func (s *Store) Counts() map[string]int {
	out := make(map[string]int, len(Datasets))
	for _, name := range Datasets {
		rows, err := s.load(name)
		if err != nil {
			out[name] = -1
			continue
		}
		out[name] = len(rows)
	}
	return out
}

func (s *Store) load(name string) ([]row, error) {
	t := s.tables[name]
	t.once.Do(func() {
		if s.dir == "" {
			t.err = errNotFound
		} else {
			t.rows, t.path, t.err = loadTable(s.dir, name)
		}
		switch {
		case errors.Is(t.err, errNotFound):
			s.logger.Info("regional dataset not present", "dataset", name, "dir", s.dir)
			s.metrics.DatasetRecords.WithLabelValues(name).Set(-1)
		case t.err != nil:
			s.logger.Warn("regional dataset unavailable", "dataset", name, "error", t.err)
			s.metrics.DatasetRecords.WithLabelValues(name).Set(-1)
		default:
			s.logger.Info("regional dataset loaded", "dataset", name, "path", t.path, "records", len(t.rows))
			s.metrics.DatasetRecords.WithLabelValues(name).Set(float64(len(t.rows)))
		}
	})
	return t.rows, t.err
}

// match finds a row by region name containment first, then by the closest
// coordinate within tolerance on both axes.
func (s *Store) match(name string, lat, lon float64, regionName string) (row, bool) {
	rows, err := s.load(name)
	if err != nil || len(rows) == 0 {
		s.metrics.HazardLookups.WithLabelValues(name, "unavailable").Inc()
		return row{}, false
	}

	if q := dataset.FoldName(regionName); q != "" {
		for _, r := range rows {
			if strings.Contains(dataset.FoldName(r.name), q) {
				s.metrics.HazardLookups.WithLabelValues(name, "hit").Inc()
				return r, true
			}
		}
	}

	best := -1
	bestDist := math.Inf(1)
	for i, r := range rows {
		if r.lat == nil || r.lon == nil {
			continue
		}
		dlat, dlon := math.Abs(*r.lat-lat), math.Abs(*r.lon-lon)
		if dlat > s.tolerance || dlon > s.tolerance {
			continue
		}
		if d := math.Hypot(dlat, dlon); d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		s.metrics.HazardLookups.WithLabelValues(name, "no_match").Inc()
		return row{}, false
	}
	s.metrics.HazardLookups.WithLabelValues(name, "hit").Inc()
	return rows[best], true
}

// Intelligence gathers every regional record matching the location and
// derives the composite insights. The basin assessment is left for the
// caller to attach.
func (s *Store) Intelligence(lat, lon float64, regionName string) domain.RegionalIntelligence {
	ri := domain.RegionalIntelligence{
		Water:          s.waterResources(lat, lon, regionName),
		Drought:        s.droughtRisk(lat, lon, regionName),
		Agriculture:    s.agriculture(lat, lon, regionName),
		DatasetsLoaded: s.Loaded(),
	}
	ri.Insights = domain.DeriveRegionalInsights(ri.Water, ri.Drought, ri.Agriculture)
	return ri
}

func (s *Store) waterResources(lat, lon float64, regionName string) domain.WaterResources {
	r, ok := s.match(domain.DatasetWaterResources, lat, lon, regionName)
	if !ok {
		return domain.WaterResources{}
	}
	return domain.WaterResources{
		Available:                true,
		RegionName:               r.name,
		GroundwaterLevel:         dataset.FloatPtr(r.cells["groundwater_level"]),
		SurfaceWaterAvailability: dataset.String(r.cells["surface_water_availability"]),
		WaterStressIndex:         dataset.FloatPtr(r.cells["water_stress_index"]),
		DataSource:               dataset.String(r.cells["data_source"]),
		LastUpdated:              dataset.String(r.cells["last_updated"]),
		MeasurementUnit:          dataset.String(r.cells["measurement_unit"]),
	}
}

func (s *Store) droughtRisk(lat, lon float64, regionName string) domain.DroughtRisk {
	r, ok := s.match(domain.DatasetDroughtRisk, lat, lon, regionName)
	if !ok {
		return domain.DroughtRisk{}
	}
	return domain.DroughtRisk{
		Available:       true,
		RegionName:      r.name,
		SPIIndex:        dataset.FloatPtr(r.cells["spi_index"]),
		DroughtSeverity: dataset.String(r.cells["drought_severity"]),
		HistoricalTrend: dataset.String(r.cells["historical_trend"]),
		DataSource:      dataset.String(r.cells["data_source"]),
		LastUpdated:     dataset.String(r.cells["last_updated"]),
		ForecastPeriod:  dataset.String(r.cells["forecast_period"]),
	}
}

func (s *Store) agriculture(lat, lon float64, regionName string) domain.AgriculturalContext {
	r, ok := s.match(domain.DatasetAgricultural, lat, lon, regionName)
	if !ok {
		return domain.AgriculturalContext{}
	}
	return domain.AgriculturalContext{
		Available:             true,
		RegionName:            r.name,
		CropYieldTrend:        dataset.String(r.cells["crop_yield_trend"]),
		IrrigationCoverage:    dataset.FloatPtr(r.cells["irrigation_coverage"]),
		FarmerAdoptionRate:    dataset.FloatPtr(r.cells["farmer_adoption_rate"]),
		DataSource:            dataset.String(r.cells["data_source"]),
		LastUpdated:           dataset.String(r.cells["last_updated"]),
		DominantCrop:          dataset.String(r.cells["dominant_crop"]),
		TotalAgriculturalArea: dataset.FloatPtr(r.cells["total_agricultural_area"]),
	}
}
