// Package hazard resolves coordinates against the static drought index and
// watershed layers. Both layers are GeoJSON FeatureCollections, parsed once
// per Store and read-only afterwards.
package hazard

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/irrigation-decision-service/internal/dataset"
	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/observability"
)

// Dataset names used in logs and metrics.
const (
	DatasetDrought   = "drought_index"
	DatasetWatershed = "watershed"
)

// ErrNotConfigured is reported when a layer has no file path.
var ErrNotConfigured = errors.New("dataset path not configured")

// Property aliases found across drought and basin layers.
var (
	pointLabelKeys = []string{"name", "station", "label", "il", "id"}
	basinNameKeys  = []string{"havza_ad", "basin_name", "name"}
	basinIDKeys    = []string{"havza_no", "h_no", "basin_id", "id"}
	basinStressKey = []string{"water_stress", "su_stresi", "stress"}
)

// Point is one drought survey location.
type Point struct {
	Label string
	Coord orb.Point // lon, lat
	SPI   map[domain.SPIWindow]float64
}

// Basin is one watershed polygon with its stress label.
type Basin struct {
	Name     string
	ID       string
	Stress   domain.StressLevel
	Geometry orb.Geometry // orb.Polygon or orb.MultiPolygon
}

// Status describes the load state of one layer.
type Status struct {
	Dataset string `json:"dataset"`
	Path    string `json:"path"`
	Loaded  bool   `json:"loaded"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

type layer[T any] struct {
	once    sync.Once
	path    string
	records []T
	err     error
}

// Store owns the parsed hazard layers. Each layer is loaded on first use;
// concurrent first calls parse the file exactly once.
type Store struct {
	drought   layer[Point]
	watershed layer[Basin]
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewStore creates a Store for the given GeoJSON files. Empty paths disable
// the corresponding layer.
func NewStore(droughtPath, watershedPath string, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		drought:   layer[Point]{path: droughtPath},
		watershed: layer[Basin]{path: watershedPath},
		logger:    logger,
		metrics:   metrics,
	}
}

// Warm loads both layers now and returns their load errors joined.
func (s *Store) Warm() error {
	_, derr := s.droughtPoints()
	_, werr := s.basins()
	return errors.Join(derr, werr)
}

// Status reports both layers, loading them if needed.
func (s *Store) Status() []Status {
	points, derr := s.droughtPoints()
	basins, werr := s.basins()
	return []Status{
		newStatus(DatasetDrought, s.drought.path, len(points), derr),
		newStatus(DatasetWatershed, s.watershed.path, len(basins), werr),
	}
}

func newStatus(name, path string, n int, err error) Status {
	st := Status{Dataset: name, Path: path, Loaded: err == nil, Records: n}
	if err != nil {
		st.Error = err.Error()
	}
	return st
}

func (s *Store) droughtPoints() ([]Point, error) {
	s.drought.once.Do(func() {
		s.drought.records, s.drought.err = loadLayer(s.drought.path, parsePoint)
		s.recordLoad(DatasetDrought, s.drought.path, len(s.drought.records), s.drought.err)
	})
	return s.drought.records, s.drought.err
}

func (s *Store) basins() ([]Basin, error) {
	s.watershed.once.Do(func() {
		s.watershed.records, s.watershed.err = loadLayer(s.watershed.path, parseBasin)
		s.recordLoad(DatasetWatershed, s.watershed.path, len(s.watershed.records), s.watershed.err)
	})
	return s.watershed.records, s.watershed.err
}

func (s *Store) recordLoad(name, path string, n int, err error) {
	switch {
	case errors.Is(err, ErrNotConfigured):
		s.logger.Info("hazard dataset disabled", "dataset", name)
		s.metrics.DatasetRecords.WithLabelValues(name).Set(-1)
	case err != nil:
		s.logger.Warn("hazard dataset unavailable", "dataset", name, "path", path, "error", err)
		s.metrics.DatasetRecords.WithLabelValues(name).Set(-1)
	default:
		s.logger.Info("hazard dataset loaded", "dataset", name, "path", path, "records", n)
		s.metrics.DatasetRecords.WithLabelValues(name).Set(float64(n))
	}
}

// loadLayer reads a FeatureCollection and keeps the features parse accepts.
func loadLayer[T any](path string, parse func(*geojson.Feature) (T, bool)) ([]T, error) {
	if path == "" {
		return nil, ErrNotConfigured
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]T, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		if rec, ok := parse(f); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func parsePoint(f *geojson.Feature) (Point, bool) {
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return Point{}, false
	}
	p := Point{
		Label: dataset.LookupString(f.Properties, pointLabelKeys...),
		Coord: pt,
		SPI:   make(map[domain.SPIWindow]float64, len(domain.SPIPriority)),
	}
	for _, w := range domain.SPIPriority {
		if v, ok := dataset.Float(f.Properties[string(w)]); ok {
			p.SPI[w] = v
		}
	}
	return p, true
}

func parseBasin(f *geojson.Feature) (Basin, bool) {
	switch f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return Basin{}, false
	}
	return Basin{
		Name:     dataset.LookupString(f.Properties, basinNameKeys...),
		ID:       dataset.LookupString(f.Properties, basinIDKeys...),
		Stress:   domain.NormalizeStress(dataset.LookupString(f.Properties, basinStressKey...)),
		Geometry: f.Geometry,
	}, true
}
