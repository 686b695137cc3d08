// Command validate checks the static datasets the decision engine reads:
// the drought index and watershed GeoJSON layers and the regional CSV/JSON
// tables. It reports which datasets load, how many records each holds, and
// optionally resolves point coordinates against them.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -datasets data \
//	  -drought data/drought_index.geojson \
//	  -watersheds data/watersheds.geojson \
//	  -point 37.87,32.48 -point 38.42,27.14
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/irrigation-decision-service/internal/domain"
	"github.com/couchcryptid/irrigation-decision-service/internal/engine"
	"github.com/couchcryptid/irrigation-decision-service/internal/hazard"
	"github.com/couchcryptid/irrigation-decision-service/internal/observability"
	"github.com/couchcryptid/irrigation-decision-service/internal/regional"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// pointList collects repeated -point lat,lon flags.
type pointList [][2]float64

func (l *pointList) String() string { return fmt.Sprint(*l) }

func (l *pointList) Set(v string) error {
	lat, lon, ok := strings.Cut(v, ",")
	if !ok {
		return fmt.Errorf("point %q: want lat,lon", v)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return fmt.Errorf("point %q: %w", v, err)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lon), 64)
	if err != nil {
		return fmt.Errorf("point %q: %w", v, err)
	}
	if !domain.ValidCoordinate(la, lo) {
		return fmt.Errorf("point %q: out of range", v)
	}
	*l = append(*l, [2]float64{la, lo})
	return nil
}

func main() {
	datasetsDir := flag.String("datasets", "data", "directory holding the regional tables")
	droughtPath := flag.String("drought", "data/drought_index.geojson", "drought index GeoJSON")
	watershedPath := flag.String("watersheds", "data/watersheds.geojson", "watershed GeoJSON")
	requireRegional := flag.Bool("require-regional", false, "fail when a regional table is missing")
	var points pointList
	flag.Var(&points, "point", "lat,lon to resolve against the datasets (repeatable)")
	flag.Parse()

	os.Exit(run(os.Stdout, *datasetsDir, *droughtPath, *watershedPath, *requireRegional, points))
}

func run(out io.Writer, datasetsDir, droughtPath, watershedPath string, requireRegional bool, points pointList) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	metrics := observability.NewMetricsForTesting()

	hazards := hazard.NewStore(droughtPath, watershedPath, logger, metrics)
	tables := regional.NewStore(datasetsDir, regional.DefaultTolerance, logger, metrics)

	fmt.Fprintln(out, "=== Irrigation Dataset Validation ===")
	fmt.Fprintln(out)

	phases := []*phase{
		validateHazardLayers(hazards),
		validateRegionalTables(tables, requireRegional),
	}
	if len(points) > 0 {
		eng := engine.New(hazards, tables, logger, metrics)
		_ = eng.Warm(context.Background())
		phases = append(phases, validatePoints(out, eng, tables, points))
	}

	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = "FAIL"
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if len(p.errors) == 0 && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(out, "  note: %s\n", n)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateHazardLayers(store *hazard.Store) *phase {
	p := &phase{name: "Phase 1: Hazard layers (GeoJSON)"}
	for _, st := range store.Status() {
		switch {
		case !st.Loaded:
			p.errorf("%s (%s): %s", st.Dataset, st.Path, st.Error)
		case st.Records == 0:
			p.errorf("%s (%s): no usable features", st.Dataset, st.Path)
		default:
			p.notef("%s: %d features", st.Dataset, st.Records)
		}
	}
	return p
}

func validateRegionalTables(store *regional.Store, required bool) *phase {
	p := &phase{name: "Phase 2: Regional tables"}
	counts := store.Counts()
	for _, name := range regional.Datasets {
		n := counts[name]
		switch {
		case n < 0 && required:
			p.errorf("%s: not loaded", name)
		case n < 0:
			p.notef("%s: not loaded, regional mode will report it unavailable", name)
		case n == 0:
			p.errorf("%s: table is empty", name)
		default:
			p.notef("%s: %d rows", name, n)
		}
	}
	return p
}

func validatePoints(out io.Writer, eng *engine.Engine, tables *regional.Store, points pointList) *phase {
	p := &phase{name: "Phase 3: Point lookups"}
	for _, pr := range points {
		report := struct {
			engine.HazardReport
			Regional domain.RegionalIntelligence `json:"regional"`
		}{
			HazardReport: eng.Hazards(pr[0], pr[1]),
			Regional:     tables.Intelligence(pr[0], pr[1], ""),
		}
		if !report.Drought.Available && !report.Basin.Available {
			p.errorf("%.4f,%.4f: no hazard layer covers this point", pr[0], pr[1])
		}
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			p.errorf("%.4f,%.4f: %v", pr[0], pr[1], err)
			continue
		}
		fmt.Fprintf(out, "point %.4f,%.4f\n%s\n\n", pr[0], pr[1], data)
	}
	return p
}
