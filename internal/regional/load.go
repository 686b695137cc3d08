package regional

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/couchcryptid/irrigation-decision-service/internal/dataset"
)

// errNotFound marks a dataset with neither a CSV nor a JSON file.
var errNotFound = errors.New("dataset file not found")

var (
	nameKeys = []string{"region_name", "region", "name"}
	latKeys  = []string{"lat", "latitude"}
	lonKeys  = []string{"lon", "lng", "longitude"}
)

// row is one record of a regional table.
type row struct {
	name  string
	lat   *float64
	lon   *float64
	cells map[string]any
}

// loadTable reads <dir>/<name>.csv, falling back to <dir>/<name>.json.
func loadTable(dir, name string) ([]row, string, error) {
	for _, ext := range []string{".csv", ".json"} {
		path := filepath.Join(dir, name+ext)
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, path, fmt.Errorf("open %s: %w", path, err)
		}
		var records []map[string]any
		if ext == ".csv" {
			records, err = readCSV(f)
		} else {
			records, err = readJSON(f)
		}
		f.Close()
		if err != nil {
			return nil, path, fmt.Errorf("parse %s: %w", path, err)
		}
		return toRows(records), path, nil
	}
	return nil, "", errNotFound
}

func readCSV(r io.Reader) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}

	var out []map[string]any
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(rec) {
				m[col] = rec[i]
			}
		}
		out = append(out, m)
	}
}

// readJSON accepts a list of records or an object keyed by region name.
func readJSON(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var list []map[string]any
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}

	var keyed map[string]map[string]any
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keyed))
	for k := range keyed {
		names = append(names, k)
	}
	// Map order is random; sort for stable first-match results.
	sort.Strings(names)
	out := make([]map[string]any, 0, len(keyed))
	for _, k := range names {
		rec := keyed[k]
		if rec == nil {
			continue
		}
		if _, ok := dataset.Lookup(rec, nameKeys...); !ok {
			rec["region_name"] = k
		}
		out = append(out, rec)
	}
	return out, nil
}

func toRows(records []map[string]any) []row {
	rows := make([]row, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			continue
		}
		lower := make(map[string]any, len(rec))
		for k, v := range rec {
			lower[strings.ToLower(k)] = v
		}
		r := row{name: dataset.LookupString(lower, nameKeys...), cells: lower}
		if v, ok := dataset.Lookup(lower, latKeys...); ok {
			r.lat = dataset.FloatPtr(v)
		}
		if v, ok := dataset.Lookup(lower, lonKeys...); ok {
			r.lon = dataset.FloatPtr(v)
		}
		rows = append(rows, r)
	}
	return rows
}
