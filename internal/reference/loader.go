package reference

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/i474232898/air-quality-ingest/internal/ingest"
)

// Column names required in a delimited reference table.
const (
	ColumnCity      = "City"
	ColumnLatitude  = "Latitude"
	ColumnLongitude = "Longitude"
)

// FileSource loads city references from a CSV-like or YAML file. Format is
// picked from the extension: .yaml/.yml is YAML, anything else is delimited text.
type FileSource struct {
	Path      string
	Delimiter rune
}

// NewFileSource creates a FileSource. An empty delimiter defaults to ';'.
func NewFileSource(path, delimiter string) (*FileSource, error) {
	d := ';'
	if delimiter != "" {
		r, size := utf8.DecodeRuneInString(delimiter)
		if size != len(delimiter) || r == utf8.RuneError {
			return nil, fmt.Errorf("delimiter must be a single character, got %q", delimiter)
		}
		d = r
	}
	return &FileSource{Path: path, Delimiter: d}, nil
}

// Load reads the whole table. Any error is wrapped with ingest.ErrReferenceLoad.
func (s *FileSource) Load() ([]ingest.CityReference, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ingest.ErrReferenceLoad, err)
	}
	defer f.Close()

	var refs []ingest.CityReference
	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".yaml", ".yml":
		refs, err = ParseYAML(f)
	default:
		refs, err = ParseDelimited(f, s.Delimiter)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ingest.ErrReferenceLoad, s.Path, err)
	}
	return refs, nil
}

// ParseDelimited reads a table with a header row containing at least City,
// Latitude and Longitude. Extra columns are ignored; row order is preserved.
func ParseDelimited(r io.Reader, delimiter rune) ([]ingest.CityReference, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty reference table")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := map[string]int{}
	for i, name := range header {
		// Spreadsheet exports often carry a BOM on the first header cell.
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		idx[name] = i
	}
	for _, col := range []string{ColumnCity, ColumnLatitude, ColumnLongitude} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	var refs []ingest.CityReference
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}

		field := func(col string) string {
			i := idx[col]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		ref, err := newReference(field(ColumnCity), field(ColumnLatitude), field(ColumnLongitude))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		refs = append(refs, ref)
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("reference table has no rows")
	}
	return refs, nil
}

type yamlTable struct {
	Cities []struct {
		Name        string    `yaml:"name"`
		Coordinates []float64 `yaml:"coordinates"`
		Lat         *float64  `yaml:"lat"`
		Lon         *float64  `yaml:"lon"`
	} `yaml:"cities"`
}

// ParseYAML reads a document of the form
//
//	cities:
//	  - name: Warszawa
//	    lat: 52.23
//	    lon: 21.01
//
// The pair may also be given as coordinates: [lat, lon].
func ParseYAML(r io.Reader) ([]ingest.CityReference, error) {
	var doc yamlTable
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	refs := make([]ingest.CityReference, 0, len(doc.Cities))
	for i, c := range doc.Cities {
		var lat, lon float64
		switch {
		case c.Lat != nil && c.Lon != nil:
			lat, lon = *c.Lat, *c.Lon
		case len(c.Coordinates) == 2:
			lat, lon = c.Coordinates[0], c.Coordinates[1]
		default:
			return nil, fmt.Errorf("city %d (%q): missing coordinates", i, c.Name)
		}
		ref, err := validReference(c.Name, lat, lon)
		if err != nil {
			return nil, fmt.Errorf("city %d: %w", i, err)
		}
		refs = append(refs, ref)
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("reference table has no rows")
	}
	return refs, nil
}

func newReference(name, latStr, lonStr string) (ingest.CityReference, error) {
	lat, err := parseDegrees(latStr)
	if err != nil {
		return ingest.CityReference{}, fmt.Errorf("latitude for %q: %w", name, err)
	}
	lon, err := parseDegrees(lonStr)
	if err != nil {
		return ingest.CityReference{}, fmt.Errorf("longitude for %q: %w", name, err)
	}
	return validReference(name, lat, lon)
}

// parseDegrees accepts both "52.23" and the decimal-comma "52,23" form.
func parseDegrees(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty value")
	}
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

func validReference(name string, lat, lon float64) (ingest.CityReference, error) {
	if name == "" {
		return ingest.CityReference{}, fmt.Errorf("empty city name")
	}
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ingest.CityReference{}, fmt.Errorf("coordinate out of range for %q: %v,%v", name, lat, lon)
	}
	return ingest.CityReference{
		Name:       name,
		Coordinate: ingest.Coordinate{Lat: lat, Lon: lon},
	}, nil
}
