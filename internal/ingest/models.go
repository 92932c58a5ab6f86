package ingest

import (
	"strconv"
	"time"
)

// EndpointKind selects which upstream resource is queried and where its output lands.
type EndpointKind string

const (
	KindAirPollution EndpointKind = "air_pollution"
	KindWeather      EndpointKind = "weather"
)

// Kinds lists every endpoint kind in the order a run processes them.
var Kinds = []EndpointKind{KindAirPollution, KindWeather}

// Path is the upstream URL path segment for the kind.
func (k EndpointKind) Path() string {
	return string(k)
}

// Directory is the logical storage directory the kind uploads into.
func (k EndpointKind) Directory() string {
	switch k {
	case KindAirPollution:
		return "pollution"
	case KindWeather:
		return "weather"
	default:
		return string(k)
	}
}

// FileName is the fixed object file name for the kind.
func (k EndpointKind) FileName() string {
	switch k {
	case KindAirPollution:
		return "aq_data.json"
	case KindWeather:
		return "weather_data.json"
	default:
		return string(k) + ".json"
	}
}

// Coordinate identifies a city. Values are carried verbatim from the reference source.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// String renders the coordinate as "lat,lon" with the shortest exact float form.
func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

// CityReference is one row of the city reference table.
type CityReference struct {
	Name string `json:"city"`
	Coordinate
}

// Response is a single upstream payload, kept loosely typed at the boundary.
type Response map[string]any

// Envelope is the uploaded document for one endpoint kind.
type Envelope struct {
	Results []Response `json:"results"`
}

// KindSummary reports what happened to one endpoint kind during a run.
type KindSummary struct {
	Kind      EndpointKind `json:"kind"`
	Requested int          `json:"requested"`
	Fetched   int          `json:"fetched"`
	Failed    int          `json:"failed"`
	Key       string       `json:"key"`
	Uploaded  bool         `json:"uploaded"`
}

// RunSummary is the aggregate outcome of a single run.
type RunSummary struct {
	RunID     string        `json:"runId"`
	Timestamp string        `json:"timestamp"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Kinds     []KindSummary `json:"kinds"`
}
