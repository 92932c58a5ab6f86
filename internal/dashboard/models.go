package dashboard

import (
	"context"
	"errors"
	"strings"
)

// ErrUnknownPollutant is returned for a pollutant outside the fixed set.
var ErrUnknownPollutant = errors.New("unknown pollutant")

// Pollutant names one hourly-averaged measurement column.
type Pollutant string

const (
	CO   Pollutant = "CO"
	NO   Pollutant = "NO"
	NO2  Pollutant = "NO2"
	O3   Pollutant = "O3"
	SO2  Pollutant = "SO2"
	PM25 Pollutant = "PM2_5"
	PM10 Pollutant = "PM10"
	NH3  Pollutant = "NH3"
)

// AllPollutants is the display order used when no pollutant is selected.
var AllPollutants = []Pollutant{CO, NO, NO2, O3, SO2, PM25, PM10, NH3}

var pollutantColumns = map[Pollutant]string{
	CO:   "co_avg",
	NO:   "no_avg",
	NO2:  "no2_avg",
	O3:   "o3_avg",
	SO2:  "so2_avg",
	PM25: "pm2_5_avg",
	PM10: "pm10_avg",
	NH3:  "nh3_avg",
}

// ParsePollutant accepts a pollutant name in any case.
func ParsePollutant(s string) (Pollutant, error) {
	p := Pollutant(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := pollutantColumns[p]; !ok {
		return "", ErrUnknownPollutant
	}
	return p, nil
}

// Column returns the warehouse column holding the pollutant's hourly average.
func (p Pollutant) Column() (string, error) {
	col, ok := pollutantColumns[p]
	if !ok {
		return "", ErrUnknownPollutant
	}
	return col, nil
}

// TrendPoint is one hour of averaged readings. A nil value means no data.
type TrendPoint struct {
	Hour   int                    `json:"hour"`
	Values map[Pollutant]*float64 `json:"values"`
}

// MapPoint is a measurement location, optionally weighted by AQI.
type MapPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	AQI *int    `json:"aqi,omitempty"`
}

// Warehouse is the read side the dashboard renders from.
type Warehouse interface {
	Cities(ctx context.Context) ([]string, error)
	Dates(ctx context.Context, city string) ([]string, error)
	Trend(ctx context.Context, city, date string, pollutants []Pollutant) ([]TrendPoint, error)
	AQIMap(ctx context.Context) ([]MapPoint, error)
	CityLocations(ctx context.Context, city string) ([]MapPoint, error)
}
