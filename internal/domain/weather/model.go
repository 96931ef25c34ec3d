package weather

import "time"

// StatusOK is the in-band status code reported for a resolved location.
const StatusOK = 200

// Query identifies the location to look up.
type Query struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Location renders the query in the "city,country" form used by the upstream API.
func (q Query) Location() string {
	return q.City + "," + q.Country
}

// Report is the current conditions payload returned by the weather API.
// Values are kept exactly as received; nothing is converted.
type Report struct {
	StatusCode int        `json:"cod"`
	Message    string     `json:"message,omitempty"`
	City       string     `json:"name"`
	Main       Conditions `json:"main"`
}

// Conditions holds the numeric block of a report.
type Conditions struct {
	Temp      float64 `json:"temp"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  float64 `json:"humidity"`
	Pressure  float64 `json:"pressure"`
}

// Config wires runtime knobs for the weather domain.
type Config struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}
