// Package venue defines the venue record persisted for the site and the pure
// normalization helpers that build one from a discovery candidate.
package venue

import (
	"time"
)

// WifiSpeed grades the connection.
type WifiSpeed string

// Wifi grades, fastest first.
const (
	WifiFlynet   WifiSpeed = "flynet"
	WifiReliable WifiSpeed = "reliable"
	WifiSpotty   WifiSpeed = "spotty"
	WifiDetox    WifiSpeed = "detox"
)

// NoiseLevel grades the ambient noise.
type NoiseLevel string

// Noise grades, quietest first.
const (
	NoiseSilence NoiseLevel = "silence"
	NoiseHum     NoiseLevel = "hum"
	NoiseChaos   NoiseLevel = "chaos"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat  float64 `yaml:"lat" json:"lat" validate:"gte=-90,lte=90"`
	Long float64 `yaml:"long" json:"long" validate:"gte=-180,lte=180"`
}

// Metrics is the qualitative block rendered on the map.
type Metrics struct {
	WifiSpeed   WifiSpeed   `yaml:"wifi_speed" json:"wifi_speed" validate:"required,oneof=flynet reliable spotty detox"`
	NoiseLevel  NoiseLevel  `yaml:"noise_level" json:"noise_level" validate:"required,oneof=silence hum chaos"`
	PlugAccess  bool        `yaml:"plug_access" json:"plug_access"`
	CoffeePrice float64     `yaml:"coffee_price" json:"coffee_price" validate:"gte=0"`
	CasiScore   int         `yaml:"casi_score" json:"casi_score" validate:"gte=1,lte=10"`
	Coordinates Coordinates `yaml:"coordinates" json:"coordinates"`
}

// Record is one venue content file.
type Record struct {
	Slug         string    `validate:"required,slug"`
	Title        string    `validate:"required"`
	Author       string    `validate:"required"`
	Neighborhood string    `validate:"required"`
	Address      string
	MapsURL      string
	PublishedAt  time.Time
	Metrics      Metrics
	Body         string `validate:"required"`
}

// Candidate is a transient discovery result considered for ingestion.
type Candidate struct {
	PlaceID     string
	ExternalURI string
	Name        string
	Address     string
	Rating      float64
	PriceTier   string
	Reviews     []string
	Lat         float64
	Long        float64
}

// HasReviews reports whether any review text is available.
func (c Candidate) HasReviews() bool {
	for _, r := range c.Reviews {
		if r != "" {
			return true
		}
	}
	return false
}
