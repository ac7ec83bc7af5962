// Package plantconfig provides YAML-backed implementations of the
// assessment engine's read-only providers. Capacity rates, stock levels
// and client risk scores come from plant master data that changes on the
// order of weeks, so a file reloaded on deploy is the source of truth;
// nothing here talks to the database.
package plantconfig

import (
	"context"
	"time"

	"production/internal/pkg/errs"

	"gopkg.in/yaml.v3"
)

// methodCapacity describes one production method's capacity.
type methodCapacity struct {
	// ThroughputPerHour is the production rate in pieces/hour.
	ThroughputPerHour float64 `yaml:"throughput_per_hour"`

	// MinutesPerDay is the free production minutes the method's
	// workcenters offer per working day.
	MinutesPerDay float64 `yaml:"minutes_per_day"`
}

// PlantData is the parsed plant master data.
type PlantData struct {
	Capacity map[string]methodCapacity `yaml:"capacity"`
	Stock    map[string]float64        `yaml:"stock"`
	Clients  map[string]float64        `yaml:"client_risk"`
}

// Providers serves capacity, stock and history lookups from plant master
// data. It implements services.CapacityProvider, services.StockProvider and
// services.HistoryProvider.
type Providers struct {
	data PlantData
	now  func() time.Time
}

// NewProviders creates providers over already-parsed plant data.
func NewProviders(data PlantData) *Providers {
	return &Providers{data: data, now: time.Now}
}

// Parse reads plant master data from YAML.
func Parse(raw []byte) (*Providers, error) {
	var data PlantData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("plant data", err)
	}
	return NewProviders(data), nil
}

// WithClock replaces the provider clock. Intended for tests.
func (p *Providers) WithClock(now func() time.Time) *Providers {
	p.now = now
	return p
}

// ThroughputPerHour returns the method's production rate in pieces/hour.
func (p *Providers) ThroughputPerHour(_ context.Context, method string) (float64, error) {
	capacity, ok := p.data.Capacity[method]
	if !ok {
		return 0, errs.NewObjectNotFoundError("capacity for method", method)
	}
	return capacity.ThroughputPerHour, nil
}

// MinutesAvailable returns the free production minutes before the given
// date: whole working days remaining times the method's minutes per day.
func (p *Providers) MinutesAvailable(_ context.Context, method string, until time.Time) (float64, error) {
	capacity, ok := p.data.Capacity[method]
	if !ok {
		return 0, errs.NewObjectNotFoundError("capacity for method", method)
	}

	days := until.Sub(p.now()).Hours() / 24
	if days < 0 {
		days = 0
	}

	return days * capacity.MinutesPerDay, nil
}

// Available returns the on-hand quantity of a material. An unlisted
// material reads as zero stock, not an error: the assessment should flag
// the shortage, not degrade.
func (p *Providers) Available(_ context.Context, material string) (float64, error) {
	return p.data.Stock[material], nil
}

// ClientRiskScore returns the client's risk score in [0,1]. Unknown clients
// score zero: no history means no evidence of risk.
func (p *Providers) ClientRiskScore(_ context.Context, clientID string) (float64, error) {
	return p.data.Clients[clientID], nil
}

// Defaults returns a conservative compiled-in data set so a bare install
// still assesses intakes. Rates mirror the default routing catalog's
// methods.
func Defaults() *Providers {
	return NewProviders(PlantData{
		Capacity: map[string]methodCapacity{
			"SILKSCREEN": {ThroughputPerHour: 120, MinutesPerDay: 960},
			"EMBROIDERY": {ThroughputPerHour: 45, MinutesPerDay: 480},
			"DTG":        {ThroughputPerHour: 60, MinutesPerDay: 480},
		},
		Stock:   map[string]float64{},
		Clients: map[string]float64{},
	})
}
