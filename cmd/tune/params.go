// Package main searches actuation settings that let the hive learn to forage.
package main

import (
	"github.com/pthm-cable/hive/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the actuation parameter set.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "steering_gain", Path: "actuation.steering_gain", Min: 2, Max: 15, Default: 7.5},
			{Name: "min_rate", Path: "actuation.min_rate", Min: -0.5, Max: 0, Default: -0.1},
			{Name: "max_rate", Path: "actuation.max_rate", Min: 0.8, Max: 3, Default: 1.5},
			{Name: "min_speed", Path: "actuation.min_speed", Min: 0.1, Max: 0.6, Default: 0.3},
			{Name: "floor_speed", Path: "actuation.floor_speed", Min: 0.3, Max: 1.5, Default: 0.7},
			// both wings share one amplification
			{Name: "amplification", Path: "actuation.amplification", Min: 0.5, Max: 4, Default: 2},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to the [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp keeps every value within its bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg and recomputes the
// derived values. Order must match Specs.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	v := pv.Clamp(values)

	act := &cfg.Actuation
	act.SteeringGain = v[0]
	act.MinRate = v[1]
	act.MaxRate = v[2]
	act.MinSpeed = v[3]
	act.FloorSpeed = max(v[4], v[3])
	act.Amplification = []float64{v[5], v[5]}

	cfg.ComputeDerived()
}
