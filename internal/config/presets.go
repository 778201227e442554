package config

import (
	"slices"

	"github.com/san-kum/fractalzoo/internal/viewport"
)

// Preset is a named place worth visiting in one fractal.
type Preset struct {
	View   viewport.Rect      `yaml:"view"`
	Params map[string]float32 `yaml:"params,omitempty"`
}

var Presets = map[string]map[string]*Preset{
	"Mandelbrot": {
		"home": {View: viewport.Canonical()},
		"seahorse": {
			View:   viewport.Rect{Left: -0.7800, Top: -0.1550, Right: -0.7200, Bottom: -0.1150},
			Params: map[string]float32{"maxIter": 600},
		},
		"elephant": {
			View:   viewport.Rect{Left: 0.2500, Top: -0.0200, Right: 0.3100, Bottom: 0.0200},
			Params: map[string]float32{"maxIter": 500},
		},
		"spiral": {
			View:   viewport.Rect{Left: -0.7640, Top: -0.1020, Right: -0.7600, Bottom: -0.0993},
			Params: map[string]float32{"maxIter": 1200},
		},
	},
	"Burning Ship": {
		"armada": {
			View:   viewport.Rect{Left: -1.8000, Top: -0.0800, Right: -1.7000, Bottom: -0.0133},
			Params: map[string]float32{"maxIter": 400},
		},
	},
	"Julia": {
		"dragon": {
			View:   viewport.Rect{Left: -1.6, Top: -1.0, Right: 1.6, Bottom: 1.0},
			Params: map[string]float32{"cRe": -0.8, "cIm": 0.156},
		},
		"rabbit": {
			View:   viewport.Rect{Left: -1.6, Top: -1.0, Right: 1.6, Bottom: 1.0},
			Params: map[string]float32{"cRe": -0.123, "cIm": 0.745},
		},
		"siegel": {
			View:   viewport.Rect{Left: -1.6, Top: -1.0, Right: 1.6, Bottom: 1.0},
			Params: map[string]float32{"cRe": -0.391, "cIm": -0.587},
		},
	},
	"Lorenz": {
		"butterfly": {View: viewport.Rect{Left: -30, Top: 55, Right: 30, Bottom: -5}},
		"wing": {
			View:   viewport.Rect{Left: -20, Top: 45, Right: 0, Bottom: 5},
			Params: map[string]float32{"maxIter": 400000},
		},
	},
}

func GetPreset(fractal, preset string) *Preset {
	fractalPresets, ok := Presets[fractal]
	if !ok {
		return nil
	}
	p, ok := fractalPresets[preset]
	if !ok {
		return nil
	}
	return p
}

// ListPresets returns the preset names of a fractal, sorted.
func ListPresets(fractal string) []string {
	fractalPresets, ok := Presets[fractal]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(fractalPresets))
	for name := range fractalPresets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParamSetter stores parameter values, rejecting unknown names.
type ParamSetter interface {
	Set(name string, v float32) bool
}

// Apply writes the preset parameters the fractal has and returns the names
// it skipped.
func (p *Preset) Apply(params ParamSetter) []string {
	var skipped []string
	keys := make([]string, 0, len(p.Params))
	for k := range p.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if !params.Set(k, p.Params[k]) {
			skipped = append(skipped, k)
		}
	}
	return skipped
}
