package aircon

import (
	"time"
)

// SwingPair is a vertical and horizontal air direction.
type SwingPair struct {
	V string `json:"v"`
	H string `json:"h"`
}

// String renders the pair as shown to users, e.g. "⥮auto, ⇋swing".
// An empty axis is left out.
func (p SwingPair) String() string {
	var v, h string
	if p.V != "" {
		v = "⥮" + p.V
	}
	if p.H != "" {
		h = "⇋" + p.H
	}
	switch {
	case v != "" && h != "":
		return v + ", " + h
	case v != "":
		return v
	default:
		return h
	}
}

// ModeSpec is what an operating mode accepts.
type ModeSpec struct {
	// TempsStr are the vendor temperature tokens, ordered like Temps.
	TempsStr []string
	// Temps are the selectable temperatures, ascending.
	Temps []float64
	Low   float64
	High  float64
	// Step is nil when the mode has fewer than two temperatures.
	Step *float64

	FanModes    []string
	SwingModes  []string
	SwingHModes []string
	SwingPairs  []SwingPair
}

// HasFanMode reports whether label is a fan speed of this mode.
func (s *ModeSpec) HasFanMode(label string) bool {
	for _, f := range s.FanModes {
		if f == label {
			return true
		}
	}
	return false
}

// SwingPairByLabel finds the pair whose display label is label.
func (s *ModeSpec) SwingPairByLabel(label string) (SwingPair, bool) {
	for _, p := range s.SwingPairs {
		if p.String() == label {
			return p, true
		}
	}
	return SwingPair{}, false
}

// SwingLabels returns the display labels of all swing pairs.
func (s *ModeSpec) SwingLabels() []string {
	labels := make([]string, len(s.SwingPairs))
	for i, p := range s.SwingPairs {
		labels[i] = p.String()
	}
	return labels
}

func (s *ModeSpec) hasSwingPair(p SwingPair) bool {
	for _, q := range s.SwingPairs {
		if q == p {
			return true
		}
	}
	return false
}

// Feature is a set of capability flags.
type Feature uint32

const (
	FeatureTargetTemperature Feature = 1 << iota
	FeatureFanMode
	FeatureSwingMode
	FeatureTurnOff
	FeatureTurnOn
)

var featureNames = []struct {
	f    Feature
	name string
}{
	{FeatureTargetTemperature, "target_temperature"},
	{FeatureFanMode, "fan_mode"},
	{FeatureSwingMode, "swing_mode"},
	{FeatureTurnOff, "turn_off"},
	{FeatureTurnOn, "turn_on"},
}

// Has reports whether all flags in x are set.
func (f Feature) Has(x Feature) bool {
	return f&x == x
}

// Names lists the set flags.
func (f Feature) Names() []string {
	var names []string
	for _, fn := range featureNames {
		if f.Has(fn.f) {
			names = append(names, fn.name)
		}
	}
	return names
}

// TemperatureUnit is always Celsius; other units are rejected at parse time.
const TemperatureUnit = "°C"

// Model is a parsed air conditioner. It is immutable once built.
type Model struct {
	ID        string
	Name      string
	DeviceMAC string
	Features  Feature
	// Modes always contains ModeOff with a nil spec.
	Modes map[Mode]*ModeSpec
	// LastStatus is the status embedded in the descriptor, nil if absent or unreadable.
	LastStatus *Status
}

// Supports reports whether the model accepts mode m.
func (m *Model) Supports(mode Mode) bool {
	_, ok := m.Modes[mode]
	return ok
}

// Spec returns the spec of mode, nil for off or unknown modes.
func (m *Model) Spec(mode Mode) *ModeSpec {
	return m.Modes[mode]
}

// HVACModes lists the supported modes, sorted by name.
func (m *Model) HVACModes() []Mode {
	modes := make([]Mode, 0, len(m.Modes))
	for mode := range m.Modes {
		modes = append(modes, mode)
	}
	sortModes(modes)
	return modes
}

// firstMode returns the first supported mode that is not off.
func (m *Model) firstMode() Mode {
	for _, mode := range m.HVACModes() {
		if mode != ModeOff {
			return mode
		}
	}
	return ""
}

// Power is the on/off state reported by the vendor.
type Power string

const (
	PowerOn  Power = "on"
	PowerOff Power = "off"
)

// Status is one observation of the unit's settings, either polled or the
// result of a locally issued command.
type Status struct {
	Power       Power
	Swing       SwingPair
	Mode        Mode
	Temperature float64
	Fan         string
	Timestamp   time.Time
}
