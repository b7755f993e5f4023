package aircon

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/remo/pkg/device/schema"
	"github.com/urmzd/remo/pkg/remo"
)

const (
	powerOffButton = "power-off"
	celsius        = "c"

	minStep       = 0.01
	stepTolerance = 1e-3
)

//go:embed descriptor.schema.json
var descriptorSchema []byte

var descriptorValidator = schema.NewValidator()

// Parse builds a Model from the JSON of a single appliance as returned by
// the appliances endpoint.
func Parse(raw []byte) (*Model, error) {
	var a remo.Appliance
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedConfiguration, err)
	}
	return FromAppliance(&a)
}

// FromAppliance builds a Model from an appliance. Unknown vendor modes are
// logged and skipped; anything else the model cannot represent is
// ErrUnexpectedConfiguration.
func FromAppliance(a *remo.Appliance) (*Model, error) {
	ac := a.AirCon
	if ac == nil {
		return nil, fmt.Errorf("%w: appliance %s is not an air conditioner", ErrUnexpectedConfiguration, a.ID)
	}
	if err := validateDescriptor(ac); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedConfiguration, err)
	}
	if ac.TempUnit != celsius {
		return nil, fmt.Errorf("%w: temperature unit %q", ErrUnexpectedConfiguration, ac.TempUnit)
	}
	if !contains(ac.Range.FixedButtons, powerOffButton) {
		return nil, fmt.Errorf("%w: no %s button", ErrUnexpectedConfiguration, powerOffButton)
	}

	m := &Model{
		ID:    a.ID,
		Name:  a.Nickname,
		Modes: map[Mode]*ModeSpec{ModeOff: nil},
	}
	if a.Device != nil {
		m.Name = fmt.Sprintf("%s @ %s", a.Nickname, a.Device.Name)
		m.DeviceMAC = a.Device.MacAddress
	}

	names := make([]string, 0, len(ac.Range.Modes))
	for name := range ac.Range.Modes {
		names = append(names, name)
	}
	sort.Strings(names)

	swing := false
	for _, name := range names {
		mode, ok := ModeFromVendor(name)
		if !ok {
			log.Warn().
				Str("appliance", a.ID).
				Str("mode", name).
				Msg("Unknown AC mode; please contact the project maintainer")
			continue
		}
		spec, err := parseModeSpec(ac.Range.Modes[name])
		if err != nil {
			return nil, fmt.Errorf("%w: mode %q: %v", ErrUnexpectedConfiguration, name, err)
		}
		if len(spec.SwingModes) > 0 || len(spec.SwingHModes) > 0 {
			swing = true
		}
		m.Modes[mode] = spec
	}
	if len(m.Modes) == 1 {
		return nil, fmt.Errorf("%w: no supported operating mode", ErrUnexpectedConfiguration)
	}

	m.Features = FeatureTargetTemperature | FeatureFanMode | FeatureTurnOn | FeatureTurnOff
	if swing {
		m.Features |= FeatureSwingMode
	}

	if a.Settings != nil {
		st, err := ParseStatus(*a.Settings)
		switch {
		case err != nil:
			log.Debug().Err(err).Str("appliance", a.ID).Msg("Ignoring unreadable AC settings")
		case !m.Supports(st.Mode):
			log.Debug().Str("appliance", a.ID).Str("mode", string(st.Mode)).Msg("Ignoring AC settings for unsupported mode")
		default:
			m.LastStatus = &st
		}
	}

	log.Debug().Str("appliance", a.ID).Interface("modes", m.HVACModes()).Msg("Parsed AC modes")
	return m, nil
}

// ParseStatus reads the settings section of an appliance.
func ParseStatus(s remo.AirConSettings) (Status, error) {
	mode, ok := ModeFromVendor(s.Mode)
	if !ok {
		return Status{}, fmt.Errorf("unknown operation mode %q", s.Mode)
	}
	temp, err := strconv.ParseFloat(s.Temp, 64)
	if err != nil {
		temp = 0
	}
	ts, err := remo.ParseTime(s.UpdatedAt)
	if err != nil {
		return Status{}, fmt.Errorf("parse updated_at: %w", err)
	}
	power := PowerOn
	if s.Button == powerOffButton {
		power = PowerOff
	}
	return Status{
		Power:       power,
		Swing:       SwingPair{V: s.Dir, H: s.DirH},
		Mode:        mode,
		Temperature: temp,
		Fan:         s.Vol,
		Timestamp:   ts,
	}, nil
}

func validateDescriptor(ac *remo.AirCon) error {
	return descriptorValidator.ValidateValue(descriptorSchema, ac)
}

func parseModeSpec(r remo.AirConRangeMode) (*ModeSpec, error) {
	spec := &ModeSpec{
		FanModes:    append([]string{}, r.Vol...),
		SwingModes:  append([]string{}, r.Dir...),
		SwingHModes: append([]string{}, r.DirH...),
	}
	spec.SwingPairs = swingPairs(spec.SwingModes, spec.SwingHModes)

	type token struct {
		v float64
		s string
	}
	var temps []token
	for _, t := range r.Temp {
		if strings.TrimSpace(t) == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, fmt.Errorf("temperature %q is not a number", t)
		}
		temps = append(temps, token{v: v, s: t})
	}

	switch len(temps) {
	case 0:
		// The mode takes no temperature; the empty token is sent back as is.
		spec.TempsStr = []string{""}
		spec.Temps = []float64{0}
		return spec, nil
	case 1:
		spec.TempsStr = []string{temps[0].s}
		spec.Temps = []float64{temps[0].v}
		spec.Low, spec.High = temps[0].v, temps[0].v
		return spec, nil
	}

	sort.SliceStable(temps, func(i, j int) bool { return temps[i].v < temps[j].v })

	first := temps[1].v - temps[0].v
	stepStr := formatStep(first)
	step, _ := strconv.ParseFloat(stepStr, 64)
	if step < minStep {
		return nil, fmt.Errorf("temperature step %s is below %.2f", stepStr, minStep)
	}
	if math.Abs(step-first) > stepTolerance {
		return nil, fmt.Errorf("temperature step %g is not a multiple of %.2f", first, minStep)
	}
	for i := 2; i < len(temps); i++ {
		if d := formatStep(temps[i].v - temps[i-1].v); d != stepStr {
			return nil, fmt.Errorf("uneven temperature step between %s and %s", temps[i-1].s, temps[i].s)
		}
	}

	spec.TempsStr = make([]string, len(temps))
	spec.Temps = make([]float64, len(temps))
	for i, t := range temps {
		spec.TempsStr[i] = t.s
		spec.Temps[i] = t.v
	}
	spec.Low = spec.Temps[0]
	spec.High = spec.Temps[len(spec.Temps)-1]
	spec.Step = &step
	return spec, nil
}

func formatStep(d float64) string {
	return strconv.FormatFloat(d, 'f', 2, 64)
}

// swingPairs returns the cross product of vertical and horizontal
// directions. An empty axis contributes a single empty direction.
func swingPairs(v, h []string) []SwingPair {
	if len(v) == 0 {
		v = []string{""}
	}
	if len(h) == 0 {
		h = []string{""}
	}
	pairs := make([]SwingPair, 0, len(v)*len(h))
	for _, a := range v {
		for _, b := range h {
			pairs = append(pairs, SwingPair{V: a, H: b})
		}
	}
	return pairs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
