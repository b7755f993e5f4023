package aircon

import (
	"fmt"
	"net/url"
)

// Command is the payload of the aircon_settings endpoint.
type Command struct {
	Button          string `json:"button"`
	AirDirection    string `json:"air_direction"`
	AirDirectionH   string `json:"air_direction_h"`
	OperationMode   string `json:"operation_mode"`
	Temperature     string `json:"temperature"`
	AirVolume       string `json:"air_volume"`
	TemperatureUnit string `json:"temperature_unit"`
}

// PowerOff reports whether the command turns the unit off.
func (c Command) PowerOff() bool {
	return c.Button == powerOffButton
}

// Values renders the command as a form body.
func (c Command) Values() url.Values {
	return url.Values{
		"button":           {c.Button},
		"air_direction":    {c.AirDirection},
		"air_direction_h":  {c.AirDirectionH},
		"operation_mode":   {c.OperationMode},
		"temperature":      {c.Temperature},
		"air_volume":       {c.AirVolume},
		"temperature_unit": {c.TemperatureUnit},
	}
}

// Encode builds the command for state. The settings always come from the
// last mode that was not off, so a power-off still carries them.
func Encode(m *Model, st State) (Command, error) {
	spec := m.Spec(st.LastMode)
	if spec == nil {
		return Command{}, fmt.Errorf("%w: mode %q has no settings", ErrInvalidDesiredState, st.LastMode)
	}
	d, ok := st.Desired[st.LastMode]
	if !ok {
		return Command{}, fmt.Errorf("%w: no desired state for mode %q", ErrInvalidDesiredState, st.LastMode)
	}
	if d.TempIndex < 0 || d.TempIndex >= len(spec.TempsStr) {
		return Command{}, fmt.Errorf("%w: temperature index %d out of range for mode %q", ErrInvalidDesiredState, d.TempIndex, st.LastMode)
	}

	cmd := Command{
		AirDirection:    d.Swing.V,
		AirDirectionH:   d.Swing.H,
		OperationMode:   st.LastMode.Vendor(),
		Temperature:     spec.TempsStr[d.TempIndex],
		AirVolume:       d.Fan,
		TemperatureUnit: celsius,
	}
	if st.Mode == ModeOff {
		cmd.Button = powerOffButton
	}
	return cmd, nil
}

// DecodeCommand recovers the mode and desired state a command was built
// from. Encoding the result again yields the same command.
func DecodeCommand(m *Model, cmd Command) (Mode, DesiredState, error) {
	mode, ok := ModeFromVendor(cmd.OperationMode)
	if !ok {
		return "", DesiredState{}, fmt.Errorf("%w: operation mode %q", ErrInvalidDesiredState, cmd.OperationMode)
	}
	spec := m.Spec(mode)
	if spec == nil {
		return "", DesiredState{}, fmt.Errorf("%w: mode %q not supported", ErrInvalidDesiredState, mode)
	}
	idx := -1
	for i, s := range spec.TempsStr {
		if s == cmd.Temperature {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", DesiredState{}, fmt.Errorf("%w: temperature %q", ErrInvalidDesiredState, cmd.Temperature)
	}
	return mode, DesiredState{
		TempIndex: idx,
		Fan:       cmd.AirVolume,
		Swing:     SwingPair{V: cmd.AirDirection, H: cmd.AirDirectionH},
	}, nil
}
