package aircon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	m := mustParse(t, livingRoomAC)
	st := State{
		Mode:     ModeCool,
		LastMode: ModeCool,
		Desired: map[Mode]DesiredState{
			ModeCool: {TempIndex: 1, Fan: "2", Swing: SwingPair{V: "swing", H: "still"}},
		},
	}

	cmd, err := Encode(m, st)
	require.NoError(t, err)
	assert.Equal(t, Command{
		Button:          "",
		AirDirection:    "swing",
		AirDirectionH:   "still",
		OperationMode:   "cool",
		Temperature:     "18.5",
		AirVolume:       "2",
		TemperatureUnit: "c",
	}, cmd)

	st.Mode = ModeOff
	cmd, err = Encode(m, st)
	require.NoError(t, err)
	assert.Equal(t, "power-off", cmd.Button)
	assert.Equal(t, "18.5", cmd.Temperature)
}

func TestEncode_KeepsDisplayString(t *testing.T) {
	m := mustParse(t, `{"id":"x","aircon":{"tempUnit":"c","range":{"fixedButtons":["power-off"],
		"modes":{"cool":{"temp":["23.0","23.50","24.0"]}}}}}`)
	st := State{Mode: ModeCool, LastMode: ModeCool, Desired: map[Mode]DesiredState{ModeCool: {TempIndex: 1}}}

	cmd, err := Encode(m, st)
	require.NoError(t, err)
	assert.Equal(t, "23.50", cmd.Temperature)
}

func TestEncode_InvalidDesiredState(t *testing.T) {
	m := mustParse(t, livingRoomAC)

	tests := []struct {
		name string
		st   State
	}{
		{"index too high", State{Mode: ModeCool, LastMode: ModeCool, Desired: map[Mode]DesiredState{ModeCool: {TempIndex: 3}}}},
		{"negative index", State{Mode: ModeCool, LastMode: ModeCool, Desired: map[Mode]DesiredState{ModeCool: {TempIndex: -1}}}},
		{"off has no spec", State{Mode: ModeOff, LastMode: ModeOff}},
		{"missing desired", State{Mode: ModeHeat, LastMode: ModeHeat, Desired: map[Mode]DesiredState{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(m, tt.st)
			assert.ErrorIs(t, err, ErrInvalidDesiredState)
		})
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	m := mustParse(t, livingRoomAC)
	for _, mode := range []Mode{ModeCool, ModeHeat, ModeFanOnly} {
		spec := m.Spec(mode)
		for i := range spec.Temps {
			for _, pair := range spec.SwingPairs {
				st := State{
					Mode:     mode,
					LastMode: mode,
					Desired:  map[Mode]DesiredState{mode: {TempIndex: i, Fan: spec.FanModes[0], Swing: pair}},
				}
				first, err := Encode(m, st)
				require.NoError(t, err)

				gotMode, d, err := DecodeCommand(m, first)
				require.NoError(t, err)
				assert.Equal(t, mode, gotMode)

				second, err := Encode(m, State{Mode: gotMode, LastMode: gotMode, Desired: map[Mode]DesiredState{gotMode: d}})
				require.NoError(t, err)
				assert.Equal(t, first, second)
			}
		}
	}
}

func TestDecodeCommand_Rejects(t *testing.T) {
	m := mustParse(t, livingRoomAC)

	_, _, err := DecodeCommand(m, Command{OperationMode: "eco"})
	assert.ErrorIs(t, err, ErrInvalidDesiredState)
	_, _, err = DecodeCommand(m, Command{OperationMode: "dry"})
	assert.ErrorIs(t, err, ErrInvalidDesiredState)
	_, _, err = DecodeCommand(m, Command{OperationMode: "cool", Temperature: "30"})
	assert.ErrorIs(t, err, ErrInvalidDesiredState)
}

func TestCommand_Values(t *testing.T) {
	v := Command{Button: "power-off", OperationMode: "warm", Temperature: "22", TemperatureUnit: "c"}.Values()

	assert.Equal(t, "power-off", v.Get("button"))
	assert.Equal(t, "warm", v.Get("operation_mode"))
	assert.Equal(t, "22", v.Get("temperature"))
	assert.Equal(t, "c", v.Get("temperature_unit"))
	assert.Contains(t, v, "air_direction_h")
	assert.Len(t, v, 7)
}
