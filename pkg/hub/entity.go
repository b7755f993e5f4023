package hub

import (
	"encoding/json"

	"github.com/urmzd/remo/pkg/aircon"
	"github.com/urmzd/remo/pkg/appliance"
	"github.com/urmzd/remo/pkg/device"
	"github.com/urmzd/remo/pkg/sensor"
)

// entity is one device exposed by the hub.
type entity interface {
	id() string
	defaultName() string
	kind() string
	hub() (name, mac string)
	// schema is the JSON Schema of settable state, nil when read-only.
	schema() json.RawMessage
	exposes() json.RawMessage
	state() device.DeviceState
}

type origin struct {
	hubName string
	hubMAC  string
}

func (o origin) hub() (string, string) { return o.hubName, o.hubMAC }

// climateEntity wraps the reconciler of one air conditioner. Current
// temperature and humidity come from the sensors of the Remo it is bound to.
type climateEntity struct {
	origin
	rec  *aircon.Reconciler
	read func(mac string) sensor.Data
}

func (e *climateEntity) id() string          { return e.rec.Model().ID }
func (e *climateEntity) defaultName() string { return e.rec.Model().Name }
func (e *climateEntity) kind() string        { return device.DeviceTypeClimate }

func (e *climateEntity) schema() json.RawMessage {
	m := e.rec.Model()
	var modes []string
	var fans, swings []string
	low, high := 0.0, 0.0
	first := true
	for _, mode := range m.HVACModes() {
		modes = append(modes, string(mode))
		spec := m.Spec(mode)
		if spec == nil {
			continue
		}
		if first || spec.Low < low {
			low = spec.Low
		}
		if first || spec.High > high {
			high = spec.High
		}
		first = false
		fans = appendUnique(fans, spec.FanModes...)
		swings = appendUnique(swings, spec.SwingLabels()...)
	}

	props := map[string]any{
		"hvac_mode":   map[string]any{"type": "string", "enum": modes},
		"temperature": map[string]any{"type": "number", "minimum": low, "maximum": high},
		"power":       map[string]any{"type": "string", "enum": []string{"on", "off"}},
	}
	if len(fans) > 0 {
		props["fan_mode"] = map[string]any{"type": "string", "enum": fans}
	}
	if len(swings) > 0 {
		props["swing_mode"] = map[string]any{"type": "string", "enum": swings}
	}
	return objectSchema(props)
}

func (e *climateEntity) exposes() json.RawMessage {
	m := e.rec.Model()
	type modeExposes struct {
		Temperatures []float64 `json:"temperatures"`
		Step         *float64  `json:"step,omitempty"`
		FanModes     []string  `json:"fan_modes,omitempty"`
		SwingModes   []string  `json:"swing_modes,omitempty"`
	}
	modes := make(map[aircon.Mode]modeExposes)
	for _, mode := range m.HVACModes() {
		if spec := m.Spec(mode); spec != nil {
			modes[mode] = modeExposes{
				Temperatures: spec.Temps,
				Step:         spec.Step,
				FanModes:     spec.FanModes,
				SwingModes:   spec.SwingLabels(),
			}
		}
	}
	return mustJSON(map[string]any{
		"hvac_modes":         m.HVACModes(),
		"modes":              modes,
		"supported_features": m.Features.Names(),
		"temperature_unit":   aircon.TemperatureUnit,
	})
}

func (e *climateEntity) state() device.DeviceState {
	st := toState(e.rec.View())
	if e.read == nil {
		return st
	}
	data := e.read(e.rec.Model().DeviceMAC)
	if data.Temperature != nil {
		st["current_temperature"] = *data.Temperature
	}
	if data.Humidity != nil {
		st["current_humidity"] = *data.Humidity
	}
	return st
}

// lightEntity is an on/off IR light.
type lightEntity struct {
	origin
	light *appliance.Light
}

func (e *lightEntity) id() string          { return e.light.ID }
func (e *lightEntity) defaultName() string { return e.light.Name() }
func (e *lightEntity) kind() string        { return device.DeviceTypeLight }

func (e *lightEntity) schema() json.RawMessage {
	return objectSchema(map[string]any{
		"power": map[string]any{"type": "string", "enum": []string{"on", "off", "toggle"}},
	})
}

func (e *lightEntity) exposes() json.RawMessage {
	return mustJSON(map[string]any{"one_button": e.light.OneButton, "assumed_state": true})
}

func (e *lightEntity) state() device.DeviceState {
	return device.DeviceState{"power": onOff(e.light.IsOn())}
}

// selectorEntity lets a learned signal or light button be chosen and sent.
type selectorEntity struct {
	origin
	sel *appliance.SignalSelector
}

func (e *selectorEntity) id() string          { return e.sel.UniqueID() }
func (e *selectorEntity) defaultName() string { return e.sel.DisplayName() }
func (e *selectorEntity) kind() string        { return device.DeviceTypeRemote }

func (e *selectorEntity) schema() json.RawMessage {
	return objectSchema(map[string]any{
		"option": map[string]any{"type": "string", "enum": e.sel.Options()},
		"press":  map[string]any{"type": "boolean"},
	})
}

func (e *selectorEntity) exposes() json.RawMessage {
	return mustJSON(map[string]any{"appliance_id": e.sel.ID, "options": e.sel.Options()})
}

func (e *selectorEntity) state() device.DeviceState {
	return device.DeviceState{"option": e.sel.Current(), "options": e.sel.Options()}
}

// sensorEntity is one reading of a Remo device. Its data is owned by the hub.
type sensorEntity struct {
	origin
	sensor.Sensor
	read func(mac string) sensor.Data
}

func (e *sensorEntity) id() string               { return e.UniqueID() }
func (e *sensorEntity) defaultName() string      { return e.Name() }
func (e *sensorEntity) kind() string             { return device.DeviceTypeSensor }
func (e *sensorEntity) schema() json.RawMessage  { return nil }
func (e *sensorEntity) exposes() json.RawMessage {
	return mustJSON(map[string]any{"kind": e.Kind, "unit": e.Unit()})
}

func (e *sensorEntity) state() device.DeviceState {
	st := device.DeviceState{"value": e.read(e.MAC).Value(e.Kind)}
	if u := e.Unit(); u != "" {
		st["unit"] = u
	}
	return st
}

// meterEntity is a smart meter appliance.
type meterEntity struct {
	origin
	applianceID string
	name        string
	read        func(id string) sensor.MeterReading
}

func (e *meterEntity) id() string               { return e.applianceID }
func (e *meterEntity) defaultName() string      { return e.name }
func (e *meterEntity) kind() string             { return device.DeviceTypeMeter }
func (e *meterEntity) schema() json.RawMessage  { return nil }
func (e *meterEntity) exposes() json.RawMessage {
	return mustJSON(map[string]any{"power_unit": "W", "energy_unit": "kWh"})
}

func (e *meterEntity) state() device.DeviceState {
	return toState(e.read(e.applianceID))
}

func objectSchema(props map[string]any) json.RawMessage {
	return mustJSON(map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
		"minProperties":        1,
	})
}

// mustJSON marshals values built from plain maps and slices, which cannot fail.
func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// toState converts a struct to a state map through its JSON form.
func toState(v any) device.DeviceState {
	var st device.DeviceState
	if err := json.Unmarshal(mustJSON(v), &st); err != nil {
		panic(err)
	}
	return st
}

func appendUnique(list []string, items ...string) []string {
	for _, it := range items {
		found := false
		for _, l := range list {
			if l == it {
				found = true
				break
			}
		}
		if !found {
			list = append(list, it)
		}
	}
	return list
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
