package sensor

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/remo/pkg/remo"
)

// Kind is what a Remo sensor measures.
type Kind string

const (
	KindTemperature Kind = "Temperature"
	KindHumidity    Kind = "Humidity"
	KindIlluminance Kind = "Illuminance"
	KindMovement    Kind = "Movement"
)

// Units per kind. Movement is a timestamp and has none.
var units = map[Kind]string{
	KindTemperature: "°C",
	KindHumidity:    "%",
	KindIlluminance: "lx",
}

// Data is the newest readings of one Remo device. A nil field means the
// device has no such sensor.
type Data struct {
	Temperature *float64   `json:"temperature,omitempty"`
	Humidity    *float64   `json:"humidity,omitempty"`
	Illuminance *float64   `json:"illuminance,omitempty"`
	Movement    *time.Time `json:"movement,omitempty"`
}

// FromDevice extracts the readings of d.
func FromDevice(d remo.Device) Data {
	var data Data
	if ev, ok := d.NewestEvents[remo.EventTemperature]; ok {
		data.Temperature = ptr(ev.Val)
	}
	if ev, ok := d.NewestEvents[remo.EventHumidity]; ok {
		data.Humidity = ptr(ev.Val)
	}
	if ev, ok := d.NewestEvents[remo.EventIlluminance]; ok {
		data.Illuminance = ptr(ev.Val)
	}
	if ev, ok := d.NewestEvents[remo.EventMovement]; ok {
		ts, err := remo.ParseTime(ev.CreatedAt)
		if err != nil {
			log.Warn().Err(err).Str("device", d.MacAddress).Msg("Ignoring unreadable movement timestamp")
		} else {
			data.Movement = &ts
		}
	}
	return data
}

// Value returns the reading of kind, or nil.
func (d Data) Value(kind Kind) any {
	switch kind {
	case KindTemperature:
		if d.Temperature != nil {
			return *d.Temperature
		}
	case KindHumidity:
		if d.Humidity != nil {
			return *d.Humidity
		}
	case KindIlluminance:
		if d.Illuminance != nil {
			return *d.Illuminance
		}
	case KindMovement:
		if d.Movement != nil {
			return *d.Movement
		}
	}
	return nil
}

// Kinds lists the sensors present in d.
func (d Data) Kinds() []Kind {
	var kinds []Kind
	for _, k := range []Kind{KindTemperature, KindHumidity, KindIlluminance, KindMovement} {
		if d.Value(k) != nil {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Sensor is one reading of one Remo device.
type Sensor struct {
	Kind       Kind
	MAC        string
	DeviceName string
}

// Name is the display name, e.g. "Temperature Sensor @ Living".
func (s Sensor) Name() string {
	return string(s.Kind) + " Sensor @ " + s.DeviceName
}

// UniqueID identifies the sensor by its device MAC.
func (s Sensor) UniqueID() string {
	return string(s.Kind) + " Sensor @ " + s.MAC
}

// Unit returns the unit of measurement.
func (s Sensor) Unit() string {
	return units[s.Kind]
}

// Discover lists a sensor for every reading present, ordered by MAC and kind.
func Discover(devices map[string]remo.Device) []Sensor {
	macs := make([]string, 0, len(devices))
	for mac := range devices {
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	var sensors []Sensor
	for _, mac := range macs {
		d := devices[mac]
		for _, k := range FromDevice(d).Kinds() {
			sensors = append(sensors, Sensor{Kind: k, MAC: mac, DeviceName: d.Name})
		}
	}
	return sensors
}

func ptr[T any](v T) *T {
	return &v
}
