package sensor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/urmzd/remo/pkg/remo"
)

// ECHONET Lite property codes of a low-voltage smart meter.
const (
	EPCInstantaneousPower = 231
	EPCConsumedEnergy     = 224
	EPCGeneratedEnergy    = 227
	EPCEnergyMaxDigits    = 215
	EPCEnergyCoefficient  = 211
	EPCEnergyUnit         = 225
)

// energyUnits maps the energy unit code to kWh per count.
var energyUnits = map[int]float64{
	0x00: 1,
	0x01: 0.1,
	0x02: 0.01,
	0x03: 0.001,
	0x04: 0.0001,
	0x0A: 10,
	0x0B: 100,
	0x0C: 1000,
	0x0D: 10000,
}

// MeterReading is the state of a smart meter.
type MeterReading struct {
	// Power is the instantaneous power in W.
	Power *int `json:"power,omitempty"`
	// ConsumedEnergy and GeneratedEnergy are cumulative, in kWh.
	ConsumedEnergy  *float64  `json:"consumed_energy,omitempty"`
	GeneratedEnergy *float64  `json:"generated_energy,omitempty"`
	MaxDigits       int       `json:"max_digits,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ParseMeter reads the ECHONET Lite properties of a smart meter. Energy
// counts are scaled by the coefficient (1 when absent) and the unit code.
func ParseMeter(props []remo.EchonetLiteProperty) (MeterReading, error) {
	raw := make(map[int]string, len(props))
	var r MeterReading
	for _, p := range props {
		raw[p.EPC] = p.Val
		if ts, err := remo.ParseTime(p.UpdatedAt); err == nil && ts.After(r.UpdatedAt) {
			r.UpdatedAt = ts
		}
	}

	if v, ok := raw[EPCInstantaneousPower]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return MeterReading{}, fmt.Errorf("instantaneous power %q: %w", v, err)
		}
		r.Power = &n
	}
	if v, ok := raw[EPCEnergyMaxDigits]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return MeterReading{}, fmt.Errorf("max digits %q: %w", v, err)
		}
		r.MaxDigits = n
	}

	scale, err := energyScale(raw)
	if err != nil {
		return MeterReading{}, err
	}
	for epc, dst := range map[int]**float64{
		EPCConsumedEnergy:  &r.ConsumedEnergy,
		EPCGeneratedEnergy: &r.GeneratedEnergy,
	} {
		v, ok := raw[epc]
		if !ok {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return MeterReading{}, fmt.Errorf("energy epc %d %q: %w", epc, v, err)
		}
		e := n * scale
		*dst = &e
	}
	return r, nil
}

func energyScale(raw map[int]string) (float64, error) {
	coef := 1.0
	if v, ok := raw[EPCEnergyCoefficient]; ok {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("energy coefficient %q: %w", v, err)
		}
		coef = n
	}
	unit := 1.0
	if v, ok := raw[EPCEnergyUnit]; ok {
		code, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("energy unit %q: %w", v, err)
		}
		u, ok := energyUnits[code]
		if !ok {
			return 0, fmt.Errorf("unknown energy unit code %d", code)
		}
		unit = u
	}
	return coef * unit, nil
}
