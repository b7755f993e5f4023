package aircon

import "sort"

// Mode is an HVAC operating mode.
type Mode string

const (
	ModeOff     Mode = "off"
	ModeCool    Mode = "cool"
	ModeHeat    Mode = "heat"
	ModeDry     Mode = "dry"
	ModeAuto    Mode = "auto"
	ModeFanOnly Mode = "fan_only"
)

// Action is what the unit is doing in a given mode.
type Action string

const (
	ActionOff     Action = "off"
	ActionCooling Action = "cooling"
	ActionHeating Action = "heating"
	ActionDrying  Action = "drying"
	ActionIdle    Action = "idle"
	ActionFan     Action = "fan"
)

// vendorModes maps Remo operation modes to HVAC modes.
var vendorModes = map[string]Mode{
	"cool": ModeCool,
	"warm": ModeHeat,
	"dry":  ModeDry,
	"auto": ModeAuto,
	"blow": ModeFanOnly,
}

var modeVendor = func() map[Mode]string {
	m := make(map[Mode]string, len(vendorModes))
	for k, v := range vendorModes {
		m[v] = k
	}
	return m
}()

var modeActions = map[Mode]Action{
	ModeCool:    ActionCooling,
	ModeHeat:    ActionHeating,
	ModeDry:     ActionDrying,
	ModeAuto:    ActionIdle,
	ModeFanOnly: ActionFan,
	ModeOff:     ActionOff,
}

// ModeFromVendor translates a Remo operation mode.
func ModeFromVendor(s string) (Mode, bool) {
	m, ok := vendorModes[s]
	return m, ok
}

// Vendor returns the Remo operation mode for m, or "" for off.
func (m Mode) Vendor() string {
	return modeVendor[m]
}

// Action returns the HVAC action shown while in mode m.
func (m Mode) Action() Action {
	if a, ok := modeActions[m]; ok {
		return a
	}
	return ActionOff
}

// ParseMode accepts any known HVAC mode name.
func ParseMode(s string) (Mode, bool) {
	m := Mode(s)
	if _, ok := modeActions[m]; ok {
		return m, true
	}
	return "", false
}

func sortModes(modes []Mode) {
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })
}
