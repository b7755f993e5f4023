package device

import (
	"encoding/json"
	"time"
)

// Device is a controllable appliance or a sensor exposed by a Remo hub.
type Device struct {
	ID          string          `json:"id"`                     // Appliance ID, or "<kind> Sensor @ <mac>" for sensors
	Name        string          `json:"name"`                   // User-friendly name
	Type        string          `json:"type"`                   // climate, light, remote, sensor or meter
	Protocol    string          `json:"protocol"`               // Always nature_remo
	Hub         string          `json:"hub,omitempty"`          // Remo device name
	HubMAC      string          `json:"hub_mac,omitempty"`      // Remo device MAC address
	StateSchema json.RawMessage `json:"state_schema,omitempty"` // JSON Schema for settable state
	Exposes     json.RawMessage `json:"exposes,omitempty"`      // Capabilities (modes, options, units)
}

// DeviceState represents the current state of a device as a dynamic map.
type DeviceState map[string]any

// Event is emitted when a device's state changes.
type Event struct {
	Type      string      `json:"type"`             // state_changed or refreshed
	Device    *Device     `json:"device,omitempty"` // Device information if available
	State     DeviceState `json:"state,omitempty"`  // New state
	Timestamp time.Time   `json:"timestamp"`        // When the event occurred
}

// Event types
const (
	EventStateChanged = "state_changed"
	EventRefreshed    = "refreshed"
)

// ProtocolNatureRemo is the protocol of every device.
const ProtocolNatureRemo = "nature_remo"

// Device type constants
const (
	DeviceTypeClimate = "climate"
	DeviceTypeLight   = "light"
	DeviceTypeRemote  = "remote"
	DeviceTypeSensor  = "sensor"
	DeviceTypeMeter   = "meter"
)
