package mcp

import (
	"encoding/json"

	"github.com/urmzd/remo/pkg/device"
)

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status     string `json:"status"`
	Controller string `json:"controller"`
	Timestamp  string `json:"timestamp"`
}

// ListDevicesOutput is the output for the list_devices tool
type ListDevicesOutput struct {
	Devices []DeviceInfo `json:"devices"`
	Count   int          `json:"count"`
}

// DeviceInfo represents a device in tool outputs
type DeviceInfo struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Hub         string          `json:"hub,omitempty"`
	StateSchema json.RawMessage `json:"state_schema,omitempty"`
	Exposes     json.RawMessage `json:"exposes,omitempty"`
	State       map[string]any  `json:"state,omitempty"`
}

// GetDeviceOutput is the output for the get_device tool
type GetDeviceOutput struct {
	Device DeviceInfo `json:"device"`
}

// MessageOutput is the output of tools that only report success
type MessageOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// StateOutput is the output of every tool that reads or changes state
type StateOutput struct {
	DeviceID string         `json:"device_id"`
	State    map[string]any `json:"state"`
}

// DeviceToInfo converts a device.Device to DeviceInfo
func DeviceToInfo(d *device.Device) DeviceInfo {
	return DeviceInfo{
		ID:          d.ID,
		Name:        d.Name,
		Type:        d.Type,
		Hub:         d.Hub,
		StateSchema: d.StateSchema,
		Exposes:     d.Exposes,
	}
}
