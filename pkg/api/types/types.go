package types

import (
	"encoding/json"
	"time"
)

// --- Request DTOs ---

// RenameDeviceRequest is the request body for PATCH /devices/:id
type RenameDeviceRequest struct {
	Name string `json:"name" binding:"required"`
}

// HVACModeRequest is the request body for POST /climates/:id/mode
type HVACModeRequest struct {
	HVACMode string `json:"hvac_mode" binding:"required"`
}

// TemperatureRequest is the request body for POST /climates/:id/temperature
type TemperatureRequest struct {
	Temperature *float64 `json:"temperature" binding:"required"`
}

// FanModeRequest is the request body for POST /climates/:id/fan
type FanModeRequest struct {
	FanMode string `json:"fan_mode" binding:"required"`
}

// SwingModeRequest is the request body for POST /climates/:id/swing
type SwingModeRequest struct {
	SwingMode string `json:"swing_mode"`
}

// SelectSignalRequest is the request body for POST /signals/:id/select
type SelectSignalRequest struct {
	Option string `json:"option" binding:"required"`
	Send   bool   `json:"send"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status     string    `json:"status"`
	Controller string    `json:"controller"`
	Devices    int       `json:"devices"`
	Timestamp  time.Time `json:"timestamp"`
}

// ListDevicesResponse is returned from GET /devices and the per-type lists
type ListDevicesResponse struct {
	Devices []DeviceWithState `json:"devices"`
	Count   int               `json:"count"`
}

// DeviceWithState combines device info with current state
type DeviceWithState struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Protocol    string          `json:"protocol"`
	Hub         string          `json:"hub,omitempty"`
	HubMAC      string          `json:"hub_mac,omitempty"`
	StateSchema json.RawMessage `json:"state_schema,omitempty"`
	Exposes     json.RawMessage `json:"exposes,omitempty"`
	State       map[string]any  `json:"state,omitempty"`
}

// DeviceResponse is returned from GET /devices/:id
type DeviceResponse struct {
	Device DeviceWithState `json:"device"`
}

// StateResponse is returned from GET/POST /devices/:id/state
type StateResponse struct {
	Device    string         `json:"device"`
	State     map[string]any `json:"state"`
	Timestamp time.Time      `json:"timestamp"`
}

// RefreshResponse is returned from POST /refresh
type RefreshResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
