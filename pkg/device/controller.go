package device

import "context"

// Controller is the interface the API and MCP layers use to reach appliances.
type Controller interface {
	// ListDevices returns all known appliances and sensors
	ListDevices(ctx context.Context) ([]Device, error)

	// GetDevice returns a single device by ID or name
	GetDevice(ctx context.Context, id string) (*Device, error)

	// RenameDevice changes a device's friendly name
	RenameDevice(ctx context.Context, id, newName string) error

	// RemoveDevice removes a device
	RemoveDevice(ctx context.Context, id string, force bool) error

	// GetDeviceState retrieves the current state of a device
	GetDeviceState(ctx context.Context, id string) (DeviceState, error)

	// SetDeviceState applies a state change and returns the resulting state
	SetDeviceState(ctx context.Context, id string, state map[string]any) (DeviceState, error)

	// Refresh polls the cloud API immediately
	Refresh(ctx context.Context) error

	// IsConnected returns true if the last poll succeeded
	IsConnected() bool

	// Close stops background work
	Close()
}

// EventSubscriber delivers state change events.
type EventSubscriber interface {
	// Subscribe returns a channel that receives events
	Subscribe() chan Event

	// Unsubscribe removes a subscription and closes its channel
	Unsubscribe(ch chan Event)
}
