package hub

import (
	"context"
	"errors"
	"fmt"
	"net"
	"reflect"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/remo/pkg/aircon"
	"github.com/urmzd/remo/pkg/appliance"
	"github.com/urmzd/remo/pkg/device"
)

// --- device.Controller interface ---

func (h *Hub) ListDevices(_ context.Context) ([]device.Device, error) {
	h.mu.RLock()
	list := make([]entity, 0, len(h.order))
	for _, id := range h.order {
		list = append(list, h.entities[id])
	}
	h.mu.RUnlock()

	devices := make([]device.Device, 0, len(list))
	for _, e := range list {
		devices = append(devices, h.describe(e))
	}
	return devices, nil
}

func (h *Hub) GetDevice(_ context.Context, id string) (*device.Device, error) {
	e, ok := h.lookup(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	dev := h.describe(e)
	return &dev, nil
}

// RenameDevice sets a local display name. An empty name restores the name
// reported by the cloud.
func (h *Hub) RenameDevice(ctx context.Context, id, newName string) error {
	e, ok := h.lookup(id)
	if !ok {
		return device.ErrNotFound
	}
	if h.stores.Names != nil {
		if err := h.stores.Names.Set(ctx, e.id(), newName); err != nil {
			return fmt.Errorf("save device name: %w", err)
		}
	}

	h.mu.Lock()
	if newName == "" {
		delete(h.names, e.id())
	} else {
		h.names[e.id()] = newName
	}
	h.mu.Unlock()

	log.Info().Str("device", e.id()).Str("name", newName).Msg("Device renamed")
	return nil
}

// RemoveDevice is not supported; appliances are managed in the vendor app.
func (h *Hub) RemoveDevice(_ context.Context, id string, _ bool) error {
	if _, ok := h.lookup(id); !ok {
		return device.ErrNotFound
	}
	return device.ErrUnsupported
}

func (h *Hub) GetDeviceState(_ context.Context, id string) (device.DeviceState, error) {
	e, ok := h.lookup(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	return h.stateOf(e), nil
}

// SetDeviceState validates state against the device's schema and applies it.
// Climate keys are applied in the order hvac_mode, power, temperature,
// fan_mode, swing_mode, each against the mode in effect at that point.
func (h *Hub) SetDeviceState(ctx context.Context, id string, state map[string]any) (device.DeviceState, error) {
	e, ok := h.lookup(id)
	if !ok {
		return nil, device.ErrNotFound
	}
	doc := e.schema()
	if doc == nil {
		return nil, fmt.Errorf("%w: %s is read-only", device.ErrUnsupported, e.id())
	}
	if err := h.validator.Validate(doc, state); err != nil {
		return nil, fmt.Errorf("%w: %v", device.ErrValidation, err)
	}

	before := e.state()
	var err error
	switch e := e.(type) {
	case *climateEntity:
		err = h.setClimate(ctx, e, state)
	case *lightEntity:
		err = h.setLight(ctx, e, state)
	case *selectorEntity:
		err = h.setSelector(ctx, e, state)
	default:
		err = device.ErrUnsupported
	}
	// A partial climate change is still announced before the error.
	if !reflect.DeepEqual(before, e.state()) {
		h.emit(e)
	}
	if err != nil {
		return nil, timeoutError(err)
	}
	return h.stateOf(e), nil
}

func (h *Hub) setClimate(ctx context.Context, e *climateEntity, state map[string]any) error {
	rec := e.rec
	steps := []struct {
		key   string
		apply func(v any) error
	}{
		{"hvac_mode", func(v any) error {
			mode, ok := aircon.ParseMode(v.(string))
			if !ok || !rec.Model().Supports(mode) {
				return fmt.Errorf("%w: unsupported hvac_mode %q", device.ErrValidation, v)
			}
			return rec.SetMode(ctx, mode)
		}},
		{"power", func(v any) error {
			if v == "off" {
				return rec.TurnOff(ctx)
			}
			return rec.TurnOn(ctx)
		}},
		{"temperature", func(v any) error {
			t, ok := toFloat(v)
			if !ok {
				return fmt.Errorf("%w: temperature must be a number", device.ErrValidation)
			}
			return rec.SetTemperature(ctx, t)
		}},
		{"fan_mode", func(v any) error { return rec.SetFanMode(ctx, v.(string)) }},
		{"swing_mode", func(v any) error { return rec.SetSwingMode(ctx, v.(string)) }},
	}

	changed := false
	for _, step := range steps {
		v, ok := state[step.key]
		if !ok {
			continue
		}
		if err := step.apply(v); err != nil {
			if changed {
				h.saveClimate(ctx, rec)
			}
			if errors.Is(err, aircon.ErrInvalidTemperature) {
				return fmt.Errorf("%w: %v", device.ErrValidation, err)
			}
			return fmt.Errorf("set %s: %w", step.key, err)
		}
		changed = true
	}
	h.saveClimate(ctx, rec)
	return nil
}

func (h *Hub) setLight(ctx context.Context, e *lightEntity, state map[string]any) error {
	var err error
	switch state["power"] {
	case "on":
		err = e.light.TurnOn(ctx)
	case "off":
		err = e.light.TurnOff(ctx)
	case "toggle":
		err = e.light.Toggle(ctx)
	}
	if err != nil {
		return fmt.Errorf("set power: %w", err)
	}
	return nil
}

func (h *Hub) setSelector(ctx context.Context, e *selectorEntity, state map[string]any) error {
	if opt, ok := state["option"].(string); ok {
		if err := e.sel.Select(opt); err != nil {
			if errors.Is(err, appliance.ErrUnknownOption) {
				return fmt.Errorf("%w: %v", device.ErrValidation, err)
			}
			return err
		}
	}
	if press, _ := state["press"].(bool); press {
		if err := e.sel.Send(ctx); err != nil {
			return fmt.Errorf("send %s: %w", e.sel.Selected().Name, err)
		}
	}
	return nil
}

// Refresh polls appliances and sensors now.
func (h *Hub) Refresh(ctx context.Context) error {
	err := errors.Join(h.appliances.Refresh(ctx), h.sensors.Refresh(ctx))
	if err == nil {
		h.publishEvent(device.Event{Type: device.EventRefreshed, Timestamp: h.now()})
	}
	return err
}

// IsConnected reports whether the last appliance poll succeeded.
func (h *Hub) IsConnected() bool {
	_, ok := h.appliances.Data()
	return ok && h.appliances.LastError() == nil
}

// Close stops polling and waits for the coordinators to return.
func (h *Hub) Close() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
	log.Info().Msg("Hub closed")
}

// timeoutError marks err as device.ErrTimeout when the cloud did not answer
// in time.
func timeoutError(err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %w", device.ErrTimeout, err)
	}
	return err
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
