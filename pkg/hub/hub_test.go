package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/remo/pkg/db"
	"github.com/urmzd/remo/pkg/device"
	"github.com/urmzd/remo/pkg/remo"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const appliancesJSON = `[
	{
		"id": "ac-1",
		"nickname": "AC",
		"device": {"id": "dev-1", "name": "Living", "mac_address": "aa:bb"},
		"aircon": {
			"tempUnit": "c",
			"range": {
				"fixedButtons": ["power-off"],
				"modes": {
					"cool": {"temp": ["18", "18.5", "19"], "vol": ["auto", "1"], "dir": ["auto", "swing"], "dirh": []},
					"warm": {"temp": ["20", "21", "22"], "vol": ["auto"], "dir": ["auto"], "dirh": []}
				}
			}
		}
	},
	{
		"id": "ac-bad",
		"nickname": "Old AC",
		"aircon": {"tempUnit": "f", "range": {"fixedButtons": ["power-off"], "modes": {"cool": {"temp": ["70"]}}}}
	},
	{
		"id": "light-1",
		"nickname": "Ceiling",
		"device": {"id": "dev-1", "name": "Living", "mac_address": "aa:bb"},
		"light": {"buttons": [{"name": "onoff"}, {"name": "night"}], "state": {"power": "off"}}
	},
	{
		"id": "tv-1",
		"nickname": "TV",
		"signals": [{"id": "sig-1", "name": "Power"}, {"id": "sig-2", "name": "Mute"}]
	},
	{
		"id": "meter-1",
		"nickname": "Meter",
		"smart_meter": {"echonetlite_properties": [
			{"name": "measured_instantaneous", "epc": 231, "val": "500", "updated_at": "2024-05-01T11:00:00Z"}
		]}
	}
]`

type fakeClient struct {
	mu         sync.Mutex
	appliances []remo.Appliance
	devices    map[string]remo.Device
	fetchErr   error
	sendErr    error
	forms      []url.Values
	signals    []string
	buttons    []string
}

func newFakeClient(t *testing.T) *fakeClient {
	t.Helper()
	var list []remo.Appliance
	require.NoError(t, json.Unmarshal([]byte(appliancesJSON), &list))
	return &fakeClient{
		appliances: list,
		devices: map[string]remo.Device{
			"aa:bb": {Name: "Living", MacAddress: "aa:bb", NewestEvents: map[string]remo.Event{
				remo.EventTemperature: {Val: 22.5, CreatedAt: "2024-05-01T11:00:00Z"},
				remo.EventHumidity:    {Val: 40, CreatedAt: "2024-05-01T11:00:00Z"},
			}},
		},
	}
}

func (c *fakeClient) FetchAppliances(_ context.Context) (remo.Appliances, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fetchErr != nil {
		return remo.Appliances{}, c.fetchErr
	}
	return remo.Group(c.appliances), nil
}

func (c *fakeClient) FetchSensorData(_ context.Context) (map[string]remo.Device, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.devices, nil
}

func (c *fakeClient) SendAirConSettings(_ context.Context, _ string, form url.Values) (*remo.AirConSettings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forms = append(c.forms, form)
	return &remo.AirConSettings{}, c.sendErr
}

func (c *fakeClient) SendSignal(_ context.Context, signalID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals = append(c.signals, signalID)
	return c.sendErr
}

func (c *fakeClient) SendLightButton(_ context.Context, _ string, button string) (*remo.LightState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buttons = append(c.buttons, button)
	return &remo.LightState{}, c.sendErr
}

func (c *fakeClient) setSettings(id string, s *remo.AirConSettings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.appliances {
		if c.appliances[i].ID == id {
			c.appliances[i].Settings = s
		}
	}
}

type memClimates struct {
	data map[string][]byte
}

func (s *memClimates) Get(_ context.Context, id string) ([]byte, error) {
	b, ok := s.data[id]
	if !ok {
		return nil, db.ErrClimateStateNotFound
	}
	return b, nil
}

func (s *memClimates) Save(_ context.Context, id string, data []byte) error {
	s.data[id] = data
	return nil
}

func (s *memClimates) Delete(_ context.Context, id string) error {
	delete(s.data, id)
	return nil
}

type memNames map[string]string

func (s memNames) List(_ context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

func (s memNames) Set(_ context.Context, id, name string) error {
	if name == "" {
		delete(s, id)
		return nil
	}
	s[id] = name
	return nil
}

type recordingPublisher struct {
	ids []string
}

func (p *recordingPublisher) Publish(dev device.Device, _ device.DeviceState) error {
	p.ids = append(p.ids, dev.ID)
	return nil
}

type fixture struct {
	hub      *Hub
	client   *fakeClient
	climates *memClimates
	names    memNames
	pub      *recordingPublisher
}

func setup(t *testing.T, prepare ...func(*fixture)) *fixture {
	t.Helper()
	f := &fixture{
		client:   newFakeClient(t),
		climates: &memClimates{data: map[string][]byte{}},
		names:    memNames{},
		pub:      &recordingPublisher{},
	}
	for _, p := range prepare {
		p(f)
	}
	f.hub = New(f.client, Stores{Climates: f.climates, Names: f.names},
		WithClock(func() time.Time { return t0 }),
		WithPublisher(f.pub),
	)
	require.NoError(t, f.hub.Setup(context.Background()))
	return f
}

func TestSetup_BuildsDevices(t *testing.T) {
	f := setup(t)

	devices, err := f.hub.ListDevices(context.Background())
	require.NoError(t, err)

	types := map[string]string{}
	for _, d := range devices {
		types[d.ID] = d.Type
		assert.Equal(t, device.ProtocolNatureRemo, d.Protocol)
	}
	assert.Equal(t, map[string]string{
		"ac-1":                       device.DeviceTypeClimate,
		"light-1":                    device.DeviceTypeLight,
		"Signals @ light-1":          device.DeviceTypeRemote,
		"Signals @ tv-1":             device.DeviceTypeRemote,
		"meter-1":                    device.DeviceTypeMeter,
		"Temperature Sensor @ aa:bb": device.DeviceTypeSensor,
		"Humidity Sensor @ aa:bb":    device.DeviceTypeSensor,
	}, types)
	assert.True(t, f.hub.IsConnected())

	ac, err := f.hub.GetDevice(context.Background(), "ac-1")
	require.NoError(t, err)
	assert.Equal(t, "Living", ac.Hub)
	assert.Equal(t, "aa:bb", ac.HubMAC)
	assert.NotEmpty(t, ac.StateSchema)
}

func TestSetup_FetchFailure(t *testing.T) {
	client := newFakeClient(t)
	client.fetchErr = remo.ErrNetwork
	h := New(client, Stores{})

	err := h.Setup(context.Background())
	assert.ErrorIs(t, err, remo.ErrNetwork)
	assert.False(t, h.IsConnected())
}

func TestSetDeviceState_Climate(t *testing.T) {
	f := setup(t)
	ch := f.hub.Subscribe()
	defer f.hub.Unsubscribe(ch)

	st, err := f.hub.SetDeviceState(context.Background(), "ac-1", map[string]any{
		"hvac_mode":   "cool",
		"temperature": 19.0,
	})
	require.NoError(t, err)
	assert.Equal(t, "cool", st["hvac_mode"])
	assert.Equal(t, 19.0, st["target_temperature"])

	require.Len(t, f.client.forms, 2)
	assert.Equal(t, "cool", f.client.forms[0].Get("operation_mode"))
	assert.Equal(t, "18.5", f.client.forms[0].Get("temperature"))
	assert.Equal(t, "19", f.client.forms[1].Get("temperature"))
	assert.Equal(t, "", f.client.forms[1].Get("button"))

	var saved map[string]map[string]any
	require.NoError(t, json.Unmarshal(f.climates.data["ac-1"], &saved))
	assert.Equal(t, 2.0, saved["mode_target_temp_idx"]["cool"])

	select {
	case evt := <-ch:
		assert.Equal(t, device.EventStateChanged, evt.Type)
		assert.Equal(t, "ac-1", evt.Device.ID)
	default:
		t.Fatal("expected a state change event")
	}
	assert.Contains(t, f.pub.ids, "ac-1")
}

func TestSetDeviceState_ClimateOff(t *testing.T) {
	f := setup(t)

	_, err := f.hub.SetDeviceState(context.Background(), "ac-1", map[string]any{"power": "on"})
	require.NoError(t, err)
	st, err := f.hub.SetDeviceState(context.Background(), "ac-1", map[string]any{"hvac_mode": "off"})
	require.NoError(t, err)

	assert.Equal(t, "off", st["hvac_mode"])
	assert.Equal(t, "power-off", f.client.forms[len(f.client.forms)-1].Get("button"))
}

func TestSetDeviceState_Validation(t *testing.T) {
	f := setup(t)

	tests := map[string]map[string]any{
		"unknown mode":   {"hvac_mode": "eco"},
		"unknown key":    {"brightness": 3.0},
		"wrong type":     {"temperature": "warm"},
		"empty":          {},
		"out of range":   {"temperature": 40.0},
		"unknown option": {"fan_mode": "turbo"},
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.hub.SetDeviceState(context.Background(), "ac-1", payload)
			assert.ErrorIs(t, err, device.ErrValidation)
		})
	}
	assert.Empty(t, f.client.forms)
}

func TestSetDeviceState_SendFailureKeepsState(t *testing.T) {
	f := setup(t)
	f.client.sendErr = remo.ErrNetwork

	_, err := f.hub.SetDeviceState(context.Background(), "ac-1", map[string]any{"hvac_mode": "heat"})
	assert.ErrorIs(t, err, remo.ErrNetwork)

	st, err := f.hub.GetDeviceState(context.Background(), "ac-1")
	require.NoError(t, err)
	assert.Equal(t, "heat", st["hvac_mode"])
}

func TestSetDeviceState_TimeoutIsReported(t *testing.T) {
	f := setup(t)
	f.client.sendErr = fmt.Errorf("%w: %w", remo.ErrNetwork, context.DeadlineExceeded)

	_, err := f.hub.SetDeviceState(context.Background(), "light-1", map[string]any{"power": "on"})
	assert.ErrorIs(t, err, device.ErrTimeout)
	assert.ErrorIs(t, err, remo.ErrNetwork)
}

func TestSetup_RestoresClimate(t *testing.T) {
	f := setup(t, func(f *fixture) {
		f.climates.data["ac-1"] = []byte(`{"mode_target_temp_idx":{"cool":0},"mode_target_fan_mode":{"cool":"1"}}`)
	})

	_, err := f.hub.SetDeviceState(context.Background(), "ac-1", map[string]any{"hvac_mode": "cool"})
	require.NoError(t, err)
	require.Len(t, f.client.forms, 1)
	assert.Equal(t, "18", f.client.forms[0].Get("temperature"))
	assert.Equal(t, "1", f.client.forms[0].Get("air_volume"))
}

func TestRefresh_AppliesNewerStatusOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.client.setSettings("ac-1", &remo.AirConSettings{
		Temp: "22", Mode: "warm", Vol: "auto", Dir: "auto",
		UpdatedAt: t0.Add(-time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, f.hub.Refresh(ctx))
	st, _ := f.hub.GetDeviceState(ctx, "ac-1")
	assert.Equal(t, "off", st["hvac_mode"])

	f.client.setSettings("ac-1", &remo.AirConSettings{
		Temp: "22", Mode: "warm", Vol: "auto", Dir: "auto",
		UpdatedAt: t0.Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, f.hub.Refresh(ctx))
	st, _ = f.hub.GetDeviceState(ctx, "ac-1")
	assert.Equal(t, "heat", st["hvac_mode"])
	assert.Equal(t, 22.0, st["target_temperature"])
	assert.Empty(t, f.client.forms)
}

func TestSetDeviceState_Light(t *testing.T) {
	f := setup(t)

	st, err := f.hub.SetDeviceState(context.Background(), "light-1", map[string]any{"power": "on"})
	require.NoError(t, err)
	assert.Equal(t, "on", st["power"])

	_, err = f.hub.SetDeviceState(context.Background(), "light-1", map[string]any{"power": "on"})
	require.NoError(t, err)
	assert.Equal(t, []string{"onoff"}, f.client.buttons)

	_, err = f.hub.SetDeviceState(context.Background(), "light-1", map[string]any{"power": "dim"})
	assert.ErrorIs(t, err, device.ErrValidation)
}

func TestSetDeviceState_Selector(t *testing.T) {
	f := setup(t)

	st, err := f.hub.SetDeviceState(context.Background(), "Signals @ tv-1", map[string]any{
		"option": "2. Mute",
		"press":  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "2. Mute", st["option"])
	assert.Equal(t, []string{"sig-2"}, f.client.signals)

	_, err = f.hub.SetDeviceState(context.Background(), "Signals @ tv-1", map[string]any{"option": "3. Input"})
	assert.ErrorIs(t, err, device.ErrValidation)
}

func TestReadOnlyDevices(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	st, err := f.hub.GetDeviceState(ctx, "Temperature Sensor @ aa:bb")
	require.NoError(t, err)
	assert.Equal(t, 22.5, st["value"])
	assert.Equal(t, "°C", st["unit"])

	st, err = f.hub.GetDeviceState(ctx, "meter-1")
	require.NoError(t, err)
	assert.Equal(t, 500.0, st["power"])
	assert.Equal(t, "2024-05-01T11:00:00Z", st["updated_at"])

	_, err = f.hub.SetDeviceState(ctx, "meter-1", map[string]any{"power": 1.0})
	assert.ErrorIs(t, err, device.ErrUnsupported)
}

func TestRenameDevice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.hub.RenameDevice(ctx, "ac-1", "Bedroom"))
	assert.Equal(t, "Bedroom", f.names["ac-1"])

	dev, err := f.hub.GetDevice(ctx, "Bedroom")
	require.NoError(t, err)
	assert.Equal(t, "ac-1", dev.ID)

	require.NoError(t, f.hub.RenameDevice(ctx, "Bedroom", ""))
	_, err = f.hub.GetDevice(ctx, "Bedroom")
	assert.ErrorIs(t, err, device.ErrNotFound)

	assert.ErrorIs(t, f.hub.RenameDevice(ctx, "nope", "x"), device.ErrNotFound)
}

func TestRemoveDevice(t *testing.T) {
	f := setup(t)

	assert.ErrorIs(t, f.hub.RemoveDevice(context.Background(), "ac-1", false), device.ErrUnsupported)
	assert.ErrorIs(t, f.hub.RemoveDevice(context.Background(), "nope", true), device.ErrNotFound)
}

func TestRefresh_SensorChangeEmits(t *testing.T) {
	f := setup(t)
	ch := f.hub.Subscribe()
	defer f.hub.Unsubscribe(ch)

	f.client.mu.Lock()
	f.client.devices = map[string]remo.Device{
		"aa:bb": {Name: "Living", MacAddress: "aa:bb", NewestEvents: map[string]remo.Event{
			remo.EventTemperature: {Val: 23, CreatedAt: "2024-05-01T12:00:00Z"},
			remo.EventHumidity:    {Val: 40, CreatedAt: "2024-05-01T11:00:00Z"},
		}},
	}
	f.client.mu.Unlock()
	require.NoError(t, f.hub.Refresh(context.Background()))

	var changed []string
	for len(ch) > 0 {
		evt := <-ch
		if evt.Type == device.EventStateChanged {
			changed = append(changed, evt.Device.ID)
		}
	}
	assert.ElementsMatch(t, []string{"Temperature Sensor @ aa:bb", "ac-1"}, changed)

	st, err := f.hub.GetDeviceState(context.Background(), "ac-1")
	require.NoError(t, err)
	assert.Equal(t, 23.0, st["current_temperature"])
}

func TestClimate_ReadsBoundSensors(t *testing.T) {
	f := setup(t)

	st, err := f.hub.GetDeviceState(context.Background(), "ac-1")
	require.NoError(t, err)
	assert.Equal(t, 22.5, st["current_temperature"])
	assert.Equal(t, 40.0, st["current_humidity"])
}

func TestSetDeviceState_UnchangedDoesNotEmit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.hub.SetDeviceState(ctx, "ac-1", map[string]any{"hvac_mode": "cool"})
	require.NoError(t, err)
	sent := len(f.client.forms)
	published := len(f.pub.ids)

	ch := f.hub.Subscribe()
	defer f.hub.Unsubscribe(ch)

	_, err = f.hub.SetDeviceState(ctx, "ac-1", map[string]any{"temperature": 18.5})
	require.NoError(t, err)
	_, err = f.hub.SetDeviceState(ctx, "ac-1", map[string]any{"hvac_mode": "cool", "fan_mode": "auto"})
	require.NoError(t, err)

	assert.Len(t, f.client.forms, sent)
	assert.Len(t, f.pub.ids, published)
	assert.Zero(t, len(ch))
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := New(newFakeClient(t), Stores{})
	ch := h.Subscribe()
	h.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)
	assert.NoError(t, h.Refresh(context.Background()))
}
