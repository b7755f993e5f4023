// Package hub exposes the appliances and sensors of a Nature Remo account as
// devices. It owns the air conditioner reconcilers and the poll coordinators
// that keep them in step with the cloud.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/remo/pkg/aircon"
	"github.com/urmzd/remo/pkg/appliance"
	"github.com/urmzd/remo/pkg/coordinator"
	"github.com/urmzd/remo/pkg/db"
	"github.com/urmzd/remo/pkg/device"
	"github.com/urmzd/remo/pkg/device/schema"
	"github.com/urmzd/remo/pkg/metrics"
	"github.com/urmzd/remo/pkg/remo"
	"github.com/urmzd/remo/pkg/sensor"
)

// Client is the part of the cloud API the hub uses.
type Client interface {
	FetchAppliances(ctx context.Context) (remo.Appliances, error)
	FetchSensorData(ctx context.Context) (map[string]remo.Device, error)
	SendAirConSettings(ctx context.Context, applianceID string, form url.Values) (*remo.AirConSettings, error)
	SendSignal(ctx context.Context, signalID string) error
	SendLightButton(ctx context.Context, applianceID, button string) (*remo.LightState, error)
}

// Publisher receives every accepted state change.
type Publisher interface {
	Publish(dev device.Device, state device.DeviceState) error
}

// Stores persist what the hub keeps across restarts. Either may be nil.
type Stores struct {
	Climates db.ClimateStateStore
	Names    db.NameStore
}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics records polls and commands on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithPublisher forwards state changes to p.
func WithPublisher(p Publisher) Option {
	return func(h *Hub) { h.publisher = p }
}

// WithInterval sets the poll interval of both coordinators.
func WithInterval(d time.Duration) Option {
	return func(h *Hub) { h.interval = d }
}

// WithLocation renders timestamps in loc.
func WithLocation(loc *time.Location) Option {
	return func(h *Hub) {
		if loc != nil {
			h.location = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// Hub implements device.Controller and device.EventSubscriber on top of the
// Nature Remo cloud API.
type Hub struct {
	client    Client
	stores    Stores
	metrics   *metrics.Metrics
	publisher Publisher
	validator *schema.Validator
	interval  time.Duration
	location  *time.Location
	now       func() time.Time

	appliances *coordinator.Coordinator[remo.Appliances]
	sensors    *coordinator.Coordinator[map[string]remo.Device]

	mu         sync.RWMutex
	order      []string
	entities   map[string]entity
	names      map[string]string
	sensorData map[string]sensor.Data
	meters     map[string]sensor.MeterReading

	subscribers   []chan device.Event
	subscribersMu sync.Mutex

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a hub. Call Setup before use.
func New(client Client, stores Stores, opts ...Option) *Hub {
	h := &Hub{
		client:     client,
		stores:     stores,
		validator:  schema.NewValidator(),
		interval:   coordinator.DefaultInterval,
		location:   time.UTC,
		now:        time.Now,
		entities:   make(map[string]entity),
		names:      make(map[string]string),
		sensorData: make(map[string]sensor.Data),
		meters:     make(map[string]sensor.MeterReading),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.appliances = coordinator.New("appliances", h.interval, client.FetchAppliances).UseMetrics(h.metrics)
	h.sensors = coordinator.New("sensors", h.interval, client.FetchSensorData).UseMetrics(h.metrics)
	return h
}

// Setup fetches appliances and sensors once and builds the entities. A
// failed appliance fetch is fatal; a failed sensor fetch only leaves the
// sensors out.
func (h *Hub) Setup(ctx context.Context) error {
	if h.stores.Names != nil {
		names, err := h.stores.Names.List(ctx)
		if err != nil {
			return fmt.Errorf("load device names: %w", err)
		}
		h.names = names
	}

	if err := h.appliances.Refresh(ctx); err != nil {
		return fmt.Errorf("fetch appliances: %w", err)
	}
	if err := h.sensors.Refresh(ctx); err != nil {
		log.Warn().Err(err).Msg("Sensor data unavailable; sensors will not be set up")
	}

	apps, _ := h.appliances.Data()
	h.setupAppliances(ctx, apps)
	if devices, ok := h.sensors.Data(); ok {
		h.setupSensors(devices)
	}

	h.appliances.Listen(h.onAppliances)
	h.sensors.Listen(h.onSensors)

	log.Info().Int("devices", len(h.order)).Msg("Hub ready")
	return nil
}

func (h *Hub) setupAppliances(ctx context.Context, apps remo.Appliances) {
	s := sender{h}

	for i := range apps.AirCons {
		a := apps.AirCons[i]
		model, err := aircon.FromAppliance(&a)
		if err != nil {
			log.Error().Err(err).Str("appliance", a.ID).Str("name", a.Nickname).
				Msg("Unexpected air conditioner configuration; please report it to the project maintainer")
			continue
		}
		rec := aircon.NewReconciler(model, s, aircon.WithClock(h.now))
		h.restoreClimate(ctx, rec)
		h.add(&climateEntity{origin: originOf(a), rec: rec, read: h.sensorReading})
	}

	for _, a := range apps.Lights {
		if l, err := appliance.NewLight(a, s); err == nil {
			h.add(&lightEntity{origin: originOf(a), light: l})
		}
		sel, err := appliance.FromLight(a, s)
		h.addSelector(originOf(a), sel, err)
	}

	for _, a := range apps.Others {
		sel, err := appliance.FromSignals(a, s)
		h.addSelector(originOf(a), sel, err)
	}

	for _, a := range apps.SmartMeters {
		h.updateMeter(a)
		h.add(&meterEntity{origin: originOf(a), applianceID: a.ID, name: a.Nickname, read: h.meterReading})
	}
}

func (h *Hub) addSelector(o origin, sel *appliance.SignalSelector, err error) {
	if err != nil {
		log.Debug().Err(err).Msg("Skipping signal selector")
		return
	}
	h.add(&selectorEntity{origin: o, sel: sel})
}

func (h *Hub) setupSensors(devices map[string]remo.Device) {
	h.mu.Lock()
	for mac, d := range devices {
		h.sensorData[mac] = sensor.FromDevice(d)
	}
	h.mu.Unlock()

	for _, s := range sensor.Discover(devices) {
		h.add(&sensorEntity{origin: origin{hubName: s.DeviceName, hubMAC: s.MAC}, Sensor: s, read: h.sensorReading})
	}
}

func originOf(a remo.Appliance) origin {
	if a.Device == nil {
		return origin{}
	}
	return origin{hubName: a.Device.Name, hubMAC: a.Device.MacAddress}
}

func (h *Hub) add(e entity) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := e.id()
	if _, dup := h.entities[id]; dup {
		log.Warn().Str("device", id).Msg("Duplicate device id; keeping the first")
		return
	}
	h.entities[id] = e
	h.order = append(h.order, id)
}

// restoreClimate merges saved per-mode settings into rec.
func (h *Hub) restoreClimate(ctx context.Context, rec *aircon.Reconciler) {
	if h.stores.Climates == nil {
		return
	}
	id := rec.Model().ID
	raw, err := h.stores.Climates.Get(ctx, id)
	if errors.Is(err, db.ErrClimateStateNotFound) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("appliance", id).Msg("Failed to load climate state")
		return
	}
	var data aircon.RestoreData
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Warn().Err(err).Str("appliance", id).Msg("Ignoring unreadable climate state")
		return
	}
	rec.LoadPersistedState(data)
	log.Debug().Str("appliance", id).Msg("Restored climate state")
}

func (h *Hub) saveClimate(ctx context.Context, rec *aircon.Reconciler) {
	if h.stores.Climates == nil {
		return
	}
	id := rec.Model().ID
	raw, err := json.Marshal(rec.RestoreData())
	if err == nil {
		err = h.stores.Climates.Save(ctx, id, raw)
	}
	if err != nil {
		h.metrics.ErrorCounter("store")
		log.Warn().Err(err).Str("appliance", id).Msg("Failed to save climate state")
	}
}

// onAppliances merges a fresh appliance list into the existing entities.
// Appliances added after setup are not picked up until restart.
func (h *Hub) onAppliances(apps remo.Appliances) {
	for _, a := range apps.AirCons {
		e, ok := h.entity(a.ID).(*climateEntity)
		if !ok || a.Settings == nil {
			continue
		}
		st, err := aircon.ParseStatus(*a.Settings)
		if err != nil {
			log.Warn().Err(err).Str("appliance", a.ID).Msg("Ignoring unreadable status")
			continue
		}
		if !e.rec.ApplyStatus(st) {
			h.metrics.StaleStatus(a.ID)
			log.Debug().Str("appliance", a.ID).Time("status", st.Timestamp).Msg("Ignoring stale status")
			continue
		}
		h.emit(e)
	}

	for _, a := range apps.Lights {
		if e, ok := h.entity(a.ID).(*lightEntity); ok {
			h.updateIfChanged(e, func() { e.light.Update(a) })
		}
		if e, ok := h.entity(selectorID(a.ID)).(*selectorEntity); ok {
			h.updateIfChanged(e, func() { e.sel.Update(a) })
		}
	}
	for _, a := range apps.Others {
		if e, ok := h.entity(selectorID(a.ID)).(*selectorEntity); ok {
			h.updateIfChanged(e, func() { e.sel.Update(a) })
		}
	}
	for _, a := range apps.SmartMeters {
		if e := h.entity(a.ID); e != nil {
			h.updateIfChanged(e, func() { h.updateMeter(a) })
		}
	}
}

// onSensors stores new readings. Sensors and the air conditioners bound to
// the same Remo emit when their state changed.
func (h *Hub) onSensors(devices map[string]remo.Device) {
	readers := append(h.entitiesOfKind(device.DeviceTypeSensor), h.entitiesOfKind(device.DeviceTypeClimate)...)
	before := make(map[string]device.DeviceState, len(readers))
	for _, e := range readers {
		before[e.id()] = e.state()
	}

	h.mu.Lock()
	for mac, d := range devices {
		h.sensorData[mac] = sensor.FromDevice(d)
	}
	h.mu.Unlock()

	for _, e := range readers {
		if !reflect.DeepEqual(before[e.id()], e.state()) {
			h.emit(e)
		}
	}
}

func (h *Hub) updateIfChanged(e entity, update func()) {
	before := e.state()
	update()
	if !reflect.DeepEqual(before, e.state()) {
		h.emit(e)
	}
}

func (h *Hub) updateMeter(a remo.Appliance) {
	if a.SmartMeter == nil {
		return
	}
	r, err := sensor.ParseMeter(a.SmartMeter.EchonetLiteProperties)
	if err != nil {
		log.Warn().Err(err).Str("appliance", a.ID).Msg("Ignoring unreadable smart meter data")
		return
	}
	h.mu.Lock()
	h.meters[a.ID] = r
	h.mu.Unlock()
}

func (h *Hub) sensorReading(mac string) sensor.Data {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sensorData[mac]
}

func (h *Hub) meterReading(id string) sensor.MeterReading {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.meters[id]
}

func selectorID(applianceID string) string {
	return "Signals @ " + applianceID
}

func (h *Hub) entity(id string) entity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.entities[id]
}

func (h *Hub) entitiesOfKind(kind string) []entity {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []entity
	for _, id := range h.order {
		if e := h.entities[id]; e.kind() == kind {
			out = append(out, e)
		}
	}
	return out
}

// lookup finds an entity by id, then by display name.
func (h *Hub) lookup(idOrName string) (entity, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if e, ok := h.entities[idOrName]; ok {
		return e, true
	}
	for _, id := range h.order {
		e := h.entities[id]
		if h.displayNameLocked(e) == idOrName {
			return e, true
		}
	}
	return nil, false
}

func (h *Hub) displayNameLocked(e entity) string {
	if n, ok := h.names[e.id()]; ok {
		return n
	}
	return e.defaultName()
}

func (h *Hub) describe(e entity) device.Device {
	h.mu.RLock()
	name := h.displayNameLocked(e)
	h.mu.RUnlock()

	hubName, hubMAC := e.hub()
	return device.Device{
		ID:          e.id(),
		Name:        name,
		Type:        e.kind(),
		Protocol:    device.ProtocolNatureRemo,
		Hub:         hubName,
		HubMAC:      hubMAC,
		StateSchema: e.schema(),
		Exposes:     e.exposes(),
	}
}

// stateOf renders the state of e with timestamps in the hub location.
func (h *Hub) stateOf(e entity) device.DeviceState {
	st := e.state()
	for k, v := range st {
		switch v := v.(type) {
		case time.Time:
			st[k] = v.In(h.location).Format(time.RFC3339)
		case string:
			if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
				st[k] = ts.In(h.location).Format(time.RFC3339)
			}
		}
	}
	return st
}

// emit fans a state change out to subscribers and the publisher.
func (h *Hub) emit(e entity) {
	dev := h.describe(e)
	st := h.stateOf(e)
	h.publishEvent(device.Event{
		Type:      device.EventStateChanged,
		Device:    &dev,
		State:     st,
		Timestamp: h.now(),
	})
	if h.publisher != nil {
		if err := h.publisher.Publish(dev, st); err != nil {
			h.metrics.ErrorCounter("publish")
			log.Warn().Err(err).Str("device", dev.ID).Msg("Failed to publish state")
		}
	}
}

func (h *Hub) publishEvent(evt device.Event) {
	h.subscribersMu.Lock()
	defer h.subscribersMu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}

// Start runs both coordinators until Close.
func (h *Hub) Start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	for _, run := range []func(context.Context){h.appliances.Run, h.sensors.Run} {
		h.wg.Add(1)
		go func(run func(context.Context)) {
			defer h.wg.Done()
			run(ctx)
		}(run)
	}
}

// --- device.EventSubscriber interface ---

func (h *Hub) Subscribe() chan device.Event {
	ch := make(chan device.Event, 16)
	h.subscribersMu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.subscribersMu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan device.Event) {
	h.subscribersMu.Lock()
	defer h.subscribersMu.Unlock()

	for i, sub := range h.subscribers {
		if sub == ch {
			h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// sender sends commands on behalf of the entities and records them.
type sender struct {
	h *Hub
}

func (s sender) SendCommand(ctx context.Context, applianceID string, cmd aircon.Command) error {
	_, err := s.h.client.SendAirConSettings(ctx, applianceID, cmd.Values())
	s.h.metrics.Command(device.DeviceTypeClimate, err)
	return err
}

func (s sender) SendSignal(ctx context.Context, signalID string) error {
	err := s.h.client.SendSignal(ctx, signalID)
	s.h.metrics.Command(device.DeviceTypeRemote, err)
	return err
}

func (s sender) SendLightButton(ctx context.Context, applianceID, button string) (*remo.LightState, error) {
	st, err := s.h.client.SendLightButton(ctx, applianceID, button)
	s.h.metrics.Command(device.DeviceTypeLight, err)
	return st, err
}
