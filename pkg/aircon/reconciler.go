package aircon

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Sender delivers an encoded command to the unit.
type Sender interface {
	SendCommand(ctx context.Context, applianceID string, cmd Command) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, applianceID string, cmd Command) error

// SendCommand calls f.
func (f SenderFunc) SendCommand(ctx context.Context, applianceID string, cmd Command) error {
	return f(ctx, applianceID, cmd)
}

// DesiredState is what the user last asked for in one mode.
type DesiredState struct {
	TempIndex int
	Fan       string
	Swing     SwingPair
}

// State is the reconciler's full state: the visible mode, the last mode
// that was not off and the remembered settings of every mode.
type State struct {
	Mode     Mode
	LastMode Mode
	Desired  map[Mode]DesiredState
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ReconcilerOption {
	return func(r *Reconciler) {
		r.now = now
	}
}

// Reconciler owns the desired state of one air conditioner and merges it
// with polled statuses. The newest timestamp wins.
type Reconciler struct {
	mu     sync.Mutex
	sendMu sync.Mutex
	model  *Model
	sender Sender
	now    func() time.Time

	desired    map[Mode]DesiredState
	mode       Mode
	lastMode   Mode
	lastUpdate time.Time
	// statusMode is the mode restored from the descriptor's last status.
	statusMode Mode
}

// NewReconciler creates the reconciler for model. Every mode starts at its
// middle temperature, first fan speed and first swing pair. If the model
// carries a last status it is applied; otherwise the unit starts off.
func NewReconciler(model *Model, sender Sender, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		model:   model,
		sender:  sender,
		now:     time.Now,
		desired: make(map[Mode]DesiredState, len(model.Modes)),
		mode:    ModeOff,
	}
	for _, opt := range opts {
		opt(r)
	}
	for mode, spec := range model.Modes {
		if spec == nil {
			continue
		}
		d := DesiredState{TempIndex: len(spec.Temps) / 2, Swing: spec.SwingPairs[0]}
		if len(spec.FanModes) > 0 {
			d.Fan = spec.FanModes[0]
		}
		r.desired[mode] = d
	}

	if st := model.LastStatus; st != nil {
		r.recover(*st)
		r.statusMode = st.Mode
	} else {
		r.lastMode = model.firstMode()
		r.lastUpdate = r.now().UTC()
	}
	return r
}

// Model returns the appliance model.
func (r *Reconciler) Model() *Model {
	return r.model
}

// ApplyStatus merges a polled status. It is ignored unless strictly newer
// than the last update. Reports whether the status was applied.
func (r *Reconciler) ApplyStatus(st Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !st.Timestamp.After(r.lastUpdate) {
		return false
	}
	if !r.model.Supports(st.Mode) || st.Mode == ModeOff {
		log.Warn().
			Str("appliance", r.model.ID).
			Str("mode", string(st.Mode)).
			Msg("Ignoring status for unsupported mode")
		return false
	}
	r.recover(st)
	return true
}

// recover overwrites the status mode's desired state and the visible mode.
func (r *Reconciler) recover(st Status) {
	spec := r.model.Spec(st.Mode)
	r.lastUpdate = st.Timestamp
	r.lastMode = st.Mode
	r.desired[st.Mode] = DesiredState{
		TempIndex: nearestIndex(spec.Temps, st.Temperature),
		Fan:       st.Fan,
		Swing:     st.Swing,
	}
	if st.Power == PowerOff {
		r.mode = ModeOff
	} else {
		r.mode = st.Mode
	}
}

// SetMode switches the visible mode. Switching to off is TurnOff. Switching
// to the current or an unsupported mode does nothing.
func (r *Reconciler) SetMode(ctx context.Context, mode Mode) error {
	return r.change(ctx, func() bool {
		return r.switchModeLocked(mode)
	})
}

func (r *Reconciler) switchModeLocked(mode Mode) bool {
	if mode == r.mode {
		return false
	}
	if mode == ModeOff {
		r.mode = ModeOff
		return true
	}
	if r.model.Spec(mode) == nil {
		return false
	}
	r.mode = mode
	r.lastMode = mode
	return true
}

// TurnOn restores the last mode that was not off.
func (r *Reconciler) TurnOn(ctx context.Context) error {
	return r.change(ctx, func() bool {
		return r.switchModeLocked(r.lastMode)
	})
}

// TurnOff sends the power-off button, even when already off. The settings
// of every mode are kept.
func (r *Reconciler) TurnOff(ctx context.Context) error {
	return r.change(ctx, func() bool {
		r.mode = ModeOff
		return true
	})
}

// SetTemperature snaps v into the current mode's range and to the nearest
// selectable value, the lower one on a tie.
func (r *Reconciler) SetTemperature(ctx context.Context, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidTemperature, v)
	}
	return r.change(ctx, func() bool {
		if r.mode == ModeOff {
			return false
		}
		spec := r.model.Spec(r.mode)
		idx := nearestIndex(spec.Temps, math.Min(spec.High, math.Max(spec.Low, v)))

		d := r.desired[r.mode]
		if spec.Temps[idx] == spec.Temps[d.TempIndex] {
			return false
		}
		d.TempIndex = idx
		r.desired[r.mode] = d
		return true
	})
}

// SetFanMode selects a fan speed of the current mode.
func (r *Reconciler) SetFanMode(ctx context.Context, label string) error {
	return r.change(ctx, func() bool {
		if r.mode == ModeOff {
			return false
		}
		d := r.desired[r.mode]
		if label == d.Fan || !r.model.Spec(r.mode).HasFanMode(label) {
			return false
		}
		d.Fan = label
		r.desired[r.mode] = d
		return true
	})
}

// SetSwingMode selects a swing pair of the current mode by its display label.
func (r *Reconciler) SetSwingMode(ctx context.Context, label string) error {
	return r.change(ctx, func() bool {
		if r.mode == ModeOff {
			return false
		}
		d := r.desired[r.mode]
		if label == d.Swing.String() {
			return false
		}
		p, ok := r.model.Spec(r.mode).SwingPairByLabel(label)
		if !ok {
			return false
		}
		d.Swing = p
		r.desired[r.mode] = d
		return true
	})
}

// change applies fn under the state lock and, if fn reports a change, sends
// the resulting command with the state lock released. Readers and polls see
// the new state while the command is in flight. sendMu keeps commands in the
// order their state was decided. A failed send leaves the state changed but
// lastUpdate untouched, so the next newer status wins.
func (r *Reconciler) change(ctx context.Context, fn func() bool) error {
	r.sendMu.Lock()
	defer r.sendMu.Unlock()

	r.mu.Lock()
	if !fn() {
		r.mu.Unlock()
		return nil
	}
	cmd, err := Encode(r.model, r.stateLocked())
	r.mu.Unlock()
	if err != nil {
		return err
	}

	if err := r.sender.SendCommand(ctx, r.model.ID, cmd); err != nil {
		return err
	}

	r.mu.Lock()
	if now := r.now().UTC(); now.After(r.lastUpdate) {
		r.lastUpdate = now
	}
	r.mu.Unlock()
	return nil
}

// State returns a copy of the reconciler state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateLocked()
}

func (r *Reconciler) stateLocked() State {
	desired := make(map[Mode]DesiredState, len(r.desired))
	for k, v := range r.desired {
		desired[k] = v
	}
	return State{Mode: r.mode, LastMode: r.lastMode, Desired: desired}
}

// Command returns the command that matches the current state.
func (r *Reconciler) Command() (Command, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Encode(r.model, r.stateLocked())
}

// View is the externally visible state of the unit.
type View struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Mode              Mode      `json:"hvac_mode"`
	Action            Action    `json:"hvac_action"`
	Modes             []Mode    `json:"hvac_modes"`
	TargetTemperature float64   `json:"target_temperature"`
	MinTemp           float64   `json:"min_temp"`
	MaxTemp           float64   `json:"max_temp"`
	Step              *float64  `json:"target_temperature_step,omitempty"`
	FanMode           string    `json:"fan_mode,omitempty"`
	FanModes          []string  `json:"fan_modes,omitempty"`
	SwingMode         string    `json:"swing_mode,omitempty"`
	SwingModes        []string  `json:"swing_modes,omitempty"`
	Unit              string    `json:"temperature_unit"`
	Features          []string  `json:"supported_features"`
	LastMode          Mode      `json:"last_hvac_mode"`
	LastUpdate        time.Time `json:"last_update"`
}

// View returns the visible state. While off, temperatures read 0 and fan
// and swing are empty; the fan speeds of the last mode stay listed.
func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := View{
		ID:         r.model.ID,
		Name:       r.model.Name,
		Mode:       r.mode,
		Action:     r.mode.Action(),
		Modes:      r.model.HVACModes(),
		Unit:       TemperatureUnit,
		Features:   r.model.Features.Names(),
		LastMode:   r.lastMode,
		LastUpdate: r.lastUpdate,
	}
	if last := r.model.Spec(r.lastMode); last != nil {
		v.FanModes = last.FanModes
	}
	spec := r.model.Spec(r.mode)
	if spec == nil {
		return v
	}
	d := r.desired[r.mode]
	v.TargetTemperature = spec.Temps[d.TempIndex]
	v.MinTemp = spec.Temps[0]
	v.MaxTemp = spec.Temps[len(spec.Temps)-1]
	v.Step = spec.Step
	v.FanMode = d.Fan
	v.FanModes = spec.FanModes
	v.SwingMode = d.Swing.String()
	v.SwingModes = spec.SwingLabels()
	return v
}

// Mode returns the visible mode.
func (r *Reconciler) Mode() Mode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

// LastUpdate returns the timestamp of the newest accepted change.
func (r *Reconciler) LastUpdate() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastUpdate
}

// RestoreData is the per-mode memory saved across restarts.
type RestoreData struct {
	FanModes    map[Mode]string    `json:"mode_target_fan_mode"`
	TempIndices map[Mode]int       `json:"mode_target_temp_idx"`
	SwingPairs  map[Mode][2]string `json:"mode_target_swingmodepair"`
}

// RestoreData snapshots the per-mode memory.
func (r *Reconciler) RestoreData() RestoreData {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := RestoreData{
		FanModes:    make(map[Mode]string, len(r.desired)),
		TempIndices: make(map[Mode]int, len(r.desired)),
		SwingPairs:  make(map[Mode][2]string, len(r.desired)),
	}
	for mode, d := range r.desired {
		data.FanModes[mode] = d.Fan
		data.TempIndices[mode] = d.TempIndex
		data.SwingPairs[mode] = [2]string{d.Swing.V, d.Swing.H}
	}
	return data
}

// LoadPersistedState merges saved per-mode memory. The mode restored from
// the last live status keeps its values, and entries that no longer fit the
// model are dropped.
func (r *Reconciler) LoadPersistedState(data RestoreData) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for mode, d := range r.desired {
		if mode == r.statusMode {
			continue
		}
		spec := r.model.Spec(mode)
		if fan, ok := data.FanModes[mode]; ok && spec.HasFanMode(fan) {
			d.Fan = fan
		}
		if idx, ok := data.TempIndices[mode]; ok && idx >= 0 && idx < len(spec.Temps) {
			d.TempIndex = idx
		}
		if pair, ok := data.SwingPairs[mode]; ok {
			p := SwingPair{V: pair[0], H: pair[1]}
			if spec.hasSwingPair(p) {
				d.Swing = p
			}
		}
		r.desired[mode] = d
	}
}

// nearestIndex returns the index of the value closest to v. The first
// minimal index wins, so on ascending input ties go to the lower value.
func nearestIndex(values []float64, v float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, x := range values {
		if d := math.Abs(x - v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
