package appliance

import (
	"context"
	"fmt"
	"sync"

	"github.com/urmzd/remo/pkg/remo"
)

// IRSender transmits learned IR signals.
type IRSender interface {
	SendSignal(ctx context.Context, signalID string) error
}

// LightSender presses buttons on a light remote.
type LightSender interface {
	SendLightButton(ctx context.Context, applianceID, button string) (*remo.LightState, error)
}

// Signal is one selectable signal. For lights the ID is the button name.
type Signal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SignalSelector holds the signals of an appliance and the one currently
// selected for sending.
type SignalSelector struct {
	ID string

	send func(ctx context.Context, s Signal) error

	mu      sync.RWMutex
	name    string
	signals []Signal
	current int
}

// FromSignals builds a selector over the learned IR signals of a.
func FromSignals(a remo.Appliance, sender IRSender) (*SignalSelector, error) {
	signals := make([]Signal, 0, len(a.Signals))
	for _, s := range a.Signals {
		signals = append(signals, Signal{ID: s.ID, Name: s.Name})
	}
	return newSelector(a, signals, func(ctx context.Context, s Signal) error {
		return sender.SendSignal(ctx, s.ID)
	})
}

// FromLight builds a selector over the buttons of a light remote.
func FromLight(a remo.Appliance, sender LightSender) (*SignalSelector, error) {
	var signals []Signal
	if a.Light != nil {
		signals = lightSignals(a.Light)
	}
	return newSelector(a, signals, func(ctx context.Context, s Signal) error {
		_, err := sender.SendLightButton(ctx, a.ID, s.ID)
		return err
	})
}

func newSelector(a remo.Appliance, signals []Signal, send func(context.Context, Signal) error) (*SignalSelector, error) {
	if len(signals) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSignal, a.Nickname)
	}
	return &SignalSelector{
		ID:      a.ID,
		name:    a.Nickname,
		send:    send,
		signals: signals,
	}, nil
}

func lightSignals(l *remo.Light) []Signal {
	signals := make([]Signal, 0, len(l.Buttons))
	for _, b := range l.Buttons {
		signals = append(signals, Signal{ID: b.Name, Name: b.Name})
	}
	return signals
}

// Name returns the appliance nickname.
func (s *SignalSelector) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// DisplayName is the selector's entity name.
func (s *SignalSelector) DisplayName() string {
	return "Signals @ " + s.Name()
}

// UniqueID identifies the selector entity.
func (s *SignalSelector) UniqueID() string {
	return "Signals @ " + s.ID
}

// Options lists the signals as "<n>. <name>", numbered from 1.
func (s *SignalSelector) Options() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return optionLabels(s.signals)
}

func optionLabels(signals []Signal) []string {
	opts := make([]string, len(signals))
	for i, sig := range signals {
		opts[i] = fmt.Sprintf("%d. %s", i+1, sig.Name)
	}
	return opts
}

// Current returns the selected option.
func (s *SignalSelector) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("%d. %s", s.current+1, s.signals[s.current].Name)
}

// Selected returns the selected signal.
func (s *SignalSelector) Selected() Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signals[s.current]
}

// Select changes the selected option.
func (s *SignalSelector) Select(option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range optionLabels(s.signals) {
		if o == option {
			s.current = i
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownOption, option)
}

// Send transmits the selected signal.
func (s *SignalSelector) Send(ctx context.Context) error {
	return s.send(ctx, s.Selected())
}

// Update replaces the signal list from a fresh poll. The selection follows
// the selected signal if it still exists, else it falls back to the first.
func (s *SignalSelector) Update(a remo.Appliance) {
	var signals []Signal
	if a.Light != nil {
		signals = lightSignals(a.Light)
	} else {
		for _, sig := range a.Signals {
			signals = append(signals, Signal{ID: sig.ID, Name: sig.Name})
		}
	}
	if len(signals) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	selected := s.signals[s.current].ID
	s.signals = signals
	s.current = 0
	for i, sig := range signals {
		if sig.ID == selected {
			s.current = i
			break
		}
	}
	s.name = a.Nickname
}
