package appliance

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/remo/pkg/remo"
)

// Light button names.
const (
	ButtonOnOff = "onoff"
	ButtonOn    = "on"
	ButtonOff   = "off"
)

// Light is an IR light with on/off only. Its state is assumed from the
// commands sent, since IR gives no feedback.
type Light struct {
	ID        string
	OneButton bool

	sender LightSender

	mu   sync.Mutex
	name string
	on   bool
}

// NewLight builds a light from its button set. A light needs an onoff
// button, or both an on and an off button.
func NewLight(a remo.Appliance, sender LightSender) (*Light, error) {
	if a.Light == nil {
		return nil, fmt.Errorf("%w: %s has no light section", ErrUnexpectedLight, a.ID)
	}
	var hasOnOff, hasOn, hasOff bool
	for _, b := range a.Light.Buttons {
		switch b.Name {
		case ButtonOnOff:
			hasOnOff = true
		case ButtonOn:
			hasOn = true
		case ButtonOff:
			hasOff = true
		}
	}

	l := &Light{ID: a.ID, name: a.Nickname, sender: sender}
	switch {
	case hasOnOff:
		l.OneButton = true
	case hasOn && hasOff:
	default:
		log.Error().Str("appliance", a.ID).Msg("Unexpected light configuration; please contact the project maintainer")
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedLight, a.Nickname)
	}
	if a.Light.State != nil {
		l.on = a.Light.State.Power == ButtonOn
	}
	return l, nil
}

// Name returns the appliance nickname.
func (l *Light) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

// IsOn returns the assumed state.
func (l *Light) IsOn() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.on
}

// TurnOn toggles the light if it is assumed off.
func (l *Light) TurnOn(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.on {
		return nil
	}
	return l.toggleLocked(ctx)
}

// TurnOff toggles the light if it is assumed on.
func (l *Light) TurnOff(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.on {
		return nil
	}
	return l.toggleLocked(ctx)
}

// Toggle flips the assumed state and sends the matching button.
func (l *Light) Toggle(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.toggleLocked(ctx)
}

func (l *Light) toggleLocked(ctx context.Context) error {
	l.on = !l.on
	button := ButtonOnOff
	if !l.OneButton {
		button = ButtonOff
		if l.on {
			button = ButtonOn
		}
	}
	_, err := l.sender.SendLightButton(ctx, l.ID, button)
	return err
}

// Update refreshes the name, and the state when the API reports one.
func (l *Light) Update(a remo.Appliance) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.name = a.Nickname
	if a.Light != nil && a.Light.State != nil && a.Light.State.Power != "" {
		l.on = a.Light.State.Power == ButtonOn
	}
}
