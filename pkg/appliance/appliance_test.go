package appliance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/remo/pkg/remo"
)

type fakeRemote struct {
	signals []string
	buttons []string
	err     error
}

func (f *fakeRemote) SendSignal(_ context.Context, id string) error {
	f.signals = append(f.signals, id)
	return f.err
}

func (f *fakeRemote) SendLightButton(_ context.Context, _ string, button string) (*remo.LightState, error) {
	f.buttons = append(f.buttons, button)
	return &remo.LightState{}, f.err
}

func tv() remo.Appliance {
	return remo.Appliance{
		ID:       "tv-1",
		Nickname: "TV",
		Signals: []remo.Signal{
			{ID: "s-power", Name: "power"},
			{ID: "s-vol", Name: "volume up"},
		},
	}
}

func lightAppliance(buttons ...string) remo.Appliance {
	l := &remo.Light{}
	for _, b := range buttons {
		l.Buttons = append(l.Buttons, remo.LightButton{Name: b})
	}
	return remo.Appliance{ID: "l-1", Nickname: "Ceiling", Light: l}
}

func TestSignalSelector_Options(t *testing.T) {
	s, err := FromSignals(tv(), &fakeRemote{})
	require.NoError(t, err)

	assert.Equal(t, []string{"1. power", "2. volume up"}, s.Options())
	assert.Equal(t, "1. power", s.Current())
	assert.Equal(t, "Signals @ TV", s.DisplayName())
	assert.Equal(t, "Signals @ tv-1", s.UniqueID())
}

func TestSignalSelector_SelectAndSend(t *testing.T) {
	remote := &fakeRemote{}
	s, err := FromSignals(tv(), remote)
	require.NoError(t, err)

	require.NoError(t, s.Select("2. volume up"))
	assert.Equal(t, "2. volume up", s.Current())
	require.NoError(t, s.Send(context.Background()))
	assert.Equal(t, []string{"s-vol"}, remote.signals)

	assert.ErrorIs(t, s.Select("3. mute"), ErrUnknownOption)
	assert.Equal(t, "2. volume up", s.Current())
}

func TestSignalSelector_NoSignal(t *testing.T) {
	_, err := FromSignals(remo.Appliance{ID: "x", Nickname: "Fan"}, &fakeRemote{})
	assert.ErrorIs(t, err, ErrNoSignal)
	_, err = FromLight(lightAppliance(), &fakeRemote{})
	assert.ErrorIs(t, err, ErrNoSignal)
}

func TestSignalSelector_Light(t *testing.T) {
	remote := &fakeRemote{}
	s, err := FromLight(lightAppliance("on", "off", "night"), remote)
	require.NoError(t, err)

	require.NoError(t, s.Select("3. night"))
	require.NoError(t, s.Send(context.Background()))
	assert.Equal(t, []string{"night"}, remote.buttons)
}

func TestSignalSelector_UpdateKeepsSelection(t *testing.T) {
	s, err := FromSignals(tv(), &fakeRemote{})
	require.NoError(t, err)
	require.NoError(t, s.Select("2. volume up"))

	a := tv()
	a.Nickname = "Television"
	a.Signals = append([]remo.Signal{{ID: "s-mute", Name: "mute"}}, a.Signals...)
	s.Update(a)

	assert.Equal(t, "3. volume up", s.Current())
	assert.Equal(t, "Signals @ Television", s.DisplayName())

	a.Signals = []remo.Signal{{ID: "s-new", Name: "input"}}
	s.Update(a)
	assert.Equal(t, "1. input", s.Current())
}

func TestLight_OneButton(t *testing.T) {
	remote := &fakeRemote{}
	l, err := NewLight(lightAppliance("onoff", "night"), remote)
	require.NoError(t, err)
	assert.True(t, l.OneButton)
	ctx := context.Background()

	require.NoError(t, l.TurnOn(ctx))
	require.NoError(t, l.TurnOn(ctx))
	assert.True(t, l.IsOn())
	require.NoError(t, l.Toggle(ctx))
	assert.False(t, l.IsOn())
	require.NoError(t, l.TurnOff(ctx))

	assert.Equal(t, []string{"onoff", "onoff"}, remote.buttons)
}

func TestLight_TwoButtons(t *testing.T) {
	remote := &fakeRemote{}
	l, err := NewLight(lightAppliance("on", "off"), remote)
	require.NoError(t, err)
	assert.False(t, l.OneButton)
	ctx := context.Background()

	require.NoError(t, l.Toggle(ctx))
	require.NoError(t, l.Toggle(ctx))
	require.NoError(t, l.TurnOff(ctx))
	require.NoError(t, l.TurnOn(ctx))

	assert.Equal(t, []string{"on", "off", "on"}, remote.buttons)
}

func TestLight_Unexpected(t *testing.T) {
	_, err := NewLight(lightAppliance("on", "night"), &fakeRemote{})
	assert.ErrorIs(t, err, ErrUnexpectedLight)
	_, err = NewLight(remo.Appliance{ID: "x"}, &fakeRemote{})
	assert.ErrorIs(t, err, ErrUnexpectedLight)
}

func TestLight_SendFailureKeepsAssumedState(t *testing.T) {
	remote := &fakeRemote{err: errors.New("unreachable")}
	l, err := NewLight(lightAppliance("onoff"), remote)
	require.NoError(t, err)

	assert.Error(t, l.TurnOn(context.Background()))
	assert.True(t, l.IsOn())
}

func TestLight_UpdateFromState(t *testing.T) {
	a := lightAppliance("on", "off")
	a.Light.State = &remo.LightState{Power: "on"}
	l, err := NewLight(a, &fakeRemote{})
	require.NoError(t, err)
	assert.True(t, l.IsOn())

	a.Light.State.Power = "off"
	l.Update(a)
	assert.False(t, l.IsOn())
}
