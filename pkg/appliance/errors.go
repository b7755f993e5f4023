package appliance

import "errors"

var (
	// ErrNoSignal indicates an appliance has no learned signal
	ErrNoSignal = errors.New("appliance has no signal")

	// ErrUnexpectedLight indicates a light has neither an onoff button nor an on/off pair
	ErrUnexpectedLight = errors.New("unexpected light configuration")

	// ErrUnknownOption indicates a selector option that does not exist
	ErrUnknownOption = errors.New("unknown option")
)
