package aircon

import "errors"

var (
	// ErrUnexpectedConfiguration indicates a vendor descriptor this package
	// does not know how to drive. The appliance should be skipped.
	ErrUnexpectedConfiguration = errors.New("unexpected air conditioner configuration")

	// ErrInvalidDesiredState indicates the desired state no longer matches
	// the appliance model, so no command can be built from it.
	ErrInvalidDesiredState = errors.New("invalid desired state")

	// ErrInvalidTemperature indicates a requested temperature that is not a number.
	ErrInvalidTemperature = errors.New("invalid temperature")
)
