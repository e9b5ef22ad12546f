package definition

import "errors"

var (
	// ErrUnknownFormat is returned when the input is none of YAML, JSON or TOML.
	ErrUnknownFormat = errors.New("definition: unknown format")
	// ErrUnknownMapController is returned for an unregistered mapController name.
	ErrUnknownMapController = errors.New("definition: unknown mapController")
	// ErrUnknownRenderer is returned for an unregistered render name.
	ErrUnknownRenderer = errors.New("definition: unknown node renderer")
	// ErrInvalid wraps descriptor shape problems.
	ErrInvalid = errors.New("definition: invalid descriptors")
)
