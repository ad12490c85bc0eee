package computer

import "errors"

// Validation errors. All of them are returned before any device is touched.
var (
	ErrMissingArgument = errors.New("missing argument")
	ErrOutOfBounds     = errors.New("coordinate out of bounds")
	ErrUnknownAction   = errors.New("unknown action")
)
