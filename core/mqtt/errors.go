package mqtt

import "errors"

// ErrMalformedRequest is returned when a request payload cannot be decoded.
var ErrMalformedRequest = errors.New("malformed clearing request")
