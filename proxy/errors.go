package proxy

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedUpstreamResponse monerod answered 2xx but a field needed here is missing or has the wrong type
	ErrMalformedUpstreamResponse = errors.New("malformed monerod response")
	// ErrUpstreamRejected monerod did not accept a submitted block
	ErrUpstreamRejected = errors.New("monerod rejected block")
	// ErrTransientState no pending work to submit
	ErrTransientState = errors.New("no pending work")
	ErrDecode         = errors.New("decode failed")
	ErrEncode         = errors.New("encode failed")
)

var errMissingHeight = fmt.Errorf("%w: `height` is missing", ErrMalformedUpstreamResponse)
