package wlsimple

import "errors"

// ErrMissingCapability is returned when a required global was not
// advertised by the compositor.
var ErrMissingCapability = errors.New("required global not advertised")

// ErrClosed is returned by every step once Close has been called.
var ErrClosed = errors.New("client closed")

// ErrNotReady is returned when a step runs before the one it depends on.
var ErrNotReady = errors.New("client not ready")
