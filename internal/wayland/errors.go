package wayland

import "fmt"

// ConnectError reports that no compositor connection could be opened.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	if e.Endpoint == "" {
		return fmt.Sprintf("failed to connect to wayland display: %v", e.Err)
	}
	return fmt.Sprintf("failed to connect to wayland display %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// ProtocolError is a fatal wl_display.error sent by the compositor.
type ProtocolError struct {
	Object    ObjectID
	Interface string
	Code      uint32
	Message   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on %s@%d (code %d): %s",
		e.Interface, e.Object, e.Code, e.Message)
}
