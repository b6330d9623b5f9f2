package wayland

import (
	"fmt"

	"github.com/AchrafSoltani/wlsimple/internal/wire"
)

// Event is the interface for all decoded events
type Event interface {
	Sender() ObjectID
}

// DisplayErrorEvent is a fatal error raised by the compositor
type DisplayErrorEvent struct {
	Object  ObjectID
	Code    uint32
	Message string
}

func (e DisplayErrorEvent) Sender() ObjectID { return DisplayID }

// DeleteIDEvent confirms that the compositor forgot an object
type DeleteIDEvent struct {
	ID ObjectID
}

func (e DeleteIDEvent) Sender() ObjectID { return DisplayID }

// GlobalEvent advertises a global the client may bind
type GlobalEvent struct {
	Registry  ObjectID
	Name      uint32
	Interface string
	Version   uint32
}

func (e GlobalEvent) Sender() ObjectID { return e.Registry }

// GlobalRemoveEvent withdraws a previously advertised global
type GlobalRemoveEvent struct {
	Registry ObjectID
	Name     uint32
}

func (e GlobalRemoveEvent) Sender() ObjectID { return e.Registry }

// CallbackDoneEvent fires once for a wl_callback, e.g. after sync
type CallbackDoneEvent struct {
	Callback ObjectID
	Data     uint32
}

func (e CallbackDoneEvent) Sender() ObjectID { return e.Callback }

// ShmFormatEvent announces a pixel format the shm global accepts
type ShmFormatEvent struct {
	Shm    ObjectID
	Format uint32
}

func (e ShmFormatEvent) Sender() ObjectID { return e.Shm }

// BufferReleaseEvent means the compositor no longer reads the buffer
type BufferReleaseEvent struct {
	Buffer ObjectID
}

func (e BufferReleaseEvent) Sender() ObjectID { return e.Buffer }

// PingEvent is a liveness probe that must be answered with pong
type PingEvent struct {
	ShellSurface ObjectID
	Serial       uint32
}

func (e PingEvent) Sender() ObjectID { return e.ShellSurface }

// ConfigureEvent suggests a new size for a shell surface
type ConfigureEvent struct {
	ShellSurface ObjectID
	Edges        uint32
	Width        int32
	Height       int32
}

func (e ConfigureEvent) Sender() ObjectID { return e.ShellSurface }

// PopupDoneEvent ends a popup grab
type PopupDoneEvent struct {
	ShellSurface ObjectID
}

func (e PopupDoneEvent) Sender() ObjectID { return e.ShellSurface }

// UnknownEvent for events this client does not decode
type UnknownEvent struct {
	Object    ObjectID
	Interface string
	Opcode    uint16
	Args      []byte
}

func (e UnknownEvent) Sender() ObjectID { return e.Object }

// NextEvent blocks until an event is received, then decodes it
func (c *Connection) NextEvent() (Event, error) {
	msg, err := c.wire.ReadMessage()
	if err != nil {
		return nil, err
	}

	sender := ObjectID(msg.Object)
	iface, ok := c.objects[sender]
	if !ok {
		// Events for objects already destroyed on our side
		return UnknownEvent{Object: sender, Opcode: msg.Opcode, Args: msg.Args}, nil
	}

	ev, err := decodeEvent(sender, iface, msg)
	if err != nil {
		return nil, fmt.Errorf("decode %s event %d: %w", iface, msg.Opcode, err)
	}
	return ev, nil
}

func decodeEvent(sender ObjectID, iface string, msg wire.Message) (Event, error) {
	d := msg.Decoder()

	switch {
	case iface == InterfaceDisplay && msg.Opcode == EvDisplayError:
		object, err := d.Uint()
		if err != nil {
			return nil, err
		}
		code, err := d.Uint()
		if err != nil {
			return nil, err
		}
		text, err := d.String()
		if err != nil {
			return nil, err
		}
		return DisplayErrorEvent{Object: ObjectID(object), Code: code, Message: text}, nil

	case iface == InterfaceDisplay && msg.Opcode == EvDisplayDeleteID:
		id, err := d.Uint()
		if err != nil {
			return nil, err
		}
		return DeleteIDEvent{ID: ObjectID(id)}, nil

	case iface == InterfaceRegistry && msg.Opcode == EvRegistryGlobal:
		name, err := d.Uint()
		if err != nil {
			return nil, err
		}
		inter, err := d.String()
		if err != nil {
			return nil, err
		}
		version, err := d.Uint()
		if err != nil {
			return nil, err
		}
		return GlobalEvent{Registry: sender, Name: name, Interface: inter, Version: version}, nil

	case iface == InterfaceRegistry && msg.Opcode == EvRegistryGlobalRemove:
		name, err := d.Uint()
		if err != nil {
			return nil, err
		}
		return GlobalRemoveEvent{Registry: sender, Name: name}, nil

	case iface == InterfaceCallback && msg.Opcode == EvCallbackDone:
		data, err := d.Uint()
		if err != nil {
			return nil, err
		}
		return CallbackDoneEvent{Callback: sender, Data: data}, nil

	case iface == InterfaceShm && msg.Opcode == EvShmFormat:
		format, err := d.Uint()
		if err != nil {
			return nil, err
		}
		return ShmFormatEvent{Shm: sender, Format: format}, nil

	case iface == InterfaceBuffer && msg.Opcode == EvBufferRelease:
		return BufferReleaseEvent{Buffer: sender}, nil

	case iface == InterfaceShellSurface && msg.Opcode == EvShellSurfacePing:
		serial, err := d.Uint()
		if err != nil {
			return nil, err
		}
		return PingEvent{ShellSurface: sender, Serial: serial}, nil

	case iface == InterfaceShellSurface && msg.Opcode == EvShellSurfaceConfigure:
		edges, err := d.Uint()
		if err != nil {
			return nil, err
		}
		width, err := d.Int()
		if err != nil {
			return nil, err
		}
		height, err := d.Int()
		if err != nil {
			return nil, err
		}
		return ConfigureEvent{ShellSurface: sender, Edges: edges, Width: width, Height: height}, nil

	case iface == InterfaceShellSurface && msg.Opcode == EvShellSurfacePopupDone:
		return PopupDoneEvent{ShellSurface: sender}, nil

	default:
		return UnknownEvent{Object: sender, Interface: iface, Opcode: msg.Opcode, Args: msg.Args}, nil
	}
}
