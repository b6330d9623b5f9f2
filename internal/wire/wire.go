// Package wire implements the Wayland wire format: message headers,
// argument encoding and file descriptor passing over a Unix socket.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Wayland messages are encoded in host byte order.
var byteOrder = binary.NativeEndian

const (
	// HeaderSize is the size of the object id + size/opcode header.
	HeaderSize = 8

	// MaxMessageSize is the largest message the protocol allows.
	MaxMessageSize = 4096

	// MaxFDs is the most descriptors accepted in one control message.
	MaxFDs = 28
)

var (
	ErrShortMessage    = errors.New("wire: short message")
	ErrBadString       = errors.New("wire: malformed string")
	ErrMessageTooLarge = errors.New("wire: message too large")
	ErrBadHeader       = errors.New("wire: malformed header")
	ErrNoFD            = errors.New("wire: no file descriptor received")
)

// Message is a single request or event.
type Message struct {
	Object uint32
	Opcode uint16
	Args   []byte
	FDs    []int
}

// Size returns the encoded size including the header.
func (m Message) Size() int {
	return HeaderSize + len(m.Args)
}

// Encode returns the header followed by the arguments.
// Descriptors are not part of the byte stream.
func (m Message) Encode() ([]byte, error) {
	size := m.Size()
	if size > MaxMessageSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, size)
	}
	buf := make([]byte, HeaderSize, size)
	byteOrder.PutUint32(buf[0:], m.Object)
	byteOrder.PutUint32(buf[4:], uint32(size)<<16|uint32(m.Opcode))
	return append(buf, m.Args...), nil
}

// Decoder returns a decoder over the message arguments.
func (m Message) Decoder() *Decoder {
	return NewDecoder(m.Args)
}

// ParseHeader splits an 8-byte header into its fields.
func ParseHeader(b []byte) (object uint32, opcode uint16, size int, err error) {
	if len(b) < HeaderSize {
		return 0, 0, 0, ErrShortMessage
	}
	object = byteOrder.Uint32(b[0:4])
	word := byteOrder.Uint32(b[4:8])
	size = int(word >> 16)
	opcode = uint16(word & 0xFFFF)
	if size < HeaderSize || size%4 != 0 {
		return 0, 0, 0, fmt.Errorf("%w: size %d", ErrBadHeader, size)
	}
	return object, opcode, size, nil
}

// Builder assembles the arguments of one message.
type Builder struct {
	msg Message
}

// NewMessage starts a message for the given object and opcode.
func NewMessage(object uint32, opcode uint16) *Builder {
	return &Builder{msg: Message{Object: object, Opcode: opcode}}
}

// Uint appends an unsigned 32-bit argument.
func (b *Builder) Uint(v uint32) *Builder {
	b.msg.Args = byteOrder.AppendUint32(b.msg.Args, v)
	return b
}

// Int appends a signed 32-bit argument.
func (b *Builder) Int(v int32) *Builder {
	return b.Uint(uint32(v))
}

// Object appends an object id. Zero is the null object.
func (b *Builder) Object(id uint32) *Builder {
	return b.Uint(id)
}

// NewID appends a typed new_id argument.
func (b *Builder) NewID(id uint32) *Builder {
	return b.Uint(id)
}

// String appends a NUL-terminated string padded to 4 bytes. The empty
// string is sent as a lone NUL, never as the null string.
func (b *Builder) String(s string) *Builder {
	n := len(s) + 1
	b.Uint(uint32(n))
	b.msg.Args = append(b.msg.Args, s...)
	b.msg.Args = append(b.msg.Args, 0)
	for pad := padding(n); pad > 0; pad-- {
		b.msg.Args = append(b.msg.Args, 0)
	}
	return b
}

// NullString appends the null string, valid only for nullable arguments.
func (b *Builder) NullString() *Builder {
	return b.Uint(0)
}

// FD queues a descriptor to be sent out-of-band with the message.
func (b *Builder) FD(fd int) *Builder {
	b.msg.FDs = append(b.msg.FDs, fd)
	return b
}

// Message returns the assembled message.
func (b *Builder) Message() Message {
	return b.msg
}

// Decoder reads arguments in order.
type Decoder struct {
	args []byte
	off  int
}

// NewDecoder returns a decoder over raw argument bytes.
func NewDecoder(args []byte) *Decoder {
	return &Decoder{args: args}
}

// Uint reads an unsigned 32-bit argument.
func (d *Decoder) Uint() (uint32, error) {
	if len(d.args)-d.off < 4 {
		return 0, ErrShortMessage
	}
	v := byteOrder.Uint32(d.args[d.off:])
	d.off += 4
	return v, nil
}

// Int reads a signed 32-bit argument.
func (d *Decoder) Int() (int32, error) {
	v, err := d.Uint()
	return int32(v), err
}

// String reads a string argument. The null string decodes as "".
func (d *Decoder) String() (string, error) {
	n, err := d.Uint()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	end := d.off + int(n) + padding(int(n))
	if int(n) > len(d.args)-d.off || end > len(d.args) {
		return "", ErrShortMessage
	}
	raw := d.args[d.off : d.off+int(n)]
	if raw[len(raw)-1] != 0 {
		return "", ErrBadString
	}
	d.off = end
	return string(raw[:len(raw)-1]), nil
}

// Remaining returns the number of undecoded bytes.
func (d *Decoder) Remaining() int {
	return len(d.args) - d.off
}

func padding(n int) int {
	return (4 - n%4) % 4
}
