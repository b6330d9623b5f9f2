package wire

import (
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// Conn reads and writes whole messages on a Unix stream socket.
// Descriptors received alongside the byte stream are queued and
// handed out in arrival order by TakeFD.
type Conn struct {
	c    *net.UnixConn
	in   []byte
	fds  []int
	rbuf []byte
	oob  []byte
}

// NewConn wraps an established Unix socket.
func NewConn(c *net.UnixConn) *Conn {
	return &Conn{
		c:    c,
		rbuf: make([]byte, MaxMessageSize),
		oob:  make([]byte, unix.CmsgSpace(MaxFDs*4)),
	}
}

// WriteMessage sends one message and its descriptors in a single sendmsg.
func (c *Conn) WriteMessage(m Message) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	if len(m.FDs) > MaxFDs {
		return fmt.Errorf("wire: too many descriptors: %d", len(m.FDs))
	}

	var oob []byte
	if len(m.FDs) > 0 {
		oob = unix.UnixRights(m.FDs...)
	}

	n, _, err := c.c.WriteMsgUnix(data, oob, nil)
	if err != nil {
		return err
	}
	// Descriptors went with the first chunk; finish the bytes without them.
	for n < len(data) {
		k, err := c.c.Write(data[n:])
		if err != nil {
			return err
		}
		n += k
	}
	return nil
}

// ReadMessage blocks until one complete message has been received.
func (c *Conn) ReadMessage() (Message, error) {
	for {
		if len(c.in) >= HeaderSize {
			object, opcode, size, err := ParseHeader(c.in)
			if err != nil {
				return Message{}, err
			}
			if len(c.in) >= size {
				args := make([]byte, size-HeaderSize)
				copy(args, c.in[HeaderSize:size])
				c.in = c.in[size:]
				return Message{Object: object, Opcode: opcode, Args: args}, nil
			}
		}
		if err := c.fill(); err != nil {
			return Message{}, err
		}
	}
}

func (c *Conn) fill() error {
	n, oobn, _, _, err := c.c.ReadMsgUnix(c.rbuf, c.oob)
	if oobn > 0 {
		if perr := c.parseRights(c.oob[:oobn]); perr != nil {
			return perr
		}
	}
	if n > 0 {
		c.in = append(c.in, c.rbuf[:n]...)
	}
	if err != nil {
		return err
	}
	if n == 0 {
		return io.EOF
	}
	return nil
}

func (c *Conn) parseRights(oob []byte) error {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return fmt.Errorf("wire: parse control message: %w", err)
	}
	for i := range msgs {
		fds, err := unix.ParseUnixRights(&msgs[i])
		if err != nil {
			continue
		}
		c.fds = append(c.fds, fds...)
	}
	return nil
}

// TakeFD pops the oldest received descriptor. The caller owns it.
func (c *Conn) TakeFD() (int, error) {
	if len(c.fds) == 0 {
		return -1, ErrNoFD
	}
	fd := c.fds[0]
	c.fds = c.fds[1:]
	return fd, nil
}

// SetReadDeadline bounds the next blocking read.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.c.SetReadDeadline(t)
}

// Close closes the socket and any descriptors nobody claimed.
func (c *Conn) Close() error {
	var errs []error
	for _, fd := range c.fds {
		errs = append(errs, unix.Close(fd))
	}
	c.fds = nil
	errs = append(errs, c.c.Close())
	return errors.Join(errs...)
}
