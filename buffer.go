package wlsimple

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/AchrafSoltani/wlsimple/internal/shm"
	"github.com/AchrafSoltani/wlsimple/internal/wayland"
)

// shmName labels the memory file in /proc/<pid>/fd
const shmName = "wlsimple-shm"

// Buffer is a wl_buffer backed by client memory shared with the compositor
type Buffer struct {
	id    wayland.ObjectID
	image *shm.Image
}

// ID returns the wl_buffer object id
func (b *Buffer) ID() wayland.ObjectID { return b.id }

// Image returns the pixels the compositor will read
func (b *Buffer) Image() *shm.Image { return b.image }

// Width returns the width in pixels
func (b *Buffer) Width() int { return b.image.Width }

// Height returns the height in pixels
func (b *Buffer) Height() int { return b.image.Height }

// Stride returns the length of one row in bytes
func (b *Buffer) Stride() int { return b.image.Stride }

// Size returns the length of the shared memory in bytes
func (b *Buffer) Size() int { return b.image.Size }

// Allocate creates the shared memory, hands it to the compositor as a
// pool and carves one ARGB8888 buffer of the configured size out of it.
// The pool and the local descriptor are released as soon as the buffer
// exists; the mapping stays until Close.
func (c *Client) Allocate() error {
	if c.closed {
		return ErrClosed
	}
	if c.buffer != nil {
		return nil
	}
	s := c.caps.Shm()
	if s == nil {
		return fmt.Errorf("%w: %s", ErrNotReady, wayland.InterfaceShm)
	}

	g, err := shm.NewGeometry(c.opts.Width, c.opts.Height)
	if err != nil {
		return fmt.Errorf("allocate buffer: %w", err)
	}

	format := shm.FormatARGB8888
	if !s.Supports(format) {
		c.log.Warn().Stringer("format", format).Msg("format not announced by compositor, using it anyway")
	}

	store, err := shm.Create(c.opts.OS, shmName, g.Size)
	if err != nil {
		return err
	}

	img, err := shm.NewImage(store.Bytes(), g, format)
	if err != nil {
		store.Close()
		return err
	}

	pool, err := c.conn.CreatePool(s.ID(), store.FD(), int32(g.Size))
	if err != nil {
		store.Close()
		return fmt.Errorf("create pool: %w", err)
	}

	id, err := c.conn.CreateBuffer(pool, 0, int32(g.Width), int32(g.Height), int32(g.Stride), uint32(format))
	if err != nil {
		c.conn.DestroyPool(pool)
		store.Close()
		return fmt.Errorf("create buffer: %w", err)
	}

	// The buffer keeps the pool's memory alive on the compositor side.
	if err := c.conn.DestroyPool(pool); err != nil {
		store.Close()
		return fmt.Errorf("destroy pool: %w", err)
	}
	if err := store.CloseFD(); err != nil {
		c.log.Warn().Err(err).Msg("closing shm descriptor")
	}

	c.store = store
	c.buffer = &Buffer{id: id, image: img}

	c.log.Info().
		Int("width", g.Width).
		Int("height", g.Height).
		Int("stride", g.Stride).
		Str("size", humanize.Bytes(uint64(g.Size))).
		Bool("sealed", store.Sealed()).
		Msg("buffer allocated")
	return nil
}
