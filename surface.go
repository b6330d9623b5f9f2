package wlsimple

import (
	"fmt"

	"github.com/AchrafSoltani/wlsimple/internal/shm"
	"github.com/AchrafSoltani/wlsimple/internal/wayland"
)

// Surface is a rectangular area the compositor displays
type Surface struct {
	id    wayland.ObjectID
	owner *Client
}

// ID returns the wl_surface object id
func (s *Surface) ID() wayland.ObjectID { return s.id }

// Client returns the client that created the surface
func (s *Surface) Client() *Client { return s.owner }

// ShellSurface is the window-management role of a Surface
type ShellSurface struct {
	id      wayland.ObjectID
	surface *Surface
	title   string
}

// ID returns the wl_shell_surface object id
func (s *ShellSurface) ID() wayland.ObjectID { return s.id }

// Surface returns the surface this role was given to
func (s *ShellSurface) Surface() *Surface { return s.surface }

// Title returns the title that was set
func (s *ShellSurface) Title() string { return s.title }

// Present creates the surface, gives it the toplevel role when a shell
// is available, fills the buffer with the configured color and commits
// it.
func (c *Client) Present() error {
	if c.closed {
		return ErrClosed
	}
	if c.surface != nil {
		return nil
	}
	comp := c.caps.Compositor()
	if comp == nil {
		return fmt.Errorf("%w: %s", ErrNotReady, wayland.InterfaceCompositor)
	}
	if c.buffer == nil {
		return fmt.Errorf("%w: no buffer allocated", ErrNotReady)
	}

	id, err := c.conn.CreateSurface(comp.ID())
	if err != nil {
		return fmt.Errorf("create surface: %w", err)
	}
	c.surface = &Surface{id: id, owner: c}

	if shell := c.caps.Shell(); shell != nil {
		if err := c.makeToplevel(shell); err != nil {
			return err
		}
	}

	c.buffer.image.Fill(c.opts.Color)
	if err := c.commit(); err != nil {
		return err
	}

	c.log.Info().
		Uint32("surface", uint32(c.surface.id)).
		Stringer("color", c.opts.Color).
		Bool("toplevel", c.shellSurface != nil).
		Msg("surface presented")
	return nil
}

func (c *Client) makeToplevel(shell *Shell) error {
	id, err := c.conn.GetShellSurface(shell.ID(), c.surface.id)
	if err != nil {
		return fmt.Errorf("get shell surface: %w", err)
	}
	ss := &ShellSurface{id: id, surface: c.surface}
	c.shellSurface = ss

	if err := c.conn.SetToplevel(id); err != nil {
		return fmt.Errorf("set toplevel: %w", err)
	}
	if err := c.conn.SetTitle(id, c.opts.Title); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	ss.title = c.opts.Title
	if c.opts.Class != "" {
		if err := c.conn.SetClass(id, c.opts.Class); err != nil {
			return fmt.Errorf("set class: %w", err)
		}
	}
	return nil
}

// commit attaches the buffer at the origin, damages all of it and
// commits the surface state.
func (c *Client) commit() error {
	b := c.buffer
	if err := c.conn.Attach(c.surface.id, b.id, 0, 0); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	if err := c.conn.Damage(c.surface.id, 0, 0, int32(b.Width()), int32(b.Height())); err != nil {
		return fmt.Errorf("damage: %w", err)
	}
	if err := c.conn.Commit(c.surface.id); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Paint hands the pixels to draw and commits the whole buffer again.
// No new memory or protocol objects are created.
func (c *Client) Paint(draw func(img *shm.Image)) error {
	if c.closed {
		return ErrClosed
	}
	if c.surface == nil {
		return fmt.Errorf("%w: surface not presented", ErrNotReady)
	}
	draw(c.buffer.image)
	return c.commit()
}

// Repaint refills the existing buffer with the configured color and
// commits it.
func (c *Client) Repaint() error {
	return c.Paint(func(img *shm.Image) { img.Fill(c.opts.Color) })
}
