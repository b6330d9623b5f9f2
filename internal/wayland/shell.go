package wayland

import "github.com/AchrafSoltani/wlsimple/internal/wire"

// GetShellSurface gives a surface the wl_shell_surface role
func (c *Connection) GetShellSurface(shell, surface ObjectID) (ObjectID, error) {
	return c.create(InterfaceShellSurface, func(id ObjectID) *wire.Builder {
		return wire.NewMessage(uint32(shell), OpShellGetShellSurface).
			NewID(uint32(id)).
			Object(uint32(surface))
	})
}

// Pong answers a ping with the same serial
func (c *Connection) Pong(shellSurface ObjectID, serial uint32) error {
	return c.send(wire.NewMessage(uint32(shellSurface), OpShellSurfacePong).Uint(serial))
}

// SetToplevel maps the surface as an independent top-level window
func (c *Connection) SetToplevel(shellSurface ObjectID) error {
	return c.send(wire.NewMessage(uint32(shellSurface), OpShellSurfaceSetToplevel))
}

// SetTitle sets the window title
func (c *Connection) SetTitle(shellSurface ObjectID, title string) error {
	return c.send(wire.NewMessage(uint32(shellSurface), OpShellSurfaceSetTitle).String(title))
}

// SetClass sets the window class, usually the desktop file name
func (c *Connection) SetClass(shellSurface ObjectID, class string) error {
	return c.send(wire.NewMessage(uint32(shellSurface), OpShellSurfaceSetClass).String(class))
}
