package wayland

import "github.com/AchrafSoltani/wlsimple/internal/wire"

// CreateSurface creates a new wl_surface
func (c *Connection) CreateSurface(compositor ObjectID) (ObjectID, error) {
	return c.create(InterfaceSurface, func(id ObjectID) *wire.Builder {
		return wire.NewMessage(uint32(compositor), OpCompositorCreateSurface).NewID(uint32(id))
	})
}

// Attach sets the pending buffer of a surface. Nothing is shown until
// Commit.
func (c *Connection) Attach(surface, buffer ObjectID, x, y int32) error {
	return c.send(wire.NewMessage(uint32(surface), OpSurfaceAttach).
		Object(uint32(buffer)).
		Int(x).
		Int(y))
}

// Damage marks a rectangle of the surface, in surface coordinates, as
// changed.
func (c *Connection) Damage(surface ObjectID, x, y, width, height int32) error {
	return c.send(wire.NewMessage(uint32(surface), OpSurfaceDamage).
		Int(x).
		Int(y).
		Int(width).
		Int(height))
}

// Commit atomically applies the pending surface state
func (c *Connection) Commit(surface ObjectID) error {
	return c.send(wire.NewMessage(uint32(surface), OpSurfaceCommit))
}

// DestroySurface destroys a surface
func (c *Connection) DestroySurface(surface ObjectID) error {
	return c.send(wire.NewMessage(uint32(surface), OpSurfaceDestroy))
}
