package wayland

import "github.com/AchrafSoltani/wlsimple/internal/wire"

// GetRegistry creates the registry object. Globals are announced to it
// asynchronously; follow with Roundtrip before relying on them.
func (c *Connection) GetRegistry() (ObjectID, error) {
	return c.create(InterfaceRegistry, func(id ObjectID) *wire.Builder {
		return wire.NewMessage(uint32(DisplayID), OpDisplayGetRegistry).NewID(uint32(id))
	})
}

// Sync asks the compositor to fire a callback once all earlier requests
// have been processed.
func (c *Connection) Sync() (ObjectID, error) {
	return c.create(InterfaceCallback, func(id ObjectID) *wire.Builder {
		return wire.NewMessage(uint32(DisplayID), OpDisplaySync).NewID(uint32(id))
	})
}

// Bind binds the global called name to a new object of the given
// interface and version.
func (c *Connection) Bind(registry ObjectID, name uint32, iface string, version uint32) (ObjectID, error) {
	// wl_registry.bind carries an untyped new_id: interface, version, id
	return c.create(iface, func(id ObjectID) *wire.Builder {
		return wire.NewMessage(uint32(registry), OpRegistryBind).
			Uint(name).
			String(iface).
			Uint(version).
			NewID(uint32(id))
	})
}
