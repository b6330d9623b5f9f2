package wayland

import "github.com/AchrafSoltani/wlsimple/internal/wire"

// CreatePool shares size bytes of the memory behind fd with the
// compositor. The descriptor is duplicated in transit; the caller may
// close its copy once the request is sent.
func (c *Connection) CreatePool(shm ObjectID, fd int, size int32) (ObjectID, error) {
	return c.create(InterfaceShmPool, func(id ObjectID) *wire.Builder {
		return wire.NewMessage(uint32(shm), OpShmCreatePool).
			NewID(uint32(id)).
			FD(fd).
			Int(size)
	})
}

// CreateBuffer carves a buffer out of a pool
func (c *Connection) CreateBuffer(pool ObjectID, offset, width, height, stride int32, format uint32) (ObjectID, error) {
	return c.create(InterfaceBuffer, func(id ObjectID) *wire.Builder {
		return wire.NewMessage(uint32(pool), OpShmPoolCreateBuffer).
			NewID(uint32(id)).
			Int(offset).
			Int(width).
			Int(height).
			Int(stride).
			Uint(format)
	})
}

// DestroyPool destroys a pool. Buffers created from it stay valid.
func (c *Connection) DestroyPool(pool ObjectID) error {
	return c.send(wire.NewMessage(uint32(pool), OpShmPoolDestroy))
}

// DestroyBuffer destroys a buffer
func (c *Connection) DestroyBuffer(buffer ObjectID) error {
	return c.send(wire.NewMessage(uint32(buffer), OpBufferDestroy))
}
