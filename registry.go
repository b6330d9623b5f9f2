package wlsimple

import (
	"fmt"
	"slices"

	"github.com/AchrafSoltani/wlsimple/internal/shm"
	"github.com/AchrafSoltani/wlsimple/internal/wayland"
)

// bindVersion is requested for every global regardless of what the
// compositor advertises.
const bindVersion = 1

// Handle is a bound global
type Handle interface {
	ID() wayland.ObjectID
	Interface() string
	Version() uint32
	Name() uint32 // registry name the global was advertised under
}

type global struct {
	id      wayland.ObjectID
	iface   string
	version uint32
	name    uint32
}

func (g *global) ID() wayland.ObjectID { return g.id }
func (g *global) Interface() string    { return g.iface }
func (g *global) Version() uint32      { return g.version }
func (g *global) Name() uint32         { return g.name }

// Compositor creates surfaces
type Compositor struct{ global }

// Shm creates shared memory pools
type Shm struct {
	global
	formats []shm.Format
}

// Formats returns the pixel formats announced so far
func (s *Shm) Formats() []shm.Format { return slices.Clone(s.formats) }

// Supports reports whether the compositor announced format f
func (s *Shm) Supports(f shm.Format) bool { return slices.Contains(s.formats, f) }

// Shell turns surfaces into desktop windows
type Shell struct{ global }

// Capabilities holds the globals bound from the registry. Each interface
// is bound at most once; later advertisements of it are ignored.
type Capabilities struct {
	byIface map[string]Handle
}

// NewCapabilities returns an empty set
func NewCapabilities() *Capabilities {
	return &Capabilities{byIface: make(map[string]Handle)}
}

// Lookup returns the global bound for iface
func (c *Capabilities) Lookup(iface string) (Handle, bool) {
	h, ok := c.byIface[iface]
	return h, ok
}

// Compositor returns the bound wl_compositor, nil if absent
func (c *Capabilities) Compositor() *Compositor {
	h, _ := c.byIface[wayland.InterfaceCompositor].(*Compositor)
	return h
}

// Shm returns the bound wl_shm, nil if absent
func (c *Capabilities) Shm() *Shm {
	h, _ := c.byIface[wayland.InterfaceShm].(*Shm)
	return h
}

// Shell returns the bound wl_shell, nil if absent
func (c *Capabilities) Shell() *Shell {
	h, _ := c.byIface[wayland.InterfaceShell].(*Shell)
	return h
}

// Len returns the number of bound globals
func (c *Capabilities) Len() int { return len(c.byIface) }

func (c *Capabilities) set(h Handle) bool {
	if _, ok := c.byIface[h.Interface()]; ok {
		return false
	}
	c.byIface[h.Interface()] = h
	return true
}

func (c *Capabilities) byName(name uint32) (Handle, bool) {
	for _, h := range c.byIface {
		if h.Name() == name {
			return h, true
		}
	}
	return nil, false
}

// Resolve fetches the registry and binds wl_compositor, wl_shm and
// wl_shell. The compositor and shm are required; a missing shell only
// means the surface will not be mapped as a window.
func (c *Client) Resolve() error {
	if c.closed {
		return ErrClosed
	}
	if c.registry == 0 {
		id, err := c.conn.GetRegistry()
		if err != nil {
			return fmt.Errorf("get registry: %w", err)
		}
		c.registry = id
	}

	// The first round trip delivers the globals, the second the events
	// of the freshly bound objects such as the shm formats.
	for i := 0; i < 2; i++ {
		if err := c.Roundtrip(); err != nil {
			return fmt.Errorf("registry roundtrip: %w", err)
		}
	}

	if c.caps.Compositor() == nil {
		return fmt.Errorf("%w: %s", ErrMissingCapability, wayland.InterfaceCompositor)
	}
	if c.caps.Shm() == nil {
		return fmt.Errorf("%w: %s", ErrMissingCapability, wayland.InterfaceShm)
	}
	if c.caps.Shell() == nil {
		c.log.Warn().Str("interface", wayland.InterfaceShell).Msg("global not advertised, surface will not be mapped")
	}

	c.log.Info().Int("bound", c.caps.Len()).Msg("globals resolved")
	return nil
}

func (c *Client) handleGlobal(e wayland.GlobalEvent) error {
	if e.Registry != c.registry {
		return nil
	}
	fmt.Fprintf(c.opts.Out, "interface=%s name=%x version=%d\n", e.Interface, e.Name, e.Version)

	switch e.Interface {
	case wayland.InterfaceCompositor, wayland.InterfaceShm, wayland.InterfaceShell:
	default:
		return nil
	}
	if _, dup := c.caps.Lookup(e.Interface); dup {
		c.log.Debug().Str("interface", e.Interface).Uint32("name", e.Name).Msg("already bound, ignoring")
		return nil
	}

	id, err := c.conn.Bind(c.registry, e.Name, e.Interface, bindVersion)
	if err != nil {
		return fmt.Errorf("bind %s: %w", e.Interface, err)
	}

	g := global{id: id, iface: e.Interface, version: bindVersion, name: e.Name}
	var h Handle
	switch e.Interface {
	case wayland.InterfaceCompositor:
		h = &Compositor{global: g}
	case wayland.InterfaceShm:
		h = &Shm{global: g}
	default:
		h = &Shell{global: g}
	}
	c.caps.set(h)

	c.log.Debug().
		Str("interface", e.Interface).
		Uint32("name", e.Name).
		Uint32("advertised", e.Version).
		Uint32("id", uint32(id)).
		Msg("bound global")
	return nil
}

func (c *Client) handleGlobalRemove(e wayland.GlobalRemoveEvent) {
	if h, ok := c.caps.byName(e.Name); ok {
		c.log.Warn().Str("interface", h.Interface()).Uint32("name", e.Name).Msg("bound global removed")
	}
}

func (c *Client) handleShmFormat(e wayland.ShmFormatEvent) {
	s := c.caps.Shm()
	if s == nil || s.id != e.Shm {
		return
	}
	f := shm.Format(e.Format)
	if !s.Supports(f) {
		s.formats = append(s.formats, f)
	}
	c.log.Trace().Stringer("format", f).Msg("shm format")
}
