// Package waylandtest provides a scripted in-process compositor for tests.
//
// The server speaks the same wire format as a real compositor over one
// end of a socketpair. It answers get_registry with its globals, sync with
// callback done, binds of wl_shm with format events, and records every
// request it receives in order so tests can assert on the exact request
// stream a client produced.
package waylandtest

import (
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/AchrafSoltani/wlsimple/internal/wayland"
	"github.com/AchrafSoltani/wlsimple/internal/wire"
)

// Global is an advertised global.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// DefaultGlobals resembles what a desktop compositor with wl_shell would
// announce.
func DefaultGlobals() []Global {
	return []Global{
		{Name: 1, Interface: wayland.InterfaceCompositor, Version: 4},
		{Name: 2, Interface: "wl_subcompositor", Version: 1},
		{Name: 3, Interface: wayland.InterfaceShm, Version: 1},
		{Name: 4, Interface: "wl_seat", Version: 7},
		{Name: 5, Interface: "wl_output", Version: 3},
		{Name: 6, Interface: wayland.InterfaceShell, Version: 1},
	}
}

// Request is one request as the server received it.
type Request struct {
	Object    uint32
	Interface string
	Opcode    uint16
	Args      []byte
	FD        int
}

// Decoder returns a decoder over the request arguments.
func (r Request) Decoder() *wire.Decoder {
	return wire.NewDecoder(r.Args)
}

// Is reports whether the request is the given interface/opcode pair.
func (r Request) Is(iface string, opcode uint16) bool {
	return r.Interface == iface && r.Opcode == opcode
}

// Pool is a shm pool the client shared with the server.
type Pool struct {
	ID   uint32
	FD   int
	Size int32
}

// Server is a fake compositor.
type Server struct {
	t       testing.TB
	raw     *net.UnixConn
	conn    *wire.Conn
	globals []Global

	writeMu sync.Mutex

	mu       sync.Mutex
	objects  map[uint32]string
	requests []Request
	pools    []Pool
	formats  []uint32
	done     chan struct{}
}

// New starts a server and returns it with the client end of the socket.
func New(t testing.TB, globals ...Global) (*Server, *net.UnixConn) {
	t.Helper()

	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	client := fileConn(t, fds[0], "client")
	t.Cleanup(func() { client.Close() })
	return Serve(t, fileConn(t, fds[1], "server"), globals...), client
}

// Serve runs a server on an already connected socket, for example one
// accepted from a listener. The socket is closed when the test ends.
func Serve(t testing.TB, conn *net.UnixConn, globals ...Global) *Server {
	s := &Server{
		t:       t,
		raw:     conn,
		conn:    wire.NewConn(conn),
		globals: globals,
		formats: []uint32{0, 1},
		objects: map[uint32]string{uint32(wayland.DisplayID): wayland.InterfaceDisplay},
		done:    make(chan struct{}),
	}
	go s.serve()

	t.Cleanup(func() {
		s.Disconnect()
		s.conn.Close()
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, p := range s.pools {
			unix.Close(p.FD)
		}
	})
	return s
}

func fileConn(t testing.TB, fd int, name string) *net.UnixConn {
	f := os.NewFile(uintptr(fd), name)
	defer f.Close()
	c, err := net.FileConn(f)
	if err != nil {
		t.Fatalf("file conn: %v", err)
	}
	return c.(*net.UnixConn)
}

func (s *Server) serve() {
	defer close(s.done)
	for {
		msg, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handle(msg)
	}
}

func (s *Server) handle(msg wire.Message) {
	s.mu.Lock()
	iface := s.objects[msg.Object]
	s.mu.Unlock()

	req := Request{Object: msg.Object, Interface: iface, Opcode: msg.Opcode, Args: msg.Args, FD: -1}
	d := msg.Decoder()

	switch {
	case req.Is(wayland.InterfaceDisplay, wayland.OpDisplayGetRegistry):
		id, _ := d.Uint()
		s.track(id, wayland.InterfaceRegistry)
		s.record(req)
		for _, g := range s.globals {
			s.send(wire.NewMessage(id, wayland.EvRegistryGlobal).Uint(g.Name).String(g.Interface).Uint(g.Version))
		}

	case req.Is(wayland.InterfaceDisplay, wayland.OpDisplaySync):
		id, _ := d.Uint()
		s.record(req)
		s.send(wire.NewMessage(id, wayland.EvCallbackDone).Uint(0))
		s.send(wire.NewMessage(uint32(wayland.DisplayID), wayland.EvDisplayDeleteID).Uint(id))

	case req.Is(wayland.InterfaceRegistry, wayland.OpRegistryBind):
		_, _ = d.Uint()
		bound, _ := d.String()
		_, _ = d.Uint()
		id, _ := d.Uint()
		s.track(id, bound)
		s.record(req)
		if bound == wayland.InterfaceShm {
			s.mu.Lock()
			formats := s.formats
			s.mu.Unlock()
			for _, f := range formats {
				s.send(wire.NewMessage(id, wayland.EvShmFormat).Uint(f))
			}
		}

	case req.Is(wayland.InterfaceCompositor, wayland.OpCompositorCreateSurface):
		id, _ := d.Uint()
		s.track(id, wayland.InterfaceSurface)
		s.record(req)

	case req.Is(wayland.InterfaceShm, wayland.OpShmCreatePool):
		id, _ := d.Uint()
		size, _ := d.Int()
		fd, err := s.conn.TakeFD()
		if err != nil {
			fd = -1
		}
		req.FD = fd
		s.track(id, wayland.InterfaceShmPool)
		s.mu.Lock()
		s.pools = append(s.pools, Pool{ID: id, FD: fd, Size: size})
		s.mu.Unlock()
		s.record(req)

	case req.Is(wayland.InterfaceShmPool, wayland.OpShmPoolCreateBuffer):
		id, _ := d.Uint()
		s.track(id, wayland.InterfaceBuffer)
		s.record(req)

	case req.Is(wayland.InterfaceShell, wayland.OpShellGetShellSurface):
		id, _ := d.Uint()
		s.track(id, wayland.InterfaceShellSurface)
		s.record(req)

	case req.Is(wayland.InterfaceShmPool, wayland.OpShmPoolDestroy),
		req.Is(wayland.InterfaceBuffer, wayland.OpBufferDestroy),
		req.Is(wayland.InterfaceSurface, wayland.OpSurfaceDestroy):
		s.record(req)
		s.forget(msg.Object)
		s.send(wire.NewMessage(uint32(wayland.DisplayID), wayland.EvDisplayDeleteID).Uint(msg.Object))

	default:
		s.record(req)
	}
}

func (s *Server) track(id uint32, iface string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[id] = iface
}

func (s *Server) forget(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, id)
}

func (s *Server) record(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
}

func (s *Server) send(b *wire.Builder) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	// Write errors mean the client went away; tests observe that elsewhere.
	_ = s.conn.WriteMessage(b.Message())
}

// SetFormats replaces the formats announced after a client binds wl_shm.
// The default is argb8888 and xrgb8888.
func (s *Server) SetFormats(formats ...uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.formats = formats
}

// Requests returns a snapshot of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Find returns all received requests matching iface and opcode.
func (s *Server) Find(iface string, opcode uint16) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Is(iface, opcode) {
			out = append(out, r)
		}
	}
	return out
}

// WaitRequest blocks until a matching request has been received and
// returns the first one.
func (s *Server) WaitRequest(iface string, opcode uint16) Request {
	s.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if found := s.Find(iface, opcode); len(found) > 0 {
			return found[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.t.Fatalf("timed out waiting for %s opcode %d", iface, opcode)
	return Request{}
}

// Objects returns the ids the client created for an interface.
func (s *Server) Objects(iface string) []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint32
	for id, name := range s.objects {
		if name == iface {
			ids = append(ids, id)
		}
	}
	return ids
}

// Pools returns the pools the client created, with the received fds.
func (s *Server) Pools() []Pool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Pool, len(s.pools))
	copy(out, s.pools)
	return out
}

// SendPing sends wl_shell_surface.ping and returns the number of requests
// recorded before it, so callers can inspect what the client sent next.
func (s *Server) SendPing(shellSurface, serial uint32) int {
	mark := len(s.Requests())
	s.send(wire.NewMessage(shellSurface, wayland.EvShellSurfacePing).Uint(serial))
	return mark
}

// SendConfigure sends wl_shell_surface.configure.
func (s *Server) SendConfigure(shellSurface uint32, width, height int32) {
	s.send(wire.NewMessage(shellSurface, wayland.EvShellSurfaceConfigure).Uint(0).Int(width).Int(height))
}

// SendGlobal announces a global on the given registry after the fact.
func (s *Server) SendGlobal(registry uint32, g Global) {
	s.send(wire.NewMessage(registry, wayland.EvRegistryGlobal).Uint(g.Name).String(g.Interface).Uint(g.Version))
}

// SendError sends a fatal wl_display.error.
func (s *Server) SendError(object, code uint32, message string) {
	s.send(wire.NewMessage(uint32(wayland.DisplayID), wayland.EvDisplayError).Uint(object).Uint(code).String(message))
}

// Disconnect closes the server end of the socket.
func (s *Server) Disconnect() {
	s.raw.Close()
	<-s.done
}
