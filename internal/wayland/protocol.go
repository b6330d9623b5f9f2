package wayland

// Interface names
const (
	InterfaceDisplay      = "wl_display"
	InterfaceRegistry     = "wl_registry"
	InterfaceCallback     = "wl_callback"
	InterfaceCompositor   = "wl_compositor"
	InterfaceShm          = "wl_shm"
	InterfaceShmPool      = "wl_shm_pool"
	InterfaceBuffer       = "wl_buffer"
	InterfaceSurface      = "wl_surface"
	InterfaceShell        = "wl_shell"
	InterfaceShellSurface = "wl_shell_surface"
)

// DisplayID is the id of the wl_display singleton.
const DisplayID ObjectID = 1

// Request opcodes
const (
	OpDisplaySync        = 0
	OpDisplayGetRegistry = 1

	OpRegistryBind = 0

	OpCompositorCreateSurface = 0

	OpShmCreatePool = 0

	OpShmPoolCreateBuffer = 0
	OpShmPoolDestroy      = 1

	OpBufferDestroy = 0

	OpSurfaceDestroy = 0
	OpSurfaceAttach  = 1
	OpSurfaceDamage  = 2
	OpSurfaceCommit  = 6

	OpShellGetShellSurface = 0

	OpShellSurfacePong        = 0
	OpShellSurfaceSetToplevel = 3
	OpShellSurfaceSetTitle    = 8
	OpShellSurfaceSetClass    = 9
)

// Event opcodes
const (
	EvDisplayError    = 0
	EvDisplayDeleteID = 1

	EvRegistryGlobal       = 0
	EvRegistryGlobalRemove = 1

	EvCallbackDone = 0

	EvShmFormat = 0

	EvBufferRelease = 0

	EvShellSurfacePing      = 0
	EvShellSurfaceConfigure = 1
	EvShellSurfacePopupDone = 2
)

// Client-allocated ids live below this bound.
const maxClientID ObjectID = 0xFEFFFFFF
