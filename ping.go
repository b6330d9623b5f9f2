package wlsimple

import (
	"fmt"

	"github.com/AchrafSoltani/wlsimple/internal/wayland"
)

// handlePing answers a liveness probe on our shell surface with the same
// serial. Compositors mark clients that stay silent as unresponsive.
func (c *Client) handlePing(e wayland.PingEvent) error {
	ss := c.shellSurface
	if ss == nil || ss.id != e.ShellSurface {
		return nil
	}
	if err := c.conn.Pong(ss.id, e.Serial); err != nil {
		return fmt.Errorf("pong %d: %w", e.Serial, err)
	}
	c.log.Trace().Uint32("serial", e.Serial).Msg("pong")
	return nil
}
