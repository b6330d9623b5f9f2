package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AchrafSoltani/wlsimple/internal/wayland"
)

func newGlobalsCmd(opts *globalOptions, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "globals",
		Short: "List the globals the compositor advertises and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			log := newLogger(cfg, stderr)

			conn, err := wayland.Connect(cfg.Display.Socket)
			if err != nil {
				return err
			}
			defer conn.Close()
			log.Debug().Str("endpoint", conn.Endpoint).Msg("connected")

			registry, err := conn.GetRegistry()
			if err != nil {
				return fmt.Errorf("get registry: %w", err)
			}

			out := cmd.OutOrStdout()
			n := 0
			err = conn.Roundtrip(wayland.HandlerFunc(func(ev wayland.Event) error {
				g, ok := ev.(wayland.GlobalEvent)
				if !ok || g.Registry != registry {
					return nil
				}
				n++
				_, err := fmt.Fprintf(out, "interface=%s name=%x version=%d\n", g.Interface, g.Name, g.Version)
				return err
			}))
			if err != nil {
				return fmt.Errorf("registry roundtrip: %w", err)
			}
			log.Debug().Int("count", n).Msg("globals listed")
			return nil
		},
	}
}
