package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/AchrafSoltani/wlsimple"
	"github.com/AchrafSoltani/wlsimple/internal/config"
	"github.com/AchrafSoltani/wlsimple/internal/logging"
	"github.com/AchrafSoltani/wlsimple/internal/wayland"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

const appName = "wlsimple"

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1
	exitConnect = 2
)

type globalOptions struct {
	configPath string
	socket     string
	width      int
	height     int
	title      string
	color      string
	verbose    bool
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return exitCode(err)
	}
	return exitOK
}

func exitCode(err error) int {
	var connErr *wayland.ConnectError
	if errors.As(err, &connErr) {
		return exitConnect
	}
	return exitFailure
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Show a single solid-color window on a Wayland compositor",
		Long: `wlsimple connects to the Wayland compositor, binds wl_compositor,
wl_shm and wl_shell, shares one ARGB8888 buffer through anonymous
memory and presents it as a toplevel window until interrupted.

Every global the compositor advertises is listed on stdout.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runClient(cmd.Context(), cfg, stdout, newLogger(cfg, stderr))
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "",
		"Path to config file (default: ~/.config/wlsimple/config.toml)")
	flags.StringVar(&opts.socket, "socket", "",
		"Compositor socket name or path (default: $WAYLAND_DISPLAY)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Enable debug logging")

	cmd.Flags().IntVar(&opts.width, "width", config.DefaultWidth, "Window width in pixels")
	cmd.Flags().IntVar(&opts.height, "height", config.DefaultHeight, "Window height in pixels")
	cmd.Flags().StringVar(&opts.title, "title", config.DefaultTitle, "Window title")
	cmd.Flags().StringVar(&opts.color, "color", config.DefaultColor, "Fill color as #AARRGGBB or #RRGGBB")

	cmd.AddCommand(newGlobalsCmd(opts, stderr))
	return cmd
}

// loadConfig reads the config file and applies the flags the user set
// explicitly on top of it.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("socket") {
		cfg.Display.Socket = opts.socket
	}
	if changed("width") {
		cfg.Window.Width = opts.width
	}
	if changed("height") {
		cfg.Window.Height = opts.height
	}
	if changed("title") {
		cfg.Window.Title = opts.title
	}
	if changed("color") {
		cfg.Fill.Color = opts.color
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, stderr io.Writer) zerolog.Logger {
	return logging.New(appName, logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		NoColor: cfg.Log.NoColor,
		Out:     stderr,
	})
}

func runClient(ctx context.Context, cfg *config.Config, stdout io.Writer, log zerolog.Logger) error {
	opts := wlsimple.DefaultOptions()
	opts.Socket = cfg.Display.Socket
	opts.Width = cfg.Window.Width
	opts.Height = cfg.Window.Height
	opts.Title = cfg.Window.Title
	opts.Class = cfg.Window.Class
	opts.Color = cfg.Color()
	opts.Logger = log
	opts.Out = stdout

	c, err := wlsimple.Dial(opts)
	if err != nil {
		return err
	}

	if err := c.Start(); err != nil {
		c.Close()
		return err
	}

	log.Info().Msg("window presented, interrupt to quit")
	err = c.Run(ctx)
	if cerr := c.Close(); err == nil && cerr != nil {
		log.Debug().Err(cerr).Msg("close")
	}
	if err != nil {
		return fmt.Errorf("event loop: %w", err)
	}
	log.Info().Msg("stopped")
	return nil
}
