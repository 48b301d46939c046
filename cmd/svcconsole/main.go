// Package main is the entry point for the svcconsole service console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/svcconsole/internal/app"
	"github.com/dshills/svcconsole/internal/config/loader"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// flags holds the command-line settings shared by every subcommand.
type flags struct {
	configPath string
	transport  string
	device     string
	listen     string
	frameSize  int
	scripts    string
	noWatch    bool
	logLevel   string
	logFile    string
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   "svcconsole",
		Short: "Line-oriented service console",
		Long: `svcconsole serves a command console over a terminal, serial line,
stdio pipe or TCP socket. Commands are built in or scripted in Lua.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd.Context(), f.options(cmd))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "path to configuration file")
	pf.StringVarP(&f.transport, "transport", "t", "", "transport kind (stdio, tty, serial, tcp, loopback)")
	pf.StringVar(&f.device, "device", "", "terminal or serial device for tty and serial transports")
	pf.StringVar(&f.listen, "listen", "", "listen address for the tcp transport")
	pf.IntVar(&f.frameSize, "frame-size", 0, "largest single write to the transport")
	pf.StringVarP(&f.scripts, "scripts", "s", "", "path to the script command manifest")
	pf.BoolVar(&f.noWatch, "no-watch", false, "do not reload scripts when they change")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&f.logFile, "log-file", "", "write logs to this file")

	root.AddCommand(newVersionCmd(), newCommandsCmd(f), newCheckCmd(f))
	return root
}

// options converts the flags the user set into an application
// configuration layer. Unset flags leave lower layers in effect.
func (f *flags) options(cmd *cobra.Command) app.Options {
	m := loader.Map{}
	changed := func(name string) bool { return cmd.Flags().Changed(name) }

	if changed("transport") {
		setKey(m, "transport", "kind", f.transport)
	}
	if changed("device") {
		setKey(m, "transport", "device", f.device)
	}
	if changed("listen") {
		setKey(m, "transport", "listen", f.listen)
	}
	if changed("frame-size") {
		setKey(m, "transport", "frame_size", int64(f.frameSize))
	}
	if changed("scripts") {
		setKey(m, "scripts", "manifest", f.scripts)
	}
	if changed("no-watch") {
		setKey(m, "scripts", "watch", !f.noWatch)
	}
	if changed("log-level") {
		setKey(m, "log", "level", f.logLevel)
	}
	if changed("log-file") {
		setKey(m, "log", "file", f.logFile)
	}

	return app.Options{
		ConfigPath: f.configPath,
		Overrides:  m,
		Version:    version,
	}
}

func setKey(m loader.Map, section, key string, value any) {
	sec, ok := m[section].(map[string]any)
	if !ok {
		sec = make(map[string]any)
		m[section] = sec
	}
	sec[key] = value
}

func runConsole(ctx context.Context, opts app.Options) error {
	application, err := app.New(opts)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Run(ctx)
}
