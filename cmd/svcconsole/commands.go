package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/svcconsole/internal/app"
	"github.com/dshills/svcconsole/internal/logging"
	"github.com/dshills/svcconsole/internal/transport"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "svcconsole %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}

// offline builds the application on a loopback transport so the
// configured device is left alone.
func offline(opts app.Options) (*app.Application, error) {
	opts.Transport = transport.NewLoopback(transport.DefaultFrameSize)
	opts.Logger = logging.Nop()
	return app.New(opts)
}

func newCommandsCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the commands the console would serve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := offline(f.options(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tARGS\tSTREAMING\tDESCRIPTION")
			for _, d := range a.Registry().Descriptors() {
				fmt.Fprintf(tw, "%s\t%d\t%t\t%s\n", d.Name, d.Args, d.Streaming, d.Description)
			}
			return tw.Flush()
		},
	}
}

func newCheckCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and load every script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := offline(f.options(cmd))
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.Config()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "config ok: transport=%s frame_size=%d poll_interval=%s\n",
				cfg.Transport.Kind, cfg.Transport.FrameSize, cfg.Console.PollInterval)
			if cfg.Scripts.Manifest != "" {
				fmt.Fprintf(out, "scripts ok: %s\n", cfg.Scripts.Manifest)
			}
			fmt.Fprintf(out, "%d commands\n", a.Registry().Len())
			return nil
		},
	}
}
