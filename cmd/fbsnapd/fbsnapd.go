// Program fbsnapd puts the captured placeholder on the Linux frame buffer,
// runs the viewer on top of it, and puts the placeholder back when it is
// asked to stop, so the screen never shows a half drawn frame or the
// console between runs.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/drummonds/fbsnap/internal/config"
	"github.com/drummonds/fbsnap/internal/fb"
	"github.com/drummonds/fbsnap/internal/restore"
)

const version = `v0.3.0`

// openDevice is swapped out by tests.
var openDevice = fb.Open

// fbsnapd runs until the viewer exits or a signal on sigs stops it.
func fbsnapd(ctx context.Context, cfg *config.Config, sigs <-chan os.Signal, stdout, stderr io.Writer) error {
	dev, err := openDevice(cfg.Device)
	if err != nil {
		return err
	}
	defer dev.Close()
	slog.Info(`framebuffer`, `device`, fb.Describe(dev))

	var viewer restore.Viewer
	if len(cfg.Viewer.Command) > 0 {
		viewer = &restore.ExecViewer{
			Command: cfg.Viewer.Command,
			Config:  cfg.Viewer.Config,
			Stdout:  stdout,
			Stderr:  stderr,
		}
	} else {
		slog.Warn(`no viewer configured, holding the placeholder until stopped`)
	}
	c := restore.NewController(dev, cfg.SnapshotPath(), slog.Default())
	return c.Run(ctx, viewer, sigs)
}

func newRootCmd(stdout, stderr io.Writer, sigs <-chan os.Signal) *cobra.Command {
	var (
		configPath string
		debug      bool
	)
	root := &cobra.Command{
		Use:           `fbsnapd`,
		Short:         `keep the framebuffer placeholder around the viewer`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			slog.SetDefault(cfg.NewLogger(stderr))
			slog.Info(`fbsnapd starting`, `version`, version, `snapshot`, cfg.SnapshotPath())
			return fbsnapd(cmd.Context(), cfg, sigs, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.Flags().StringVarP(&configPath, `config`, `c`, ``, `config file (default $`+config.EnvConfig+`)`)
	root.Flags().BoolVarP(&debug, `debug`, `d`, false, `print error stacks`)
	return root
}

func execute(args []string, stdout, stderr io.Writer, sigs <-chan os.Signal) int {
	root := newRootCmd(stdout, stderr, sigs)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	debug, _ := root.Flags().GetBool(`debug`)
	if stackFramer, ok := err.(interface{ ErrorStack() string }); debug && ok {
		fmt.Fprintln(stderr, stackFramer.ErrorStack())
	} else {
		slog.Error(`fbsnapd stopped`, `err`, err)
	}
	return 1
}

func main() {
	// every signal restores the placeholder, so they are counted rather
	// than folded into a context
	sigs := make(chan os.Signal, 4)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr, sigs))
}
