// Program fbsnap decorates a picture with rounded, softened corners, shows
// it full screen on the framebuffer and keeps a compressed copy of exactly
// what the screen held. fbsnapd puts that copy back on the screen at boot
// and on shutdown.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/drummonds/fbsnap/internal/config"
	"github.com/drummonds/fbsnap/internal/errors"
	"github.com/drummonds/fbsnap/internal/fb"
	"github.com/drummonds/fbsnap/internal/pipeline"
	"github.com/drummonds/fbsnap/internal/source"
)

// openDevice is swapped out by tests.
var openDevice = fb.Open

type flags struct {
	config    string
	debug     bool
	device    string
	assets    string
	codec     string
	hold      time.Duration
	asDefault bool
	preview   bool
}

var errUsage = errors.Kind(errors.ErrInvalidInput, `expected exactly one image argument`)

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:   `fbsnap <image>`,
		Short: `capture a decorated picture as the framebuffer placeholder`,
		Long: `fbsnap scales <image>, cuts rounded corners with a soft border into it,
shows it on the framebuffer and saves <assets>/<name>.mask.png,
<assets>/<name>.composite.png and the compressed screen snapshot
<assets>/<name>.fb. <image> is a file or photoprism:<uid>.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				fmt.Fprint(cmd.ErrOrStderr(), cmd.UsageString())
				return errUsage
			}
			return capture(cmd, f, args[0])
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	pf := root.PersistentFlags()
	pf.StringVarP(&f.config, `config`, `c`, ``, `config file (default $`+config.EnvConfig+`)`)
	pf.BoolVarP(&f.debug, `debug`, `d`, false, `print error stacks`)
	pf.StringVar(&f.device, `device`, ``, `framebuffer device, or mem:<w>x<h>x<bytes>`)
	pf.StringVar(&f.assets, `assets`, ``, `asset directory`)
	root.Flags().StringVar(&f.codec, `codec`, ``, `snapshot codec: deflate or zstd`)
	root.Flags().DurationVar(&f.hold, `hold`, 0, `how long the picture stays on screen before capture`)
	root.Flags().BoolVar(&f.asDefault, `default`, false, `also make this the snapshot fbsnapd restores`)
	root.Flags().BoolVar(&f.preview, `preview`, false, `mirror the screen in an X11 window while holding`)

	root.AddCommand(newRestoreCmd(f), newGrabCmd(f), newInfoCmd(f))
	return root
}

// loadConfig reads the config file and applies the command line on top.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Read(f.config)
	if err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed
	if changed(`device`) {
		cfg.Device = f.device
	}
	if changed(`assets`) {
		cfg.Assets = f.assets
	}
	if changed(`codec`) {
		cfg.Codec = f.codec
	}
	if changed(`hold`) {
		cfg.Hold = f.hold
	}
	if changed(`preview`) {
		cfg.Preview = f.preview
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.SetDefault(cfg.NewLogger(cmd.ErrOrStderr()))
	return cfg, nil
}

func capture(cmd *cobra.Command, f *flags, ref string) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	src, err := source.Parse(ref, source.PhotoPrismOptions{
		Domain: cfg.PhotoPrism.Domain,
		Token:  cfg.PhotoPrism.Token,
		Thumb:  cfg.PhotoPrism.Thumb,
	})
	if err != nil {
		return err
	}
	bg, err := cfg.BackgroundColour()
	if err != nil {
		return err
	}
	codec, err := cfg.SnapshotCodec()
	if err != nil {
		return err
	}
	r, err := cfg.ImageResizer()
	if err != nil {
		return err
	}

	dev, err := openDevice(cfg.Device)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	res, err := pipeline.Capture(ctx, dev, src, pipeline.Options{
		Scale:      cfg.Scale,
		Resizer:    r,
		Mask:       cfg.MaskParams(),
		Background: bg,
		Hold:       cfg.Hold,
		Codec:      codec,
		Assets:     cfg.Assets,
		AsDefault:  f.asDefault,
		Preview:    cfg.Preview,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Paths.Snapshot)
	return nil
}

// execute runs the command line and returns the process exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	if args == nil {
		// cobra reads os.Args when given nil
		args = []string{}
	}
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}
	debug, _ := root.PersistentFlags().GetBool(`debug`)
	if stackFramer, ok := err.(interface{ ErrorStack() string }); debug && ok {
		fmt.Fprintln(stderr, stackFramer.ErrorStack())
	} else {
		fmt.Fprintln(stderr, `fbsnap: `+err.Error())
	}
	return 1
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
