package main

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"

	"github.com/drummonds/fbsnap/internal/drawing"
	"github.com/drummonds/fbsnap/internal/errors"
	"github.com/drummonds/fbsnap/internal/fb"
	"github.com/drummonds/fbsnap/internal/snapshot"
)

func newRestoreCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   `restore [snapshot]`,
		Short: `write a snapshot back to the device once`,
		Long: `restore writes a snapshot to the device and exits. Without an argument
it restores the snapshot fbsnapd would use.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			path := cfg.SnapshotPath()
			if len(args) == 1 {
				path = args[0]
			}
			dev, err := openDevice(cfg.Device)
			if err != nil {
				return err
			}
			defer dev.Close()
			frame, err := snapshot.Load(path, dev.Geometry())
			if err != nil {
				return err
			}
			return dev.Write(frame)
		},
	}
}

func newGrabCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   `grab <out.png>`,
		Short: `save what the device shows as a PNG`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			dev, err := openDevice(cfg.Device)
			if err != nil {
				return err
			}
			defer dev.Close()
			frame, err := dev.Read()
			if err != nil {
				return err
			}
			img, err := drawing.Decode(frame, dev.Geometry())
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := png.Encode(&buf, img); err != nil {
				return errors.New(err)
			}
			return errors.Wrapf(renameio.WriteFile(args[0], buf.Bytes(), 0o644), errors.ErrExternalTool, `write %s`, args[0])
		},
	}
}

func newInfoCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   `info`,
		Short: `describe the device and the configured snapshot`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			dev, err := openDevice(cfg.Device)
			if err != nil {
				return err
			}
			defer dev.Close()
			g := dev.Geometry()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "device:   %s\n", fb.Describe(dev))
			fmt.Fprintf(out, "frame:    %d bytes\n", g.Size())
			fmt.Fprintf(out, "snapshot: %s\n", cfg.SnapshotPath())
			return nil
		},
	}
}
