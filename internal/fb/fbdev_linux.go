//go:build linux

package fb

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/drummonds/fbsnap/internal/errors"
)

const (
	FBIOGET_VSCREENINFO = 0x4600
	FBIOGET_FSCREENINFO = 0x4602
)

// FixScreenInfo mirrors struct fb_fix_screeninfo.
type FixScreenInfo struct {
	Id                               [16]byte
	Smem_start                       uintptr
	Smem_len, Type, Type_aux, Visual uint32
	Xpanstep, Ypanstep, Ywrapstep    uint16
	Line_length                      uint32
	Mmio_start                       uintptr
	Mmio_len, Accel                  uint32
	Capabilities                     uint16
	Reserved                         [2]uint16
}

type BitField struct {
	Offset, Length, Msb_right uint32
}

// VarScreenInfo mirrors struct fb_var_screeninfo.
type VarScreenInfo struct {
	Xres, Yres,
	Xres_virtual, Yres_virtual,
	Xoffset, Yoffset,
	Bits_per_pixel, Grayscale uint32
	Red, Green, Blue, Transp BitField
	Nonstd, Activate,
	Height, Width,
	Accel_flags, Pixclock,
	Left_margin, Right_margin, Upper_margin, Lower_margin,
	Hsync_len, Vsync_len, Sync,
	Vmode, Rotate, Colorspace uint32
	Reserved [4]uint32
}

var _ Device = (*Dev)(nil)

// Dev is a Linux fbdev node such as /dev/fb0.
type Dev struct {
	f     *os.File
	FInfo FixScreenInfo
	VInfo VarScreenInfo
	g     Geometry
	// byte offset of the visible frame and its line pitch
	origin int64
	stride int
}

func openDev(path string) (Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrExternalTool, `open framebuffer`)
	}
	d := &Dev{f: f}
	if err := ioctl(f.Fd(), FBIOGET_FSCREENINFO, unsafe.Pointer(&d.FInfo)); err != nil {
		f.Close()
		return nil, err
	}
	if err := ioctl(f.Fd(), FBIOGET_VSCREENINFO, unsafe.Pointer(&d.VInfo)); err != nil {
		f.Close()
		return nil, err
	}
	format, err := formatOf(d.VInfo)
	if err != nil {
		f.Close()
		return nil, err
	}
	bpp := int(d.VInfo.Bits_per_pixel) / 8
	d.g = Geometry{Width: int(d.VInfo.Xres), Height: int(d.VInfo.Yres), BytesPerPixel: bpp, Format: format}
	d.stride = int(d.FInfo.Line_length)
	if d.stride == 0 {
		d.stride = d.g.Width * bpp
	}
	d.origin = int64(d.VInfo.Yoffset)*int64(d.stride) + int64(d.VInfo.Xoffset)*int64(bpp)
	return d, nil
}

func formatOf(v VarScreenInfo) (Format, error) {
	switch v.Bits_per_pixel {
	case 32:
		if v.Red.Offset == 0 {
			return FormatRGBA32, nil
		}
		return FormatBGRA32, nil
	case 24:
		return FormatBGR24, nil
	case 16:
		return FormatRGB565, nil
	}
	return 0, errors.Kind(errors.ErrInvalidInput, `unsupported framebuffer depth %d bits`, v.Bits_per_pixel)
}

func (d *Dev) Geometry() Geometry { return d.g }

func (d *Dev) Write(b []byte) error {
	if err := d.g.Check(len(b)); err != nil {
		return err
	}
	row := d.g.Width * d.g.BytesPerPixel
	if row == d.stride {
		_, err := d.f.WriteAt(b, d.origin)
		return errors.Wrapf(err, errors.ErrExternalTool, `write framebuffer`)
	}
	for y := 0; y < d.g.Height; y++ {
		if _, err := d.f.WriteAt(b[y*row:(y+1)*row], d.origin+int64(y*d.stride)); err != nil {
			return errors.Wrapf(err, errors.ErrExternalTool, `write framebuffer line %d`, y)
		}
	}
	return nil
}

func (d *Dev) Read() ([]byte, error) {
	row := d.g.Width * d.g.BytesPerPixel
	b := make([]byte, d.g.Size())
	if row == d.stride {
		n, err := d.f.ReadAt(b, d.origin)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrExternalTool, `read framebuffer`)
		}
		return b[:n], d.g.Check(n)
	}
	for y := 0; y < d.g.Height; y++ {
		if _, err := d.f.ReadAt(b[y*row:(y+1)*row], d.origin+int64(y*d.stride)); err != nil {
			return nil, errors.Wrapf(err, errors.ErrExternalTool, `read framebuffer line %d`, y)
		}
	}
	return b, nil
}

func (d *Dev) Close() error { return errors.New(d.f.Close()) }

func (d *Dev) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "device %s (%s)\n", d.f.Name(), strings.TrimRight(string(d.FInfo.Id[:]), "\x00"))
	fmt.Fprintf(&sb, "geometry %s\n", d.g)
	fmt.Fprintf(&sb, "virtual %dx%d offset %d,%d\n", d.VInfo.Xres_virtual, d.VInfo.Yres_virtual, d.VInfo.Xoffset, d.VInfo.Yoffset)
	fmt.Fprintf(&sb, "line length %d bytes, memory %d bytes\n", d.FInfo.Line_length, d.FInfo.Smem_len)
	fmt.Fprintf(&sb, "red %d/%d green %d/%d blue %d/%d transp %d/%d",
		d.VInfo.Red.Offset, d.VInfo.Red.Length, d.VInfo.Green.Offset, d.VInfo.Green.Length,
		d.VInfo.Blue.Offset, d.VInfo.Blue.Length, d.VInfo.Transp.Offset, d.VInfo.Transp.Length)
	return sb.String()
}

func ioctl(fd uintptr, cmd uintptr, data unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, cmd, uintptr(data))
	if errno != 0 {
		return errors.Wrapf(os.NewSyscallError(`IOCTL`, errno), errors.ErrExternalTool, `framebuffer ioctl 0x%x`, cmd)
	}
	return nil
}
