//go:build !linux

package fb

import "github.com/drummonds/fbsnap/internal/errors"

func openDev(path string) (Device, error) {
	return nil, errors.Kind(errors.ErrInvalidInput, `framebuffer device %q needs linux, use %s<w>x<h>x<bytes>`, path, MemPrefix)
}
