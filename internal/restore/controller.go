/*
Package restore keeps the boot placeholder on screen around the viewer.

A Controller puts the stored snapshot on the device when the service starts,
hands the screen to the viewer, and puts the snapshot back when the service
is told to stop. Restores are whole-frame writes serialised by a mutex: a
signal that arrives while a restore is being written waits for it and then
writes the same bytes again. Nothing ever aborts a write half way.
*/
package restore

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/drummonds/fbsnap/internal/errors"
	"github.com/drummonds/fbsnap/internal/fb"
	"github.com/drummonds/fbsnap/internal/snapshot"
)

type State int

const (
	Idle State = iota
	Presenting
	Terminating
	Restored
)

func (s State) String() string {
	switch s {
	case Idle:
		return `idle`
	case Presenting:
		return `presenting`
	case Terminating:
		return `terminating`
	case Restored:
		return `restored`
	}
	return `unknown`
}

type Controller struct {
	dev  fb.Device
	path string
	log  *slog.Logger

	mu       sync.Mutex
	state    State
	frame    []byte
	restores int
}

// NewController restores the snapshot at path onto dev. A nil logger
// logs to slog.Default().
func NewController(dev fb.Device, path string, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{dev: dev, path: path, log: log.With(`snapshot`, path)}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Restores counts completed restore writes.
func (c *Controller) Restores() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.restores
}

// Present loads the snapshot and writes it to the device. A missing or
// unreadable snapshot is fatal: the device is left untouched.
func (c *Controller) Present(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.New(err)
	}
	frame, err := snapshot.Load(c.path, c.dev.Geometry())
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dev.Write(frame); err != nil {
		return err
	}
	c.frame = frame
	c.state = Presenting
	c.log.Info(`placeholder presented`, `device`, fb.Describe(c.dev))
	return nil
}

// Restore writes the placeholder again. It may be called any number of
// times after Present; every call repeats the same write.
func (c *Controller) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.frame == nil {
		return errors.Kind(errors.ErrInvalidInput, `restore before the placeholder was presented`)
	}
	c.state = Terminating
	if err := c.dev.Write(c.frame); err != nil {
		return err
	}
	c.state = Restored
	c.restores++
	c.log.Debug(`placeholder restored`, `count`, c.restores)
	return nil
}

// Run presents the placeholder, runs v until it exits or a signal arrives
// on sigs (or ctx ends), and leaves the placeholder on screen. Every
// signal restores at once and stops the viewer; once the viewer is gone
// the placeholder is written one last time. A nil viewer just waits.
//
// Run returns nil when it was stopped by a signal or ctx, and an
// ErrExternalTool error when the viewer failed by itself.
func (c *Controller) Run(ctx context.Context, v Viewer, sigs <-chan os.Signal) (err error) {
	if err := c.Present(ctx); err != nil {
		return err
	}

	var exitOnce sync.Once
	exitGuard := func() {
		exitOnce.Do(func() {
			if rerr := c.Restore(); rerr != nil {
				err = errors.Join(err, rerr)
			}
		})
	}
	defer exitGuard()

	vctx, stopViewer := context.WithCancel(context.Background())
	defer stopViewer()
	done := make(chan error, 1)
	go func() {
		if v == nil {
			<-vctx.Done()
			done <- nil
			return
		}
		done <- v.Run(vctx)
	}()

	stopping := false
	ctxDone := ctx.Done()
	for {
		select {
		case sig := <-sigs:
			c.log.Info(`signal`, `signal`, sig.String())
			if rerr := c.Restore(); rerr != nil {
				c.log.Error(`restore failed`, `err`, rerr)
			}
			stopping = true
			stopViewer()
		case <-ctxDone:
			ctxDone = nil
			stopping = true
			stopViewer()
		case verr := <-done:
			exitGuard()
			c.drain(sigs)
			if verr != nil && !stopping {
				return errors.Join(errors.Wrapf(verr, errors.ErrExternalTool, `viewer`), err)
			}
			return err
		}
	}
}

// drain restores once more for every signal already queued.
func (c *Controller) drain(sigs <-chan os.Signal) {
	for {
		select {
		case sig := <-sigs:
			c.log.Info(`signal`, `signal`, sig.String())
			if err := c.Restore(); err != nil {
				c.log.Error(`restore failed`, `err`, err)
			}
		default:
			return
		}
	}
}
