package restore

import (
	"context"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/drummonds/fbsnap/internal/errors"
)

// Viewer is the long running display program. Run blocks until it exits
// and must return soon after ctx ends.
type Viewer interface {
	Run(ctx context.Context) error
}

// ExecViewer runs an external program. Its config file path, if any, is
// passed as the last argument.
type ExecViewer struct {
	Command []string
	Config  string
	Stdout  io.Writer
	Stderr  io.Writer
	// Grace is how long the program gets between SIGTERM and SIGKILL.
	Grace time.Duration
}

func (v *ExecViewer) Run(ctx context.Context) error {
	if len(v.Command) == 0 {
		return errors.Kind(errors.ErrInvalidInput, `no viewer command`)
	}
	args := append([]string{}, v.Command[1:]...)
	if v.Config != `` {
		args = append(args, v.Config)
	}
	cmd := exec.CommandContext(ctx, v.Command[0], args...)
	cmd.Stdout, cmd.Stderr = v.Stdout, v.Stderr
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = v.Grace
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = 5 * time.Second
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, errors.ErrExternalTool, `start %s`, v.Command[0])
	}
	err := cmd.Wait()
	if ctx.Err() != nil {
		// stopped on request; how it died does not matter
		return nil
	}
	return errors.Wrapf(err, errors.ErrExternalTool, `%s`, v.Command[0])
}
