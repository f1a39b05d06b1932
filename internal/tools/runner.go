package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Commander runs an external program and returns what it wrote to stdout.
type Commander interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Runner executes tools under a fixed timeout with a C locale so their
// output stays parseable.
type Runner struct {
	timeout time.Duration
}

func NewRunner(timeout time.Duration) *Runner {
	return &Runner{timeout: timeout}
}

// Output returns stdout even when the command exits non-zero, alongside
// the error.
func (r *Runner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), fmt.Errorf("%s: exit code %d: %s", name, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
		}
		return stdout.Bytes(), fmt.Errorf("%s: %w", name, err)
	}

	return stdout.Bytes(), nil
}
