package depbuild

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
)

// Step is one external command of the build pipeline.
type Step struct {
	Name string
	Dir  string
	Argv []string
	Env  []string
}

// StepRunner executes an external build step, blocking until it finishes,
// and returns the combined stdout/stderr. The pipeline only talks to its
// steps through this interface so tests can substitute a fake runner instead
// of spawning native builds.
type StepRunner interface {
	Run(ctx context.Context, step Step) ([]byte, error)
}

type execRunner struct{}

// NewExecRunner returns the StepRunner that actually spawns processes.
func NewExecRunner() StepRunner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, step Step) ([]byte, error) {
	if len(step.Argv) == 0 {
		return nil, eris.Errorf("Step %s has no command", step.Name)
	}

	log(ctx).Info().
		Str("step", step.Name).
		Bool("command", true).
		Msg(strings.Join(step.Argv, " "))

	cmd := exec.Command(step.Argv[0], step.Argv[1:]...)
	cmd.Dir = step.Dir
	cmd.Env = step.Env

	output := bytes.Buffer{}
	cmd.Stdout = io.MultiWriter(&output, os.Stdout)
	cmd.Stderr = io.MultiWriter(&output, os.Stderr)
	setupProcessGroup(cmd)

	err := cmd.Start()
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to start %s", strings.Join(step.Argv, " "))
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		// Take the whole process group down, a bare make would leave its
		// compiler children running otherwise.
		terminateProcessGroup(cmd)
		<-done
		return output.Bytes(), ctx.Err()
	case err := <-done:
		if err != nil {
			return output.Bytes(), eris.Wrapf(err, "Command %s failed", strings.Join(step.Argv, " "))
		}

		return output.Bytes(), nil
	}
}
