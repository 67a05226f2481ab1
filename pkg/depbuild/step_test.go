package depbuild

import (
	"context"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestExecRunner(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}

	ctx := testLogContext(t)
	runner := NewExecRunner()

	t.Run("captures output", func(t *testing.T) {
		output, err := runner.Run(ctx, Step{
			Name: "echo",
			Dir:  t.TempDir(),
			Argv: []string{"sh", "-c", "echo hello"},
			Env:  os.Environ(),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(string(output), "hello") {
			t.Errorf("output %q is missing the command output", output)
		}
	})

	t.Run("returns output on failure", func(t *testing.T) {
		output, err := runner.Run(ctx, Step{
			Name: "fail",
			Dir:  t.TempDir(),
			Argv: []string{"sh", "-c", "echo oops >&2; exit 3"},
			Env:  os.Environ(),
		})
		if err == nil {
			t.Fatal("expected an error")
		}

		if !strings.Contains(string(output), "oops") {
			t.Errorf("stderr %q wasn't captured", output)
		}
	})

	t.Run("empty command", func(t *testing.T) {
		_, err := runner.Run(ctx, Step{Name: "empty"})
		if err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("cancellation kills the step", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		go func() {
			time.Sleep(100 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		_, err := runner.Run(cancelCtx, Step{
			Name: "sleep",
			Dir:  t.TempDir(),
			Argv: []string{"sleep", "30"},
			Env:  os.Environ(),
		})
		if err == nil {
			t.Fatal("expected an error")
		}

		if time.Since(start) > 5*time.Second {
			t.Error("cancellation didn't terminate the step")
		}
	})
}
