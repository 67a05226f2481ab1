package depbuild

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseExtraFlags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
		{
			name:     "plain flags",
			input:    "--enable-debug --without-zlib",
			expected: []string{"--enable-debug", "--without-zlib"},
		},
		{
			name:     "quoted value keeps spaces",
			input:    `--with-cflags="-O2 -g"`,
			expected: []string{"--with-cflags=-O2 -g"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			flags, err := ParseExtraFlags(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if !reflect.DeepEqual(flags, tc.expected) {
				t.Errorf("got %v, expected %v", flags, tc.expected)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("fills the parallelism default", func(t *testing.T) {
		bctx := newTestContext(t)
		bctx.Parallelism = 0

		if err := bctx.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if bctx.Parallelism < 1 {
			t.Errorf("parallelism is %d after validation", bctx.Parallelism)
		}
	})

	t.Run("rejects a missing toolchain", func(t *testing.T) {
		bctx := newTestContext(t)
		bctx.ToolchainRoot = bctx.ToolchainRoot + "-nope"

		if err := bctx.Validate(); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects a missing compiler", func(t *testing.T) {
		bctx := newTestContext(t)
		bctx.Compiler = "gcc"

		if err := bctx.Validate(); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects an empty dependency", func(t *testing.T) {
		bctx := newTestContext(t)
		bctx.Dependency = ""

		if err := bctx.Validate(); err == nil {
			t.Fatal("expected an error")
		}
	})

	t.Run("rejects an empty output root", func(t *testing.T) {
		bctx := newTestContext(t)
		bctx.OutputRoot = ""

		if err := bctx.Validate(); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestStepEnv(t *testing.T) {
	bctx := newTestContext(t)
	env := bctx.StepEnv()

	foundCC := false
	foundPath := false
	for _, entry := range env {
		if entry == "CC=clang" {
			foundCC = true
		}
		if strings.HasPrefix(entry, "PATH=") && strings.Contains(entry, bctx.ToolchainRoot) {
			foundPath = true
		}
	}

	if !foundCC {
		t.Error("CC is missing from the step environment")
	}
	if !foundPath {
		t.Error("the toolchain bin directory is missing from PATH")
	}
}
