package depbuild

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/shell"
)

// BuildContext carries everything a single build invocation needs. It's
// constructed once from flags and environment variables, validated and then
// treated as read-only; nothing in the pipeline reaches for ambient state.
type BuildContext struct {
	// Dependency is the manifest name of the library to build.
	Dependency string

	// ToolchainRoot contains the compilers and tools under bin/.
	ToolchainRoot string

	TargetTriple string
	HostPlatform string
	Compiler     string

	// OutputRoot receives the staged install tree. The dependency's own
	// configure step is pointed at InstallPrefix instead; the install step
	// redirects into OutputRoot.
	OutputRoot string

	// ScratchRoot is where source archives get extracted. Disposable.
	ScratchRoot string

	// DownloadDir holds the fetched source archives.
	DownloadDir string

	// ExtraFlags are appended after every other configure flag.
	ExtraFlags []string

	// Parallelism bounds the job count of the build step.
	Parallelism int
}

// InstallPrefix is the path the dependency is configured for. The install
// step redirects the actual file writes into OutputRoot, so the dependency
// believes it lives under this prefix without ever touching it.
const InstallPrefix = "/tools/deps"

// ParseExtraFlags splits a shell-style flag string into individual flags.
func ParseExtraFlags(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}

	fields, err := shell.Fields(raw, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to split extra flags %q", raw)
	}

	return fields, nil
}

// Validate checks the parts of the context that have to be right before any
// step runs and fills in the parallelism default.
func (ctx *BuildContext) Validate() error {
	if ctx.Dependency == "" {
		return eris.New("No dependency name given")
	}

	if ctx.OutputRoot == "" {
		return eris.New("No output root given")
	}

	if ctx.Parallelism < 1 {
		ctx.Parallelism = runtime.NumCPU()
	}

	info, err := os.Stat(ctx.ToolchainRoot)
	if err != nil {
		return eris.Wrapf(err, "Could not find toolchain root %s", ctx.ToolchainRoot)
	}

	if !info.IsDir() {
		return eris.Errorf("Toolchain root %s is not a directory!", ctx.ToolchainRoot)
	}

	compiler := ctx.CompilerPath()
	info, err = os.Stat(compiler)
	if err != nil {
		return eris.Wrapf(err, "Could not find compiler %s in toolchain %s", ctx.Compiler, ctx.ToolchainRoot)
	}

	if info.IsDir() {
		return eris.Errorf("Compiler path %s is a directory!", compiler)
	}

	if runtime.GOOS != "windows" && info.Mode()&0111 == 0 {
		return eris.Errorf("Compiler %s is not marked as executable", compiler)
	}

	return nil
}

// CompilerPath returns the expected location of the compiler binary inside
// the toolchain.
func (ctx *BuildContext) CompilerPath() string {
	name := ctx.Compiler
	if runtime.GOOS == "windows" {
		name += ".exe"
	}

	return filepath.Join(ctx.ToolchainRoot, "bin", name)
}

// StepEnv builds the environment the configure/build/install steps run with.
// The toolchain's bin directory is prepended to PATH and CC points at the
// selected compiler.
func (ctx *BuildContext) StepEnv() []string {
	env := os.Environ()
	env = append(env,
		"PATH="+filepath.Join(ctx.ToolchainRoot, "bin")+string(os.PathListSeparator)+os.Getenv("PATH"),
		"CC="+ctx.Compiler,
	)

	return env
}
