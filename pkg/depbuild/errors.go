package depbuild

import "github.com/rotisserie/eris"

var (
	// ErrUnsupportedTarget means no preset exists for the requested
	// (host, target, compiler) combination. This is a configuration bug;
	// the fix is a new preset entry, not a retry.
	ErrUnsupportedTarget = eris.New("no preset for the requested target")

	// ErrExtraction covers missing or corrupt source archives.
	ErrExtraction = eris.New("failed to extract source archive")

	ErrConfigure = eris.New("configure step failed")
	ErrBuild     = eris.New("build step failed")
	ErrInstall   = eris.New("install step failed")

	// ErrUnknownDependency means the requested dependency isn't listed in
	// the manifest.
	ErrUnknownDependency = eris.New("dependency not listed in the manifest")
)
