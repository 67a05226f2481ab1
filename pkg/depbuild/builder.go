package depbuild

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aidarkhanov/nanoid"
	"github.com/rotisserie/eris"
)

// InstalledPaths points at the artifacts a successful build left behind.
type InstalledPaths struct {
	// SourceDir is the scratch directory the archive was extracted into.
	// It only exists for debugging, callers are free to delete it.
	SourceDir string

	OutputRoot string
	IncludeDir string
	LibDir     string
}

// Builder runs the configure/build/install pipeline for one dependency.
type Builder struct {
	runner   StepRunner
	manifest *Manifest
}

// NewBuilder creates a Builder that executes its steps through the given
// runner.
func NewBuilder(runner StepRunner, manifest *Manifest) *Builder {
	return &Builder{
		runner:   runner,
		manifest: manifest,
	}
}

// Build produces a staged install of the dependency named in bctx. The
// pipeline is strictly linear: extract, select preset, configure, build,
// install. Every failure aborts immediately; there is no partial-result
// recovery because each step depends on the previous step's files on disk.
//
// Two concurrent builds sharing a scratch or output root are not safe,
// callers have to isolate the directories per invocation.
func (b *Builder) Build(ctx context.Context, bctx BuildContext) (*InstalledPaths, error) {
	err := bctx.Validate()
	if err != nil {
		return nil, err
	}

	spec, err := b.manifest.Lookup(bctx.Dependency)
	if err != nil {
		return nil, err
	}

	outputRoot, err := filepath.Abs(bctx.OutputRoot)
	if err != nil {
		return nil, eris.Wrapf(err, "Failed to resolve output root %s", bctx.OutputRoot)
	}

	archivePath := filepath.Join(bctx.DownloadDir, spec.ArchiveName())
	sourceDir := filepath.Join(bctx.ScratchRoot, fmt.Sprintf("%s-%s-%s", bctx.Dependency, spec.Version, nanoid.New()))

	log(ctx).Info().
		Str("dependency", bctx.Dependency).
		Str("version", spec.Version).
		Str("target", bctx.TargetTriple).
		Msgf("Extracting %s", archivePath)

	err = ExtractArchive(archivePath, sourceDir, 1)
	if err != nil {
		return nil, eris.Wrapf(ErrExtraction, "%s: %s", archivePath, err)
	}

	flags, err := SelectPreset(bctx.HostPlatform, bctx.TargetTriple, bctx.Compiler)
	if err != nil {
		return nil, err
	}

	// The preset order is meaningful: generic flags first, compiler
	// overrides after them, the static/no-tests switches next and any
	// user-supplied extras last so they can override everything.
	configure := []string{"./configure", "--prefix=" + InstallPrefix}
	configure = append(configure, flags...)
	configure = append(configure, "--disable-shared", "--disable-tests")
	configure = append(configure, bctx.ExtraFlags...)

	env := bctx.StepEnv()
	steps := []struct {
		name     string
		argv     []string
		sentinel error
	}{
		{"configure", configure, ErrConfigure},
		{"build", []string{"make", "-j" + strconv.Itoa(bctx.Parallelism)}, ErrBuild},
		{"install", []string{"make", "install", "DESTDIR=" + outputRoot}, ErrInstall},
	}

	for _, step := range steps {
		output, err := b.runner.Run(ctx, Step{
			Name: step.name,
			Dir:  sourceDir,
			Argv: step.argv,
			Env:  env,
		})
		if err != nil {
			return nil, eris.Wrapf(step.sentinel, "%s\n%s", err, strings.TrimSpace(string(output)))
		}
	}

	return &InstalledPaths{
		SourceDir:  sourceDir,
		OutputRoot: outputRoot,
		IncludeDir: filepath.Join(outputRoot, InstallPrefix, "include"),
		LibDir:     filepath.Join(outputRoot, InstallPrefix, "lib"),
	}, nil
}
