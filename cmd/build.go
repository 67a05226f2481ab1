package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/portablebuild/depbuilder/pkg"
	"github.com/portablebuild/depbuilder/pkg/depbuild"
)

var buildCmd = &cobra.Command{
	Use:   "build <dependency>",
	Short: "Configures, compiles and installs a dependency",
	Long: `Extracts the named dependency's source archive, configures it with the
preset for the selected target platform, builds a static library and stages the
install tree into the output directory. Every flag can also be supplied through
a DEPBUILD_* environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := zerolog.New(NewConsoleWriter())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		ctx = depbuild.WithLogger(ctx, &logger)

		// A terminated build has to take its native steps down with it.
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sig)
		go func() {
			<-sig
			cancel()
		}()

		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		manifest, err := depbuild.LoadManifest(flagOr(cmd, "manifest", filepath.Join(root, "deps.yml")))
		if err != nil {
			return err
		}

		extraFlags, err := depbuild.ParseExtraFlags(envOr("DEPBUILD_EXTRA_FLAGS", mustString(cmd, "extra-flags")))
		if err != nil {
			return err
		}

		jobs := mustInt(cmd, "jobs")
		if jobs == 0 {
			jobs, _ = strconv.Atoi(os.Getenv("DEPBUILD_JOBS"))
		}

		host := envOr("DEPBUILD_HOST_PLATFORM", mustString(cmd, "host-platform"))
		triple := envOr("DEPBUILD_TARGET_TRIPLE", mustString(cmd, "target-triple"))
		if host == "" || triple == "" {
			defaultHost, defaultTriple := defaultPlatform()
			if host == "" {
				host = defaultHost
			}
			if triple == "" {
				triple = defaultTriple
			}
		}

		bctx := depbuild.BuildContext{
			Dependency:    args[0],
			ToolchainRoot: envOr("DEPBUILD_TOOLCHAIN", mustString(cmd, "toolchain")),
			TargetTriple:  triple,
			HostPlatform:  host,
			Compiler:      envOr("DEPBUILD_COMPILER", mustString(cmd, "compiler")),
			OutputRoot:    envOr("DEPBUILD_OUTPUT", flagOr(cmd, "output", filepath.Join(root, "build", "out"))),
			ScratchRoot:   flagOr(cmd, "scratch", filepath.Join(root, "build", "scratch")),
			DownloadDir:   flagOr(cmd, "downloads", filepath.Join(root, "build", "downloads")),
			ExtraFlags:    extraFlags,
			Parallelism:   jobs,
		}

		pkg.PrintTask("Building " + bctx.Dependency + " for " + bctx.TargetTriple)
		builder := depbuild.NewBuilder(depbuild.NewExecRunner(), manifest)
		paths, err := builder.Build(ctx, bctx)
		if err != nil {
			return err
		}

		pkg.PrintTask("Installed into " + paths.OutputRoot)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().String("toolchain", "", "directory containing the compiler/tools to use")
	buildCmd.Flags().StringP("target-triple", "t", "", "target platform triple (defaults to the host)")
	buildCmd.Flags().String("host-platform", "", "host platform identifier (defaults to the detected host)")
	buildCmd.Flags().StringP("compiler", "c", "clang", "compiler id, selects preset overrides")
	buildCmd.Flags().StringP("output", "o", "", "destination directory for the staged install")
	buildCmd.Flags().String("scratch", "", "extraction workspace (default: <root>/build/scratch)")
	buildCmd.Flags().String("downloads", "", "directory containing the source archives")
	buildCmd.Flags().String("manifest", "", "path to deps.yml (default: <root>/deps.yml)")
	buildCmd.Flags().IntP("jobs", "j", 0, "job count for the build step (default: CPU count)")
	buildCmd.Flags().String("extra-flags", "", "additional configure flags, appended last")
}

// defaultPlatform mirrors the host detection of the surrounding toolchain
// build: darwin hosts are "macos" with the triple picked by machine type,
// everything else is treated as 64-bit linux.
func defaultPlatform() (string, string) {
	if runtime.GOOS == "darwin" {
		if runtime.GOARCH == "arm64" {
			return "macos", "aarch64-apple-darwin"
		}

		return "macos", "x86_64-apple-darwin"
	}

	return "linux64", "x86_64-unknown-linux-gnu"
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}

	return fallback
}

func mustString(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	cobra.CheckErr(err)
	return value
}

func mustInt(cmd *cobra.Command, name string) int {
	value, err := cmd.Flags().GetInt(name)
	cobra.CheckErr(err)
	return value
}

func flagOr(cmd *cobra.Command, name, fallback string) string {
	value := mustString(cmd, name)
	if value == "" {
		return fallback
	}

	return value
}
