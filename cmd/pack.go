package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/portablebuild/depbuilder/pkg"
	"github.com/portablebuild/depbuilder/pkg/depbuild"
)

var packCmd = &cobra.Command{
	Use:   "pack <dependency>",
	Short: "Compresses a staged install tree into a distributable archive",
	Long: `Packs the staged install tree of the named dependency into a
brotli-compressed tar archive named <dependency>-<version>-<triple>.tar.br.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := zerolog.New(NewConsoleWriter())
		ctx := depbuild.WithLogger(context.Background(), &logger)

		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		manifest, err := depbuild.LoadManifest(flagOr(cmd, "manifest", filepath.Join(root, "deps.yml")))
		if err != nil {
			return err
		}

		spec, err := manifest.Lookup(args[0])
		if err != nil {
			return err
		}

		triple := mustString(cmd, "target-triple")
		if triple == "" {
			_, triple = defaultPlatform()
		}

		distDir := flagOr(cmd, "dist", filepath.Join(root, "build", "dist"))
		destPath := filepath.Join(distDir, fmt.Sprintf("%s-%s-%s.tar.br", args[0], spec.Version, triple))

		err = depbuild.CompressOutput(ctx, flagOr(cmd, "output", filepath.Join(root, "build", "out")), destPath)
		if err != nil {
			return err
		}

		pkg.PrintTask("Packed " + destPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().String("manifest", "", "path to deps.yml (default: <root>/deps.yml)")
	packCmd.Flags().StringP("target-triple", "t", "", "target triple used in the archive name")
	packCmd.Flags().StringP("output", "o", "", "staged install tree to pack (default: <root>/build/out)")
	packCmd.Flags().String("dist", "", "destination directory (default: <root>/build/dist)")
}
