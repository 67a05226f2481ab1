package cmd

import (
	"context"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/portablebuild/depbuilder/pkg"
	"github.com/portablebuild/depbuilder/pkg/depbuild"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Downloads and verifies the dependency source archives",
	Long: `Downloads the source archives listed in deps.yml into the download
directory, verifying each sha256 checksum. Archives that are already present
and up to date are skipped.`,
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

		pkg.PrintTask("Downloading dependencies")
		err = depbuild.Fetch(ctx, manifest, flagOr(cmd, "downloads", filepath.Join(root, "build", "downloads")))
		if err != nil {
			return err
		}

		pkg.PrintTask("Done")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().String("manifest", "", "path to deps.yml (default: <root>/deps.yml)")
	fetchCmd.Flags().String("downloads", "", "directory for the source archives")
}
