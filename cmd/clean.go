package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/portablebuild/depbuilder/pkg"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Removes the scratch workspace",
	Long: `Deletes the extraction scratch directory. With --output the staged
install tree is removed as well; an interrupted build leaves the output root in
an undefined state, so discarding it is the only safe recovery.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := pkg.GetProjectRoot()
		if err != nil {
			return err
		}

		paths := []string{flagOr(cmd, "scratch", filepath.Join(root, "build", "scratch"))}

		withOutput, err := cmd.Flags().GetBool("output")
		if err != nil {
			return err
		}

		if withOutput {
			paths = append(paths, flagOr(cmd, "output-dir", filepath.Join(root, "build", "out")))
		}

		for _, item := range paths {
			item, err := filepath.Abs(item)
			if err != nil {
				return eris.Wrapf(err, "Failed to resolve %s", item)
			}

			if !strings.HasPrefix(item, root+string(filepath.Separator)) {
				return eris.Errorf("Refusing to delete %s because it is outside the project tree", item)
			}

			pkg.PrintSubtask("Remove " + item)
			err = os.RemoveAll(item)
			if err != nil && !eris.Is(err, os.ErrNotExist) {
				return eris.Wrapf(err, "Could not delete %s", item)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("output", false, "also remove the staged install tree")
	cleanCmd.Flags().String("scratch", "", "extraction workspace (default: <root>/build/scratch)")
	cleanCmd.Flags().String("output-dir", "", "staged install tree (default: <root>/build/out)")
}
