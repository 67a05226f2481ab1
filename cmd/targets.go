package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/portablebuild/depbuilder/pkg/depbuild"
)

var targetsCmd = &cobra.Command{
	Use:   "list-targets",
	Short: "Lists the supported build targets",
	Long: `Prints every (host, target) combination that has a platform preset,
together with the compiler ids that carry preset overrides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Supported targets:")
		for _, preset := range depbuild.Presets() {
			target := preset.Target
			if target == "" {
				target = "(any)"
			}

			line := fmt.Sprintf(" * %s / %s", preset.Host, target)
			compilers := preset.PresetCompilers()
			if len(compilers) > 0 {
				line += fmt.Sprintf("   [overrides: %s]", strings.Join(compilers, ", "))
			}

			fmt.Println(line)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(targetsCmd)
}
