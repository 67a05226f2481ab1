package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "depbuilder",
	Short: "Builds third-party library dependencies",
	Long: `This command prepares the third-party libraries the toolchain build depends on.
It downloads and verifies their source archives and runs each library's native
configure/build/install steps for a selected target platform, staging the result
into an isolated output directory.`,
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
