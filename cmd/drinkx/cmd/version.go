package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the drinkx CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "drinkx version %s\n", version)
		fmt.Fprintln(cmd.OutOrStdout(), "A live drink price exchange")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
