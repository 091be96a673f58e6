package cmd

import (
	"flag"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "drinkx",
	Short: "A live drink price exchange",
	Long: `drinkx runs a bar where drink prices behave like a market.

Every purchase pushes a drink's price up by 10%. A drink nobody has bought
for 20 seconds loses 10% on the next check, which runs every 5 seconds.
Each change is pushed to every connected screen over a websocket.

Commands:
  - serve the HTTP API, the websocket feed and the decay scheduler
  - generate and validate configuration files
  - inspect the price change journal
  - replay a recorded purchase log offline`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// glog reads its flags from the standard flag set.
		_ = flag.CommandLine.Parse(nil)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	_ = flag.Set("logtostderr", "true")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
}
