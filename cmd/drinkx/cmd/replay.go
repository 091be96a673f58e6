package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/drinkx/app"
	"github.com/rustyeddy/drinkx/replay"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a purchase log offline and print the resulting prices",
	Long: `Feed a CSV purchase log (time,drink) through the pricing rules on a
virtual clock, running decay ticks between purchases exactly as the live
exchange would. Changes go to the configured journal.

Example:
  drinkx replay --log purchases.csv --drinks drinks.json --tail 1m`,
	RunE: runReplay,
}

var (
	replayConfigPath string
	replayDrinks     string
	replayLog        string
	replayTail       time.Duration
)

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().StringVarP(&replayConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	replayCmd.Flags().StringVar(&replayDrinks, "drinks", "", "path to the drinks JSON file")
	replayCmd.Flags().StringVar(&replayLog, "log", "", "purchase log CSV (required)")
	replayCmd.Flags().DurationVar(&replayTail, "tail", 0, "keep ticking this long after the last purchase")
	replayCmd.MarkFlagRequired("log")
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(replayConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if replayDrinks != "" {
		cfg.Drinks.File = replayDrinks
		cfg.Drinks.Items = nil
	}

	f, err := os.Open(replayLog)
	if err != nil {
		return err
	}
	defer f.Close()

	r := replay.NewReader(f)
	first, err := r.Peek()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: no purchases", replayLog)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", replayLog, err)
	}

	// Opening prices are set at the first purchase.
	svc, err := app.Build(cfg, first.Time)
	if err != nil {
		return err
	}
	defer svc.Journal.Close()

	st, err := replay.Run(cmd.Context(), r, svc.Engine, nil, replay.Options{
		Start:    first.Time,
		Interval: svc.Scheduler.Interval(),
		Tail:     replayTail,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d purchases, %d unknown, %d rejected, %d decays over %d ticks\n", st.Purchases, st.Unknown, st.Rejected, st.Decays, st.Ticks)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DRINK\tPRICE")
	snap := svc.Engine.Snapshot()
	for _, name := range snap.Names() {
		fmt.Fprintf(w, "%s\t%s\n", name, decimal.NewFromFloat(snap[name].Price).StringFixed(2))
	}
	return w.Flush()
}
