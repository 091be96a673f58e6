package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/rustyeddy/drinkx/journal"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent price changes from a SQLite journal",
	Long: `Print the most recent price changes recorded by a running or past exchange.

Example:
  drinkx journal --db drinkx.db --drink Mojito --limit 10`,
	RunE: runJournal,
}

var (
	journalDB    string
	journalDrink string
	journalLimit int
)

func init() {
	rootCmd.AddCommand(journalCmd)

	journalCmd.Flags().StringVar(&journalDB, "db", "", "path to the SQLite journal (required)")
	journalCmd.Flags().StringVar(&journalDrink, "drink", "", "only show this drink")
	journalCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "number of events to show")
	journalCmd.MarkFlagRequired("db")
}

func runJournal(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDB)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	events, err := j.Recent(journalDrink, journalLimit)
	if err != nil {
		return fmt.Errorf("query journal: %w", err)
	}
	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no price changes recorded")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tDRINK\tREASON\tBEFORE\tAFTER\tCHANGE")
	for _, e := range events {
		before := decimal.NewFromFloat(e.Before)
		after := decimal.NewFromFloat(e.After)
		pct := after.Sub(before).Div(before).Mul(decimal.NewFromInt(100))
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s%%\n",
			e.Time.Local().Format(time.DateTime),
			e.Item,
			e.Reason,
			before.StringFixed(2),
			after.StringFixed(2),
			pct.StringFixed(1),
		)
	}
	return w.Flush()
}
