package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/prospect-crm/internal/score"
)

var (
	scoreStrategy string
	scoreTop      int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Recompute lead scores and print the top prospects",
	Long: `Recomputes every company's overall score with the chosen strategy and
prints the highest-ranked prospects.

Strategies:
  weighted       email volume, conversation depth, business signals,
                 recency, category fit, follow-up completion
  recency_boost  current score plus aggressive recent-contact boosts

Examples:
  score --top 20
  score --strategy recency_boost --top 50`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := initApp()
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Store.Err(); err != nil {
			return eris.Wrap(err, "score")
		}

		name := scoreStrategy
		if name == "" {
			name = cfg.Scoring.Strategy
		}
		strategy := score.ByName(name)
		now := time.Now()

		companies := env.Store.Companies()
		for i := range companies {
			companies[i].OverallScore = strategy(companies[i], now)
		}
		sort.SliceStable(companies, func(i, j int) bool {
			return companies[i].OverallScore > companies[j].OverallScore
		})

		n := scoreTop
		if n <= 0 || n > len(companies) {
			n = len(companies)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCORE\tNAME\tSTATUS\tPRIORITY\tLAST CONTACT")
		for _, c := range companies[:n] {
			last := ""
			if !c.LatestContact.IsZero() {
				last = c.LatestContact.Format("2006-01-02")
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				c.OverallScore, c.Name, c.Status, c.Priority, last)
		}
		return w.Flush()
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreStrategy, "strategy", "", "scoring strategy (default from config)")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 25, "number of prospects to print")
	rootCmd.AddCommand(scoreCmd)
}
