package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/lendmatch/internal/filtering"
	"github.com/spigell/lendmatch/internal/matching"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the partner catalog for an applicant profile given as flags",
	Run: func(cmd *cobra.Command, _ []string) {
		profile, err := profileFromFlags(cmd)
		if err != nil {
			newLogger().Fatal("reading flags", zap.Error(err))
		}
		top, _ := cmd.Flags().GetInt("top")
		explain, _ := cmd.Flags().GetBool("explain")
		rank(cmd.OutOrStdout(), profile, top, explain)
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().Int("credit-score", 0, "applicant credit score")
	rankCmd.Flags().Float64("revenue", 0, "annual revenue in dollars")
	rankCmd.Flags().Float64("years", 0, "years in business")
	rankCmd.Flags().Float64("amount", 0, "requested loan amount in dollars")
	rankCmd.Flags().IntP("top", "n", 0, "show only the n best matches (0 shows all)")
	rankCmd.Flags().BoolP("explain", "x", false, "print the per-criterion breakdown")
}

// profileFromFlags sets only the fields whose flags were given.
func profileFromFlags(cmd *cobra.Command) (matching.Profile, error) {
	var p matching.Profile
	flags := cmd.Flags()

	if flags.Changed("credit-score") {
		v, err := flags.GetInt("credit-score")
		if err != nil {
			return p, err
		}
		p.CreditScore = matching.Int(v)
	}

	floats := []struct {
		name string
		dst  **float64
	}{
		{"revenue", &p.AnnualRevenue},
		{"years", &p.YearsInBusiness},
		{"amount", &p.RequestedAmount},
	}
	for _, f := range floats {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetFloat64(f.name)
		if err != nil {
			return p, err
		}
		*f.dst = matching.Float(v)
	}

	return p, nil
}

func rank(out io.Writer, profile matching.Profile, top int, explain bool) {
	logger := newLogger()

	app, err := newApplication(context.Background(), logger)
	if err != nil {
		logger.Fatal("initializing", zap.Error(err))
	}
	defer app.Close()

	results, err := app.service.Rank(context.Background(), profile, app.store.Partners())
	if err != nil {
		logger.Fatal("ranking", zap.Error(err))
	}
	if top > 0 {
		results = matching.Top(results, top)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No eligible partners.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tID\tPARTNER\tLOAN TYPE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", r.Score, r.PartnerID, r.Partner.Name, r.Partner.LoanType)
	}
	_ = w.Flush()

	if !explain {
		return
	}

	printFilters(out, app.service.Filters())

	for _, r := range results {
		e := matching.Explain(profile, *r.Partner, app.service.Scorer())
		fmt.Fprintf(out, "\n%s (variant %s, score %d)\n", r.Partner.Name, e.Variant, e.Score)
		for _, c := range e.Criteria {
			fmt.Fprintf(out, "  %-16s %-8s %s\n", c.Name, c.Status, c.Detail)
		}
	}
}

func printFilters(out io.Writer, statuses []filtering.Status) {
	fmt.Fprintln(out, "\nFilters:")
	for _, st := range statuses {
		state := "on"
		if !st.Enabled {
			state = "off"
		}
		line := fmt.Sprintf("  %-18s %-3s", st.Name, state)
		if st.Reason != "" {
			line += " " + st.Reason
		}
		keys := make([]string, 0, len(st.Details))
		for k := range st.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			line += fmt.Sprintf(" %s=%s", k, st.Details[k])
		}
		fmt.Fprintln(out, strings.TrimRight(line, " "))
	}
}
