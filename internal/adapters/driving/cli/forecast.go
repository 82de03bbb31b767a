package cli

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

var (
	rangeStart     string
	rangeEnd       string
	forecastDegree int
	forecastJSON   bool
)

var forecastCmd = &cobra.Command{
	Use:   "forecast SYMBOL",
	Short: "Fit a price trend and predict the next month",
	Long: `Fits a polynomial (degree 8 by default) to the daily closes of SYMBOL in the
date range and predicts the close one month after the last observation.

Without --start and --end the 365 days ending today are used.`,
	Args: cobra.ExactArgs(1),
	RunE: runForecast,
}

var indicatorsCmd = &cobra.Command{
	Use:   "indicators SYMBOL",
	Short: "Compute technical indicators",
	Long: `Computes volatility, average daily return, 20 and 50 day moving averages and
maximum drawdown over the daily closes of SYMBOL in the date range.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndicators,
}

func init() {
	for _, c := range []*cobra.Command{forecastCmd, indicatorsCmd} {
		c.Flags().StringVar(&rangeStart, "start", "", "start date (YYYY-MM-DD)")
		c.Flags().StringVar(&rangeEnd, "end", "", "end date (YYYY-MM-DD)")
		c.Flags().BoolVar(&forecastJSON, "json", false, "output as JSON")
	}
	forecastCmd.Flags().IntVar(&forecastDegree, "degree", domain.DefaultDegree, "polynomial degree")
	rootCmd.AddCommand(forecastCmd)
	rootCmd.AddCommand(indicatorsCmd)
}

func parseRange() (start, end *time.Time, err error) {
	parse := func(s string) (*time.Time, error) {
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse(domain.DateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
		}
		return &t, nil
	}
	if start, err = parse(rangeStart); err != nil {
		return nil, nil, err
	}
	if end, err = parse(rangeEnd); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func runForecast(cmd *cobra.Command, args []string) error {
	svc, err := services(cmd)
	if err != nil {
		return err
	}
	if svc.Forecast == nil {
		return errors.New("forecast service not configured")
	}
	start, end, err := parseRange()
	if err != nil {
		return err
	}

	symbol := strings.ToUpper(args[0])
	res, err := svc.Forecast.Forecast(cmd.Context(), symbol, start, end, forecastDegree)
	if err != nil {
		return fmt.Errorf("forecast failed: %w", err)
	}
	if res == nil {
		cmd.Printf("No price data for %s in range.\n", symbol)
		return nil
	}

	if forecastJSON {
		return printJSON(cmd, forecastView(res))
	}
	printForecast(cmd, newStyles(cmd.OutOrStdout()), res)
	return nil
}

func runIndicators(cmd *cobra.Command, args []string) error {
	svc, err := services(cmd)
	if err != nil {
		return err
	}
	if svc.Forecast == nil {
		return errors.New("forecast service not configured")
	}
	start, end, err := parseRange()
	if err != nil {
		return err
	}

	ind, err := svc.Forecast.TechnicalIndicators(cmd.Context(), strings.ToUpper(args[0]), start, end)
	if err != nil {
		return fmt.Errorf("indicators failed: %w", err)
	}

	if forecastJSON {
		return printJSON(cmd, ind)
	}
	printIndicators(cmd, newStyles(cmd.OutOrStdout()), ind)
	return nil
}

func printForecast(cmd *cobra.Command, st *styles, r *domain.RegressionResult) {
	cmd.Println(st.Heading.Render("Forecast"))
	cmd.Printf("  Symbol:     %s\n", r.Symbol)
	cmd.Printf("  Degree:     %d\n", r.Degree)
	cmd.Printf("  Points:     %d\n", len(r.Series))
	if math.IsNaN(r.RSquared) {
		cmd.Printf("  R²:         %s\n", st.Muted.Render("n/a (flat series)"))
	} else {
		cmd.Printf("  R²:         %.4f\n", r.RSquared)
	}
	cmd.Printf("  Predicted:  $%.2f on %s\n", r.Predicted.Value, r.Predicted.Date.Format(domain.DateLayout))
}

func printIndicators(cmd *cobra.Command, st *styles, ind domain.TechnicalIndicators) {
	cmd.Println(st.Heading.Render("Technical Indicators"))
	if ind.IsEmpty() {
		cmd.Println(st.Muted.Render("  No price data in range."))
		return
	}
	cmd.Printf("  Points:          %d\n", ind.Points)
	row := func(label string, v *float64, format string) {
		if v == nil {
			cmd.Printf("  %-16s %s\n", label, st.Muted.Render("n/a"))
			return
		}
		cmd.Printf("  %-16s "+format+"\n", label, *v)
	}
	row("Volatility:", ind.Volatility, "%.4f")
	row("Average return:", ind.AverageReturn, "%.4f")
	row("20-day MA:", ind.MA20, "$%.2f")
	row("50-day MA:", ind.MA50, "$%.2f")
	if ind.MaxDrawdown != nil {
		cmd.Printf("  %-16s %.2f%%\n", "Max drawdown:", *ind.MaxDrawdown*100)
	} else {
		row("Max drawdown:", nil, "")
	}
}
