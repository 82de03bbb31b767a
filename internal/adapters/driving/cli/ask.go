package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a financial question",
	Long: `Answers a question by fusing retrieval from the news, financial report,
economic indicator and price indices.

When the question names a company, the price trend is forecast, technical
indicators are computed and a PDF report is written to the report directory.
Missing indices are built first; the run after that is bounded by
pipeline.timeout_seconds (default 60).

Examples:
  finrag ask "How did Apple perform between January and March 2024?"
  finrag ask "What is the outlook for inflation?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := services(cmd)
	if err != nil {
		return err
	}
	if svc.Pipeline == nil {
		return errors.New("pipeline service not configured")
	}

	question := strings.Join(args, " ")
	res, err := svc.Pipeline.Run(cmd.Context(), question)
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) {
			return fmt.Errorf("no answer within the time limit: %w", err)
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return printJSON(cmd, askView(res))
	}

	st := newStyles(cmd.OutOrStdout())
	if res.NarrativeOnly {
		cmd.Println(st.Muted.Render("No company detected; answering from retrieved context only."))
		cmd.Println()
	} else {
		cmd.Printf("%s %s  %s %s to %s\n",
			st.Label.Render("Symbol:"), res.Params.SymbolOrEmpty(),
			st.Label.Render("Period:"), domain.DateString(res.Params.StartDate), domain.DateString(res.Params.EndDate))
		cmd.Println()
	}

	cmd.Println(st.Heading.Render("Answer"))
	cmd.Println(res.Narrative)

	if res.Forecast != nil {
		cmd.Println()
		printForecast(cmd, st, res.Forecast)
	}
	if res.Indicators != nil {
		cmd.Println()
		printIndicators(cmd, st, *res.Indicators)
	}
	if res.ReportPath != "" {
		cmd.Println()
		cmd.Println(st.Success.Render("Report written to " + res.ReportPath))
	}
	return nil
}

type askOutput struct {
	Question      string                      `json:"question"`
	Symbol        string                      `json:"symbol,omitempty"`
	StartDate     string                      `json:"start_date,omitempty"`
	EndDate       string                      `json:"end_date,omitempty"`
	Narrative     string                      `json:"narrative"`
	NarrativeOnly bool                        `json:"narrative_only"`
	Forecast      *forecastOutput             `json:"forecast,omitempty"`
	Indicators    *domain.TechnicalIndicators `json:"indicators,omitempty"`
	Sections      domain.NarrativeSections    `json:"sections"`
	ReportPath    string                      `json:"report_path,omitempty"`
}

type forecastOutput struct {
	Symbol         string    `json:"symbol"`
	Degree         int       `json:"degree"`
	Points         int       `json:"points"`
	RSquared       *float64  `json:"r_squared"`
	PredictedDate  string    `json:"predicted_date"`
	PredictedValue float64   `json:"predicted_value"`
	Coefficients   []float64 `json:"coefficients"`
}

func askView(res *domain.PipelineResult) askOutput {
	out := askOutput{
		Question:      res.Question,
		Symbol:        res.Params.SymbolOrEmpty(),
		StartDate:     domain.DateString(res.Params.StartDate),
		EndDate:       domain.DateString(res.Params.EndDate),
		Narrative:     res.Narrative,
		NarrativeOnly: res.NarrativeOnly,
		Indicators:    res.Indicators,
		Sections:      res.Sections,
		ReportPath:    res.ReportPath,
	}
	if res.Forecast != nil {
		f := forecastView(res.Forecast)
		out.Forecast = &f
	}
	return out
}

func forecastView(r *domain.RegressionResult) forecastOutput {
	out := forecastOutput{
		Symbol:         r.Symbol,
		Degree:         r.Degree,
		Points:         len(r.Series),
		PredictedDate:  r.Predicted.Date.Format(domain.DateLayout),
		PredictedValue: r.Predicted.Value,
		Coefficients:   r.Coefficients,
	}
	if !math.IsNaN(r.RSquared) && !math.IsInf(r.RSquared, 0) {
		v := r.RSquared
		out.RSquared = &v
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
