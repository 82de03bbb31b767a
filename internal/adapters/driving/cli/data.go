package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

var (
	ingestSymbols    []string
	ingestTopics     []string
	ingestIndicators []string
	ingestSources    []string
	ingestJSON       bool
	retrieveK        int
	indexJSON        bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Fetch market data and news into the store",
	Long: `Fetches daily prices and quarterly income statements for each symbol,
macroeconomic indicator series, and recent news for each topic, validates the
records and upserts them into the relational store.

Flags override the configured ingest.* lists for this run only.`,
	RunE: runIngest,
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the per-domain vector indices",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build [domain...]",
	Short: "Build missing indices",
	Long: `Loads each domain index, building it from the store when it is absent.
Existing indices are kept as-is; run 'index invalidate' first to rebuild.

Domains: news, financial, economic, price. Default: all.`,
	RunE: runIndexBuild,
}

var indexInvalidateCmd = &cobra.Command{
	Use:   "invalidate [domain...]",
	Short: "Delete indices so the next build re-embeds them",
	RunE:  runIndexInvalidate,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of every index",
	RunE:  runIndexStatus,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [question]",
	Short: "Show the closest chunks from every index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRetrieve,
}

var extractCmd = &cobra.Command{
	Use:   "extract [question]",
	Short: "Show the symbol and date range extracted from a question",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestSymbols, "symbols", nil, "ticker symbols")
	ingestCmd.Flags().StringSliceVar(&ingestTopics, "topics", nil, "news topics")
	ingestCmd.Flags().StringSliceVar(&ingestIndicators, "indicators", nil, "indicator series (CPI, INFLATION, ...)")
	ingestCmd.Flags().StringSliceVar(&ingestSources, "sources", nil, "sources to fetch (prices, reports, indicators, news)")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output the summary as JSON")
	rootCmd.AddCommand(ingestCmd)

	indexStatusCmd.Flags().BoolVar(&indexJSON, "json", false, "output as JSON")
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexInvalidateCmd)
	indexCmd.AddCommand(indexStatusCmd)
	rootCmd.AddCommand(indexCmd)

	retrieveCmd.Flags().IntVar(&retrieveK, "k", domain.DefaultTopK, "matches per domain")
	rootCmd.AddCommand(retrieveCmd)
	rootCmd.AddCommand(extractCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	svc, err := services(cmd)
	if err != nil {
		return err
	}
	if svc.Ingest == nil {
		return errors.New("ingest service not configured")
	}

	req := domain.IngestRequest{
		Symbols:    upperAll(ingestSymbols),
		Topics:     ingestTopics,
		Indicators: upperAll(ingestIndicators),
	}
	for _, s := range ingestSources {
		src := domain.IngestSource(strings.ToLower(strings.TrimSpace(s)))
		if !src.IsValid() {
			return fmt.Errorf("unknown source %q", s)
		}
		req.Sources = append(req.Sources, src)
	}

	summary, runErr := svc.Ingest.Run(cmd.Context(), req)
	if summary != nil {
		if ingestJSON {
			if err := printJSON(cmd, summary); err != nil {
				return err
			}
		} else {
			printIngestSummary(cmd, summary)
		}
	}
	if runErr != nil {
		return fmt.Errorf("ingest finished with errors: %w", runErr)
	}
	return nil
}

func printIngestSummary(cmd *cobra.Command, summary *domain.IngestSummary) {
	st := newStyles(cmd.OutOrStdout())
	cmd.Println(st.Heading.Render("Ingest summary"))
	cmd.Printf("  %-12s %8s %8s %8s\n", "SOURCE", "FETCHED", "STORED", "DROPPED")
	for _, src := range domain.AllIngestSources() {
		c, ok := summary.Counts[src]
		if !ok {
			continue
		}
		cmd.Printf("  %-12s %8d %8d %8d\n", src, c.Fetched, c.Stored, c.Dropped)
	}
	for _, f := range summary.Failures {
		cmd.Println(st.Warning.Render("  ! " + f))
	}
}

func parseDomains(args []string) ([]domain.Domain, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "all") {
		return domain.AllDomains(), nil
	}
	out := make([]domain.Domain, 0, len(args))
	for _, a := range args {
		d := domain.Domain(strings.ToLower(a))
		if !d.IsValid() {
			return nil, fmt.Errorf("unknown domain %q (want news, financial, economic, price)", a)
		}
		out = append(out, d)
	}
	return out, nil
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	svc, err := services(cmd)
	if err != nil {
		return err
	}
	if svc.Index == nil {
		return errors.New("index service not configured")
	}
	domains, err := parseDomains(args)
	if err != nil {
		return err
	}

	st := newStyles(cmd.OutOrStdout())
	if len(args) == 0 {
		if err := svc.Index.EnsureAll(cmd.Context()); err != nil {
			return fmt.Errorf("index build failed: %w", err)
		}
		cmd.Println(st.Success.Render("All indices ready."))
		return nil
	}
	for _, d := range domains {
		idx, err := svc.Index.Ensure(cmd.Context(), d)
		if err != nil {
			return fmt.Errorf("index %s: %w", d, err)
		}
		cmd.Printf("%s: %d chunks\n", d, idx.Len())
	}
	return nil
}

func runIndexInvalidate(cmd *cobra.Command, args []string) error {
	svc, err := services(cmd)
	if err != nil {
		return err
	}
	if svc.Index == nil {
		return errors.New("index service not configured")
	}
	domains, err := parseDomains(args)
	if err != nil {
		return err
	}

	for _, d := range domains {
		if err := svc.Index.Invalidate(cmd.Context(), d); err != nil {
			return fmt.Errorf("invalidate %s: %w", d, err)
		}
		cmd.Printf("%s: invalidated\n", d)
	}
	return nil
}

func runIndexStatus(cmd *cobra.Command, _ []string) error {
	svc, err := services(cmd)
	if err != nil {
		return err
	}
	if svc.Index == nil {
		return errors.New("index service not configured")
	}

	statuses, err := svc.Index.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("index status: %w", err)
	}
	if indexJSON {
		return printJSON(cmd, statuses)
	}

	st := newStyles(cmd.OutOrStdout())
	cmd.Printf("  %-10s %-8s %8s %6s  %s\n", "DOMAIN", "PRESENT", "CHUNKS", "DIM", "BUILT")
	for _, s := range statuses {
		present, built := st.Muted.Render("no"), ""
		if s.Present {
			present = st.Success.Render("yes")
			built = s.CreatedAt.Format("2006-01-02 15:04")
		}
		cmd.Printf("  %-10s %-8s %8d %6d  %s\n", s.Domain, present, s.Chunks, s.Dimension, built)
	}
	return nil
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	svc, err := services(cmd)
	if err != nil {
		return err
	}
	if svc.Fusion == nil {
		return errors.New("fusion service not configured")
	}

	res, err := svc.Fusion.Retrieve(cmd.Context(), strings.Join(args, " "), retrieveK)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}
	if len(res.Chunks) == 0 {
		cmd.Println("No matches found.")
		return nil
	}

	st := newStyles(cmd.OutOrStdout())
	for _, d := range domain.AllDomains() {
		matches := res.ByDomain(d)
		if len(matches) == 0 {
			continue
		}
		cmd.Println(st.Heading.Render(d.Description()))
		for i, m := range matches {
			cmd.Printf("  [%d] %s (%.3f)\n", i+1, m.Chunk.SourceTag, m.Similarity)
			cmd.Printf("      %s\n", snippet(m.Chunk.Text, 160))
		}
		cmd.Println()
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	svc, err := services(cmd)
	if err != nil {
		return err
	}
	if svc.Extraction == nil {
		return errors.New("extraction service not configured")
	}

	res := svc.Extraction.ExtractDetailed(cmd.Context(), strings.Join(args, " "))
	show := func(s string) string {
		if s == "" {
			return "null"
		}
		return s
	}
	cmd.Printf("Outcome:    %s\n", res.Outcome)
	cmd.Printf("Symbol:     %s\n", show(res.Params.SymbolOrEmpty()))
	cmd.Printf("Start date: %s\n", show(domain.DateString(res.Params.StartDate)))
	cmd.Printf("End date:   %s\n", show(domain.DateString(res.Params.EndDate)))
	if res.Err != nil {
		cmd.Printf("Error:      %v\n", res.Err)
	}
	return nil
}

func upperAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
