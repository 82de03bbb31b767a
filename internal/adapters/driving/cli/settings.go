package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/finrag/internal/core/domain"
)

var settingsPing bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in ~/.finrag/config.toml.

Environment variables override stored secrets:
  GOOGLE_API_KEY, OPENAI_API_KEY   AI provider keys
  ALPHAVANTAGE_API_KEY             market data
  NEWSAPI_API_KEY                  news
  FINRAG_API_KEY                   run gate key
  FINRAG_DATABASE_URL              postgres DSN`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY [VALUE]",
	Short: "Set a setting",
	Long: `Stores one setting. Lists take comma-separated values.

When VALUE is omitted for a secret (keys ending in api_key or dsn) it is read
from the terminal without echo.

Examples:
  finrag settings set llm.provider openai
  finrag settings set ingest.symbols AAPL,MSFT,NVDA
  finrag settings set embedding.api_key`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	RunE:  runSettingsKeys,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration",
	Long:  `Checks setting constraints. With --ping, also calls the embedding and LLM providers.`,
	RunE:  runSettingsValidate,
}

func init() {
	settingsValidateCmd.Flags().BoolVar(&settingsPing, "ping", false, "also ping the AI providers")
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cfg, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	st := newStyles(cmd.OutOrStdout())
	section := func(name string) {
		cmd.Println(st.Heading.Render("[" + name + "]"))
	}
	line := func(label string, v any) {
		cmd.Printf("  %-18s %v\n", label+":", v)
	}

	cmd.Println(st.Title.Render("Current Settings"))
	cmd.Println()

	section("Embedding")
	line("Provider", cfg.Embedding.Provider.Description())
	line("Model", orDefault(cfg.Embedding.Model))
	line("Dimensions", orDefault(cfg.Embedding.Dimensions))
	line("API Key", maskAPIKey(cfg.Embedding.APIKey))
	cmd.Println()

	section("LLM")
	line("Provider", cfg.LLM.Provider.Description())
	line("Model", orDefault(cfg.LLM.Model))
	line("Temperature", cfg.LLM.Temperature)
	line("API Key", maskAPIKey(cfg.LLM.APIKey))
	cmd.Println()

	section("Store")
	line("Driver", cfg.Store.Driver)
	if cfg.Store.Driver == domain.StoreDriverPostgres {
		line("DSN", maskAPIKey(cfg.Store.DSN))
	}
	line("Data dir", cfg.Store.DataDir)
	line("Index dir", cfg.Store.IndexDir)
	line("Report dir", cfg.Store.ReportDir)
	cmd.Println()

	section("Pipeline")
	line("Timeout", cfg.Pipeline.Timeout)
	line("Top K", cfg.Pipeline.TopK)
	line("Chunk size", cfg.Pipeline.ChunkSize)
	line("Chunk overlap", cfg.Pipeline.ChunkOverlap)
	line("Degree", cfg.Pipeline.Degree)
	cmd.Println()

	section("Retry")
	line("Max attempts", cfg.Retry.MaxAttempts)
	line("Wait", fmt.Sprintf("%s to %s", cfg.Retry.MinWait, cfg.Retry.MaxWait))
	cmd.Println()

	section("Ingest")
	line("Symbols", strings.Join(cfg.Ingest.Symbols, ", "))
	line("Topics", strings.Join(cfg.Ingest.Topics, ", "))
	line("Indicators", strings.Join(cfg.Ingest.Indicators, ", "))
	line("News window", fmt.Sprintf("%d days", cfg.Ingest.NewsWindowDays))
	line("Full text", cfg.Ingest.FetchFullText)
	line("Market API Key", maskAPIKey(cfg.Ingest.MarketAPIKey))
	line("News API Key", maskAPIKey(cfg.Ingest.NewsAPIKey))
	cmd.Println()

	section("Gate")
	line("Enabled", cfg.Gate.Enabled)
	if cfg.Gate.Enabled {
		line("Min interval", cfg.Gate.MinInterval)
		line("Allowed keys", len(cfg.Gate.AllowedKeys))
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Println(st.Warning.Render(fmt.Sprintf("Warning: %v", err)))
	} else {
		cmd.Println(st.Success.Render("Configuration is valid."))
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	switch {
	case len(args) == 2:
		value = args[1]
	case isSecretKey(key):
		cmd.Printf("%s: ", key)
		value = readPassword()
		cmd.Println()
	default:
		return fmt.Errorf("a value is required for %s", key)
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	shown := value
	if isSecretKey(key) {
		shown = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, shown)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, k := range settingsService.Keys() {
		cmd.Println(k)
	}
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	st := newStyles(cmd.OutOrStdout())
	if err := settingsService.Validate(); err != nil {
		return err
	}
	cmd.Println(st.Success.Render("Settings: ok"))

	if !settingsPing {
		return nil
	}

	cmd.Print("Embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Println(st.Error.Render("FAILED"))
		return err
	}
	cmd.Println(st.Success.Render("ok"))

	cmd.Print("LLM provider... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Println(st.Error.Render("FAILED"))
		return err
	}
	cmd.Println(st.Success.Render("ok"))
	return nil
}

func isSecretKey(key string) bool {
	return strings.HasSuffix(key, "api_key") || strings.HasSuffix(key, ".dsn")
}

func orDefault(v any) any {
	switch x := v.(type) {
	case string:
		if x == "" {
			return "(provider default)"
		}
	case int:
		if x == 0 {
			return "(provider default)"
		}
	}
	return v
}

func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
