// Package cli provides the cobra command tree for finrag.
package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/finrag/internal/core/ports/driving"
	"github.com/custodia-labs/finrag/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

var (
	verbose  bool
	logLevel string
	logFile  string
)

// Services holds the driving ports used by the data and query commands.
type Services struct {
	Pipeline   driving.PipelineService
	Extraction driving.ExtractionService
	Fusion     driving.FusionService
	Forecast   driving.ForecastService
	Index      driving.IndexService
	Ingest     driving.IngestService
}

// ServiceFactory builds Services on first use. Settings and version commands
// never call it, so they work before any provider is configured.
type ServiceFactory func(ctx context.Context) (*Services, error)

var (
	settingsService driving.SettingsService
	serviceFactory  ServiceFactory

	servicesOnce sync.Once
	servicesVal  *Services
	servicesErr  error
)

var rootCmd = &cobra.Command{
	Use:   "finrag",
	Short: "Financial question answering over news, filings, macro data and prices",
	Long: `finrag ingests market data and news, indexes it per domain, and answers
financial questions by fusing retrieval from every index. When a question names
a company it also fits a price trend, computes technical indicators and writes
a PDF report.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if logLevel != "" {
			if err := logger.SetLevel(logLevel); err != nil {
				return err
			}
		}
		if logFile != "" {
			return logger.SetLogFile(logFile)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetSettingsService sets the settings service.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetServiceFactory sets the lazy constructor for the remaining services.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
	servicesOnce = sync.Once{}
	servicesVal, servicesErr = nil, nil
}

// SetServices installs ready-made services. Used by tests.
func SetServices(s *Services) {
	SetServiceFactory(func(context.Context) (*Services, error) { return s, nil })
}

func services(cmd *cobra.Command) (*Services, error) {
	if serviceFactory == nil {
		return nil, errors.New("services not configured")
	}
	servicesOnce.Do(func() {
		servicesVal, servicesErr = serviceFactory(cmd.Context())
	})
	if servicesErr != nil {
		return nil, fmt.Errorf("initialise services: %w", servicesErr)
	}
	return servicesVal, nil
}
