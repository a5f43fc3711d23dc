package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/finscope/aggregator/internal/cache"
	"github.com/finscope/aggregator/internal/config"
	"github.com/finscope/aggregator/internal/federation"
	"github.com/finscope/aggregator/internal/finance"
	"github.com/finscope/aggregator/internal/platform"
	"github.com/finscope/aggregator/internal/providers/alphavantage"
	"github.com/finscope/aggregator/internal/providers/finnhub"
	"github.com/finscope/aggregator/internal/providers/fmp"
	"github.com/finscope/aggregator/internal/providers/polygon"
	"github.com/finscope/aggregator/internal/providers/quartr"
	"github.com/finscope/aggregator/internal/providers/quiverquant"
	"github.com/finscope/aggregator/internal/providers/secedgar"
	"github.com/finscope/aggregator/internal/providers/yahoo"
	"github.com/finscope/aggregator/internal/secrets"
)

const (
	appName = "finscope-aggregator"
	version = "v1.0.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "aggregator",
		Short:   "Finance data aggregation and analytics engine",
		Version: version,
		Long: `aggregator federates quote, fundamentals, filings, insider, and news
data across eight finance providers, and runs two standalone analytics
workflows over QuiverQuant's alternative-data endpoints: a political-trading
event study and an off-exchange-volume anomaly detector.`,
	}

	rootCmd.PersistentFlags().String("data-root", defaultDataRoot(), "Root directory for auth.json and reports/")

	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newDarkpoolCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newScheduleCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func defaultDataRoot() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.aggregator"
	}
	return "."
}

// buildResolver wires a secrets.Resolver against the auth store at
// <data-root>/auth.json, loading .env first the same way the teacher's
// provider configs treat environment as the primary credential source.
func buildResolver(dataRoot string) *secrets.Resolver {
	secrets.LoadDotEnv(".env")
	store := secrets.NewStore(dataRoot, platform.OSFileSystem{})
	return secrets.NewResolver(store)
}

// buildEngine assembles the federation engine over every configured
// provider and a process-lifetime TTL cache, gated by providers.yaml (or
// the hardcoded defaults when absent).
func buildEngine(dataRoot string, providersPath string) *federation.Engine {
	resolver := buildResolver(dataRoot)

	providersCfg, err := config.LoadProvidersConfig(providersPath)
	if err != nil {
		log.Debug().Err(err).Str("path", providersPath).Msg("no providers.yaml found, using defaults")
		providersCfg = config.DefaultProvidersConfig()
	}

	roster := []finance.Provider{
		yahoo.New(),
		alphavantage.New(resolver),
		finnhub.New(resolver),
		fmp.New(resolver),
		polygon.New(resolver),
		quartr.New(resolver),
		secedgar.New(resolver),
		quiverquant.New(resolver),
	}

	enabled := make([]finance.Provider, 0, len(roster))
	for _, p := range roster {
		if !providersCfg.IsProviderEnabled(p.ID()) {
			log.Debug().Str("provider", p.ID()).Msg("provider disabled by providers.yaml, skipping")
			continue
		}
		enabled = append(enabled, p)
	}

	return federation.New(enabled, cache.New(platform.SystemClock{}))
}
