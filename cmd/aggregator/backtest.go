package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/finscope/aggregator/internal/artifacts"
	"github.com/finscope/aggregator/internal/backtest"
	"github.com/finscope/aggregator/internal/govtrade"
	"github.com/finscope/aggregator/internal/platform"
	"github.com/finscope/aggregator/internal/providers/quiverquant"
	"github.com/finscope/aggregator/internal/providers/yahoo"
)

func newBacktestCmd() *cobra.Command {
	backtestCmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run standalone analytics workflows over alternative data",
	}

	politicalCmd := &cobra.Command{
		Use:   "political",
		Short: "Run the political-trading event study for one ticker",
		Long:  "Normalizes congressional/Senate/House disclosure rows into a forward-return and benchmark-relative-return event study, with longitudinal comparison against prior runs",
		RunE:  runBacktestPolitical,
	}

	politicalCmd.Flags().String("ticker", "", "Ticker to study (required)")
	politicalCmd.Flags().String("sector", "", "GICS-style sector, used to resolve a sector benchmark ETF")
	politicalCmd.Flags().String("anchor", "transaction", "transaction|report|both")
	politicalCmd.Flags().String("windows", "1,5,10", "Comma-separated forward-return windows (trading sessions)")
	politicalCmd.Flags().String("benchmark-mode", "spy_only", "spy_only|spy_plus_sector_if_relevant|spy_plus_sector_required")
	politicalCmd.Flags().String("scope", "", "Output scope slug; defaults to a slug of the ticker plus a short correlation id")
	politicalCmd.Flags().String("price-range", "5y", "Yahoo chart range for price history (e.g. 5y, 2y)")
	politicalCmd.Flags().String("providers-config", "providers.yaml", "Path to providers.yaml")
	politicalCmd.MarkFlagRequired("ticker")

	backtestCmd.AddCommand(politicalCmd)
	return backtestCmd
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func runBacktestPolitical(cmd *cobra.Command, args []string) error {
	ticker, _ := cmd.Flags().GetString("ticker")
	sector, _ := cmd.Flags().GetString("sector")
	anchorFlag, _ := cmd.Flags().GetString("anchor")
	windowsFlag, _ := cmd.Flags().GetString("windows")
	benchmarkFlag, _ := cmd.Flags().GetString("benchmark-mode")
	scope, _ := cmd.Flags().GetString("scope")
	priceRange, _ := cmd.Flags().GetString("price-range")
	providersPath, _ := cmd.Flags().GetString("providers-config")
	dataRoot, _ := cmd.Flags().GetString("data-root")

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return fmt.Errorf("--ticker is required")
	}
	if scope == "" {
		scope = slugify(ticker) + "-" + uuid.NewString()[:8]
	}

	windows, err := parseWindows(windowsFlag)
	if err != nil {
		return err
	}

	reportsRoot := filepath.Join(dataRoot, "reports")
	config := &backtest.Config{
		Ticker:        ticker,
		Sector:        sector,
		AnchorMode:    backtest.AnchorMode(anchorFlag),
		BenchmarkMode: backtest.BenchmarkMode(benchmarkFlag),
		Windows:       windows,
		ScopeKey:      scope,
		ReportsRoot:   reportsRoot,
	}

	resolver := buildResolver(dataRoot)
	quiver := quiverquant.New(resolver)
	yahooProvider := yahoo.New()

	ctx, cancel := platform.Compose(cmd.Context(), 2*time.Minute)
	defer cancel()

	rows, err := fetchQuiverRows(ctx, quiver, ticker)
	if err != nil {
		return fmt.Errorf("fetch QuiverQuant rows: %w", err)
	}

	benchmarks, err := backtest.ResolveBenchmarks(config.BenchmarkMode, sector)
	if err != nil {
		return fmt.Errorf("resolve benchmarks: %w", err)
	}
	symbols := append([]string{ticker}, benchmarks...)

	series, err := fetchPriceSeries(ctx, yahooProvider, symbols, priceRange)
	if err != nil {
		return fmt.Errorf("fetch price history: %w", err)
	}

	clock := platform.SystemClock{}
	runner := backtest.NewRunner(config, clock)
	results, err := runner.Run(rows, series)
	if err != nil {
		return fmt.Errorf("run political backtest: %w", err)
	}

	generatedAt, err := time.Parse(time.RFC3339, results.GeneratedAt)
	if err != nil {
		generatedAt = time.Now().UTC()
	}
	outputDir := filepath.Join(reportsRoot, "political-backtest", scope, generatedAt.Format("2006-01-02"))

	delta, persistence, err := runGovernmentTradingRollup(reportsRoot, scope, outputDir, results.Events)
	if err != nil {
		log.Warn().Err(err).Msg("government-trading delta/persistence rollup failed; continuing without it")
	}

	writer := artifacts.New(platform.OSFileSystem{}, platform.AlwaysAllow{}, clock)

	eventsJSON, _ := json.MarshalIndent(results.Events, "", "  ")
	windowReturnsJSON, _ := json.MarshalIndent(results.WindowReturn, "", "  ")
	aggregatesJSON, _ := json.MarshalIndent(results.Aggregates, "", "  ")
	comparisonJSON, _ := json.MarshalIndent(results.Comparison, "", "  ")
	assumptionsJSON, _ := json.MarshalIndent(map[string]interface{}{
		"generated_at":   results.GeneratedAt,
		"ticker":         ticker,
		"sector":         sector,
		"anchor_mode":    config.AnchorMode,
		"benchmark_mode": config.BenchmarkMode,
		"windows":        windows,
	}, "", "  ")

	files := map[string][]byte{
		"assumptions.json":               assumptionsJSON,
		"events.json":                    eventsJSON,
		"event-window-returns.json":      windowReturnsJSON,
		"benchmark-relative-returns.json": windowReturnsJSON,
		"aggregate-results.json":         aggregatesJSON,
		"comparison.json":                comparisonJSON,
		"report.md":                      []byte(artifacts.BuildPoliticalBacktestReport(ticker, generatedAt, results)),
		"dashboard.md":                   []byte(artifacts.BuildPoliticalBacktestDashboard(ticker, results)),
	}
	if delta != nil {
		files["delta.json"], _ = json.MarshalIndent(delta, "", "  ")
	}
	if persistence != nil {
		files["persistence.json"], _ = json.MarshalIndent(persistence, "", "  ")
	}

	if err := writer.WriteAll(ctx, outputDir, files); err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}

	fmt.Printf("Political backtest complete: %s (%d events, %d window returns)\n", ticker, len(results.Events), len(results.WindowReturn))
	fmt.Printf("Artifacts written to %s\n", outputDir)
	log.Info().Str("ticker", ticker).Str("scope", scope).Str("output_dir", outputDir).Msg("political backtest complete")
	return nil
}

func parseWindows(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	windows := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid window %q: %w", p, err)
		}
		windows = append(windows, n)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows supplied")
	}
	return windows, nil
}

// fetchQuiverRows pulls the three government-trading datasets for ticker in
// parallel (SPEC_FULL.md "G": symbol-level fetches bounded by the shared
// cancellation signal).
func fetchQuiverRows(ctx context.Context, client *quiverquant.Provider, ticker string) (map[backtest.DatasetID][]backtest.RawRow, error) {
	type fetchResult struct {
		dataset backtest.DatasetID
		rows    []backtest.RawRow
		err     error
	}

	fetchers := []struct {
		dataset backtest.DatasetID
		fetch   func(context.Context, string) ([]quiverquant.CongressTradingRow, error)
	}{
		{backtest.DatasetCongress, client.FetchCongressTrading},
		{backtest.DatasetSenate, client.FetchSenateTrading},
		{backtest.DatasetHouse, client.FetchHouseTrading},
	}

	results := make(chan fetchResult, len(fetchers))
	var wg sync.WaitGroup
	for _, f := range fetchers {
		wg.Add(1)
		go func(dataset backtest.DatasetID, fetch func(context.Context, string) ([]quiverquant.CongressTradingRow, error)) {
			defer wg.Done()
			rawRows, err := fetch(ctx, ticker)
			if err != nil {
				results <- fetchResult{dataset: dataset, err: err}
				return
			}
			converted := make([]backtest.RawRow, len(rawRows))
			for i, r := range rawRows {
				converted[i] = backtest.RawRow(r)
			}
			results <- fetchResult{dataset: dataset, rows: converted}
		}(f.dataset, f.fetch)
	}
	wg.Wait()
	close(results)

	out := make(map[backtest.DatasetID][]backtest.RawRow, len(fetchers))
	for r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("dataset %s: %w", r.dataset, r.err)
		}
		out[r.dataset] = r.rows
	}
	return out, nil
}

// fetchPriceSeries pulls daily closes for every symbol in parallel.
func fetchPriceSeries(ctx context.Context, client *yahoo.Provider, symbols []string, rangeSpec string) (map[string]backtest.PriceSeries, error) {
	type fetchResult struct {
		symbol string
		series backtest.PriceSeries
		err    error
	}

	seen := make(map[string]bool, len(symbols))
	unique := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		unique = append(unique, s)
	}

	results := make(chan fetchResult, len(unique))
	var wg sync.WaitGroup
	for _, symbol := range unique {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			bars, err := client.FetchDailyBars(ctx, symbol, rangeSpec)
			if err != nil {
				results <- fetchResult{symbol: symbol, err: err}
				return
			}
			series := backtest.PriceSeries{
				Symbol: symbol,
				Bars:   make(map[time.Time]float64, len(bars)),
				Dates:  make([]time.Time, 0, len(bars)),
			}
			for _, bar := range bars {
				series.Bars[bar.Date] = bar.Close
				series.Dates = append(series.Dates, bar.Date)
			}
			results <- fetchResult{symbol: symbol, series: series}
		}(symbol)
	}
	wg.Wait()
	close(results)

	out := make(map[string]backtest.PriceSeries, len(unique))
	for r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("symbol %s: %w", r.symbol, r.err)
		}
		out[r.symbol] = r.series
	}
	return out, nil
}

// runGovernmentTradingRollup computes the delta/persistence rollup
// (SPEC_FULL.md "I") over the current run's events and every prior run's
// events.json discovered under reportsRoot/political-backtest/scope.
func runGovernmentTradingRollup(reportsRoot, scope, currentOutputDir string, currentEvents []backtest.Event) ([]govtrade.Delta, []govtrade.PersistenceRow, error) {
	historicalRuns, err := backtest.DiscoverHistoricalRuns(reportsRoot, scope, currentOutputDir)
	if err != nil {
		return nil, nil, err
	}

	current := toTradeEvents(currentEvents)

	var priorRuns []govtrade.RunIdentitySet
	var baseline []govtrade.TradeEvent
	for _, run := range historicalRuns {
		events, err := readEventsJSON(run.Dir)
		if err != nil {
			log.Warn().Err(err).Str("dir", run.Dir).Msg("could not read historical events.json for government-trading rollup")
			continue
		}
		trades := toTradeEvents(events)
		identities := make(map[string]bool, len(trades))
		for _, t := range trades {
			identities[t.Identity()] = true
		}
		priorRuns = append(priorRuns, govtrade.RunIdentitySet{RunID: filepath.Base(run.Dir), Identities: identities})
		baseline = trades // last one wins; historicalRuns is ascending by generated_at
	}

	currentIdentities := make([]string, len(current))
	for i, t := range current {
		currentIdentities[i] = t.Identity()
	}

	delta := govtrade.ComputeDelta(current, baseline)
	persistence := govtrade.ComputePersistence(currentIdentities, priorRuns)
	return delta, persistence, nil
}

func readEventsJSON(dir string) ([]backtest.Event, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "events.json"))
	if err != nil {
		return nil, err
	}
	var events []backtest.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// toTradeEvents narrows backtest.Event (the event-study view) into
// govtrade.TradeEvent (the persistence view), dropping events with no
// transaction date since identity requires one.
func toTradeEvents(events []backtest.Event) []govtrade.TradeEvent {
	out := make([]govtrade.TradeEvent, 0, len(events))
	for _, ev := range events {
		if ev.TransactionDate == nil {
			continue
		}
		out = append(out, govtrade.TradeEvent{
			Actor:           ev.Actor,
			Ticker:          ev.Ticker,
			TransactionDate: *ev.TransactionDate,
			TransactionType: ev.Side,
			Amount:          ev.Amount,
			Shares:          ev.Shares,
			ReportDate:      ev.ReportDate,
		})
	}
	return out
}
