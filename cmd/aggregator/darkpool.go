package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/finscope/aggregator/internal/artifacts"
	"github.com/finscope/aggregator/internal/darkpool"
	"github.com/finscope/aggregator/internal/platform"
	"github.com/finscope/aggregator/internal/providers/quiverquant"
)

func newDarkpoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "darkpool",
		Short: "Run the off-exchange-volume anomaly detector over a ticker portfolio",
		Long:  "Fetches each ticker's off-exchange/dark-pool rows from QuiverQuant, computes a robust baseline, and flags significant z-score deviations with longitudinal transition tracking",
		RunE:  runDarkpool,
	}

	cmd.Flags().String("tickers", "", "Comma-separated ticker list (required)")
	cmd.Flags().Int("lookback", 14, "Lookback window in sessions")
	cmd.Flags().Int("min-samples", 5, "Minimum baseline sample size")
	cmd.Flags().Float64("significance", 2.5, "Significance z-score threshold")
	cmd.Flags().String("portfolio", "", "Portfolio label for the output directory; defaults to the ticker list joined by '-'")
	cmd.MarkFlagRequired("tickers")

	return cmd
}

func runDarkpool(cmd *cobra.Command, args []string) error {
	tickersFlag, _ := cmd.Flags().GetString("tickers")
	lookback, _ := cmd.Flags().GetInt("lookback")
	minSamples, _ := cmd.Flags().GetInt("min-samples")
	significance, _ := cmd.Flags().GetFloat64("significance")
	portfolio, _ := cmd.Flags().GetString("portfolio")
	dataRoot, _ := cmd.Flags().GetString("data-root")

	tickers := splitTickers(tickersFlag)
	if len(tickers) == 0 {
		return fmt.Errorf("--tickers must name at least one ticker")
	}

	label := portfolio
	if label == "" {
		label = strings.Join(tickers, "-")
	}

	resolver := buildResolver(dataRoot)
	quiver := quiverquant.New(resolver)

	ctx, cancel := platform.Compose(cmd.Context(), 90*time.Second)
	defer cancel()

	datasets, err := fetchDarkpoolDatasets(ctx, quiver, tickers)
	if err != nil {
		return fmt.Errorf("fetch QuiverQuant off-exchange rows: %w", err)
	}

	analyzer := darkpool.NewAnalyzer(significance, minSamples, lookback)
	results := analyzer.AnalyzePortfolio(datasets)

	clock := platform.SystemClock{}
	generatedAt := clock.Now()
	outputDir := filepath.Join(dataRoot, "reports", label, generatedAt.Format("2006-01-02"), "darkpool-anomaly")

	historical, err := readHistoricalEvidence(outputDir)
	if err != nil {
		log.Debug().Err(err).Msg("no readable prior darkpool evidence.json, treating as first run")
	}

	var previousAnomalies []darkpool.Anomaly
	if historical != nil {
		previousAnomalies = historical.Anomalies
	}
	currentAnomalies := make([]darkpool.Anomaly, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			currentAnomalies = append(currentAnomalies, r.Anomaly)
		}
	}
	transitions := darkpool.ClassifyTransitions(currentAnomalies, previousAnomalies)

	evidence := evidenceFile{
		GeneratedAt:  generatedAt.UTC().Format(time.RFC3339),
		Mode:         "portfolio",
		Tickers:      tickers,
		LookbackDays: lookback,
		MinSamples:   minSamples,
		Threshold:    significance,
		Anomalies:    currentAnomalies,
		Transitions:  transitions,
		Historical:   historical,
	}

	writer := artifacts.New(platform.OSFileSystem{}, platform.AlwaysAllow{}, clock)

	evidenceJSON, _ := json.MarshalIndent(evidence, "", "  ")
	assumptionsJSON, _ := json.MarshalIndent(map[string]interface{}{
		"generated_at":  evidence.GeneratedAt,
		"tickers":       tickers,
		"lookback_days": lookback,
		"min_samples":   minSamples,
		"significance":  significance,
	}, "", "  ")

	files := map[string][]byte{
		"assumptions.json": assumptionsJSON,
		"evidence.json":     evidenceJSON,
		"evidence.md":        []byte(buildEvidenceMarkdown(evidence)),
		"report.md":          []byte(artifacts.BuildDarkpoolReport(generatedAt, results, transitions)),
		"dashboard.md":       []byte(artifacts.BuildDarkpoolDashboard(results)),
	}

	if err := writer.WriteAll(ctx, outputDir, files); err != nil {
		return fmt.Errorf("write artifacts: %w", err)
	}

	significant := 0
	for _, a := range currentAnomalies {
		if a.Significant {
			significant++
		}
	}
	fmt.Printf("Darkpool anomaly scan complete: %d tickers, %d significant\n", len(tickers), significant)
	fmt.Printf("Artifacts written to %s\n", outputDir)
	return nil
}

// evidenceFile is the §6.3 evidence.json schema: "any implementation must
// read back anomalies produced by a prior version".
type evidenceFile struct {
	GeneratedAt  string                `json:"generated_at"`
	Mode         string                `json:"mode"`
	Tier         string                `json:"tier,omitempty"`
	LookbackDays int                   `json:"lookback_days"`
	MinSamples   int                   `json:"min_samples"`
	Threshold    float64               `json:"threshold"`
	Tickers      []string              `json:"tickers"`
	Anomalies    []darkpool.Anomaly    `json:"anomalies"`
	Transitions  []darkpool.Transition `json:"transitions"`
	Historical   *evidenceFile         `json:"historical"`
}

func readHistoricalEvidence(outputDir string) (*evidenceFile, error) {
	raw, err := os.ReadFile(filepath.Join(outputDir, "evidence.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var prior evidenceFile
	if err := json.Unmarshal(raw, &prior); err != nil {
		return nil, err
	}
	return &prior, nil
}

func buildEvidenceMarkdown(e evidenceFile) string {
	var b strings.Builder
	b.WriteString("# Off-Exchange Anomaly Evidence\n\n")
	fmt.Fprintf(&b, "**Generated**: %s\n", e.GeneratedAt)
	fmt.Fprintf(&b, "**Tickers**: %s\n", strings.Join(e.Tickers, ", "))
	fmt.Fprintf(&b, "**Threshold**: %.2f\n\n", e.Threshold)
	b.WriteString("| Ticker | Metric | Z | Severity |\n|--------|--------|--:|----------|\n")
	for _, a := range e.Anomalies {
		fmt.Fprintf(&b, "| %s | %s | %.4f | %s |\n", a.Ticker, a.MetricKey, a.Z, a.Severity)
	}
	return b.String()
}

func splitTickers(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// fetchDarkpoolDatasets pulls off-exchange rows per ticker in parallel (§5:
// "the anomaly detector runs per-ticker analyses in parallel" extends
// naturally to the fetch stage feeding it).
func fetchDarkpoolDatasets(ctx context.Context, client *quiverquant.Provider, tickers []string) ([]darkpool.TickerDataset, error) {
	type fetchResult struct {
		index int
		rows  []darkpool.RawRow
		err   error
	}

	results := make(chan fetchResult, len(tickers))
	var wg sync.WaitGroup
	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			rawRows, err := client.FetchOffExchange(ctx, ticker)
			if err != nil {
				results <- fetchResult{index: i, err: err}
				return
			}
			converted := make([]darkpool.RawRow, len(rawRows))
			for j, r := range rawRows {
				converted[j] = darkpool.RawRow(r)
			}
			results <- fetchResult{index: i, rows: converted}
		}(i, ticker)
	}
	wg.Wait()
	close(results)

	rowsByIndex := make([][]darkpool.RawRow, len(tickers))
	for r := range results {
		if r.err != nil {
			return nil, fmt.Errorf("ticker %s: %w", tickers[r.index], r.err)
		}
		rowsByIndex[r.index] = r.rows
	}

	datasets := make([]darkpool.TickerDataset, len(tickers))
	for i, ticker := range tickers {
		datasets[i] = darkpool.TickerDataset{
			Ticker:    ticker,
			MetricKey: "off_exchange_ratio",
			Rows:      rowsByIndex[i],
		}
	}
	return datasets, nil
}
