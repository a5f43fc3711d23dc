package artifacts

import (
	"fmt"
	"strings"
	"time"

	"github.com/finscope/aggregator/internal/backtest"
	"github.com/finscope/aggregator/internal/darkpool"
)

// BuildPoliticalBacktestReport renders the human-readable report.md for a
// political-backtest run, in the teacher's markdown-table style (see
// smoke90.Writer.generateMarkdownReport).
func BuildPoliticalBacktestReport(ticker string, generatedAt time.Time, results *backtest.Results) string {
	var report strings.Builder

	report.WriteString("# Political Backtest Report\n\n")
	report.WriteString(fmt.Sprintf("**Ticker**: %s\n", ticker))
	report.WriteString(fmt.Sprintf("**Generated**: %s\n\n", generatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	report.WriteString("## Executive Summary\n\n")
	report.WriteString(fmt.Sprintf("- **Events**: %d\n", len(results.Events)))
	report.WriteString(fmt.Sprintf("- **Window Returns**: %d\n", len(results.WindowReturn)))
	report.WriteString(fmt.Sprintf("- **First Run**: %v\n\n", results.Comparison.FirstRun))

	report.WriteString("## Aggregate Results\n\n")
	report.WriteString("| Anchor | Window | Benchmark | N | Hit Rate | Mean | Median | Stdev | Mean Excess |\n")
	report.WriteString("|--------|-------:|-----------|--:|---------:|-----:|-------:|------:|------------:|\n")
	for _, row := range results.Aggregates {
		report.WriteString(fmt.Sprintf("| %s | %d | %s | %d | %.2f%% | %.4f%% | %.4f%% | %.4f%% | %.4f%% |\n",
			row.AnchorKind, row.WindowSessions, row.BenchmarkSymbol, row.SampleSize,
			row.HitRate*100, row.MeanForward, row.MedianForward, row.StdevForward, row.MeanExcess))
	}
	report.WriteString("\n")

	if !results.Comparison.FirstRun {
		report.WriteString("## Longitudinal Comparison\n\n")
		report.WriteString(fmt.Sprintf("- **Current events**: %d\n", results.Comparison.EventSample.Current))
		report.WriteString(fmt.Sprintf("- **Baseline events**: %d\n", results.Comparison.EventSample.Baseline))
		report.WriteString(fmt.Sprintf("- **New events**: %d\n", len(results.Comparison.EventSample.NewEvents)))
		report.WriteString(fmt.Sprintf("- **Removed events**: %d\n\n", len(results.Comparison.EventSample.RemovedEvents)))

		if len(results.Comparison.ConclusionChanges) > 0 {
			report.WriteString("### Conclusion Changes\n\n")
			report.WriteString("| Anchor | Window | Benchmark | Baseline | Current |\n")
			report.WriteString("|--------|-------:|-----------|----------|--------|\n")
			for _, c := range results.Comparison.ConclusionChanges {
				report.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
					c.AnchorKind, c.WindowSessions, c.BenchmarkSymbol, c.Baseline, c.Current))
			}
			report.WriteString("\n")
		}
	}

	return report.String()
}

// BuildPoliticalBacktestDashboard renders a terse at-a-glance dashboard.md.
func BuildPoliticalBacktestDashboard(ticker string, results *backtest.Results) string {
	var d strings.Builder
	d.WriteString(fmt.Sprintf("# %s — Political Backtest Dashboard\n\n", ticker))
	for _, row := range results.Aggregates {
		d.WriteString(fmt.Sprintf("- %s/%dd vs %s: hit_rate=%.1f%% mean_excess=%.4f%%\n",
			row.AnchorKind, row.WindowSessions, row.BenchmarkSymbol, row.HitRate*100, row.MeanExcess))
	}
	return d.String()
}

// BuildDarkpoolReport renders report.md for a darkpool-anomaly run.
func BuildDarkpoolReport(generatedAt time.Time, results []darkpool.TickerResult, transitions []darkpool.Transition) string {
	var report strings.Builder

	report.WriteString("# Off-Exchange Anomaly Report\n\n")
	report.WriteString(fmt.Sprintf("**Generated**: %s\n\n", generatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	report.WriteString("## Anomalies\n\n")
	report.WriteString("| Ticker | Metric | Z | Direction | Severity | Significant |\n")
	report.WriteString("|--------|--------|--:|-----------|----------|-------------|\n")
	for _, r := range results {
		if r.Err != nil {
			report.WriteString(fmt.Sprintf("| %s | — | — | — | error: %s | — |\n", r.Ticker, r.Err.Error()))
			continue
		}
		a := r.Anomaly
		report.WriteString(fmt.Sprintf("| %s | %s | %.4f | %s | %s | %v |\n",
			a.Ticker, a.MetricKey, a.Z, a.Direction, a.Severity, a.Significant))
	}
	report.WriteString("\n")

	if len(transitions) > 0 {
		report.WriteString("## Transitions\n\n")
		report.WriteString("| Key | Kind |\n")
		report.WriteString("|-----|------|\n")
		for _, t := range transitions {
			report.WriteString(fmt.Sprintf("| %s | %s |\n", t.Key, t.Kind))
		}
		report.WriteString("\n")
	}

	return report.String()
}

// BuildDarkpoolDashboard renders a terse dashboard.md for a darkpool run.
func BuildDarkpoolDashboard(results []darkpool.TickerResult) string {
	var d strings.Builder
	d.WriteString("# Darkpool Anomaly Dashboard\n\n")
	for _, r := range results {
		if r.Err != nil {
			d.WriteString(fmt.Sprintf("- %s: error (%s)\n", r.Ticker, r.Err.Error()))
			continue
		}
		d.WriteString(fmt.Sprintf("- %s: z=%.2f severity=%s\n", r.Ticker, r.Anomaly.Z, r.Anomaly.Severity))
	}
	return d.String()
}
