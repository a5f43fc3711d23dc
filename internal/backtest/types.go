// Package backtest implements the political-trading event-study engine
// (§4.7): event normalization, trading-calendar alignment, forward and
// benchmark-relative returns, aggregation, and longitudinal comparison
// against prior runs. Shaped after the teacher's smoke90 package (Config →
// run → Results → Writer pipeline), generalized from a strategy backtest
// into an event study over political-trading disclosures.
package backtest

import "time"

// AnchorMode selects which event date(s) an event study anchors on (§4.7).
type AnchorMode string

const (
	AnchorTransaction AnchorMode = "transaction"
	AnchorReport      AnchorMode = "report"
	AnchorBoth        AnchorMode = "both"
)

// BenchmarkMode selects which benchmarks accompany SPY (§4.7).
type BenchmarkMode string

const (
	BenchmarkSPYOnly              BenchmarkMode = "spy_only"
	BenchmarkSPYPlusSectorOptional BenchmarkMode = "spy_plus_sector_if_relevant"
	BenchmarkSPYPlusSectorRequired BenchmarkMode = "spy_plus_sector_required"
)

// sectorETF is the canonical sector-to-ETF mapping (§4.7).
var sectorETF = map[string]string{
	"Technology":         "XLK",
	"Financial":          "XLF",
	"Health":             "XLV",
	"Energy":             "XLE",
	"Consumer Cyclical":  "XLY",
	"Consumer Defensive": "XLP",
	"Industrial":         "XLI",
	"Utilities":          "XLU",
	"Materials":          "XLB",
	"Real Estate":        "XLRE",
	"Communication":      "XLC",
}

// ResolveSectorETF returns the canonical sector ETF for sector, if any.
func ResolveSectorETF(sector string) (string, bool) {
	etf, ok := sectorETF[sector]
	return etf, ok
}

// RawRow is a loose upstream row for one of the three QuiverQuant
// government-trading datasets, keyed by field name.
type RawRow map[string]interface{}

// DatasetID names the source dataset a raw row belongs to (§4.7).
type DatasetID string

const (
	DatasetCongress DatasetID = "ticker_congress_trading"
	DatasetSenate   DatasetID = "ticker_senate_trading"
	DatasetHouse    DatasetID = "ticker_house_trading"
)

// Event is a normalized political-trading disclosure (§4.7).
type Event struct {
	EventID         string     `json:"event_id"`
	Ticker          string     `json:"ticker"`
	DatasetID       DatasetID  `json:"dataset_id"`
	Actor           string     `json:"actor"`
	Side            string     `json:"side"`
	TransactionDate *time.Time `json:"transaction_date"`
	ReportDate      *time.Time `json:"report_date"`
	Shares          float64    `json:"shares"`
	Amount          float64    `json:"amount"`
}

// Anchor is one resolved anchor date for an event, prior to calendar
// alignment.
type Anchor struct {
	Event      Event
	Kind       string // "transaction" or "report"
	AnchorDate time.Time
}

// AlignedAnchor is an Anchor after next-session calendar alignment.
type AlignedAnchor struct {
	Anchor
	AlignedDate time.Time
	Shifted     bool
}

// WindowReturn is the forward and benchmark-relative return for one
// (anchor, window, benchmark) triple (§4.7).
type WindowReturn struct {
	AnchorKind        string    `json:"anchor_kind"`
	EventID           string    `json:"event_id"`
	Ticker            string    `json:"ticker"`
	AlignedAnchorDate time.Time `json:"aligned_anchor_date"`
	WindowSessions    int       `json:"window_sessions"`
	BenchmarkSymbol   string    `json:"benchmark_symbol"`
	ForwardReturnPct  float64   `json:"forward_return_percent"`
	BenchmarkForward  float64   `json:"benchmark_forward_percent"`
	ExcessPct         float64   `json:"excess_percent"`
	RelativePct       float64   `json:"relative_percent"`
}

// AggregateRow is one grouped row of the aggregation stage (§4.7).
type AggregateRow struct {
	AnchorKind      string  `json:"anchor_kind"`
	WindowSessions  int     `json:"window_sessions"`
	BenchmarkSymbol string  `json:"benchmark_symbol"`
	SampleSize      int     `json:"sample_size"`
	HitRate         float64 `json:"hit_rate"`
	MeanForward     float64 `json:"mean_forward_percent"`
	MedianForward   float64 `json:"median_forward_percent"`
	StdevForward    float64 `json:"stdev_forward_percent"`
	MeanExcess      float64 `json:"mean_excess_percent"`
	MeanRelative    float64 `json:"mean_relative_percent"`
}

// Bar is a single trading session's closing price, keyed by date.
type Bar struct {
	Date  time.Time
	Close float64
}

// PriceSeries is a symbol's ordered closes, keyed by date for lookup.
type PriceSeries struct {
	Symbol string
	Bars   map[time.Time]float64
	Dates  []time.Time // ascending, deduplicated
}
