// Package finance defines the canonical finance-result envelope, its
// per-intent payload variants, and the Provider contract every upstream
// adapter implements.
package finance

import "time"

// Intent selects the canonical envelope shape for a query.
type Intent string

const (
	IntentQuote        Intent = "quote"
	IntentFundamentals Intent = "fundamentals"
	IntentFilings      Intent = "filings"
	IntentInsider      Intent = "insider"
	IntentNews         Intent = "news"
)

// Coverage selects the federation dispatch policy.
type Coverage string

const (
	CoverageDefault       Coverage = "default"
	CoverageComprehensive Coverage = "comprehensive"
)

// Attribution identifies a data publisher for a contributed payload.
type Attribution struct {
	Publisher string `json:"publisher"`
	Domain    string `json:"domain"`
	URL       string `json:"url"`
}

// Result is the canonical envelope returned by the federation engine for
// every intent.
type Result struct {
	Source      string        `json:"source"`
	Timestamp   time.Time     `json:"timestamp"`
	Attribution []Attribution `json:"attribution"`
	Data        interface{}   `json:"data"`
	Errors      []string      `json:"errors"`
}

// NormalizedQuery is the output of the query parser (component B) and the
// input to the federation engine (component F).
type NormalizedQuery struct {
	Intent   Intent
	Ticker   string
	Form     string
	Coverage Coverage
	Limit    int
	Refresh  bool
	Source   string // explicit single-provider override, or "" for auto
}

// QuoteData is the `quote` intent payload (§3.1).
type QuoteData struct {
	Symbol            string   `json:"symbol"`
	Price             *float64 `json:"price"`
	Currency          string   `json:"currency"`
	PreviousClose     *float64 `json:"previousClose"`
	Change            *float64 `json:"change"`
	ChangePercent     *float64 `json:"changePercent"`
	MarketCap         *float64 `json:"marketCap"`
	High52w           *float64 `json:"52wHigh"`
	Low52w            *float64 `json:"52wLow"`
	YTDReturnPercent  *float64 `json:"ytdReturnPercent"`
}

// MetricPeriod coarsens a fundamentals metric's reporting period.
type MetricPeriod string

const (
	PeriodTTM     MetricPeriod = "TTM"
	PeriodFY      MetricPeriod = "FY"
	PeriodQ       MetricPeriod = "Q"
	PeriodUnknown MetricPeriod = "Unknown"
)

// MetricDerivation records whether a fundamentals metric was reported
// directly by the upstream or derived from other reported fields.
type MetricDerivation string

const (
	DerivationReported MetricDerivation = "reported"
	DerivationDerived  MetricDerivation = "derived"
)

// Metric is a single fundamentals figure with its provenance.
type Metric struct {
	Value      *float64         `json:"value"`
	Period     MetricPeriod     `json:"period"`
	Derivation MetricDerivation `json:"derivation"`
}

// Metrics bundles the named fundamentals figures in §3.1.
type Metrics struct {
	Revenue            Metric `json:"revenue"`
	NetIncome          Metric `json:"netIncome"`
	GrossMarginPct     Metric `json:"grossMarginPct"`
	DebtToEquity       Metric `json:"debtToEquity"`
	ROEPct             Metric `json:"roePct"`
	OperatingMarginPct Metric `json:"operatingMarginPct"`
	FreeCashFlow       Metric `json:"freeCashFlow"`
}

// ForEach calls fn for each named metric, passing its field name as used in
// §3.1 ("revenue", "netIncome", ...), so merge and completeness logic can
// iterate without reflection.
func (m *Metrics) ForEach(fn func(name string, metric *Metric)) {
	fn("revenue", &m.Revenue)
	fn("netIncome", &m.NetIncome)
	fn("grossMarginPct", &m.GrossMarginPct)
	fn("debtToEquity", &m.DebtToEquity)
	fn("roePct", &m.ROEPct)
	fn("operatingMarginPct", &m.OperatingMarginPct)
	fn("freeCashFlow", &m.FreeCashFlow)
}

// AnalystRatings is the analyst-rating bucket breakdown in §3.1.
type AnalystRatings struct {
	StrongBuy  *float64 `json:"strongBuy"`
	Buy        *float64 `json:"buy"`
	Hold       *float64 `json:"hold"`
	Sell       *float64 `json:"sell"`
	StrongSell *float64 `json:"strongSell"`
}

// FundamentalsData is the `fundamentals` intent payload (§3.1).
type FundamentalsData struct {
	Symbol          string         `json:"symbol"`
	Metrics         Metrics        `json:"metrics"`
	FiscalPeriodEnd string         `json:"fiscalPeriodEnd"`
	MarketCap       *float64       `json:"marketCap"`
	Sector          string         `json:"sector"`
	Headquarters    string         `json:"headquarters"`
	Website         string         `json:"website"`
	IconURL         string         `json:"iconUrl"`
	AnalystRatings  AnalystRatings `json:"analystRatings"`
	Period          MetricPeriod   `json:"period"`
}

// Filing is one row of the `filings` intent payload (§3.1).
type Filing struct {
	Form            string `json:"form"`
	AccessionNumber string `json:"accessionNumber"`
	FilingDate      string `json:"filingDate"`
	ReportDate      string `json:"reportDate"`
	URL             string `json:"url"`
	Summary         string `json:"summary"`
}

// FilingsData is the `filings` intent payload (§3.1).
type FilingsData struct {
	Symbol   string   `json:"symbol"`
	Filings  []Filing `json:"filings"`
}

// InsiderTransactionType classifies an insider transaction's direction.
type InsiderTransactionType string

const (
	TransactionBuy   InsiderTransactionType = "buy"
	TransactionSell  InsiderTransactionType = "sell"
	TransactionOther InsiderTransactionType = "other"
)

// InsiderEntry is one row of the `insider` intent payload (§3.1).
type InsiderEntry struct {
	Owner           string                  `json:"owner"`
	Date            string                  `json:"date"`
	Shares          float64                 `json:"shares"`
	SharesChange    float64                 `json:"sharesChange"`
	TransactionType InsiderTransactionType  `json:"transactionType"`
	Security        string                  `json:"security"`
}

// InsiderSummary is the Quiver tier-1 fallback advisory summary (§4.6).
type InsiderSummary struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// InsiderData is the `insider` intent payload (§3.1).
type InsiderData struct {
	Symbol          string          `json:"symbol"`
	OwnershipChange float64         `json:"ownershipChange"`
	Entries         []InsiderEntry  `json:"entries"`
	Summary         *InsiderSummary `json:"summary,omitempty"`
}

// NewsItem is one row of the `news` intent payload (§3.1).
type NewsItem struct {
	Title       string  `json:"title"`
	Source      string  `json:"source"`
	PublishedAt string  `json:"publishedAt"`
	URL         string  `json:"url"`
	Summary     string  `json:"summary"`
	Sentiment   *string `json:"sentiment,omitempty"`
}

// NewsData is the `news` intent payload (§3.1).
type NewsData struct {
	Symbol string     `json:"symbol"`
	Items  []NewsItem `json:"items"`
}
