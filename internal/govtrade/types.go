// Package govtrade implements the government-trading delta and persistence
// rollup (§4.9): identity-tuple delta against a baseline run, and
// consecutive-streak/persistence-ratio tracking across prior runs. Shaped
// after the teacher's smoke90.Metrics rollup, but as stateless functions
// over already-collected event slices: no accumulator and no mutex.
package govtrade

import (
	"strconv"
	"time"
)

// TradeEvent is one government-trading disclosure as seen by this package
// (a narrower view over internal/backtest.Event — this package only cares
// about the identity tuple and the non-identity fields used for "updated"
// detection).
type TradeEvent struct {
	Actor           string    `json:"actor"`
	Ticker          string    `json:"ticker"`
	TransactionDate time.Time `json:"transaction_date"`
	TransactionType string    `json:"transaction_type"`
	Amount          float64   `json:"amount"`

	// Non-identity fields compared for "updated" classification.
	Shares     float64 `json:"shares"`
	ReportDate *time.Time `json:"report_date,omitempty"`
}

// Identity returns the canonical cross-run dedup key: (actor, ticker,
// transaction_date, transaction_type, amount) — independent of event_id
// (§4.9: "the canonical identity tuple for across-run deduplication,
// independent of event_id random-looking content").
func (e TradeEvent) Identity() string {
	return e.Actor + "|" + e.Ticker + "|" + e.TransactionDate.UTC().Format("2006-01-02") + "|" + e.TransactionType + "|" + formatAmount(e.Amount)
}

func formatAmount(a float64) string {
	return strconv.FormatFloat(a, 'f', 4, 64)
}
