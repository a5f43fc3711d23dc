package govtrade

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trade(actor, ticker, date, side string, amount, shares float64) TradeEvent {
	d, _ := time.Parse("2006-01-02", date)
	return TradeEvent{Actor: actor, Ticker: ticker, TransactionDate: d.UTC(), TransactionType: side, Amount: amount, Shares: shares}
}

func TestComputeDelta_AllFourKinds(t *testing.T) {
	baseline := []TradeEvent{
		trade("Jane Doe", "AAPL", "2025-01-04", "buy", 10000, 100),
		trade("John Roe", "MSFT", "2025-01-05", "sell", 5000, 50),
		trade("Ann Lee", "TSLA", "2025-01-06", "buy", 2000, 20),
	}
	current := []TradeEvent{
		trade("Jane Doe", "AAPL", "2025-01-04", "buy", 10000, 100),  // unchanged
		trade("John Roe", "MSFT", "2025-01-05", "sell", 5000, 75),   // updated (shares differ)
		trade("Kim Park", "GOOG", "2025-01-07", "buy", 3000, 30),    // new
		// Ann Lee / TSLA absent -> no_longer_present
	}

	deltas := ComputeDelta(current, baseline)
	kinds := make(map[DeltaKind]int)
	for _, d := range deltas {
		kinds[d.Kind]++
	}
	require.Equal(t, 4, len(deltas))
	assert.Equal(t, 1, kinds[DeltaNew])
	assert.Equal(t, 1, kinds[DeltaUpdated])
	assert.Equal(t, 1, kinds[DeltaUnchanged])
	assert.Equal(t, 1, kinds[DeltaNoLongerPresent])
}

func TestTradeEvent_IdentityIgnoresSharesAndReportDate(t *testing.T) {
	a := trade("Jane Doe", "AAPL", "2025-01-04", "buy", 10000, 100)
	b := trade("Jane Doe", "AAPL", "2025-01-04", "buy", 10000, 999)
	assert.Equal(t, a.Identity(), b.Identity())
}
