package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finscope/aggregator/internal/finance"
	"github.com/finscope/aggregator/internal/platform"
)

func TestCache_SetThenGetWithinTTL(t *testing.T) {
	clock := platform.NewFakeClock(time.Unix(0, 0))
	c := New(clock)

	q := finance.NormalizedQuery{Ticker: "AAPL", Intent: finance.IntentQuote}
	want := finance.Result{Source: "yahoo"}
	c.Set(Key(q), finance.IntentQuote, want)

	got, ok := c.Get(Key(q))
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := platform.NewFakeClock(time.Unix(0, 0))
	c := New(clock)

	q := finance.NormalizedQuery{Ticker: "AAPL", Intent: finance.IntentQuote}
	c.Set(Key(q), finance.IntentQuote, finance.Result{Source: "yahoo"})

	clock.Advance(TTLByIntent[finance.IntentQuote] + time.Second)

	_, ok := c.Get(Key(q))
	assert.False(t, ok)
}

func TestCache_ClearEmptiesEverything(t *testing.T) {
	c := New(nil)
	q := finance.NormalizedQuery{Ticker: "AAPL", Intent: finance.IntentQuote}
	c.Set(Key(q), finance.IntentQuote, finance.Result{Source: "yahoo"})

	c.Clear()

	_, ok := c.Get(Key(q))
	assert.False(t, ok)
}

func TestCache_PerIntentTTLDiffers(t *testing.T) {
	assert.Equal(t, 300*time.Second, TTLByIntent[finance.IntentQuote])
	assert.Equal(t, 43200*time.Second, TTLByIntent[finance.IntentFilings])
}
