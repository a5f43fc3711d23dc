package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finscope/aggregator/internal/finance"
)

func TestParse_DollarTickerHighestPrecedence(t *testing.T) {
	q, err := Parse(Input{Query: "what's up with $AAPL today, also mentions MSFT"})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Ticker)
}

func TestParse_BareSingleWordTicker(t *testing.T) {
	q, err := Parse(Input{Query: "nvda"})
	require.NoError(t, err)
	assert.Equal(t, "NVDA", q.Ticker)
}

func TestParse_IntentInference(t *testing.T) {
	cases := []struct {
		query string
		want  finance.Intent
	}{
		{"AAPL 10-K filing", finance.IntentFilings},
		{"insider ownership changes at TSLA", finance.IntentInsider},
		{"MSFT revenue and earnings", finance.IntentFundamentals},
		{"latest news on GOOG", finance.IntentNews},
		{"AAPL", finance.IntentQuote},
	}
	for _, c := range cases {
		q, err := Parse(Input{Query: c.query})
		require.NoError(t, err, c.query)
		assert.Equal(t, c.want, q.Intent, c.query)
	}
}

func TestParse_EmptyQueryErrors(t *testing.T) {
	_, err := Parse(Input{Query: ""})
	assert.ErrorIs(t, err, finance.ErrEmptyQuery)
}

func TestParse_NoTickerErrors(t *testing.T) {
	_, err := Parse(Input{Query: "tell me the news and updates"})
	assert.ErrorIs(t, err, finance.ErrMissingTicker)
}

func TestParse_StopWordsSkipped(t *testing.T) {
	q, err := Parse(Input{Query: "NEWS about AAPL today"})
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Ticker)
}

func TestParse_LimitClamped(t *testing.T) {
	q, err := Parse(Input{Query: "AAPL", Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 50, q.Limit)

	q, err = Parse(Input{Query: "AAPL", Limit: -3})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, q.Limit, 1)
}

func TestParse_Idempotent(t *testing.T) {
	first, err := Parse(Input{Query: "$AAPL insider trades", Limit: 25})
	require.NoError(t, err)

	second, err := Parse(Input{
		Ticker:   first.Ticker,
		Intent:   string(first.Intent),
		Form:     first.Form,
		Coverage: string(first.Coverage),
		Limit:    first.Limit,
	})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
