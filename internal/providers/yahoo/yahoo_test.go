package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finscope/aggregator/internal/finance"
)

func withTestServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	original := baseURL
	baseURL = server.URL
	t.Cleanup(func() { baseURL = original })
}

func TestFetchQuote_ParsesCanonicalFields(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"quoteResponse": {"result": [{
				"regularMarketPrice": 150.25,
				"regularMarketPreviousClose": 148.0,
				"regularMarketChange": 2.25,
				"regularMarketChangePercent": 1.52,
				"marketCap": 2.5e12,
				"fiftyTwoWeekHigh": 198.0,
				"fiftyTwoWeekLow": 124.0,
				"currency": "USD"
			}]}
		}`))
	})

	p := New()
	res, err := p.Fetch(context.Background(), finance.NormalizedQuery{Intent: finance.IntentQuote, Ticker: "AAPL"}, finance.FetchOptions{})
	require.NoError(t, err)

	data, ok := res.Data.(finance.QuoteData)
	require.True(t, ok)
	assert.Equal(t, 150.25, *data.Price)
	assert.Equal(t, 148.0, *data.PreviousClose)
	assert.Equal(t, "USD", data.Currency)
	assert.Equal(t, "yahoo", res.Source)
}

func TestFetchQuote_MissingFieldsStayNil(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse": {"result": [{}]}}`))
	})

	p := New()
	res, err := p.Fetch(context.Background(), finance.NormalizedQuery{Intent: finance.IntentQuote, Ticker: "AAPL"}, finance.FetchOptions{})
	require.NoError(t, err)

	data := res.Data.(finance.QuoteData)
	assert.Nil(t, data.Price)
	assert.Nil(t, data.MarketCap)
}

func TestSupports_OnlyQuoteFundamentalsNews(t *testing.T) {
	p := New()
	assert.True(t, p.Supports(finance.IntentQuote))
	assert.True(t, p.Supports(finance.IntentFundamentals))
	assert.True(t, p.Supports(finance.IntentNews))
	assert.False(t, p.Supports(finance.IntentFilings))
	assert.False(t, p.Supports(finance.IntentInsider))
}
