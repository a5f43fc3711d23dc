package quiverquant

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finscope/aggregator/internal/finance"
	"github.com/finscope/aggregator/internal/secrets"
)

func withTestServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	original := baseURL
	baseURL = server.URL
	t.Cleanup(func() { baseURL = original })
}

func newTestResolver(t *testing.T) *secrets.Resolver {
	t.Helper()
	t.Setenv("QUIVER_QUANT_API_KEY", "test-key")
	store := secrets.NewStore(t.TempDir(), nil)
	return secrets.NewResolver(store)
}

func TestFetch_Insider_PublicTier_FallsBackToAdvisorySummary(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Ticker":"AAPL"},{"Ticker":"AAPL"}]`))
	})

	p := New(newTestResolver(t))
	res, err := p.Fetch(context.Background(), finance.NormalizedQuery{Intent: finance.IntentInsider, Ticker: "AAPL"}, finance.FetchOptions{})
	require.NoError(t, err)

	data, ok := res.Data.(finance.InsiderData)
	require.True(t, ok)
	assert.Empty(t, data.Entries)
	require.NotNil(t, data.Summary)
	assert.Contains(t, data.Summary.Text, "AAPL")
}

func TestFetch_Insider_Form4Tier_ReturnsEntries(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Name":"Jane Doe","Date":"2025-01-02","Shares":999999,"ShareChange":-500,"TransactionCode":"P","SecurityTitle":"Common Stock"}]`))
	})

	t.Setenv("QUIVER_QUANT_API_KEY", "test-key")
	dir := t.TempDir()
	os.WriteFile(dir+"/auth.json", []byte(`{"quiver":{"type":"api","key":"test-key","provider_tier":"trader"}}`), 0o600)
	store := secrets.NewStore(dir, nil)
	resolver := secrets.NewResolver(store)

	p := New(resolver)
	res, err := p.Fetch(context.Background(), finance.NormalizedQuery{Intent: finance.IntentInsider, Ticker: "AAPL"}, finance.FetchOptions{})
	require.NoError(t, err)

	data, ok := res.Data.(finance.InsiderData)
	require.True(t, ok)
	require.Len(t, data.Entries, 1)
	assert.Equal(t, "Jane Doe", data.Entries[0].Owner)
	assert.Equal(t, finance.TransactionBuy, data.Entries[0].TransactionType)
	// Shares is derived as |ShareChange|, not trusted from the raw magnitude
	// field (which can diverge from the signed change on noisy upstream data).
	assert.Equal(t, 500.0, data.Entries[0].Shares)
	assert.Equal(t, -500.0, data.OwnershipChange)
}

func TestFetchCongressTrading_ReturnsRawRows(t *testing.T) {
	withTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Representative":"Jane Doe","Transaction":"Purchase"}]`))
	})

	p := New(newTestResolver(t))
	rows, err := p.FetchCongressTrading(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Jane Doe", rows[0]["Representative"])
}
