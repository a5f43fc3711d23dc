package federation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finscope/aggregator/internal/finance"
)

func f64(v float64) *float64 { return &v }

type stubProvider struct {
	id        string
	intents   map[finance.Intent]bool
	enabled   bool
	result    finance.Result
	err       error
	fetchedAt *int
}

func (s *stubProvider) ID() string           { return s.id }
func (s *stubProvider) DisplayName() string  { return s.id }
func (s *stubProvider) Supports(i finance.Intent) bool { return s.intents[i] }
func (s *stubProvider) Enabled() bool        { return s.enabled }
func (s *stubProvider) Fetch(ctx context.Context, q finance.NormalizedQuery, opts finance.FetchOptions) (finance.Result, error) {
	if s.fetchedAt != nil {
		*s.fetchedAt++
	}
	if s.err != nil {
		return finance.Result{}, s.err
	}
	return s.result, nil
}

func quoteProvider(id string, data finance.QuoteData, touched *int) *stubProvider {
	return &stubProvider{
		id:        id,
		intents:   map[finance.Intent]bool{finance.IntentQuote: true},
		enabled:   true,
		result:    finance.Result{Source: id, Timestamp: time.Now(), Data: data},
		fetchedAt: touched,
	}
}

// S1 — Federation default coverage, first provider wins.
func TestResolve_DefaultCoverage_FirstSuccessWins(t *testing.T) {
	bTouched := 0
	a := quoteProvider("A", finance.QuoteData{Symbol: "AAPL", Price: f64(150)}, nil)
	b := quoteProvider("B", finance.QuoteData{Symbol: "AAPL", Price: f64(151)}, &bTouched)

	e := New([]finance.Provider{a, b}, nil)
	q := finance.NormalizedQuery{Intent: finance.IntentQuote, Ticker: "AAPL", Coverage: finance.CoverageDefault}

	res := e.Resolve(context.Background(), q)

	assert.Equal(t, "A", res.Source)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 0, bTouched)
}

// S2 — Federation comprehensive merge.
func TestResolve_ComprehensiveCoverage_MergesAcrossProviders(t *testing.T) {
	pTouched := 0
	y := &stubProvider{
		id:      "Y",
		intents: map[finance.Intent]bool{finance.IntentFundamentals: true},
		enabled: true,
		result: finance.Result{
			Source: "Y", Timestamp: time.Now(),
			Data: finance.FundamentalsData{
				Symbol:  "AAPL",
				Metrics: finance.Metrics{Revenue: finance.Metric{Value: f64(100e9), Period: finance.PeriodTTM}},
				Sector:  "",
			},
		},
	}
	f := &stubProvider{
		id:      "F",
		intents: map[finance.Intent]bool{finance.IntentFundamentals: true},
		enabled: true,
		result: finance.Result{
			Source: "F", Timestamp: time.Now(),
			Data: finance.FundamentalsData{
				Symbol:  "AAPL",
				Metrics: finance.Metrics{Revenue: finance.Metric{Value: f64(110e9), Period: finance.PeriodTTM}},
				Sector:  "Technology",
			},
		},
	}
	p := &stubProvider{
		id:        "P",
		intents:   map[finance.Intent]bool{finance.IntentFundamentals: true},
		enabled:   true,
		fetchedAt: &pTouched,
		result: finance.Result{
			Source: "P", Timestamp: time.Now(),
			Data: finance.FundamentalsData{Symbol: "AAPL"},
		},
	}

	e := New([]finance.Provider{y, f, p}, nil)
	q := finance.NormalizedQuery{Intent: finance.IntentFundamentals, Ticker: "AAPL", Coverage: finance.CoverageComprehensive, Limit: 10}

	res := e.Resolve(context.Background(), q)
	data, ok := res.Data.(finance.FundamentalsData)
	require.True(t, ok)

	assert.Equal(t, 100e9, *data.Metrics.Revenue.Value)
	assert.Equal(t, "Technology", data.Sector)
	assert.Contains(t, res.Source, "Y")
	assert.Contains(t, res.Source, "F")
}

// Form is applied as a post-merge filter, not by the query parser (§4.5).
func TestResolve_FormFilter_KeepsOnlyMatchingForm(t *testing.T) {
	sec := &stubProvider{
		id:      "SEC",
		intents: map[finance.Intent]bool{finance.IntentFilings: true},
		enabled: true,
		result: finance.Result{
			Source: "SEC", Timestamp: time.Now(),
			Data: finance.FilingsData{
				Symbol: "AAPL",
				Filings: []finance.Filing{
					{Form: "10-K", AccessionNumber: "1"},
					{Form: "10-Q", AccessionNumber: "2"},
					{Form: "10-k", AccessionNumber: "3"},
				},
			},
		},
	}

	e := New([]finance.Provider{sec}, nil)
	q := finance.NormalizedQuery{Intent: finance.IntentFilings, Ticker: "AAPL", Form: "10-K"}

	res := e.Resolve(context.Background(), q)
	data, ok := res.Data.(finance.FilingsData)
	require.True(t, ok)

	require.Len(t, data.Filings, 2)
	assert.Equal(t, "1", data.Filings[0].AccessionNumber)
	assert.Equal(t, "3", data.Filings[1].AccessionNumber)
}

func TestResolve_NoEligibleProviders_ReturnsNoneEnvelope(t *testing.T) {
	e := New(nil, nil)
	q := finance.NormalizedQuery{Intent: finance.IntentQuote, Ticker: "AAPL"}

	res := e.Resolve(context.Background(), q)

	assert.Equal(t, "none", res.Source)
	assert.Equal(t, []string{"No finance providers available"}, res.Errors)
}

func TestResolve_AllProvidersFail_ReturnsAllFailures(t *testing.T) {
	a := &stubProvider{
		id:      "A",
		intents: map[finance.Intent]bool{finance.IntentQuote: true},
		enabled: true,
		err:     &finance.ProviderError{Source: "A", Message: "boom", Code: finance.CodeNetwork},
	}
	b := &stubProvider{
		id:      "B",
		intents: map[finance.Intent]bool{finance.IntentQuote: true},
		enabled: true,
		err:     &finance.ProviderError{Source: "B", Message: "rate limited 429", Code: finance.CodeRateLimit},
	}

	e := New([]finance.Provider{a, b}, nil)
	q := finance.NormalizedQuery{Intent: finance.IntentQuote, Ticker: "AAPL"}

	res := e.Resolve(context.Background(), q)

	assert.Equal(t, "none", res.Source)
	assert.Len(t, res.Errors, 2)
}

func TestResolve_DisabledOrUnsupportedProvider_IsFiltered(t *testing.T) {
	disabled := &stubProvider{id: "X", intents: map[finance.Intent]bool{finance.IntentQuote: true}, enabled: false}
	unsupported := &stubProvider{id: "Y", intents: map[finance.Intent]bool{finance.IntentNews: true}, enabled: true}

	e := New([]finance.Provider{disabled, unsupported}, nil)
	q := finance.NormalizedQuery{Intent: finance.IntentQuote, Ticker: "AAPL"}

	res := e.Resolve(context.Background(), q)

	assert.Equal(t, "none", res.Source)
}
