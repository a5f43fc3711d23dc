// Package fmp adapts Financial Modeling Prep's quote/key-metrics/ratios/
// sec_filings endpoints (§4.6, SPEC_FULL.md "E").
package fmp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/finscope/aggregator/internal/finance"
	"github.com/finscope/aggregator/internal/providers/httpclient"
	"github.com/finscope/aggregator/internal/secrets"
)

var baseURL = "https://financialmodelingprep.com/api"

// Provider implements finance.Provider for Financial Modeling Prep.
type Provider struct {
	client   *httpclient.Client
	resolver *secrets.Resolver
}

// New builds an FMP provider.
func New(resolver *secrets.Resolver) *Provider {
	return &Provider{
		client:   httpclient.New("fmp", httpclient.Config{RequestsPerSecond: 0.5, Burst: 1}),
		resolver: resolver,
	}
}

func (p *Provider) ID() string          { return "fmp" }
func (p *Provider) DisplayName() string { return "Financial Modeling Prep" }

func (p *Provider) Supports(intent finance.Intent) bool {
	switch intent {
	case finance.IntentQuote, finance.IntentFundamentals, finance.IntentFilings:
		return true
	}
	return false
}

func (p *Provider) Enabled() bool {
	_, ok := p.resolver.ResolveProviderApiKey(p.ID(), secrets.ResolveOptions{Trim: true})
	return ok
}

func (p *Provider) apiKey() (string, error) {
	key, ok := p.resolver.ResolveProviderApiKey(p.ID(), secrets.ResolveOptions{Trim: true})
	if !ok {
		return "", &finance.ProviderError{Source: p.ID(), Message: "no API key configured", Code: finance.CodeMissingAuth}
	}
	return key, nil
}

func (p *Provider) Fetch(ctx context.Context, q finance.NormalizedQuery, opts finance.FetchOptions) (finance.Result, error) {
	key, err := p.apiKey()
	if err != nil {
		return finance.Result{}, err
	}
	switch q.Intent {
	case finance.IntentQuote:
		return p.fetchQuote(ctx, q, key)
	case finance.IntentFundamentals:
		return p.fetchMetrics(ctx, q, key)
	case finance.IntentFilings:
		return p.fetchFilings(ctx, q, key)
	}
	return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: "unsupported intent", Code: finance.CodeUnsupported}
}

func (p *Provider) getArray(ctx context.Context, path string, params url.Values) ([]interface{}, error) {
	u := fmt.Sprintf("%s%s?%s", baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	_, body, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	items, err := httpclient.DecodeLenientArray(body)
	if err != nil {
		return nil, &finance.ProviderError{Source: p.ID(), Message: err.Error(), Code: finance.CodeProviderErr, Cause: err}
	}
	return items, nil
}

func firstRow(rows []interface{}) map[string]interface{} {
	if len(rows) == 0 {
		return nil
	}
	row, _ := rows[0].(map[string]interface{})
	return row
}

func (p *Provider) fetchQuote(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	rows, err := p.getArray(ctx, "/v3/quote/"+url.PathEscape(q.Ticker), url.Values{"apikey": {key}})
	if err != nil {
		return finance.Result{}, err
	}
	row := firstRow(rows)

	data := finance.QuoteData{Symbol: q.Ticker, Currency: "USD"}
	if v, ok := httpclient.Float(row, "price"); ok {
		data.Price = &v
	}
	if v, ok := httpclient.Float(row, "previousClose"); ok {
		data.PreviousClose = &v
	}
	if v, ok := httpclient.Float(row, "change"); ok {
		data.Change = &v
	}
	if v, ok := httpclient.Float(row, "changesPercentage"); ok {
		data.ChangePercent = &v
	}
	if v, ok := httpclient.Float(row, "marketCap"); ok {
		data.MarketCap = &v
	}
	if v, ok := httpclient.Float(row, "yearHigh"); ok {
		data.High52w = &v
	}
	if v, ok := httpclient.Float(row, "yearLow"); ok {
		data.Low52w = &v
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Financial Modeling Prep", Domain: "financialmodelingprep.com"}},
		Data:        data,
	}, nil
}

func (p *Provider) fetchMetrics(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	metricRows, err := p.getArray(ctx, "/v3/key-metrics-ttm/"+url.PathEscape(q.Ticker), url.Values{"apikey": {key}})
	if err != nil {
		return finance.Result{}, err
	}
	ratioRows, err := p.getArray(ctx, "/v3/ratios-ttm/"+url.PathEscape(q.Ticker), url.Values{"apikey": {key}})
	if err != nil {
		return finance.Result{}, err
	}
	metric := firstRow(metricRows)
	ratio := firstRow(ratioRows)

	data := finance.FundamentalsData{Symbol: q.Ticker}
	if v, ok := httpclient.Float(metric, "revenuePerShareTTM"); ok {
		data.Metrics.Revenue = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationDerived}
	}
	if v, ok := httpclient.Float(metric, "netIncomePerShareTTM"); ok {
		data.Metrics.NetIncome = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationDerived}
	}
	if v, ok := httpclient.Float(ratio, "grossProfitMarginTTM"); ok {
		pct := v * 100
		data.Metrics.GrossMarginPct = finance.Metric{Value: &pct, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(metric, "debtToEquityTTM"); ok {
		data.Metrics.DebtToEquity = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(metric, "roeTTM"); ok {
		pct := v * 100
		data.Metrics.ROEPct = finance.Metric{Value: &pct, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(ratio, "operatingProfitMarginTTM"); ok {
		pct := v * 100
		data.Metrics.OperatingMarginPct = finance.Metric{Value: &pct, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(metric, "marketCapTTM"); ok {
		data.MarketCap = &v
	}
	data.Period = finance.PeriodTTM

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Financial Modeling Prep", Domain: "financialmodelingprep.com"}},
		Data:        data,
	}, nil
}

func (p *Provider) fetchFilings(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{"apikey": {key}, "limit": {fmt.Sprintf("%d", limit)}}
	if q.Form != "" {
		params.Set("type", q.Form)
	}
	rows, err := p.getArray(ctx, "/v3/sec_filings/"+url.PathEscape(q.Ticker), params)
	if err != nil {
		return finance.Result{}, err
	}

	filings := make([]finance.Filing, 0, len(rows))
	for _, raw := range rows {
		row, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		f := finance.Filing{}
		f.Form, _ = httpclient.String(row, "type")
		f.FilingDate, _ = httpclient.String(row, "fillingDate")
		f.URL, _ = httpclient.String(row, "finalLink")
		f.AccessionNumber, _ = httpclient.String(row, "accessionNumber")
		filings = append(filings, f)
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Financial Modeling Prep", Domain: "financialmodelingprep.com"}},
		Data:        finance.FilingsData{Symbol: q.Ticker, Filings: filings},
	}, nil
}
