// Package alphavantage adapts Alpha Vantage's GLOBAL_QUOTE and OVERVIEW
// endpoints (§4.6, SPEC_FULL.md "E").
package alphavantage

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/finscope/aggregator/internal/finance"
	"github.com/finscope/aggregator/internal/providers/httpclient"
	"github.com/finscope/aggregator/internal/secrets"
)

var baseURL = "https://www.alphavantage.co/query"

// Provider implements finance.Provider for Alpha Vantage.
type Provider struct {
	client   *httpclient.Client
	resolver *secrets.Resolver
}

// New builds an Alpha Vantage provider backed by resolver for API-key lookup.
func New(resolver *secrets.Resolver) *Provider {
	return &Provider{
		client:   httpclient.New("alphavantage", httpclient.Config{RequestsPerSecond: 0.08, Burst: 1}),
		resolver: resolver,
	}
}

func (p *Provider) ID() string          { return "alphavantage" }
func (p *Provider) DisplayName() string { return "Alpha Vantage" }

func (p *Provider) Supports(intent finance.Intent) bool {
	return intent == finance.IntentQuote || intent == finance.IntentFundamentals
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
		return p.fetchOverview(ctx, q, key)
	}
	return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: "unsupported intent", Code: finance.CodeUnsupported}
}

func (p *Provider) get(ctx context.Context, params url.Values) (map[string]interface{}, error) {
	u := fmt.Sprintf("%s?%s", baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	_, body, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	payload, err := httpclient.DecodeLenient(body)
	if err != nil {
		return nil, &finance.ProviderError{Source: p.ID(), Message: err.Error(), Code: finance.CodeProviderErr, Cause: err}
	}
	if note, ok := httpclient.String(payload, "Note"); ok {
		return nil, &finance.ProviderError{Source: p.ID(), Message: note, Code: finance.CodeRateLimit}
	}
	if info, ok := httpclient.String(payload, "Information"); ok && strings.Contains(strings.ToLower(info), "rate") {
		return nil, &finance.ProviderError{Source: p.ID(), Message: info, Code: finance.CodeRateLimit}
	}
	return payload, nil
}

func (p *Provider) fetchQuote(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	params := url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {q.Ticker}, "apikey": {key}}
	payload, err := p.get(ctx, params)
	if err != nil {
		return finance.Result{}, err
	}
	row, _ := payload["Global Quote"].(map[string]interface{})

	data := finance.QuoteData{Symbol: q.Ticker, Currency: "USD"}
	if v, ok := httpclient.Float(row, "05. price"); ok {
		data.Price = &v
	}
	if v, ok := httpclient.Float(row, "08. previous close"); ok {
		data.PreviousClose = &v
	}
	if v, ok := httpclient.Float(row, "09. change"); ok {
		data.Change = &v
	}
	if s, ok := httpclient.String(row, "10. change percent"); ok {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64); err == nil {
			data.ChangePercent = &v
		}
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Alpha Vantage", Domain: "alphavantage.co"}},
		Data:        data,
	}, nil
}

func (p *Provider) fetchOverview(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	params := url.Values{"function": {"OVERVIEW"}, "symbol": {q.Ticker}, "apikey": {key}}
	row, err := p.get(ctx, params)
	if err != nil {
		return finance.Result{}, err
	}

	data := finance.FundamentalsData{Symbol: q.Ticker}
	if v, ok := httpclient.Float(row, "RevenueTTM"); ok {
		data.Metrics.Revenue = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(row, "NetIncomeTTM"); ok {
		data.Metrics.NetIncome = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(row, "GrossProfitTTM"); ok {
		if rev, ok := httpclient.Float(row, "RevenueTTM"); ok && rev != 0 {
			pct := v / rev * 100
			data.Metrics.GrossMarginPct = finance.Metric{Value: &pct, Period: finance.PeriodTTM, Derivation: finance.DerivationDerived}
		}
	}
	if v, ok := httpclient.Float(row, "ReturnOnEquityTTM"); ok {
		pct := v * 100
		data.Metrics.ROEPct = finance.Metric{Value: &pct, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(row, "OperatingMarginTTM"); ok {
		pct := v * 100
		data.Metrics.OperatingMarginPct = finance.Metric{Value: &pct, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(row, "MarketCapitalization"); ok {
		data.MarketCap = &v
	}
	if s, ok := httpclient.String(row, "Sector"); ok {
		data.Sector = s
	}
	if s, ok := httpclient.String(row, "Address"); ok {
		data.Headquarters = s
	}
	if s, ok := httpclient.String(row, "OfficialSite"); ok {
		data.Website = s
	}
	if v, ok := httpclient.Float(row, "AnalystRatingStrongBuy"); ok {
		data.AnalystRatings.StrongBuy = &v
	}
	if v, ok := httpclient.Float(row, "AnalystRatingBuy"); ok {
		data.AnalystRatings.Buy = &v
	}
	if v, ok := httpclient.Float(row, "AnalystRatingHold"); ok {
		data.AnalystRatings.Hold = &v
	}
	if v, ok := httpclient.Float(row, "AnalystRatingSell"); ok {
		data.AnalystRatings.Sell = &v
	}
	if v, ok := httpclient.Float(row, "AnalystRatingStrongSell"); ok {
		data.AnalystRatings.StrongSell = &v
	}
	data.Period = finance.PeriodTTM

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Alpha Vantage", Domain: "alphavantage.co"}},
		Data:        data,
	}, nil
}
