// Package finnhub adapts Finnhub's quote/metric/news/insider-transactions
// endpoints (§4.6, SPEC_FULL.md "E").
package finnhub

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/finscope/aggregator/internal/finance"
	"github.com/finscope/aggregator/internal/providers/httpclient"
	"github.com/finscope/aggregator/internal/secrets"
)

var baseURL = "https://finnhub.io/api/v1"

// Provider implements finance.Provider for Finnhub.
type Provider struct {
	client   *httpclient.Client
	resolver *secrets.Resolver
}

// New builds a Finnhub provider.
func New(resolver *secrets.Resolver) *Provider {
	return &Provider{
		client:   httpclient.New("finnhub", httpclient.Config{RequestsPerSecond: 1, Burst: 2}),
		resolver: resolver,
	}
}

func (p *Provider) ID() string          { return "finnhub" }
func (p *Provider) DisplayName() string { return "Finnhub" }

func (p *Provider) Supports(intent finance.Intent) bool {
	switch intent {
	case finance.IntentQuote, finance.IntentFundamentals, finance.IntentNews, finance.IntentInsider:
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
		return p.fetchMetric(ctx, q, key)
	case finance.IntentNews:
		return p.fetchNews(ctx, q, key)
	case finance.IntentInsider:
		return p.fetchInsider(ctx, q, key)
	}
	return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: "unsupported intent", Code: finance.CodeUnsupported}
}

func (p *Provider) get(ctx context.Context, path string, params url.Values) (map[string]interface{}, error) {
	u := fmt.Sprintf("%s%s?%s", baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, body, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusPaymentRequired {
		return nil, &finance.ProviderError{Source: p.ID(), Message: "plan tier insufficient", Code: finance.CodeTierDenied}
	}
	payload, err := httpclient.DecodeLenient(body)
	if err != nil {
		return nil, &finance.ProviderError{Source: p.ID(), Message: err.Error(), Code: finance.CodeProviderErr, Cause: err}
	}
	return payload, nil
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

func (p *Provider) fetchQuote(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	row, err := p.get(ctx, "/quote", url.Values{"symbol": {q.Ticker}, "token": {key}})
	if err != nil {
		return finance.Result{}, err
	}
	data := finance.QuoteData{Symbol: q.Ticker, Currency: "USD"}
	if v, ok := httpclient.Float(row, "c"); ok {
		data.Price = &v
	}
	if v, ok := httpclient.Float(row, "pc"); ok {
		data.PreviousClose = &v
	}
	if v, ok := httpclient.Float(row, "d"); ok {
		data.Change = &v
	}
	if v, ok := httpclient.Float(row, "dp"); ok {
		data.ChangePercent = &v
	}
	if v, ok := httpclient.Float(row, "h"); ok {
		data.High52w = &v
	}
	if v, ok := httpclient.Float(row, "l"); ok {
		data.Low52w = &v
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Finnhub", Domain: "finnhub.io"}},
		Data:        data,
	}, nil
}

func (p *Provider) fetchMetric(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	payload, err := p.get(ctx, "/stock/metric", url.Values{"symbol": {q.Ticker}, "metric": {"all"}, "token": {key}})
	if err != nil {
		return finance.Result{}, err
	}
	metric, _ := payload["metric"].(map[string]interface{})

	data := finance.FundamentalsData{Symbol: q.Ticker}
	if v, ok := httpclient.Float(metric, "netIncomeTTM"); ok {
		data.Metrics.NetIncome = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(metric, "grossMarginTTM"); ok {
		data.Metrics.GrossMarginPct = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(metric, "totalDebt/totalEquityAnnual"); ok {
		data.Metrics.DebtToEquity = finance.Metric{Value: &v, Period: finance.PeriodFY, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(metric, "roeTTM"); ok {
		data.Metrics.ROEPct = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(metric, "operatingMarginTTM"); ok {
		data.Metrics.OperatingMarginPct = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := httpclient.Float(metric, "marketCapitalization"); ok {
		data.MarketCap = &v
	}
	data.Period = finance.PeriodTTM

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Finnhub", Domain: "finnhub.io"}},
		Data:        data,
	}, nil
}

func (p *Provider) fetchNews(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	params := url.Values{
		"symbol": {q.Ticker},
		"from":   {from.Format("2006-01-02")},
		"to":     {to.Format("2006-01-02")},
		"token":  {key},
	}
	rows, err := p.getArray(ctx, "/company-news", params)
	if err != nil {
		return finance.Result{}, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	items := make([]finance.NewsItem, 0, len(rows))
	for _, raw := range rows {
		if len(items) >= limit {
			break
		}
		row, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		item := finance.NewsItem{}
		item.Title, _ = httpclient.String(row, "headline")
		item.Source, _ = httpclient.String(row, "source")
		item.URL, _ = httpclient.String(row, "url")
		item.Summary, _ = httpclient.String(row, "summary")
		if ts, ok := httpclient.Float(row, "datetime"); ok {
			item.PublishedAt = time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Finnhub", Domain: "finnhub.io"}},
		Data:        finance.NewsData{Symbol: q.Ticker, Items: items},
	}, nil
}

func (p *Provider) fetchInsider(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	payload, err := p.get(ctx, "/stock/insider-transactions", url.Values{"symbol": {q.Ticker}, "token": {key}})
	if err != nil {
		return finance.Result{}, err
	}
	rows, _ := payload["data"].([]interface{})

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	maxEntries := limit * 5

	entries := make([]finance.InsiderEntry, 0, len(rows))
	var ownershipChange float64
	for _, raw := range rows {
		if len(entries) >= maxEntries {
			break
		}
		row, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		entry := finance.InsiderEntry{Security: "common stock"}
		entry.Owner, _ = httpclient.String(row, "name")
		entry.Date, _ = httpclient.String(row, "transactionDate")
		if v, ok := httpclient.Float(row, "change"); ok {
			entry.SharesChange = v
			entry.Shares = math.Abs(v)
			ownershipChange += v
			if v > 0 {
				entry.TransactionType = finance.TransactionBuy
			} else if v < 0 {
				entry.TransactionType = finance.TransactionSell
			} else {
				entry.TransactionType = finance.TransactionOther
			}
		}
		entries = append(entries, entry)
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Finnhub", Domain: "finnhub.io"}},
		Data:        finance.InsiderData{Symbol: q.Ticker, Entries: entries, OwnershipChange: ownershipChange},
	}, nil
}
