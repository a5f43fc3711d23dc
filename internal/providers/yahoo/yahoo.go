// Package yahoo adapts Yahoo Finance's unauthenticated quote/fundamentals/
// news endpoints into the canonical finance envelope (§4.6, SPEC_FULL.md "E").
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/finscope/aggregator/internal/finance"
	"github.com/finscope/aggregator/internal/providers/httpclient"
)

var baseURL = "https://query1.finance.yahoo.com"

// Provider implements finance.Provider for Yahoo Finance.
type Provider struct {
	client *httpclient.Client
}

// New builds a Yahoo provider. Yahoo requires no API key (§SPEC_FULL.md "E":
// "402/403 never occurs (free tier)").
func New() *Provider {
	return &Provider{client: httpclient.New("yahoo", httpclient.Config{})}
}

func (p *Provider) ID() string          { return "yahoo" }
func (p *Provider) DisplayName() string { return "Yahoo Finance" }

func (p *Provider) Supports(intent finance.Intent) bool {
	switch intent {
	case finance.IntentQuote, finance.IntentFundamentals, finance.IntentNews:
		return true
	}
	return false
}

func (p *Provider) Enabled() bool { return true }

func (p *Provider) Fetch(ctx context.Context, q finance.NormalizedQuery, opts finance.FetchOptions) (finance.Result, error) {
	switch q.Intent {
	case finance.IntentQuote:
		return p.fetchQuote(ctx, q)
	case finance.IntentFundamentals:
		return p.fetchFundamentals(ctx, q)
	case finance.IntentNews:
		return p.fetchNews(ctx, q)
	}
	return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: "unsupported intent", Code: finance.CodeUnsupported}
}

func (p *Provider) fetchQuote(ctx context.Context, q finance.NormalizedQuery) (finance.Result, error) {
	u := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", baseURL, url.QueryEscape(q.Ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return finance.Result{}, err
	}
	_, body, err := p.client.Do(ctx, req)
	if err != nil {
		return finance.Result{}, err
	}

	payload, err := httpclient.DecodeLenient(body)
	if err != nil {
		return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: err.Error(), Code: finance.CodeProviderErr, Cause: err}
	}
	row := firstQuoteResult(payload)

	data := finance.QuoteData{Symbol: q.Ticker, Currency: "USD"}
	if v, ok := httpclient.Float(row, "regularMarketPrice"); ok {
		data.Price = &v
	}
	if v, ok := httpclient.Float(row, "regularMarketPreviousClose"); ok {
		data.PreviousClose = &v
	}
	if v, ok := httpclient.Float(row, "regularMarketChange"); ok {
		data.Change = &v
	}
	if v, ok := httpclient.Float(row, "regularMarketChangePercent"); ok {
		data.ChangePercent = &v
	}
	if v, ok := httpclient.Float(row, "marketCap"); ok {
		data.MarketCap = &v
	}
	if v, ok := httpclient.Float(row, "fiftyTwoWeekHigh"); ok {
		data.High52w = &v
	}
	if v, ok := httpclient.Float(row, "fiftyTwoWeekLow"); ok {
		data.Low52w = &v
	}
	if v, ok := httpclient.Float(row, "ytdReturn"); ok {
		data.YTDReturnPercent = &v
	}
	if c, ok := httpclient.String(row, "currency"); ok {
		data.Currency = c
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Yahoo Finance", Domain: "finance.yahoo.com", URL: "https://finance.yahoo.com/quote/" + q.Ticker}},
		Data:        data,
	}, nil
}

// firstQuoteResult drills into quoteResponse.result[0] from the v7 payload.
func firstQuoteResult(payload map[string]interface{}) map[string]interface{} {
	resp, ok := payload["quoteResponse"].(map[string]interface{})
	if !ok {
		return nil
	}
	results, ok := resp["result"].([]interface{})
	if !ok || len(results) == 0 {
		return nil
	}
	row, _ := results[0].(map[string]interface{})
	return row
}

func (p *Provider) fetchFundamentals(ctx context.Context, q finance.NormalizedQuery) (finance.Result, error) {
	modules := "summaryDetail,financialData,defaultKeyStatistics,assetProfile"
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", baseURL, url.PathEscape(q.Ticker), modules)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return finance.Result{}, err
	}
	_, body, err := p.client.Do(ctx, req)
	if err != nil {
		return finance.Result{}, err
	}

	payload, err := httpclient.DecodeLenient(body)
	if err != nil {
		return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: err.Error(), Code: finance.CodeProviderErr, Cause: err}
	}
	result := firstQuoteSummaryResult(payload)
	summaryDetail, _ := result["summaryDetail"].(map[string]interface{})
	financialData, _ := result["financialData"].(map[string]interface{})
	keyStats, _ := result["defaultKeyStatistics"].(map[string]interface{})
	profile, _ := result["assetProfile"].(map[string]interface{})

	data := finance.FundamentalsData{Symbol: q.Ticker}
	if v, ok := rawFormattedFloat(financialData, "totalRevenue"); ok {
		data.Metrics.Revenue = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := rawFormattedFloat(financialData, "netIncomeToCommon"); ok {
		data.Metrics.NetIncome = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := rawFormattedFloat(financialData, "grossMargins"); ok {
		pct := v * 100
		data.Metrics.GrossMarginPct = finance.Metric{Value: &pct, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := rawFormattedFloat(financialData, "debtToEquity"); ok {
		data.Metrics.DebtToEquity = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := rawFormattedFloat(financialData, "returnOnEquity"); ok {
		pct := v * 100
		data.Metrics.ROEPct = finance.Metric{Value: &pct, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := rawFormattedFloat(financialData, "operatingMargins"); ok {
		pct := v * 100
		data.Metrics.OperatingMarginPct = finance.Metric{Value: &pct, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := rawFormattedFloat(financialData, "freeCashflow"); ok {
		data.Metrics.FreeCashFlow = finance.Metric{Value: &v, Period: finance.PeriodTTM, Derivation: finance.DerivationReported}
	}
	if v, ok := rawFormattedFloat(summaryDetail, "marketCap"); ok {
		data.MarketCap = &v
	}
	if s, ok := httpclient.String(profile, "sector"); ok {
		data.Sector = s
	}
	if city, ok := httpclient.String(profile, "city"); ok {
		if state, ok := httpclient.String(profile, "state"); ok {
			data.Headquarters = city + ", " + state
		} else {
			data.Headquarters = city
		}
	}
	if s, ok := httpclient.String(profile, "website"); ok {
		data.Website = s
	}
	if v, ok := rawFormattedFloat(keyStats, "recommendationMean"); ok {
		_ = v // Yahoo exposes a mean recommendation rather than bucket counts; no reliable per-bucket mapping.
	}
	data.Period = finance.PeriodTTM

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Yahoo Finance", Domain: "finance.yahoo.com", URL: "https://finance.yahoo.com/quote/" + q.Ticker}},
		Data:        data,
	}, nil
}

func firstQuoteSummaryResult(payload map[string]interface{}) map[string]interface{} {
	resp, ok := payload["quoteSummary"].(map[string]interface{})
	if !ok {
		return nil
	}
	results, ok := resp["result"].([]interface{})
	if !ok || len(results) == 0 {
		return nil
	}
	row, _ := results[0].(map[string]interface{})
	return row
}

// rawFormattedFloat reads Yahoo's `{raw, fmt}` wrapped numeric fields.
func rawFormattedFloat(m map[string]interface{}, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	wrapped, ok := m[key].(map[string]interface{})
	if !ok {
		return httpclient.Float(m, key)
	}
	return httpclient.Float(wrapped, "raw")
}

func (p *Provider) fetchNews(ctx context.Context, q finance.NormalizedQuery) (finance.Result, error) {
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&newsCount=%d", baseURL, url.QueryEscape(q.Ticker), clampLimit(q.Limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return finance.Result{}, err
	}
	_, body, err := p.client.Do(ctx, req)
	if err != nil {
		return finance.Result{}, err
	}

	payload, err := httpclient.DecodeLenient(body)
	if err != nil {
		return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: err.Error(), Code: finance.CodeProviderErr, Cause: err}
	}
	rawItems, _ := payload["news"].([]interface{})

	items := make([]finance.NewsItem, 0, len(rawItems))
	for _, raw := range rawItems {
		row, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		item := finance.NewsItem{}
		item.Title, _ = httpclient.String(row, "title")
		item.Source, _ = httpclient.String(row, "publisher")
		item.URL, _ = httpclient.String(row, "link")
		if ts, ok := httpclient.Float(row, "providerPublishTime"); ok {
			item.PublishedAt = time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Yahoo Finance", Domain: "finance.yahoo.com"}},
		Data:        finance.NewsData{Symbol: q.Ticker, Items: items},
	}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}

// DailyBar is one trading session's closing price, as returned by the
// chart endpoint.
type DailyBar struct {
	Date  time.Time
	Close float64
}

// FetchDailyBars returns daily closes for symbol over range (e.g. "1y",
// "6mo"), the sole price-history source for the political backtest engine
// (SPEC_FULL.md "G": "Price history... fetched once per unique symbol").
// Bypasses the finance.Provider envelope the same way quiverquant's raw-row
// methods do, since no canonical intent models OHLC history.
func (p *Provider) FetchDailyBars(ctx context.Context, symbol, rangeSpec string) ([]DailyBar, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%s", baseURL, url.PathEscape(symbol), url.QueryEscape(rangeSpec))
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

	chart, _ := payload["chart"].(map[string]interface{})
	results, _ := chart["result"].([]interface{})
	if len(results) == 0 {
		return nil, &finance.ProviderError{Source: p.ID(), Message: "empty chart result for " + symbol, Code: finance.CodeProviderErr}
	}
	result, _ := results[0].(map[string]interface{})

	timestamps, _ := result["timestamp"].([]interface{})
	indicators, _ := result["indicators"].(map[string]interface{})
	quoteList, _ := indicators["quote"].([]interface{})
	if len(quoteList) == 0 {
		return nil, &finance.ProviderError{Source: p.ID(), Message: "no quote series for " + symbol, Code: finance.CodeProviderErr}
	}
	quote, _ := quoteList[0].(map[string]interface{})
	closes, _ := quote["close"].([]interface{})

	bars := make([]DailyBar, 0, len(timestamps))
	for i, rawTS := range timestamps {
		ts, ok := rawTS.(float64)
		if !ok || i >= len(closes) {
			continue
		}
		close, ok := closes[i].(float64)
		if !ok {
			continue
		}
		bars = append(bars, DailyBar{
			Date:  time.Unix(int64(ts), 0).UTC().Truncate(24 * time.Hour),
			Close: close,
		})
	}
	return bars, nil
}
