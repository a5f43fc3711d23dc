// Package polygon adapts Polygon.io's last-trade/prev-aggregate/reference-news
// endpoints (§4.6, SPEC_FULL.md "E").
package polygon

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

var baseURL = "https://api.polygon.io"

// Provider implements finance.Provider for Polygon.io.
type Provider struct {
	client   *httpclient.Client
	resolver *secrets.Resolver
}

// New builds a Polygon provider.
func New(resolver *secrets.Resolver) *Provider {
	return &Provider{
		client:   httpclient.New("polygon", httpclient.Config{RequestsPerSecond: 5, Burst: 5}),
		resolver: resolver,
	}
}

func (p *Provider) ID() string          { return "polygon" }
func (p *Provider) DisplayName() string { return "Polygon.io" }

func (p *Provider) Supports(intent finance.Intent) bool {
	return intent == finance.IntentQuote || intent == finance.IntentNews
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
	case finance.IntentNews:
		return p.fetchNews(ctx, q, key)
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

func (p *Provider) fetchQuote(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	last, err := p.get(ctx, "/v2/last/trade/"+url.PathEscape(q.Ticker), url.Values{"apiKey": {key}})
	if err != nil {
		return finance.Result{}, err
	}
	prev, err := p.get(ctx, "/v2/aggs/ticker/"+url.PathEscape(q.Ticker)+"/prev", url.Values{"apiKey": {key}})
	if err != nil {
		return finance.Result{}, err
	}

	data := finance.QuoteData{Symbol: q.Ticker, Currency: "USD"}
	if results, ok := last["results"].(map[string]interface{}); ok {
		if v, ok := httpclient.Float(results, "p"); ok {
			data.Price = &v
		}
	}
	if rows, ok := prev["results"].([]interface{}); ok && len(rows) > 0 {
		row, _ := rows[0].(map[string]interface{})
		if v, ok := httpclient.Float(row, "c"); ok {
			data.PreviousClose = &v
		}
		if v, ok := httpclient.Float(row, "h"); ok {
			data.High52w = &v
		}
		if v, ok := httpclient.Float(row, "l"); ok {
			data.Low52w = &v
		}
	}
	if data.Price != nil && data.PreviousClose != nil && *data.PreviousClose != 0 {
		change := *data.Price - *data.PreviousClose
		pct := change / *data.PreviousClose * 100
		data.Change = &change
		data.ChangePercent = &pct
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Polygon.io", Domain: "polygon.io"}},
		Data:        data,
	}, nil
}

func (p *Provider) fetchNews(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	payload, err := p.get(ctx, "/v2/reference/news", url.Values{
		"ticker": {q.Ticker},
		"limit":  {fmt.Sprintf("%d", limit)},
		"apiKey": {key},
	})
	if err != nil {
		return finance.Result{}, err
	}
	rows, _ := payload["results"].([]interface{})

	items := make([]finance.NewsItem, 0, len(rows))
	for _, raw := range rows {
		row, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		item := finance.NewsItem{}
		item.Title, _ = httpclient.String(row, "title")
		if pub, ok := row["publisher"].(map[string]interface{}); ok {
			item.Source, _ = httpclient.String(pub, "name")
		}
		item.URL, _ = httpclient.String(row, "article_url")
		item.Summary, _ = httpclient.String(row, "description")
		item.PublishedAt, _ = httpclient.String(row, "published_utc")
		items = append(items, item)
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Polygon.io", Domain: "polygon.io"}},
		Data:        finance.NewsData{Symbol: q.Ticker, Items: items},
	}, nil
}
