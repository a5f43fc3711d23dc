// Package quartr adapts Quartr's company-profile and event-transcript
// endpoints (§4.6, SPEC_FULL.md "E"). Transcripts are projected as filings
// with form="transcript".
package quartr

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

var baseURL = "https://api.quartr.com/public/v1"

// Provider implements finance.Provider for Quartr.
type Provider struct {
	client   *httpclient.Client
	resolver *secrets.Resolver
}

// New builds a Quartr provider.
func New(resolver *secrets.Resolver) *Provider {
	return &Provider{
		client:   httpclient.New("quartr", httpclient.Config{RequestsPerSecond: 2, Burst: 2}),
		resolver: resolver,
	}
}

func (p *Provider) ID() string          { return "quartr" }
func (p *Provider) DisplayName() string { return "Quartr" }

func (p *Provider) Supports(intent finance.Intent) bool {
	return intent == finance.IntentFundamentals || intent == finance.IntentFilings
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
	case finance.IntentFundamentals:
		return p.fetchProfile(ctx, q, key)
	case finance.IntentFilings:
		return p.fetchTranscripts(ctx, q, key)
	}
	return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: "unsupported intent", Code: finance.CodeUnsupported}
}

func (p *Provider) authedRequest(ctx context.Context, u, key string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
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

func (p *Provider) fetchProfile(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	u := fmt.Sprintf("%s/companies/%s", baseURL, url.PathEscape(q.Ticker))
	payload, err := p.authedRequest(ctx, u, key)
	if err != nil {
		return finance.Result{}, err
	}

	data := finance.FundamentalsData{Symbol: q.Ticker}
	data.Sector, _ = httpclient.String(payload, "sector")
	data.Headquarters, _ = httpclient.String(payload, "headquarters")
	data.Website, _ = httpclient.String(payload, "website")
	data.IconURL, _ = httpclient.String(payload, "logoUrl")
	data.Period = finance.PeriodUnknown

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Quartr", Domain: "quartr.com"}},
		Data:        data,
	}, nil
}

func (p *Provider) fetchTranscripts(ctx context.Context, q finance.NormalizedQuery, key string) (finance.Result, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	u := fmt.Sprintf("%s/companies/%s/events?limit=%d", baseURL, url.PathEscape(q.Ticker), limit)
	payload, err := p.authedRequest(ctx, u, key)
	if err != nil {
		return finance.Result{}, err
	}
	rows, _ := payload["events"].([]interface{})

	filings := make([]finance.Filing, 0, len(rows))
	for _, raw := range rows {
		row, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		f := finance.Filing{Form: "transcript"}
		f.FilingDate, _ = httpclient.String(row, "date")
		f.URL, _ = httpclient.String(row, "transcriptUrl")
		f.Summary, _ = httpclient.String(row, "title")
		filings = append(filings, f)
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "Quartr", Domain: "quartr.com"}},
		Data:        finance.FilingsData{Symbol: q.Ticker, Filings: filings},
	}, nil
}
