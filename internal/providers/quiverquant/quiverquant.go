// Package quiverquant adapts QuiverQuant's government-trading, Form-4, and
// alternative-data endpoints (§4.6, §4.1, SPEC_FULL.md "E"). It is both a
// finance.Provider (the `insider` intent, tier-gated) and, via its raw-row
// methods, the sole upstream for the political backtest and off-exchange
// anomaly workflows, which bypass the `insider` envelope projection and
// consume Quiver rows directly.
package quiverquant

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

var baseURL = "https://api.quiverquant.com/beta"

// Endpoint tiers (§3.4, §4.6): government-trading and alternative-data rows
// are tier_1; live Form-4 insider transactions require tier_2.
const (
	endpointForm4          = secrets.EndpointTier2
	endpointGovernment      = secrets.EndpointTier1
	endpointAlternativeData = secrets.EndpointTier1
)

// Provider implements finance.Provider for QuiverQuant and exposes the raw
// row-returning methods consumed directly by the backtest/darkpool CLIs.
type Provider struct {
	client   *httpclient.Client
	resolver *secrets.Resolver
}

// New builds a QuiverQuant provider.
func New(resolver *secrets.Resolver) *Provider {
	return &Provider{
		client:   httpclient.New("quiver", httpclient.Config{RequestsPerSecond: 2, Burst: 2}),
		resolver: resolver,
	}
}

func (p *Provider) ID() string          { return "quiver" }
func (p *Provider) DisplayName() string { return "QuiverQuant" }

func (p *Provider) Supports(intent finance.Intent) bool { return intent == finance.IntentInsider }

func (p *Provider) Enabled() bool {
	_, ok := p.resolver.ResolveProviderApiKey(p.ID(), secrets.ResolveOptions{Trim: true})
	return ok
}

func (p *Provider) credential() (secrets.QuiverCredential, error) {
	cred, ok := p.resolver.ResolveQuiverProviderCredential(secrets.ResolveOptions{Trim: true})
	if !ok {
		return secrets.QuiverCredential{}, &finance.ProviderError{Source: p.ID(), Message: "no API key configured", Code: finance.CodeMissingAuth}
	}
	return cred, nil
}

func (p *Provider) Fetch(ctx context.Context, q finance.NormalizedQuery, opts finance.FetchOptions) (finance.Result, error) {
	if q.Intent != finance.IntentInsider {
		return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: "unsupported intent", Code: finance.CodeUnsupported}
	}
	cred, err := p.credential()
	if err != nil {
		return finance.Result{}, err
	}

	if secrets.TierAllows(endpointForm4, cred.Tier) {
		return p.fetchForm4(ctx, q, cred)
	}
	return p.fetchTier1Fallback(ctx, q, cred)
}

func (p *Provider) get(ctx context.Context, path string, key string) ([]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
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
	rows, err := httpclient.DecodeLenientArray(body)
	if err != nil {
		return nil, &finance.ProviderError{Source: p.ID(), Message: err.Error(), Code: finance.CodeProviderErr, Cause: err}
	}
	return rows, nil
}

func (p *Provider) fetchForm4(ctx context.Context, q finance.NormalizedQuery, cred secrets.QuiverCredential) (finance.Result, error) {
	rows, err := p.get(ctx, "/historical/insiders/"+url.PathEscape(q.Ticker), cred.Key)
	if err != nil {
		return finance.Result{}, err
	}

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
		entry := finance.InsiderEntry{}
		entry.Owner, _ = httpclient.String(row, "Name")
		entry.Date, _ = httpclient.String(row, "Date")
		entry.Security, _ = httpclient.String(row, "SecurityTitle")
		if v, ok := httpclient.Float(row, "ShareChange"); ok {
			entry.SharesChange = v
			entry.Shares = math.Abs(v)
			ownershipChange += v
		}
		if txType, ok := httpclient.String(row, "TransactionCode"); ok {
			switch txType {
			case "P":
				entry.TransactionType = finance.TransactionBuy
			case "S":
				entry.TransactionType = finance.TransactionSell
			default:
				entry.TransactionType = finance.TransactionOther
			}
		}
		entries = append(entries, entry)
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "QuiverQuant", Domain: "quiverquant.com"}},
		Data:        finance.InsiderData{Symbol: q.Ticker, Entries: entries, OwnershipChange: ownershipChange},
	}, nil
}

// fetchTier1Fallback synthesizes an advisory summary from tier-1
// government-trading and alternative-data endpoints when the credential's
// tier does not grant access to the live Form-4 endpoint (§4.6).
func (p *Provider) fetchTier1Fallback(ctx context.Context, q finance.NormalizedQuery, cred secrets.QuiverCredential) (finance.Result, error) {
	var errs []string
	var total int

	congress, err := p.get(ctx, "/historical/congresstrading/"+url.PathEscape(q.Ticker), cred.Key)
	if err != nil {
		errs = append(errs, finance.ClassifyError(p.ID(), err).Error())
	} else {
		total += len(congress)
	}

	offExchange, err := p.get(ctx, "/historical/offexchange/"+url.PathEscape(q.Ticker), cred.Key)
	if err != nil {
		errs = append(errs, finance.ClassifyError(p.ID(), err).Error())
	} else {
		total += len(offExchange)
	}

	text := fmt.Sprintf("%d alternative-data rows found across tier-1 endpoints for %s; upgrade to a Form-4 tier for live insider transactions", total, q.Ticker)
	summary := &finance.InsiderSummary{Source: p.ID(), Text: text}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "QuiverQuant", Domain: "quiverquant.com"}},
		Data:        finance.InsiderData{Symbol: q.Ticker, Entries: nil, Summary: summary},
		Errors:      errs,
	}, nil
}

// --- Raw row access for the backtest and darkpool workflows (SPEC_FULL.md "E") ---

// CongressTradingRow is one row of the ticker_congress_trading dataset.
type CongressTradingRow map[string]interface{}

// FetchCongressTrading returns raw congressional-trading rows for ticker.
func (p *Provider) FetchCongressTrading(ctx context.Context, ticker string) ([]CongressTradingRow, error) {
	return p.fetchRawRows(ctx, "/historical/congresstrading/"+url.PathEscape(ticker))
}

// FetchSenateTrading returns raw Senate-trading rows for ticker.
func (p *Provider) FetchSenateTrading(ctx context.Context, ticker string) ([]CongressTradingRow, error) {
	return p.fetchRawRows(ctx, "/historical/senatetrading/"+url.PathEscape(ticker))
}

// FetchHouseTrading returns raw House-trading rows for ticker.
func (p *Provider) FetchHouseTrading(ctx context.Context, ticker string) ([]CongressTradingRow, error) {
	return p.fetchRawRows(ctx, "/historical/housetrading/"+url.PathEscape(ticker))
}

// FetchOffExchange returns raw off-exchange volume rows for ticker.
func (p *Provider) FetchOffExchange(ctx context.Context, ticker string) ([]CongressTradingRow, error) {
	return p.fetchRawRows(ctx, "/historical/offexchange/"+url.PathEscape(ticker))
}

// FetchDarkpool returns raw dark-pool volume rows for ticker.
func (p *Provider) FetchDarkpool(ctx context.Context, ticker string) ([]CongressTradingRow, error) {
	return p.fetchRawRows(ctx, "/historical/darkpool/"+url.PathEscape(ticker))
}

func (p *Provider) fetchRawRows(ctx context.Context, path string) ([]CongressTradingRow, error) {
	cred, err := p.credential()
	if err != nil {
		return nil, err
	}
	rows, err := p.get(ctx, path, cred.Key)
	if err != nil {
		return nil, err
	}
	out := make([]CongressTradingRow, 0, len(rows))
	for _, raw := range rows {
		row, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, CongressTradingRow(row))
	}
	return out, nil
}
