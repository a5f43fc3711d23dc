// Package secedgar adapts the SEC's browse-edgar company index (fetched as an
// Atom feed and parsed with goquery) and JSON submissions API into the `filings` intent (§4.6, SPEC_FULL.md "E"). Unlike
// the other providers, authentication is a mandatory User-Agent identity
// string rather than an API key: its absence is MISSING_AUTH.
package secedgar

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/finscope/aggregator/internal/finance"
	"github.com/finscope/aggregator/internal/providers/httpclient"
	"github.com/finscope/aggregator/internal/secrets"
)

const (
	searchURL      = "https://www.sec.gov/cgi-bin/browse-edgar"
	submissionsURL = "https://data.sec.gov/submissions"
)

// Provider implements finance.Provider for SEC EDGAR.
type Provider struct {
	client   *httpclient.Client
	resolver *secrets.Resolver
}

// New builds a SEC-EDGAR provider.
func New(resolver *secrets.Resolver) *Provider {
	return &Provider{
		client:   httpclient.New("secedgar", httpclient.Config{RequestsPerSecond: 4, Burst: 4}),
		resolver: resolver,
	}
}

func (p *Provider) ID() string          { return "secedgar" }
func (p *Provider) DisplayName() string { return "SEC EDGAR" }

func (p *Provider) Supports(intent finance.Intent) bool { return intent == finance.IntentFilings }

func (p *Provider) Enabled() bool {
	_, ok := p.identity()
	return ok
}

// identity resolves the required User-Agent string from either configured
// env var (§4.1 provider env mapping: SEC_EDGAR_IDENTITY, SEC_API_USER_AGENT).
func (p *Provider) identity() (string, bool) {
	return p.resolver.ResolveProviderApiKey(p.ID(), secrets.ResolveOptions{Trim: true})
}

func (p *Provider) Fetch(ctx context.Context, q finance.NormalizedQuery, opts finance.FetchOptions) (finance.Result, error) {
	identity, ok := p.identity()
	if !ok {
		return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: "SEC_EDGAR_IDENTITY not configured", Code: finance.CodeMissingAuth}
	}
	if q.Intent != finance.IntentFilings {
		return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: "unsupported intent", Code: finance.CodeUnsupported}
	}

	cik, err := p.resolveCIK(ctx, q.Ticker, identity)
	if err != nil {
		return finance.Result{}, err
	}
	return p.fetchFilings(ctx, q, cik, identity)
}

// resolveCIK reads the ticker's CIK from the browse-edgar Atom feed.
func (p *Provider) resolveCIK(ctx context.Context, ticker, identity string) (string, error) {
	u := fmt.Sprintf("%s?action=getcompany&company=%s&type=10-K&dateb=&owner=include&count=10&output=atom",
		searchURL, url.QueryEscape(ticker))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", identity)
	_, body, err := p.client.Do(ctx, req)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", &finance.ProviderError{Source: p.ID(), Message: err.Error(), Code: finance.CodeProviderErr, Cause: err}
	}

	var cik string
	doc.Find("cik").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		cik = strings.TrimSpace(s.Text())
		return false
	})
	if cik == "" {
		return "", &finance.ProviderError{Source: p.ID(), Message: "CIK not found for ticker", Code: finance.CodeProviderErr}
	}
	return cik, nil
}

func (p *Provider) fetchFilings(ctx context.Context, q finance.NormalizedQuery, cik, identity string) (finance.Result, error) {
	paddedCIK := padCIK(cik)
	u := fmt.Sprintf("%s/CIK%s.json", submissionsURL, paddedCIK)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return finance.Result{}, err
	}
	req.Header.Set("User-Agent", identity)
	_, body, err := p.client.Do(ctx, req)
	if err != nil {
		return finance.Result{}, err
	}

	payload, err := httpclient.DecodeLenient(body)
	if err != nil {
		return finance.Result{}, &finance.ProviderError{Source: p.ID(), Message: err.Error(), Code: finance.CodeProviderErr, Cause: err}
	}

	recent, _ := payload["filings"].(map[string]interface{})
	recentData, _ := recent["recent"].(map[string]interface{})

	forms := toStringSlice(recentData["form"])
	dates := toStringSlice(recentData["filingDate"])
	reportDates := toStringSlice(recentData["reportDate"])
	accessions := toStringSlice(recentData["accessionNumber"])
	primaryDocs := toStringSlice(recentData["primaryDocument"])

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	filings := make([]finance.Filing, 0, limit)
	for i := 0; i < len(forms) && len(filings) < limit; i++ {
		if q.Form != "" && !strings.EqualFold(forms[i], q.Form) {
			continue
		}
		f := finance.Filing{Form: at(forms, i)}
		f.FilingDate = at(dates, i)
		f.ReportDate = at(reportDates, i)
		f.AccessionNumber = at(accessions, i)
		if acc := f.AccessionNumber; acc != "" && i < len(primaryDocs) {
			cleaned := strings.ReplaceAll(acc, "-", "")
			f.URL = fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s", cik, cleaned, primaryDocs[i])
		}
		filings = append(filings, f)
	}

	return finance.Result{
		Source:      p.ID(),
		Timestamp:   time.Now().UTC(),
		Attribution: []finance.Attribution{{Publisher: "SEC EDGAR", Domain: "sec.gov"}},
		Data:        finance.FilingsData{Symbol: q.Ticker, Filings: filings},
	}, nil
}

func padCIK(cik string) string {
	for len(cik) < 10 {
		cik = "0" + cik
	}
	return cik
}

func toStringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, len(raw))
	for i, item := range raw {
		s, _ := item.(string)
		out[i] = s
	}
	return out
}

func at(s []string, i int) string {
	if i < 0 || i >= len(s) {
		return ""
	}
	return s[i]
}
