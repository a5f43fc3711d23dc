// Package federation implements the dispatch policy of §4.5: filtering
// providers by capability, consulting the TTL cache, and either returning the
// first successful provider's payload (default coverage) or merging every
// provider's payload under the intent's merge policy (comprehensive
// coverage), grounded on the teacher's provider.ProviderChain fallback shape.
package federation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/finscope/aggregator/internal/cache"
	"github.com/finscope/aggregator/internal/finance"
)

// Engine orchestrates provider dispatch for a normalized query.
type Engine struct {
	providers []finance.Provider
	cache     *cache.Cache
}

// New builds an Engine over the given provider roster (order matters: it is
// both the default-coverage try order and the comprehensive-coverage merge
// order) and an optional cache (nil disables caching entirely).
func New(providers []finance.Provider, c *cache.Cache) *Engine {
	return &Engine{providers: providers, cache: c}
}

// Resolve runs the §4.5 dispatch policy for q.
func (e *Engine) Resolve(ctx context.Context, q finance.NormalizedQuery) finance.Result {
	eligible := e.filterProviders(q)
	if len(eligible) == 0 {
		return finance.Result{
			Source:    "none",
			Timestamp: time.Now().UTC(),
			Errors:    []string{"No finance providers available"},
		}
	}

	var cacheKey string
	if e.cache != nil && !q.Refresh {
		cacheKey = cache.Key(q)
		if hit, ok := e.cache.Get(cacheKey); ok {
			return hit
		}
	}

	var result finance.Result
	if q.Coverage == finance.CoverageComprehensive {
		result = e.resolveComprehensive(ctx, q, eligible)
	} else {
		result = e.resolveDefault(ctx, q, eligible)
	}
	result = applyFormFilter(q, result)

	if e.cache != nil && cacheKey != "" && len(result.Errors) == 0 {
		e.cache.Set(cacheKey, q.Intent, result)
	}
	return result
}

func (e *Engine) filterProviders(q finance.NormalizedQuery) []finance.Provider {
	out := make([]finance.Provider, 0, len(e.providers))
	for _, p := range e.providers {
		if !p.Supports(q.Intent) || !p.Enabled() {
			continue
		}
		if q.Source != "" && p.ID() != q.Source {
			continue
		}
		out = append(out, p)
	}
	return out
}

// resolveDefault tries providers in order; the first success wins.
func (e *Engine) resolveDefault(ctx context.Context, q finance.NormalizedQuery, providers []finance.Provider) finance.Result {
	var failures []string
	for _, p := range providers {
		res, err := p.Fetch(ctx, q, finance.FetchOptions{CancelSignal: ctx})
		if err != nil {
			pe := finance.ClassifyError(p.ID(), err)
			failures = append(failures, pe.Error())
			log.Debug().Str("provider", p.ID()).Err(err).Msg("provider fetch failed, trying next")
			continue
		}
		res.Errors = nil
		return res
	}
	return finance.Result{
		Source:    "none",
		Timestamp: time.Now().UTC(),
		Errors:    failures,
	}
}

// resolveComprehensive merges every provider's payload under the intent's
// merge policy, stopping early once isComplete holds.
func (e *Engine) resolveComprehensive(ctx context.Context, q finance.NormalizedQuery, providers []finance.Provider) finance.Result {
	var (
		acc          finance.Result
		contributors []string
		attribution  []finance.Attribution
		failures     []string
		maxTimestamp time.Time
		initialized  bool
	)

	for _, p := range providers {
		res, err := p.Fetch(ctx, q, finance.FetchOptions{CancelSignal: ctx})
		if err != nil {
			pe := finance.ClassifyError(p.ID(), err)
			failures = append(failures, pe.Error())
			continue
		}

		if !initialized {
			acc = res
			initialized = true
		} else {
			acc.Data = mergeData(q.Intent, acc.Data, res.Data, q.Limit)
		}

		contributors = append(contributors, p.ID())
		attribution = dedupAttribution(attribution, res.Attribution)
		if res.Timestamp.After(maxTimestamp) {
			maxTimestamp = res.Timestamp
		}

		if isComplete(q.Intent, acc, q.Limit) {
			break
		}
	}

	if !initialized {
		return finance.Result{
			Source:    "none",
			Timestamp: time.Now().UTC(),
			Errors:    failures,
		}
	}

	acc.Source = joinCSV(contributors)
	acc.Attribution = attribution
	acc.Timestamp = maxTimestamp
	acc.Errors = failures
	return acc
}

// applyFormFilter applies q.Form as a post-merge filter on filings results
// (§4.5, carried from spec.md §3.1/§4.1): form is matched case-insensitively
// against each filing's Form, never in the query parser itself.
func applyFormFilter(q finance.NormalizedQuery, result finance.Result) finance.Result {
	if q.Form == "" || q.Intent != finance.IntentFilings {
		return result
	}
	data, ok := result.Data.(finance.FilingsData)
	if !ok {
		return result
	}
	wanted := strings.ToUpper(strings.TrimSpace(q.Form))
	filtered := make([]finance.Filing, 0, len(data.Filings))
	for _, f := range data.Filings {
		if strings.ToUpper(strings.TrimSpace(f.Form)) == wanted {
			filtered = append(filtered, f)
		}
	}
	data.Filings = filtered
	result.Data = data
	return result
}

func mergeData(intent finance.Intent, acc, next interface{}, limit int) interface{} {
	switch intent {
	case finance.IntentQuote:
		a, _ := acc.(finance.QuoteData)
		n, _ := next.(finance.QuoteData)
		return mergeQuote(a, n)
	case finance.IntentFundamentals:
		a, _ := acc.(finance.FundamentalsData)
		n, _ := next.(finance.FundamentalsData)
		return mergeFundamentals(a, n)
	case finance.IntentFilings:
		a, _ := acc.(finance.FilingsData)
		n, _ := next.(finance.FilingsData)
		return mergeFilings(a, n, limit)
	case finance.IntentInsider:
		a, _ := acc.(finance.InsiderData)
		n, _ := next.(finance.InsiderData)
		return mergeInsider(a, n, limit)
	case finance.IntentNews:
		a, _ := acc.(finance.NewsData)
		n, _ := next.(finance.NewsData)
		return mergeNews(a, n, limit)
	}
	return acc
}

func dedupAttribution(acc []finance.Attribution, next []finance.Attribution) []finance.Attribution {
	seen := make(map[string]bool, len(acc))
	for _, a := range acc {
		seen[attributionKey(a)] = true
	}
	for _, a := range next {
		k := attributionKey(a)
		if seen[k] {
			continue
		}
		seen[k] = true
		acc = append(acc, a)
	}
	return acc
}

func attributionKey(a finance.Attribution) string {
	return fmt.Sprintf("%s|%s|%s", a.Publisher, a.Domain, a.URL)
}

func joinCSV(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}
