// Package query implements the Query Parser & Intent Router (§4.2):
// normalizing a free-text finance query into a finance.NormalizedQuery.
package query

import (
	"regexp"
	"strings"

	"github.com/finscope/aggregator/internal/finance"
)

var (
	dollarTickerPattern = regexp.MustCompile(`\$([A-Z][A-Z0-9]{0,4}(?:\.[A-Z]{1,3})?)\b`)
	bareTickerPattern   = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,4}(\.[A-Z]{1,3})?$`)
)

// stopWords are ticker-shaped uppercase tokens that overwhelmingly function
// as English words or financial jargon in free text (SPEC_FULL.md §B).
var stopWords = map[string]bool{
	"THE": true, "AND": true, "FOR": true, "WITH": true, "FROM": true,
	"INTO": true, "OVER": true, "NEWS": true, "SEC": true, "CEO": true,
	"CFO": true, "IPO": true, "ETF": true, "USA": true,
}

// keywordIntents maps keyword classes to their inferred intent, checked in
// this order; the default intent is quote (§4.2).
var keywordIntents = []struct {
	intent   finance.Intent
	keywords []string
}{
	{finance.IntentFilings, []string{"10-k", "10-q", "8-k", "filing", "sec filing"}},
	{finance.IntentInsider, []string{"insider", "ownership", "officer", "beneficial", "inside"}},
	{finance.IntentFundamentals, []string{"revenue", "earnings", "fundamentals", "metric", "financial"}},
	{finance.IntentNews, []string{"news", "headline", "press release", "announc"}},
}

// Input is the caller-supplied query, with any already-known fields
// pre-filled (all optional; the parser infers what's missing).
type Input struct {
	Query    string
	Intent   string
	Ticker   string
	Form     string
	Coverage string
	Limit    int
}

// Parse normalizes a free-text query (plus any caller-supplied overrides)
// into a finance.NormalizedQuery (§4.2).
func Parse(in Input) (finance.NormalizedQuery, error) {
	trimmedQuery := strings.TrimSpace(in.Query)
	if trimmedQuery == "" && in.Ticker == "" {
		return finance.NormalizedQuery{}, finance.ErrEmptyQuery
	}

	ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
	if ticker == "" {
		var err error
		ticker, err = extractTicker(trimmedQuery)
		if err != nil {
			return finance.NormalizedQuery{}, err
		}
	}

	intent, err := resolveIntent(in.Intent, trimmedQuery)
	if err != nil {
		return finance.NormalizedQuery{}, err
	}

	coverage := finance.CoverageDefault
	if strings.EqualFold(in.Coverage, string(finance.CoverageComprehensive)) {
		coverage = finance.CoverageComprehensive
	}

	limit := clampLimit(in.Limit)

	return finance.NormalizedQuery{
		Intent:   intent,
		Ticker:   ticker,
		Form:     strings.ToUpper(strings.TrimSpace(in.Form)),
		Coverage: coverage,
		Limit:    limit,
	}, nil
}

func resolveIntent(explicit string, query string) (finance.Intent, error) {
	if explicit != "" {
		switch finance.Intent(strings.ToLower(explicit)) {
		case finance.IntentQuote, finance.IntentFundamentals, finance.IntentFilings,
			finance.IntentInsider, finance.IntentNews:
			return finance.Intent(strings.ToLower(explicit)), nil
		default:
			return "", finance.ErrUnsupportedIntent
		}
	}

	lower := strings.ToLower(query)
	for _, class := range keywordIntents {
		for _, kw := range class.keywords {
			if strings.Contains(lower, kw) {
				return class.intent, nil
			}
		}
	}
	return finance.IntentQuote, nil
}

// extractTicker applies the precedence in §4.2: $TICKER highest, then a
// single-word query matching the ticker shape, then any non-stop-word
// uppercase token matching that shape.
func extractTicker(query string) (string, error) {
	if m := dollarTickerPattern.FindStringSubmatch(query); m != nil {
		return m[1], nil
	}

	trimmed := strings.TrimSpace(query)
	if !strings.ContainsAny(trimmed, " \t\n") {
		candidate := strings.ToUpper(trimmed)
		if bareTickerPattern.MatchString(candidate) {
			return candidate, nil
		}
	}

	for _, token := range strings.Fields(query) {
		candidate := strings.Trim(token, ".,!?;:()")
		if stopWords[candidate] {
			continue
		}
		if bareTickerPattern.MatchString(candidate) {
			return candidate, nil
		}
	}

	return "", finance.ErrMissingTicker
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 10
	}
	if limit < 1 {
		return 1
	}
	if limit > 50 {
		return 50
	}
	return limit
}
