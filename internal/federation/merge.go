package federation

import (
	"sort"
	"strconv"
	"strings"

	"github.com/finscope/aggregator/internal/finance"
)

// periodRank orders metric periods TTM > FY > Q > Unknown for recoarsening
// the fundamentals payload's overall Period field (§4.5.1).
var periodRank = map[finance.MetricPeriod]int{
	finance.PeriodTTM:     4,
	finance.PeriodFY:      3,
	finance.PeriodQ:       2,
	finance.PeriodUnknown: 1,
}

func mergeQuote(acc, next finance.QuoteData) finance.QuoteData {
	if acc.Symbol == "" {
		acc.Symbol = next.Symbol
	}
	acc.Currency = pickString(acc.Currency, next.Currency)
	if acc.Currency == "" {
		acc.Currency = "USD"
	}
	acc.Price = pickFloat(acc.Price, next.Price)
	acc.PreviousClose = pickFloat(acc.PreviousClose, next.PreviousClose)
	acc.Change = pickFloat(acc.Change, next.Change)
	acc.ChangePercent = pickFloat(acc.ChangePercent, next.ChangePercent)
	acc.MarketCap = pickFloat(acc.MarketCap, next.MarketCap)
	acc.High52w = pickFloat(acc.High52w, next.High52w)
	acc.Low52w = pickFloat(acc.Low52w, next.Low52w)
	acc.YTDReturnPercent = pickFloat(acc.YTDReturnPercent, next.YTDReturnPercent)
	return acc
}

func mergeMetric(acc, next finance.Metric) finance.Metric {
	if wellFormedFloat(acc.Value) {
		return acc
	}
	if wellFormedFloat(next.Value) {
		return next
	}
	return acc
}

func mergeFundamentals(acc, next finance.FundamentalsData) finance.FundamentalsData {
	if acc.Symbol == "" {
		acc.Symbol = next.Symbol
	}
	acc.Metrics.Revenue = mergeMetric(acc.Metrics.Revenue, next.Metrics.Revenue)
	acc.Metrics.NetIncome = mergeMetric(acc.Metrics.NetIncome, next.Metrics.NetIncome)
	acc.Metrics.GrossMarginPct = mergeMetric(acc.Metrics.GrossMarginPct, next.Metrics.GrossMarginPct)
	acc.Metrics.DebtToEquity = mergeMetric(acc.Metrics.DebtToEquity, next.Metrics.DebtToEquity)
	acc.Metrics.ROEPct = mergeMetric(acc.Metrics.ROEPct, next.Metrics.ROEPct)
	acc.Metrics.OperatingMarginPct = mergeMetric(acc.Metrics.OperatingMarginPct, next.Metrics.OperatingMarginPct)
	acc.Metrics.FreeCashFlow = mergeMetric(acc.Metrics.FreeCashFlow, next.Metrics.FreeCashFlow)

	acc.FiscalPeriodEnd = pickString(acc.FiscalPeriodEnd, next.FiscalPeriodEnd)
	acc.MarketCap = pickFloat(acc.MarketCap, next.MarketCap)
	acc.Sector = pickString(acc.Sector, next.Sector)
	acc.Headquarters = pickString(acc.Headquarters, next.Headquarters)
	acc.Website = pickString(acc.Website, next.Website)
	acc.IconURL = pickString(acc.IconURL, next.IconURL)

	acc.AnalystRatings.StrongBuy = pickFloat(acc.AnalystRatings.StrongBuy, next.AnalystRatings.StrongBuy)
	acc.AnalystRatings.Buy = pickFloat(acc.AnalystRatings.Buy, next.AnalystRatings.Buy)
	acc.AnalystRatings.Hold = pickFloat(acc.AnalystRatings.Hold, next.AnalystRatings.Hold)
	acc.AnalystRatings.Sell = pickFloat(acc.AnalystRatings.Sell, next.AnalystRatings.Sell)
	acc.AnalystRatings.StrongSell = pickFloat(acc.AnalystRatings.StrongSell, next.AnalystRatings.StrongSell)

	acc.Period = recoarsenPeriod(acc.Metrics)
	return acc
}

// recoarsenPeriod picks the highest-ranked period (TTM > FY > Q > Unknown)
// among metrics that carry a finite value (§4.5.1).
func recoarsenPeriod(m finance.Metrics) finance.MetricPeriod {
	best := finance.MetricPeriod("")
	bestRank := -1
	m.ForEach(func(_ string, metric *finance.Metric) {
		if !wellFormedFloat(metric.Value) {
			return
		}
		if r := periodRank[metric.Period]; r > bestRank {
			bestRank = r
			best = metric.Period
		}
	})
	if best == "" {
		return finance.PeriodUnknown
	}
	return best
}

func filingIdentity(f finance.Filing) string {
	return strings.Join([]string{f.AccessionNumber, f.URL, f.Form, f.FilingDate}, "|")
}

func mergeFilings(acc, next finance.FilingsData, limit int) finance.FilingsData {
	if acc.Symbol == "" {
		acc.Symbol = next.Symbol
	}
	seen := make(map[string]bool, len(acc.Filings))
	merged := make([]finance.Filing, 0, len(acc.Filings)+len(next.Filings))
	for _, f := range acc.Filings {
		id := filingIdentity(f)
		if seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, f)
	}
	for _, f := range next.Filings {
		id := filingIdentity(f)
		if seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, f)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].FilingDate > merged[j].FilingDate
	})
	max := limit
	if max < 1 {
		max = 1
	}
	if len(merged) > max {
		merged = merged[:max]
	}
	acc.Filings = merged
	return acc
}

func insiderIdentity(e finance.InsiderEntry) string {
	return strings.Join([]string{
		e.Owner, e.Date, formatFloat(e.Shares), formatFloat(e.SharesChange),
		e.Security, string(e.TransactionType),
	}, "|")
}

// formatFloat renders f fixed-point so identity keys are stable regardless
// of which provider contributed the share count.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

func mergeInsider(acc, next finance.InsiderData, limit int) finance.InsiderData {
	if acc.Symbol == "" {
		acc.Symbol = next.Symbol
	}
	seen := make(map[string]bool, len(acc.Entries))
	merged := make([]finance.InsiderEntry, 0, len(acc.Entries)+len(next.Entries))
	for _, e := range acc.Entries {
		id := insiderIdentity(e)
		if seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, e)
	}
	for _, e := range next.Entries {
		id := insiderIdentity(e)
		if seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, e)
	}
	max := limit * 5
	if max < 1 {
		max = 5
	}
	if len(merged) > max {
		merged = merged[:max]
	}
	acc.Entries = merged

	var sum float64
	for _, e := range merged {
		sum += e.SharesChange
	}
	acc.OwnershipChange = sum

	if acc.Summary == nil {
		acc.Summary = next.Summary
	}
	return acc
}

func newsIdentity(n finance.NewsItem) string {
	return strings.Join([]string{n.URL, n.Title, n.PublishedAt}, "|")
}

func mergeNews(acc, next finance.NewsData, limit int) finance.NewsData {
	if acc.Symbol == "" {
		acc.Symbol = next.Symbol
	}
	seen := make(map[string]bool, len(acc.Items))
	merged := make([]finance.NewsItem, 0, len(acc.Items)+len(next.Items))
	for _, n := range acc.Items {
		id := newsIdentity(n)
		if seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, n)
	}
	for _, n := range next.Items {
		id := newsIdentity(n)
		if seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, n)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt > merged[j].PublishedAt
	})
	max := limit
	if max < 1 {
		max = 1
	}
	if len(merged) > max {
		merged = merged[:max]
	}
	acc.Items = merged
	return acc
}
