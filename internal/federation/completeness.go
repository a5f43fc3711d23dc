package federation

import "github.com/finscope/aggregator/internal/finance"

// isComplete implements the §4.5.2 completeness oracle used to short-circuit
// comprehensive-coverage merging once the accumulator is "good enough".
func isComplete(intent finance.Intent, acc finance.Result, limit int) bool {
	switch intent {
	case finance.IntentQuote:
		q, ok := acc.Data.(finance.QuoteData)
		if !ok {
			return false
		}
		return wellFormedFloat(q.Price) &&
			wellFormedFloat(q.PreviousClose) &&
			wellFormedFloat(q.ChangePercent) &&
			wellFormedFloat(q.MarketCap) &&
			wellFormedFloat(q.High52w) &&
			wellFormedFloat(q.Low52w) &&
			wellFormedFloat(q.YTDReturnPercent)

	case finance.IntentFundamentals:
		f, ok := acc.Data.(finance.FundamentalsData)
		if !ok {
			return false
		}
		if !wellFormedFloat(f.Metrics.Revenue.Value) ||
			!wellFormedFloat(f.Metrics.NetIncome.Value) ||
			!wellFormedFloat(f.Metrics.GrossMarginPct.Value) ||
			!wellFormedFloat(f.Metrics.DebtToEquity.Value) ||
			!wellFormedFloat(f.Metrics.FreeCashFlow.Value) {
			return false
		}
		if !wellFormedFloat(f.MarketCap) {
			return false
		}
		if !wellFormedString(f.Sector) || !wellFormedString(f.Headquarters) {
			return false
		}
		r := f.AnalystRatings
		return wellFormedFloat(r.StrongBuy) || wellFormedFloat(r.Buy) ||
			wellFormedFloat(r.Hold) || wellFormedFloat(r.Sell) || wellFormedFloat(r.StrongSell)

	case finance.IntentFilings:
		f, ok := acc.Data.(finance.FilingsData)
		if !ok {
			return false
		}
		return len(f.Filings) >= minInt(limit, 5)

	case finance.IntentInsider:
		in, ok := acc.Data.(finance.InsiderData)
		if !ok {
			return false
		}
		return len(in.Entries) > 0 || (in.Summary != nil && in.Summary.Text != "")

	case finance.IntentNews:
		n, ok := acc.Data.(finance.NewsData)
		if !ok {
			return false
		}
		return len(n.Items) >= minInt(limit, 3)
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
