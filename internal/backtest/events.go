package backtest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order; the first that parses wins. Layouts
// carrying an explicit offset are tried before the UTC-assumed fallback
// (§4.7: "explicit offsets honored").
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"Jan 2, 2006",
}

// parseEventDate parses a free-form date string with UTC semantics when no
// timezone is present (§4.7).
func parseEventDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", raw)
}

// requiredFieldsByDataset names the raw-row keys a dataset must carry for a
// row to normalize successfully (§4.7).
var requiredFieldsByDataset = map[DatasetID][]string{
	DatasetCongress: {"Representative", "Transaction", "TransactionDate"},
	DatasetSenate:   {"Senator", "Transaction", "TransactionDate"},
	DatasetHouse:    {"Representative", "Transaction", "TransactionDate"},
}

func actorField(datasetID DatasetID) string {
	switch datasetID {
	case DatasetSenate:
		return "Senator"
	default:
		return "Representative"
	}
}

// classifySide maps QuiverQuant's free-form Transaction vocabulary
// ("Purchase", "Sale (Full)", "Sale (Partial)", "Exchange", ...) onto the
// closed {buy, sell, other} set (§4.7), mirroring the pattern used in
// quiverquant.fetchForm4 and finnhub.fetchInsider for their own
// transaction-type fields.
func classifySide(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(lower, "purchase"), strings.Contains(lower, "buy"):
		return "buy"
	case strings.Contains(lower, "sale"), strings.Contains(lower, "sell"):
		return "sell"
	default:
		return "other"
	}
}

// NormalizeEvents converts raw dataset rows into normalized Events for
// ticker (§4.7 "Event normalization"). Errors are collected in a separate
// slice that is not index-aligned with the events: a row missing a required
// field yields only an error, and a row with an unparseable date yields both
// an event (with that date nil) and an error. Callers decide whether a
// partial batch is acceptable.
func NormalizeEvents(ticker string, datasetID DatasetID, rows []RawRow) ([]Event, []error) {
	var events []Event
	var errs []error

	required := requiredFieldsByDataset[datasetID]
	actorKey := actorField(datasetID)

	for _, row := range rows {
		for _, field := range required {
			if _, ok := row[field]; !ok {
				errs = append(errs, newErr(CodeInvalidQuiverRow, "row missing required field %q for dataset %s", field, datasetID))
				goto nextRow
			}
		}
		{
			actor, _ := row[actorKey].(string)
			rawSide, _ := row["Transaction"].(string)
			side := classifySide(rawSide)

			txDateRaw, _ := row["TransactionDate"].(string)
			txDate, err := parseEventDate(txDateRaw)
			var txDatePtr *time.Time
			if err != nil {
				errs = append(errs, newErr(CodeInvalidEventDate, "transaction date: %v", err))
			} else {
				txDatePtr = &txDate
			}

			var reportDatePtr *time.Time
			if reportRaw, ok := row["ReportDate"].(string); ok && reportRaw != "" {
				reportDate, err := parseEventDate(reportRaw)
				if err != nil {
					errs = append(errs, newErr(CodeInvalidEventDate, "report date: %v", err))
				} else {
					reportDatePtr = &reportDate
				}
			}

			var shares float64
			switch v := row["Shares"].(type) {
			case float64:
				shares = v
			}
			var amount float64
			switch v := row["Amount"].(type) {
			case float64:
				amount = v
			}

			ev := Event{
				Ticker:          ticker,
				DatasetID:       datasetID,
				Actor:           actor,
				Side:            side,
				TransactionDate: txDatePtr,
				ReportDate:      reportDatePtr,
				Shares:          shares,
				Amount:          amount,
			}
			ev.EventID = computeEventID(ev)
			events = append(events, ev)
		}
	nextRow:
	}

	return events, errs
}

// computeEventID is a stable hash over (ticker, dataset_id, actor, side,
// transaction_date, report_date, shares), independent of row order or
// positional index (§4.7).
func computeEventID(ev Event) string {
	parts := []string{
		ev.Ticker,
		string(ev.DatasetID),
		ev.Actor,
		ev.Side,
		formatDatePtr(ev.TransactionDate),
		formatDatePtr(ev.ReportDate),
		fmt.Sprintf("%.4f", ev.Shares),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// ResolveAnchors expands events into anchors per anchor_mode (§4.7
// "Anchor resolution"). `both` fails the whole call when any event is
// missing either date.
func ResolveAnchors(events []Event, mode AnchorMode) ([]Anchor, error) {
	var anchors []Anchor
	for _, ev := range events {
		switch mode {
		case AnchorTransaction:
			if ev.TransactionDate == nil {
				return nil, newErr(CodeMissingRequiredAnchor, "event %s missing transaction_date", ev.EventID)
			}
			anchors = append(anchors, Anchor{Event: ev, Kind: "transaction", AnchorDate: *ev.TransactionDate})
		case AnchorReport:
			if ev.ReportDate == nil {
				return nil, newErr(CodeMissingRequiredAnchor, "event %s missing report_date", ev.EventID)
			}
			anchors = append(anchors, Anchor{Event: ev, Kind: "report", AnchorDate: *ev.ReportDate})
		case AnchorBoth:
			if ev.TransactionDate == nil || ev.ReportDate == nil {
				return nil, newErr(CodeMissingRequiredAnchor, "event %s missing transaction_date or report_date for anchor_mode=both", ev.EventID)
			}
			anchors = append(anchors,
				Anchor{Event: ev, Kind: "transaction", AnchorDate: *ev.TransactionDate},
				Anchor{Event: ev, Kind: "report", AnchorDate: *ev.ReportDate},
			)
		default:
			return nil, newErr(CodeMissingRequiredAnchor, "unrecognized anchor_mode %q", mode)
		}
	}
	return anchors, nil
}
