package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEvents_ValidRow(t *testing.T) {
	rows := []RawRow{
		{
			"Representative":  "Jane Doe",
			"Transaction":     "buy",
			"TransactionDate": "2025-01-04",
			"ReportDate":      "2025-01-10",
			"Shares":          float64(1000),
		},
	}
	events, errs := NormalizeEvents("AAPL", DatasetCongress, rows)
	require.Empty(t, errs)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "AAPL", ev.Ticker)
	assert.Equal(t, "Jane Doe", ev.Actor)
	assert.Equal(t, "buy", ev.Side)
	require.NotNil(t, ev.TransactionDate)
	require.NotNil(t, ev.ReportDate)
	assert.NotEmpty(t, ev.EventID)
}

func TestNormalizeEvents_ClassifiesRawTransactionVocabulary(t *testing.T) {
	rows := []RawRow{
		{"Representative": "Jane Doe", "Transaction": "Sale (Partial)", "TransactionDate": "2025-01-04", "Shares": float64(1000)},
		{"Representative": "John Roe", "Transaction": "Purchase", "TransactionDate": "2025-01-05", "Shares": float64(200)},
		{"Representative": "Ann Poe", "Transaction": "Exchange", "TransactionDate": "2025-01-06", "Shares": float64(50)},
	}
	events, errs := NormalizeEvents("AAPL", DatasetCongress, rows)
	require.Empty(t, errs)
	require.Len(t, events, 3)

	assert.Equal(t, "sell", events[0].Side)
	assert.Equal(t, "buy", events[1].Side)
	assert.Equal(t, "other", events[2].Side)
}

func TestNormalizeEvents_EventIDStableAcrossRowOrder(t *testing.T) {
	rowA := RawRow{"Representative": "Jane Doe", "Transaction": "buy", "TransactionDate": "2025-01-04", "Shares": float64(1000)}
	rowB := RawRow{"Representative": "John Roe", "Transaction": "sell", "TransactionDate": "2025-02-01", "Shares": float64(500)}

	first, errs1 := NormalizeEvents("AAPL", DatasetCongress, []RawRow{rowA, rowB})
	second, errs2 := NormalizeEvents("AAPL", DatasetCongress, []RawRow{rowB, rowA})
	require.Empty(t, errs1)
	require.Empty(t, errs2)
	require.Len(t, first, 2)
	require.Len(t, second, 2)

	ids1 := map[string]bool{first[0].EventID: true, first[1].EventID: true}
	ids2 := map[string]bool{second[0].EventID: true, second[1].EventID: true}
	assert.Equal(t, ids1, ids2)
}

func TestNormalizeEvents_MissingRequiredField(t *testing.T) {
	rows := []RawRow{{"Representative": "Jane Doe"}}
	events, errs := NormalizeEvents("AAPL", DatasetCongress, rows)
	assert.Empty(t, events)
	require.Len(t, errs, 1)
	studyErr, ok := errs[0].(*EventStudyError)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidQuiverRow, studyErr.Code)
}

func TestNormalizeEvents_InvalidDate(t *testing.T) {
	rows := []RawRow{
		{"Representative": "Jane Doe", "Transaction": "buy", "TransactionDate": "not-a-date"},
	}
	events, errs := NormalizeEvents("AAPL", DatasetCongress, rows)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].TransactionDate)
	require.Len(t, errs, 1)
	studyErr, ok := errs[0].(*EventStudyError)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidEventDate, studyErr.Code)
}

func TestResolveAnchors_BothMode_RequiresBothDates(t *testing.T) {
	tx := mustDate(t, "2025-01-04")
	events := []Event{{EventID: "ev1", TransactionDate: &tx, ReportDate: nil}}

	_, err := ResolveAnchors(events, AnchorBoth)
	require.Error(t, err)
	studyErr, ok := err.(*EventStudyError)
	require.True(t, ok)
	assert.Equal(t, CodeMissingRequiredAnchor, studyErr.Code)
}

func TestResolveAnchors_BothMode_EmitsTwoAnchors(t *testing.T) {
	tx := mustDate(t, "2025-01-04")
	rp := mustDate(t, "2025-01-10")
	events := []Event{{EventID: "ev1", TransactionDate: &tx, ReportDate: &rp}}

	anchors, err := ResolveAnchors(events, AnchorBoth)
	require.NoError(t, err)
	require.Len(t, anchors, 2)
	assert.Equal(t, "transaction", anchors[0].Kind)
	assert.Equal(t, "report", anchors[1].Kind)
}

func TestResolveAnchors_TransactionMode_MissingDate(t *testing.T) {
	events := []Event{{EventID: "ev1"}}
	_, err := ResolveAnchors(events, AnchorTransaction)
	require.Error(t, err)
}
