package darkpool

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

var dateColumnNamePattern = regexp.MustCompile(`(?i)^(date|datetime|timestamp|reportdate|report_date|trade_date|tradedate|asof|as_of)$`)

var dateValueLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func parseDateValue(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateValueLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// detectDateColumn finds the column with the highest count of
// ISO-convertible values, preferring columns whose name matches the
// canonical date-column name pattern (§4.8 "Dataset parsing").
func detectDateColumn(rows []RawRow) (string, bool) {
	counts := make(map[string]int)
	for _, row := range rows {
		for col, val := range row {
			if _, ok := parseDateValue(val); ok {
				counts[col]++
			}
		}
	}
	if len(counts) == 0 {
		return "", false
	}

	type candidate struct {
		name      string
		count     int
		nameMatch bool
	}
	candidates := make([]candidate, 0, len(counts))
	for col, count := range counts {
		candidates = append(candidates, candidate{name: col, count: count, nameMatch: dateColumnNamePattern.MatchString(col)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count > candidates[j].count
		}
		if candidates[i].nameMatch != candidates[j].nameMatch {
			return candidates[i].nameMatch
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates[0].name, true
}

type metricCandidate struct {
	name        string
	score       int
	numericCount int
}

var metricScorePatterns = []struct {
	pattern *regexp.Regexp
	score   int
}{
	{regexp.MustCompile(`(?i)off.?exchange.?ratio`), 600},
	{regexp.MustCompile(`(?i)dark.?pool.?ratio`), 600},
	{regexp.MustCompile(`(?i)off.?exchange.?volume`), 500},
	{regexp.MustCompile(`(?i)dark.?pool.?volume`), 500},
	{regexp.MustCompile(`(?i)(off.?exchange|dark.?pool|dark)`), 400},
	{regexp.MustCompile(`(?i)(volume|amount|ratio|percent)`), 150},
}

func scoreMetricColumnName(name string) int {
	for _, p := range metricScorePatterns {
		if p.pattern.MatchString(name) {
			return p.score
		}
	}
	return 0
}

// detectMetricColumn scores every numeric-bearing column by name pattern,
// breaking ties by count of numeric values present (§4.8 "Dataset
// parsing"). Fails when no candidate scores above zero.
func detectMetricColumn(rows []RawRow) (string, error) {
	numericCounts := make(map[string]int)
	for _, row := range rows {
		for col, val := range row {
			if _, ok := toFloat(val); ok {
				numericCounts[col]++
			}
		}
	}

	var candidates []metricCandidate
	for col, count := range numericCounts {
		score := scoreMetricColumnName(col)
		if score > 0 {
			candidates = append(candidates, metricCandidate{name: col, score: score, numericCount: count})
		}
	}
	if len(candidates) == 0 {
		return "", newErr(CodeNoMetricColumn, "no candidate column scored above zero")
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].numericCount != candidates[j].numericCount {
			return candidates[i].numericCount > candidates[j].numericCount
		}
		return candidates[i].name < candidates[j].name
	})
	return candidates[0].name, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// CollapseObservations detects the date and metric columns in rows, then
// collapses multiple rows per date into one observation (mean value, row
// count), sorted chronologically (§4.8 "Dataset parsing").
func CollapseObservations(rows []RawRow) ([]Observation, error) {
	dateCol, ok := detectDateColumn(rows)
	if !ok {
		return nil, newErr(CodeNoDateColumn, "no parseable date column found among %d rows", len(rows))
	}
	metricCol, err := detectMetricColumn(rows)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[time.Time]*bucket)
	for _, row := range rows {
		date, ok := parseDateValue(row[dateCol])
		if !ok {
			continue
		}
		value, ok := toFloat(row[metricCol])
		if !ok {
			continue
		}
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		b, ok := buckets[date]
		if !ok {
			b = &bucket{}
			buckets[date] = b
		}
		b.sum += value
		b.count++
	}

	observations := make([]Observation, 0, len(buckets))
	for date, b := range buckets {
		observations = append(observations, Observation{
			Date:     date,
			Value:    b.sum / float64(b.count),
			RowCount: b.count,
		})
	}
	sort.Slice(observations, func(i, j int) bool { return observations[i].Date.Before(observations[j].Date) })
	return observations, nil
}
