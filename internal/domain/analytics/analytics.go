// Package analytics computes derived revenue views from raw order lists.
//
// All functions here are pure and total: they never perform I/O, never panic
// on missing optional fields, and are deterministic for identical input.
// Numeric string fields coming off the wire are untrusted; a non-numeric
// value contributes 0 to any sum.
package analytics

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jdarling/eventdash/internal/domain/model"
)

// DefaultTopLimit caps the product ranking when no explicit limit is given.
const DefaultTopLimit = 10

// RevenuePoint is one point of the revenue-by-date time series.
type RevenuePoint struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

// ProductRevenue is one row of the product revenue ranking.
type ProductRevenue struct {
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

// RevenueByDate groups order totals by calendar date, ascending. Every order
// contributes a point for its date even when its total fails to parse (the
// unparseable total counts as 0).
func RevenueByDate(orders []model.Order) []RevenuePoint {
	byDate := make(map[string]float64)
	for _, o := range orders {
		byDate[calendarDate(o.DateCreated)] += parseAmount(o.Total)
	}

	series := make([]RevenuePoint, 0, len(byDate))
	for date, revenue := range byDate {
		series = append(series, RevenuePoint{Date: date, Revenue: revenue})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

// TopProducts flattens every order's line items, sums revenue per product
// name, and returns the top limit products by revenue, descending. Ties keep
// encounter order in the flattened line-item sequence. Orders without line
// items contribute nothing. A non-positive limit falls back to
// DefaultTopLimit.
func TopProducts(orders []model.Order, limit int) []ProductRevenue {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	index := make(map[string]int)
	ranked := make([]ProductRevenue, 0)
	for _, o := range orders {
		for _, item := range o.LineItems {
			i, ok := index[item.Name]
			if !ok {
				i = len(ranked)
				index[item.Name] = i
				ranked = append(ranked, ProductRevenue{Name: item.Name})
			}
			ranked[i].Revenue += parseAmount(item.Total)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Revenue > ranked[j].Revenue })
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// TotalRevenue sums all order totals, treating unparseable totals as 0.
func TotalRevenue(orders []model.Order) float64 {
	var total float64
	for _, o := range orders {
		total += parseAmount(o.Total)
	}
	return total
}

// parseAmount parses a decimal-as-string, returning 0 for anything that is
// not a finite number.
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

// dateLayouts tried in order when normalizing an upstream timestamp.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// calendarDate normalizes an upstream timestamp to YYYY-MM-DD. Strings that
// fail every known layout pass through truncated so a malformed order still
// lands on a bucket instead of being dropped.
func calendarDate(ts string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("2006-01-02")
		}
	}
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}
