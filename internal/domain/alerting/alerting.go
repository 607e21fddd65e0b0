// Package alerting evaluates danger-zone rules for a single event.
package alerting

import (
	"fmt"

	"github.com/jdarling/eventdash/internal/domain/model"
)

// Default rule thresholds.
const (
	// DefaultConversionThreshold applies to events that do not carry their
	// own min_conversion_rate.
	DefaultConversionThreshold = 30.0

	// DefaultInstrumentStock is the fallback on-hand instrument set count.
	DefaultInstrumentStock = 10
)

// Severity classifies an alert.
type Severity string

// Alert severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Alert is one human-readable rule finding.
type Alert struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
}

// Rules carries the external inputs the rule set needs beyond the event and
// instrument data themselves.
type Rules struct {
	// ConversionThreshold is the fallback conversion target. Zero or
	// negative falls back to DefaultConversionThreshold.
	ConversionThreshold float64

	// InstrumentStock is the on-hand stock figure for the shortfall rule.
	// Zero or negative falls back to DefaultInstrumentStock.
	InstrumentStock int
}

// Evaluate runs every danger-zone rule against an event and its instrument
// purchase summary. Rules are independent: all applicable rules fire. The
// function is pure, performs no I/O, and returns nil when either input is
// absent.
func Evaluate(event *model.Event, instruments *model.InstrumentSummary, rules Rules) []Alert {
	if event == nil || instruments == nil {
		return nil
	}

	threshold := rules.ConversionThreshold
	if threshold <= 0 {
		threshold = DefaultConversionThreshold
	}
	if event.MinConversionRate > 0 {
		threshold = event.MinConversionRate
	}

	stock := rules.InstrumentStock
	if stock <= 0 {
		stock = DefaultInstrumentStock
	}

	var alerts []Alert

	rate := instruments.EffectiveConversionRate()
	if rate < threshold {
		alerts = append(alerts, Alert{
			Severity: SeverityError,
			Title:    "Low Instrument Conversion",
			Message: fmt.Sprintf("Only %g%% of attendees have purchased instruments, falling below the %g%% target.",
				rate, threshold),
		})
	}

	if event.AssignedInstructor == "" {
		alerts = append(alerts, Alert{
			Severity: SeverityWarning,
			Title:    "Missing Instructor",
			Message:  "This event does not have an instructor assigned yet.",
		})
	}

	if instruments.InstrumentPurchasers > stock {
		alerts = append(alerts, Alert{
			Severity: SeverityError,
			Title:    "Potential Inventory Shortfall",
			Message: fmt.Sprintf("%d sets have been sold, but only %d are in stock.",
				instruments.InstrumentPurchasers, stock),
		})
	}

	return alerts
}
