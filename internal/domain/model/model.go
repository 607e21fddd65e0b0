// Package model contains domain models passed between layers.
//
// These mirror the JSON shapes returned by the upstream proxy API for the
// WordPress-ecosystem plugins (WooCommerce, FluentCRM, LearnDash). They are
// read-only value objects: a later fetch may return an updated copy, but an
// instance is never mutated in place.
package model

// LineItem is one order line: a product name and its line total.
// Total is a decimal-as-string and must be parsed defensively.
type LineItem struct {
	Name  string `json:"name"`
	Total string `json:"total"`
}

// Order is a WooCommerce order.
type Order struct {
	ID          int        `json:"id"`
	Status      string     `json:"status"`
	Total       string     `json:"total"`
	DateCreated string     `json:"date_created"`
	LineItems   []LineItem `json:"line_items,omitempty"`
}

// Event is a WooCommerce product standing in for a training event.
type Event struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Status             string  `json:"status"`
	Price              string  `json:"price"`
	TotalSales         int     `json:"total_sales"`
	DateCreated        string  `json:"date_created"`
	MinConversionRate  float64 `json:"min_conversion_rate,omitempty"`
	AssignedInstructor string  `json:"assigned_instructor,omitempty"`
}

// Tag is a FluentCRM label attached to a subscriber.
type Tag struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Attendee is a FluentCRM subscriber or LearnDash user enrolled in events.
type Attendee struct {
	ID            int      `json:"id"`
	FirstName     string   `json:"first_name,omitempty"`
	LastName      string   `json:"last_name,omitempty"`
	DisplayName   string   `json:"display_name,omitempty"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone,omitempty"`
	Tags          []Tag    `json:"tags,omitempty"`
	LastActivity  string   `json:"last_activity,omitempty"`
	LicenseState  string   `json:"license_state,omitempty"`
	Profession    string   `json:"profession,omitempty"`
	Certification string   `json:"certification,omitempty"`
	Courses       []string `json:"courses,omitempty"`
	Instruments   []string `json:"instruments,omitempty"`
}

// Name returns the attendee's display name, falling back to first+last.
func (a Attendee) Name() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	switch {
	case a.FirstName != "" && a.LastName != "":
		return a.FirstName + " " + a.LastName
	case a.FirstName != "":
		return a.FirstName
	default:
		return a.LastName
	}
}

// Purchaser is one instrument purchase record inside an InstrumentSummary.
type Purchaser struct {
	UserID  int    `json:"user_id"`
	OrderID string `json:"order_id"`
	Voucher bool   `json:"voucher,omitempty"`
}

// InstrumentSummary is the upstream per-event instrument purchase rollup.
type InstrumentSummary struct {
	TotalAttendees       int         `json:"total_attendees"`
	InstrumentPurchasers int         `json:"instrument_purchasers"`
	ConversionRate       float64     `json:"conversion_rate"`
	RevenueInstruments   float64     `json:"revenue_instruments"`
	Purchasers           []Purchaser `json:"purchasers,omitempty"`
}

// EffectiveConversionRate recomputes purchasers/total as a percentage when
// both counts are available, and trusts the upstream figure otherwise.
func (s InstrumentSummary) EffectiveConversionRate() float64 {
	if s.TotalAttendees > 0 {
		return float64(s.InstrumentPurchasers) / float64(s.TotalAttendees) * 100
	}
	return s.ConversionRate
}

// DangerZoneEntry is the upstream at-risk classification for one event:
// Go/Watch/Danger based on confirmed registrations vs. a threshold and days
// remaining. The classification itself is computed server-side.
type DangerZoneEntry struct {
	EventID   int    `json:"event_id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Combined  int    `json:"combined"`
	Threshold int    `json:"threshold"`
	DaysUntil int    `json:"daysUntil"`
}

// Practitioner is one row of the upstream CEU compliance report.
type Practitioner struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email,omitempty"`
	LicenseState     string `json:"license_state"`
	LicenseNumber    string `json:"license_number,omitempty"`
	Profession       string `json:"profession,omitempty"`
	ComplianceStatus string `json:"compliance_status"`
}

// Participant is the payload for a single enrollment mutation.
type Participant struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}
