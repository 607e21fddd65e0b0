// Package compliance maps upstream CEU status to display semantics and
// computes certification eligibility.
//
// CEU hour thresholds live server-side; this layer only classifies the
// status string the upstream already computed.
package compliance

import (
	"strings"

	"github.com/jdarling/eventdash/internal/domain/model"
)

// Status is a CEU compliance classification.
type Status string

// Compliance classes.
const (
	StatusCompliant    Status = "compliant"
	StatusNeedsRenewal Status = "needs-renewal"
	StatusNonCompliant Status = "non-compliant"
)

// Course names the certification rule looks for.
const (
	foundationalCourse = "Essential"
	advancedCourse     = "Advanced"
)

// Classify maps an upstream status field onto one of the three compliance
// classes. Unrecognized values classify as non-compliant.
func Classify(status string) Status {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "compliant":
		return StatusCompliant
	case "needs-renewal":
		return StatusNeedsRenewal
	default:
		return StatusNonCompliant
	}
}

// Summary counts practitioners per compliance class.
type Summary struct {
	Total        int `json:"total"`
	Compliant    int `json:"compliant"`
	NeedsRenewal int `json:"needs_renewal"`
	NonCompliant int `json:"non_compliant"`
}

// Summarize tallies a practitioner list by compliance class.
func Summarize(practitioners []model.Practitioner) Summary {
	s := Summary{Total: len(practitioners)}
	for _, p := range practitioners {
		switch Classify(p.ComplianceStatus) {
		case StatusCompliant:
			s.Compliant++
		case StatusNeedsRenewal:
			s.NeedsRenewal++
		case StatusNonCompliant:
			s.NonCompliant++
		}
	}
	return s
}

// IsCertificationEligible reports whether an attendee qualifies for
// certification: either the upstream already marked them eligible, or their
// course list contains both the foundational and the advanced course and
// they have at least one recorded instrument purchase.
func IsCertificationEligible(a model.Attendee) bool {
	if a.Certification == "Eligible" {
		return true
	}
	return hasCourse(a.Courses, foundationalCourse) &&
		hasCourse(a.Courses, advancedCourse) &&
		len(a.Instruments) > 0
}

// EligibleAttendees filters a list down to certification-eligible attendees.
func EligibleAttendees(attendees []model.Attendee) []model.Attendee {
	eligible := make([]model.Attendee, 0)
	for _, a := range attendees {
		if IsCertificationEligible(a) {
			eligible = append(eligible, a)
		}
	}
	return eligible
}

func hasCourse(courses []string, name string) bool {
	for _, c := range courses {
		if c == name {
			return true
		}
	}
	return false
}
