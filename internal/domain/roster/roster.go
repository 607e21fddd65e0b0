// Package roster decorates event rosters with instrument purchase state.
package roster

import (
	"github.com/jdarling/eventdash/internal/domain/model"
)

// DecoratedAttendee is an attendee carrying purchase state joined in from
// the instrument purchase summary. OrderID is empty and VoucherUsed false
// when the attendee has no purchase record.
type DecoratedAttendee struct {
	model.Attendee
	PurchaseStatus bool   `json:"purchaseStatus"`
	OrderID        string `json:"orderId,omitempty"`
	VoucherUsed    bool   `json:"voucherUsed,omitempty"`
}

// MergePurchases left-joins purchaser records onto attendees by user id.
// Every attendee yields exactly one output record; attendees absent from the
// purchaser list default to not-purchased. The purchaser list is indexed
// once, so the merge is O(n+m). When the same user id appears more than once
// among purchasers, the first record wins.
func MergePurchases(attendees []model.Attendee, purchasers []model.Purchaser) []DecoratedAttendee {
	byUser := make(map[int]model.Purchaser, len(purchasers))
	for _, p := range purchasers {
		if _, ok := byUser[p.UserID]; !ok {
			byUser[p.UserID] = p
		}
	}

	merged := make([]DecoratedAttendee, 0, len(attendees))
	for _, a := range attendees {
		d := DecoratedAttendee{Attendee: a}
		if p, ok := byUser[a.ID]; ok {
			d.PurchaseStatus = true
			d.OrderID = p.OrderID
			d.VoucherUsed = p.Voucher
		}
		merged = append(merged, d)
	}
	return merged
}
