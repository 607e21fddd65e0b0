package stubapi

import "github.com/jdarling/eventdash/internal/domain/model"

// Fixture data shaped like the live proxy API responses.

var fixturePractitioners = []model.Practitioner{}

var fixtureOrders = []model.Order{
	{ID: 9001, Status: "completed", Total: "450.00", DateCreated: "2026-08-10T09:15:00", LineItems: []model.LineItem{
		{Name: "Essential Training - Portland", Total: "450.00"},
	}},
	{ID: 9002, Status: "completed", Total: "500.00", DateCreated: "2026-08-10T14:02:00", LineItems: []model.LineItem{
		{Name: "Advanced Training - Portland", Total: "350.00"},
		{Name: "Tuning Fork Set", Total: "150.00"},
	}},
	{ID: 9003, Status: "processing", Total: "450.00", DateCreated: "2026-08-12T11:40:00", LineItems: []model.LineItem{
		{Name: "Essential Training - Austin", Total: "450.00"},
	}},
	{ID: 9004, Status: "completed", Total: "150.00", DateCreated: "2026-08-14T16:21:00", LineItems: []model.LineItem{
		{Name: "Tuning Fork Set", Total: "150.00"},
	}},
}

var fixtureEvents = []model.Event{
	{ID: 101, Name: "Essential Training - Portland", Status: "publish", Price: "450.00",
		TotalSales: 18, DateCreated: "2026-06-01T00:00:00", AssignedInstructor: "R. Vance"},
	{ID: 102, Name: "Advanced Training - Portland", Status: "publish", Price: "350.00",
		TotalSales: 9, DateCreated: "2026-06-15T00:00:00", MinConversionRate: 40},
	{ID: 103, Name: "Essential Training - Austin", Status: "publish", Price: "450.00",
		TotalSales: 4, DateCreated: "2026-07-01T00:00:00", AssignedInstructor: "M. Osei"},
}

var fixtureSubscribers = []model.Attendee{
	{ID: 501, FirstName: "Dana", LastName: "Reyes", Email: "dana@example.com",
		Tags: []model.Tag{{ID: 1, Title: "customer"}}},
	{ID: 502, FirstName: "Lee", LastName: "Okafor", Email: "lee@example.com",
		Tags: []model.Tag{{ID: 2, Title: "prospect"}}},
}

var fixtureLearnDashUsers = []model.Attendee{
	{ID: 501, DisplayName: "Dana Reyes", Email: "dana@example.com",
		Courses: []string{"Essential", "Advanced"}, Instruments: []string{"tuning fork set"}},
	{ID: 502, DisplayName: "Lee Okafor", Email: "lee@example.com",
		Courses: []string{"Essential"}},
	{ID: 503, DisplayName: "Priya Nair", Email: "priya@example.com",
		Certification: "Eligible"},
}

var fixtureDangerZone = []model.DangerZoneEntry{
	{EventID: 101, Title: "Essential Training - Portland", Status: "Go", Combined: 18, Threshold: 12, DaysUntil: 21},
	{EventID: 102, Title: "Advanced Training - Portland", Status: "Watch", Combined: 9, Threshold: 12, DaysUntil: 35},
	{EventID: 103, Title: "Essential Training - Austin", Status: "Danger", Combined: 4, Threshold: 12, DaysUntil: 9},
}

var fixtureRosters = map[int][]model.Attendee{
	101: {
		{ID: 501, DisplayName: "Dana Reyes", Email: "dana@example.com"},
		{ID: 502, DisplayName: "Lee Okafor", Email: "lee@example.com"},
	},
	102: {
		{ID: 501, DisplayName: "Dana Reyes", Email: "dana@example.com"},
	},
	103: {
		{ID: 503, DisplayName: "Priya Nair", Email: "priya@example.com"},
	},
}

var fixtureInstrumentSales = map[int]model.InstrumentSummary{
	101: {InstrumentPurchasers: 1, RevenueInstruments: 150,
		Purchasers: []model.Purchaser{{UserID: 501, OrderID: "9002"}}},
	102: {InstrumentPurchasers: 1, RevenueInstruments: 150,
		Purchasers: []model.Purchaser{{UserID: 501, OrderID: "9004", Voucher: true}}},
	103: {},
}
