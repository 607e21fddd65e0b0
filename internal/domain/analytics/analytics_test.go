package analytics_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/jdarling/eventdash/internal/domain/analytics"
	"github.com/jdarling/eventdash/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRevenueByDate(t *testing.T) {
	Convey("Given a list of orders", t, func() {
		orders := []model.Order{
			{Total: "100.00", DateCreated: "2024-01-01"},
			{Total: "50.00", DateCreated: "2024-01-01"},
			{Total: "bad", DateCreated: "2024-01-02"},
		}

		Convey("When grouping revenue by date", func() {
			series := analytics.RevenueByDate(orders)

			Convey("Then dates are ascending with one point per distinct date", func() {
				So(series, ShouldHaveLength, 2)
				So(series[0].Date, ShouldEqual, "2024-01-01")
				So(series[0].Revenue, ShouldEqual, 150)
				So(series[1].Date, ShouldEqual, "2024-01-02")
				So(series[1].Revenue, ShouldEqual, 0)
			})
		})

		Convey("When orders carry RFC3339 timestamps", func() {
			series := analytics.RevenueByDate([]model.Order{
				{Total: "10", DateCreated: "2024-03-05T08:30:00Z"},
				{Total: "5", DateCreated: "2024-03-05T18:00:00Z"},
			})

			Convey("Then both land on the same calendar date", func() {
				So(series, ShouldHaveLength, 1)
				So(series[0].Date, ShouldEqual, "2024-03-05")
				So(series[0].Revenue, ShouldEqual, 15)
			})
		})

		Convey("When the order list is empty", func() {
			So(analytics.RevenueByDate(nil), ShouldBeEmpty)
		})
	})
}

func TestRevenueConservation(t *testing.T) {
	Convey("Given orders with mixed parseable and unparseable totals", t, func() {
		orders := []model.Order{
			{Total: "12.34", DateCreated: "2024-05-01"},
			{Total: "0.66", DateCreated: "2024-05-02"},
			{Total: "not-a-number", DateCreated: "2024-05-02"},
			{Total: "7", DateCreated: "2024-05-03"},
			{Total: "", DateCreated: "2024-05-03"},
		}

		Convey("Then the series total matches the order total within tolerance", func() {
			var seriesSum float64
			for _, p := range analytics.RevenueByDate(orders) {
				seriesSum += p.Revenue
			}
			var orderSum float64
			for _, o := range orders {
				if v, err := strconv.ParseFloat(o.Total, 64); err == nil {
					orderSum += v
				}
			}
			So(math.Abs(seriesSum-orderSum), ShouldBeLessThan, 1e-9)
			So(seriesSum, ShouldEqual, analytics.TotalRevenue(orders))
		})
	})

	Convey("Given orders with non-finite totals", t, func() {
		orders := []model.Order{
			{Total: "Inf", DateCreated: "2024-05-01"},
			{Total: "-Inf", DateCreated: "2024-05-01"},
			{Total: "NaN", DateCreated: "2024-05-01"},
			{Total: "25.00", DateCreated: "2024-05-01"},
		}

		Convey("Then they contribute 0 instead of poisoning the sums", func() {
			series := analytics.RevenueByDate(orders)
			So(series, ShouldHaveLength, 1)
			So(series[0].Revenue, ShouldEqual, 25)
			So(analytics.TotalRevenue(orders), ShouldEqual, 25)
		})
	})
}

func TestTopProducts(t *testing.T) {
	Convey("Given orders with line items", t, func() {
		orders := []model.Order{
			{LineItems: []model.LineItem{
				{Name: "Essential Course", Total: "300"},
				{Name: "Instrument Set", Total: "500"},
			}},
			{LineItems: []model.LineItem{
				{Name: "Essential Course", Total: "300"},
				{Name: "Advanced Course", Total: "600"},
			}},
			{}, // no line items; contributes nothing
		}

		Convey("When ranking products by revenue", func() {
			ranked := analytics.TopProducts(orders, 10)

			Convey("Then revenue is summed per name and sorted descending", func() {
				So(ranked, ShouldHaveLength, 3)
				// Essential and Advanced tie at 600; Essential is first
				// encountered in the flattened sequence so it ranks first.
				So(ranked[0].Name, ShouldEqual, "Essential Course")
				So(ranked[0].Revenue, ShouldEqual, 600)
				So(ranked[1].Name, ShouldEqual, "Advanced Course")
				So(ranked[1].Revenue, ShouldEqual, 600)
				So(ranked[2].Name, ShouldEqual, "Instrument Set")
				So(ranked[2].Revenue, ShouldEqual, 500)
			})

			Convey("And ties keep encounter order", func() {
				tied := analytics.TopProducts([]model.Order{
					{LineItems: []model.LineItem{
						{Name: "B", Total: "100"},
						{Name: "A", Total: "100"},
					}},
				}, 10)
				So(tied[0].Name, ShouldEqual, "B")
				So(tied[1].Name, ShouldEqual, "A")
			})
		})

		Convey("When truncating to N", func() {
			ranked := analytics.TopProducts(orders, 2)
			So(ranked, ShouldHaveLength, 2)
		})

		Convey("When the limit is non-positive", func() {
			ranked := analytics.TopProducts(orders, 0)
			So(ranked, ShouldHaveLength, 3)
		})

		Convey("When a line total is unparseable", func() {
			ranked := analytics.TopProducts([]model.Order{
				{LineItems: []model.LineItem{{Name: "X", Total: "oops"}}},
			}, 10)
			So(ranked, ShouldHaveLength, 1)
			So(ranked[0].Revenue, ShouldEqual, 0)
		})
	})
}

func TestEffectiveConversionRate(t *testing.T) {
	Convey("Given an instrument summary", t, func() {
		Convey("When both counts are available it recomputes", func() {
			s := model.InstrumentSummary{TotalAttendees: 40, InstrumentPurchasers: 10, ConversionRate: 99}
			So(s.EffectiveConversionRate(), ShouldEqual, 25)
		})

		Convey("When attendee count is missing it trusts upstream", func() {
			s := model.InstrumentSummary{ConversionRate: 42}
			So(s.EffectiveConversionRate(), ShouldEqual, 42)
		})
	})
}
