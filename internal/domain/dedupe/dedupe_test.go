package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/jdarling/eventdash/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper()

		Convey("When recording a new key", func() {
			seen := d.SeenAndRecord(ctx, "key-1")

			Convey("Then it is newly recorded", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a repeat is reported as seen", func() {
				So(d.SeenAndRecord(ctx, "key-1"), ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording a failed submission", func() {
			d.SeenAndRecord(ctx, "key-2")
			d.Unrecord(ctx, "key-2")

			Convey("Then the key can be retried", func() {
				So(d.SeenAndRecord(ctx, "key-2"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording an unknown key", func() {
			d.Unrecord(ctx, "never-seen")
			So(d.Size(), ShouldEqual, 0)
		})
	})
}

func TestBoundedEviction(t *testing.T) {
	Convey("Given a deduper bounded to 3 keys", t, func() {
		ctx := context.Background()
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))

		Convey("When recording past the bound", func() {
			for i := 0; i < 4; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", i)), ShouldBeFalse)
			}

			Convey("Then the oldest key was evicted", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "key-0"), ShouldBeFalse) // forgotten
				So(d.SeenAndRecord(ctx, "key-3"), ShouldBeTrue)  // still tracked
			})
		})
	})
}
