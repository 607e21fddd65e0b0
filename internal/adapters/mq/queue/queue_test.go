package queue_test

import (
	"context"
	"testing"

	"github.com/jdarling/eventdash/internal/adapters/mq/queue"
	"github.com/jdarling/eventdash/internal/cache"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryQueue(t *testing.T) {
	Convey("Given a bounded queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		job := func(name string) queue.Job {
			return queue.Job{Key: cache.Key(name), Run: func(ctx context.Context) error { return nil }}
		}

		Convey("When enqueueing within capacity", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("b")), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			Convey("Then a further enqueue reports backpressure", func() {
				So(q.Enqueue(ctx, job("c")), ShouldBeFalse)
			})

			Convey("And dequeue yields jobs in order", func() {
				first := <-q.Dequeue(ctx)
				second := <-q.Dequeue(ctx)
				So(first.Key, ShouldEqual, cache.Key("a"))
				So(second.Key, ShouldEqual, cache.Key("b"))
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueues are rejected", func() {
				So(q.Enqueue(ctx, job("x")), ShouldBeFalse)
				So(q.IsClosed(), ShouldBeTrue)
			})

			Convey("Then the dequeue channel is closed", func() {
				_, ok := <-q.Dequeue(ctx)
				So(ok, ShouldBeFalse)
			})

			Convey("Then a second close errors", func() {
				So(q.Close(), ShouldWrap, queue.ErrQueueClosed)
			})
		})
	})
}
