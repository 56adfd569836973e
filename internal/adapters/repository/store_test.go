package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/mimicoo/internal/adapters/repository"
	"github.com/okian/mimicoo/internal/domain/practice"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSessionStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store bounded to two sessions", t, func() {
		s := repository.NewMemoryStore(repository.WithMaxSessions(2))
		So(s.CreateSession(ctx, practice.NewSession("b")), ShouldBeNil)
		So(s.CreateSession(ctx, practice.NewSession("a")), ShouldBeNil)

		Convey("Then a third session is rejected", func() {
			err := s.CreateSession(ctx, practice.NewSession("c"))
			So(errors.Is(err, repository.ErrCapacity), ShouldBeTrue)
		})

		Convey("Then a duplicate id is rejected", func() {
			err := s.CreateSession(ctx, practice.NewSession("a"))
			So(errors.Is(err, repository.ErrDuplicate), ShouldBeTrue)
		})

		Convey("Then sessions are listed by id", func() {
			list := s.Sessions(ctx)
			So(len(list), ShouldEqual, 2)
			So(list[0].ID(), ShouldEqual, "a")
			So(list[1].ID(), ShouldEqual, "b")
		})

		Convey("When a session is deleted", func() {
			sess, err := s.DeleteSession(ctx, "a")
			So(err, ShouldBeNil)
			So(sess.ID(), ShouldEqual, "a")

			Convey("Then it is gone and room is freed", func() {
				_, err := s.Session(ctx, "a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(s.SessionCount(ctx), ShouldEqual, 1)
				So(s.CreateSession(ctx, practice.NewSession("c")), ShouldBeNil)
			})

			Convey("Then deleting again reports not found", func() {
				_, err := s.DeleteSession(ctx, "a")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given concurrent creates", t, func() {
		s := repository.NewMemoryStore(repository.WithMaxSessions(0))
		var wg sync.WaitGroup
		for i := 0; i < 100; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = s.CreateSession(ctx, practice.NewSession(fmt.Sprintf("s-%d", i)))
			}(i)
		}
		wg.Wait()
		So(s.SessionCount(ctx), ShouldEqual, 100)
	})
}

func TestReportStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store retaining two reports", t, func() {
		s := repository.NewMemoryStore(repository.WithMaxReports(2))
		for _, id := range []string{"r1", "r2", "r3"} {
			So(s.PutReport(ctx, repository.Report{ID: id, CreatedAt: time.Now()}), ShouldBeNil)
		}

		Convey("Then the oldest report was dropped", func() {
			So(s.ReportCount(ctx), ShouldEqual, 2)
			_, err := s.Report(ctx, "r1")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			r, err := s.Report(ctx, "r3")
			So(err, ShouldBeNil)
			So(r.ID, ShouldEqual, "r3")
		})

		Convey("When an existing report is replaced", func() {
			So(s.PutReport(ctx, repository.Report{ID: "r2"}), ShouldBeNil)
			So(s.PutReport(ctx, repository.Report{ID: "r4"}), ShouldBeNil)

			Convey("Then it counts as the newest", func() {
				_, err := s.Report(ctx, "r2")
				So(err, ShouldBeNil)
				_, err = s.Report(ctx, "r3")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
