package model_test

import (
	"errors"
	"testing"
	"time"

	model "github.com/okian/elo/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseOutcome(t *testing.T) {
	convey.Convey("Given client supplied outcomes", t, func() {
		convey.Convey("When parsing known values", func() {
			win, errWin := model.ParseOutcome("WIN")
			tie, errTie := model.ParseOutcome(" tie ")
			draw, errDraw := model.ParseOutcome("draw")

			convey.Convey("Then they should map to outcomes", func() {
				convey.So(errWin, convey.ShouldBeNil)
				convey.So(errTie, convey.ShouldBeNil)
				convey.So(errDraw, convey.ShouldBeNil)
				convey.So(win, convey.ShouldEqual, model.OutcomeWin)
				convey.So(tie, convey.ShouldEqual, model.OutcomeTie)
				convey.So(draw, convey.ShouldEqual, model.OutcomeTie)
			})
		})

		convey.Convey("When parsing an unknown value", func() {
			_, err := model.ParseOutcome("loss")

			convey.Convey("Then it should fail", func() {
				convey.So(errors.Is(err, model.ErrUnknownOutcome), convey.ShouldBeTrue)
			})
		})
	})
}

func TestBoutValidate(t *testing.T) {
	convey.Convey("Given a bout", t, func() {
		valid := model.Bout{
			BoutID:      "bout-1",
			CompetitorA: "alice",
			CompetitorB: "bob",
			Outcome:     model.OutcomeWin,
			TS:          time.Now(),
		}

		convey.Convey("When every field is set", func() {
			convey.Convey("Then it should validate", func() {
				convey.So(valid.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When fields are missing or wrong", func() {
			noID := valid
			noID.BoutID = " "
			noB := valid
			noB.CompetitorB = ""
			self := valid
			self.CompetitorB = "alice"
			bad := valid
			bad.Outcome = "loss"

			convey.Convey("Then each case should report its error", func() {
				convey.So(errors.Is(noID.Validate(), model.ErrMissingBoutID), convey.ShouldBeTrue)
				convey.So(errors.Is(noB.Validate(), model.ErrMissingCompetitor), convey.ShouldBeTrue)
				convey.So(errors.Is(self.Validate(), model.ErrSelfBout), convey.ShouldBeTrue)
				convey.So(errors.Is(bad.Validate(), model.ErrUnknownOutcome), convey.ShouldBeTrue)
			})
		})
	})
}
