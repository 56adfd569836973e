package game_test

import (
	"testing"

	"github.com/okian/mimicoo/internal/domain/game"
	. "github.com/smartystreets/goconvey/convey"
)

func kinds(ns []game.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Kind)
	}
	return out
}

func TestComputePoints(t *testing.T) {
	Convey("Given scores at each bonus tier", t, func() {
		So(game.ComputePoints(100, 1.0), ShouldEqual, 150)
		So(game.ComputePoints(90, 1.0), ShouldEqual, 140)
		So(game.ComputePoints(85, 1.0), ShouldEqual, 110)
		So(game.ComputePoints(75, 1.0), ShouldEqual, 85)
		So(game.ComputePoints(70, 1.0), ShouldEqual, 80)
		So(game.ComputePoints(60, 1.0), ShouldEqual, 60)
		So(game.ComputePoints(0, 1.0), ShouldEqual, 0)
	})

	Convey("Given a combo multiplier", t, func() {
		So(game.ComputePoints(95, 1.5), ShouldEqual, 217)
		So(game.ComputePoints(95, 3.0), ShouldEqual, 435)
	})
}

func TestNextCombo(t *testing.T) {
	Convey("Given combo transitions", t, func() {
		So(game.NextCombo(1.0, 80), ShouldEqual, 1.5)
		So(game.NextCombo(2.5, 99), ShouldEqual, 3.0)
		So(game.NextCombo(3.0, 99), ShouldEqual, 3.0)
		So(game.NextCombo(2.5, 79), ShouldEqual, 1.0)
	})
}

func TestApplyScore(t *testing.T) {
	Convey("Given a fresh state", t, func() {
		st := game.NewState()

		Convey("When applying a score of 85", func() {
			next, out := game.ApplyScore(st, 85)

			Convey("Then combo, streak and totals move as expected", func() {
				So(next.Combo, ShouldEqual, 1.5)
				So(next.Streak, ShouldEqual, 1)
				So(next.TotalPractices, ShouldEqual, 1)
				So(next.PerfectScores, ShouldEqual, 0)
				So(out.Points, ShouldEqual, 165)
				So(next.TotalPoints, ShouldEqual, 165)
				So(next.Level, ShouldEqual, 2)
				So(next.XP, ShouldEqual, 65)
				So(out.LevelsGained, ShouldEqual, 1)
			})

			Convey("Then the input state is left untouched", func() {
				So(st.TotalPractices, ShouldEqual, 0)
				a, _ := st.Achievement("first_practice")
				So(a.Unlocked, ShouldBeFalse)
			})
		})

		Convey("When applying a perfect score", func() {
			next, _ := game.ApplyScore(st, 100)
			So(next.PerfectScores, ShouldEqual, 1)
		})

		Convey("When applying a score of 99", func() {
			next, _ := game.ApplyScore(st, 99)
			So(next.PerfectScores, ShouldEqual, 0)
		})

		Convey("When applying any single score", func() {
			for _, s := range []int{0, 40, 69, 100} {
				next, _ := game.ApplyScore(game.NewState(), s)
				a, ok := next.Achievement("first_practice")
				So(ok, ShouldBeTrue)
				So(a.Unlocked, ShouldBeTrue)
				So(a.Progress, ShouldBeGreaterThanOrEqualTo, a.Target)
			}
		})

		Convey("When applying a low score", func() {
			mid, _ := game.ApplyScore(st, 90)
			next, out := game.ApplyScore(mid, 40)

			So(next.Streak, ShouldEqual, 0)
			So(next.Combo, ShouldEqual, 1.0)
			So(out.Points, ShouldEqual, 40)
		})

		Convey("When the score is out of range", func() {
			next, out := game.ApplyScore(st, 250)
			So(out.Score, ShouldEqual, 100)
			So(next.PerfectScores, ShouldEqual, 1)

			_, out = game.ApplyScore(st, -10)
			So(out.Score, ShouldEqual, 0)
			So(out.Points, ShouldEqual, 0)
		})
	})
}

func TestFiveConsecutiveHighScores(t *testing.T) {
	Convey("Given five consecutive scores of 95", t, func() {
		st := game.NewState()
		var out game.Outcome
		for i := 1; i <= 5; i++ {
			st, out = game.ApplyScore(st, 95)
			hs, _ := st.Achievement("high_scorer")
			if i < 5 {
				So(hs.Unlocked, ShouldBeFalse)
			}
		}

		Convey("Then the combo is capped and the streak counts every call", func() {
			So(st.Combo, ShouldEqual, 3.0)
			So(st.Streak, ShouldEqual, 5)
		})

		Convey("Then high_scorer unlocks on the fifth call", func() {
			hs, _ := st.Achievement("high_scorer")
			So(hs.Unlocked, ShouldBeTrue)
			So(hs.Progress, ShouldEqual, 5)
			So(len(out.NewlyUnlocked), ShouldEqual, 1)
			So(out.NewlyUnlocked[0].ID, ShouldEqual, "high_scorer")
			So(kinds(out.Notifications), ShouldContain, game.KindAchievementUnlocked)
		})
	})
}

func TestNotifications(t *testing.T) {
	Convey("Given a fresh state and a perfect first score", t, func() {
		next, out := game.ApplyScore(game.NewState(), 100)

		Convey("Then two achievements unlock but only the first notifies", func() {
			So(len(out.NewlyUnlocked), ShouldEqual, 2)
			So(out.NewlyUnlocked[0].ID, ShouldEqual, "first_practice")
			So(out.NewlyUnlocked[1].ID, ShouldEqual, "perfectionist")

			count := 0
			for _, n := range out.Notifications {
				if n.Kind == game.KindAchievementUnlocked {
					count++
					So(n.Message, ShouldEqual, "Complete your first practice")
				}
			}
			So(count, ShouldEqual, 1)
		})

		Convey("Then a multi-level jump emits a single level_up", func() {
			So(out.Points, ShouldEqual, 225)
			So(out.LevelsGained, ShouldEqual, 2)
			So(next.Level, ShouldEqual, 3)
			So(kinds(out.Notifications), ShouldResemble, []string{
				game.KindPointsEarned, game.KindLevelUp, game.KindAchievementUnlocked,
			})
		})
	})

	Convey("Given a score that gains no level and unlocks nothing new", t, func() {
		st, _ := game.ApplyScore(game.NewState(), 10)
		_, out := game.ApplyScore(st, 10)
		So(kinds(out.Notifications), ShouldResemble, []string{game.KindPointsEarned})
	})
}

func TestAchievementMonotonicity(t *testing.T) {
	Convey("Given on_a_roll progress that tracks the streak", t, func() {
		st := game.NewState()
		for i := 0; i < 10; i++ {
			st, _ = game.ApplyScore(st, 75)
		}
		roll, _ := st.Achievement("on_a_roll")
		So(roll.Unlocked, ShouldBeTrue)
		So(roll.Progress, ShouldEqual, 10)

		Convey("When the streak breaks", func() {
			st, _ = game.ApplyScore(st, 10)
			roll, _ = st.Achievement("on_a_roll")

			Convey("Then the achievement stays unlocked with frozen progress", func() {
				So(st.Streak, ShouldEqual, 0)
				So(roll.Unlocked, ShouldBeTrue)
				So(roll.Progress, ShouldEqual, 10)
			})
		})
	})

	Convey("Given achievements are unique by id", t, func() {
		st := game.NewState()
		for i := 0; i < 30; i++ {
			st, _ = game.ApplyScore(st, 88)
		}
		seen := map[string]bool{}
		for _, a := range st.Achievements {
			So(seen[a.ID], ShouldBeFalse)
			seen[a.ID] = true
		}
		So(len(st.Achievements), ShouldEqual, len(game.Catalog()))
	})
}

func TestZeroState(t *testing.T) {
	Convey("Given a zero-valued state", t, func() {
		next, out := game.ApplyScore(game.State{}, 85)

		So(next.Level, ShouldEqual, 2)
		So(next.XPToNextLevel, ShouldEqual, game.XPPerLevel)
		So(next.Combo, ShouldEqual, 1.5)
		So(len(next.Achievements), ShouldEqual, len(game.Catalog()))
		So(out.NewlyUnlocked[0].ID, ShouldEqual, "first_practice")
	})
}
