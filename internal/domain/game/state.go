package game

import "fmt"

// State is the session-scoped progress ledger.
type State struct {
	Level          int           `json:"level"`
	XP             int           `json:"xp"`
	XPToNextLevel  int           `json:"xp_to_next_level"`
	TotalPoints    int           `json:"total_points"`
	Streak         int           `json:"streak"`
	PerfectScores  int           `json:"perfect_scores"`
	TotalPractices int           `json:"total_practices"`
	Combo          float64       `json:"combo_multiplier"`
	Achievements   []Achievement `json:"achievements"`
}

// NewState returns the defaults a fresh session starts with.
func NewState() State {
	return State{
		Level:         1,
		XPToNextLevel: XPPerLevel,
		Combo:         MinCombo,
		Achievements:  Catalog(),
	}
}

// Notification kinds.
const (
	KindPointsEarned        = "points_earned"
	KindLevelUp             = "level_up"
	KindAchievementUnlocked = "achievement_unlocked"
)

// Notification is a transient user-facing event produced by ApplyScore.
type Notification struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Outcome describes what a single ApplyScore call changed.
type Outcome struct {
	Score         int            `json:"score"`
	Points        int            `json:"points"`
	LevelsGained  int            `json:"levels_gained"`
	NewlyUnlocked []Achievement  `json:"newly_unlocked"`
	Notifications []Notification `json:"notifications"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.Achievements = append([]Achievement(nil), s.Achievements...)
	return s
}

// normalized repairs zero-valued fields so a State{} behaves like NewState.
func (s State) normalized() State {
	if s.Level < 1 {
		s.Level = 1
	}
	if s.XPToNextLevel <= 0 {
		s.XPToNextLevel = XPPerLevel
	}
	if s.Combo < MinCombo {
		s.Combo = MinCombo
	}
	return s
}

// ApplyScore folds one completed analysis score into state. The input is
// not modified. score is clamped to [0,100].
//
// At most one level_up and one achievement_unlocked notification are
// emitted per call, even when several levels or achievements are gained;
// Outcome.NewlyUnlocked still lists every unlock.
func ApplyScore(state State, score int) (State, Outcome) {
	score = ClampScore(score)
	st := state.Clone().normalized()

	st.Combo = NextCombo(st.Combo, score)
	points := ComputePoints(score, st.Combo)

	total := st.XP + points
	levels := total / st.XPToNextLevel
	st.XP = total % st.XPToNextLevel
	st.Level += levels

	st.TotalPoints += points
	st.TotalPractices++
	if score == perfectScore {
		st.PerfectScores++
	}
	if score >= streakThreshold {
		st.Streak++
	} else {
		st.Streak = 0
	}

	unlocked := recompute(&st, score)

	out := Outcome{Score: score, Points: points, LevelsGained: levels, NewlyUnlocked: unlocked}
	out.Notifications = append(out.Notifications, Notification{
		Kind:    KindPointsEarned,
		Title:   fmt.Sprintf("+%d points", points),
		Message: fmt.Sprintf("Score %d with a %.1fx combo", score, st.Combo),
	})
	if levels > 0 {
		out.Notifications = append(out.Notifications, Notification{
			Kind:    KindLevelUp,
			Title:   "Level up!",
			Message: fmt.Sprintf("You reached level %d", st.Level),
		})
	}
	if len(unlocked) > 0 {
		a := unlocked[0]
		out.Notifications = append(out.Notifications, Notification{
			Kind:    KindAchievementUnlocked,
			Title:   fmt.Sprintf("%s %s", a.Icon, a.Title),
			Message: a.Description,
		})
	}
	return st, out
}

// Achievement returns the achievement with id, if present.
func (s State) Achievement(id string) (Achievement, bool) {
	for _, a := range s.Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}
