package game

// Achievement is a named unlockable. Unlocked never reverts, and once set the
// progress stops changing.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Progress    int    `json:"progress"`
	Target      int    `json:"target"`
	Unlocked    bool   `json:"unlocked"`
}

// progressFunc recomputes progress from the previous achievement value, the
// state after the score was applied, and the score itself.
type progressFunc func(prev Achievement, st State, score int) int

type definition struct {
	id, title, desc, icon string
	target                int
	progress              progressFunc
}

// catalog order is the notification priority order.
var catalog = []definition{
	stateAchievement("first_practice", "First Steps", "Complete your first practice", "🎤", 1,
		func(s State) int { return s.TotalPractices }),
	countAchievement("high_scorer", "High Scorer", "Score 90 or above five times", "⭐", 5, 90),
	stateAchievement("perfectionist", "Perfectionist", "Get a perfect score", "💯", 1,
		func(s State) int { return s.PerfectScores }),
	stateAchievement("on_a_roll", "On a Roll", "Reach a streak of 10", "🔥", 10,
		func(s State) int { return s.Streak }),
	stateAchievement("combo_master", "Combo Master", "Reach the maximum combo", "⚡", 1,
		func(s State) int {
			if s.Combo >= MaxCombo {
				return 1
			}
			return 0
		}),
	stateAchievement("rising_star", "Rising Star", "Reach level 5", "🌟", 5,
		func(s State) int { return s.Level }),
	stateAchievement("dedicated_learner", "Dedicated Learner", "Complete 25 practices", "📚", 25,
		func(s State) int { return s.TotalPractices }),
	stateAchievement("point_collector", "Point Collector", "Earn 1000 points", "🏆", 1000,
		func(s State) int { return s.TotalPoints }),
}

// stateAchievement tracks a value read straight off the state.
func stateAchievement(id, title, desc, icon string, target int, read func(State) int) definition {
	return definition{id: id, title: title, desc: desc, icon: icon, target: target,
		progress: func(_ Achievement, st State, _ int) int { return read(st) }}
}

// countAchievement counts scores at or above threshold.
func countAchievement(id, title, desc, icon string, target, threshold int) definition {
	return definition{id: id, title: title, desc: desc, icon: icon, target: target,
		progress: func(prev Achievement, _ State, score int) int {
			if score >= threshold {
				return prev.Progress + 1
			}
			return prev.Progress
		}}
}

func (d definition) fresh() Achievement {
	return Achievement{ID: d.id, Title: d.title, Description: d.desc, Icon: d.icon, Target: d.target}
}

// Catalog returns fresh copies of every achievement in priority order.
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	for i, d := range catalog {
		out[i] = d.fresh()
	}
	return out
}

// recompute updates achievements against st and returns the ids unlocked by
// this call in catalog order.
func recompute(st *State, score int) []Achievement {
	byID := make(map[string]Achievement, len(st.Achievements))
	for _, a := range st.Achievements {
		byID[a.ID] = a
	}

	next := make([]Achievement, 0, len(catalog))
	var unlocked []Achievement
	for _, d := range catalog {
		prev, ok := byID[d.id]
		if !ok {
			prev = d.fresh()
		}
		if prev.Unlocked {
			next = append(next, prev)
			continue
		}
		prev.Progress = d.progress(prev, *st, score)
		if prev.Progress >= prev.Target {
			prev.Unlocked = true
			unlocked = append(unlocked, prev)
		}
		next = append(next, prev)
	}
	st.Achievements = next
	return unlocked
}
