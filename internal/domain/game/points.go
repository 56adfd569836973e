// Package game implements the practice progress engine: points, levels,
// streaks, the combo multiplier and achievements.
//
// Every function here is pure. Callers own the State value and are
// responsible for serializing updates to it.
package game

import "math"

const (
	// XPPerLevel is the XP needed to advance one level. It does not scale.
	XPPerLevel = 100

	MinCombo  = 1.0
	MaxCombo  = 3.0
	ComboStep = 0.5

	comboThreshold  = 80
	streakThreshold = 70
	perfectScore    = 100
	maxScore        = 100
)

// Score bonus tiers. Only the highest matching tier applies.
const (
	bonusExcellent = 50 // score >= 90
	bonusGreat     = 25 // score >= 80
	bonusGood      = 10 // score >= 70
)

// Bonus returns the tier bonus for score.
func Bonus(score int) int {
	switch {
	case score >= 90:
		return bonusExcellent
	case score >= 80:
		return bonusGreat
	case score >= 70:
		return bonusGood
	default:
		return 0
	}
}

// ComputePoints returns floor((score + bonus) * combo).
func ComputePoints(score int, combo float64) int {
	return int(math.Floor(float64(score+Bonus(score)) * combo))
}

// NextCombo grows combo by one step on a qualifying score, capped at
// MaxCombo, and resets it otherwise.
func NextCombo(combo float64, score int) float64 {
	if score < comboThreshold {
		return MinCombo
	}
	return math.Min(combo+ComboStep, MaxCombo)
}

// ClampScore bounds score to [0,100].
func ClampScore(score int) int {
	return max(0, min(maxScore, score))
}
