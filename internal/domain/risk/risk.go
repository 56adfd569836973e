// Package risk simulates a bounded-random risk assessment standing in for a
// real classifier. The bands and thresholds below are fixed contracts; only
// the jitter inside each band is random.
package risk

import (
	"fmt"
	"math"

	"github.com/okian/mimicoo/internal/domain/model"
)

// Condition labels.
const (
	ConditionASD     = "Autism Spectrum Disorder (ASD)"
	ConditionDLD     = "Developmental Language Disorder (DLD)"
	ConditionHearing = "Hearing Impairment"
)

// Overall status labels.
const (
	OverallNormal  = "Normal Development"
	OverallMonitor = "Monitor Closely"
	OverallConsult = "Consult Specialist"
)

// SourceSimulation marks reports produced by Simulate.
const SourceSimulation = "simulation"

const (
	urgentThreshold   = 70
	consultThreshold  = 40
	hearingScreenFrom = 10
)

// Band describes how one condition's percentage is drawn.
type Band struct {
	Condition string
	Base      int
	Jitter    int
	Min       int
	Max       int
}

// Bands lists the simulated conditions in report order.
var Bands = []Band{
	{Condition: ConditionASD, Base: 75, Jitter: 10, Min: 65, Max: 85},
	{Condition: ConditionDLD, Base: 55, Jitter: 10, Min: 45, Max: 65},
	{Condition: ConditionHearing, Base: 10, Jitter: 5, Min: 5, Max: 15},
}

// Source is the random source used for jitter.
type Source interface {
	Intn(n int) int
}

// Draw returns base +/- jitter clamped to the band.
func (b Band) Draw(src Source) int {
	v := b.Base + src.Intn(2*b.Jitter+1) - b.Jitter
	return max(b.Min, min(b.Max, v))
}

// Derive maps a percentage to its status and color tag.
func Derive(percent int) (status, colorTag string) {
	return model.DeriveStatus(percent)
}

// Overall maps the highest risk in items to an overall status.
func Overall(items []model.RiskAssessmentItem) string {
	switch top := highest(items); {
	case top >= urgentThreshold:
		return OverallConsult
	case top >= consultThreshold:
		return OverallMonitor
	default:
		return OverallNormal
	}
}

// Simulate produces a full analysis report comparing uploaded against reference.
func Simulate(src Source, uploaded, reference model.Summary) model.AnalysisReport {
	items := make([]model.RiskAssessmentItem, 0, len(Bands))
	for _, b := range Bands {
		p := b.Draw(src)
		items = append(items, model.NewRiskAssessmentItem(b.Condition, p, reasoning(b.Condition, uploaded, reference)))
	}
	return model.AnalysisReport{
		RiskAssessment: items,
		OverallStatus:  Overall(items),
		NextSteps:      NextSteps(items),
		KeyFindings:    Findings(uploaded, reference),
		Source:         SourceSimulation,
	}
}

// PercentDelta returns (a-b)/b as a percentage; 0 when b is zero.
func PercentDelta(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return (a - b) / b * 100
}

func direction(delta float64) string {
	if delta < 0 {
		return "lower than"
	}
	return "higher than"
}

// Findings interpolates pitch and variability deltas into the findings narrative.
func Findings(uploaded, reference model.Summary) string {
	pitch := PercentDelta(uploaded.AvgPitch, reference.AvgPitch)
	variability := PercentDelta(uploaded.PitchVariability, reference.PitchVariability)
	return fmt.Sprintf(
		"Average pitch is %.1f%% %s the reference (%.2f Hz vs %.2f Hz) and pitch variability is %.1f%% %s the reference. "+
			"Voicing ratio is %.2f against a reference of %.2f. "+
			"These acoustic markers are compared against typical babble development patterns.",
		math.Abs(pitch), direction(pitch), uploaded.AvgPitch, reference.AvgPitch,
		math.Abs(variability), direction(variability),
		uploaded.VoicingRatio, reference.VoicingRatio,
	)
}

// NextSteps picks recommendations gated by the highest risk in items.
func NextSteps(items []model.RiskAssessmentItem) []string {
	steps := make([]string, 0, 4)
	switch top := highest(items); {
	case top >= urgentThreshold:
		steps = append(steps, "Schedule an evaluation with a pediatric speech-language pathologist as soon as possible.")
	case top >= consultThreshold:
		steps = append(steps, "Discuss these results with your pediatrician at the next well-child visit.")
	default:
		steps = append(steps, "Continue routine monitoring and record a new sample in two weeks.")
	}
	for _, it := range items {
		if it.Condition == ConditionHearing && it.RiskPercent >= hearingScreenFrom {
			steps = append(steps, "Request a formal hearing screening to rule out hearing-related causes.")
		}
	}
	return append(steps,
		"Encourage babbling through face-to-face play, singing and turn-taking games.",
		"Record babble samples regularly to track changes over time.",
	)
}

func reasoning(condition string, uploaded, reference model.Summary) string {
	switch condition {
	case ConditionASD:
		return fmt.Sprintf("Voicing ratio %.2f vs reference %.2f; reduced vocal engagement weighs toward this condition.",
			uploaded.VoicingRatio, reference.VoicingRatio)
	case ConditionDLD:
		return fmt.Sprintf("Pitch variability differs from the reference by %.1f%%, which affects prosodic development.",
			math.Abs(PercentDelta(uploaded.PitchVariability, reference.PitchVariability)))
	case ConditionHearing:
		return fmt.Sprintf("Average energy %.4f vs reference %.4f; vocal strength is within the expected range for screening.",
			uploaded.AvgEnergy, reference.AvgEnergy)
	default:
		return ""
	}
}

func highest(items []model.RiskAssessmentItem) int {
	top := 0
	for _, it := range items {
		top = max(top, it.RiskPercent)
	}
	return top
}
