package model

import "math"

// Risk status labels.
const (
	StatusHigh     = "High Risk"
	StatusModerate = "Moderate Risk"
	StatusLow      = "Low Risk"
)

// Presentation color tags, one per status.
const (
	ColorHigh     = "bg-red-500"
	ColorModerate = "bg-yellow-500"
	ColorLow      = "bg-[#809671]"
)

const (
	highRiskThreshold     = 70
	moderateRiskThreshold = 40
)

// DeriveStatus maps a risk percentage to its status and color tag.
// It is pure: the same percent always yields the same pair.
func DeriveStatus(percent int) (status, colorTag string) {
	switch {
	case percent >= highRiskThreshold:
		return StatusHigh, ColorHigh
	case percent >= moderateRiskThreshold:
		return StatusModerate, ColorModerate
	default:
		return StatusLow, ColorLow
	}
}

// RiskAssessmentItem is one condition's evaluated risk. Status and ColorTag
// are derived from RiskPercent; build items with NewRiskAssessmentItem.
type RiskAssessmentItem struct {
	Condition   string `json:"condition"`
	RiskPercent int    `json:"risk_percentage"`
	Status      string `json:"status"`
	ColorTag    string `json:"color"`
	Reasoning   string `json:"reasoning,omitempty"`
}

// NewRiskAssessmentItem clamps percent to [0,100] and derives status and color.
func NewRiskAssessmentItem(condition string, percent int, reasoning string) RiskAssessmentItem {
	percent = ClampPercent(percent)
	status, color := DeriveStatus(percent)
	return RiskAssessmentItem{
		Condition:   condition,
		RiskPercent: percent,
		Status:      status,
		ColorTag:    color,
		Reasoning:   reasoning,
	}
}

// AnalysisReport is the risk analysis attached to an upload.
type AnalysisReport struct {
	RiskAssessment []RiskAssessmentItem `json:"risk_assessment"`
	OverallStatus  string               `json:"overall_status"`
	NextSteps      []string             `json:"next_steps"`
	KeyFindings    string               `json:"key_findings"`
	// Source is "simulation" or "inference".
	Source string `json:"source"`
}

// HighestRisk returns the item with the largest percentage, or false when empty.
func (r AnalysisReport) HighestRisk() (RiskAssessmentItem, bool) {
	if len(r.RiskAssessment) == 0 {
		return RiskAssessmentItem{}, false
	}
	best := r.RiskAssessment[0]
	for _, it := range r.RiskAssessment[1:] {
		if it.RiskPercent > best.RiskPercent {
			best = it
		}
	}
	return best, true
}

// ClampPercent bounds v to [0,100].
func ClampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// RoundPercent rounds v to the nearest integer and bounds it to [0,100].
// NaN maps to 0.
func RoundPercent(v float64) int {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 100:
		return 100
	default:
		return int(math.Round(v))
	}
}
