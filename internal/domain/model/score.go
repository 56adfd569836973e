package model

// ScoreResult is the outcome of a practice analysis.
type ScoreResult struct {
	Score         int      `json:"score"`
	Feedback      []string `json:"feedback"`
	Strengths     []string `json:"strengths"`
	Improvements  []string `json:"improvements"`
	Clarity       int      `json:"clarity"`
	Pronunciation int      `json:"pronunciation"`
	Fluency       int      `json:"fluency"`
}

// Clamped returns a copy with every numeric field bounded to [0,100].
func (r ScoreResult) Clamped() ScoreResult {
	r.Score = ClampPercent(r.Score)
	r.Clarity = ClampPercent(r.Clarity)
	r.Pronunciation = ClampPercent(r.Pronunciation)
	r.Fluency = ClampPercent(r.Fluency)
	return r
}

// ScoreColor returns the presentation tag for a practice score.
func ScoreColor(score int) string {
	switch {
	case score >= 80:
		return ColorLow // green
	case score >= 60:
		return ColorModerate
	default:
		return ColorHigh
	}
}

// UploadResponse is returned by the baseline upload endpoint.
type UploadResponse struct {
	Status           string           `json:"status"`
	Message          string           `json:"message"`
	ReportID         string           `json:"report_id,omitempty"`
	UploadedFeatures *AudioFeatureSet `json:"uploaded_features,omitempty"`
	BaseFeatures     *AudioFeatureSet `json:"base_features,omitempty"`
	Analysis         *AnalysisReport  `json:"analysis,omitempty"`
}
