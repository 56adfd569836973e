package practice

import (
	"context"

	"github.com/okian/mimicoo/internal/domain/model"
)

// Score sources reported alongside every result.
const (
	SourceInference       = "inference"
	SourceLocal           = "local"
	SourceFallbackParse   = "fallback_parse"
	SourceFallbackNetwork = "fallback_network"
)

// Scorer analyzes a recording. Implementations never return errors; failures
// are expressed as ParseError or NetworkError outcomes.
type Scorer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisOutcome
}

// Analyzer picks the score source: the remote scorer when configured, the
// local simulator otherwise.
type Analyzer struct {
	remote Scorer
	local  Scorer
}

// NewAnalyzer builds an Analyzer. remote may be nil.
func NewAnalyzer(remote, local Scorer) *Analyzer {
	return &Analyzer{remote: remote, local: local}
}

// Remote reports whether an external scorer is configured.
func (a *Analyzer) Remote() bool { return a.remote != nil }

// Analyze always yields a result and the source it came from.
func (a *Analyzer) Analyze(ctx context.Context, req model.AnalysisRequest) (model.ScoreResult, string) {
	if a.remote != nil {
		return Resolve(a.remote.Analyze(ctx, req), SourceInference)
	}
	return Resolve(a.local.Analyze(ctx, req), SourceLocal)
}

// Resolve maps an outcome to a clamped result. Success keeps its own result
// under successSource; the failure variants become fixed fallbacks.
func Resolve(o model.AnalysisOutcome, successSource string) (model.ScoreResult, string) {
	switch v := o.(type) {
	case model.Success:
		return v.Result.Clamped(), successSource
	case model.ParseError:
		return ParseFallback(), SourceFallbackParse
	default:
		return NetworkFallback(), SourceFallbackNetwork
	}
}

// ParseFallback is shown when the analysis answer could not be decoded.
func ParseFallback() model.ScoreResult {
	return model.ScoreResult{
		Score: 75,
		Feedback: []string{
			"The AI could not process the analysis response. Here is a generic feedback:",
			"Ensure your microphone is clear and the recording environment is quiet.",
			"Focus on a steady reading pace for the next attempt.",
		},
		Strengths:     []string{"Successfully recorded and submitted the audio."},
		Improvements:  []string{"Check the audio quality of the recording."},
		Clarity:       70,
		Pronunciation: 70,
		Fluency:       70,
	}
}

// NetworkFallback is shown when the analysis could not be performed at all.
func NetworkFallback() model.ScoreResult {
	return model.ScoreResult{
		Score: 40,
		Feedback: []string{
			"An error occurred during AI analysis. Please check your API key and network connection.",
			"Keep practicing to improve your speaking skills!",
			"Try recording again after generating a new sentence.",
		},
		Strengths:     []string{"The app detected your voice recording successfully."},
		Improvements:  []string{"Check browser compatibility for audio recording."},
		Clarity:       40,
		Pronunciation: 40,
		Fluency:       40,
	}
}
