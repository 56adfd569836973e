package model

import "time"

// AnalysisOutcome is the result of asking a scorer to analyze a recording.
// It is one of Success, ParseError or NetworkError.
type AnalysisOutcome interface {
	isAnalysisOutcome()
}

// Success carries a validated, clamped result.
type Success struct {
	Result ScoreResult
}

// ParseError means the scorer answered but the body could not be decoded.
type ParseError struct {
	Raw string
	Err error
}

// NetworkError covers transport failures, non-2xx responses and exhausted
// rate-limit retries.
type NetworkError struct {
	Err error
}

func (Success) isAnalysisOutcome()      {}
func (ParseError) isAnalysisOutcome()   {}
func (NetworkError) isAnalysisOutcome() {}

// AnalysisRequest is what a scorer needs to analyze one practice recording.
type AnalysisRequest struct {
	SessionID   string
	Sentence    string
	AgeCategory string
	Audio       []byte
	MimeType    string
	Duration    time.Duration
}
