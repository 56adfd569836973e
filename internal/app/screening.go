package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/okian/mimicoo/internal/adapters/repository"
	"github.com/okian/mimicoo/internal/domain/model"
	"github.com/okian/mimicoo/internal/domain/report"
	"github.com/okian/mimicoo/internal/domain/risk"
	"github.com/okian/mimicoo/internal/domain/signal"
	"github.com/okian/mimicoo/internal/domain/types"
	"github.com/okian/mimicoo/pkg/logger"
	"github.com/okian/mimicoo/pkg/metrics"
)

const (
	// bytesPerSecond approximates 16 kHz 16-bit mono audio.
	bytesPerSecond = 32000
	minUploadSecs  = 1.0
	maxUploadSecs  = 60.0

	// uploaded averages deviate from the reference by at most this fraction.
	uploadSpread = 0.15
)

// UploadInput is a baseline recording uploaded for screening.
type UploadInput struct {
	Filename string
	Audio    []byte
	// SessionID routes progress frames; empty broadcasts to everyone.
	SessionID string
}

var screeningStages = []string{
	"Uploading audio...",
	"Extracting acoustic features...",
	"Comparing with reference...",
	"Generating risk assessment...",
}

// UploadBaseline synthesizes features for the upload and the reference
// voice, assesses risk and stores the report for download.
func (s *Service) UploadBaseline(ctx context.Context, in UploadInput) (model.UploadResponse, error) {
	if err := s.running(); err != nil {
		return model.UploadResponse{}, err
	}
	if len(in.Audio) == 0 {
		return model.UploadResponse{}, fmt.Errorf("%w: empty upload", ErrInvalidArgument)
	}

	duration := float64(len(in.Audio)) / bytesPerSecond
	duration = max(minUploadSecs, min(maxUploadSecs, duration))

	s.stage(ctx, in.SessionID, screeningStages[0])
	s.stage(ctx, in.SessionID, screeningStages[1])

	reference, err := signal.Synthesize(s.rng, signal.Params{
		AvgPitch:        s.referencePitch,
		AvgEnergy:       s.referenceEnergy,
		DurationSeconds: duration,
		PitchSamples:    s.pitchSamples,
		EnergySamples:   s.energySamples,
	})
	if err != nil {
		return model.UploadResponse{}, fmt.Errorf("reference features: %w", err)
	}
	uploaded, err := signal.Synthesize(s.rng, signal.Params{
		AvgPitch:        s.referencePitch * s.deviation(),
		AvgEnergy:       s.referenceEnergy * s.deviation(),
		DurationSeconds: duration,
		PitchSamples:    s.pitchSamples,
		EnergySamples:   s.energySamples,
	})
	if err != nil {
		return model.UploadResponse{}, fmt.Errorf("uploaded features: %w", err)
	}

	s.stage(ctx, in.SessionID, screeningStages[2])
	s.stage(ctx, in.SessionID, screeningStages[3])

	analysis := s.assess(ctx, uploaded.Summary(), reference.Summary())
	for _, item := range analysis.RiskAssessment {
		metrics.RecordRiskPercentage(item.Condition, item.RiskPercent)
	}

	id := uuid.NewString()
	err = s.store.PutReport(ctx, repository.Report{
		ID:        id,
		CreatedAt: s.now(),
		Input: report.Input{
			ID:          id,
			GeneratedAt: s.now(),
			Uploaded:    uploaded.Summary(),
			Reference:   reference.Summary(),
			Analysis:    analysis,
		},
	})
	if err != nil {
		return model.UploadResponse{}, fmt.Errorf("store report: %w", err)
	}
	metrics.RecordUploadProcessed()

	resp := model.UploadResponse{
		Status:           "success",
		Message:          fmt.Sprintf("Audio file '%s' analyzed successfully", in.Filename),
		ReportID:         id,
		UploadedFeatures: &uploaded,
		BaseFeatures:     &reference,
		Analysis:         &analysis,
	}
	s.broadcaster.Broadcast(types.Complete(in.SessionID, resp))

	s.logger.Info(ctx, "baseline analyzed",
		logger.String("report_id", id),
		logger.String("filename", in.Filename),
		logger.Float64("duration", duration),
		logger.String("overall", analysis.OverallStatus),
		logger.String("source", analysis.Source),
	)
	return resp, nil
}

// Report renders a stored report and returns its download filename.
func (s *Service) Report(ctx context.Context, id string) (filename, body string, err error) {
	if err := s.running(); err != nil {
		return "", "", err
	}
	r, err := s.store.Report(ctx, id)
	if err != nil {
		return "", "", err
	}
	metrics.RecordReportRendered()
	return report.Filename(r.ID), report.String(r.Input), nil
}

func (s *Service) assess(ctx context.Context, uploaded, reference model.Summary) model.AnalysisReport {
	if s.assessor != nil {
		rep, err := s.assessor.AssessRisk(ctx, uploaded, reference)
		if err == nil {
			return rep
		}
		s.logger.Warn(ctx, "risk assessment unavailable, simulating", logger.Error(err))
		metrics.RecordError("screening", "risk_assessment")
	}
	return risk.Simulate(s.rng, uploaded, reference)
}

// deviation returns a factor in [1-uploadSpread, 1+uploadSpread].
func (s *Service) deviation() float64 {
	return 1 + (2*s.rng.Float64()-1)*uploadSpread
}
