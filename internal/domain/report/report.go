// Package report renders the downloadable plain-text screening report.
//
// Layout, in order:
//
//	MIMICOO BABBLE ANALYSIS REPORT
//	Generated: <RFC 3339 UTC>
//	Report ID: <id>
//
//	ACOUSTIC FEATURES
//	<feature>: <uploaded> (reference <reference>)
//
//	RISK ASSESSMENT
//	<condition>: <N>% (<status>)
//
//	OVERALL STATUS
//	KEY FINDINGS
//	RECOMMENDED NEXT STEPS   (numbered)
//	DISCLAIMER
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/okian/mimicoo/internal/domain/model"
)

// Title is the first line of every report.
const Title = "MIMICOO BABBLE ANALYSIS REPORT"

// Disclaimer closes every report.
const Disclaimer = "This report is generated from simulated acoustic analysis for screening " +
	"support only. It is not a medical diagnosis. Please consult a qualified " +
	"healthcare professional about any concerns regarding your child's development."

const rule = "=============================="

// Input is everything a report is assembled from.
type Input struct {
	ID          string
	GeneratedAt time.Time
	Uploaded    model.Summary
	Reference   model.Summary
	Analysis    model.AnalysisReport
}

// Render writes the report to w.
func Render(w io.Writer, in Input) error {
	bw := bufio.NewWriter(w)

	line := func(format string, args ...any) {
		fmt.Fprintf(bw, format+"\n", args...)
	}
	section := func(name string) {
		line("")
		line("%s", name)
		line("%s", strings.Repeat("-", len(name)))
	}

	line("%s", Title)
	line("%s", rule)
	line("Generated: %s", in.GeneratedAt.UTC().Format(time.RFC3339))
	line("Report ID: %s", in.ID)

	section("ACOUSTIC FEATURES")
	line("Average pitch: %.2f Hz (reference %.2f Hz)", in.Uploaded.AvgPitch, in.Reference.AvgPitch)
	line("Pitch variability: %.4f (reference %.4f)", in.Uploaded.PitchVariability, in.Reference.PitchVariability)
	line("Average energy: %.4f (reference %.4f)", in.Uploaded.AvgEnergy, in.Reference.AvgEnergy)
	line("Voicing ratio: %.4f (reference %.4f)", in.Uploaded.VoicingRatio, in.Reference.VoicingRatio)
	line("Duration: %.2f s (reference %.2f s)", in.Uploaded.DurationSeconds, in.Reference.DurationSeconds)

	section("RISK ASSESSMENT")
	for _, it := range in.Analysis.RiskAssessment {
		line("%s: %d%% (%s)", it.Condition, it.RiskPercent, it.Status)
	}

	section("OVERALL STATUS")
	line("%s", in.Analysis.OverallStatus)

	section("KEY FINDINGS")
	line("%s", in.Analysis.KeyFindings)

	section("RECOMMENDED NEXT STEPS")
	for i, step := range in.Analysis.NextSteps {
		line("%d. %s", i+1, step)
	}

	section("DISCLAIMER")
	line("%s", Disclaimer)

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// String renders the report into a string.
func String(in Input) string {
	var sb strings.Builder
	_ = Render(&sb, in) // strings.Builder never fails
	return sb.String()
}

// Filename is the attachment name offered for download.
func Filename(id string) string {
	return fmt.Sprintf("mimicoo-report-%s.txt", id)
}
