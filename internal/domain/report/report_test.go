package report_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/mimicoo/internal/domain/model"
	"github.com/okian/mimicoo/internal/domain/report"
	. "github.com/smartystreets/goconvey/convey"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func sampleInput() report.Input {
	return report.Input{
		ID:          "r-1",
		GeneratedAt: time.Date(2025, 3, 4, 5, 6, 7, 0, time.FixedZone("X", 3600)),
		Uploaded:    model.Summary{AvgPitch: 320.5, PitchVariability: 41.25, AvgEnergy: 0.0431, VoicingRatio: 0.55, DurationSeconds: 3},
		Reference:   model.Summary{AvgPitch: 350, PitchVariability: 50, AvgEnergy: 0.05, VoicingRatio: 0.6, DurationSeconds: 3},
		Analysis: model.AnalysisReport{
			RiskAssessment: []model.RiskAssessmentItem{
				model.NewRiskAssessmentItem("Autism Spectrum Disorder (ASD)", 75, ""),
				model.NewRiskAssessmentItem("Developmental Language Disorder (DLD)", 50, ""),
				model.NewRiskAssessmentItem("Hearing Impairment", 10, ""),
			},
			OverallStatus: "Consult Specialist",
			KeyFindings:   "Average pitch is lower than the reference.",
			NextSteps:     []string{"Book a visit.", "Keep practicing."},
		},
	}
}

func TestRender(t *testing.T) {
	Convey("Given a complete report input", t, func() {
		out := report.String(sampleInput())
		lines := strings.Split(out, "\n")

		Convey("Then the header comes first", func() {
			So(lines[0], ShouldEqual, report.Title)
			So(out, ShouldContainSubstring, "Generated: 2025-03-04T04:06:07Z")
			So(out, ShouldContainSubstring, "Report ID: r-1")
		})

		Convey("Then sections appear in order", func() {
			order := []string{"ACOUSTIC FEATURES", "RISK ASSESSMENT", "OVERALL STATUS", "KEY FINDINGS", "RECOMMENDED NEXT STEPS", "DISCLAIMER"}
			last := -1
			for _, h := range order {
				idx := strings.Index(out, "\n"+h+"\n")
				So(idx, ShouldBeGreaterThan, last)
				last = idx
			}
		})

		Convey("Then features and risks are formatted", func() {
			So(out, ShouldContainSubstring, "Average pitch: 320.50 Hz (reference 350.00 Hz)")
			So(out, ShouldContainSubstring, "Autism Spectrum Disorder (ASD): 75% (High Risk)")
			So(out, ShouldContainSubstring, "Developmental Language Disorder (DLD): 50% (Moderate Risk)")
			So(out, ShouldContainSubstring, "Hearing Impairment: 10% (Low Risk)")
		})

		Convey("Then next steps are numbered and the disclaimer closes the report", func() {
			So(out, ShouldContainSubstring, "1. Book a visit.\n2. Keep practicing.\n")
			So(strings.TrimSpace(out), ShouldEndWith, report.Disclaimer)
		})
	})

	Convey("Given a failing writer", t, func() {
		err := report.Render(failingWriter{}, sampleInput())
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "disk full")
	})

	Convey("Given a report id", t, func() {
		So(report.Filename("abc"), ShouldEqual, "mimicoo-report-abc.txt")
	})
}
