package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/mimicoo/internal/adapters/repository"
	service "github.com/okian/mimicoo/internal/app"
	"github.com/okian/mimicoo/internal/domain/model"
	"github.com/okian/mimicoo/internal/domain/practice"
	"github.com/okian/mimicoo/internal/domain/risk"
	"github.com/okian/mimicoo/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// recorder captures broadcast frames and signals each complete frame.
type recorder struct {
	mu       sync.Mutex
	frames   []types.Frame
	complete chan types.Frame
}

func newRecorder() *recorder {
	return &recorder{complete: make(chan types.Frame, 16)}
}

func (r *recorder) Broadcast(f types.Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
	if f.Type == types.FrameComplete {
		r.complete <- f
	}
}

func (r *recorder) ofType(t string) []types.Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []types.Frame
	for _, f := range r.frames {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

func (r *recorder) await() (types.Frame, bool) {
	select {
	case f := <-r.complete:
		return f, true
	case <-time.After(5 * time.Second):
		return types.Frame{}, false
	}
}

type fixedScorer struct{ out model.AnalysisOutcome }

func (f fixedScorer) Analyze(context.Context, model.AnalysisRequest) model.AnalysisOutcome {
	return f.out
}

type stubAssessor struct {
	rep model.AnalysisReport
	err error
}

func (s stubAssessor) AssessRisk(context.Context, model.Summary, model.Summary) (model.AnalysisReport, error) {
	return s.rep, s.err
}

func newService(rec *recorder, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithWorkerCount(1),
		service.WithStageDelay(0),
		service.WithLocalLatency(0, 0),
		service.WithSeed(11),
		service.WithBroadcaster(rec),
	}
	return service.New(append(base, opts...)...)
}

func recordTake(ctx context.Context, svc *service.Service, id string) {
	_, err := svc.StartRecording(ctx, id, true)
	So(err, ShouldBeNil)
	_, err = svc.StopRecording(ctx, id, []byte("take"), "audio/webm")
	So(err, ShouldBeNil)
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := newService(newRecorder())

		Convey("Then operations fail before it starts", func() {
			_, err := svc.CreateSession(ctx, practice.AgeChild)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.UploadBaseline(ctx, service.UploadInput{Audio: []byte("x")})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When started", func() {
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then a second start is a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
			})

			Convey("Then stats describe the running service", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["workerCount"], ShouldEqual, 1)
				So(stats["activeSessions"], ShouldEqual, 0)
				So(stats["remoteScoring"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})

			Convey("Then stopping releases it", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_PracticeSession(t *testing.T) {
	Convey("Given a started service with the local scorer", t, func() {
		ctx := context.Background()
		rec := newRecorder()
		svc := newService(rec)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })

		view, err := svc.CreateSession(ctx, "unknown-age")
		So(err, ShouldBeNil)
		id := view.ID

		Convey("Then the session starts idle with a challenge", func() {
			So(id, ShouldNotBeEmpty)
			So(view.Status, ShouldEqual, practice.StatusIdle)
			So(view.AgeCategory, ShouldEqual, practice.DefaultAge)
			So(view.Sentence, ShouldNotBeEmpty)
			So(view.Game.Level, ShouldEqual, 1)
		})

		Convey("When microphone permission is denied", func() {
			_, err := svc.StartRecording(ctx, id, false)

			Convey("Then the session stays idle", func() {
				So(errors.Is(err, practice.ErrPermissionDenied), ShouldBeTrue)
				v, err := svc.Session(ctx, id)
				So(err, ShouldBeNil)
				So(v.Status, ShouldEqual, practice.StatusIdle)
			})
		})

		Convey("When analysis is requested without a recording", func() {
			_, err := svc.SubmitAnalysis(ctx, id, "k")

			Convey("Then the transition is rejected", func() {
				So(errors.Is(err, practice.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When a take is recorded and analyzed", func() {
			recordTake(ctx, svc, id)
			ticket, err := svc.SubmitAnalysis(ctx, id, "take-1")
			So(err, ShouldBeNil)
			So(ticket.Status, ShouldEqual, "accepted")
			So(ticket.JobID, ShouldNotBeEmpty)

			frame, ok := rec.await()
			So(ok, ShouldBeTrue)

			Convey("Then the completion carries the scored session", func() {
				So(frame.SessionID, ShouldEqual, id)
				v, ok := frame.Data.(practice.View)
				So(ok, ShouldBeTrue)
				So(v.Status, ShouldEqual, practice.StatusScored)
				So(v.LastSource, ShouldEqual, practice.SourceLocal)
				So(v.LastResult, ShouldNotBeNil)
				So(v.LastResult.Score, ShouldBeBetweenOrEqual, 60, 100)
				So(v.Game.TotalPractices, ShouldEqual, 1)
				So(v.Game.TotalPoints, ShouldBeGreaterThan, 0)
			})

			Convey("Then stage and notification frames were pushed first", func() {
				So(len(rec.ofType(types.FrameStatus)), ShouldEqual, 3)
				So(rec.ofType(types.FrameNotification), ShouldNotBeEmpty)
			})

			Convey("Then a retried submit with the same key is acknowledged only", func() {
				again, err := svc.SubmitAnalysis(ctx, id, "take-1")
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.JobID, ShouldBeEmpty)
			})

			Convey("Then reset returns the session to idle", func() {
				v, err := svc.ResetSession(ctx, id)
				So(err, ShouldBeNil)
				So(v.Status, ShouldEqual, practice.StatusIdle)
				So(v.Game.TotalPractices, ShouldEqual, 1)
			})
		})

		Convey("When a new challenge is requested", func() {
			v, err := svc.NewChallenge(ctx, id, "  Big red ball.  ")
			So(err, ShouldBeNil)

			Convey("Then the cleaned sentence replaces the old one", func() {
				So(v.Sentence, ShouldEqual, "Big red ball.")
			})
		})

		Convey("When the session is deleted", func() {
			So(svc.DeleteSession(ctx, id), ShouldBeNil)

			Convey("Then it is gone", func() {
				_, err := svc.Session(ctx, id)
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(svc.DeleteSession(ctx, id), repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_UnreachableInference(t *testing.T) {
	Convey("Given a service whose remote scorer cannot be reached", t, func() {
		ctx := context.Background()
		rec := newRecorder()
		svc := newService(rec, service.WithRemoteScorer(fixedScorer{
			out: model.NetworkError{Err: errors.New("dial tcp: connection refused")},
		}))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })

		view, err := svc.CreateSession(ctx, practice.AgePreschool)
		So(err, ShouldBeNil)

		Convey("When a take is analyzed", func() {
			recordTake(ctx, svc, view.ID)
			_, err := svc.SubmitAnalysis(ctx, view.ID, "")
			So(err, ShouldBeNil)

			frame, ok := rec.await()
			So(ok, ShouldBeTrue)

			Convey("Then the network fallback is scored", func() {
				v := frame.Data.(practice.View)
				So(v.LastSource, ShouldEqual, practice.SourceFallbackNetwork)
				So(v.LastResult.Score, ShouldEqual, 40)
				So(v.Game.Streak, ShouldEqual, 0)
				So(v.Game.Combo, ShouldEqual, 1.0)
				So(v.Game.TotalPractices, ShouldEqual, 1)
			})
		})
	})
}

func TestService_UploadBaseline(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		rec := newRecorder()
		svc := newService(rec)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })

		Convey("When the upload is empty", func() {
			_, err := svc.UploadBaseline(ctx, service.UploadInput{Filename: "a.wav"})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
			})
		})

		Convey("When two seconds of audio are uploaded", func() {
			resp, err := svc.UploadBaseline(ctx, service.UploadInput{
				Filename:  "baby.wav",
				Audio:     make([]byte, 64000),
				SessionID: "s-1",
			})
			So(err, ShouldBeNil)

			Convey("Then both feature sets share the duration", func() {
				So(resp.Status, ShouldEqual, "success")
				So(resp.Message, ShouldContainSubstring, "baby.wav")
				So(resp.UploadedFeatures.DurationSeconds, ShouldEqual, 2.0)
				So(resp.BaseFeatures.DurationSeconds, ShouldEqual, 2.0)
				So(len(resp.UploadedFeatures.PitchSeries), ShouldEqual, 200)
				So(len(resp.UploadedFeatures.EnergySeries), ShouldEqual, 100)
			})

			Convey("Then the risk assessment is simulated", func() {
				So(resp.Analysis.Source, ShouldEqual, risk.SourceSimulation)
				So(len(resp.Analysis.RiskAssessment), ShouldEqual, 3)
				So(resp.Analysis.OverallStatus, ShouldNotBeEmpty)
			})

			Convey("Then progress frames were routed to the session", func() {
				status := rec.ofType(types.FrameStatus)
				So(len(status), ShouldEqual, 4)
				So(status[0].Message, ShouldEqual, "Uploading audio...")
				So(status[0].SessionID, ShouldEqual, "s-1")
			})

			Convey("Then the report can be downloaded", func() {
				name, body, err := svc.Report(ctx, resp.ReportID)
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "mimicoo-report-"+resp.ReportID+".txt")
				So(strings.HasPrefix(body, "MIMICOO BABBLE ANALYSIS REPORT"), ShouldBeTrue)
			})
		})

		Convey("When an unknown report is requested", func() {
			_, _, err := svc.Report(ctx, "missing")

			Convey("Then it is not found", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_RiskAssessor(t *testing.T) {
	Convey("Given a failing external risk assessor", t, func() {
		ctx := context.Background()
		svc := newService(newRecorder(), service.WithRiskAssessor(stubAssessor{err: errors.New("rate limited")}))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })

		Convey("Then uploads fall back to the simulator", func() {
			resp, err := svc.UploadBaseline(ctx, service.UploadInput{Audio: []byte("abc")})
			So(err, ShouldBeNil)
			So(resp.Analysis.Source, ShouldEqual, risk.SourceSimulation)
			So(resp.UploadedFeatures.DurationSeconds, ShouldEqual, 1.0)
		})
	})

	Convey("Given a working external risk assessor", t, func() {
		ctx := context.Background()
		rep := model.AnalysisReport{
			RiskAssessment: []model.RiskAssessmentItem{model.NewRiskAssessmentItem(risk.ConditionDLD, 55, "r")},
			OverallStatus:  risk.OverallMonitor,
			Source:         "inference",
		}
		svc := newService(newRecorder(), service.WithRiskAssessor(stubAssessor{rep: rep}))
		So(svc.Start(ctx), ShouldBeNil)
		Reset(func() { _ = svc.Stop(ctx) })

		Convey("Then its assessment is returned", func() {
			resp, err := svc.UploadBaseline(ctx, service.UploadInput{Audio: []byte("abc")})
			So(err, ShouldBeNil)
			So(resp.Analysis.Source, ShouldEqual, "inference")
			So(resp.Analysis.RiskAssessment[0].RiskPercent, ShouldEqual, 55)
		})
	})
}
