package signal_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/mimicoo/internal/domain/signal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGeneratePitchSeries(t *testing.T) {
	Convey("Given seeded random sources", t, func() {
		Convey("When generating pitch for many seeds and averages", func() {
			for seed := int64(0); seed < 50; seed++ {
				src := rand.New(rand.NewSource(seed)) //nolint:gosec // test determinism
				for _, avg := range []float64{1, 45, 120, 350, 480, 900} {
					series, err := signal.GeneratePitchSeries(src, avg, 2+int(seed)*7)
					So(err, ShouldBeNil)
					So(len(series), ShouldEqual, 2+int(seed)*7)

					for _, v := range series {
						if v != 0 {
							So(v, ShouldBeBetweenOrEqual, signal.MinPitchHz, signal.MaxPitchHz)
						}
					}
				}
			}
		})

		Convey("When generating a long series", func() {
			src := rand.New(rand.NewSource(7)) //nolint:gosec // test determinism
			series, err := signal.GeneratePitchSeries(src, 350, 2000)
			So(err, ShouldBeNil)

			Convey("Then both voiced and unvoiced runs appear", func() {
				zeros, voiced := 0, 0
				for _, v := range series {
					if v == 0 {
						zeros++
					} else {
						voiced++
					}
				}
				So(zeros, ShouldBeGreaterThan, 0)
				So(voiced, ShouldBeGreaterThan, zeros)
			})
		})

		Convey("When the same seed is reused", func() {
			a, _ := signal.GeneratePitchSeries(rand.New(rand.NewSource(3)), 300, 64) //nolint:gosec // test determinism
			b, _ := signal.GeneratePitchSeries(rand.New(rand.NewSource(3)), 300, 64) //nolint:gosec // test determinism
			So(a, ShouldResemble, b)
		})
	})
}

func TestGenerateEnergySeries(t *testing.T) {
	Convey("Given seeded random sources", t, func() {
		for seed := int64(0); seed < 50; seed++ {
			src := rand.New(rand.NewSource(seed)) //nolint:gosec // test determinism
			for _, avg := range []float64{0.0001, 0.05, 1, 12.5} {
				series, err := signal.GenerateEnergySeries(src, avg, 2+int(seed)*5)
				So(err, ShouldBeNil)
				for _, v := range series {
					So(v, ShouldBeBetweenOrEqual, 0.0, 2*avg)
					So(math.IsNaN(v), ShouldBeFalse)
				}
			}
		}
	})
}

func TestGeneratorValidation(t *testing.T) {
	Convey("Given invalid generator arguments", t, func() {
		src := rand.New(rand.NewSource(1)) //nolint:gosec // test determinism
		bad := []struct {
			avg    float64
			length int
		}{
			{350, 1},
			{350, 0},
			{350, -4},
			{0, 10},
			{-1, 10},
			{math.NaN(), 10},
			{math.Inf(1), 10},
		}

		for _, c := range bad {
			_, err := signal.GeneratePitchSeries(src, c.avg, c.length)
			So(errors.Is(err, signal.ErrInvalidArgument), ShouldBeTrue)

			_, err = signal.GenerateEnergySeries(src, c.avg, c.length)
			So(errors.Is(err, signal.ErrInvalidArgument), ShouldBeTrue)
		}
	})
}

func TestTimestamps(t *testing.T) {
	Convey("Given a duration and sample count", t, func() {
		ts := signal.Timestamps(3, 7)

		Convey("Then timestamps are evenly spaced over the duration", func() {
			So(len(ts), ShouldEqual, 7)
			So(ts[0], ShouldEqual, 0)
			So(ts[6], ShouldEqual, 3)
			for i := 1; i < len(ts); i++ {
				So(ts[i], ShouldBeGreaterThanOrEqualTo, ts[i-1])
				So(ts[i]-ts[i-1], ShouldAlmostEqual, 0.5, 1e-9)
			}
		})

		Convey("Then degenerate counts are handled", func() {
			So(signal.Timestamps(3, 0), ShouldBeNil)
			So(signal.Timestamps(3, 1), ShouldResemble, []float64{0})
		})
	})
}

func TestSynthesize(t *testing.T) {
	Convey("Given synthesis parameters", t, func() {
		src := rand.New(rand.NewSource(11)) //nolint:gosec // test determinism
		p := signal.Params{AvgPitch: 350, AvgEnergy: 0.05, DurationSeconds: 4.5, PitchSamples: 200, EnergySamples: 100}

		f, err := signal.Synthesize(src, p)
		So(err, ShouldBeNil)

		Convey("Then series lengths match their timestamps", func() {
			So(len(f.PitchSeries), ShouldEqual, len(f.PitchTimestamps))
			So(len(f.EnergySeries), ShouldEqual, len(f.EnergyTimestamps))
			So(f.PitchTimestamps[len(f.PitchTimestamps)-1], ShouldEqual, 4.5)
			So(f.EnergyTimestamps[len(f.EnergyTimestamps)-1], ShouldEqual, 4.5)
			So(f.DurationSeconds, ShouldEqual, 4.5)
		})

		Convey("Then the summary fields are derived from the series", func() {
			So(f.VoicingRatio, ShouldBeBetweenOrEqual, 0.0, 1)
			So(f.AvgPitch, ShouldBeBetweenOrEqual, signal.MinPitchHz, signal.MaxPitchHz)
			So(f.PitchVariability, ShouldBeGreaterThan, 0)
			So(f.AvgEnergy, ShouldBeBetweenOrEqual, 0.0, 0.1)
		})

		Convey("Then an invalid duration fails fast", func() {
			p.DurationSeconds = 0
			_, err := signal.Synthesize(src, p)
			So(errors.Is(err, signal.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("Then an invalid sample count fails fast", func() {
			p.EnergySamples = 1
			_, err := signal.Synthesize(src, p)
			So(errors.Is(err, signal.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}
