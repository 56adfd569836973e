// Package signal synthesizes plausible pitch and energy time series for
// babble and speech samples without real audio input.
//
// All randomness comes from an injected Source so callers can seed it.
package signal

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/mimicoo/internal/domain/model"
)

// ErrInvalidArgument is returned for lengths below 2 and non-positive,
// NaN or infinite averages and durations.
var ErrInvalidArgument = errors.New("invalid argument")

// Source is the random source used by the generators. *math/rand.Rand satisfies it.
type Source interface {
	Float64() float64
	Intn(n int) int
}

// Human pitch band in Hz.
const (
	MinPitchHz = 50.0
	MaxPitchHz = 500.0
)

const (
	voicedStartProbability = 0.6

	voicedMinLen   = 5
	voicedMaxLen   = 20
	unvoicedMinLen = 2
	unvoicedMaxLen = 10

	contourDepth  = 0.15
	contourCycles = 3.0
	vibratoDepth  = 0.03
	vibratoPeriod = 6.0
	jitterDepth   = 0.10
	noiseHz       = 5.0

	envelopeCycles  = 2.0
	trendDecay      = 0.9
	trendStep       = 0.05
	ripplesDepth    = 0.05
	ripplesCycles   = 10.0
	energyNoise     = 0.05
	energyBaseLevel = 0.5
)

func validate(avg float64, length int) error {
	if length < 2 {
		return fmt.Errorf("%w: length must be at least 2, got %d", ErrInvalidArgument, length)
	}
	if !finitePositive(avg) {
		return fmt.Errorf("%w: average must be positive and finite, got %v", ErrInvalidArgument, avg)
	}
	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// symmetric draws uniformly from [-depth, depth).
func symmetric(src Source, depth float64) float64 {
	return (src.Float64()*2 - 1) * depth
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// GeneratePitchSeries returns length pitch samples in Hz around avgPitch.
// Samples alternate between voiced runs (values in [MinPitchHz, MaxPitchHz])
// and unvoiced runs (exactly 0).
func GeneratePitchSeries(src Source, avgPitch float64, length int) ([]float64, error) {
	if err := validate(avgPitch, length); err != nil {
		return nil, err
	}

	out := make([]float64, length)
	voiced := src.Float64() < voicedStartProbability
	last := float64(length - 1)

	for i := 0; i < length; {
		var run int
		if voiced {
			run = voicedMinLen + src.Intn(voicedMaxLen-voicedMinLen+1)
		} else {
			run = unvoicedMinLen + src.Intn(unvoicedMaxLen-unvoicedMinLen+1)
		}

		for end := min(i+run, length); i < end; i++ {
			if !voiced {
				continue
			}
			pos := float64(i) / last
			contour := contourDepth * math.Sin(2*math.Pi*contourCycles*pos)
			vibrato := vibratoDepth * math.Sin(2*math.Pi*float64(i)/vibratoPeriod)
			jitter := symmetric(src, jitterDepth)
			v := avgPitch*(1+contour+vibrato+jitter) + symmetric(src, noiseHz)
			out[i] = clamp(v, MinPitchHz, MaxPitchHz)
		}
		voiced = !voiced
	}
	return out, nil
}

// GenerateEnergySeries returns length RMS energy samples around avgEnergy,
// each within [0, 2*avgEnergy].
func GenerateEnergySeries(src Source, avgEnergy float64, length int) ([]float64, error) {
	if err := validate(avgEnergy, length); err != nil {
		return nil, err
	}

	out := make([]float64, length)
	last := float64(length - 1)
	trend := 0.0

	for i := range out {
		pos := float64(i) / last
		envelope := 0.5 * (1 - math.Cos(2*math.Pi*envelopeCycles*pos))
		trend = trendDecay*trend + symmetric(src, trendStep)
		ripple := ripplesDepth*math.Sin(2*math.Pi*ripplesCycles*pos) + symmetric(src, energyNoise)
		v := avgEnergy * (energyBaseLevel + envelope + trend + ripple)
		out[i] = clamp(v, 0, 2*avgEnergy)
	}
	return out, nil
}

// Timestamps returns n evenly spaced instants over [0, duration].
func Timestamps(duration float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if n == 1 {
		return out
	}
	step := duration / float64(n-1)
	for i := range out {
		out[i] = float64(i) * step
	}
	out[n-1] = duration
	return out
}

// Params controls Synthesize.
type Params struct {
	AvgPitch        float64
	AvgEnergy       float64
	DurationSeconds float64
	PitchSamples    int
	EnergySamples   int
}

// Synthesize generates both series for p and derives the summary fields
// from them, rounded to 2/4/4/4/2 decimals.
func Synthesize(src Source, p Params) (model.AudioFeatureSet, error) {
	if !finitePositive(p.DurationSeconds) {
		return model.AudioFeatureSet{}, fmt.Errorf("%w: duration must be positive and finite, got %v", ErrInvalidArgument, p.DurationSeconds)
	}
	pitch, err := GeneratePitchSeries(src, p.AvgPitch, p.PitchSamples)
	if err != nil {
		return model.AudioFeatureSet{}, fmt.Errorf("pitch: %w", err)
	}
	energy, err := GenerateEnergySeries(src, p.AvgEnergy, p.EnergySamples)
	if err != nil {
		return model.AudioFeatureSet{}, fmt.Errorf("energy: %w", err)
	}

	f := model.AudioFeatureSet{
		DurationSeconds:  round(p.DurationSeconds, 2),
		PitchSeries:      pitch,
		PitchTimestamps:  Timestamps(p.DurationSeconds, len(pitch)),
		EnergySeries:     energy,
		EnergyTimestamps: Timestamps(p.DurationSeconds, len(energy)),
	}
	Summarize(&f)
	return f, nil
}

// Summarize recomputes the scalar fields of f from its series.
func Summarize(f *model.AudioFeatureSet) {
	voiced := make([]float64, 0, len(f.PitchSeries))
	for _, v := range f.PitchSeries {
		if v > 0 {
			voiced = append(voiced, v)
		}
	}

	f.AvgPitch, f.PitchVariability, f.VoicingRatio = 0, 0, 0
	if len(voiced) > 0 {
		mean, std := stat.PopMeanStdDev(voiced, nil)
		f.AvgPitch = round(mean, 2)
		f.PitchVariability = round(std, 4)
		f.VoicingRatio = round(float64(len(voiced))/float64(len(f.PitchSeries)), 4)
	}

	f.AvgEnergy = 0
	if len(f.EnergySeries) > 0 {
		f.AvgEnergy = round(stat.Mean(f.EnergySeries, nil), 4)
	}
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
