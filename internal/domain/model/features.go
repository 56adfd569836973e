// Package model contains domain models passed between layers.
package model

// AudioFeatureSet is one synthesized or externally supplied analysis result.
// JSON names follow the upload response contract.
type AudioFeatureSet struct {
	AvgPitch         float64 `json:"avg_pitch"`         // Hz, voiced frames only
	PitchVariability float64 `json:"pitch_variability"` // population std of voiced pitch
	AvgEnergy        float64 `json:"avg_energy"`        // normalized RMS
	VoicingRatio     float64 `json:"voicing_ratio"`     // [0,1]
	DurationSeconds  float64 `json:"duration"`

	PitchSeries      []float64 `json:"pitch_time_series"` // Hz, 0 = unvoiced
	PitchTimestamps  []float64 `json:"pitch_timestamps"`
	EnergySeries     []float64 `json:"rms_time_series"`
	EnergyTimestamps []float64 `json:"rms_timestamps"`
}

// Summary is the scalar part of a feature set, used by prompts and reports.
type Summary struct {
	AvgPitch         float64 `json:"avg_pitch"`
	PitchVariability float64 `json:"pitch_variability"`
	AvgEnergy        float64 `json:"avg_energy"`
	VoicingRatio     float64 `json:"voicing_ratio"`
	DurationSeconds  float64 `json:"duration"`
}

// Summary drops the series.
func (f AudioFeatureSet) Summary() Summary {
	return Summary{
		AvgPitch:         f.AvgPitch,
		PitchVariability: f.PitchVariability,
		AvgEnergy:        f.AvgEnergy,
		VoicingRatio:     f.VoicingRatio,
		DurationSeconds:  f.DurationSeconds,
	}
}
