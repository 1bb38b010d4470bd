// Package analysis measures rendered audio: block RMS envelopes and spectral
// centroid, used for render reports and for checking filter sweeps.
package analysis

import (
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// FloorDB is reported for silence.
const FloorDB = -120.0

// Level is one envelope block.
type Level struct {
	Time float64 `json:"time"`
	RMS  float64 `json:"rms"`
	DB   float64 `json:"dbfs"`
}

// Summary describes a whole signal.
type Summary struct {
	Frames     int     `json:"frames"`
	Peak       float64 `json:"peak"`
	RMS        float64 `json:"rms"`
	DB         float64 `json:"dbfs"`
	CentroidHz float64 `json:"centroid_hz"`
}

// LinearToDB converts an amplitude to dBFS, bottoming out at FloorDB.
func LinearToDB(x float64) float64 {
	if x <= 0 || math.IsNaN(x) {
		return FloorDB
	}
	return math.Max(FloorDB, 20*math.Log10(x))
}

// StereoToMono averages interleaved stereo frames.
func StereoToMono(interleaved []float32) []float64 {
	n := len(interleaved) / 2
	out := make([]float64, n)
	for i := range n {
		out[i] = 0.5 * (float64(interleaved[i*2]) + float64(interleaved[i*2+1]))
	}
	return out
}

// RMS returns the root mean square of x, or 0 for an empty slice.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// Envelope splits a mono signal into blocks of blockSeconds and reports
// each block's level. A trailing partial block is included.
func Envelope(mono []float64, sampleRate int, blockSeconds float64) []Level {
	block := int(math.Round(blockSeconds * float64(sampleRate)))
	if block <= 0 || sampleRate <= 0 {
		return nil
	}
	out := make([]Level, 0, (len(mono)+block-1)/block)
	for start := 0; start < len(mono); start += block {
		end := min(len(mono), start+block)
		r := RMS(mono[start:end])
		out = append(out, Level{
			Time: float64(start) / float64(sampleRate),
			RMS:  r,
			DB:   LinearToDB(r),
		})
	}
	return out
}

// SpectralCentroid returns the magnitude-weighted mean frequency of the
// first power-of-two window of x (at most 8192 samples, Hann windowed).
// Signals shorter than 64 samples or silent signals report 0.
func SpectralCentroid(x []float64, sampleRate int) float64 {
	n := 1
	for n*2 <= len(x) && n < 8192 {
		n *= 2
	}
	if n < 64 || sampleRate <= 0 {
		return 0
	}
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return 0
	}
	buf := make([]float64, n)
	for i := range n {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		buf[i] = x[i] * w
	}
	spectrum := make([]complex128, n/2+1)
	plan.Forward(spectrum, buf)

	binHz := float64(sampleRate) / float64(n)
	var num, den float64
	for k := 1; k <= n/2; k++ {
		m := cmplx.Abs(spectrum[k])
		num += m * float64(k) * binHz
		den += m
	}
	if den < 1e-12 {
		return 0
	}
	return num / den
}

// Summarize measures an interleaved stereo signal.
func Summarize(interleaved []float32, sampleRate int) Summary {
	mono := StereoToMono(interleaved)
	var peak float64
	for _, v := range interleaved {
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	r := RMS(mono)
	return Summary{
		Frames:     len(mono),
		Peak:       peak,
		RMS:        r,
		DB:         LinearToDB(r),
		CentroidHz: SpectralCentroid(mono, sampleRate),
	}
}
