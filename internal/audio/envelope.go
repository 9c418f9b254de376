// Package audio turns audio files into level envelopes that drive the
// display's audio reactivity. Live microphone and line-in capture stay
// outside the process; a capture collaborator feeds levels into a Meter.
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"
)

// maxSeconds limits how much audio is decoded per file.
const maxSeconds = 30

// windowSize is the number of samples per envelope window.
const windowSize = 1024

// ErrUnsupported is returned for file types no decoder handles.
var ErrUnsupported = errors.New("unsupported audio format")

// Extensions lists the file types Analyse accepts.
var Extensions = map[string]bool{
	".mp4":  true,
	".m4a":  true,
	".wav":  true,
	".mp3":  true,
	".flac": true,
}

// Envelope is the loudness of a track over time.
type Envelope struct {
	Window   time.Duration `json:"window"`   // duration of one level
	Levels   []float64     `json:"levels"`   // RMS per window, peak normalised to 1
	Tempo    float64       `json:"tempo"`    // BPM, 0 when undetected
	Peak     float64       `json:"peak"`     // raw RMS of the loudest window
	Duration time.Duration `json:"duration"` // analysed length
}

// LevelAt returns the level at elapsed, looping over the envelope.
func (e Envelope) LevelAt(elapsed time.Duration) float64 {
	if len(e.Levels) == 0 || e.Window <= 0 {
		return 0
	}
	i := int(elapsed/e.Window) % len(e.Levels)
	if i < 0 {
		i += len(e.Levels)
	}
	return e.Levels[i]
}

// Analyse decodes up to 30 seconds of path and computes its envelope.
func Analyse(path string) (Envelope, error) {
	pcm, rate, err := decodeFile(path)
	if err != nil {
		return Envelope{}, fmt.Errorf("audio: decode %s: %w", path, err)
	}
	if len(pcm) == 0 {
		return Envelope{}, fmt.Errorf("audio: no samples in %s", path)
	}
	env := NewEnvelope(pcm, rate)

	// Return the PCM buffer's pages to the OS right away.
	pcm = nil
	debug.FreeOSMemory()
	return env, nil
}

func decodeFile(path string) ([]float32, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".m4a":
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, err
		}
		defer f.Close()
		return decodeMP4(f)
	default:
		s, format, err := openStream(path)
		if err != nil {
			return nil, 0, err
		}
		defer s.Close()
		pcm, rate := decodeStream(s, format)
		return pcm, rate, s.Err()
	}
}

// NewEnvelope computes the windowed RMS envelope and tempo of mono PCM.
func NewEnvelope(pcm []float32, sampleRate int) Envelope {
	if sampleRate <= 0 {
		return Envelope{}
	}
	energy := rmsWindows(pcm)
	env := Envelope{
		Window:   time.Duration(windowSize) * time.Second / time.Duration(sampleRate),
		Duration: time.Duration(len(pcm)) * time.Second / time.Duration(sampleRate),
		Tempo:    detectTempo(energy, sampleRate),
	}
	var peak float64
	for _, e := range energy {
		peak = math.Max(peak, e)
	}
	env.Peak = peak
	env.Levels = make([]float64, len(energy))
	if peak > 0 {
		for i, e := range energy {
			env.Levels[i] = e / peak
		}
	}
	return env
}

func rmsWindows(pcm []float32) []float64 {
	n := len(pcm) / windowSize
	out := make([]float64, n)
	for i := range out {
		var sum float64
		for _, s := range pcm[i*windowSize : (i+1)*windowSize] {
			sum += float64(s) * float64(s)
		}
		out[i] = math.Sqrt(sum / windowSize)
	}
	return out
}

// detectTempo finds the dominant beat period by autocorrelating the
// half-wave rectified energy flux over lags of 60-200 BPM.
func detectTempo(energy []float64, sampleRate int) float64 {
	n := len(energy)
	if n < 4 {
		return 0
	}
	flux := make([]float64, n)
	for i := 1; i < n; i++ {
		flux[i] = math.Max(energy[i]-energy[i-1], 0)
	}

	perMinute := float64(sampleRate) / windowSize * 60
	lo := max(int(perMinute/200), 1)
	hi := min(int(perMinute/60), n/2-1)
	if lo >= hi {
		return 0
	}

	best, bestScore := lo, -1.0
	for lag := lo; lag <= hi; lag++ {
		var score float64
		for i := 0; i+lag < n; i++ {
			score += flux[i] * flux[i+lag]
		}
		score /= float64(n - lag)
		if score > bestScore {
			best, bestScore = lag, score
		}
	}

	bpm := perMinute / float64(best)
	for bpm < 60 {
		bpm *= 2
	}
	for bpm > 200 {
		bpm /= 2
	}
	return math.Round(bpm*10) / 10
}
