package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
)

// openStream opens a WAV, MP3 or FLAC file with beep.
func openStream(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".flac":
		s, format, err = flac.Decode(f)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, err
	}
	return s, format, nil
}

// decodeStream reads up to maxSeconds of a beep stream as mono PCM.
func decodeStream(s beep.Streamer, format beep.Format) ([]float32, int) {
	rate := int(format.SampleRate)
	want := rate * maxSeconds
	mono := make([]float32, 0, want)
	buf := make([][2]float64, 4096)
	for len(mono) < want {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			mono = append(mono, float32((frame[0]+frame[1])/2))
		}
		if !ok {
			break
		}
	}
	if len(mono) > want {
		mono = mono[:want]
	}
	return mono, rate
}
