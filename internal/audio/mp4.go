package audio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	gomp4 "github.com/abema/go-mp4"
	concentus "github.com/lostromb/concentus/go/opus"
	aacdecoder "github.com/skrashevich/go-aac/pkg/decoder"
)

type mp4Codec int

const (
	mp4Unknown mp4Codec = iota
	mp4AAC
	mp4Opus
)

var errNoAudioTrack = errors.New("no audio track")

// decodeMP4 decodes the first maxSeconds of an MP4/M4A audio track to mono
// PCM. AAC goes through go-aac, Opus through concentus.
func decodeMP4(rs io.ReadSeeker) ([]float32, int, error) {
	info, err := gomp4.Probe(rs)
	if err != nil {
		return nil, 0, fmt.Errorf("read mp4 tracks: %w", err)
	}
	codec := sniffCodec(rs)
	track := audioTrack(info, codec)
	if track == nil {
		return nil, 0, fmt.Errorf("%w among %d tracks", errNoAudioTrack, len(info.Tracks))
	}

	switch codec {
	case mp4AAC:
		return decodeAACTrack(rs, track)
	case mp4Opus:
		return decodeOpusTrack(rs, track)
	}
	return nil, 0, fmt.Errorf("unsupported mp4 audio codec")
}

// sniffCodec looks for an mp4a or Opus sample entry. Probe reports Opus as
// unknown, so the stsd children are inspected directly.
func sniffCodec(rs io.ReadSeeker) mp4Codec {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return mp4Unknown
	}
	found := mp4Unknown
	_, _ = gomp4.ReadBoxStructure(rs, func(h *gomp4.ReadHandle) (interface{}, error) {
		if found != mp4Unknown {
			return nil, nil
		}
		switch h.BoxInfo.Type {
		case gomp4.BoxTypeMp4a():
			found = mp4AAC
		case gomp4.BoxTypeOpus():
			found = mp4Opus
		case gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(),
			gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd():
			// Never expand mdat.
			_, _ = h.Expand()
		}
		return nil, nil
	})
	return found
}

func audioTrack(info *gomp4.ProbeInfo, codec mp4Codec) *gomp4.Track {
	for _, t := range info.Tracks {
		if codec == mp4AAC && t.Codec == gomp4.CodecMP4A {
			return t
		}
	}
	for _, t := range info.Tracks {
		if t.Codec == gomp4.CodecAVC1 || len(t.Samples) == 0 || len(t.Chunks) == 0 {
			continue
		}
		switch t.Timescale {
		case 8000, 11025, 12000, 16000, 22050, 24000, 32000, 44100, 48000, 88200, 96000:
			return t
		}
	}
	return nil
}

// packets calls fn with each encoded sample of track, in file order, until
// fn returns false or limit packets were read.
func packets(rs io.ReadSeeker, track *gomp4.Track, limit int, fn func([]byte) bool) {
	var buf []byte
	n := 0
	for _, chunk := range track.Chunks {
		off := chunk.DataOffset
		for j := uint32(0); j < chunk.SamplesPerChunk; j++ {
			if n >= len(track.Samples) || n >= limit {
				return
			}
			size := track.Samples[n].Size
			n++
			if cap(buf) < int(size) {
				buf = make([]byte, size)
			}
			pkt := buf[:size]
			pos := off
			off += uint64(size)
			if _, err := rs.Seek(int64(pos), io.SeekStart); err != nil {
				continue
			}
			if _, err := io.ReadFull(rs, pkt); err != nil {
				continue
			}
			if !fn(pkt) {
				return
			}
		}
	}
}

func decodeAACTrack(rs io.ReadSeeker, track *gomp4.Track) ([]float32, int, error) {
	asc, err := audioSpecificConfig(rs)
	if err != nil {
		return nil, 0, err
	}
	dec := aacdecoder.New()
	if err := dec.SetASC(asc); err != nil {
		return nil, 0, fmt.Errorf("aac config: %w", err)
	}

	rate := int(track.Timescale)
	if dec.Config.SampleRate > 0 {
		rate = dec.Config.SampleRate
	}
	channels := max(dec.Config.ChanConfig, 1)
	want := rate * maxSeconds
	mono := make([]float32, 0, want)

	// An AAC frame carries 1024 samples per channel.
	packets(rs, track, (want/1024+1)*2, func(pkt []byte) bool {
		pcm, err := dec.DecodeFrame(pkt)
		if err != nil {
			slog.Debug("audio: skip AAC frame", "error", err)
			return true
		}
		mono = appendMono(mono, len(pcm)/channels, channels, func(i int) float32 { return pcm[i] })
		return len(mono) < want
	})
	return mono, rate, nil
}

func audioSpecificConfig(rs io.ReadSeeker) ([]byte, error) {
	stsd := gomp4.BoxPath{gomp4.BoxTypeMoov(), gomp4.BoxTypeTrak(), gomp4.BoxTypeMdia(), gomp4.BoxTypeMinf(), gomp4.BoxTypeStbl(), gomp4.BoxTypeStsd()}
	withTail := func(tail ...gomp4.BoxType) gomp4.BoxPath {
		p := append(gomp4.BoxPath{}, stsd...)
		return append(p, tail...)
	}
	paths := []gomp4.BoxPath{
		withTail(gomp4.BoxTypeMp4a(), gomp4.BoxTypeEsds()),
		withTail(gomp4.BoxTypeMp4a(), gomp4.BoxTypeWave(), gomp4.BoxTypeEsds()),
		withTail(gomp4.BoxTypeEnca(), gomp4.BoxTypeEsds()),
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	boxes, err := gomp4.ExtractBoxesWithPayload(rs, nil, paths)
	if err != nil {
		return nil, fmt.Errorf("extract esds: %w", err)
	}
	for _, b := range boxes {
		esds, ok := b.Payload.(*gomp4.Esds)
		if !ok {
			continue
		}
		for _, d := range esds.Descriptors {
			if d.Tag == gomp4.DecSpecificInfoTag && len(d.Data) >= 2 {
				return d.Data, nil
			}
		}
	}
	return nil, errors.New("aac: AudioSpecificConfig not found")
}

func decodeOpusTrack(rs io.ReadSeeker, track *gomp4.Track) ([]float32, int, error) {
	rate := int(track.Timescale)
	switch rate {
	case 8000, 12000, 16000, 24000, 48000:
	default:
		rate = 48000
	}
	const channels = 2
	dec, err := concentus.NewOpusDecoder(rate, channels)
	if err != nil {
		return nil, 0, fmt.Errorf("opus decoder: %w", err)
	}

	want := rate * maxSeconds
	mono := make([]float32, 0, want)
	// 120 ms at 48 kHz is the longest Opus frame.
	pcm := make([]int16, 5760*channels)
	failed := 0

	// An Opus frame is typically 20 ms, 960 samples at 48 kHz.
	packets(rs, track, (want/960+1)*2, func(pkt []byte) bool {
		if len(pkt) <= 3 {
			return true // padding
		}
		n, err := dec.Decode(pkt, 0, len(pkt), pcm, 0, 5760, false)
		if err != nil {
			failed++
			return true
		}
		mono = appendMono(mono, n, channels, func(i int) float32 { return float32(pcm[i]) / 32768 })
		return len(mono) < want
	})
	if failed > 0 {
		slog.Debug("audio: skipped Opus packets", "count", failed)
	}
	return mono, rate, nil
}

// appendMono averages interleaved frames down to one channel.
func appendMono(dst []float32, frames, channels int, sample func(int) float32) []float32 {
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += sample(i*channels + ch)
		}
		dst = append(dst, sum/float32(channels))
	}
	return dst
}
