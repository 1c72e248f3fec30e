package otosink

import (
	"io"
	"math"

	"github.com/mcdev12/vallamkali/go/internal/audio"
)

const (
	SampleRate    = 44100
	ChannelCount  = 2
	bytesPerFrame = 4 * ChannelCount
)

// Synthesize renders a cue as interleaved stereo float32 LE samples.
func Synthesize(cue audio.Cue, seed uint64) []byte {
	switch cue {
	case audio.CueCountdownBeep:
		return tone(0.2, 800, 3, 0.3)
	case audio.CueStart:
		return tone(0.5, 1200, 2, 0.4)
	case audio.CueSplash:
		return splash(seed)
	case audio.CueVictory:
		return victory()
	case audio.CueClick:
		return tone(0.1, 1000, 10, 0.2)
	default:
		return nil
	}
}

// tone is a sine with exponential decay.
func tone(duration, freq, decay, gain float64) []byte {
	n := int(SampleRate * duration)
	buf := make([]byte, n*bytesPerFrame)
	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		putStereoF32(buf, i, math.Sin(2*math.Pi*freq*t)*math.Exp(-t*decay)*gain)
	}
	return buf
}

func splash(seed uint64) []byte {
	n := int(SampleRate * 0.3)
	buf := make([]byte, n*bytesPerFrame)
	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		putStereoF32(buf, i, lcg(&seed)*math.Exp(-t*4)*0.2)
	}
	return buf
}

// victory is an A major triad under a half-sine envelope.
func victory() []byte {
	const duration = 1.0
	n := int(SampleRate * duration)
	buf := make([]byte, n*bytesPerFrame)
	for i := 0; i < n; i++ {
		t := float64(i) / SampleRate
		env := math.Sin(math.Pi * t / duration)
		s := math.Sin(2*math.Pi*440*t) + math.Sin(2*math.Pi*554.37*t) + math.Sin(2*math.Pi*659.25*t)
		putStereoF32(buf, i, s*env*0.15)
	}
	return buf
}

type cueReader struct {
	data []byte
	pos  int
}

func (r *cueReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// musicReader streams the ambient water loop forever.
type musicReader struct {
	t    float64
	seed uint64
}

func (m *musicReader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	for i := 0; i < frames; i++ {
		s := math.Sin(2*math.Pi*0.5*m.t)*0.1 +
			math.Sin(2*math.Pi*0.3*m.t)*0.08 +
			math.Sin(2*math.Pi*0.7*m.t)*0.06 +
			lcg(&m.seed)*0.02
		putStereoF32(p, i, s)
		m.t += 1.0 / SampleRate
	}
	return frames * bytesPerFrame, nil
}

func putStereoF32(buf []byte, i int, sample float64) {
	v := math.Float32bits(float32(sample))
	for ch := 0; ch < ChannelCount; ch++ {
		off := i*bytesPerFrame + ch*4
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}
}

// lcg advances seed and returns a noise sample in [-1,1].
func lcg(seed *uint64) float64 {
	*seed = *seed*6364136223846793005 + 1442695040888963407
	return float64(int64(*seed>>33)-int64(1<<30)) / float64(1<<30)
}
