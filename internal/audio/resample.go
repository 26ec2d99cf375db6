package audio

import (
	"encoding/binary"
	"fmt"
)

// Resample converts 16-bit PCM from one sample rate to another by linear
// interpolation. Channel layout is preserved.
func Resample(pcm []byte, from PCM, toRate int) ([]byte, error) {
	if from.Width != 2 {
		return nil, fmt.Errorf("resampling %d-byte samples is not supported", from.Width)
	}
	if from.SampleRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", from.SampleRate, toRate)
	}
	if from.SampleRate == toRate {
		return pcm, nil
	}
	ch := from.Channels
	if ch <= 0 {
		ch = 1
	}
	frameSize := ch * 2
	frames := len(pcm) / frameSize
	if frames == 0 {
		return nil, nil
	}

	outFrames := int(int64(frames) * int64(toRate) / int64(from.SampleRate))
	out := make([]byte, outFrames*frameSize)
	step := float64(from.SampleRate) / float64(toRate)
	sample := func(frame, c int) float64 {
		off := frame*frameSize + c*2
		return float64(int16(binary.LittleEndian.Uint16(pcm[off:])))
	}
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * step
		i0 := int(pos)
		i1 := i0 + 1
		if i1 >= frames {
			i1 = frames - 1
		}
		frac := pos - float64(i0)
		for c := 0; c < ch; c++ {
			v := sample(i0, c)*(1-frac) + sample(i1, c)*frac
			binary.LittleEndian.PutUint16(out[i*frameSize+c*2:], uint16(int16(v)))
		}
	}
	return out, nil
}
