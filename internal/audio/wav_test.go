package audio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPCMHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	wav := WrapPCM(pcm, PCM{SampleRate: 24000, Channels: 1, Width: 2})

	require.Len(t, wav, 44+len(pcm))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, uint32(24000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, pcm, wav[44:])
}

func TestWrapPCMDefaultFormat(t *testing.T) {
	wav := WrapPCM(nil, PCM{})
	assert.Equal(t, uint32(22050), binary.LittleEndian.Uint32(wav[24:28]))
}

func TestExtFromContentType(t *testing.T) {
	cases := map[string]string{
		"audio/wav":              ".wav",
		"audio/webm;codecs=opus": ".webm",
		"audio/mpeg":             ".mp3",
		"audio/ogg":              ".ogg",
		"audio/mp4":              ".m4a",
		"":                       ".wav",
	}
	for ct, want := range cases {
		assert.Equal(t, want, ExtFromContentType(ct), ct)
	}
}

func pcm16(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func TestResampleUpsamplesByInterpolation(t *testing.T) {
	in := pcm16(0, 100, 200, 300)
	out, err := Resample(in, PCM{SampleRate: 8000, Channels: 1, Width: 2}, 16000)
	require.NoError(t, err)
	assert.Equal(t, pcm16(0, 50, 100, 150, 200, 250, 300, 300), out)
}

func TestResampleKeepsChannelsApart(t *testing.T) {
	in := pcm16(1000, -1000, 1000, -1000, 1000, -1000, 1000, -1000)
	out, err := Resample(in, PCM{SampleRate: 16000, Channels: 2, Width: 2}, 8000)
	require.NoError(t, err)
	assert.Equal(t, pcm16(1000, -1000, 1000, -1000), out)
}

func TestResampleSameRateIsIdentity(t *testing.T) {
	in := pcm16(1, 2, 3)
	out, err := Resample(in, DefaultPCM, DefaultPCM.SampleRate)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestResampleRejectsUnsupportedWidth(t *testing.T) {
	_, err := Resample([]byte{1, 2}, PCM{SampleRate: 16000, Channels: 1, Width: 1}, 22050)
	assert.Error(t, err)
}
