// Package audio holds the small amount of PCM handling tandem needs:
// wrapping a raw stream in a WAV header for clients that cannot play
// headerless audio, and bringing streams to one sample rate.
package audio

import (
	"bytes"
	"encoding/binary"
	"strings"
)

// PCM describes a raw little-endian PCM stream.
type PCM struct {
	SampleRate int
	Channels   int
	// Width is the sample width in bytes.
	Width int
}

// DefaultPCM matches Piper's medium voices.
var DefaultPCM = PCM{SampleRate: 22050, Channels: 1, Width: 2}

// WrapPCM wraps raw PCM data in a WAV container.
func WrapPCM(pcm []byte, spec PCM) []byte {
	if spec.SampleRate == 0 {
		spec = DefaultPCM
	}
	dataLen := len(pcm)
	fileLen := 36 + dataLen // 44-byte header minus the 8-byte RIFF preamble

	buf := &bytes.Buffer{}
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(fileLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(spec.Channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(spec.SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(spec.SampleRate*spec.Channels*spec.Width))
	_ = binary.Write(buf, binary.LittleEndian, uint16(spec.Channels*spec.Width))
	_ = binary.Write(buf, binary.LittleEndian, uint16(spec.Width*8))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	buf.Write(pcm)

	return buf.Bytes()
}

// ExtFromContentType maps a MIME type to the file extension providers expect
// on uploads.
func ExtFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "m4a"), strings.Contains(ct, "mp4"):
		return ".m4a"
	default:
		return ".wav"
	}
}
