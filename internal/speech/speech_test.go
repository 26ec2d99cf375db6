package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nadzzz/tandem/internal/audio"
)

func TestFormatPackage(t *testing.T) {
	stream := []byte("frames")

	out, ct := MP3.Package(stream)
	assert.Equal(t, stream, out)
	assert.Equal(t, "audio/mpeg", ct)

	pcm := Format{Codec: CodecPCM, PCM: audio.DefaultPCM}
	out, ct = pcm.Package(stream)
	assert.Equal(t, "audio/wav", ct)
	assert.Len(t, out, 44+len(stream))
	assert.Equal(t, "audio/pcm", pcm.ContentType())
}
