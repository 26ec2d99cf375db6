package turn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Hallo", []string{"Hallo"}},
		{"Hallo! Wie geht's? Mir geht es gut.", []string{"Hallo!", "Wie geht's?", "Mir geht es gut."}},
		{"Er sagte: \"Komm!\" Dann ging er.", []string{"Er sagte: \"Komm!\"", "Dann ging er."}},
		{"Das kostet 3.50 Euro. Okay?", []string{"Das kostet 3.50 Euro.", "Okay?"}},
		{"Wirklich?! Ja...", []string{"Wirklich?!", "Ja..."}},
		{"你好。我很好！", []string{"你好。", "我很好！"}},
		{"  Trailing text without stop  ", []string{"Trailing text without stop"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SplitSentences(tc.in), tc.in)
	}
}

func TestChunkSentences(t *testing.T) {
	text := "Eins. Zwei. Drei. Vier. Fünf. Sechs."
	assert.Equal(t, []string{"Eins. Zwei. Drei. Vier.", "Fünf. Sechs."}, ChunkSentences(text, 4))
	assert.Equal(t, []string{"Eins. Zwei. Drei. Vier. Fünf. Sechs."}, ChunkSentences(text, 10))
	assert.Nil(t, ChunkSentences("   ", 4))
}

func TestChunkSentencesProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := rapid.SliceOfN(rapid.StringMatching(`[A-Za-zäöü]{1,8}[.!?]`), 1, 30).Draw(t, "sentences")
		text := strings.Join(words, " ")
		chunks := ChunkSentences(text, MaxSentencesPerChunk)

		total := 0
		for _, c := range chunks {
			n := len(SplitSentences(c))
			if n < 1 || n > MaxSentencesPerChunk {
				t.Fatalf("chunk %q has %d sentences", c, n)
			}
			total += n
		}
		if total != len(words) {
			t.Fatalf("got %d sentences across chunks, want %d", total, len(words))
		}
		if strings.Join(chunks, " ") != text {
			t.Fatalf("chunks do not reassemble the text")
		}
	})
}

func TestPlanSegments(t *testing.T) {
	v := voices{tutor: "onyx", partner: "nova", tutorsLanguage: "en", tutoringLanguage: "de"}

	segs := planSegments(true, "Use 'der'.", "Der Film war gut.", "Ja! Mir auch.", v)
	assert.Equal(t, []segment{
		{slot: SlotTutorComment, text: "Use 'der'.", voice: "onyx", language: "en"},
		{slot: SlotTutorCorrection, text: "Der Film war gut.", voice: "onyx", language: "de"},
		{slot: "partner_response_0", text: "Ja! Mir auch.", voice: "nova", language: "de"},
	}, segs)

	segs = planSegments(false, "Use 'der'.", "Der Film war gut.", "Ja!", v)
	assert.Len(t, segs, 1)
	assert.Equal(t, "partner_response_0", segs[0].slot)

	segs = planSegments(true, "", "Hallo.", "Hallo!", v)
	assert.Equal(t, []string{SlotTutorCorrection, "partner_response_0"}, []string{segs[0].slot, segs[1].slot})
}
