package turn

import (
	"strconv"
	"strings"
	"unicode"
)

// Slot names. Partner chunks are PartnerSlotPrefix followed by their index.
const (
	SlotTutorComment    = "tutor_comment"
	SlotTutorCorrection = "tutor_correction"
	PartnerSlotPrefix   = "partner_response_"
)

// MaxSentencesPerChunk bounds each partner audio segment.
const MaxSentencesPerChunk = 4

// segment is one synthesis job in its fixed output position.
type segment struct {
	slot     string
	text     string
	voice    string
	language string
}

// slotKind strips the index from partner slots for metrics labels.
func slotKind(slot string) string {
	if strings.HasPrefix(slot, PartnerSlotPrefix) {
		return "partner_response"
	}
	return slot
}

// planSegments lays out the audio in slot order: tutor comment, tutor
// correction (both only when intervening), then partner chunks. Segments
// with no text are skipped.
func planSegments(intervene bool, comment, correction, reply string, v voices) []segment {
	var out []segment
	if intervene {
		if strings.TrimSpace(comment) != "" {
			out = append(out, segment{slot: SlotTutorComment, text: comment, voice: v.tutor, language: v.tutorsLanguage})
		}
		if strings.TrimSpace(correction) != "" {
			out = append(out, segment{slot: SlotTutorCorrection, text: correction, voice: v.tutor, language: v.tutoringLanguage})
		}
	}
	for i, chunk := range ChunkSentences(reply, MaxSentencesPerChunk) {
		out = append(out, segment{
			slot:     PartnerSlotPrefix + strconv.Itoa(i),
			text:     chunk,
			voice:    v.partner,
			language: v.tutoringLanguage,
		})
	}
	return out
}

type voices struct {
	tutor, partner                   string
	tutorsLanguage, tutoringLanguage string
}

// ChunkSentences splits text into sentences and groups them, at most limit
// per chunk.
func ChunkSentences(text string, limit int) []string {
	sentences := SplitSentences(text)
	if limit <= 0 {
		limit = 1
	}
	var chunks []string
	for i := 0; i < len(sentences); i += limit {
		end := min(i+limit, len(sentences))
		chunks = append(chunks, strings.Join(sentences[i:end], " "))
	}
	return chunks
}

// SplitSentences splits on terminal punctuation followed by whitespace or the
// end of text. Closing quotes and brackets stay with their sentence.
func SplitSentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	var (
		out   []string
		start int
	)
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && (isTerminal(runes[j]) || isCloser(runes[j])) {
			j++
		}
		if j < len(runes) && !unicode.IsSpace(runes[j]) && !isCJKTerminal(runes[i]) {
			i = j - 1
			continue
		}
		if s := strings.TrimSpace(string(runes[start:j])); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '！', '？':
		return true
	}
	return false
}

// isCJKTerminal marks full-width stops, which need no following space.
func isCJKTerminal(r rune) bool {
	return r == '。' || r == '！' || r == '？'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '»', '«', '”', '’', '」':
		return true
	}
	return false
}
