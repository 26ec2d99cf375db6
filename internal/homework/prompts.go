package homework

import (
	"fmt"
	"strings"

	"github.com/nadzzz/tandem/internal/conversation"
)

// transcript renders the session as the plain-text block embedded in every
// homework prompt.
func transcript(s conversation.Session) string {
	var sb strings.Builder
	sb.WriteString("Conversation:\n")
	for _, u := range s.History {
		switch u.Role {
		case conversation.RoleUser:
			sb.WriteString("Student: ")
		default:
			sb.WriteString("Partner: ")
		}
		sb.WriteString(u.Text)
		sb.WriteByte('\n')
	}
	if len(s.TutorLog) > 0 {
		sb.WriteString("\nTutor's comments:\n")
		for i, entry := range s.TutorLog {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, strings.ReplaceAll(entry, "\n", " / "))
		}
	}
	return sb.String()
}

func grammarPrompt(language string, s conversation.Session) string {
	var sb strings.Builder
	sb.WriteString("You are an expert language tutor. Create grammar exercises from the conversation below ")
	sb.WriteString("between a student and a language partner, taking the tutor's comments into account.\n\n")
	sb.WriteString("1. Assess the student's level on the CEFR scale (A1 to C2) and state it first.\n")
	sb.WriteString("2. Focus on the grammatical mistakes the student actually made.\n")
	sb.WriteString("3. Write 3 to 5 exercises targeting the most prominent issues. Each has an instruction, ")
	sb.WriteString("3 to 5 example sentences or questions, and the correct answers.\n")
	sb.WriteString("4. Finish with a brief explanation of the rules practised.\n")
	fmt.Fprintf(&sb, "Write everything in %s.\n\n", language)
	sb.WriteString(transcript(s))
	return sb.String()
}

func vocabularyPrompt(language string, s conversation.Session) string {
	var sb strings.Builder
	sb.WriteString("You are an expert language tutor. Build a vocabulary list from the conversation below ")
	sb.WriteString("between a student and a language partner, taking the tutor's comments into account.\n\n")
	sb.WriteString("1. Assess the student's level on the CEFR scale (A1 to C2) and state it first.\n")
	sb.WriteString("2. Pick 8 to 10 words or phrases the partner used that the student may not know, ")
	sb.WriteString("mixing nouns, verbs, adjectives, adverbs and idioms.\n")
	sb.WriteString("3. For each give the word, its part of speech, a definition and an example sentence.\n")
	sb.WriteString("4. Finish with a short exercise using some of the words.\n")
	fmt.Fprintf(&sb, "Write everything in %s.\n\n", language)
	sb.WriteString(transcript(s))
	return sb.String()
}

func namePrompt(language, schema string, s conversation.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Give this %s practice conversation a short title of two to five words, written in %s.\n", language, language)
	sb.WriteString("Answer with a single JSON object matching this schema and nothing else:\n")
	sb.WriteString(schema)
	sb.WriteString("\n\n")
	sb.WriteString(transcript(s))
	if summary := s.LastSummary(); summary != "" {
		fmt.Fprintf(&sb, "\nSummary: %s\n", summary)
	}
	return sb.String()
}
