package tutor

import (
	"fmt"
	"strings"
)

func commentPrompt(tutoringLanguage, tutorsLanguage, utterance string, ignoreAccent bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a %s tutor. The student is learning %s; you talk to them in %s.\n", tutoringLanguage, tutoringLanguage, tutorsLanguage)
	sb.WriteString("Give concise feedback on the student's LAST utterance only.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Comment only on concrete errors in grammar, vocabulary or sentence structure.\n")
	sb.WriteString("- Never comment on what the student talks about, and give no praise.\n")
	fmt.Fprintf(&sb, "- If the student did not speak %s, say so first.\n", tutoringLanguage)
	sb.WriteString("- Address the student as \"you\" and keep each remark to one short sentence.\n")
	sb.WriteString("- Ignore spelling mistakes; the text is a speech transcription.\n")
	if ignoreAccent {
		sb.WriteString("- Ignore anything that may come from pronunciation or accent being transcribed oddly.\n")
	}
	sb.WriteString("- Mention formality only when it is clearly inappropriate.\n")
	sb.WriteString("- If there is nothing significant to correct, answer with an empty response.\n\n")
	fmt.Fprintf(&sb, "Answer in %s.\n\n", tutorsLanguage)
	fmt.Fprintf(&sb, "Example (%s taught in %s):\n", "German", "English")
	sb.WriteString("Student: \"Das Film war sehr gut.\"\n")
	sb.WriteString("Comment: \"'Film' is masculine, so use 'der' instead of 'das'.\"\n\n")
	fmt.Fprintf(&sb, "Utterance to assess: %q", utterance)
	return sb.String()
}

func correctionPrompt(tutoringLanguage, utterance string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Rephrase the student's last utterance as a fluent speaker of %s would say it.\n\n", tutoringLanguage)
	fmt.Fprintf(&sb, "- If it is not in %s, translate it first.\n", tutoringLanguage)
	sb.WriteString("- Fix grammar, choose natural vocabulary and idioms, keep the meaning and intent.\n")
	sb.WriteString("- Keep the register of spoken conversation and the original level of formality.\n")
	sb.WriteString("- Ignore spelling mistakes from the transcription.\n")
	fmt.Fprintf(&sb, "- Return only the corrected sentence in %s, with no explanation.\n\n", tutoringLanguage)
	fmt.Fprintf(&sb, "Utterance to rephrase: %q", utterance)
	return sb.String()
}

func levelPrompt(tutoringLanguage, utterance string, tutorLog []string) string {
	recent := "(none)"
	if len(tutorLog) > 0 {
		recent = strings.Join(tutorLog, "\n---\n")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert %s tutor deciding how much to intervene after the student's last utterance.\n\n", tutoringLanguage)
	fmt.Fprintf(&sb, "Last student utterance: %q\n", utterance)
	fmt.Fprintf(&sb, "Recent tutor comments:\n%s\n\n", recent)
	sb.WriteString("Levels:\n")
	sb.WriteString("- no: near-native, no significant errors\n")
	sb.WriteString("- low: good command, minor errors\n")
	sb.WriteString("- medium: noticeable errors or limited vocabulary\n")
	sb.WriteString("- high: serious errors, unclear communication\n\n")
	fmt.Fprintf(&sb, "Weigh grammar, vocabulary, fluency and whether %s was used at all. ", tutoringLanguage)
	sb.WriteString("If the recent comments already flagged the same persistent issue, do not rate it at the maximum again.\n")
	sb.WriteString("Respond with exactly one word: no, low, medium or high.")
	return sb.String()
}
