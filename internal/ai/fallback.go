package ai

import (
	"strings"

	"github.com/neurosnap/sentences/english"
)

// LocalFallbackSummary builds a deterministic, non-AI approximation of a
// summary when the upstream chat call fails. It carries the same five
// section headings as the AI output so the caller can render it unchanged.
func LocalFallbackSummary(transcript string) string {
	sents := splitSentences(transcript)

	var b strings.Builder

	b.WriteString(summarySections[0]) // Overview
	b.WriteString("\n")
	switch {
	case len(sents) == 0:
		b.WriteString("- Transcript contained no recognizable sentences.\n")
	default:
		for _, s := range head(sents, 2) {
			b.WriteString("- " + s + "\n")
		}
	}

	b.WriteString("\n" + summarySections[1] + "\n") // Key Points
	points := sample(sents, 5)
	if len(points) == 0 {
		b.WriteString("- None noted.\n")
	}
	for _, s := range points {
		b.WriteString("- " + s + "\n")
	}

	b.WriteString("\n" + summarySections[2] + "\n") // Decisions
	writeMatching(&b, sents, []string{"decide", "decided", "agree", "agreed", "决定", "同意", "确定"})

	b.WriteString("\n" + summarySections[3] + "\n") // Action Items
	writeMatching(&b, sents, []string{"will ", "need to", "todo", "to do", "follow up", "负责", "需要", "跟进"})

	b.WriteString("\n" + summarySections[4] + "\n") // Next Steps
	if len(sents) == 0 {
		b.WriteString("- None noted.\n")
	} else {
		b.WriteString("- " + sents[len(sents)-1] + "\n")
	}

	return b.String()
}

// splitSentences tokenizes with the neurosnap sentence tokenizer and
// additionally breaks on CJK terminal punctuation, which the English
// training data does not know about.
func splitSentences(text string) []string {
	tokenizer, err := english.NewSentenceTokenizer(nil)

	var rough []string
	if err != nil {
		rough = []string{text}
	} else {
		for _, s := range tokenizer.Tokenize(text) {
			rough = append(rough, s.Text)
		}
	}

	var out []string
	for _, chunk := range rough {
		for _, s := range splitCJK(chunk) {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func splitCJK(text string) []string {
	var parts []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		switch r {
		case '。', '！', '？', '；':
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func head(s []string, n int) []string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

// sample picks up to n sentences spread evenly across the transcript.
func sample(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	out := make([]string, 0, n)
	step := float64(len(s)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, s[int(float64(i)*step)])
	}
	return out
}

func writeMatching(b *strings.Builder, sents []string, keywords []string) {
	found := 0
	for _, s := range sents {
		lower := strings.ToLower(s)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				b.WriteString("- " + s + "\n")
				found++
				break
			}
		}
		if found >= 5 {
			break
		}
	}
	if found == 0 {
		b.WriteString("- None noted.\n")
	}
}
