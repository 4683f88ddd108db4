package llm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token budgets are approximated at four characters per token, which is
// close enough for English study text and keeps the chunker free of any
// tokenizer dependency.
const (
	charsPerToken = 4

	chunkTokens   = 1000
	overlapTokens = 75
)

// splitChunks breaks text into pieces of at most roughly maxTokens tokens,
// cutting on sentence boundaries and carrying overlapTokens of trailing
// context into the next piece so summaries do not lose the thread between
// chunks.
func splitChunks(text string, maxTokens, overlapTokens int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	maxChars := maxTokens * charsPerToken
	if len(text) <= maxChars {
		return []string{text}
	}
	overlapChars := overlapTokens * charsPerToken

	var parts []string
	for _, s := range splitSentences(text) {
		parts = append(parts, hardSplit(s, maxChars)...)
	}

	var chunks []string
	var cur []string
	curLen := 0
	for _, s := range parts {
		if curLen > 0 && curLen+len(s)+1 > maxChars {
			chunks = append(chunks, strings.Join(cur, " "))
			cur = overlapTail(cur, overlapChars)
			curLen = 0
			for _, o := range cur {
				curLen += len(o) + 1
			}
		}
		cur = append(cur, s)
		curLen += len(s) + 1
	}
	if len(cur) > 0 {
		chunks = append(chunks, strings.Join(cur, " "))
	}
	return chunks
}

// splitSentences cuts text after sentence-ending punctuation (absorbing a
// trailing quote or bracket) and at paragraph breaks.
func splitSentences(text string) []string {
	var out []string
	flush := func(seg string) {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}

	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			j := i + 1
			for j < len(runes) && strings.ContainsRune(`"')]`, runes[j]) {
				j++
			}
			if j >= len(runes) || unicode.IsSpace(runes[j]) {
				flush(string(runes[start:j]))
				start = j
				i = j - 1
			}
		case '\n':
			if i+1 < len(runes) && runes[i+1] == '\n' {
				flush(string(runes[start:i]))
				start = i
			}
		}
	}
	flush(string(runes[start:]))
	return out
}

// hardSplit cuts a single oversized sentence at word boundaries so no part
// exceeds maxChars.
func hardSplit(s string, maxChars int) []string {
	if len(s) <= maxChars {
		return []string{s}
	}
	var out []string
	for len(s) > maxChars {
		cut := strings.LastIndex(s[:maxChars], " ")
		if cut < maxChars/2 {
			cut = maxChars
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
		}
		out = append(out, strings.TrimSpace(s[:cut]))
		s = strings.TrimSpace(s[cut:])
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// overlapTail returns the trailing sentences of chunk that fit within the
// overlap budget.
func overlapTail(sentences []string, budget int) []string {
	total := 0
	n := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		if total+len(sentences[i])+1 > budget {
			break
		}
		total += len(sentences[i]) + 1
		n++
	}
	if n == 0 {
		return nil
	}
	return append([]string(nil), sentences[len(sentences)-n:]...)
}
