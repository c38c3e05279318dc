package prompt

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// PostProcessor turns raw backend output into test steps.
//
// Some backends echo the prompt in front of the generated text. The echo is
// stripped when the trimmed prompt is an exact prefix of the output. With a
// non-zero FuzzyThreshold a reformatted echo is also accepted when the
// whitespace-normalized head of the output is within that fraction of edits of
// the prompt. Neither check is a guarantee: a truncated echo is left in place.
type PostProcessor struct {
	FuzzyThreshold float64
}

// Process strips the echoed prompt and splits the remainder into non-empty lines.
func (p PostProcessor) Process(raw, prompt string) []string {
	return SplitSteps(p.StripEcho(raw, prompt))
}

// StripEcho removes one leading occurrence of the prompt from raw.
func (p PostProcessor) StripEcho(raw, prompt string) string {
	trimmedPrompt := strings.TrimSpace(prompt)
	if trimmedPrompt == "" {
		return raw
	}

	body := strings.TrimLeft(raw, " \t\r\n")
	if strings.HasPrefix(body, trimmedPrompt) {
		return body[len(trimmedPrompt):]
	}

	if p.FuzzyThreshold > 0 {
		if rest, ok := p.stripFuzzy(body, trimmedPrompt); ok {
			return rest
		}
	}
	return raw
}

// stripFuzzy consumes as many words from body as the prompt has and compares the
// two word sequences by edit distance.
func (p PostProcessor) stripFuzzy(body, prompt string) (string, bool) {
	promptWords := strings.Fields(prompt)
	if len(promptWords) == 0 {
		return "", false
	}

	end, headWords := consumeWords(body, len(promptWords))
	if len(headWords) < len(promptWords) {
		return "", false
	}

	want := strings.Join(promptWords, " ")
	got := strings.Join(headWords, " ")
	distance := levenshtein.ComputeDistance(want, got)
	if float64(distance)/float64(len(want)) > p.FuzzyThreshold {
		return "", false
	}
	return body[end:], true
}

// consumeWords returns the byte offset just past the first n whitespace separated
// words of s, along with those words.
func consumeWords(s string, n int) (int, []string) {
	words := make([]string, 0, n)
	i := 0
	for len(words) < n && i < len(s) {
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		start := i
		for i < len(s) && !isSpace(s[i]) {
			i++
		}
		if i > start {
			words = append(words, s[start:i])
		}
	}
	return i, words
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// SplitSteps splits text on line boundaries, trimming lines and dropping empty ones.
func SplitSteps(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	steps := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		steps = append(steps, line)
	}
	return steps
}
