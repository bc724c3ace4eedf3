package extra

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences/english"
)

var (
	markupRE  = regexp.MustCompile(`<[^>]*>`)
	specialRE = regexp.MustCompile(`\[.*?\]|\(.*?\)`)
	// a word followed by up to four spaced or hyphenated digits: "Honda 7-4-7"
	spacedCallSignRE = regexp.MustCompile(`\b([A-Za-z]+)[\s,-]+(\d(?:[\s-]?\d){0,3})\b`)
	digitSepRE       = regexp.MustCompile(`[\s-]`)
)

// cleanText drops characters the synthesiser would read out loud.
func cleanText(text string) string {
	text = markupRE.ReplaceAllString(text, "")
	text = strings.NewReplacer("*", "", "#", "", "_", "", "~", "", "`", "", "|", "").Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// cleanTranscript removes whisper's special tokens like [BLANK_AUDIO].
func cleanTranscript(text string) string {
	text = specialRE.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// normalizeTranscript prepares recognised speech for the call sign check:
// "Honda 747, turning left, Honda 747." becomes
// "Honda747, turning left, Honda747".
func normalizeTranscript(text string) string {
	text = cleanTranscript(text)
	text = spacedCallSignRE.ReplaceAllStringFunc(text, func(m string) string {
		parts := spacedCallSignRE.FindStringSubmatch(m)
		return parts[1] + digitSepRE.ReplaceAllString(parts[2], "")
	})
	return strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// splitSentences splits a tower line so synthesis can start on the first
// sentence while the rest is fetched.
func splitSentences(text string) []string {
	text = cleanText(text)
	if text == "" {
		return nil
	}
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return []string{text}
	}
	var out []string
	for _, s := range tokenizer.Tokenize(text) {
		if t := strings.TrimSpace(s.Text); t != "" {
			out = append(out, t)
		}
	}
	return out
}
