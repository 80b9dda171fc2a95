package layout

import (
	"strings"

	"github.com/matzehuels/postcraft/pkg/fonts"
)

// Wrap breaks text into lines no wider than width, greedily by words.
// Explicit newlines start a new line; a word wider than width is broken
// between runes. Every line holds at least one rune, so a non-positive
// width yields one rune per line.
func Wrap(m Measurer, text string, spec fonts.Spec, width float64) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if m.Measure(candidate, spec) <= width {
				line = candidate
				continue
			}
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			if m.Measure(word, spec) <= width {
				line = word
				continue
			}
			pieces := breakWord(m, word, spec, width)
			lines = append(lines, pieces[:len(pieces)-1]...)
			line = pieces[len(pieces)-1]
		}
		lines = append(lines, line)
	}
	return lines
}

// breakWord splits word into runs of runes that fit width.
func breakWord(m Measurer, word string, spec fonts.Spec, width float64) []string {
	var pieces []string
	runes := []rune(word)
	for len(runes) > 0 {
		n := 1
		for n < len(runes) && m.Measure(string(runes[:n+1]), spec) <= width {
			n++
		}
		pieces = append(pieces, string(runes[:n]))
		runes = runes[n:]
	}
	return pieces
}
