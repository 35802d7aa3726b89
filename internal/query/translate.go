package query

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Translator produces the outbound form of a raw clinical query term:
// diacritics folded to ASCII, lowercased, and known Spanish medical
// terms substituted with their English equivalents. The substitution
// table is injected as plain data; the translator has no built-in
// vocabulary of its own.
type Translator struct {
	// phrases are multi-word substitutions, applied longest-first so
	// "dolor de espalda" wins over "dolor".
	phrases [][2]string
	// words are single-token substitutions applied after phrases.
	words map[string]string
}

// NewTranslator creates a Translator from a Spanish→English term table.
// Keys containing spaces are treated as phrases and matched before
// single words.
func NewTranslator(table map[string]string) *Translator {
	t := &Translator{words: make(map[string]string)}
	for from, to := range table {
		from = strings.ToLower(strings.TrimSpace(from))
		to = strings.ToLower(strings.TrimSpace(to))
		if from == "" || to == "" {
			continue
		}
		if strings.Contains(from, " ") {
			t.phrases = append(t.phrases, [2]string{from, to})
		} else {
			t.words[from] = to
		}
	}
	sort.Slice(t.phrases, func(i, j int) bool {
		return len(t.phrases[i][0]) > len(t.phrases[j][0])
	})
	return t
}

// foldTransform removes combining marks after NFD decomposition, turning
// "lumbalgía" into "lumbalgia".
var foldTransform = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a term and strips diacritics.
func Fold(term string) string {
	folded, _, err := transform.String(foldTransform, term)
	if err != nil {
		folded = term
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

// Translate returns the outbound query term: folded and with known
// Spanish medical terms replaced. Terms already in English pass through
// unchanged apart from folding.
func (t *Translator) Translate(raw string) string {
	term := Fold(raw)
	if term == "" {
		return ""
	}

	for _, p := range t.phrases {
		term = strings.ReplaceAll(term, p[0], p[1])
	}

	fields := strings.Fields(term)
	for i, f := range fields {
		if repl, ok := t.words[f]; ok {
			fields[i] = repl
		}
	}
	return strings.Join(fields, " ")
}
