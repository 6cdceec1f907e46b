package captcha

import (
	"strings"
)

// CorrectionTable repairs common recognition mistakes. Characters maps a single
// recognized glyph to its intended glyph; Strings holds whole-string overrides
// learned from operator confirmations. A table is treated as immutable once it
// is shared; use Clone or WithLearned to derive a new one.
type CorrectionTable struct {
	Characters map[rune]rune
	Strings    map[string]string
}

// defaultCharacters maps confusable glyphs to the digit or operator they stand for.
var defaultCharacters = map[rune]rune{
	'O': '0',
	'S': '5',
	'I': '1',
	'B': '8',
	'G': '6',
	'Z': '2',
	'T': '7',
	'A': '4',
	'X': '*',
	'×': '*',
	'L': '1',
	'H': '8',
	'_': '-',
	'/': '7',
	'£': '8',
	'&': '8',
}

// DefaultCorrectionTable returns a fresh table seeded with the built-in
// character corrections and no string overrides.
func DefaultCorrectionTable() *CorrectionTable {
	t := &CorrectionTable{
		Characters: make(map[rune]rune, len(defaultCharacters)),
		Strings:    map[string]string{},
	}
	for k, v := range defaultCharacters {
		t.Characters[k] = v
	}
	return t
}

// Clone returns a deep copy of t.
func (t *CorrectionTable) Clone() *CorrectionTable {
	c := &CorrectionTable{
		Characters: make(map[rune]rune, len(t.Characters)),
		Strings:    make(map[string]string, len(t.Strings)),
	}
	for k, v := range t.Characters {
		c.Characters[k] = v
	}
	for k, v := range t.Strings {
		c.Strings[k] = v
	}
	return c
}

// WithLearned returns a table that additionally maps original to confirmed as
// a whole-string override. It reports false (and returns t) when there is
// nothing to learn.
func (t *CorrectionTable) WithLearned(original, confirmed string) (*CorrectionTable, bool) {
	original = strings.TrimSpace(original)
	confirmed = strings.TrimSpace(confirmed)
	if original == "" || confirmed == "" || original == confirmed {
		return t, false
	}
	if cur, ok := t.Strings[original]; ok && cur == confirmed {
		return t, false
	}
	next := t.Clone()
	next.Strings[original] = confirmed
	return next, true
}

// Correct turns raw recognition fragments into a single corrected string.
// Fragments are trimmed, uppercased and joined in order. A learned override for
// the joined raw text wins, then one for the character-corrected text; otherwise
// the character-corrected text is returned.
func Correct(fragments []string, table *CorrectionTable) string {
	var raw strings.Builder
	for _, f := range fragments {
		raw.WriteString(strings.ToUpper(strings.TrimSpace(f)))
	}
	joined := raw.String()
	if table == nil {
		return joined
	}
	if v, ok := table.Strings[joined]; ok {
		return v
	}
	corrected := strings.Map(func(r rune) rune {
		if c, ok := table.Characters[r]; ok {
			return c
		}
		return r
	}, joined)
	if v, ok := table.Strings[corrected]; ok {
		return v
	}
	return corrected
}
