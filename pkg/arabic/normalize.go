package arabic

import (
	"strings"
	"unicode"
)

// Diacritic range U+064B..U+0652 plus the superscript alef U+0670 and tatweel U+0640.
func isDiacritic(r rune) bool {
	if r >= 0x064B && r <= 0x0652 {
		return true
	}
	return r == 0x0670 || r == 0x0640
}

// NormalizeName folds an Arabic personal name into a canonical comparison form:
// diacritics and tatweel are stripped, all hamza seats on alef collapse to bare
// alef, ta marbuta becomes ha, and runs of whitespace collapse to single spaces.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastSpace := true
	for _, r := range name {
		switch {
		case isDiacritic(r):
			continue
		case r == 'أ' || r == 'إ' || r == 'آ':
			r = 'ا'
		case r == 'ة':
			r = 'ه'
		}
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}

	return strings.TrimSpace(b.String())
}

// JoinName concatenates name parts with single spaces, skipping empties.
func JoinName(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
