package resolver

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that carry no combining mark under NFD.
var foldReplacer = strings.NewReplacer(
	"ø", "o", "Ø", "O",
	"æ", "ae", "Æ", "AE",
	"ß", "ss",
	"đ", "d", "Đ", "D",
	"ł", "l", "Ł", "L",
	"ı", "i",
	"’", "'", "‘", "'", "`", "'",
)

var placeholderNames = map[string]bool{
	"nan":     true,
	"none":    true,
	"null":    true,
	"unknown": true,
	"n/a":     true,
}

// NormalizePlayerName folds a display name into an identity key: accents are
// stripped, case is folded, and anything other than letters, digits,
// apostrophes and hyphens collapses into single spaces.
func NormalizePlayerName(raw string) string {
	s := foldReplacer.Replace(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		return ""
	}
	folded = cases.Fold().String(folded)

	var b strings.Builder
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '-':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}
	return b.String()
}
