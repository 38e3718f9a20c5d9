// Package textnorm holds the pure text helpers used to turn generated plan
// documents into canonical values: diacritic folding, weekday labels,
// duration coercion and fuzzy subject matching.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Turkish dotless/dotted i have no decomposition that strips to ASCII.
var turkishI = strings.NewReplacer("ı", "i", "İ", "i")

// Fold lowercases s, strips combining marks and collapses whitespace so that
// "ÇARŞAMBA", "carsamba" and " Çarşamba " compare equal.
func Fold(s string) string {
	s = turkishI.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}

	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// Words splits folded text into lowercase word tokens, dropping punctuation.
func Words(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
