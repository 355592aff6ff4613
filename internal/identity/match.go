// Package identity normalizes business names and decides whether two
// differently formatted listings denote the same business. Both the scan
// orchestrator (locating the target inside provider results) and the
// aggregator (merging a competitor's name variants across grid points) go
// through this package; divergent matching between the two would silently
// corrupt aggregation.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minSubstringLen is the length the shorter name must exceed before a
// substring counts as a match. Guards against short generic tokens like
// "Park" matching everything.
const minSubstringLen = 5

// credentialSuffixes are entity and credential tokens stripped from names.
// Providers are inconsistent about including them.
var credentialSuffixes = []string{"llc", "inc", "pc", "dds", "dmd"}

// synonyms maps industry spelling variants onto one canonical token.
var synonyms = map[string]string{
	"dentistry": "dental",
}

var asciiFolder = strings.NewReplacer(
	"‘", "'", "’", "'", // curly single quotes
	"“", `"`, "”", `"`, // curly double quotes
	"–", "-", "—", "-", // en/em dashes
)

// stripMarks removes combining diacritical marks after NFD decomposition,
// so "Café" and "Cafe" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases a business name, folds curly punctuation and
// diacritics to ASCII, strips credential/entity suffixes and punctuation,
// applies industry synonyms, and collapses whitespace.
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = asciiFolder.Replace(n)
	if folded, _, err := transform.String(stripMarks, n); err == nil {
		n = folded
	}

	var b strings.Builder
	b.Grow(len(n))
	for _, r := range n {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '/':
			b.WriteByte(' ')
		}
		// everything else (commas, periods, quotes, amps) drops out
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if canonical, ok := synonyms[w]; ok {
			w = canonical
		}
		if isCredentialSuffix(w) {
			continue
		}
		kept = append(kept, w)
	}

	return strings.Join(kept, " ")
}

func isCredentialSuffix(word string) bool {
	for _, s := range credentialSuffixes {
		if word == s {
			return true
		}
	}
	return false
}

// IsMatch reports whether two raw business names denote the same business.
// Names match when their normalized forms are equal, or when one normalized
// form contains the other and the shorter form is long enough to be
// distinctive. The heuristic is approximate: chain businesses sharing a word
// can over-merge and heavily abbreviated listings can under-merge.
func IsMatch(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len(shorter) > minSubstringLen && strings.Contains(longer, shorter)
}
