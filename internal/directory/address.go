package directory

import (
	"strings"
	"unicode"
)

// DeriveCorporateAddress builds the sign-in address for a practitioner:
// lowercased first and last name with everything non-alphabetic stripped,
// joined as first.last@domain. "Mary-Jane O'Brien" at meridianclinic.com
// becomes maryjane.obrien@meridianclinic.com; accented letters survive the
// unicode.IsLetter check.
func DeriveCorporateAddress(firstName, lastName, domain string) string {
	return normalizeNamePart(firstName) + "." + normalizeNamePart(lastName) + "@" + domain
}

func normalizeNamePart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
