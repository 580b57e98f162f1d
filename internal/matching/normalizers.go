package matching

import (
	"strings"
	"unicode"
)

// Corporate suffixes stripped from company names before comparison.
// "ABC Plumbing Inc" and "ABC Plumbing LLC" must normalize identically.
var companySuffixes = []string{
	"incorporated", "corporation", "company", "limited",
	"inc", "llc", "corp", "ltd", "co", "lp", "llp", "plc",
}

// Free-mail providers whose domains carry no evidence of duplication:
// two unrelated vendors can both use gmail addresses.
var freeMailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
	"aol.com":     true,
	"icloud.com":  true,
	"live.com":    true,
	"msn.com":     true,
}

// NormalizeCompanyName lowercases, strips punctuation and trailing corporate
// suffixes, and collapses whitespace.
func NormalizeCompanyName(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r):
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	s = strings.TrimSpace(b.String())

	// Strip suffix words from the end, repeatedly: "abc co inc" → "abc".
	for {
		stripped := false
		for _, suffix := range companySuffixes {
			if s == suffix {
				continue
			}
			if strings.HasSuffix(s, " "+suffix) {
				s = strings.TrimSpace(s[:len(s)-len(suffix)-1])
				stripped = true
			}
		}
		if !stripped {
			break
		}
	}
	return s
}

// NormalizePhone keeps only digits, dropping a leading US country code so
// "+1 (555) 123-4567" and "555.123.4567" compare equal.
func NormalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// NormalizeEmail lowercases and trims.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsFreeMail reports whether the address belongs to a common free-mail
// provider. Malformed addresses count as free mail so they never contribute
// match evidence.
func IsFreeMail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return true
	}
	return freeMailDomains[strings.ToLower(email[at+1:])]
}

// Street-type abbreviations folded during address normalization.
var addressReplacements = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"boulevard": "blvd",
	"drive":     "dr",
	"road":      "rd",
	"lane":      "ln",
	"court":     "ct",
	"circle":    "cir",
	"place":     "pl",
	"apartment": "apt",
	"suite":     "ste",
	"north":     "n",
	"south":     "s",
	"east":      "e",
	"west":      "w",
}

// NormalizeAddress lowercases, strips punctuation, folds common street-type
// words to their abbreviations, and collapses whitespace.
func NormalizeAddress(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	words := strings.Fields(b.String())
	for i, w := range words {
		if abbr, ok := addressReplacements[w]; ok {
			words[i] = abbr
		}
	}
	return strings.Join(words, " ")
}
