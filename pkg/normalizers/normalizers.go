// Package normalizers provides the canonical comparison forms for business listing fields
package normalizers

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("digits_only", DigitsOnly)
	Register("nname", NormalizeBusinessName)
	Register("naddress", NormalizeAddress)
	Register("nphone", NormalizePhone)
	Register("nphone_key", PhoneKey)
	Register("nwebsite", NormalizeWebsite)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// DigitsOnly keeps only the ASCII digits of s
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizePhone removes all non-digit characters from a phone number
func NormalizePhone(s string) string {
	return DigitsOnly(s)
}

// PhoneKey is the comparison key for a phone number: its last 10 digits.
// "+1 (555) 010-0000" and "555.010.0000" share a key.
func PhoneKey(s string) string {
	digits := DigitsOnly(s)
	if len(digits) > 10 {
		return digits[len(digits)-10:]
	}
	return digits
}

// tokens folds s to lowercase ASCII and splits it into alphanumeric words.
// Ampersands become "and", apostrophes are dropped so "Joe's" stays one word,
// and every other symbol separates words.
func tokens(s string) []string {
	s = strings.ToLower(unidecode.Unidecode(s))

	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '&':
			b.WriteString(" and ")
		case r == '\'' || r == '`':
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

var legalSuffixes = map[string]bool{
	"inc":          true,
	"incorporated": true,
	"llc":          true,
	"ltd":          true,
	"limited":      true,
	"co":           true,
	"corp":         true,
	"corporation":  true,
	"company":      true,
	"plc":          true,
	"llp":          true,
}

// NormalizeBusinessName normalizes a business name for matching
// - Diacritics folded to ASCII, lowercase
// - Punctuation removed, whitespace collapsed
// - Leading "the" and trailing legal forms (Inc, LLC, Ltd...) removed
//
// The last remaining word is never removed, so "The Company" becomes "company".
func NormalizeBusinessName(s string) string {
	words := tokens(s)

	for len(words) > 1 && words[0] == "the" {
		words = words[1:]
	}
	for len(words) > 1 && legalSuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}

	return strings.Join(words, " ")
}

// addressAbbreviations maps long street-address words to their USPS style abbreviation.
// No abbreviation appears as a key, which keeps NormalizeAddress idempotent.
var addressAbbreviations = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"boulevard": "blvd",
	"drive":     "dr",
	"road":      "rd",
	"lane":      "ln",
	"court":     "ct",
	"circle":    "cir",
	"place":     "pl",
	"square":    "sq",
	"terrace":   "ter",
	"parkway":   "pkwy",
	"highway":   "hwy",
	"suite":     "ste",
	"apartment": "apt",
	"building":  "bldg",
	"floor":     "fl",
	"north":     "n",
	"south":     "s",
	"east":      "e",
	"west":      "w",
}

// NormalizeAddress normalizes an address string so "123 Main Street" and "123 main st." compare equal
func NormalizeAddress(s string) string {
	words := tokens(s)
	for i, w := range words {
		if abbr, ok := addressAbbreviations[w]; ok {
			words[i] = abbr
		}
	}
	return strings.Join(words, " ")
}

// NormalizeWebsite reduces a website to its bare host:
// scheme, credentials, "www.", port, path, query and fragment are removed.
func NormalizeWebsite(s string) string {
	s = strings.ToLower(strings.Join(strings.Fields(s), ""))

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, ".")
	for strings.HasPrefix(s, "www.") {
		s = strings.TrimPrefix(s, "www.")
	}

	return s
}

// WebsiteScheme returns "https", "http" or "" for a raw website value
func WebsiteScheme(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "https://"):
		return "https"
	case strings.HasPrefix(s, "http://"):
		return "http"
	default:
		return ""
	}
}
