package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// ErrEmptyAddress indicates the address is empty after trimming
	ErrEmptyAddress = errors.New("address cannot be empty")

	// ErrEmptyPostalCode indicates the postal code is empty
	ErrEmptyPostalCode = errors.New("postal code cannot be empty")

	// ErrInvalidPostalCode indicates the postal code is not in NNNN-NNN form
	ErrInvalidPostalCode = errors.New("postal code must be in the form 0000-000")
)

// strippedRunes matches the punctuation and whitespace removed before
// comparing addresses: spaces, commas, periods and hyphens.
var strippedRunes = regexp.MustCompile(`[\s,.\-]`)

// postalCodeRegex matches Portuguese postal codes (NNNN-NNN)
var postalCodeRegex = regexp.MustCompile(`^\d{4}-\d{3}$`)

// diacriticFolder decomposes characters and drops combining marks, so
// "São Jerónimo" compares equal to "Sao Jeronimo".
var diacriticFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// AddressNormalizer produces the canonical form of a lodging address
// used for duplicate detection
type AddressNormalizer struct{}

// NewAddressNormalizer creates a new address normalizer instance
func NewAddressNormalizer() *AddressNormalizer {
	return &AddressNormalizer{}
}

// Normalize lowercases the address, folds diacritics and strips
// whitespace, commas, periods and hyphens. Two addresses collide when
// their normalized forms are equal.
func (n *AddressNormalizer) Normalize(morada string) string {
	trimmed := strings.ToLower(strings.TrimSpace(morada))
	folded, _, err := transform.String(diacriticFolder, trimmed)
	if err != nil {
		// Transform only fails on malformed UTF-8; fall back to the
		// unfolded form rather than reject the address.
		folded = trimmed
	}
	return strippedRunes.ReplaceAllString(folded, "")
}

// Equal reports whether two addresses normalize to the same form
func (n *AddressNormalizer) Equal(a, b string) bool {
	return n.Normalize(a) == n.Normalize(b)
}

// ValidateAddress checks that an address is non-empty and returns it trimmed
func (n *AddressNormalizer) ValidateAddress(morada string) (string, error) {
	trimmed := strings.TrimSpace(morada)
	if trimmed == "" {
		return "", ErrEmptyAddress
	}
	return trimmed, nil
}

// ValidatePostalCode checks a Portuguese postal code (NNNN-NNN)
func ValidatePostalCode(codigo string) (string, error) {
	trimmed := strings.TrimSpace(codigo)
	if trimmed == "" {
		return "", ErrEmptyPostalCode
	}
	if !postalCodeRegex.MatchString(trimmed) {
		return "", ErrInvalidPostalCode
	}
	return trimmed, nil
}
