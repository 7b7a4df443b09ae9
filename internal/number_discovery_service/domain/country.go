package domain

import (
	"strings"
	"unicode"
)

// Country is a provider country that was reported online by a single
// ListOnlineCountries call. ID is the provider's own key (e.g. "united_kingdom").
type Country struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	CountryCode int    `json:"country_code,omitempty"` // dialing code, 0 when the provider omits it
}

// NewCountry creates a Country with its display name derived from id.
func NewCountry(id string, countryCode int) Country {
	return Country{
		ID:          id,
		DisplayName: DisplayNameFor(id),
		CountryCode: countryCode,
	}
}

// DisplayNameFor turns a provider identifier into a readable name:
// underscores become spaces and every word is title-cased ("united_kingdom" -> "United Kingdom").
func DisplayNameFor(id string) string {
	var b strings.Builder
	b.Grow(len(id))

	prevLetter := false
	for _, r := range strings.ReplaceAll(id, "_", " ") {
		if unicode.IsLetter(r) {
			if prevLetter {
				r = unicode.ToLower(r)
			} else {
				r = unicode.ToTitle(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
