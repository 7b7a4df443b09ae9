package domain

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// NumberCandidate is one number listed for a country during a discovery attempt.
type NumberCandidate struct {
	CountryID string `json:"country_id"`
	Digits    string `json:"digits"`     // international digits without the leading '+'
	UpdatedAt string `json:"updated_at"` // as reported by the provider, e.g. "3 minutes ago"
}

// NewNumberCandidate normalizes raw so Digits never carries '+' or spaces.
func NewNumberCandidate(countryID, raw, updatedAt string) NumberCandidate {
	return NumberCandidate{
		CountryID: countryID,
		Digits:    NormalizeDigits(raw),
		UpdatedAt: updatedAt,
	}
}

// NormalizeDigits strips everything but ASCII digits from a phone number.
func NormalizeDigits(raw string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
}

// E164 returns the number in +<digits> form.
func (n NumberCandidate) E164() string {
	return "+" + n.Digits
}

func (n NumberCandidate) parse() (*phonenumbers.PhoneNumber, error) {
	return phonenumbers.Parse(n.E164(), phonenumbers.UNKNOWN_REGION)
}

// NationalFormat formats the number the way it is dialed inside its own
// country. Falls back to E164 when the number cannot be parsed.
func (n NumberCandidate) NationalFormat() string {
	num, err := n.parse()
	if err != nil {
		return n.E164()
	}
	return phonenumbers.Format(num, phonenumbers.NATIONAL)
}

// RegionCode returns the ISO 3166-1 alpha-2 region for the number's calling
// code, or phonenumbers.UNKNOWN_REGION.
func (n NumberCandidate) RegionCode() string {
	num, err := n.parse()
	if err != nil {
		return phonenumbers.UNKNOWN_REGION
	}
	return phonenumbers.GetRegionCodeForCountryCode(int(num.GetCountryCode()))
}

// Flag returns the emoji flag for RegionCode, or "" for unknown regions.
func (n NumberCandidate) Flag() string {
	return FlagForRegion(n.RegionCode())
}

// ProfileLink is a Telegram deep link that resolves the number's public profile.
func (n NumberCandidate) ProfileLink() string {
	return "tg://resolve?phone=" + n.E164()
}

// FlagForRegion maps a two letter region code to its regional indicator pair.
func FlagForRegion(region string) string {
	region = strings.ToUpper(region)
	if len(region) != 2 || region == phonenumbers.UNKNOWN_REGION {
		return ""
	}
	var b strings.Builder
	for _, c := range region {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}
