package http

import (
	"github.com/aradsms/vnumber_services/internal/number_discovery_service/domain"
)

// CountryResponse describes the country of a discovered number.
type CountryResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	CountryCode int    `json:"country_code,omitempty"`
}

// NumberResponse carries the number plus the display data a chat front end needs.
type NumberResponse struct {
	Digits         string `json:"digits"`
	E164           string `json:"e164"`
	NationalFormat string `json:"national_format"`
	RegionCode     string `json:"region_code"`
	Flag           string `json:"flag,omitempty"`
	UpdatedAt      string `json:"updated_at"`
	ProfileLink    string `json:"profile_link"`
}

type InboxMessageResponse struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// DiscoverResponse is returned by POST /api/v1/numbers/discover.
type DiscoverResponse struct {
	AttemptID        string                 `json:"attempt_id"`
	Found            bool                   `json:"found"`
	Message          string                 `json:"message,omitempty"`
	Country          *CountryResponse       `json:"country,omitempty"`
	Number           *NumberResponse        `json:"number,omitempty"`
	Inbox            []InboxMessageResponse `json:"inbox,omitempty"`
	CountriesOnline  int                    `json:"countries_online"`
	CountriesScanned int                    `json:"countries_scanned"`
	ProbesAttempted  int                    `json:"probes_attempted"`
}

// InboxResponse is returned by GET .../inbox.
type InboxResponse struct {
	CountryID string                 `json:"country_id"`
	Number    string                 `json:"number"`
	Messages  []InboxMessageResponse `json:"messages"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// InboxRequest holds the validated path parameters of the inbox route.
type InboxRequest struct {
	CountryID string `validate:"required,max=64,country_id"`
	Number    string `validate:"required,number,min=6,max=16"`
}

func toDiscoverResponse(r *domain.DiscoveryResult) DiscoverResponse {
	resp := DiscoverResponse{
		AttemptID:        r.AttemptID.String(),
		Found:            r.Found,
		CountriesOnline:  r.CountriesOnline,
		CountriesScanned: r.CountriesScanned,
		ProbesAttempted:  r.ProbesAttempted,
	}
	if !r.Found {
		resp.Message = msgNoNumberOnline
		return resp
	}

	resp.Country = &CountryResponse{
		ID:          r.Country.ID,
		DisplayName: r.Country.DisplayName,
		CountryCode: r.Country.CountryCode,
	}
	resp.Number = &NumberResponse{
		Digits:         r.Number.Digits,
		E164:           r.Number.E164(),
		NationalFormat: r.Number.NationalFormat(),
		RegionCode:     r.Number.RegionCode(),
		Flag:           r.Number.Flag(),
		UpdatedAt:      r.Number.UpdatedAt,
		ProfileLink:    r.Number.ProfileLink(),
	}
	resp.Inbox = toInboxMessages(r.Inbox)
	return resp
}

func toInboxMessages(messages []domain.InboxMessage) []InboxMessageResponse {
	out := make([]InboxMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, InboxMessageResponse{Timestamp: m.Timestamp, Text: m.Text})
	}
	return out
}
