package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiscoveryResult is the outcome of one FindLiveNumber attempt.
// Found == false is the normal "no number currently online" outcome.
type DiscoveryResult struct {
	AttemptID uuid.UUID
	Found     bool

	Country Country
	Number  NumberCandidate
	// Inbox is the payload of the successful liveness probe, at most
	// MaxInboxMessages entries, so callers need not fetch it again.
	Inbox []InboxMessage

	CountriesOnline  int
	CountriesScanned int
	ProbesAttempted  int
}

// NumberDiscoveredEvent is published after an attempt finds a live number.
type NumberDiscoveredEvent struct {
	EventID      uuid.UUID `json:"event_id"`
	AttemptID    uuid.UUID `json:"attempt_id"`
	CountryID    string    `json:"country_id"`
	CountryName  string    `json:"country_name"`
	Number       string    `json:"number"` // E.164
	UpdatedAt    string    `json:"updated_at"`
	InboxSize    int       `json:"inbox_size"`
	ProbeCount   int       `json:"probe_count"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// NewNumberDiscoveredEvent builds the event for a found result.
func NewNumberDiscoveredEvent(r *DiscoveryResult) NumberDiscoveredEvent {
	return NumberDiscoveredEvent{
		EventID:      uuid.New(),
		AttemptID:    r.AttemptID,
		CountryID:    r.Country.ID,
		CountryName:  r.Country.DisplayName,
		Number:       r.Number.E164(),
		UpdatedAt:    r.Number.UpdatedAt,
		InboxSize:    len(r.Inbox),
		ProbeCount:   r.ProbesAttempted,
		DiscoveredAt: time.Now().UTC(),
	}
}
