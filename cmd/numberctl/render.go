package main

import (
	"context"
	"fmt"
	"io"

	"github.com/aradsms/vnumber_services/internal/number_discovery_service/domain"
)

const (
	msgNoNumberOnline = "There is no number online right now!"
	msgTryAgain       = "could not reach the number provider, please try again"
	msgInboxHint      = "If your message has not arrived, try again in a minute."
)

// textProgress prints discovery progress line by line.
type textProgress struct {
	w io.Writer
}

func newTextProgress(w io.Writer) *textProgress {
	return &textProgress{w: w}
}

func (p *textProgress) CountriesListed(_ context.Context, total int) {
	fmt.Fprintf(p.w, "Online countries: %d\n\nTesting active numbers:\n", total)
}

func (p *textProgress) ProbingCandidate(_ context.Context, country domain.Country, candidate domain.NumberCandidate) {
	fmt.Fprintf(p.w, "  trying %s (%s)\n", country.DisplayName, candidate.NationalFormat())
}

func renderDiscovery(w io.Writer, result *domain.DiscoveryResult) {
	fmt.Fprintln(w)
	if !result.Found {
		fmt.Fprintln(w, msgNoNumberOnline)
		return
	}

	n := result.Number
	flag := n.Flag()
	if flag != "" {
		flag += " "
	}
	fmt.Fprintf(w, "%sHere is your number: %s\n", flag, n.E164())
	fmt.Fprintf(w, "Country: %s\n", result.Country.DisplayName)
	fmt.Fprintf(w, "Last update: %s\n", n.UpdatedAt)
	fmt.Fprintf(w, "Profile: %s\n", n.ProfileLink())
	fmt.Fprintf(w, "Inbox: numberctl inbox %s %s\n", result.Country.ID, n.Digits)

	if len(result.Inbox) > 0 {
		fmt.Fprintln(w)
		renderInbox(w, result.Inbox)
	}
}

func renderInbox(w io.Writer, messages []domain.InboxMessage) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "The inbox is empty.")
		fmt.Fprintln(w, msgInboxHint)
		return
	}
	for _, m := range messages {
		fmt.Fprintf(w, "Time: %s\n%s\n\n", m.Timestamp, m.Text)
	}
	fmt.Fprintf(w, "Here are the latest %d messages.\n%s\n", len(messages), msgInboxHint)
}
