package domain

import "strings"

// MaxInboxMessages is how many inbox entries are ever handed to callers.
const MaxInboxMessages = 5

// providerFooter is appended by OnlineSim to every relayed SMS body.
const providerFooter = "received from OnlineSIM.io"

// InboxMessage is one SMS in a number's inbox. Timestamp is the provider's
// own string and is not guaranteed to sort.
type InboxMessage struct {
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// NewInboxMessage builds an InboxMessage, dropping the provider footer from text.
func NewInboxMessage(timestamp, text string) InboxMessage {
	if i := strings.Index(text, providerFooter); i >= 0 {
		text = text[:i]
	}
	return InboxMessage{
		Timestamp: timestamp,
		Text:      strings.TrimSpace(text),
	}
}
