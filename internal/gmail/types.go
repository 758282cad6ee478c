package gmail

import (
	"net/mail"
	"strings"
)

// MessageSummary is the header-level view of one message, enough for the
// review queue to render a sender decision.
type MessageSummary struct {
	ID       string   `json:"id"`
	ThreadID string   `json:"thread_id"`
	LabelIDs []string `json:"label_ids"`
	Subject  string   `json:"subject"`
	From     string   `json:"from"`
	Date     string   `json:"date"`
	Snippet  string   `json:"snippet"`
}

// SenderHost returns the mail-server host of an RFC 5322 From value, or
// "" when the address does not parse.
func SenderHost(from string) string {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return ""
	}
	at := strings.LastIndex(addr.Address, "@")
	if at < 0 {
		return ""
	}
	return addr.Address[at+1:]
}
