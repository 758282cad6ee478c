package model

import "time"

// Triage decision states. Transitions out of pending are one-way; releasing
// a candidate from a terminal bucket either drops it or re-queues it as
// pending, depending on configuration.
const (
	TriagePending  = "pending"
	TriageMuted    = "muted"
	TriageFriended = "friended"
)

// TriageCandidate is a single filtered email awaiting the user's
// accept/mute decision. Produced by a Classifier; CandidateID is stable
// within one managed email (for the Gmail classifier it is the provider
// message id).
type TriageCandidate struct {
	ID             string `json:"id"`
	EmailManagedID int64  `json:"email_managed_id"`
	MailServer     string `json:"mail_server"`
	From           string `json:"from"`
	Subject        string `json:"subject"`
	Body           string `json:"body"`
}

// TriageDecision is the durable record of a candidate's bucket, keyed by
// (EmailManagedID, CandidateID).
type TriageDecision struct {
	ID             int64     `json:"id"`
	EmailManagedID int64     `json:"email_managed_id"`
	CandidateID    string    `json:"candidate_id"`
	MailServer     string    `json:"mail_server"`
	From           string    `json:"from"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	State          string    `json:"state"`
	DecidedAt      time.Time `json:"decided_at"`
}

// Candidate rebuilds the candidate view of a decision.
func (d *TriageDecision) Candidate() TriageCandidate {
	return TriageCandidate{
		ID:             d.CandidateID,
		EmailManagedID: d.EmailManagedID,
		MailServer:     d.MailServer,
		From:           d.From,
		Subject:        d.Subject,
		Body:           d.Body,
	}
}
