package service

import (
	"context"

	"go.uber.org/zap"

	"mailtriage/internal/gmail"
	"mailtriage/internal/identity"
	"mailtriage/internal/model"
)

// Classifier produces the triage candidates for one managed email: the
// messages from senders the user has not decided on yet. Classification
// is synchronous; the status lifecycle around it is the filtering
// service's concern.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, email *model.ManagedEmail) ([]model.TriageCandidate, error)
}

// StaticClassifier returns a fixed sample batch. It stands in for real
// classification in development and keeps the triage flow exercisable
// without a Gmail grant.
type StaticClassifier struct{}

func (StaticClassifier) Name() string { return "static" }

func (StaticClassifier) Classify(_ context.Context, email *model.ManagedEmail) ([]model.TriageCandidate, error) {
	return []model.TriageCandidate{
		{
			ID:             "1",
			EmailManagedID: email.ID,
			MailServer:     "mail.lunarwave.io",
			From:           "ava.chen@lunarwave.io",
			Subject:        "Quick question about your newsletter",
			Body:           "Hi! I came across your newsletter last week and had a question about the archive. Is there a way to browse older issues?",
		},
		{
			ID:             "2",
			EmailManagedID: email.ID,
			MailServer:     "smtp.borealis-analytics.com",
			From:           "updates@borealis-analytics.com",
			Subject:        "Your weekly usage report is ready",
			Body:           "Your workspace processed 1,284 events this week. View the full breakdown in your dashboard.",
		},
		{
			ID:             "3",
			EmailManagedID: email.ID,
			MailServer:     "mx.quintal.dev",
			From:           "sam@quintal.dev",
			Subject:        "Following up on the conference",
			Body:           "Great meeting you at the booth on Thursday. Would love to continue the conversation about integrations when you have a moment.",
		},
	}, nil
}

// GmailClassifier pulls recent inbox messages for the managed email's
// owner through the identity broker and proposes each sender for review.
type GmailClassifier struct {
	broker     *identity.Broker
	maxResults int64
	logger     *zap.Logger
}

func NewGmailClassifier(broker *identity.Broker, maxResults int64, logger *zap.Logger) *GmailClassifier {
	return &GmailClassifier{
		broker:     broker,
		maxResults: maxResults,
		logger:     logger,
	}
}

func (*GmailClassifier) Name() string { return "gmail" }

func (g *GmailClassifier) Classify(ctx context.Context, email *model.ManagedEmail) ([]model.TriageCandidate, error) {
	token, err := g.broker.GoogleAccessToken(ctx, email.UserID)
	if err != nil {
		return nil, err
	}

	client, err := gmail.NewClient(ctx, token)
	if err != nil {
		return nil, err
	}

	messages, err := client.Messages(ctx, g.maxResults, []string{"INBOX"})
	if err != nil {
		return nil, err
	}

	candidates := make([]model.TriageCandidate, 0, len(messages))
	for _, m := range messages {
		candidates = append(candidates, model.TriageCandidate{
			ID:             m.ID,
			EmailManagedID: email.ID,
			MailServer:     gmail.SenderHost(m.From),
			From:           m.From,
			Subject:        m.Subject,
			Body:           m.Snippet,
		})
	}
	return candidates, nil
}
