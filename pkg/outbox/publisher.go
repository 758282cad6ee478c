package outbox

import "context"

// Publisher satisfies the services' publisher contract by writing events
// to the outbox instead of the broker. The dispatcher delivers them.
type Publisher struct {
	repo *Repository
}

func NewPublisher(repo *Repository) *Publisher {
	return &Publisher{repo: repo}
}

func (p *Publisher) Publish(routingKey string, payload any) error {
	_, err := p.repo.InsertEvent(context.Background(), routingKey, payload)
	return err
}
