package outbox

import (
	"context"
	"encoding/json"
	"fmt"
)

// Queue adapts the outbox repository into a simple enqueue interface:
// callers hand over a routing key and a payload, and the dispatcher takes
// care of getting it onto MQ.
type Queue struct {
	repo          *Repository
	aggregateType string
}

func NewQueue(repo *Repository, aggregateType string) *Queue {
	return &Queue{repo: repo, aggregateType: aggregateType}
}

// Enqueue durably records the event; it is published asynchronously.
func (q *Queue) Enqueue(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &Event{
		AggregateType: q.aggregateType,
		RoutingKey:    routingKey,
		Payload:       body,
		Status:        "pending",
	}
	return q.repo.Insert(ctx, event)
}
