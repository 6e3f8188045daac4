// Package broadcast defines the change-feed envelope published on the redis
// "broadcast" channel and consumed by the realtime fan-out and the player
// client.
package broadcast

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// Channel is the redis pub/sub channel all backend events go through.
const Channel = "broadcast"

// Event types carried in the envelope. Consumers must handle unknown types
// by logging and dropping them, never by failing.
const (
	TypeItemAdded         = "playlist.item_added"
	TypeItemRemoved       = "playlist.item_removed"
	TypeParticipantJoined = "participant.joined"
	TypePollVoteCast      = "poll.vote_cast"
	TypePollClosed        = "poll.closed"
	TypeExpenseAdded      = "expense.added"
)

// Envelope is the wire form of a change-feed notification. EventID routes the
// message to the right event room; Payload is type-specific.
type Envelope struct {
	Type    string          `json:"type"`
	EventID string          `json:"eventId"`
	Payload json.RawMessage `json:"payload"`
}

// Publisher pushes envelopes to redis. A nil Publisher is a no-op, which
// keeps handler tests free of redis.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Publish marshals payload into an envelope and publishes it. Errors are
// logged, not returned: a missed notification is recovered by the next one.
func (p *Publisher) Publish(ctx context.Context, eventType, eventID string, payload any) {
	if p == nil || p.rdb == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("broadcast: marshal payload: %v", err)
		return
	}
	data, err := json.Marshal(Envelope{Type: eventType, EventID: eventID, Payload: raw})
	if err != nil {
		log.Printf("broadcast: marshal envelope: %v", err)
		return
	}
	if err := p.rdb.Publish(ctx, Channel, string(data)).Err(); err != nil {
		log.Printf("broadcast: publish: %v", err)
	}
}
