package broadcast

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherNilSafe(t *testing.T) {
	// Handlers publish unconditionally; a nil publisher (tests, tools) must
	// be a silent no-op.
	var p *Publisher
	p.Publish(context.Background(), TypeItemAdded, "ev1", map[string]string{"x": "y"})

	NewPublisher(nil).Publish(context.Background(), TypeItemAdded, "ev1", nil)
}

func TestEnvelopeWireFormat(t *testing.T) {
	env := Envelope{
		Type:    TypeItemRemoved,
		EventID: "ev1",
		Payload: json.RawMessage(`{"itemId":"it1"}`),
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"playlist.item_removed","eventId":"ev1","payload":{"itemId":"it1"}}`, string(data))

	var back Envelope
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, env.Type, back.Type)
	assert.Equal(t, env.EventID, back.EventID)
}
