// Package playback implements the collaborative playlist playback engine:
// a locally reconciled copy of a remotely edited playlist, a position
// tracker with shuffle and repeat, an advance policy, and a readiness-gated
// adapter over an external media player.
//
// The engine is transport-agnostic. The remote list arrives through a Source,
// change notifications through a Feed, and playback control goes out through
// a Player. cmd/soiree-player wires these to the soiree backend and mpv;
// tests wire fakes.
package playback

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soiree-app/soiree/internal/broadcast"
	"github.com/soiree-app/soiree/internal/playlist"
)

// Item is a playlist entry as the engine sees it.
type Item = playlist.Item

// ErrFetch marks remote list retrieval failures. The engine surfaces these
// to the caller; retry is a caller concern, never automatic.
var ErrFetch = errors.New("playlist fetch failed")

// Kind tags a change-feed notification.
type Kind int

const (
	KindInsert Kind = iota + 1
	KindDelete
)

// Notification is the decoded form of a remote change event. Exactly one of
// Item (insert) or ItemID (delete) is meaningful, selected by Kind.
type Notification struct {
	Kind   Kind
	Item   *Item
	ItemID string
}

// DecodeEnvelope converts a broadcast envelope into a Notification. The
// second return is false for envelope types the engine does not consume
// (votes, expenses, joins) and for malformed payloads.
func DecodeEnvelope(env broadcast.Envelope) (Notification, bool, error) {
	switch env.Type {
	case broadcast.TypeItemAdded:
		var it Item
		if err := json.Unmarshal(env.Payload, &it); err != nil {
			return Notification{}, false, fmt.Errorf("decode item_added payload: %w", err)
		}
		return Notification{Kind: KindInsert, Item: &it}, true, nil

	case broadcast.TypeItemRemoved:
		var body struct {
			ItemID string `json:"itemId"`
		}
		if err := json.Unmarshal(env.Payload, &body); err != nil {
			return Notification{}, false, fmt.Errorf("decode item_removed payload: %w", err)
		}
		if body.ItemID == "" {
			return Notification{}, false, errors.New("item_removed payload without itemId")
		}
		return Notification{Kind: KindDelete, ItemID: body.ItemID}, true, nil

	default:
		return Notification{}, false, nil
	}
}
