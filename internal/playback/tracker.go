package playback

import (
	"math/rand"
	"time"
)

// Tracker owns the playback position against the display order. It is pure
// state: it never talks to the player, so every reconciliation rule is
// directly testable. Not safe for concurrent use; the Engine serializes
// access.
type Tracker struct {
	order      displayOrder
	index      int
	interacted bool
	repeat     bool

	rng *rand.Rand
}

// NewTracker returns an empty tracker. The index is -1 until items arrive.
func NewTracker() *Tracker {
	return &Tracker{
		index: -1,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetRand replaces the shuffle RNG; tests use a seeded source.
func (t *Tracker) SetRand(rng *rand.Rand) {
	t.rng = rng
}

// Len returns the number of items in the display order.
func (t *Tracker) Len() int { return t.order.len() }

// Empty reports whether there is nothing to play.
func (t *Tracker) Empty() bool { return t.order.len() == 0 }

// Index returns the current position, -1 when empty.
func (t *Tracker) Index() int { return t.index }

// Current returns the item at the current position, nil when empty.
func (t *Tracker) Current() *Item { return t.order.at(t.index) }

// Items returns the display order.
func (t *Tracker) Items() []Item { return t.order.items() }

// Shuffled reports whether shuffle mode is on.
func (t *Tracker) Shuffled() bool { return t.order.shuffled }

// Repeat reports whether repeat mode is on.
func (t *Tracker) Repeat() bool { return t.repeat }

// SetRepeat toggles repeat mode.
func (t *Tracker) SetRepeat(on bool) { t.repeat = on }

// Interacted reports whether the user has engaged playback this session.
// It gates autoplay: the very first load of a session stays silent.
func (t *Tracker) Interacted() bool { return t.interacted }

// MarkInteracted records user engagement.
func (t *Tracker) MarkInteracted() { t.interacted = true }

// Select moves to index i and marks the session interacted. Out-of-range
// values are clamped rather than rejected; selecting on an empty tracker is
// a no-op.
func (t *Tracker) Select(i int) *Item {
	if t.Empty() {
		return nil
	}
	if i < 0 {
		i = 0
	}
	if i >= t.order.len() {
		i = t.order.len() - 1
	}
	t.index = i
	t.interacted = true
	return t.Current()
}

// Next advances one position, wrapping from the last item to the first so
// playback never runs off the end silently.
func (t *Tracker) Next() *Item {
	if t.Empty() {
		return nil
	}
	t.index = (t.index + 1) % t.order.len()
	t.interacted = true
	return t.Current()
}

// Previous steps back one position, wrapping from the first item to the
// last.
func (t *Tracker) Previous() *Item {
	if t.Empty() {
		return nil
	}
	t.index = (t.index - 1 + t.order.len()) % t.order.len()
	t.interacted = true
	return t.Current()
}

// SetItems installs a fresh canonical snapshot and relocates the current
// position: the same logical item when it survived the edit, otherwise the
// old index clamped into range. An empty snapshot empties the tracker; the
// first non-empty snapshot starts at index 0.
func (t *Tracker) SetItems(canonical []Item) {
	var currentID string
	if cur := t.Current(); cur != nil {
		currentID = cur.ID
	}

	t.order.setCanonical(canonical)

	if t.order.len() == 0 {
		t.index = -1
		return
	}
	if currentID != "" {
		if pos := t.order.indexOf(currentID); pos >= 0 {
			t.index = pos
			return
		}
	}
	t.index = clampIndex(t.index, t.order.len())
}

// RemoveItem reconciles the position after a single remote deletion.
// Removing something before the current position shifts the position down;
// removing the current item keeps the index (now pointing at the next item)
// clamped into range. Removing the last remaining item empties the tracker.
func (t *Tracker) RemoveItem(id string) {
	pos := t.order.remove(id)
	if pos < 0 {
		return
	}

	if t.order.len() == 0 {
		t.index = -1
		return
	}
	if pos < t.index {
		t.index--
	}
	t.index = clampIndex(t.index, t.order.len())
}

// SetShuffle toggles shuffle mode. Both directions relocate the currently
// playing item by id in the new order, falling back to index 0 when it is
// not found.
func (t *Tracker) SetShuffle(on bool) {
	if on == t.order.shuffled {
		return
	}

	var currentID string
	if cur := t.Current(); cur != nil {
		currentID = cur.ID
	}

	if on {
		t.order.shuffle(t.rng)
	} else {
		t.order.unshuffle()
	}

	if t.order.len() == 0 {
		t.index = -1
		return
	}
	if currentID != "" {
		if pos := t.order.indexOf(currentID); pos >= 0 {
			t.index = pos
			return
		}
	}
	t.index = 0
}

func clampIndex(i, length int) int {
	if i < 0 {
		return 0
	}
	if i >= length {
		return length - 1
	}
	return i
}
