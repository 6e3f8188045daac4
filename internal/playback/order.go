package playback

import "math/rand"

// displayOrder is the sequence actually played: the canonical order, or a
// shuffle permutation of it. The permutation is generated once when shuffle
// is enabled and reconciled (never regenerated) as remote edits arrive, so
// the order does not jump around under the listener.
type displayOrder struct {
	canonical []Item
	display   []Item
	shuffled  bool
}

func (o *displayOrder) len() int {
	return len(o.display)
}

func (o *displayOrder) at(i int) *Item {
	if i < 0 || i >= len(o.display) {
		return nil
	}
	return &o.display[i]
}

func (o *displayOrder) items() []Item {
	return copyItems(o.display)
}

// indexOf locates an item id in the display order, -1 when absent.
func (o *displayOrder) indexOf(id string) int {
	for i := range o.display {
		if o.display[i].ID == id {
			return i
		}
	}
	return -1
}

// setCanonical installs a fresh canonical snapshot. Unshuffled, the display
// order follows it exactly. Shuffled, the existing permutation is kept for
// surviving items and newly inserted items are appended at the end.
func (o *displayOrder) setCanonical(items []Item) {
	o.canonical = copyItems(items)

	if !o.shuffled {
		o.display = copyItems(items)
		return
	}

	present := make(map[string]Item, len(items))
	for _, it := range items {
		present[it.ID] = it
	}

	kept := make([]Item, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, it := range o.display {
		if fresh, ok := present[it.ID]; ok {
			kept = append(kept, fresh)
			seen[it.ID] = true
		}
	}
	for _, it := range items {
		if !seen[it.ID] {
			kept = append(kept, it)
		}
	}
	o.display = kept
}

// shuffle turns on shuffle mode with a newly generated permutation.
func (o *displayOrder) shuffle(rng *rand.Rand) {
	o.shuffled = true
	o.display = copyItems(o.canonical)
	rng.Shuffle(len(o.display), func(i, j int) {
		o.display[i], o.display[j] = o.display[j], o.display[i]
	})
}

// unshuffle restores the canonical order.
func (o *displayOrder) unshuffle() {
	o.shuffled = false
	o.display = copyItems(o.canonical)
}

// remove drops an item id from both orders. Returns the display position it
// held, or -1 if it was not present.
func (o *displayOrder) remove(id string) int {
	pos := o.indexOf(id)
	if pos >= 0 {
		o.display = append(o.display[:pos], o.display[pos+1:]...)
	}
	for i := range o.canonical {
		if o.canonical[i].ID == id {
			o.canonical = append(o.canonical[:i], o.canonical[i+1:]...)
			break
		}
	}
	return pos
}
