package playback

import (
	"errors"
	"log"
	"sync"
	"time"
)

// ErrNoVideoData is returned by a Player when a control call races the
// player's own media setup (constructed but nothing loaded yet). The gate
// retries these; anything else is a real failure.
var ErrNoVideoData = errors.New("player has no media data yet")

// Player is the capability surface of the external media runtime. It becomes
// usable asynchronously: control calls before the Ready channel closes are
// the caller's bug, which the gate prevents.
type Player interface {
	// LoadItem loads the media identified by mediaID. autoplay false leaves
	// the item paused after load.
	LoadItem(mediaID string, autoplay bool) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(v float64) error
	Mute() error
	Unmute() error
	CurrentTime() (float64, error)
	Duration() (float64, error)

	// Ready is closed once the runtime is constructed and controllable.
	Ready() <-chan struct{}
	// Errors delivers asynchronous playback failures from the runtime.
	Errors() <-chan error
	// Close tears the runtime down. Idempotent.
	Close() error
}

const (
	loadRetryDelay    = 300 * time.Millisecond
	loadRetryAttempts = 3
)

// playerGate wraps a Player with the readiness and autoplay rules:
//   - loads requested before readiness are held as a single pending request,
//     latest wins, and replayed once ready;
//   - transient no-data load failures are retried a bounded number of times,
//     then abandoned with a log line (the user can pick another item);
//   - the first load of a session never autoplays, later loads autoplay once
//     the session is interacted.
type playerGate struct {
	p Player

	mu         sync.Mutex
	pending    string
	hasPending bool

	retryDelay time.Duration
	attempts   int
}

func newPlayerGate(p Player) *playerGate {
	return &playerGate{
		p:          p,
		retryDelay: loadRetryDelay,
		attempts:   loadRetryAttempts,
	}
}

func (g *playerGate) ready() bool {
	select {
	case <-g.p.Ready():
		return true
	default:
		return false
	}
}

// requestLoad asks the player to load mediaID, honoring readiness and the
// autoplay rule. Pre-readiness requests supersede each other instead of
// queueing. The request is stored before readiness is checked: the ready
// channel is level-triggered, so whichever of this call and the readiness
// replay observes the stored request last will issue it, and a request can
// never be stranded between the two.
func (g *playerGate) requestLoad(mediaID string, autoplay bool) {
	g.mu.Lock()
	g.pending = mediaID
	g.hasPending = true
	g.mu.Unlock()

	if g.ready() {
		g.replayPending(autoplay)
	}
}

// replayPending issues the held load request, if any. Called once when the
// player signals ready.
func (g *playerGate) replayPending(autoplay bool) {
	g.mu.Lock()
	mediaID, ok := g.pending, g.hasPending
	g.pending, g.hasPending = "", false
	g.mu.Unlock()
	if ok {
		g.loadWithRetry(mediaID, autoplay)
	}
}

func (g *playerGate) loadWithRetry(mediaID string, autoplay bool) {
	for attempt := 0; attempt < g.attempts; attempt++ {
		err := g.p.LoadItem(mediaID, autoplay)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrNoVideoData) {
			log.Printf("playback: load %s: %v", mediaID, err)
			return
		}
		time.Sleep(g.retryDelay)
	}
	// Non-fatal: give up silently beyond the log line.
	log.Printf("playback: load %s: no media data after %d attempts", mediaID, g.attempts)
}
