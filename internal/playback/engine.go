package playback

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Feed delivers remote change notifications for one event. Closing the feed
// closes the Notifications channel.
type Feed interface {
	Notifications() <-chan Notification
	Close() error
}

// Status is the engine's lifecycle state as shown to the projections.
type Status int

const (
	// StatusEmpty: no items to play.
	StatusEmpty Status = iota
	// StatusIdle: items present, external player not ready yet.
	StatusIdle
	// StatusReady: player ready, nothing started by the user yet.
	StatusReady
	// StatusPlaying: an item is playing.
	StatusPlaying
	// StatusPaused: playback engaged earlier, currently paused.
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusIdle:
		return "idle"
	case StatusReady:
		return "ready"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "unknown"
	}
}

// State is the single snapshot struct the mini and full projections render
// from. Everything a view needs is here; views issue commands back through
// the Engine methods.
type State struct {
	EventID         string
	Status          Status
	Items           []Item
	Index           int
	Current         *Item
	Shuffle         bool
	Repeat          bool
	Interacted      bool
	IsPlaying       bool
	ProgressSeconds float64
	DurationSeconds float64
	Volume          float64
	Muted           bool
	FetchErr        error
}

// Options tune the engine; zero values select the defaults.
type Options struct {
	// TickInterval drives both the end-of-item detector and the progress
	// mirror. Default one second.
	TickInterval time.Duration
	// ErrorAdvanceDelay is the pause before skipping an item the runtime
	// failed to play. Default two seconds.
	ErrorAdvanceDelay time.Duration
	// SnapshotTTL bounds snapshot freshness in the list cache.
	SnapshotTTL time.Duration
}

// Engine owns the playback state for one event view: the reconciled list
// snapshot, the position tracker, and the gated player. It is rebuilt from
// scratch when the event changes; Close tears down tickers, feed and player
// together.
type Engine struct {
	eventID string
	cache   *SnapshotCache
	feed    Feed
	player  Player
	gate    *playerGate

	tick       time.Duration
	errorDelay time.Duration

	mu       sync.Mutex
	tracker  *Tracker
	playing  bool
	progress float64
	duration float64
	volume   float64
	muted    bool
	fetchErr error

	closeOnce sync.Once
	closed    chan struct{}
	done      chan struct{}
}

// NewEngine builds an engine for one event over a list source, a change
// feed, and a player.
func NewEngine(eventID string, src Source, feed Feed, player Player, opts Options) *Engine {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.ErrorAdvanceDelay <= 0 {
		opts.ErrorAdvanceDelay = 2 * time.Second
	}
	return &Engine{
		eventID:    eventID,
		cache:      NewSnapshotCache(src, opts.SnapshotTTL),
		feed:       feed,
		player:     player,
		gate:       newPlayerGate(player),
		tick:       opts.TickInterval,
		errorDelay: opts.ErrorAdvanceDelay,
		tracker:    NewTracker(),
		volume:     1.0,
		closed:     make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run drives the engine until ctx is cancelled or Close is called. Errors
// inside the loop are logged, never returned: nothing in the engine is fatal
// to the session.
func (e *Engine) Run(ctx context.Context) {
	defer close(e.done)

	// Initial silent load: cue the first item without autoplay.
	e.Refresh(ctx)
	e.mu.Lock()
	if cur := e.tracker.Current(); cur != nil {
		e.gate.requestLoad(cur.VideoID, false)
	}
	e.mu.Unlock()

	advance := time.NewTicker(e.tick)
	defer advance.Stop()
	mirror := time.NewTicker(e.tick)
	defer mirror.Stop()

	readyCh := e.player.Ready()
	feedCh := e.feed.Notifications()
	errCh := e.player.Errors()
	var errAdvance <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.closed:
			return

		case <-readyCh:
			readyCh = nil // fires once
			e.mu.Lock()
			autoplay := e.tracker.Interacted()
			e.mu.Unlock()
			e.gate.replayPending(autoplay)

		case n, ok := <-feedCh:
			if !ok {
				feedCh = nil
				continue
			}
			e.handleNotification(ctx, n)

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			log.Printf("playback: player error, skipping item shortly: %v", err)
			errAdvance = time.After(e.errorDelay)

		case <-errAdvance:
			errAdvance = nil
			e.NextItem()

		case <-advance.C:
			e.advanceTick()

		case <-mirror.C:
			e.mirrorTick()
		}
	}
}

// Close synchronously detaches the engine: the run loop stops, the feed is
// unsubscribed, and the player instance is destroyed. Safe to call more than
// once.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		close(e.closed)
		if err := e.feed.Close(); err != nil {
			log.Printf("playback: close feed: %v", err)
		}
		if err := e.player.Close(); err != nil {
			log.Printf("playback: close player: %v", err)
		}
	})
}

// Done closes when the run loop has exited.
func (e *Engine) Done() <-chan struct{} { return e.done }

// Refresh fetches the canonical list and reconciles the position. This is
// also the manual retry path after a fetch failure.
func (e *Engine) Refresh(ctx context.Context) {
	items, err := e.cache.Load(ctx, e.eventID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.fetchErr = err
		log.Printf("playback: refresh: %v", err)
		return
	}
	e.fetchErr = nil
	e.tracker.SetItems(items)
}

// handleNotification applies one remote change: invalidate, refetch, and
// reconcile. A failed refetch after a delete still reconciles locally so the
// position does not point at a ghost item.
func (e *Engine) handleNotification(ctx context.Context, n Notification) {
	switch n.Kind {
	case KindInsert, KindDelete:
	default:
		log.Printf("playback: unknown notification kind %d", n.Kind)
		return
	}

	e.mu.Lock()
	var beforeID string
	if cur := e.tracker.Current(); cur != nil {
		beforeID = cur.ID
	}
	wasEmpty := e.tracker.Empty()
	e.mu.Unlock()

	e.cache.Invalidate(e.eventID)
	items, err := e.cache.Load(ctx, e.eventID)

	e.mu.Lock()
	if err != nil {
		e.fetchErr = err
		log.Printf("playback: notification refetch: %v", err)
		if n.Kind == KindDelete {
			e.tracker.RemoveItem(n.ItemID)
		}
	} else {
		e.fetchErr = nil
		e.tracker.SetItems(items)
	}

	cur := e.tracker.Current()
	empties := e.tracker.Empty()
	interacted := e.tracker.Interacted()
	var afterID, videoID string
	if cur != nil {
		afterID = cur.ID
		videoID = cur.VideoID
	}
	e.mu.Unlock()

	switch {
	case empties:
		// Everything was removed: stop and wait for items to reappear.
		e.pausePlayer()
	case wasEmpty:
		// First items of the session: cue silently.
		e.gate.requestLoad(videoID, false)
	case afterID != beforeID && beforeID != "":
		// The playing item vanished; move to the reconciled one.
		e.gate.requestLoad(videoID, interacted)
	}
}

// advanceTick is the 1 Hz end-of-item detector.
func (e *Engine) advanceTick() {
	e.mu.Lock()
	playing := e.playing
	index := e.tracker.Index()
	length := e.tracker.Len()
	repeat := e.tracker.Repeat()
	e.mu.Unlock()

	if !playing || !e.gate.ready() {
		return
	}

	current, err1 := e.player.CurrentTime()
	duration, err2 := e.player.Duration()
	if err1 != nil || err2 != nil {
		return
	}

	switch DecideAtTick(current, duration, index, length, repeat) {
	case DecisionAdvance:
		e.NextItem()
	case DecisionPause:
		e.pausePlayer()
		e.mu.Lock()
		e.playing = false
		e.mu.Unlock()
	}
}

// mirrorTick refreshes the progress fields from the player while playing.
func (e *Engine) mirrorTick() {
	e.mu.Lock()
	playing := e.playing
	e.mu.Unlock()
	if !playing || !e.gate.ready() {
		return
	}

	current, err1 := e.player.CurrentTime()
	duration, err2 := e.player.Duration()
	if err1 != nil || err2 != nil {
		return
	}

	e.mu.Lock()
	e.progress = current
	e.duration = duration
	e.mu.Unlock()
}

// Select jumps to display index i and loads that item. Out-of-range indexes
// clamp; selecting with no items is a no-op.
func (e *Engine) Select(i int) {
	e.mu.Lock()
	cur := e.tracker.Select(i)
	var videoID string
	if cur != nil {
		videoID = cur.VideoID
		e.playing = true
		e.progress = 0
	}
	e.mu.Unlock()

	if videoID != "" {
		e.gate.requestLoad(videoID, true)
	}
}

// NextItem skips forward (wrapping) and plays.
func (e *Engine) NextItem() {
	e.mu.Lock()
	cur := e.tracker.Next()
	var videoID string
	if cur != nil {
		videoID = cur.VideoID
		e.playing = true
		e.progress = 0
	}
	e.mu.Unlock()

	if videoID != "" {
		e.gate.requestLoad(videoID, true)
	}
}

// PreviousItem skips backward (wrapping) and plays.
func (e *Engine) PreviousItem() {
	e.mu.Lock()
	cur := e.tracker.Previous()
	var videoID string
	if cur != nil {
		videoID = cur.VideoID
		e.playing = true
		e.progress = 0
	}
	e.mu.Unlock()

	if videoID != "" {
		e.gate.requestLoad(videoID, true)
	}
}

// Play resumes playback of the current item.
func (e *Engine) Play() {
	e.mu.Lock()
	if e.tracker.Empty() {
		e.mu.Unlock()
		return
	}
	e.tracker.MarkInteracted()
	e.playing = true
	e.mu.Unlock()

	if e.gate.ready() {
		if err := e.player.Play(); err != nil {
			log.Printf("playback: play: %v", err)
		}
	}
}

// Pause suspends playback.
func (e *Engine) Pause() {
	e.mu.Lock()
	e.playing = false
	e.mu.Unlock()
	e.pausePlayer()
}

// SetShuffle toggles shuffle mode, relocating the current item in the new
// display order.
func (e *Engine) SetShuffle(on bool) {
	e.mu.Lock()
	e.tracker.SetShuffle(on)
	e.mu.Unlock()
}

// SetRepeat toggles repeat mode.
func (e *Engine) SetRepeat(on bool) {
	e.mu.Lock()
	e.tracker.SetRepeat(on)
	e.mu.Unlock()
}

// Seek moves the playhead of the current item.
func (e *Engine) Seek(seconds float64) {
	if !e.gate.ready() {
		return
	}
	if err := e.player.Seek(seconds); err != nil {
		log.Printf("playback: seek: %v", err)
	}
}

// SetVolume sets player volume, clamped to [0,1].
func (e *Engine) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	e.mu.Lock()
	e.volume = v
	e.mu.Unlock()

	if e.gate.ready() {
		if err := e.player.SetVolume(v); err != nil {
			log.Printf("playback: set volume: %v", err)
		}
	}
}

// ToggleMute flips the mute state.
func (e *Engine) ToggleMute() {
	e.mu.Lock()
	e.muted = !e.muted
	muted := e.muted
	e.mu.Unlock()

	if !e.gate.ready() {
		return
	}
	var err error
	if muted {
		err = e.player.Mute()
	} else {
		err = e.player.Unmute()
	}
	if err != nil {
		log.Printf("playback: toggle mute: %v", err)
	}
}

// State returns the current snapshot for the projections.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{
		EventID:         e.eventID,
		Items:           e.tracker.Items(),
		Index:           e.tracker.Index(),
		Shuffle:         e.tracker.Shuffled(),
		Repeat:          e.tracker.Repeat(),
		Interacted:      e.tracker.Interacted(),
		IsPlaying:       e.playing,
		ProgressSeconds: e.progress,
		DurationSeconds: e.duration,
		Volume:          e.volume,
		Muted:           e.muted,
		FetchErr:        e.fetchErr,
	}

	// Copy the current item out of the tracker: the tracker's backing array
	// keeps shifting under the engine mutex, and the snapshot must stay
	// readable without it.
	if cur := e.tracker.Current(); cur != nil {
		c := *cur
		st.Current = &c
	}

	switch {
	case e.tracker.Empty():
		st.Status = StatusEmpty
	case !e.gate.ready():
		st.Status = StatusIdle
	case e.playing:
		st.Status = StatusPlaying
	case e.tracker.Interacted():
		st.Status = StatusPaused
	default:
		st.Status = StatusReady
	}
	return st
}

func (e *Engine) pausePlayer() {
	if !e.gate.ready() {
		return
	}
	if err := e.player.Pause(); err != nil && !errors.Is(err, ErrNoVideoData) {
		log.Printf("playback: pause: %v", err)
	}
}
