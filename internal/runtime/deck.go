package runtime

import "github.com/eapache/queue"

// DeckStats is the pollable status of one deck, relayed to the viewer as
// deck-stats broadcasts.
type DeckStats struct {
	ID       string `json:"id"`
	Paused   bool   `json:"paused"`
	Buffered int    `json:"buffered"`
	Resumed  uint64 `json:"resumed"`
	Skipped  uint64 `json:"skipped"`
	Stepped  uint64 `json:"stepped"`
}

// Deck is the pause/step controller for one pause plugin instance. While
// paused it withholds notification broadcasts in arrival order; resume,
// step and skip release or discard them one batch or one at a time. The
// deck never blocks the producing source, only the instrumentation flow.
//
// Initial state is running. A deck is destroyed only by tearing down its
// plugin.
type Deck struct {
	id     string
	paused bool
	buffer *queue.Queue

	resumed uint64
	skipped uint64
	stepped uint64

	// onRelease delivers a withheld broadcast downstream.
	onRelease func(*Broadcast)
	// onStats relays updated stats after every transition and every
	// admitted or discarded notification.
	onStats func(DeckStats)
}

// NewDeck creates a running deck. Both callbacks are required; pass no-op
// funcs to ignore either stream.
func NewDeck(id string, onRelease func(*Broadcast), onStats func(DeckStats)) *Deck {
	return &Deck{
		id:        id,
		buffer:    queue.New(),
		onRelease: onRelease,
		onStats:   onStats,
	}
}

// ID returns the deck id, which doubles as its plugin id.
func (d *Deck) ID() string {
	return d.id
}

// Paused reports the current run-state.
func (d *Deck) Paused() bool {
	return d.paused
}

// Stats returns the current counters.
func (d *Deck) Stats() DeckStats {
	return DeckStats{
		ID:       d.id,
		Paused:   d.paused,
		Buffered: d.buffer.Length(),
		Resumed:  d.resumed,
		Skipped:  d.skipped,
		Stepped:  d.stepped,
	}
}

func (d *Deck) publishStats() {
	d.onStats(d.Stats())
}

// Admit gates one notification broadcast. Running decks pass it through
// untouched (returning true); paused decks buffer it and return false.
func (d *Deck) Admit(b *Broadcast) bool {
	if !d.paused {
		return true
	}
	d.buffer.Add(b)
	d.publishStats()
	return false
}

// Pause switches to paused. A no-op when already paused.
func (d *Deck) Pause() {
	if d.paused {
		return
	}
	d.paused = true
	d.publishStats()
}

// Resume switches to running and flushes the buffer in arrival order.
func (d *Deck) Resume() {
	d.paused = false
	for d.buffer.Length() > 0 {
		b := d.buffer.Remove().(*Broadcast)
		d.resumed++
		d.onRelease(b)
	}
	d.publishStats()
}

// Step releases exactly the next buffered broadcast while staying paused.
// A no-op when running or when the buffer is empty.
func (d *Deck) Step() {
	if !d.paused || d.buffer.Length() == 0 {
		d.publishStats()
		return
	}
	b := d.buffer.Remove().(*Broadcast)
	d.stepped++
	d.onRelease(b)
	d.publishStats()
}

// Skip discards exactly the next buffered broadcast without delivering it.
// A no-op when running or when the buffer is empty.
func (d *Deck) Skip() {
	if !d.paused || d.buffer.Length() == 0 {
		d.publishStats()
		return
	}
	d.buffer.Remove()
	d.skipped++
	d.publishStats()
}

// Clear discards the entire buffer without delivering any of it. Valid in
// either run-state; the run-state is unchanged.
func (d *Deck) Clear() {
	skipped := d.buffer.Length()
	d.buffer = queue.New()
	d.skipped += uint64(skipped)
	d.publishStats()
}

// Teardown discards the buffer without delivering it and without emitting a
// stats update; the deck is dying with its plugin.
func (d *Deck) Teardown() {
	d.buffer = queue.New()
}

// HandleCommand dispatches one deck command. It returns the response-level
// error string for unsupported commands and "" on success; deck state never
// changes on an error.
func (d *Deck) HandleCommand(command string) string {
	switch command {
	case "pause":
		d.Pause()
	case "resume":
		d.Resume()
	case "step":
		d.Step()
	case "skip":
		d.Skip()
	case "clear":
		d.Clear()
	case "inspect":
		return errorNotImplemented
	default:
		return errorUnexpectedCommand
	}
	return ""
}
