package runtime

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deckHarness struct {
	deck     *Deck
	released []*Broadcast
	stats    []DeckStats
}

func newDeckHarness(t *testing.T) *deckHarness {
	t.Helper()
	h := &deckHarness{}
	h.deck = NewDeck("deck-1",
		func(b *Broadcast) { h.released = append(h.released, b) },
		func(s DeckStats) { h.stats = append(h.stats, s) },
	)
	return h
}

func notificationN(i int) *Broadcast {
	return NewNotificationBroadcast(&NotificationPayload{ID: fmt.Sprintf("n%d", i)})
}

func TestDeckRunningAdmitsDirectly(t *testing.T) {
	h := newDeckHarness(t)

	assert.True(t, h.deck.Admit(notificationN(1)))
	assert.Empty(t, h.released)
	assert.Equal(t, 0, h.deck.Stats().Buffered)
}

func TestDeckPauseBuffersThenResumeReplaysInOrder(t *testing.T) {
	h := newDeckHarness(t)

	h.deck.Pause()
	assert.True(t, h.deck.Paused())

	for i := 1; i <= 3; i++ {
		assert.False(t, h.deck.Admit(notificationN(i)))
	}
	assert.Equal(t, 3, h.deck.Stats().Buffered)
	assert.Empty(t, h.released)

	h.deck.Resume()
	assert.False(t, h.deck.Paused())
	require.Len(t, h.released, 3)
	assert.Equal(t, "n1", h.released[0].Notification.ID)
	assert.Equal(t, "n2", h.released[1].Notification.ID)
	assert.Equal(t, "n3", h.released[2].Notification.ID)
	assert.Equal(t, uint64(3), h.deck.Stats().Resumed)
}

func TestDeckStepReleasesExactlyOne(t *testing.T) {
	h := newDeckHarness(t)
	h.deck.Pause()
	h.deck.Admit(notificationN(1))
	h.deck.Admit(notificationN(2))

	h.deck.Step()

	assert.True(t, h.deck.Paused())
	require.Len(t, h.released, 1)
	assert.Equal(t, "n1", h.released[0].Notification.ID)
	assert.Equal(t, 1, h.deck.Stats().Buffered)
	assert.Equal(t, uint64(1), h.deck.Stats().Stepped)
}

func TestDeckSkipDiscardsExactlyOne(t *testing.T) {
	h := newDeckHarness(t)
	h.deck.Pause()
	h.deck.Admit(notificationN(1))
	h.deck.Admit(notificationN(2))

	h.deck.Skip()

	assert.Empty(t, h.released)
	assert.Equal(t, 1, h.deck.Stats().Buffered)
	assert.Equal(t, uint64(1), h.deck.Stats().Skipped)

	// The skipped one is gone; the survivor is n2.
	h.deck.Step()
	require.Len(t, h.released, 1)
	assert.Equal(t, "n2", h.released[0].Notification.ID)
}

func TestDeckClearDiscardsEverything(t *testing.T) {
	h := newDeckHarness(t)
	h.deck.Pause()
	for i := 1; i <= 4; i++ {
		h.deck.Admit(notificationN(i))
	}

	h.deck.Clear()

	assert.Empty(t, h.released)
	assert.Equal(t, 0, h.deck.Stats().Buffered)
	assert.Equal(t, uint64(4), h.deck.Stats().Skipped)
	assert.True(t, h.deck.Paused(), "clear must not change run-state")
}

func TestDeckClearWhileRunning(t *testing.T) {
	h := newDeckHarness(t)
	h.deck.Clear()
	assert.False(t, h.deck.Paused())
}

func TestDeckStepSkipWhileRunningAreNoOps(t *testing.T) {
	h := newDeckHarness(t)
	h.deck.Step()
	h.deck.Skip()
	assert.Empty(t, h.released)
	assert.Equal(t, uint64(0), h.deck.Stats().Stepped)
	assert.Equal(t, uint64(0), h.deck.Stats().Skipped)
}

func TestDeckHandleCommand(t *testing.T) {
	tests := []struct {
		command string
		wantErr string
	}{
		{"pause", ""},
		{"resume", ""},
		{"step", ""},
		{"skip", ""},
		{"clear", ""},
		{"inspect", "Not implemented."},
		{"bogus", "Unexpected command."},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			h := newDeckHarness(t)
			assert.Equal(t, tt.wantErr, h.deck.HandleCommand(tt.command))
		})
	}
}

func TestDeckInspectNeverChangesState(t *testing.T) {
	h := newDeckHarness(t)
	h.deck.Pause()
	h.deck.Admit(notificationN(1))

	assert.Equal(t, errorNotImplemented, h.deck.HandleCommand("inspect"))

	assert.True(t, h.deck.Paused())
	assert.Equal(t, 1, h.deck.Stats().Buffered)
	assert.Empty(t, h.released)
}

func TestDeckStatsStream(t *testing.T) {
	h := newDeckHarness(t)

	h.deck.Pause()
	h.deck.Admit(notificationN(1))
	h.deck.Resume()

	// pause, admit and resume each publish updated stats.
	require.Len(t, h.stats, 3)
	assert.True(t, h.stats[0].Paused)
	assert.Equal(t, 1, h.stats[1].Buffered)
	assert.False(t, h.stats[2].Paused)
	assert.Equal(t, uint64(1), h.stats[2].Resumed)
	for _, s := range h.stats {
		assert.Equal(t, "deck-1", s.ID)
	}
}

func TestDeckTeardownDropsBufferSilently(t *testing.T) {
	h := newDeckHarness(t)
	h.deck.Pause()
	h.deck.Admit(notificationN(1))
	statsBefore := len(h.stats)

	h.deck.Teardown()

	assert.Equal(t, 0, h.deck.Stats().Buffered)
	assert.Empty(t, h.released)
	assert.Equal(t, statsBefore, len(h.stats), "teardown must not publish stats")
}
