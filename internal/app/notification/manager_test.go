package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/cantio/internal/app/playback"
)

type recorder struct {
	mu    sync.Mutex
	got   []*Notification
	fail  bool
	block chan struct{}
}

func (r *recorder) Send(n *Notification) error {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("stream closed")
	}
	r.got = append(r.got, n)
	return nil
}

func (r *recorder) received() []*Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Notification{}, r.got...)
}

func TestManager_BroadcastSequencesAndFansOut(t *testing.T) {
	m := NewManager()
	a, b := &recorder{}, &recorder{}
	m.Subscribe(a)
	idB := m.Subscribe(b)
	assert.Equal(t, 2, m.SubscriberCount())

	m.Broadcast(&Notification{Type: "state_changed"})
	m.Unsubscribe(idB)
	m.Broadcast(&Notification{Type: "progress"})

	require.Len(t, a.received(), 2)
	assert.Equal(t, uint64(1), a.received()[0].SequenceNo)
	assert.Equal(t, uint64(2), a.received()[1].SequenceNo)
	require.Len(t, b.received(), 1)
	assert.Equal(t, "state_changed", b.received()[0].Type)
}

func TestManager_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	slow := &recorder{block: make(chan struct{})}
	defer close(slow.block)
	fast := &recorder{}
	m.Subscribe(slow)
	m.Subscribe(fast)

	start := time.Now()
	m.Broadcast(&Notification{Type: "track_changed"})
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, fast.received(), 1)
}

func TestManager_SendErrorIsIgnored(t *testing.T) {
	m := NewManager()
	m.Subscribe(&recorder{fail: true})
	ok := &recorder{}
	m.Subscribe(ok)

	m.Broadcast(&Notification{Type: "error"})
	assert.Len(t, ok.received(), 1)
}

func TestManager_Forward(t *testing.T) {
	m := NewManager()
	r := &recorder{}
	m.Subscribe(r)

	events := make(chan playback.Event, 2)
	events <- playback.Event{Type: playback.EventTrackChanged, Snapshot: playback.Snapshot{State: playback.StateLoading}}
	events <- playback.Event{Type: playback.EventStateChanged, Snapshot: playback.Snapshot{State: playback.StatePlaying}}
	close(events)

	m.Forward(context.Background(), events)

	got := r.received()
	require.Len(t, got, 2)
	assert.Equal(t, "track_changed", got[0].Type)
	assert.Equal(t, playback.StateLoading, got[0].State.State)
	assert.Equal(t, "state_changed", got[1].Type)
	assert.Equal(t, playback.StatePlaying, got[1].State.State)
}
