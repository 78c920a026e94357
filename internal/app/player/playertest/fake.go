// Package playertest provides a scriptable player.Adapter for tests.
package playertest

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/osa030/cantio/internal/app/player"
)

// Call is one recorded adapter command.
type Call struct {
	Name    string
	VideoID string
	Value   float64
}

// Fake records every command and lets the test push events.
type Fake struct {
	mu       sync.Mutex
	calls    []Call
	state    player.State
	time     float64
	duration float64
	volume   float64
	events   chan player.Event
	closed   bool

	// AutoReady emits EventReady from Start.
	AutoReady bool
	// LoadErr, when set, is returned by Load.
	LoadErr error
	// PlayErr, when set, is returned by Play.
	PlayErr error
	// OnPlay runs after every Play command, with the lock released.
	OnPlay func(f *Fake)
}

// New creates a fake whose Start emits ready.
func New() *Fake {
	return &Fake{
		events:    make(chan player.Event, 64),
		AutoReady: true,
		volume:    1,
	}
}

func (f *Fake) record(c Call) {
	f.calls = append(f.calls, c)
}

// Start implements player.Adapter.
func (f *Fake) Start(context.Context) error {
	f.mu.Lock()
	f.record(Call{Name: "start"})
	ready := f.AutoReady
	f.mu.Unlock()
	if ready {
		f.Emit(player.Ready())
	}
	return nil
}

// Events implements player.Adapter.
func (f *Fake) Events() <-chan player.Event {
	return f.events
}

// Emit pushes an event to the consumer.
func (f *Fake) Emit(e player.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	switch e.Type {
	case player.EventPlaying:
		f.state = player.StatePlaying
	case player.EventPaused:
		f.state = player.StatePaused
	case player.EventBuffering:
		f.state = player.StateBuffering
	case player.EventEnded:
		f.state = player.StateEnded
	}
	f.events <- e
}

// Load implements player.Adapter.
func (f *Fake) Load(_ context.Context, videoID string, start float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Name: "load", VideoID: videoID, Value: start})
	if f.LoadErr != nil {
		return f.LoadErr
	}
	f.time = start
	f.state = player.StateBuffering
	return nil
}

// Play implements player.Adapter.
func (f *Fake) Play(context.Context) error {
	f.mu.Lock()
	f.record(Call{Name: "play"})
	err := f.PlayErr
	hook := f.OnPlay
	f.mu.Unlock()
	if hook != nil {
		hook(f)
	}
	return err
}

// Pause implements player.Adapter.
func (f *Fake) Pause(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Name: "pause"})
	return nil
}

// Stop implements player.Adapter.
func (f *Fake) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Name: "stop"})
	f.state = player.StateUnstarted
	f.time = 0
	return nil
}

// Seek implements player.Adapter.
func (f *Fake) Seek(_ context.Context, seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Name: "seek", Value: seconds})
	f.time = seconds
	return nil
}

// SetVolume implements player.Adapter.
func (f *Fake) SetVolume(_ context.Context, level float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record(Call{Name: "volume", Value: level})
	f.volume = level
	return nil
}

// CurrentTime implements player.Adapter.
func (f *Fake) CurrentTime(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.time, nil
}

// Duration implements player.Adapter.
func (f *Fake) Duration(context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration, nil
}

// PlayerState implements player.Adapter.
func (f *Fake) PlayerState(context.Context) (player.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return player.StateUnstarted, errors.WithStack(player.ErrClosed)
	}
	return f.state, nil
}

// Close implements player.Adapter.
func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

// SetTime sets the reported playback position.
func (f *Fake) SetTime(seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.time = seconds
}

// SetDuration sets the reported media duration.
func (f *Fake) SetDuration(seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duration = seconds
}

// SetState sets the reported player state without emitting an event.
func (f *Fake) SetState(s player.State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

// Calls returns a copy of the recorded commands.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many times the named command was issued.
func (f *Fake) Count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// Loaded returns the video IDs passed to Load, in order.
func (f *Fake) Loaded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Name == "load" {
			out = append(out, c.VideoID)
		}
	}
	return out
}

// Reset forgets the recorded commands.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}
