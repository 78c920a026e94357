package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestGroup_RunsAndWaits(t *testing.T) {
	g := New()
	var n atomic.Int32

	for i := 0; i < 5; i++ {
		assert.True(t, g.Go("count", func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			n.Add(1)
			return nil
		}))
	}
	g.Go("fail", func(context.Context) error { return errors.New("remote down") })
	g.Go("panic", func(context.Context) error { panic("boom") })

	g.Close(context.Background())
	assert.Equal(t, int32(5), n.Load())
}

func TestGroup_RejectsAfterClose(t *testing.T) {
	g := New()
	g.Close(context.Background())

	ran := false
	assert.False(t, g.Go("late", func(context.Context) error {
		ran = true
		return nil
	}))
	assert.False(t, ran)
}

func TestGroup_CloseDeadlineCancelsTasks(t *testing.T) {
	g := New()
	cancelled := make(chan struct{})
	g.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	g.Close(ctx)

	select {
	case <-cancelled:
	default:
		t.Fatal("task context was not cancelled")
	}
}
