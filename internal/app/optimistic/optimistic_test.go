package optimistic

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	liked []string
}

func likeUpdate(c *counter, id string, commitErr error) Update[[]string] {
	return Update[[]string]{
		Name:     "like " + id,
		Snapshot: func() []string { return append([]string(nil), c.liked...) },
		Apply:    func(context.Context) { c.liked = append(c.liked, id) },
		Commit:   func(context.Context) error { return commitErr },
		Rollback: func(_ context.Context, snap []string) { c.liked = snap },
	}
}

func TestDo(t *testing.T) {
	tests := []struct {
		name      string
		commitErr error
		want      []string
	}{
		{"commit keeps change", nil, []string{"a", "b"}},
		{"failed commit rolls back", errors.New("remote down"), []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &counter{liked: []string{"a"}}
			err := Do(context.Background(), likeUpdate(c, "b", tt.commitErr))
			if tt.commitErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.commitErr))
				assert.Contains(t, err.Error(), "like b")
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, c.liked)
		})
	}
}

func TestDo_AppliesBeforeCommit(t *testing.T) {
	c := &counter{}
	u := likeUpdate(c, "x", nil)
	u.Commit = func(context.Context) error {
		assert.Equal(t, []string{"x"}, c.liked)
		return nil
	}
	require.NoError(t, Do(context.Background(), u))
}

func TestDo_RollbackSurvivesCancelledContext(t *testing.T) {
	c := &counter{}
	ctx, cancel := context.WithCancel(context.Background())
	u := likeUpdate(c, "x", nil)
	u.Commit = func(ctx context.Context) error {
		cancel()
		return ctx.Err()
	}
	u.Rollback = func(ctx context.Context, snap []string) {
		assert.NoError(t, ctx.Err())
		c.liked = snap
	}

	assert.Error(t, Do(ctx, u))
	assert.Empty(t, c.liked)
}

func TestDo_Incomplete(t *testing.T) {
	err := Do(context.Background(), Update[int]{Name: "broken"})
	assert.Error(t, err)
}
