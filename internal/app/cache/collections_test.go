package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/cantio/internal/domain/track"
)

func ids(tracks []track.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.VideoID
	}
	return out
}

func TestPlaylists(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	p, err := m.CreatePlaylist(ctx, "Road Trip")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(p.ID, "pl_"+strconv.FormatInt(baseTime.UnixMilli(), 10)+"_"))
	assert.Len(t, p.ID, len("pl_")+13+1+9)
	assert.Equal(t, baseTime.UnixMilli(), p.CreatedAt)

	t.Run("add is deduplicated", func(t *testing.T) {
		require.NoError(t, m.AddToPlaylist(ctx, p.ID, tr("x")))
		require.NoError(t, m.AddToPlaylist(ctx, p.ID, tr("x")))

		got, err := m.Playlist(p.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, ids(got.Tracks))
	})

	t.Run("newest first", func(t *testing.T) {
		require.NoError(t, m.AddToPlaylist(ctx, p.ID, tr("y")))
		got, _ := m.Playlist(p.ID)
		assert.Equal(t, []string{"y", "x"}, ids(got.Tracks))
	})

	t.Run("remove rename delete", func(t *testing.T) {
		require.NoError(t, m.RemoveFromPlaylist(ctx, p.ID, "x"))
		require.NoError(t, m.RenamePlaylist(ctx, p.ID, "Night Drive"))

		got, _ := m.Playlist(p.ID)
		assert.Equal(t, "Night Drive", got.Title)
		assert.Equal(t, []string{"y"}, ids(got.Tracks))

		require.NoError(t, m.DeletePlaylist(ctx, p.ID))
		assert.Empty(t, m.Playlists())
	})

	t.Run("unknown playlist", func(t *testing.T) {
		for name, err := range map[string]error{
			"add":    m.AddToPlaylist(ctx, "pl_missing", tr("x")),
			"remove": m.RemoveFromPlaylist(ctx, "pl_missing", "x"),
			"rename": m.RenamePlaylist(ctx, "pl_missing", "t"),
			"delete": m.DeletePlaylist(ctx, "pl_missing"),
		} {
			assert.True(t, errors.Is(err, ErrNotFound), name)
		}
		_, err := m.Playlist("pl_missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("empty title", func(t *testing.T) {
		_, err := m.CreatePlaylist(ctx, "  ")
		assert.True(t, errors.Is(err, ErrInvalidTitle))
	})

	t.Run("returned copies are detached", func(t *testing.T) {
		p2, err := m.CreatePlaylist(ctx, "Detached")
		require.NoError(t, err)
		require.NoError(t, m.AddToPlaylist(ctx, p2.ID, tr("a")))

		lists := m.Playlists()
		lists[0].Tracks[0].VideoID = "mutated"
		got, _ := m.Playlist(p2.ID)
		assert.Equal(t, "a", got.Tracks[0].VideoID)
	})
}

func TestLikes_Idempotent(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	m.LikeSong(ctx, tr("a"))
	once := m.LikedSongs()
	m.LikeSong(ctx, tr("a"))
	assert.Equal(t, once, m.LikedSongs())

	m.UnlikeSong(ctx, "missing")
	assert.Equal(t, once, m.LikedSongs())

	m.UnlikeSong(ctx, "a")
	assert.False(t, m.IsLiked("a"))

	m.SetLiked(ctx, []track.Track{tr("b"), tr("c"), tr("b")})
	assert.Equal(t, []string{"b", "c"}, ids(m.LikedSongs()))
}

func TestQueue(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	for _, id := range []string{"a", "b", "c", "d"} {
		m.AddToQueue(ctx, tr(id))
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(m.Queue()))

	m.RemoveFromQueue(ctx, 10)
	m.RemoveFromQueue(ctx, -1)
	assert.Len(t, m.Queue(), 4, "out of range removal is a no-op")

	m.RemoveFromQueue(ctx, 1)
	assert.Equal(t, []string{"a", "c", "d"}, ids(m.Queue()))

	require.NoError(t, m.ReorderQueue(ctx, 0, 2))
	assert.Equal(t, []string{"c", "d", "a"}, ids(m.Queue()))
	require.NoError(t, m.ReorderQueue(ctx, 2, 0))
	assert.Equal(t, []string{"a", "c", "d"}, ids(m.Queue()))

	err := m.ReorderQueue(ctx, 0, 3)
	assert.True(t, errors.Is(err, ErrInvalidIndex))
	assert.Equal(t, []string{"a", "c", "d"}, ids(m.Queue()))

	m.PrependToQueue(ctx, tr("z"))
	assert.Equal(t, []string{"z", "a", "c", "d"}, ids(m.Queue()))

	m.AddToQueue(ctx, tr("a"))
	assert.True(t, m.RemoveFirstFromQueue(ctx, "a"))
	assert.Equal(t, []string{"z", "c", "d", "a"}, ids(m.Queue()), "only the first occurrence is removed")
	assert.False(t, m.RemoveFirstFromQueue(ctx, "missing"))

	q := m.Queue()
	q[0].VideoID = "mutated"
	assert.Equal(t, "z", m.Queue()[0].VideoID)

	m.ClearQueue(ctx)
	assert.Empty(t, m.Queue())
}

func TestReverseQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("lifo with duplicate top suppression", func(t *testing.T) {
		m, _, _ := newTestManager(t)
		m.PushToReverseQueue(ctx, tr("a"))
		m.PushToReverseQueue(ctx, tr("b"))
		m.PushToReverseQueue(ctx, tr("b"))
		m.PushToReverseQueue(ctx, tr("a"))
		assert.Equal(t, []string{"a", "b", "a"}, ids(m.ReverseQueue()))

		top, ok := m.PopFromReverseQueue(ctx)
		require.True(t, ok)
		assert.Equal(t, "a", top.VideoID)
		top, ok = m.PopFromReverseQueue(ctx)
		require.True(t, ok)
		assert.Equal(t, "b", top.VideoID)
	})

	t.Run("pop on empty", func(t *testing.T) {
		m, _, _ := newTestManager(t)
		_, ok := m.PopFromReverseQueue(ctx)
		assert.False(t, ok)
	})

	t.Run("bounded with oldest evicted", func(t *testing.T) {
		m, _, _ := newTestManager(t)
		for i := 0; i < 150; i++ {
			m.PushToReverseQueue(ctx, tr(strconv.Itoa(i)))
		}
		rq := m.ReverseQueue()
		require.Len(t, rq, MaxReverseQueue)
		for i := 0; i < 50; i++ {
			assert.False(t, track.Contains(rq, strconv.Itoa(i)), "track %d should be evicted", i)
		}
		for i := 50; i < 150; i++ {
			assert.True(t, track.Contains(rq, strconv.Itoa(i)), "track %d should be kept", i)
		}
		top, _ := m.PopFromReverseQueue(ctx)
		assert.Equal(t, "149", top.VideoID)
	})

	t.Run("snapshot copy", func(t *testing.T) {
		m, _, _ := newTestManager(t)
		m.PushToReverseQueue(ctx, tr("a"))
		rq := m.ReverseQueue()
		rq[0].VideoID = "mutated"
		rq = append(rq, tr("extra"))
		assert.Equal(t, []string{"a"}, ids(m.ReverseQueue()))
		assert.Len(t, rq, 2)
	})

	t.Run("set from newest first history", func(t *testing.T) {
		m, _, _ := newTestManager(t)
		m.SetReverseQueue(ctx, []track.Track{tr("c"), tr("b"), tr("b"), tr("a")})
		assert.Equal(t, []string{"a", "b", "c"}, ids(m.ReverseQueue()))
		top, _ := m.PopFromReverseQueue(ctx)
		assert.Equal(t, "c", top.VideoID)

		m.ClearReverseQueue(ctx)
		assert.Empty(t, m.ReverseQueue())
	})
}

func TestDiscoveredTracks(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	m.MarkTrackAsPlayed(ctx, "played")
	m.AddDiscoveredTracks(ctx, []track.Track{tr("a"), tr("played"), tr("b"), tr("a")})
	assert.Equal(t, []string{"a", "b"}, ids(m.DiscoveredTracks()))

	m.AddDiscoveredTracks(ctx, []track.Track{tr("c"), tr("b")})
	assert.Equal(t, []string{"c", "a", "b"}, ids(m.DiscoveredTracks()), "new tracks are prepended")

	m.MarkTrackAsPlayed(ctx, "a")
	assert.Equal(t, []string{"c", "b"}, ids(m.DiscoveredTracks()))

	batch := make([]track.Track, 0, 60)
	for i := 0; i < 60; i++ {
		batch = append(batch, tr("n"+strconv.Itoa(i)))
	}
	m.AddDiscoveredTracks(ctx, batch)
	got := m.DiscoveredTracks()
	assert.Len(t, got, MaxDiscovered)
	assert.Equal(t, "n0", got[0].VideoID)
}

func TestPlayedVideoIDs_Bounded(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	for i := 0; i < MaxPlayedIDs+20; i++ {
		m.MarkTrackAsPlayed(ctx, strconv.Itoa(i))
	}
	m.MarkTrackAsPlayed(ctx, strconv.Itoa(MaxPlayedIDs+19))

	played := m.PlayedVideoIDs()
	require.Len(t, played, MaxPlayedIDs)
	assert.Equal(t, "20", played[0])
	assert.Equal(t, strconv.Itoa(MaxPlayedIDs+19), played[len(played)-1])
}

func TestLyrics(t *testing.T) {
	ctx := context.Background()
	m, _, clk := newTestManager(t)

	assert.Equal(t, "queen - bohemian rhapsody", LyricsKey("Bohemian Rhapsody", "Queen"))

	m.SetLyrics(ctx, "Bohemian Rhapsody", "Queen", json.RawMessage(`{"lines":["Is this the real life?"]}`))
	data, ok := m.GetLyrics(ctx, "bohemian rhapsody", "QUEEN")
	require.True(t, ok)
	assert.JSONEq(t, `{"lines":["Is this the real life?"]}`, string(data))

	clk.Advance(LyricsTTL + time.Minute)
	_, ok = m.GetLyrics(ctx, "Bohemian Rhapsody", "Queen")
	assert.False(t, ok, "expired lyrics are dropped")
	assert.Empty(t, m.Export().Lyrics)
}

func TestLyrics_Bounded(t *testing.T) {
	ctx := context.Background()
	m, _, clk := newTestManager(t)

	for i := 0; i < MaxLyrics+5; i++ {
		m.SetLyrics(ctx, "song "+strconv.Itoa(i), "artist", json.RawMessage(`{}`))
		clk.Advance(time.Second)
	}

	lyrics := m.Export().Lyrics
	assert.Len(t, lyrics, MaxLyrics)
	for i := 0; i < 5; i++ {
		assert.NotContains(t, lyrics, LyricsKey("song "+strconv.Itoa(i), "artist"))
	}
	assert.Contains(t, lyrics, LyricsKey("song "+strconv.Itoa(MaxLyrics+4), "artist"))
}

func TestSearchLocal(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	m.LikeSong(ctx, track.Track{VideoID: "1", Title: "Bohemian Rhapsody", Artist: "Queen"})
	m.AddToQueue(ctx, track.Track{VideoID: "2", Title: "Under Pressure", Artist: "Queen"})
	m.AddDiscoveredTracks(ctx, []track.Track{{VideoID: "3", Title: "Heroes", Artist: "David Bowie"}})
	m.PushToReverseQueue(ctx, track.Track{VideoID: "1", Title: "Bohemian Rhapsody", Artist: "Queen"})

	got := m.SearchLocal("queen", 0)
	assert.ElementsMatch(t, []string{"1", "2"}, ids(got), "duplicates across collections are collapsed")

	got = m.SearchLocal("Heroes", 10)
	assert.Equal(t, []string{"3"}, ids(got))

	assert.Len(t, m.SearchLocal("queen", 1), 1)
	assert.Empty(t, m.SearchLocal("   ", 10))
	assert.Empty(t, m.SearchLocal("zzzz", 10))
}
