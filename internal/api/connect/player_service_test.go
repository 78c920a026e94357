package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/cantio/internal/app/cache"
	"github.com/osa030/cantio/internal/app/notification"
	"github.com/osa030/cantio/internal/app/playback"
	"github.com/osa030/cantio/internal/app/player"
	"github.com/osa030/cantio/internal/app/player/playertest"
	"github.com/osa030/cantio/internal/app/remotesync"
	"github.com/osa030/cantio/internal/app/task"
	"github.com/osa030/cantio/internal/domain/track"
	"github.com/osa030/cantio/internal/infra/store"
)

type testEnv struct {
	client *PlayerServiceClient
	fake   *playertest.Fake
	lib    *cache.Manager
	ctrl   *playback.Controller
}

func newTestEnv(t *testing.T, serverToken, clientToken string) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	lib := cache.NewManager(store.NewMemory())
	lib.Init(ctx)

	tasks := task.New()
	bridge := remotesync.New(nil, lib, tasks, remotesync.Config{})

	fake := playertest.New()
	cfg := playback.DefaultConfig()
	cfg.InitTimeout = 200 * time.Millisecond
	ctrl := playback.NewController(fake, lib, cfg, playback.WithHistory(bridge))
	require.NoError(t, ctrl.Start(ctx))

	notif := notification.NewManager()
	go notif.Forward(ctx, ctrl.Events())

	done := make(chan struct{})
	svc := NewPlayerService(ctrl, lib, bridge, notif, done)
	path, handler := NewPlayerServiceHandler(svc, connect.WithInterceptors(NewControlTokenInterceptor(serverToken)))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		close(done)
		srv.Close()
		cancel()
		ctrl.Close()
		_ = fake.Close()
		tasks.Close(context.Background())
	})

	client := NewPlayerServiceClient(srv.Client(), srv.URL,
		connect.WithInterceptors(NewClientTokenInterceptor(clientToken)))
	return &testEnv{client: client, fake: fake, lib: lib, ctrl: ctrl}
}

func tr(id string) track.Track {
	return track.Track{VideoID: id, Title: "Title " + id, Artist: "Artist " + id, Duration: 120}
}

func TestPlayerService_PlaybackRoundTrip(t *testing.T) {
	env := newTestEnv(t, "", "")
	ctx := context.Background()

	require.NoError(t, env.client.AddToQueue(ctx, &TrackRequest{Track: tr("b")}))
	require.NoError(t, env.client.Play(ctx, &TrackRequest{Track: tr("a")}))
	env.fake.Emit(player.Playing())

	require.Eventually(t, func() bool {
		st, err := env.client.GetState(ctx)
		return err == nil && st.Playback.State == playback.StatePlaying
	}, time.Second, 5*time.Millisecond)

	st, err := env.client.GetState(ctx)
	require.NoError(t, err)
	require.NotNil(t, st.Playback.Track)
	assert.Equal(t, "a", st.Playback.Track.VideoID)
	require.Len(t, st.Playback.Queue, 1)
	assert.Equal(t, "b", st.Playback.Queue[0].VideoID)
	assert.False(t, st.Authenticated)

	require.NoError(t, env.client.Next(ctx))
	hist, err := env.client.GetHistory(ctx)
	require.NoError(t, err)
	require.Len(t, hist.Tracks, 1)
	assert.Equal(t, "a", hist.Tracks[0].VideoID)
}

func TestPlayerService_PlaylistErrors(t *testing.T) {
	env := newTestEnv(t, "", "")
	ctx := context.Background()

	created, err := env.client.CreatePlaylist(ctx, &CreatePlaylistRequest{Title: "Road Trip"})
	require.NoError(t, err)
	id := created.Playlist.ID

	require.NoError(t, env.client.AddToPlaylist(ctx, &PlaylistTrackRequest{PlaylistID: id, Track: tr("x")}))
	require.NoError(t, env.client.AddToPlaylist(ctx, &PlaylistTrackRequest{PlaylistID: id, Track: tr("x")}))

	list, err := env.client.ListPlaylists(ctx)
	require.NoError(t, err)
	require.Len(t, list.Playlists, 1)
	assert.Len(t, list.Playlists[0].Tracks, 1)

	err = env.client.DeletePlaylist(ctx, &PlaylistRequest{PlaylistID: "missing"})
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = env.client.CreatePlaylist(ctx, &CreatePlaylistRequest{Title: ""})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	err = env.client.Play(ctx, &TrackRequest{})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestPlayerService_LikesAndSearch(t *testing.T) {
	env := newTestEnv(t, "", "")
	ctx := context.Background()

	liked := track.Track{VideoID: "l1", Title: "Blue Monday", Artist: "New Order"}
	require.NoError(t, env.client.Like(ctx, &TrackRequest{Track: liked}))
	require.NoError(t, env.client.Like(ctx, &TrackRequest{Track: liked}))
	require.NoError(t, env.client.Unlike(ctx, &VideoRequest{VideoID: "absent"}))

	likes, err := env.client.ListLikes(ctx)
	require.NoError(t, err)
	require.Len(t, likes.Tracks, 1)

	res, err := env.client.Search(ctx, &SearchRequest{Query: "monday"})
	require.NoError(t, err)
	require.Len(t, res.Results, 1)
	assert.Equal(t, "l1", res.Results[0].VideoID)
}

func TestPlayerService_ControlToken(t *testing.T) {
	ctx := context.Background()

	denied := newTestEnv(t, "secret", "wrong")
	_, err := denied.client.GetState(ctx)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	stream, err := denied.client.Subscribe(ctx)
	require.NoError(t, err)
	assert.False(t, stream.Receive())
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(stream.Err()))
	_ = stream.Close()

	allowed := newTestEnv(t, "secret", "secret")
	_, err = allowed.client.GetState(ctx)
	assert.NoError(t, err)
}

func TestPlayerService_Subscribe(t *testing.T) {
	env := newTestEnv(t, "", "")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stream, err := env.client.Subscribe(ctx)
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive())
	assert.Equal(t, notification.TypeInitialState, stream.Msg().Type)
	assert.Equal(t, playback.StateIdle, stream.Msg().State.State)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = env.client.Play(context.Background(), &TrackRequest{Track: tr("a")})
	}()

	for stream.Receive() {
		msg := stream.Msg()
		if msg.Type == playback.EventTrackChanged.String() {
			require.NotNil(t, msg.State.Track)
			assert.Equal(t, "a", msg.State.Track.VideoID)
			assert.Greater(t, msg.SequenceNo, uint64(1))
			return
		}
	}
	t.Fatalf("stream ended without track change: %v", stream.Err())
}

func TestPlayerService_LyricsAndDiscovered(t *testing.T) {
	env := newTestEnv(t, "", "")
	ctx := context.Background()

	miss, err := env.client.GetLyrics(ctx, &LyricsRequest{Title: "Ceremony", Artist: "New Order"})
	require.NoError(t, err)
	assert.False(t, miss.Found)

	payload := []byte(`{"lines":["This is why events unnerve me"]}`)
	require.NoError(t, env.client.SetLyrics(ctx, &SetLyricsRequest{Title: "Ceremony", Artist: "New Order", Data: payload}))

	hit, err := env.client.GetLyrics(ctx, &LyricsRequest{Title: "ceremony", Artist: "NEW ORDER"})
	require.NoError(t, err)
	assert.True(t, hit.Found)
	assert.JSONEq(t, string(payload), string(hit.Data))

	err = env.client.SetLyrics(ctx, &SetLyricsRequest{Title: "Ceremony"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	env.lib.AddDiscoveredTracks(ctx, []track.Track{tr("d1"), tr("d2")})
	disc, err := env.client.ListDiscovered(ctx)
	require.NoError(t, err)
	assert.Len(t, disc.Tracks, 2)
}

func TestPlayerService_ExportImportCache(t *testing.T) {
	src := newTestEnv(t, "", "")
	dst := newTestEnv(t, "", "")
	ctx := context.Background()

	require.NoError(t, src.client.Like(ctx, &TrackRequest{Track: tr("l1")}))
	_, err := src.client.CreatePlaylist(ctx, &CreatePlaylistRequest{Title: "Mix"})
	require.NoError(t, err)

	exported, err := src.client.ExportCache(ctx)
	require.NoError(t, err)
	require.NoError(t, dst.client.ImportCache(ctx, exported))

	assert.True(t, dst.lib.IsLiked("l1"))
	require.Len(t, dst.lib.Playlists(), 1)
	assert.Equal(t, "Mix", dst.lib.Playlists()[0].Title)
}
