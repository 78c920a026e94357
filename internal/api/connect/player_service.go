package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cantio/internal/app/cache"
	"github.com/osa030/cantio/internal/app/notification"
	"github.com/osa030/cantio/internal/app/playback"
	"github.com/osa030/cantio/internal/app/remotesync"
	"github.com/osa030/cantio/internal/domain/track"
)

// ServiceName is the fully-qualified name of the player service.
const ServiceName = "cantio.player.v1.PlayerService"

// Procedure paths of the player service.
const (
	GetStateProcedure           = "/" + ServiceName + "/GetState"
	PlayProcedure               = "/" + ServiceName + "/Play"
	TogglePlayProcedure         = "/" + ServiceName + "/TogglePlay"
	NextProcedure               = "/" + ServiceName + "/Next"
	PrevProcedure               = "/" + ServiceName + "/Prev"
	SeekProcedure               = "/" + ServiceName + "/Seek"
	SetVolumeProcedure          = "/" + ServiceName + "/SetVolume"
	SetVisibilityProcedure      = "/" + ServiceName + "/SetVisibility"
	AddToQueueProcedure         = "/" + ServiceName + "/AddToQueue"
	RemoveFromQueueProcedure    = "/" + ServiceName + "/RemoveFromQueue"
	ReorderQueueProcedure       = "/" + ServiceName + "/ReorderQueue"
	ClearQueueProcedure         = "/" + ServiceName + "/ClearQueue"
	LikeProcedure               = "/" + ServiceName + "/Like"
	UnlikeProcedure             = "/" + ServiceName + "/Unlike"
	ListLikesProcedure          = "/" + ServiceName + "/ListLikes"
	GetHistoryProcedure         = "/" + ServiceName + "/GetHistory"
	SearchProcedure             = "/" + ServiceName + "/Search"
	ListPlaylistsProcedure      = "/" + ServiceName + "/ListPlaylists"
	CreatePlaylistProcedure     = "/" + ServiceName + "/CreatePlaylist"
	AddToPlaylistProcedure      = "/" + ServiceName + "/AddToPlaylist"
	RemoveFromPlaylistProcedure = "/" + ServiceName + "/RemoveFromPlaylist"
	RenamePlaylistProcedure     = "/" + ServiceName + "/RenamePlaylist"
	DeletePlaylistProcedure     = "/" + ServiceName + "/DeletePlaylist"
	ListDiscoveredProcedure     = "/" + ServiceName + "/ListDiscovered"
	GetLyricsProcedure          = "/" + ServiceName + "/GetLyrics"
	SetLyricsProcedure          = "/" + ServiceName + "/SetLyrics"
	ExportCacheProcedure        = "/" + ServiceName + "/ExportCache"
	ImportCacheProcedure        = "/" + ServiceName + "/ImportCache"
	SubscribeProcedure          = "/" + ServiceName + "/Subscribe"
)

// PlayerService implements the player RPCs on top of the playback
// controller, the guest cache and the remote sync bridge.
type PlayerService struct {
	controller   *playback.Controller
	library      *cache.Manager
	bridge       *remotesync.Bridge
	notification *notification.Manager
	validate     *validator.Validate
	done         <-chan struct{}
}

// NewPlayerService creates a new PlayerService. Subscribe streams end when
// done is closed.
func NewPlayerService(
	controller *playback.Controller,
	library *cache.Manager,
	bridge *remotesync.Bridge,
	notif *notification.Manager,
	done <-chan struct{},
) *PlayerService {
	return &PlayerService{
		controller:   controller,
		library:      library,
		bridge:       bridge,
		notification: notif,
		validate:     validator.New(),
		done:         done,
	}
}

// NewPlayerServiceHandler builds the HTTP handler serving every procedure
// of s. It returns the path prefix to mount it on.
func NewPlayerServiceHandler(s *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)
	mux := http.NewServeMux()

	mux.Handle(GetStateProcedure, connect.NewUnaryHandler(GetStateProcedure, s.GetState, opts...))
	mux.Handle(PlayProcedure, connect.NewUnaryHandler(PlayProcedure, s.Play, opts...))
	mux.Handle(TogglePlayProcedure, connect.NewUnaryHandler(TogglePlayProcedure, s.TogglePlay, opts...))
	mux.Handle(NextProcedure, connect.NewUnaryHandler(NextProcedure, s.Next, opts...))
	mux.Handle(PrevProcedure, connect.NewUnaryHandler(PrevProcedure, s.Prev, opts...))
	mux.Handle(SeekProcedure, connect.NewUnaryHandler(SeekProcedure, s.Seek, opts...))
	mux.Handle(SetVolumeProcedure, connect.NewUnaryHandler(SetVolumeProcedure, s.SetVolume, opts...))
	mux.Handle(SetVisibilityProcedure, connect.NewUnaryHandler(SetVisibilityProcedure, s.SetVisibility, opts...))
	mux.Handle(AddToQueueProcedure, connect.NewUnaryHandler(AddToQueueProcedure, s.AddToQueue, opts...))
	mux.Handle(RemoveFromQueueProcedure, connect.NewUnaryHandler(RemoveFromQueueProcedure, s.RemoveFromQueue, opts...))
	mux.Handle(ReorderQueueProcedure, connect.NewUnaryHandler(ReorderQueueProcedure, s.ReorderQueue, opts...))
	mux.Handle(ClearQueueProcedure, connect.NewUnaryHandler(ClearQueueProcedure, s.ClearQueue, opts...))
	mux.Handle(LikeProcedure, connect.NewUnaryHandler(LikeProcedure, s.Like, opts...))
	mux.Handle(UnlikeProcedure, connect.NewUnaryHandler(UnlikeProcedure, s.Unlike, opts...))
	mux.Handle(ListLikesProcedure, connect.NewUnaryHandler(ListLikesProcedure, s.ListLikes, opts...))
	mux.Handle(GetHistoryProcedure, connect.NewUnaryHandler(GetHistoryProcedure, s.GetHistory, opts...))
	mux.Handle(SearchProcedure, connect.NewUnaryHandler(SearchProcedure, s.Search, opts...))
	mux.Handle(ListPlaylistsProcedure, connect.NewUnaryHandler(ListPlaylistsProcedure, s.ListPlaylists, opts...))
	mux.Handle(CreatePlaylistProcedure, connect.NewUnaryHandler(CreatePlaylistProcedure, s.CreatePlaylist, opts...))
	mux.Handle(AddToPlaylistProcedure, connect.NewUnaryHandler(AddToPlaylistProcedure, s.AddToPlaylist, opts...))
	mux.Handle(RemoveFromPlaylistProcedure, connect.NewUnaryHandler(RemoveFromPlaylistProcedure, s.RemoveFromPlaylist, opts...))
	mux.Handle(RenamePlaylistProcedure, connect.NewUnaryHandler(RenamePlaylistProcedure, s.RenamePlaylist, opts...))
	mux.Handle(DeletePlaylistProcedure, connect.NewUnaryHandler(DeletePlaylistProcedure, s.DeletePlaylist, opts...))
	mux.Handle(ListDiscoveredProcedure, connect.NewUnaryHandler(ListDiscoveredProcedure, s.ListDiscovered, opts...))
	mux.Handle(GetLyricsProcedure, connect.NewUnaryHandler(GetLyricsProcedure, s.GetLyrics, opts...))
	mux.Handle(SetLyricsProcedure, connect.NewUnaryHandler(SetLyricsProcedure, s.SetLyrics, opts...))
	mux.Handle(ExportCacheProcedure, connect.NewUnaryHandler(ExportCacheProcedure, s.ExportCache, opts...))
	mux.Handle(ImportCacheProcedure, connect.NewUnaryHandler(ImportCacheProcedure, s.ImportCache, opts...))
	mux.Handle(SubscribeProcedure, connect.NewServerStreamHandler(SubscribeProcedure, s.Subscribe, opts...))

	return "/" + ServiceName + "/", mux
}

// GetState returns the playback snapshot including the queue.
func (s *PlayerService) GetState(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[StateResponse], error) {
	return connect.NewResponse(&StateResponse{
		Playback:      s.controller.Snapshot(),
		Authenticated: s.bridge.Authenticated(),
	}), nil
}

// Play plays a track.
func (s *PlayerService) Play(
	ctx context.Context,
	req *connect.Request[TrackRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	if err := s.controller.Play(ctx, req.Msg.Track); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// TogglePlay pauses, resumes or replays.
func (s *PlayerService) TogglePlay(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[Empty], error) {
	if err := s.controller.TogglePlay(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// Next advances the queue.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[Empty], error) {
	if err := s.controller.Next(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// Prev restarts the track or goes back in history.
func (s *PlayerService) Prev(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[Empty], error) {
	if err := s.controller.Prev(ctx); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// Seek moves the position of the current track.
func (s *PlayerService) Seek(
	ctx context.Context,
	req *connect.Request[SeekRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	if err := s.controller.Seek(ctx, req.Msg.Seconds); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// SetVolume sets the volume.
func (s *PlayerService) SetVolume(
	ctx context.Context,
	req *connect.Request[SetVolumeRequest],
) (*connect.Response[Empty], error) {
	if err := s.controller.SetVolume(ctx, req.Msg.Volume); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// SetVisibility reports whether the UI is in the foreground.
func (s *PlayerService) SetVisibility(
	ctx context.Context,
	req *connect.Request[SetVisibilityRequest],
) (*connect.Response[Empty], error) {
	s.controller.SetVisibility(ctx, req.Msg.Visible)
	return connect.NewResponse(&Empty{}), nil
}

// AddToQueue appends a track to the queue.
func (s *PlayerService) AddToQueue(
	ctx context.Context,
	req *connect.Request[TrackRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	s.controller.AddToQueue(ctx, req.Msg.Track)
	return connect.NewResponse(&Empty{}), nil
}

// RemoveFromQueue removes a queue entry by index.
func (s *PlayerService) RemoveFromQueue(
	ctx context.Context,
	req *connect.Request[QueueIndexRequest],
) (*connect.Response[Empty], error) {
	s.controller.RemoveFromQueue(ctx, req.Msg.Index)
	return connect.NewResponse(&Empty{}), nil
}

// ReorderQueue moves a queue entry.
func (s *PlayerService) ReorderQueue(
	ctx context.Context,
	req *connect.Request[ReorderQueueRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	if err := s.controller.ReorderQueue(ctx, req.Msg.From, req.Msg.To); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// ClearQueue empties the queue.
func (s *PlayerService) ClearQueue(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[Empty], error) {
	s.controller.ClearQueue(ctx)
	return connect.NewResponse(&Empty{}), nil
}

// Like likes a track, remotely first in an authenticated session.
func (s *PlayerService) Like(
	ctx context.Context,
	req *connect.Request[TrackRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	if err := s.bridge.Like(ctx, req.Msg.Track); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// Unlike removes a like.
func (s *PlayerService) Unlike(
	ctx context.Context,
	req *connect.Request[VideoRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	if err := s.bridge.Unlike(ctx, req.Msg.VideoID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// ListLikes returns the liked tracks.
func (s *PlayerService) ListLikes(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[TracksResponse], error) {
	return connect.NewResponse(&TracksResponse{Tracks: s.library.LikedSongs()}), nil
}

// GetHistory returns the history stack, most recent first.
func (s *PlayerService) GetHistory(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[TracksResponse], error) {
	stack := s.library.ReverseQueue()
	history := make([]track.Track, 0, len(stack))
	for i := len(stack) - 1; i >= 0; i-- {
		history = append(history, stack[i])
	}
	return connect.NewResponse(&TracksResponse{Tracks: history}), nil
}

// Search searches remotely, or in the local cache when offline.
func (s *PlayerService) Search(
	ctx context.Context,
	req *connect.Request[SearchRequest],
) (*connect.Response[SearchResponse], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	results, err := s.bridge.Search(ctx, req.Msg.Query, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SearchResponse{Results: results}), nil
}

// ListPlaylists returns every playlist.
func (s *PlayerService) ListPlaylists(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[PlaylistsResponse], error) {
	return connect.NewResponse(&PlaylistsResponse{Playlists: s.library.Playlists()}), nil
}

// CreatePlaylist creates an empty playlist.
func (s *PlayerService) CreatePlaylist(
	ctx context.Context,
	req *connect.Request[CreatePlaylistRequest],
) (*connect.Response[PlaylistResponse], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	p, err := s.library.CreatePlaylist(ctx, req.Msg.Title)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&PlaylistResponse{Playlist: p}), nil
}

// AddToPlaylist adds a track to a playlist.
func (s *PlayerService) AddToPlaylist(
	ctx context.Context,
	req *connect.Request[PlaylistTrackRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	if err := s.library.AddToPlaylist(ctx, req.Msg.PlaylistID, req.Msg.Track); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// RemoveFromPlaylist removes a track from a playlist.
func (s *PlayerService) RemoveFromPlaylist(
	ctx context.Context,
	req *connect.Request[PlaylistVideoRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	if err := s.library.RemoveFromPlaylist(ctx, req.Msg.PlaylistID, req.Msg.VideoID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// RenamePlaylist renames a playlist.
func (s *PlayerService) RenamePlaylist(
	ctx context.Context,
	req *connect.Request[RenamePlaylistRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	if err := s.library.RenamePlaylist(ctx, req.Msg.PlaylistID, req.Msg.Title); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// DeletePlaylist deletes a playlist.
func (s *PlayerService) DeletePlaylist(
	ctx context.Context,
	req *connect.Request[PlaylistRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	if err := s.library.DeletePlaylist(ctx, req.Msg.PlaylistID); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

// ListDiscovered returns tracks found by search that have not been played
// yet, newest first.
func (s *PlayerService) ListDiscovered(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[TracksResponse], error) {
	return connect.NewResponse(&TracksResponse{Tracks: s.library.DiscoveredTracks()}), nil
}

// GetLyrics returns the cached lyrics payload of a track.
func (s *PlayerService) GetLyrics(
	ctx context.Context,
	req *connect.Request[LyricsRequest],
) (*connect.Response[LyricsResponse], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	data, ok := s.library.GetLyrics(ctx, req.Msg.Title, req.Msg.Artist)
	return connect.NewResponse(&LyricsResponse{Found: ok, Data: data}), nil
}

// SetLyrics caches a lyrics payload for a track.
func (s *PlayerService) SetLyrics(
	ctx context.Context,
	req *connect.Request[SetLyricsRequest],
) (*connect.Response[Empty], error) {
	if err := s.check(req.Msg); err != nil {
		return nil, err
	}
	s.library.SetLyrics(ctx, req.Msg.Title, req.Msg.Artist, req.Msg.Data)
	return connect.NewResponse(&Empty{}), nil
}

// ExportCache returns a copy of the whole guest cache.
func (s *PlayerService) ExportCache(
	ctx context.Context,
	req *connect.Request[Empty],
) (*connect.Response[CacheMessage], error) {
	return connect.NewResponse(&CacheMessage{Cache: s.library.Export()}), nil
}

// ImportCache replaces the guest cache.
func (s *PlayerService) ImportCache(
	ctx context.Context,
	req *connect.Request[CacheMessage],
) (*connect.Response[Empty], error) {
	s.library.Import(ctx, req.Msg.Cache)
	return connect.NewResponse(&Empty{}), nil
}

// Subscribe streams playback notifications, starting with the current
// state.
func (s *PlayerService) Subscribe(
	ctx context.Context,
	req *connect.Request[Empty],
	stream *connect.ServerStream[Notification],
) error {
	initial := &Notification{
		Type:       notification.TypeInitialState,
		SequenceNo: s.notification.NextSequenceNo(),
		State:      s.controller.Snapshot(),
	}
	if err := stream.Send(initial); err != nil {
		return err
	}

	subscriptionID := s.notification.Subscribe(&notificationStreamAdapter{stream: stream})
	defer s.notification.Unsubscribe(subscriptionID)

	select {
	case <-ctx.Done():
	case <-s.done:
	}
	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
type notificationStreamAdapter struct {
	stream *connect.ServerStream[Notification]
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	return a.stream.Send(n)
}

// check validates a request message.
func (s *PlayerService) check(msg any) error {
	if err := s.validate.Struct(msg); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// toConnectError maps service errors onto Connect codes.
func toConnectError(err error) error {
	var code connect.Code
	switch {
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, cache.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, cache.ErrInvalidIndex), errors.Is(err, cache.ErrInvalidTitle):
		code = connect.CodeInvalidArgument
	case errors.Is(err, playback.ErrNoTrack):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, playback.ErrPlayerNotReady),
		errors.Is(err, playback.ErrPlayerInitFailed),
		errors.Is(err, remotesync.ErrSyncFailed):
		code = connect.CodeUnavailable
	default:
		zlog.Error().Err(err).Msg("api: unexpected error")
		code = connect.CodeInternal
	}
	return connect.NewError(code, err)
}
