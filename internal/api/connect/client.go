package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
)

// PlayerServiceClient is a client for the player service.
type PlayerServiceClient struct {
	getState           *connect.Client[Empty, StateResponse]
	play               *connect.Client[TrackRequest, Empty]
	togglePlay         *connect.Client[Empty, Empty]
	next               *connect.Client[Empty, Empty]
	prev               *connect.Client[Empty, Empty]
	seek               *connect.Client[SeekRequest, Empty]
	setVolume          *connect.Client[SetVolumeRequest, Empty]
	setVisibility      *connect.Client[SetVisibilityRequest, Empty]
	addToQueue         *connect.Client[TrackRequest, Empty]
	removeFromQueue    *connect.Client[QueueIndexRequest, Empty]
	reorderQueue       *connect.Client[ReorderQueueRequest, Empty]
	clearQueue         *connect.Client[Empty, Empty]
	like               *connect.Client[TrackRequest, Empty]
	unlike             *connect.Client[VideoRequest, Empty]
	listLikes          *connect.Client[Empty, TracksResponse]
	getHistory         *connect.Client[Empty, TracksResponse]
	search             *connect.Client[SearchRequest, SearchResponse]
	listPlaylists      *connect.Client[Empty, PlaylistsResponse]
	createPlaylist     *connect.Client[CreatePlaylistRequest, PlaylistResponse]
	addToPlaylist      *connect.Client[PlaylistTrackRequest, Empty]
	removeFromPlaylist *connect.Client[PlaylistVideoRequest, Empty]
	renamePlaylist     *connect.Client[RenamePlaylistRequest, Empty]
	deletePlaylist     *connect.Client[PlaylistRequest, Empty]
	listDiscovered     *connect.Client[Empty, TracksResponse]
	getLyrics          *connect.Client[LyricsRequest, LyricsResponse]
	setLyrics          *connect.Client[SetLyricsRequest, Empty]
	exportCache        *connect.Client[Empty, CacheMessage]
	importCache        *connect.Client[CacheMessage, Empty]
	subscribe          *connect.Client[Empty, Notification]
}

// NewPlayerServiceClient creates a client for the service at baseURL.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &PlayerServiceClient{
		getState:           connect.NewClient[Empty, StateResponse](httpClient, baseURL+GetStateProcedure, opts...),
		play:               connect.NewClient[TrackRequest, Empty](httpClient, baseURL+PlayProcedure, opts...),
		togglePlay:         connect.NewClient[Empty, Empty](httpClient, baseURL+TogglePlayProcedure, opts...),
		next:               connect.NewClient[Empty, Empty](httpClient, baseURL+NextProcedure, opts...),
		prev:               connect.NewClient[Empty, Empty](httpClient, baseURL+PrevProcedure, opts...),
		seek:               connect.NewClient[SeekRequest, Empty](httpClient, baseURL+SeekProcedure, opts...),
		setVolume:          connect.NewClient[SetVolumeRequest, Empty](httpClient, baseURL+SetVolumeProcedure, opts...),
		setVisibility:      connect.NewClient[SetVisibilityRequest, Empty](httpClient, baseURL+SetVisibilityProcedure, opts...),
		addToQueue:         connect.NewClient[TrackRequest, Empty](httpClient, baseURL+AddToQueueProcedure, opts...),
		removeFromQueue:    connect.NewClient[QueueIndexRequest, Empty](httpClient, baseURL+RemoveFromQueueProcedure, opts...),
		reorderQueue:       connect.NewClient[ReorderQueueRequest, Empty](httpClient, baseURL+ReorderQueueProcedure, opts...),
		clearQueue:         connect.NewClient[Empty, Empty](httpClient, baseURL+ClearQueueProcedure, opts...),
		like:               connect.NewClient[TrackRequest, Empty](httpClient, baseURL+LikeProcedure, opts...),
		unlike:             connect.NewClient[VideoRequest, Empty](httpClient, baseURL+UnlikeProcedure, opts...),
		listLikes:          connect.NewClient[Empty, TracksResponse](httpClient, baseURL+ListLikesProcedure, opts...),
		getHistory:         connect.NewClient[Empty, TracksResponse](httpClient, baseURL+GetHistoryProcedure, opts...),
		search:             connect.NewClient[SearchRequest, SearchResponse](httpClient, baseURL+SearchProcedure, opts...),
		listPlaylists:      connect.NewClient[Empty, PlaylistsResponse](httpClient, baseURL+ListPlaylistsProcedure, opts...),
		createPlaylist:     connect.NewClient[CreatePlaylistRequest, PlaylistResponse](httpClient, baseURL+CreatePlaylistProcedure, opts...),
		addToPlaylist:      connect.NewClient[PlaylistTrackRequest, Empty](httpClient, baseURL+AddToPlaylistProcedure, opts...),
		removeFromPlaylist: connect.NewClient[PlaylistVideoRequest, Empty](httpClient, baseURL+RemoveFromPlaylistProcedure, opts...),
		renamePlaylist:     connect.NewClient[RenamePlaylistRequest, Empty](httpClient, baseURL+RenamePlaylistProcedure, opts...),
		deletePlaylist:     connect.NewClient[PlaylistRequest, Empty](httpClient, baseURL+DeletePlaylistProcedure, opts...),
		listDiscovered:     connect.NewClient[Empty, TracksResponse](httpClient, baseURL+ListDiscoveredProcedure, opts...),
		getLyrics:          connect.NewClient[LyricsRequest, LyricsResponse](httpClient, baseURL+GetLyricsProcedure, opts...),
		setLyrics:          connect.NewClient[SetLyricsRequest, Empty](httpClient, baseURL+SetLyricsProcedure, opts...),
		exportCache:        connect.NewClient[Empty, CacheMessage](httpClient, baseURL+ExportCacheProcedure, opts...),
		importCache:        connect.NewClient[CacheMessage, Empty](httpClient, baseURL+ImportCacheProcedure, opts...),
		subscribe:          connect.NewClient[Empty, Notification](httpClient, baseURL+SubscribeProcedure, opts...),
	}
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], msg *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// GetState calls PlayerService.GetState.
func (c *PlayerServiceClient) GetState(ctx context.Context) (*StateResponse, error) {
	return call(ctx, c.getState, &Empty{})
}

// Play calls PlayerService.Play.
func (c *PlayerServiceClient) Play(ctx context.Context, req *TrackRequest) error {
	_, err := call(ctx, c.play, req)
	return err
}

// TogglePlay calls PlayerService.TogglePlay.
func (c *PlayerServiceClient) TogglePlay(ctx context.Context) error {
	_, err := call(ctx, c.togglePlay, &Empty{})
	return err
}

// Next calls PlayerService.Next.
func (c *PlayerServiceClient) Next(ctx context.Context) error {
	_, err := call(ctx, c.next, &Empty{})
	return err
}

// Prev calls PlayerService.Prev.
func (c *PlayerServiceClient) Prev(ctx context.Context) error {
	_, err := call(ctx, c.prev, &Empty{})
	return err
}

// Seek calls PlayerService.Seek.
func (c *PlayerServiceClient) Seek(ctx context.Context, req *SeekRequest) error {
	_, err := call(ctx, c.seek, req)
	return err
}

// SetVolume calls PlayerService.SetVolume.
func (c *PlayerServiceClient) SetVolume(ctx context.Context, req *SetVolumeRequest) error {
	_, err := call(ctx, c.setVolume, req)
	return err
}

// SetVisibility calls PlayerService.SetVisibility.
func (c *PlayerServiceClient) SetVisibility(ctx context.Context, req *SetVisibilityRequest) error {
	_, err := call(ctx, c.setVisibility, req)
	return err
}

// AddToQueue calls PlayerService.AddToQueue.
func (c *PlayerServiceClient) AddToQueue(ctx context.Context, req *TrackRequest) error {
	_, err := call(ctx, c.addToQueue, req)
	return err
}

// RemoveFromQueue calls PlayerService.RemoveFromQueue.
func (c *PlayerServiceClient) RemoveFromQueue(ctx context.Context, req *QueueIndexRequest) error {
	_, err := call(ctx, c.removeFromQueue, req)
	return err
}

// ReorderQueue calls PlayerService.ReorderQueue.
func (c *PlayerServiceClient) ReorderQueue(ctx context.Context, req *ReorderQueueRequest) error {
	_, err := call(ctx, c.reorderQueue, req)
	return err
}

// ClearQueue calls PlayerService.ClearQueue.
func (c *PlayerServiceClient) ClearQueue(ctx context.Context) error {
	_, err := call(ctx, c.clearQueue, &Empty{})
	return err
}

// Like calls PlayerService.Like.
func (c *PlayerServiceClient) Like(ctx context.Context, req *TrackRequest) error {
	_, err := call(ctx, c.like, req)
	return err
}

// Unlike calls PlayerService.Unlike.
func (c *PlayerServiceClient) Unlike(ctx context.Context, req *VideoRequest) error {
	_, err := call(ctx, c.unlike, req)
	return err
}

// ListLikes calls PlayerService.ListLikes.
func (c *PlayerServiceClient) ListLikes(ctx context.Context) (*TracksResponse, error) {
	return call(ctx, c.listLikes, &Empty{})
}

// GetHistory calls PlayerService.GetHistory.
func (c *PlayerServiceClient) GetHistory(ctx context.Context) (*TracksResponse, error) {
	return call(ctx, c.getHistory, &Empty{})
}

// Search calls PlayerService.Search.
func (c *PlayerServiceClient) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	return call(ctx, c.search, req)
}

// ListPlaylists calls PlayerService.ListPlaylists.
func (c *PlayerServiceClient) ListPlaylists(ctx context.Context) (*PlaylistsResponse, error) {
	return call(ctx, c.listPlaylists, &Empty{})
}

// CreatePlaylist calls PlayerService.CreatePlaylist.
func (c *PlayerServiceClient) CreatePlaylist(ctx context.Context, req *CreatePlaylistRequest) (*PlaylistResponse, error) {
	return call(ctx, c.createPlaylist, req)
}

// AddToPlaylist calls PlayerService.AddToPlaylist.
func (c *PlayerServiceClient) AddToPlaylist(ctx context.Context, req *PlaylistTrackRequest) error {
	_, err := call(ctx, c.addToPlaylist, req)
	return err
}

// RemoveFromPlaylist calls PlayerService.RemoveFromPlaylist.
func (c *PlayerServiceClient) RemoveFromPlaylist(ctx context.Context, req *PlaylistVideoRequest) error {
	_, err := call(ctx, c.removeFromPlaylist, req)
	return err
}

// RenamePlaylist calls PlayerService.RenamePlaylist.
func (c *PlayerServiceClient) RenamePlaylist(ctx context.Context, req *RenamePlaylistRequest) error {
	_, err := call(ctx, c.renamePlaylist, req)
	return err
}

// DeletePlaylist calls PlayerService.DeletePlaylist.
func (c *PlayerServiceClient) DeletePlaylist(ctx context.Context, req *PlaylistRequest) error {
	_, err := call(ctx, c.deletePlaylist, req)
	return err
}

// ListDiscovered calls PlayerService.ListDiscovered.
func (c *PlayerServiceClient) ListDiscovered(ctx context.Context) (*TracksResponse, error) {
	return call(ctx, c.listDiscovered, &Empty{})
}

// GetLyrics calls PlayerService.GetLyrics.
func (c *PlayerServiceClient) GetLyrics(ctx context.Context, req *LyricsRequest) (*LyricsResponse, error) {
	return call(ctx, c.getLyrics, req)
}

// SetLyrics calls PlayerService.SetLyrics.
func (c *PlayerServiceClient) SetLyrics(ctx context.Context, req *SetLyricsRequest) error {
	_, err := call(ctx, c.setLyrics, req)
	return err
}

// ExportCache calls PlayerService.ExportCache.
func (c *PlayerServiceClient) ExportCache(ctx context.Context) (*CacheMessage, error) {
	return call(ctx, c.exportCache, &Empty{})
}

// ImportCache calls PlayerService.ImportCache.
func (c *PlayerServiceClient) ImportCache(ctx context.Context, req *CacheMessage) error {
	_, err := call(ctx, c.importCache, req)
	return err
}

// Subscribe calls PlayerService.Subscribe.
func (c *PlayerServiceClient) Subscribe(ctx context.Context) (*connect.ServerStreamForClient[Notification], error) {
	return c.subscribe.CallServerStream(ctx, connect.NewRequest(&Empty{}))
}
