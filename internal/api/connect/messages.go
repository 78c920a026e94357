package connect

import (
	"encoding/json"

	"github.com/osa030/cantio/internal/app/cache"
	"github.com/osa030/cantio/internal/app/notification"
	"github.com/osa030/cantio/internal/app/playback"
	"github.com/osa030/cantio/internal/domain/playlist"
	"github.com/osa030/cantio/internal/domain/track"
)

// Empty is the request or response of calls that carry no data.
type Empty struct{}

// StateResponse is the response of GetState.
type StateResponse struct {
	Playback      playback.Snapshot `json:"playback"`
	Authenticated bool              `json:"authenticated"`
}

// TrackRequest names one track (Play, AddToQueue, Like).
type TrackRequest struct {
	Track track.Track `json:"track"`
}

// VideoRequest names one video by ID (Unlike).
type VideoRequest struct {
	VideoID string `json:"videoId" validate:"required"`
}

// SeekRequest is the request of Seek.
type SeekRequest struct {
	Seconds float64 `json:"seconds" validate:"gte=0"`
}

// SetVolumeRequest is the request of SetVolume. Out-of-range values are
// clamped by the controller.
type SetVolumeRequest struct {
	Volume float64 `json:"volume"`
}

// SetVisibilityRequest is the request of SetVisibility.
type SetVisibilityRequest struct {
	Visible bool `json:"visible"`
}

// QueueIndexRequest is the request of RemoveFromQueue.
type QueueIndexRequest struct {
	Index int `json:"index"`
}

// ReorderQueueRequest is the request of ReorderQueue.
type ReorderQueueRequest struct {
	From int `json:"from" validate:"gte=0"`
	To   int `json:"to" validate:"gte=0"`
}

// TracksResponse lists tracks (ListLikes, GetHistory, ListDiscovered).
type TracksResponse struct {
	Tracks []track.Track `json:"tracks"`
}

// SearchRequest is the request of Search.
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"gte=0,lte=50"`
}

// SearchResponse is the response of Search.
type SearchResponse struct {
	Results []track.Track `json:"results"`
}

// PlaylistsResponse is the response of ListPlaylists.
type PlaylistsResponse struct {
	Playlists []playlist.Playlist `json:"playlists"`
}

// PlaylistResponse returns one playlist.
type PlaylistResponse struct {
	Playlist playlist.Playlist `json:"playlist"`
}

// CreatePlaylistRequest is the request of CreatePlaylist.
type CreatePlaylistRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// PlaylistTrackRequest is the request of AddToPlaylist.
type PlaylistTrackRequest struct {
	PlaylistID string      `json:"playlistId" validate:"required"`
	Track      track.Track `json:"track"`
}

// PlaylistVideoRequest is the request of RemoveFromPlaylist.
type PlaylistVideoRequest struct {
	PlaylistID string `json:"playlistId" validate:"required"`
	VideoID    string `json:"videoId" validate:"required"`
}

// RenamePlaylistRequest is the request of RenamePlaylist.
type RenamePlaylistRequest struct {
	PlaylistID string `json:"playlistId" validate:"required"`
	Title      string `json:"title" validate:"required,max=200"`
}

// PlaylistRequest names one playlist (DeletePlaylist).
type PlaylistRequest struct {
	PlaylistID string `json:"playlistId" validate:"required"`
}

// LyricsRequest names the track whose lyrics are cached.
type LyricsRequest struct {
	Title  string `json:"title" validate:"required"`
	Artist string `json:"artist"`
}

// LyricsResponse is the response of GetLyrics. Data is the payload as it
// was stored by SetLyrics.
type LyricsResponse struct {
	Found bool            `json:"found"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SetLyricsRequest is the request of SetLyrics.
type SetLyricsRequest struct {
	Title  string          `json:"title" validate:"required"`
	Artist string          `json:"artist"`
	Data   json.RawMessage `json:"data,omitempty" validate:"required"`
}

// CacheMessage carries the whole guest cache (ExportCache, ImportCache).
type CacheMessage struct {
	Cache cache.GuestCache `json:"cache"`
}

// Notification is the message type of the Subscribe stream.
type Notification = notification.Notification
