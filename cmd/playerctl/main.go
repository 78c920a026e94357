// Package main provides the command-line client of the playback service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/cantio/internal/api/connect"
	"github.com/osa030/cantio/internal/app/playback"
	"github.com/osa030/cantio/internal/domain/track"
)

var (
	app    = kingpin.New("cantio-playerctl", "cantio playback service client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Control token").Envar("CANTIO_CONTROL_TOKEN").String()

	statusCmd = app.Command("status", "Show the playback state").Default()

	playCmd    = app.Command("play", "Play a video")
	playID     = playCmd.Arg("video-id", "Video ID").Required().String()
	playTitle  = playCmd.Flag("title", "Track title").String()
	playArtist = playCmd.Flag("artist", "Track artist").String()

	toggleCmd = app.Command("toggle", "Pause or resume")
	nextCmd   = app.Command("next", "Play the next queued track")
	prevCmd   = app.Command("prev", "Restart or go back in history")

	seekCmd     = app.Command("seek", "Seek within the current track")
	seekSeconds = seekCmd.Arg("seconds", "Position in seconds").Required().Float64()

	volumeCmd   = app.Command("volume", "Set the volume")
	volumeLevel = volumeCmd.Arg("level", "Volume between 0 and 1").Required().Float64()

	visibleCmd   = app.Command("visible", "Report the UI as visible or hidden")
	visibleValue = visibleCmd.Arg("visible", "true or false").Required().Bool()

	queueCmd      = app.Command("queue", "Manage the queue")
	queueAddCmd   = queueCmd.Command("add", "Append a video to the queue")
	queueAddID    = queueAddCmd.Arg("video-id", "Video ID").Required().String()
	queueRmCmd    = queueCmd.Command("remove", "Remove a queue entry")
	queueRmIndex  = queueRmCmd.Arg("index", "Queue index").Required().Int()
	queueMoveCmd  = queueCmd.Command("move", "Move a queue entry")
	queueMoveFrom = queueMoveCmd.Arg("from", "Source index").Required().Int()
	queueMoveTo   = queueMoveCmd.Arg("to", "Destination index").Required().Int()
	queueClearCmd = queueCmd.Command("clear", "Empty the queue")

	likeCmd   = app.Command("like", "Like a video")
	likeID    = likeCmd.Arg("video-id", "Video ID").Required().String()
	unlikeCmd = app.Command("unlike", "Unlike a video")
	unlikeID  = unlikeCmd.Arg("video-id", "Video ID").Required().String()
	likesCmd  = app.Command("likes", "List liked tracks")

	historyCmd = app.Command("history", "List play history")

	searchCmd   = app.Command("search", "Search tracks")
	searchQuery = searchCmd.Arg("query", "Search terms").Required().Strings()
	searchLimit = searchCmd.Flag("limit", "Maximum results").Default("10").Int()

	playlistCmd         = app.Command("playlist", "Manage playlists")
	playlistListCmd     = playlistCmd.Command("list", "List playlists")
	playlistCreateCmd   = playlistCmd.Command("create", "Create a playlist")
	playlistCreateTitle = playlistCreateCmd.Arg("title", "Playlist title").Required().String()
	playlistAddCmd      = playlistCmd.Command("add", "Add a video to a playlist")
	playlistAddID       = playlistAddCmd.Arg("playlist-id", "Playlist ID").Required().String()
	playlistAddVideo    = playlistAddCmd.Arg("video-id", "Video ID").Required().String()
	playlistRmCmd       = playlistCmd.Command("remove", "Remove a video from a playlist")
	playlistRmID        = playlistRmCmd.Arg("playlist-id", "Playlist ID").Required().String()
	playlistRmVideo     = playlistRmCmd.Arg("video-id", "Video ID").Required().String()
	playlistRenameCmd   = playlistCmd.Command("rename", "Rename a playlist")
	playlistRenameID    = playlistRenameCmd.Arg("playlist-id", "Playlist ID").Required().String()
	playlistRenameTitle = playlistRenameCmd.Arg("title", "New title").Required().String()
	playlistDeleteCmd   = playlistCmd.Command("delete", "Delete a playlist")
	playlistDeleteID    = playlistDeleteCmd.Arg("playlist-id", "Playlist ID").Required().String()

	discoveredCmd = app.Command("discovered", "List discovered tracks not played yet")

	lyricsCmd       = app.Command("lyrics", "Manage the lyrics cache")
	lyricsGetCmd    = lyricsCmd.Command("get", "Show cached lyrics")
	lyricsGetTitle  = lyricsGetCmd.Arg("title", "Track title").Required().String()
	lyricsGetArtist = lyricsGetCmd.Flag("artist", "Track artist").String()
	lyricsSetCmd    = lyricsCmd.Command("set", "Cache lyrics from a JSON file")
	lyricsSetTitle  = lyricsSetCmd.Arg("title", "Track title").Required().String()
	lyricsSetFile   = lyricsSetCmd.Arg("file", "JSON payload file").Required().ExistingFile()
	lyricsSetArtist = lyricsSetCmd.Flag("artist", "Track artist").String()

	cacheCmd        = app.Command("cache", "Back up or restore the guest cache")
	cacheExportCmd  = cacheCmd.Command("export", "Write the cache as JSON to stdout")
	cacheImportCmd  = cacheCmd.Command("import", "Replace the cache from a JSON file")
	cacheImportFile = cacheImportCmd.Arg("file", "Exported cache file").Required().ExistingFile()

	subscribeCmd = app.Command("subscribe", "Stream playback notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewPlayerServiceClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewClientTokenInterceptor(*token)),
	)

	ctx := context.Background()

	var err error
	switch command {
	case statusCmd.FullCommand():
		err = status(ctx, client)
	case playCmd.FullCommand():
		err = client.Play(ctx, &apiconnect.TrackRequest{Track: track.Track{
			VideoID: *playID,
			Title:   *playTitle,
			Artist:  *playArtist,
		}})
	case toggleCmd.FullCommand():
		err = client.TogglePlay(ctx)
	case nextCmd.FullCommand():
		err = client.Next(ctx)
	case prevCmd.FullCommand():
		err = client.Prev(ctx)
	case seekCmd.FullCommand():
		err = client.Seek(ctx, &apiconnect.SeekRequest{Seconds: *seekSeconds})
	case volumeCmd.FullCommand():
		err = client.SetVolume(ctx, &apiconnect.SetVolumeRequest{Volume: *volumeLevel})
	case visibleCmd.FullCommand():
		err = client.SetVisibility(ctx, &apiconnect.SetVisibilityRequest{Visible: *visibleValue})
	case queueAddCmd.FullCommand():
		err = client.AddToQueue(ctx, &apiconnect.TrackRequest{Track: track.Track{VideoID: *queueAddID}})
	case queueRmCmd.FullCommand():
		err = client.RemoveFromQueue(ctx, &apiconnect.QueueIndexRequest{Index: *queueRmIndex})
	case queueMoveCmd.FullCommand():
		err = client.ReorderQueue(ctx, &apiconnect.ReorderQueueRequest{From: *queueMoveFrom, To: *queueMoveTo})
	case queueClearCmd.FullCommand():
		err = client.ClearQueue(ctx)
	case likeCmd.FullCommand():
		err = client.Like(ctx, &apiconnect.TrackRequest{Track: track.Track{VideoID: *likeID}})
	case unlikeCmd.FullCommand():
		err = client.Unlike(ctx, &apiconnect.VideoRequest{VideoID: *unlikeID})
	case likesCmd.FullCommand():
		var resp *apiconnect.TracksResponse
		if resp, err = client.ListLikes(ctx); err == nil {
			printTracks(resp.Tracks)
		}
	case historyCmd.FullCommand():
		var resp *apiconnect.TracksResponse
		if resp, err = client.GetHistory(ctx); err == nil {
			printTracks(resp.Tracks)
		}
	case searchCmd.FullCommand():
		var resp *apiconnect.SearchResponse
		resp, err = client.Search(ctx, &apiconnect.SearchRequest{
			Query: strings.Join(*searchQuery, " "),
			Limit: *searchLimit,
		})
		if err == nil {
			printTracks(resp.Results)
		}
	case playlistListCmd.FullCommand():
		err = listPlaylists(ctx, client)
	case playlistCreateCmd.FullCommand():
		var resp *apiconnect.PlaylistResponse
		if resp, err = client.CreatePlaylist(ctx, &apiconnect.CreatePlaylistRequest{Title: *playlistCreateTitle}); err == nil {
			fmt.Printf("Created playlist %s (%s)\n", resp.Playlist.Title, resp.Playlist.ID)
		}
	case playlistAddCmd.FullCommand():
		err = client.AddToPlaylist(ctx, &apiconnect.PlaylistTrackRequest{
			PlaylistID: *playlistAddID,
			Track:      track.Track{VideoID: *playlistAddVideo},
		})
	case playlistRmCmd.FullCommand():
		err = client.RemoveFromPlaylist(ctx, &apiconnect.PlaylistVideoRequest{
			PlaylistID: *playlistRmID,
			VideoID:    *playlistRmVideo,
		})
	case playlistRenameCmd.FullCommand():
		err = client.RenamePlaylist(ctx, &apiconnect.RenamePlaylistRequest{
			PlaylistID: *playlistRenameID,
			Title:      *playlistRenameTitle,
		})
	case playlistDeleteCmd.FullCommand():
		err = client.DeletePlaylist(ctx, &apiconnect.PlaylistRequest{PlaylistID: *playlistDeleteID})
	case discoveredCmd.FullCommand():
		var resp *apiconnect.TracksResponse
		if resp, err = client.ListDiscovered(ctx); err == nil {
			printTracks(resp.Tracks)
		}
	case lyricsGetCmd.FullCommand():
		err = showLyrics(ctx, client)
	case lyricsSetCmd.FullCommand():
		var data []byte
		if data, err = os.ReadFile(*lyricsSetFile); err == nil {
			err = client.SetLyrics(ctx, &apiconnect.SetLyricsRequest{
				Title:  *lyricsSetTitle,
				Artist: *lyricsSetArtist,
				Data:   data,
			})
		}
	case cacheExportCmd.FullCommand():
		err = exportCache(ctx, client)
	case cacheImportCmd.FullCommand():
		err = importCache(ctx, client)
	case subscribeCmd.FullCommand():
		err = subscribe(ctx, client)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func status(ctx context.Context, client *apiconnect.PlayerServiceClient) error {
	resp, err := client.GetState(ctx)
	if err != nil {
		return err
	}
	mode := "guest"
	if resp.Authenticated {
		mode = "authenticated"
	}
	fmt.Printf("Session: %s\n", mode)
	printSnapshot(resp.Playback)
	if len(resp.Playback.Queue) > 0 {
		fmt.Println("\nQueue:")
		printTracks(resp.Playback.Queue)
	}
	return nil
}

func listPlaylists(ctx context.Context, client *apiconnect.PlayerServiceClient) error {
	resp, err := client.ListPlaylists(ctx)
	if err != nil {
		return err
	}
	if len(resp.Playlists) == 0 {
		fmt.Println("No playlists")
		return nil
	}
	for _, p := range resp.Playlists {
		fmt.Printf("%s  %s (%d tracks, %s)\n", p.ID, p.Title, len(p.Tracks), formatSeconds(float64(p.TotalDuration())))
	}
	return nil
}

func showLyrics(ctx context.Context, client *apiconnect.PlayerServiceClient) error {
	resp, err := client.GetLyrics(ctx, &apiconnect.LyricsRequest{Title: *lyricsGetTitle, Artist: *lyricsGetArtist})
	if err != nil {
		return err
	}
	if !resp.Found {
		fmt.Println("No cached lyrics")
		return nil
	}
	fmt.Println(string(resp.Data))
	return nil
}

func exportCache(ctx context.Context, client *apiconnect.PlayerServiceClient) error {
	resp, err := client.ExportCache(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func importCache(ctx context.Context, client *apiconnect.PlayerServiceClient) error {
	data, err := os.ReadFile(*cacheImportFile)
	if err != nil {
		return err
	}
	var msg apiconnect.CacheMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.Wrap(err, "invalid cache file")
	}
	if err := client.ImportCache(ctx, &msg); err != nil {
		return err
	}
	fmt.Println("Cache imported")
	return nil
}

func subscribe(ctx context.Context, client *apiconnect.PlayerServiceClient) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stream, err := client.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	for stream.Receive() {
		n := stream.Msg()
		if n.Type == playback.EventProgress.String() {
			continue
		}
		fmt.Printf("\n[Sequence: %d] === %s ===\n", n.SequenceNo, strings.ToUpper(n.Type))
		printSnapshot(n.State)
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Println("\nUnsubscribed")
	return nil
}

func printSnapshot(s playback.Snapshot) {
	fmt.Printf("State: %s\n", formatState(s.State))
	if s.Track != nil {
		fmt.Printf("Track: %s - %s (%s)\n", s.Track.DisplayArtist(), s.Track.Title, s.Track.VideoID)
		fmt.Printf("Position: %s / %s\n", formatSeconds(s.Progress), formatSeconds(s.Duration))
	}
	fmt.Printf("Volume: %.0f%%\n", s.Volume*100)
	if s.Error != "" {
		fmt.Printf("Error: %s\n", s.Error)
	}
}

func printTracks(tracks []track.Track) {
	if len(tracks) == 0 {
		fmt.Println("  (none)")
		return
	}
	for i, t := range tracks {
		fmt.Printf("  %2d. %s - %s [%s]\n", i, t.DisplayArtist(), t.Title, t.VideoID)
	}
}

func formatState(state playback.State) string {
	switch state {
	case playback.StatePlaying:
		return "▶️  Playing"
	case playback.StatePaused:
		return "⏸  Paused"
	case playback.StateLoading:
		return "⏳ Loading"
	case playback.StateError:
		return "⚠️  Error"
	default:
		return "⏹  Idle"
	}
}

func formatSeconds(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
