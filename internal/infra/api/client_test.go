package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/cantio/internal/domain/track"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(context.Background(), Config{BaseURL: server.URL + "/", Token: "test_token"})
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), Config{Token: "x"})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{BaseURL: "http://localhost"})
	assert.Error(t, err)
}

func TestLike(t *testing.T) {
	var got record
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/likes", r.URL.Path)
		assert.Equal(t, "Bearer test_token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"likedTrack":{}}`)
	})

	err := client.Like(context.Background(), track.Track{VideoID: "v1", Title: "Song", Artist: "Band", Duration: 200, Thumbnail: "img"})
	require.NoError(t, err)
	assert.Equal(t, record{TrackID: "v1", Title: "Song", Artist: "Band", Duration: 200, Thumbnail: "img"}, got)
}

func TestIdempotentStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		call    func(c *Client) error
		wantErr bool
	}{
		{"like conflict", http.StatusConflict, func(c *Client) error { return c.Like(context.Background(), track.Track{VideoID: "v1"}) }, false},
		{"like server error", http.StatusInternalServerError, func(c *Client) error { return c.Like(context.Background(), track.Track{VideoID: "v1"}) }, true},
		{"unlike not found", http.StatusNotFound, func(c *Client) error { return c.Unlike(context.Background(), "v1") }, false},
		{"unlike conflict", http.StatusConflict, func(c *Client) error { return c.Unlike(context.Background(), "v1") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"error":"boom"}`)
			})
			err := tt.call(client)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRemote))
			assert.Equal(t, tt.status, status(err))
			assert.Contains(t, err.Error(), "boom")
		})
	}
}

func TestUnlikeEscapesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/likes/a%2Fb", r.URL.EscapedPath())
		fmt.Fprint(w, `{"success":true}`)
	})
	require.NoError(t, client.Unlike(context.Background(), "a/b"))
}

func TestLikes(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/likes", r.URL.Path)
		fmt.Fprint(w, `{"likedTracks":[
			{"trackId":"v2","title":"Two","artist":"B","thumbnail":"t2","duration":120,"likedAt":"2025-01-02"},
			{"trackId":"","title":"broken"},
			{"trackId":"v1","title":"One","artist":"A","thumbnail":"t1","duration":90}
		]}`)
	})

	liked, err := client.Likes(context.Background())
	require.NoError(t, err)
	require.Len(t, liked, 2)
	assert.Equal(t, track.Track{VideoID: "v2", Title: "Two", Artist: "B", Thumbnail: "t2", Duration: 120}, liked[0])
	assert.Equal(t, "v1", liked[1].VideoID)
}

func TestHistory(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"history":[{"trackId":"v3"},{"trackId":"v2"}]}`)
	})

	history, err := client.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, "v3", history[0].VideoID)
}

func TestRecordPlay(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/history", r.URL.Path)
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, client.RecordPlay(context.Background(), track.Track{VideoID: "v1"}))
	assert.True(t, called)
}

func TestSearch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "lofi beats", r.URL.Query().Get("q"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		fmt.Fprint(w, `{"results":[{"videoId":"v1","title":"Lofi","artist":"Girl","duration":3600},{"title":"no id"}]}`)
	})

	results, err := client.Search(context.Background(), "  lofi beats ", 500)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Lofi", results[0].Title)

	_, err = client.Search(context.Background(), "   ", 10)
	assert.Error(t, err)
}

func TestUnauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Likes(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, errors.Is(err, ErrRemote))
}

func TestBadResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"history":`)
	})

	_, err := client.History(context.Background(), 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemote))
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	client, err := New(context.Background(), Config{BaseURL: server.URL, Token: "t"})
	require.NoError(t, err)
	server.Close()

	_, err = client.Likes(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemote))
}
