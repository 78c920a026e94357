// Package api provides a client for the cantio remote API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/cantio/internal/domain/track"
)

// Errors
var (
	// ErrRemote marks every failure of a remote call.
	ErrRemote       = errors.New("remote api failure")
	ErrUnauthorized = errors.New("remote api rejected the token")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api status %d", e.Code)
	}
	return fmt.Sprintf("remote api status %d: %s", e.Code, e.Message)
}

// Client is a remote API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config represents remote API client configuration.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// record is the remote representation of a track.
type record struct {
	TrackID   string `json:"trackId"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail"`
	Duration  int    `json:"duration"`
}

func toRecord(t track.Track) record {
	return record{
		TrackID:   t.VideoID,
		Title:     t.Title,
		Artist:    t.Artist,
		Thumbnail: t.Thumbnail,
		Duration:  t.Duration,
	}
}

func (r record) track() track.Track {
	return track.Track{
		VideoID:   r.TrackID,
		Title:     r.Title,
		Artist:    r.Artist,
		Thumbnail: r.Thumbnail,
		Duration:  r.Duration,
	}
}

func tracks(records []record) []track.Track {
	out := make([]track.Track, 0, len(records))
	for _, r := range records {
		if r.TrackID == "" {
			continue
		}
		out = append(out, r.track())
	}
	return out
}

// likesResponse represents the response from GET /likes.
type likesResponse struct {
	LikedTracks []record `json:"likedTracks"`
}

// historyResponse represents the response from GET /history.
type historyResponse struct {
	History []record `json:"history"`
}

// searchResponse represents the response from GET /search.
type searchResponse struct {
	Results []track.Track `json:"results"`
}

// errorResponse is the error body the remote API returns.
type errorResponse struct {
	Error string `json:"error"`
}

// New creates a new remote API client authenticating with a bearer token.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("remote api base url is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("remote api token is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cfg.Token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = cfg.Timeout

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Like records t as liked. Liking an already liked track succeeds.
func (c *Client) Like(ctx context.Context, t track.Track) error {
	err := c.do(ctx, http.MethodPost, "/likes", nil, toRecord(t), nil)
	if status(err) == http.StatusConflict {
		zlog.Debug().Msgf("api: track already liked: id=%s", t.VideoID)
		return nil
	}
	return err
}

// Unlike removes the like for videoID. Unliking a track that is not liked
// succeeds.
func (c *Client) Unlike(ctx context.Context, videoID string) error {
	err := c.do(ctx, http.MethodDelete, "/likes/"+url.PathEscape(videoID), nil, nil, nil)
	if status(err) == http.StatusNotFound {
		zlog.Debug().Msgf("api: track was not liked: id=%s", videoID)
		return nil
	}
	return err
}

// Likes returns the liked tracks, most recent first.
func (c *Client) Likes(ctx context.Context) ([]track.Track, error) {
	var resp likesResponse
	if err := c.do(ctx, http.MethodGet, "/likes", nil, nil, &resp); err != nil {
		return nil, err
	}
	return tracks(resp.LikedTracks), nil
}

// RecordPlay appends t to the remote play history.
func (c *Client) RecordPlay(ctx context.Context, t track.Track) error {
	return c.do(ctx, http.MethodPost, "/history", nil, toRecord(t), nil)
}

// History returns up to limit recently played tracks, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]track.Track, error) {
	if limit <= 0 {
		limit = 50
	}
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var resp historyResponse
	if err := c.do(ctx, http.MethodGet, "/history", params, nil, &resp); err != nil {
		return nil, err
	}
	return tracks(resp.History), nil
}

// Search returns up to limit tracks matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("search query is required")
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.do(ctx, http.MethodGet, "/search", params, nil, &resp); err != nil {
		return nil, err
	}
	results := make([]track.Track, 0, len(resp.Results))
	for _, t := range resp.Results {
		if t.VideoID != "" {
			results = append(results, t)
		}
	}
	return results, nil
}

// do sends one request and decodes the JSON response into out when non-nil.
// Every returned error is marked with ErrRemote.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, in, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "failed to encode request")
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "%s %s", method, path), ErrRemote)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to read response body"), ErrRemote)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		_ = json.Unmarshal(data, &apiErr)
		var statusErr error = &StatusError{Code: resp.StatusCode, Message: apiErr.Error}
		if resp.StatusCode == http.StatusUnauthorized {
			statusErr = errors.Mark(statusErr, ErrUnauthorized)
		}
		return errors.Mark(errors.Wrapf(statusErr, "%s %s", method, path), ErrRemote)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to parse response"), ErrRemote)
	}
	return nil
}

// status returns the HTTP status carried by err, or 0.
func status(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
