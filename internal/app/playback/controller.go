package playback

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cantio/internal/app/player"
	"github.com/osa030/cantio/internal/domain/track"
	"github.com/osa030/cantio/internal/infra/config"
)

// Errors
var (
	ErrNoTrack          = errors.New("no track loaded")
	ErrPlayerNotReady   = errors.New("player not ready")
	ErrPlayerInitFailed = errors.New("player init failed")
)

const initFailedMessage = "player init failed: restart required"

// Config holds controller configuration.
type Config struct {
	ProgressInterval  time.Duration   // Position polling period while playing
	WatchdogInterval  time.Duration   // Background-resume watchdog period
	ResumeDelays      []time.Duration // Force-resume attempts after a background pause
	HiddenCheck       time.Duration   // Delay of the resume check after the surface is hidden
	ErrorAdvanceDelay time.Duration   // How long the error state is shown before advancing
	RetryDelay        time.Duration   // Delay before retrying a transient failure
	RestartThreshold  float64         // Seconds after which prev restarts the track
	InitTimeout       time.Duration   // How long Start waits for the player
	Volume            float64         // Initial volume in [0, 1]
}

// DefaultConfig returns the controller defaults.
func DefaultConfig() Config {
	return Config{
		ProgressInterval:  250 * time.Millisecond,
		WatchdogInterval:  time.Second,
		ResumeDelays:      []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 200 * time.Millisecond},
		HiddenCheck:       80 * time.Millisecond,
		ErrorAdvanceDelay: 2 * time.Second,
		RetryDelay:        time.Second,
		RestartThreshold:  3,
		InitTimeout:       5 * time.Second,
		Volume:            1,
	}
}

// ConfigFrom converts the playback section of the configuration file.
func ConfigFrom(c config.PlaybackConfig) Config {
	return Config{
		ProgressInterval:  config.Millis(c.ProgressIntervalMs),
		WatchdogInterval:  config.Millis(c.WatchdogIntervalMs),
		ResumeDelays:      c.ResumeDelays(),
		HiddenCheck:       config.Millis(c.HiddenCheckMs),
		ErrorAdvanceDelay: config.Millis(c.ErrorAdvanceDelayMs),
		RetryDelay:        config.Millis(c.RetryDelayMs),
		RestartThreshold:  c.RestartThresholdSec,
		InitTimeout:       config.Millis(c.InitTimeoutMs),
		Volume:            c.Volume,
	}
}

// Library is the persisted queue and history the controller drives.
// *cache.Manager implements it.
type Library interface {
	Queue() []track.Track
	LastPlayed() (track.Track, bool)
	AddToQueue(ctx context.Context, t track.Track)
	PrependToQueue(ctx context.Context, t track.Track)
	RemoveFromQueue(ctx context.Context, index int)
	RemoveFirstFromQueue(ctx context.Context, videoID string) bool
	ClearQueue(ctx context.Context)
	ReorderQueue(ctx context.Context, from, to int) error
	PushToReverseQueue(ctx context.Context, t track.Track)
	PopFromReverseQueue(ctx context.Context) (track.Track, bool)
	SetLastPlayed(ctx context.Context, t track.Track)
	MarkTrackAsPlayed(ctx context.Context, videoID string)
}

// HistoryRecorder receives every successfully loaded track.
// Implementations must not block.
type HistoryRecorder interface {
	RecordPlay(t track.Track)
}

// intent is what the user last asked for. The player may disagree with it
// (the OS pauses background media) and the controller works back toward it.
type intent int

const (
	intentNone intent = iota
	intentPlaying
	intentPaused
)

// Controller owns the playback session. All mutating operations are
// serialized by mu, including the adapter commands they issue.
type Controller struct {
	mu sync.RWMutex

	adapter player.Adapter
	library Library
	history HistoryRecorder
	config  Config

	// Readiness
	ready     bool
	readyCh   chan struct{}
	readyOnce sync.Once
	initErr   error

	// Session state
	state        State
	intent       intent
	currentTrack *track.Track
	progress     float64
	duration     float64
	volume       float64
	errMsg       string
	visible      bool

	// generation changes on every load; timers and pollers started for an
	// older generation are stale and do nothing.
	generation uint64
	retried    uint64

	// Timers
	progressCancel func()
	progressToken  *struct{}
	advanceCancel  func() // Pending auto-advance or retry
	resumeCancels  []func()
	hiddenCancel   func()

	// Events
	eventCh chan Event
	closed  bool

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithHistory sets the recorder notified of every played track.
func WithHistory(h HistoryRecorder) Option {
	return func(c *Controller) {
		c.history = h
	}
}

// NewController creates a new playback controller.
func NewController(adapter player.Adapter, library Library, cfg Config, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		adapter: adapter,
		library: library,
		config:  cfg,
		readyCh: make(chan struct{}),
		state:   StateIdle,
		volume:  clamp(cfg.Volume, 0, 1),
		visible: true,
		eventCh: make(chan Event, 64),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Events returns the event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Start brings up the player and waits for it to report ready. On timeout
// the session enters a persistent error state.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.adapter.Start(ctx); err != nil {
		c.failInit(err)
		return errors.Mark(errors.Wrap(err, "failed to start player"), ErrPlayerInitFailed)
	}

	go c.run()

	timer := time.NewTimer(c.config.InitTimeout)
	defer timer.Stop()

	select {
	case <-c.readyCh:
	case <-timer.C:
		c.failInit(errors.Newf("player did not become ready within %v", c.config.InitTimeout))
		return errors.WithStack(ErrPlayerInitFailed)
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	if c.currentTrack == nil {
		if last, ok := c.library.LastPlayed(); ok {
			c.currentTrack = &last
			c.duration = float64(last.Duration)
			zlog.Debug().Msgf("playback: restored last played track: id=%s", last.VideoID)
		}
	}
	if err := c.adapter.SetVolume(ctx, c.volume); err != nil {
		zlog.Warn().Err(err).Msg("playback: failed to apply initial volume")
	}
	c.sendEventLocked(EventStateChanged)
	c.mu.Unlock()

	go c.watchdog()

	zlog.Info().Msg("playback: player ready")
	return nil
}

func (c *Controller) failInit(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	zlog.Error().Err(err).Msg("playback: player initialization failed")
	c.initErr = errors.Mark(err, ErrPlayerInitFailed)
	c.state = StateError
	c.errMsg = initFailedMessage
	c.sendEventLocked(EventError)
}

// Play loads t and starts it. The previous track, if different, is pushed
// to the history.
func (c *Controller) Play(ctx context.Context, t track.Track) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReadyLocked(); err != nil {
		return err
	}
	return c.playLocked(ctx, t, true)
}

// TogglePlay pauses a playing track, resumes a paused one and replays the
// current track from the idle or error state.
func (c *Controller) TogglePlay(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReadyLocked(); err != nil {
		return err
	}

	switch c.state {
	case StatePlaying, StateLoading:
		return c.pauseLocked(ctx)
	case StatePaused:
		return c.resumeLocked(ctx)
	default:
		if c.currentTrack == nil {
			return ErrNoTrack
		}
		return c.playLocked(ctx, *c.currentTrack, false)
	}
}

// Pause pauses the current playback. Pausing when nothing plays is a no-op.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReadyLocked(); err != nil {
		return err
	}
	return c.pauseLocked(ctx)
}

// Resume resumes paused playback. Resuming when not paused is a no-op.
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReadyLocked(); err != nil {
		return err
	}
	return c.resumeLocked(ctx)
}

// Next plays the head of the queue, or stops and goes idle when the queue
// is empty.
func (c *Controller) Next(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReadyLocked(); err != nil {
		return err
	}
	return c.nextLocked(ctx, false)
}

// Prev restarts the current track once it has played past the restart
// threshold. Otherwise it plays the most recent history entry, returning the
// current track to the front of the queue.
func (c *Controller) Prev(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReadyLocked(); err != nil {
		return err
	}

	if c.currentTrack != nil {
		if pos, err := c.adapter.CurrentTime(ctx); err == nil {
			c.progress = pos
		}
		if c.progress > c.config.RestartThreshold {
			return c.seekLocked(ctx, 0)
		}
	}

	prev, ok := c.library.PopFromReverseQueue(ctx)
	if !ok {
		if c.currentTrack == nil {
			return nil
		}
		return c.seekLocked(ctx, 0)
	}

	if c.currentTrack != nil && !c.currentTrack.Same(prev) {
		c.library.PrependToQueue(ctx, *c.currentTrack)
	}
	return c.playLocked(ctx, prev, false)
}

// Stop stops the player and clears the current track. Queue and history
// are kept.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReadyLocked(); err != nil {
		return err
	}
	return c.stopLocked(ctx, false)
}

// Seek moves the position of the current track. The target is clamped to
// the track duration.
func (c *Controller) Seek(ctx context.Context, seconds float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReadyLocked(); err != nil {
		return err
	}
	if c.currentTrack == nil {
		return ErrNoTrack
	}
	if math.IsNaN(seconds) {
		return errors.Newf("invalid seek position: %v", seconds)
	}
	return c.seekLocked(ctx, seconds)
}

// SetVolume sets the volume, clamped to [0, 1].
func (c *Controller) SetVolume(ctx context.Context, level float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkReadyLocked(); err != nil {
		return err
	}

	level = clamp(level, 0, 1)
	if math.IsNaN(level) {
		level = c.volume
	}
	if err := c.adapter.SetVolume(ctx, level); err != nil {
		return errors.Wrap(err, "failed to set volume")
	}
	c.volume = level
	c.sendEventLocked(EventVolumeChanged)
	return nil
}

// SetVisibility reports whether the playback surface is in the foreground.
// Becoming visible resumes a track the OS paused; becoming hidden schedules
// one check for the same.
func (c *Controller) SetVisibility(ctx context.Context, visible bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hiddenCancel != nil {
		c.hiddenCancel()
		c.hiddenCancel = nil
	}
	c.visible = visible
	if !c.ready || c.initErr != nil {
		return
	}

	if visible {
		c.ensurePlayingLocked(ctx, "visible")
		return
	}

	gen := c.generation
	c.hiddenCancel = c.startTimer(c.config.HiddenCheck, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen || c.visible {
			return
		}
		c.hiddenCancel = nil
		c.ensurePlayingLocked(c.ctx, "hidden")
	})
}

// AddToQueue appends t to the queue.
func (c *Controller) AddToQueue(ctx context.Context, t track.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.library.AddToQueue(ctx, t)
	c.sendEventLocked(EventQueueChanged)
}

// RemoveFromQueue removes the entry at index. Out-of-range indexes are ignored.
func (c *Controller) RemoveFromQueue(ctx context.Context, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.library.RemoveFromQueue(ctx, index)
	c.sendEventLocked(EventQueueChanged)
}

// ReorderQueue moves the entry at from to position to.
func (c *Controller) ReorderQueue(ctx context.Context, from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.library.ReorderQueue(ctx, from, to); err != nil {
		return err
	}
	c.sendEventLocked(EventQueueChanged)
	return nil
}

// ClearQueue empties the queue.
func (c *Controller) ClearQueue(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.library.ClearQueue(ctx)
	c.sendEventLocked(EventQueueChanged)
}

// Snapshot returns the session state including the queue.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.snapshotLocked()
	s.Queue = c.library.Queue()
	return s
}

// GetState returns the playback state.
func (c *Controller) GetState() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// GetCurrentTrack returns the loaded track.
func (c *Controller) GetCurrentTrack() (track.Track, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.currentTrack == nil {
		return track.Track{}, false
	}
	return *c.currentTrack, true
}

// Close stops every timer and closes the event channel. The adapter is
// owned by the caller.
func (c *Controller) Close() {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelTimersLocked()
	c.stopProgressLocked()
	if c.hiddenCancel != nil {
		c.hiddenCancel()
		c.hiddenCancel = nil
	}
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
}

func (c *Controller) checkReadyLocked() error {
	if c.initErr != nil {
		return c.initErr
	}
	if !c.ready {
		return errors.WithStack(ErrPlayerNotReady)
	}
	return nil
}

// playLocked makes t the current track and loads it.
// Must be called with lock held.
func (c *Controller) playLocked(ctx context.Context, t track.Track, addToHistory bool) error {
	if addToHistory && c.currentTrack != nil && !c.currentTrack.Same(t) {
		c.library.PushToReverseQueue(ctx, *c.currentTrack)
	}
	c.library.RemoveFirstFromQueue(ctx, t.VideoID)

	c.cancelTimersLocked()
	c.stopProgressLocked()
	c.generation++

	c.currentTrack = &t
	c.state = StateLoading
	c.intent = intentPlaying
	c.progress = 0
	c.duration = float64(t.Duration)
	c.errMsg = ""

	zlog.Debug().Msgf("playback: loading track: id=%s title=%s", t.VideoID, t.Title)

	if err := c.adapter.Load(ctx, t.VideoID, 0); err != nil {
		zlog.Error().Err(err).Msgf("playback: failed to load track: id=%s", t.VideoID)
		c.failLocked("failed to play track")
		return nil
	}

	c.library.SetLastPlayed(ctx, t)
	c.library.MarkTrackAsPlayed(ctx, t.VideoID)
	if c.history != nil {
		c.history.RecordPlay(t)
	}

	c.sendEventLocked(EventTrackChanged)
	return nil
}

// nextLocked plays the head of the queue or goes idle.
// Must be called with lock held.
func (c *Controller) nextLocked(ctx context.Context, keepError bool) error {
	queue := c.library.Queue()
	if len(queue) > 0 {
		return c.playLocked(ctx, queue[0], true)
	}
	return c.stopLocked(ctx, keepError)
}

// stopLocked stops the player and clears the current track.
// Must be called with lock held.
func (c *Controller) stopLocked(ctx context.Context, keepError bool) error {
	c.cancelTimersLocked()
	c.stopProgressLocked()
	c.generation++

	if err := c.adapter.Stop(ctx); err != nil {
		zlog.Warn().Err(err).Msg("playback: failed to stop player")
	}

	hadTrack := c.currentTrack != nil
	c.currentTrack = nil
	c.state = StateIdle
	c.intent = intentNone
	c.progress = 0
	c.duration = 0
	if !keepError {
		c.errMsg = ""
	}

	if hadTrack {
		c.sendEventLocked(EventTrackChanged)
	} else {
		c.sendEventLocked(EventStateChanged)
	}
	return nil
}

func (c *Controller) pauseLocked(ctx context.Context) error {
	if c.state != StatePlaying && c.state != StateLoading {
		return nil
	}

	c.intent = intentPaused
	c.cancelResumeLocked()
	if err := c.adapter.Pause(ctx); err != nil {
		return errors.Wrap(err, "failed to pause")
	}

	c.state = StatePaused
	c.stopProgressLocked()
	c.sendEventLocked(EventStateChanged)
	return nil
}

func (c *Controller) resumeLocked(ctx context.Context) error {
	if c.state != StatePaused {
		return nil
	}

	c.intent = intentPlaying
	if err := c.adapter.Play(ctx); err != nil {
		return errors.Wrap(err, "failed to resume")
	}

	c.state = StatePlaying
	c.startProgressLocked()
	c.sendEventLocked(EventStateChanged)
	return nil
}

func (c *Controller) seekLocked(ctx context.Context, seconds float64) error {
	upper := c.duration
	if upper <= 0 {
		upper = math.Inf(1)
	}
	seconds = clamp(seconds, 0, upper)

	if err := c.adapter.Seek(ctx, seconds); err != nil {
		return errors.Wrap(err, "failed to seek")
	}
	c.progress = seconds
	c.sendEventLocked(EventProgress)
	return nil
}

// failLocked enters the error state and schedules an advance, keeping the
// message visible after the advance.
// Must be called with lock held.
func (c *Controller) failLocked(msg string) {
	c.stopProgressLocked()
	c.state = StateError
	c.errMsg = msg
	c.sendEventLocked(EventError)

	gen := c.generation
	c.advanceCancel = c.startTimer(c.config.ErrorAdvanceDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generation != gen {
			return
		}
		c.advanceCancel = nil
		_ = c.nextLocked(c.ctx, true)
	})
}

// ensurePlayingLocked resumes the player when the user wants playback but
// the player reports paused.
// Must be called with lock held.
func (c *Controller) ensurePlayingLocked(ctx context.Context, reason string) {
	if c.intent != intentPlaying || c.currentTrack == nil {
		return
	}
	st, err := c.adapter.PlayerState(ctx)
	if err != nil || st != player.StatePaused {
		return
	}
	zlog.Debug().Msgf("playback: resuming paused player: reason=%s", reason)
	if err := c.adapter.Play(ctx); err != nil {
		zlog.Warn().Err(err).Msg("playback: resume failed")
	}
}

func (c *Controller) run() {
	events := c.adapter.Events()
	for {
		select {
		case <-c.ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			c.handleEvent(e)
		}
	}
}

// handleEvent applies one adapter event to the session.
func (c *Controller) handleEvent(e player.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	zlog.Debug().Msgf("playback: player event: %s state=%s", e, c.state)

	if e.Type == player.EventReady {
		if c.initErr != nil {
			return
		}
		c.ready = true
		c.readyOnce.Do(func() { close(c.readyCh) })
		return
	}
	if c.currentTrack == nil {
		return
	}

	switch e.Type {
	case player.EventPlaying:
		c.cancelResumeLocked()
		c.state = StatePlaying
		c.intent = intentPlaying
		c.errMsg = ""
		c.startProgressLocked()
		c.sendEventLocked(EventStateChanged)

	case player.EventPaused:
		if !c.visible && c.intent == intentPlaying {
			// The OS paused background media; stay playing and fight back.
			zlog.Debug().Msg("playback: suppressing background pause")
			c.scheduleResumeLocked()
			return
		}
		c.state = StatePaused
		c.intent = intentPaused
		c.stopProgressLocked()
		c.sendEventLocked(EventStateChanged)

	case player.EventBuffering:
		if c.state == StateLoading {
			return
		}
		c.state = StateLoading
		c.sendEventLocked(EventStateChanged)

	case player.EventEnded:
		_ = c.nextLocked(c.ctx, false)

	case player.EventError:
		c.handleErrorLocked(e.Code)
	}
}

func (c *Controller) handleErrorLocked(code player.ErrorCode) {
	current := *c.currentTrack
	zlog.Warn().Msgf("playback: player error: id=%s code=%d msg=%s", current.VideoID, code, code.Message())

	c.cancelTimersLocked()
	c.stopProgressLocked()

	if code.Transient() && c.retried != c.generation {
		c.retried = c.generation
		c.state = StateLoading
		c.sendEventLocked(EventStateChanged)

		gen := c.generation
		c.advanceCancel = c.startTimer(c.config.RetryDelay, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.generation != gen {
				return
			}
			c.advanceCancel = nil
			zlog.Info().Msgf("playback: retrying track: id=%s", current.VideoID)
			if err := c.adapter.Load(c.ctx, current.VideoID, 0); err != nil {
				zlog.Error().Err(err).Msgf("playback: retry failed: id=%s", current.VideoID)
				c.failLocked("failed to play track")
			}
		})
		return
	}

	if len(c.library.Queue()) > 0 {
		zlog.Info().Msgf("playback: skipping unplayable track: id=%s", current.VideoID)
		_ = c.nextLocked(c.ctx, false)
		return
	}
	c.failLocked(code.Message())
}

// scheduleResumeLocked issues Play at each configured resume delay while
// the user still wants playback of the same load.
// Must be called with lock held.
func (c *Controller) scheduleResumeLocked() {
	c.cancelResumeLocked()
	gen := c.generation
	for _, d := range c.config.ResumeDelays {
		c.resumeCancels = append(c.resumeCancels, c.startTimer(d, func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.generation != gen || c.intent != intentPlaying {
				return
			}
			if c.state != StatePlaying && c.state != StateLoading {
				return
			}
			if err := c.adapter.Play(c.ctx); err != nil {
				zlog.Warn().Err(err).Msg("playback: force resume failed")
			}
		}))
	}
}

func (c *Controller) cancelResumeLocked() {
	for _, cancel := range c.resumeCancels {
		cancel()
	}
	c.resumeCancels = nil
}

// cancelTimersLocked cancels pending advances and resume attempts.
// Must be called with lock held.
func (c *Controller) cancelTimersLocked() {
	if c.advanceCancel != nil {
		c.advanceCancel()
		c.advanceCancel = nil
	}
	c.cancelResumeLocked()
}

// startProgressLocked starts the position poller unless one is running.
// The poller exits on its own once the state leaves playing or another
// track is loaded.
// Must be called with lock held.
func (c *Controller) startProgressLocked() {
	if c.progressCancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(c.ctx)
	token := &struct{}{}
	gen := c.generation
	c.progressCancel = cancel
	c.progressToken = token

	go func() {
		ticker := time.NewTicker(c.config.ProgressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !c.pollProgress(gen, token) {
					return
				}
			}
		}
	}()
}

func (c *Controller) pollProgress(gen uint64, token *struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.progressToken != token {
		return false
	}
	if c.state != StatePlaying || c.generation != gen {
		c.stopProgressLocked()
		return false
	}

	if pos, err := c.adapter.CurrentTime(c.ctx); err == nil {
		c.progress = pos
	}
	if d, err := c.adapter.Duration(c.ctx); err == nil && d > 0 {
		c.duration = d
	}
	c.sendEventLocked(EventProgress)
	return true
}

func (c *Controller) stopProgressLocked() {
	if c.progressCancel != nil {
		c.progressCancel()
		c.progressCancel = nil
	}
	c.progressToken = nil
}

// watchdog resumes playback the OS paused while the surface is hidden and
// no event reported it.
func (c *Controller) watchdog() {
	ticker := time.NewTicker(c.config.WatchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if !c.visible && c.intent == intentPlaying && c.currentTrack != nil {
				c.ensurePlayingLocked(c.ctx, "watchdog")
			}
			c.mu.Unlock()
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:    c.state,
		Progress: c.progress,
		Duration: c.duration,
		Volume:   c.volume,
		Error:    c.errMsg,
		Visible:  c.visible,
		Ready:    c.ready,
	}
	if c.currentTrack != nil {
		t := *c.currentTrack
		s.Track = &t
	}
	return s
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(t EventType) {
	if c.closed {
		return
	}
	e := Event{Type: t, Snapshot: c.snapshotLocked()}
	select {
	case c.eventCh <- e:
	case <-c.ctx.Done():
	default:
		zlog.Debug().Msgf("playback: event channel full, dropping %s", t)
	}
}

// startTimer runs callback once after duration unless cancelled first.
// Returns a cancel function.
func (c *Controller) startTimer(duration time.Duration, callback func()) func() {
	ctx, cancel := context.WithCancel(c.ctx)

	go func() {
		timer := time.NewTimer(duration)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
			callback()
		}
	}()

	return cancel
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
