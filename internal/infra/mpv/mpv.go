package mpv

import (
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cantio/internal/app/player"
	"github.com/osa030/cantio/internal/domain/track"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 150 * time.Millisecond
	quitGrace         = 3 * time.Second
)

// Player implements player.Adapter on top of an mpv process.
type Player struct {
	settings Settings
	ipc      *ipcClient
	tracker  tracker

	mu      sync.Mutex
	cmd     *exec.Cmd
	exited  chan struct{} // closed when the mpv process exits
	conn    net.Conn      // event connection
	events  chan player.Event
	done    chan struct{}
	closed  bool
	started bool
}

var _ player.Adapter = (*Player)(nil)

// New creates an mpv player. The process is launched by Start.
func New(settings Settings) *Player {
	return &Player{
		settings: settings,
		events:   make(chan player.Event, 64),
		done:     make(chan struct{}),
	}
}

// NewFromSettings creates an mpv player from the free-form settings map.
func NewFromSettings(settings map[string]any) (*Player, error) {
	s, err := ParseSettings(settings)
	if err != nil {
		return nil, err
	}
	return New(s), nil
}

// Start launches mpv in idle mode, waits for its IPC socket and emits
// EventReady once the event connection is subscribed.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.WithStack(player.ErrClosed)
	}
	if p.started {
		return nil
	}

	socketPath := p.settings.SocketPath
	if socketPath == "" {
		socketPath = filepath.Join(os.TempDir(), "cantio-"+uuid.NewString()[:8]+".sock")
	}
	_ = os.Remove(socketPath)

	args := []string{
		"--idle=yes",
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + socketPath,
	}
	if p.settings.YtdlFormat != "" {
		args = append(args, "--ytdl-format="+p.settings.YtdlFormat)
	}
	args = append(args, p.settings.ExtraArgs...)

	cmd := exec.Command(p.settings.Binary, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to start %s", p.settings.Binary)
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	p.cmd = cmd
	p.exited = exited

	if err := waitForSocket(ctx, socketPath, exited); err != nil {
		select {
		case <-exited:
		default:
			zlog.Warn().Msg("mpv: killing process, socket never became ready")
			_ = cmd.Process.Kill()
		}
		return errors.Wrap(err, "mpv socket not ready")
	}

	zlog.Info().Msgf("mpv: started: pid=%d socket=%s", cmd.Process.Pid, socketPath)
	return p.attachLocked(ctx, socketPath)
}

// attachLocked connects to a running mpv on socketPath.
// Must be called with lock held.
func (p *Player) attachLocked(ctx context.Context, socketPath string) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return errors.Wrap(err, "event connection")
	}
	if err := subscribe(conn); err != nil {
		_ = conn.Close()
		return err
	}

	p.ipc = &ipcClient{socketPath: socketPath}
	p.conn = conn
	p.started = true

	go func() {
		readLoop(conn, &p.tracker, p.emit)
		select {
		case <-p.done:
			zlog.Debug().Msg("mpv: event loop stopped")
		default:
			zlog.Error().Msg("mpv: event connection lost")
			<-p.done
		}
		close(p.events)
	}()

	p.emit(player.Ready())
	return nil
}

func (p *Player) emit(e player.Event) {
	select {
	case p.events <- e:
	case <-p.done:
	}
}

// Events implements player.Adapter.
func (p *Player) Events() <-chan player.Event {
	return p.events
}

func (p *Player) client() (*ipcClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, errors.WithStack(player.ErrClosed)
	}
	if p.ipc == nil {
		return nil, errors.WithStack(player.ErrNotReady)
	}
	return p.ipc, nil
}

// Load implements player.Adapter. Playback starts as soon as the file opens.
func (p *Player) Load(ctx context.Context, videoID string, startSeconds float64) error {
	c, err := p.client()
	if err != nil {
		return err
	}
	// Pause changes belong to the outgoing file until start-file arrives.
	p.tracker.reset()
	if err := c.set(ctx, "pause", false); err != nil {
		return errors.Wrap(err, "failed to unpause")
	}
	if err := c.set(ctx, "start", startOption(startSeconds)); err != nil {
		return errors.Wrap(err, "failed to set start position")
	}
	if _, err := c.send(ctx, "loadfile", track.Track{VideoID: videoID}.WatchURL(), "replace"); err != nil {
		return errors.Wrapf(err, "failed to load %s", videoID)
	}
	return nil
}

func startOption(seconds float64) string {
	if seconds <= 0 {
		return "none"
	}
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}

// Play implements player.Adapter.
func (p *Player) Play(ctx context.Context) error {
	c, err := p.client()
	if err != nil {
		return err
	}
	return c.set(ctx, "pause", false)
}

// Pause implements player.Adapter.
func (p *Player) Pause(ctx context.Context) error {
	c, err := p.client()
	if err != nil {
		return err
	}
	return c.set(ctx, "pause", true)
}

// Stop implements player.Adapter.
func (p *Player) Stop(ctx context.Context) error {
	c, err := p.client()
	if err != nil {
		return err
	}
	if _, err := c.send(ctx, "stop"); err != nil {
		return err
	}
	p.tracker.reset()
	return nil
}

// Seek implements player.Adapter.
func (p *Player) Seek(ctx context.Context, seconds float64) error {
	c, err := p.client()
	if err != nil {
		return err
	}
	_, err = c.send(ctx, "seek", seconds, "absolute")
	return err
}

// SetVolume implements player.Adapter. mpv volume runs 0-100.
func (p *Player) SetVolume(ctx context.Context, level float64) error {
	c, err := p.client()
	if err != nil {
		return err
	}
	return c.set(ctx, "volume", level*100)
}

// CurrentTime implements player.Adapter. It is 0 while nothing is loaded.
func (p *Player) CurrentTime(ctx context.Context) (float64, error) {
	c, err := p.client()
	if err != nil {
		return 0, err
	}
	return c.getFloat(ctx, "time-pos")
}

// Duration implements player.Adapter. It is 0 while unknown.
func (p *Player) Duration(ctx context.Context) (float64, error) {
	c, err := p.client()
	if err != nil {
		return 0, err
	}
	return c.getFloat(ctx, "duration")
}

// PlayerState implements player.Adapter.
func (p *Player) PlayerState(context.Context) (player.State, error) {
	if _, err := p.client(); err != nil {
		return player.StateUnstarted, err
	}
	return p.tracker.state(), nil
}

// Close asks mpv to quit and kills it when it does not exit in time.
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.done)
	ipc, conn, cmd, exited := p.ipc, p.conn, p.cmd, p.exited
	p.mu.Unlock()

	if ipc != nil && cmd != nil {
		ctx, cancel := context.WithTimeout(context.Background(), readDeadline)
		_, _ = ipc.send(ctx, "quit")
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	} else {
		close(p.events)
	}
	if cmd != nil {
		select {
		case <-exited:
		case <-time.After(quitGrace):
			zlog.Warn().Msg("mpv: process did not quit, killing")
			_ = cmd.Process.Kill()
		}
		if ipc != nil {
			_ = os.Remove(ipc.socketPath)
		}
	}
	return nil
}

// waitForSocket polls until the IPC socket accepts connections.
func waitForSocket(ctx context.Context, socketPath string, exited <-chan struct{}) error {
	for i := 0; i < socketWaitRetries; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-exited:
			return errors.New("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			_ = conn.Close()
			return nil
		}
	}
	return errors.Newf("socket %s not ready after %d attempts", socketPath, socketWaitRetries)
}
