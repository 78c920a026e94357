package mpv

import (
	"bufio"
	"encoding/json"
	"net"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cantio/internal/app/player"
)

// observed are the properties subscribed on the event connection.
var observed = []string{"pause", "paused-for-cache"}

// tracker folds mpv's property changes and events into the normalized
// player state and event stream.
type tracker struct {
	mu        sync.Mutex
	loaded    bool // a file is open
	paused    bool
	buffering bool
	ended     bool
}

// apply returns the normalized event for msg, if any.
func (t *tracker) apply(msg message) (player.Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch msg.Event {
	case "start-file":
		t.loaded = true
		t.ended = false
		t.buffering = true
		return player.Buffering(), true

	case "playback-restart":
		if !t.loaded {
			return player.Event{}, false
		}
		t.buffering = false
		if t.paused {
			return player.Paused(), true
		}
		return player.Playing(), true

	case "end-file":
		t.loaded = false
		t.buffering = false
		switch msg.Reason {
		case "eof":
			t.ended = true
			return player.Ended(), true
		case "error":
			return player.Failed(errorCode(msg.FileError)), true
		}
		return player.Event{}, false

	case "property-change":
		var on bool
		if err := json.Unmarshal(msg.Data, &on); err != nil {
			return player.Event{}, false
		}
		switch msg.Name {
		case "pause":
			if on == t.paused {
				return player.Event{}, false
			}
			t.paused = on
			if !t.loaded || t.buffering {
				return player.Event{}, false
			}
			if on {
				return player.Paused(), true
			}
			return player.Playing(), true

		case "paused-for-cache":
			if on == t.buffering || !t.loaded {
				return player.Event{}, false
			}
			t.buffering = on
			if on {
				return player.Buffering(), true
			}
			if t.paused {
				return player.Paused(), true
			}
			return player.Playing(), true
		}
	}
	return player.Event{}, false
}

func (t *tracker) state() player.State {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.ended:
		return player.StateEnded
	case !t.loaded:
		return player.StateUnstarted
	case t.buffering:
		return player.StateBuffering
	case t.paused:
		return player.StatePaused
	default:
		return player.StatePlaying
	}
}

func (t *tracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaded = false
	t.buffering = false
	t.ended = false
}

// errorCode maps mpv's end-file error text onto player error codes.
func errorCode(fileError string) player.ErrorCode {
	e := strings.ToLower(fileError)
	switch {
	case strings.Contains(e, "not found"), strings.Contains(e, "no such file"):
		return player.CodeNotFound
	case strings.Contains(e, "unrecognized file format"):
		return player.CodeNotEmbeddable
	case e == "":
		return player.CodeUnknown
	default:
		return player.CodeLoadFailed
	}
}

// subscribe registers the property observers on conn. The observers live as
// long as the connection.
func subscribe(conn net.Conn) error {
	for i, name := range observed {
		payload, err := json.Marshal(ipcCommand{Command: []any{"observe_property", i + 1, name}})
		if err != nil {
			return errors.Wrap(err, "marshal")
		}
		if _, err := conn.Write(append(payload, '\n')); err != nil {
			return errors.Wrapf(err, "observe %s", name)
		}
	}
	return nil
}

// readLoop forwards every normalized event read from conn until it fails.
func readLoop(conn net.Conn, t *tracker, emit func(player.Event)) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			zlog.Debug().Msgf("mpv: skipping unparseable line: %s", scanner.Text())
			continue
		}
		if msg.Event == "" {
			continue
		}
		if e, ok := t.apply(msg); ok {
			emit(e)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		zlog.Warn().Err(err).Msg("mpv: event connection read failed")
	}
}
