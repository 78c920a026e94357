package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	maxRetries   = 3
	retryDelay   = 100 * time.Millisecond
	readDeadline = 1 * time.Second
)

// errReply marks an error reported by mpv itself. Those are not retried.
var errReply = errors.New("mpv replied with an error")

// errUnavailable is mpv's reply for properties without a value, such as
// time-pos while idle.
var errUnavailable = errors.New("property unavailable")

// ipcCommand is the JSON structure sent to mpv's IPC socket.
type ipcCommand struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id,omitempty"`
}

// message is any line mpv writes: a command reply or an event.
type message struct {
	RequestID int64           `json:"request_id"`
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	Event     string          `json:"event"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
}

// ipcClient issues one command per connection. Events mpv broadcasts to
// the connection are skipped by request_id.
type ipcClient struct {
	socketPath string
	nextID     atomic.Int64
}

func (c *ipcClient) send(ctx context.Context, command ...any) (json.RawMessage, error) {
	id := c.nextID.Add(1)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		data, err := doSendCommand(ctx, c.socketPath, id, command)
		if err == nil {
			return data, nil
		}
		if errors.Is(err, errReply) {
			return nil, err
		}
		lastErr = err
	}

	return nil, errors.Wrapf(lastErr, "ipc command %v failed after %d attempts", command[0], maxRetries)
}

// doSendCommand performs a single IPC command attempt.
func doSendCommand(ctx context.Context, socketPath string, id int64, command []any) (json.RawMessage, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	defer conn.Close()

	payload, err := json.Marshal(ipcCommand{Command: command, RequestID: id})
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return nil, errors.Wrap(err, "write")
	}

	deadline := time.Now().Add(readDeadline)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "set deadline")
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}
		if msg.Event != "" || msg.RequestID != id {
			continue
		}
		switch msg.Error {
		case "success", "":
			return msg.Data, nil
		case errUnavailable.Error():
			return nil, errors.Mark(errors.WithStack(errUnavailable), errReply)
		default:
			return nil, errors.Mark(errors.Newf("mpv error: %s", msg.Error), errReply)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read")
	}
	return nil, errors.New("read: connection closed before reply")
}

func (c *ipcClient) getFloat(ctx context.Context, property string) (float64, error) {
	data, err := c.send(ctx, "get_property", property)
	if err != nil {
		if errors.Is(err, errUnavailable) {
			return 0, nil
		}
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, errors.Wrapf(err, "decode %s", property)
	}
	return v, nil
}

func (c *ipcClient) set(ctx context.Context, property string, value any) error {
	_, err := c.send(ctx, "set_property", property, value)
	return err
}
