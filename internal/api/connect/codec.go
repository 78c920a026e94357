// Package connect provides the Connect RPC surface of the playback service.
package connect

import (
	"encoding/json"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
)

// codecName replaces connect's protojson codec so messages can be plain Go
// structs.
const codecName = "json"

// jsonCodec marshals messages with encoding/json.
type jsonCodec struct{}

var _ connect.Codec = jsonCodec{}

func (jsonCodec) Name() string { return codecName }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	return data, errors.Wrap(err, "failed to marshal message")
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, msg), "failed to unmarshal message")
}

// WithJSON is the codec option every handler and client of this package
// must use.
func WithJSON() connect.Option {
	return connect.WithCodec(jsonCodec{})
}
