// Package mpv drives an mpv process over its JSON IPC socket and exposes it
// as a player.Adapter.
package mpv

import (
	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Settings is the player.settings section for the mpv adapter.
type Settings struct {
	Binary     string   `yaml:"binary" mapstructure:"binary" default:"mpv" validate:"required"`
	SocketPath string   `yaml:"socket_path" mapstructure:"socket_path"` // generated under the temp dir when empty
	YtdlFormat string   `yaml:"ytdl_format" mapstructure:"ytdl_format" default:"bestaudio/best"`
	ExtraArgs  []string `yaml:"extra_args" mapstructure:"extra_args" validate:"dive,startswith=--"`
}

// ParseSettings decodes the free-form settings map.
func ParseSettings(settings map[string]any) (Settings, error) {
	var s Settings
	if err := mapstructure.Decode(settings, &s); err != nil {
		return Settings{}, errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(&s); err != nil {
		return Settings{}, errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(s); err != nil {
		return Settings{}, errors.Wrap(err, "validation failed")
	}
	return s, nil
}
