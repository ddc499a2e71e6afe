// SPDX-License-Identifier: MIT
/*
Package audio decodes a song's stems, mixes them for playback and captures
each stem into an analyser tap.

Thread Safety:
  - The playback backend calls Mixer.Read from its own thread
  - Taps guard their ring buffers with a short mutex section
  - The recorder uses an atomic flag so an idle tee costs one load
*/
package audio

import (
	"fmt"

	"stemviz/internal/config"
)

// Player is a playback backend pulling from a Mixer.
type Player interface {
	Name() string
	Start() error
	Close() error
}

var (
	_ Player = (*PortAudioPlayer)(nil)
	_ Player = (*OtoPlayer)(nil)
	_ Player = (*NullPlayer)(nil)
)

// NewPlayer builds the backend named by cfg.Audio.Backend.
func NewPlayer(cfg *config.Config, mixer *Mixer) (Player, error) {
	var (
		p   Player
		err error
	)
	switch cfg.Audio.Backend {
	case "portaudio":
		p, err = NewPortAudioPlayer(cfg, mixer)
	case "oto":
		p, err = NewOtoPlayer(mixer)
	case "null":
		p = NewNullPlayer(mixer, cfg.FrameInterval())
	default:
		err = fmt.Errorf("unknown audio backend %q", cfg.Audio.Backend)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
