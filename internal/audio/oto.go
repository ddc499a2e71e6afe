// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"

	"stemviz/internal/log"

	"github.com/hajimehoshi/oto/v2"
)

// otoNewContext is replaced in tests.
var otoNewContext = oto.NewContext

// OtoPlayer plays the mix through the platform audio API via oto.
type OtoPlayer struct {
	mixer  *Mixer
	ctx    *oto.Context
	player oto.Player
}

// NewOtoPlayer creates the oto context and waits until it is ready. oto
// allows one context per process.
func NewOtoPlayer(mixer *Mixer) (*OtoPlayer, error) {
	ctx, ready, err := otoNewContext(mixer.SampleRate(), 2, oto.FormatFloat32LE)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready
	return &OtoPlayer{mixer: mixer, ctx: ctx}, nil
}

// Name identifies the backend.
func (p *OtoPlayer) Name() string { return "oto" }

// Start begins playback of the mixer stream.
func (p *OtoPlayer) Start() error {
	p.player = p.ctx.NewPlayer(p.mixer.Reader())
	p.player.Play()
	log.Infof("Oto: playing at %d Hz", p.mixer.SampleRate())
	return nil
}

// Close stops playback. Safe to call when not started.
func (p *OtoPlayer) Close() error {
	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}
