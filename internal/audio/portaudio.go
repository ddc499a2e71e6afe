// SPDX-License-Identifier: MIT
package audio

import (
	"runtime"
	"time"

	"stemviz/internal/config"
	"stemviz/internal/log"

	"github.com/gordonklaus/portaudio"
)

// paOpenStream is replaced in tests.
var paOpenStream = portaudio.OpenStream

// PortAudioPlayer streams the mix to a PortAudio output device.
// PortAudio must be initialized before Start.
type PortAudioPlayer struct {
	mixer *Mixer

	outputDevice    *portaudio.DeviceInfo
	outputLatency   time.Duration
	framesPerBuffer int
	sampleRate      float64

	outputStream *portaudio.Stream
}

// NewPortAudioPlayer resolves the configured output device.
func NewPortAudioPlayer(cfg *config.Config, mixer *Mixer) (*PortAudioPlayer, error) {
	device, err := OutputDevice(cfg.Audio.OutputDevice)
	if err != nil {
		return nil, err
	}

	p := &PortAudioPlayer{
		mixer:           mixer,
		outputDevice:    device,
		framesPerBuffer: cfg.Audio.FramesPerBuffer,
		sampleRate:      float64(mixer.SampleRate()),
	}
	if cfg.Audio.LowLatency {
		p.outputLatency = device.DefaultLowOutputLatency
	} else {
		p.outputLatency = device.DefaultHighOutputLatency
	}
	return p, nil
}

// Name identifies the backend.
func (p *PortAudioPlayer) Name() string { return "portaudio" }

// Start opens a stereo float32 output stream and begins pulling from the mixer.
func (p *PortAudioPlayer) Start() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 0, // No input device
			Device:   nil,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 2,
			Device:   p.outputDevice,
			Latency:  p.outputLatency,
		},
		FramesPerBuffer: p.framesPerBuffer,
		SampleRate:      p.sampleRate,
	}

	stream, err := paOpenStream(params, p.processOutputStream)
	if err != nil {
		return err
	}
	p.outputStream = stream

	if err := p.outputStream.Start(); err != nil {
		p.outputStream.Close()
		p.outputStream = nil
		return err
	}

	log.Infof("PortAudio: playing on %q (%.0f Hz, %d frames/buffer, latency %v)",
		p.outputDevice.Name, p.sampleRate, p.framesPerBuffer, p.outputLatency)
	return nil
}

// Close stops and closes the stream. Safe to call when not started.
func (p *PortAudioPlayer) Close() error {
	if p.outputStream != nil {
		if err := p.outputStream.Stop(); err != nil {
			return err
		}

		if err := p.outputStream.Close(); err != nil {
			return err
		}

		p.outputStream = nil
	}

	return nil
}

// processOutputStream is the PortAudio callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Mixer scratch buffers are reused, no allocations after the first call
func (p *PortAudioPlayer) processOutputStream(out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	p.mixer.Read(out)
}
