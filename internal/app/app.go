// SPDX-License-Identifier: MIT
/*
Package app assembles a visualizer run from a Config.

Startup (cold path):
  - decode the song's four stems
  - build one analyser tap and loudness track per stem
  - build the scene, the driver and the frame sinks
  - open the playback backend

Run (hot path):
  - start recording if enabled
  - start playback, which feeds the taps
  - tick the frame loop and, optionally, the terminal meter

Shutdown (cold path):
  - stop recording and save the file
  - close the backend and every sink
*/
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stemviz/internal/analysis"
	"stemviz/internal/animation"
	"stemviz/internal/audio"
	"stemviz/internal/config"
	"stemviz/internal/log"
	"stemviz/internal/scene"
	"stemviz/internal/transport"
	"stemviz/internal/transport/udp"
	"stemviz/internal/tui"

	"golang.org/x/sync/errgroup"
)

// App is one configured visualizer run.
type App struct {
	cfg *config.Config

	song     *audio.Song
	taps     [4]*audio.Tap
	mixer    *audio.Mixer
	player   audio.Player
	recorder *audio.Recorder

	scene  *scene.Scene
	driver *animation.Driver
	loop   *animation.Loop

	websocket *transport.WebSocketTransport
	publisher *udp.UDPPublisher
	meter     *tui.Meter
	sinks     []animation.Sink
	closers   []func() error
}

// New loads the song and builds every component. Nothing plays until Run.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}
	if err := a.build(ctx); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.cfg

	var err error
	a.song, err = audio.LoadSong(ctx, cfg.Song.Dir, cfg.Song.Name)
	if err != nil {
		return err
	}
	if float64(a.song.SampleRate) != cfg.Audio.SampleRate {
		log.Warnf("App: stems are %d Hz, playing at the stem rate instead of %.0f Hz", a.song.SampleRate, cfg.Audio.SampleRate)
	}
	log.Infof("App: loaded %q (%v at %d Hz)", a.song.Name, a.song.Duration().Round(time.Millisecond), a.song.SampleRate)

	var tracks [4]*analysis.Track
	for i := range a.taps {
		tap := audio.NewTap(cfg.Audio.AnalysisWindow)
		tap.SetSilenceFloor(cfg.Audio.SilenceFloor)
		a.taps[i] = tap
		tracks[i] = analysis.NewTrack(audio.StemNames[i], tap, cfg.Audio.AnalysisWindow)
	}
	a.mixer = audio.NewMixer(a.song, a.taps)

	a.scene = scene.New(cfg.Scene.Stars, cfg.Scene.Seed)
	a.driver = animation.NewDriver(
		animation.Tracks{Bass: tracks[0], Drums: tracks[1], Vocal: tracks[2], Other: tracks[3]},
		animation.Targets{
			Stars:     a.scene.Stars,
			Character: a.scene.Character,
			Light:     a.scene.Light,
			Camera:    a.scene.Camera,
		},
	)

	if err := a.buildSinks(); err != nil {
		return err
	}

	loopCfg := animation.LoopConfig{
		Interval: cfg.FrameInterval(),
		Sinks:    a.sinks,
	}
	if cfg.Recording.Enabled && cfg.Recording.AutoStop {
		loopCfg.Done = a.mixer.Done()
	}
	if cfg.Analysis.BandEnergy {
		enricher, err := newBandsEnricher(a.taps, cfg.Audio.AnalysisWindow, float64(a.song.SampleRate), cfg.Analysis.FFTWindow)
		if err != nil {
			return fmt.Errorf("failed to set up band energy: %w", err)
		}
		loopCfg.Enrich = enricher.enrich
	}
	a.loop = animation.NewLoop(a.driver, loopCfg)

	if cfg.Recording.Enabled {
		a.recorder = audio.NewRecorder(a.song.SampleRate, cfg.Recording.BitDepth)
		a.mixer.SetRecorder(a.recorder)
	}

	if cfg.Audio.Backend == "portaudio" {
		if err := audio.Initialize(); err != nil {
			return err
		}
		a.closers = append(a.closers, audio.Terminate)
	}
	a.player, err = audio.NewPlayer(cfg, a.mixer)
	if err != nil {
		return fmt.Errorf("failed to open %s backend: %w", cfg.Audio.Backend, err)
	}
	return nil
}

func (a *App) buildSinks() error {
	t := a.cfg.Transport

	if t.WebSocketEnabled {
		a.websocket = transport.NewWebSocketTransport(t.WebSocketAddress)
		a.addSink(a.websocket)
	}
	if t.UDPEnabled {
		sender, err := udp.NewUDPSender(t.UDPTargetAddress)
		if err != nil {
			return err
		}
		a.publisher, err = udp.NewUDPPublisher(t.UDPSendInterval, sender)
		if err != nil {
			sender.Close()
			return err
		}
		a.addSink(a.publisher)
	}
	if t.LogFrames {
		a.addSink(transport.NewLoggingTransport())
	}
	if a.cfg.TUI {
		a.meter = tui.NewMeter()
		a.addSink(a.meter)
	}
	return nil
}

func (a *App) addSink(s transport.Transport) {
	a.sinks = append(a.sinks, s)
	a.closers = append(a.closers, s.Close)
}

// Run plays the song and animates the scene until the song ends (when
// recording with auto-stop), the meter is quit or ctx is done. All of these are a normal
// shutdown and return nil.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.recorder != nil {
		path := a.cfg.RecordingPath(time.Now())
		if err := a.recorder.Start(path); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}
		log.Infof("App: recording to %s", path)
	}

	if a.websocket != nil {
		a.websocket.Start()
	}
	if a.publisher != nil {
		a.publisher.Start()
	}

	if err := a.player.Start(); err != nil {
		return errors.Join(fmt.Errorf("failed to start %s playback: %w", a.player.Name(), err), a.stopRecording())
	}
	log.Infof("App: playing through %s", a.player.Name())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return a.loop.Run(gctx)
	})
	if a.meter != nil {
		g.Go(func() error {
			defer cancel()
			return a.meter.Run(gctx, a.song.Name)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	log.Infof("App: stopped after %d frames at %v", a.driver.Frame().Seq, a.mixer.Position().Round(time.Millisecond))

	return errors.Join(err, a.player.Close(), a.stopRecording())
}

func (a *App) stopRecording() error {
	if a.recorder == nil || !a.recorder.IsRecording() {
		return nil
	}
	if err := a.recorder.Stop(); err != nil {
		return fmt.Errorf("failed to save recording: %w", err)
	}
	log.Infof("App: recording saved to %s", a.recorder.Path())
	return nil
}

// Frame returns the last published frame.
func (a *App) Frame() animation.Frame { return a.driver.Frame() }

// Close releases sinks and the audio host. It is safe after a failed New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
