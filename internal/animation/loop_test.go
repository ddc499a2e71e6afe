// SPDX-License-Identifier: MIT
package animation

import (
	"context"
	"errors"
	"testing"
	"time"

	"stemviz/internal/analysis"
	"stemviz/internal/scene"
	"stemviz/pkg/utils"
)

type manualTicker struct {
	ch      chan time.Time
	stopped bool
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               { m.stopped = true }

func newTestLoop(d *Driver, cfg LoopConfig) (*Loop, *manualTicker) {
	mt := &manualTicker{ch: make(chan time.Time)}
	l := NewLoop(d, cfg)
	l.newTicker = func(time.Duration) Ticker { return mt }
	return l, mt
}

func runAsync(ctx context.Context, l *Loop) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	return errc
}

func waitErr(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not return")
		return nil
	}
}

func TestLoopPublishesEveryTick(t *testing.T) {
	d := NewDriver(silentTracks(), targetsFor(scene.New(10, 1)))
	sink := &utils.MockTransport{}
	l, mt := newTestLoop(d, LoopConfig{Interval: time.Millisecond, Sinks: []Sink{sink}})

	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, l)
	for i := 0; i < 3; i++ {
		mt.ch <- time.Now()
	}
	cancel()

	if err := waitErr(t, errc); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}
	if sink.Count() != 3 {
		t.Fatalf("sink got %d frames, want 3", sink.Count())
	}
	if f := sink.Last().(Frame); f.Seq != 3 {
		t.Errorf("last frame seq = %d, want 3", f.Seq)
	}
	if !mt.stopped {
		t.Error("ticker not stopped")
	}
	if !d.Stopped() {
		t.Error("driver not stopped on cancel")
	}
}

func TestLoopEndsWhenDriverStops(t *testing.T) {
	var d *Driver
	calls := 0
	tracks := silentTracks()
	tracks.Bass = funcSampler(func() float64 {
		calls++
		if calls == 2 {
			d.Stop()
		}
		return 0
	})
	d = NewDriver(tracks, targetsFor(scene.New(1, 1)))
	sink := &utils.MockTransport{}
	l, mt := newTestLoop(d, LoopConfig{Sinks: []Sink{sink}})

	errc := runAsync(context.Background(), l)
	mt.ch <- time.Now()
	mt.ch <- time.Now()

	if err := waitErr(t, errc); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	// The tick that saw the stop still reaches the sinks.
	if sink.Count() != 2 {
		t.Errorf("sink got %d frames, want 2", sink.Count())
	}
}

func TestLoopEndsOnDone(t *testing.T) {
	d := NewDriver(silentTracks(), targetsFor(scene.New(1, 1)))
	done := make(chan struct{})
	l, _ := newTestLoop(d, LoopConfig{Done: done})

	errc := runAsync(context.Background(), l)
	close(done)

	if err := waitErr(t, errc); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if !d.Stopped() {
		t.Error("driver not stopped when playback finished")
	}
}

func TestLoopSinkErrorsDoNotStop(t *testing.T) {
	d := NewDriver(silentTracks(), targetsFor(scene.New(1, 1)))
	broken := &utils.MockTransport{Err: errors.New("connection refused")}
	good := &utils.MockTransport{}
	l, mt := newTestLoop(d, LoopConfig{Sinks: []Sink{broken, good}})

	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, l)
	mt.ch <- time.Now()
	mt.ch <- time.Now()
	cancel()
	waitErr(t, errc)

	if good.Count() != 2 {
		t.Errorf("healthy sink got %d frames, want 2", good.Count())
	}
}

func TestLoopEnrich(t *testing.T) {
	d := NewDriver(silentTracks(), targetsFor(scene.New(1, 1)))
	sink := &utils.MockTransport{}
	bands := &StemBands{Bass: analysis.Bands{Bass: 0.5}}
	l, mt := newTestLoop(d, LoopConfig{
		Sinks:  []Sink{sink},
		Enrich: func(f *Frame) { f.Bands = bands },
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := runAsync(ctx, l)
	mt.ch <- time.Now()
	cancel()
	waitErr(t, errc)

	f := sink.Last().(Frame)
	if f.Bands != bands {
		t.Errorf("frame bands = %v, want enriched value", f.Bands)
	}
	if d.Frame().Bands != nil {
		t.Error("enrichment leaked into the driver's frame")
	}
}
