// SPDX-License-Identifier: MIT
package animation

import (
	"context"
	"time"

	"stemviz/internal/log"
)

// Sink receives every completed Frame. transport.Transport satisfies it.
type Sink interface {
	Send(data any) error
}

// Ticker is the frame clock.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// LoopConfig configures a Loop.
type LoopConfig struct {
	// Interval between ticks, usually one frame at the configured FPS.
	Interval time.Duration
	Sinks    []Sink

	// Done, when non-nil, ends the loop once closed. Wire it to the
	// mixer's Done channel to stop when the song ends.
	Done <-chan struct{}

	// Enrich may add optional data (band energies) to each frame before
	// it is sent.
	Enrich func(*Frame)
}

// Loop schedules Driver ticks and fans frames out to sinks.
type Loop struct {
	driver    *Driver
	cfg       LoopConfig
	newTicker func(time.Duration) Ticker
}

// NewLoop creates a loop for driver.
func NewLoop(driver *Driver, cfg LoopConfig) *Loop {
	return &Loop{driver: driver, cfg: cfg, newTicker: newTimeTicker}
}

// Run ticks until the driver returns Stop, Done closes or ctx is
// cancelled. It returns ctx.Err() only on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.newTicker(l.cfg.Interval)
	defer ticker.Stop()

	log.Debugf("Loop: running at %v per frame with %d sinks", l.cfg.Interval, len(l.cfg.Sinks))

	published := l.driver.Frame().Seq
	for {
		select {
		case <-ctx.Done():
			l.driver.Stop()
			return ctx.Err()
		case <-l.cfg.Done:
			log.Infof("Loop: playback finished after %d frames", l.driver.Frame().Seq)
			l.driver.Stop()
			return nil
		case <-ticker.C():
			res := l.driver.Tick()
			if frame := l.driver.Frame(); frame.Seq != published {
				published = frame.Seq
				l.publish(frame)
			}
			if res == Stop {
				log.Debugf("Loop: driver stopped")
				return nil
			}
		}
	}
}

func (l *Loop) publish(frame Frame) {
	if l.cfg.Enrich != nil {
		l.cfg.Enrich(&frame)
	}
	for _, s := range l.cfg.Sinks {
		if err := s.Send(frame); err != nil {
			log.Warnf("Loop: sink %T failed on frame %d: %v", s, frame.Seq, err)
		}
	}
}
