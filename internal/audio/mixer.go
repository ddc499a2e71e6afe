// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"stemviz/internal/log"
)

// Mixer plays the four stems of a song in lockstep. Read is called by a
// single playback backend; Position and Done are safe from anywhere.
type Mixer struct {
	song   *Song
	taps   [4]*Tap
	frames int

	pos  atomic.Int64 // Play head in frames.
	mono [4][]float32 // Per-stem scratch for tap writes.

	recorder atomic.Pointer[Recorder]

	done     chan struct{}
	doneOnce sync.Once
}

// NewMixer creates a mixer feeding each stem's mono fold into the tap of
// the same index. A nil tap is skipped.
func NewMixer(song *Song, taps [4]*Tap) *Mixer {
	return &Mixer{
		song:   song,
		taps:   taps,
		frames: song.Frames(),
		done:   make(chan struct{}),
	}
}

// SetRecorder tees the mixed output into r. Pass nil to detach.
func (m *Mixer) SetRecorder(r *Recorder) { m.recorder.Store(r) }

// Read fills out (interleaved stereo) with the sum of every stem at the
// play head and advances it. Stems that have ended contribute silence, and
// once all have ended out is zeroed. It returns the number of frames that
// still carried audio.
func (m *Mixer) Read(out []float32) int {
	frames := len(out) / 2
	clear(out)

	pos := int(m.pos.Load())
	live := max(0, min(frames, m.frames-pos))

	for i, stem := range m.song.Stems {
		if len(m.mono[i]) < frames {
			m.mono[i] = make([]float32, frames)
		}
		mono := m.mono[i][:frames]
		clear(mono)

		if avail := max(0, min(frames, stem.Frames()-pos)); avail > 0 {
			src := stem.Samples[pos*2 : (pos+avail)*2]
			for f := range avail {
				l, r := src[f*2], src[f*2+1]
				out[f*2] += l
				out[f*2+1] += r
				mono[f] = (l + r) / 2
			}
		}

		if m.taps[i] != nil {
			m.taps[i].Write(mono)
		}
	}

	for i, v := range out {
		out[i] = clamp(v)
	}

	if rec := m.recorder.Load(); rec != nil {
		if err := rec.Write(out[:frames*2]); err != nil {
			log.Errorf("Mixer: recording write failed: %v", err)
		}
	}

	if pos+frames >= m.frames {
		m.pos.Store(int64(m.frames))
		m.doneOnce.Do(func() { close(m.done) })
	} else {
		m.pos.Store(int64(pos + frames))
	}
	return live
}

// Done is closed once every stem has been played to its end.
func (m *Mixer) Done() <-chan struct{} { return m.done }

// Position is the current play head.
func (m *Mixer) Position() time.Duration {
	return time.Duration(m.pos.Load()) * time.Second / time.Duration(m.song.SampleRate)
}

// Duration is the length of the longest stem.
func (m *Mixer) Duration() time.Duration { return m.song.Duration() }

// SampleRate of the mixed output.
func (m *Mixer) SampleRate() int { return m.song.SampleRate }

// Reader exposes the mix as float32 little-endian interleaved stereo
// bytes. It never returns io.EOF; after the song ends it yields silence.
func (m *Mixer) Reader() io.Reader { return &pcmReader{mixer: m} }

type pcmReader struct {
	mixer *Mixer
	buf   []float32
}

const bytesPerFrame = 2 * 4

func (r *pcmReader) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	if len(r.buf) < frames*2 {
		r.buf = make([]float32, frames*2)
	}
	buf := r.buf[:frames*2]
	r.mixer.Read(buf)
	for i, v := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(v))
	}
	return frames * bytesPerFrame, nil
}

func clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
