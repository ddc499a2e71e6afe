// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultMaxConsecutiveWriteFailures stops a recording whose encoder keeps
// failing instead of logging an error on every callback.
const DefaultMaxConsecutiveWriteFailures = 5

// ErrAlreadyRecording is returned by Start while a recording is open.
var ErrAlreadyRecording = errors.New("already recording")

// Recorder writes the mixed stereo output to a PCM WAV file.
type Recorder struct {
	sampleRate int
	bitDepth   int

	isRecording atomic.Bool

	mu         sync.Mutex // Guards the fields below.
	path       string
	outputFile *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer // Reusable buffer for format conversion.
	failures   int
}

// NewRecorder creates a stereo recorder. bitDepth is 16 or 24.
func NewRecorder(sampleRate, bitDepth int) *Recorder {
	return &Recorder{sampleRate: sampleRate, bitDepth: bitDepth}
}

// Start creates path (and its directory) and begins recording.
func (r *Recorder) Start(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRecording.Load() {
		return ErrAlreadyRecording
	}
	if r.bitDepth != 16 && r.bitDepth != 24 {
		return fmt.Errorf("unsupported bit depth %d", r.bitDepth)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	r.path = path
	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, r.bitDepth, 2, 1)
	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 2,
			SampleRate:  r.sampleRate,
		},
		SourceBitDepth: r.bitDepth,
	}
	r.failures = 0

	r.isRecording.Store(true)
	return nil
}

// Write encodes interleaved stereo samples. It is a no-op when not
// recording. After DefaultMaxConsecutiveWriteFailures failed writes in a
// row the recording is stopped.
func (r *Recorder) Write(samples []float32) error {
	if !r.isRecording.Load() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil {
		return nil
	}

	if cap(r.sampleBuf.Data) < len(samples) {
		r.sampleBuf.Data = make([]int, len(samples))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(samples)]

	scale := float32(int(1)<<(r.bitDepth-1) - 1)
	for i, s := range samples {
		r.sampleBuf.Data[i] = int(clamp(s) * scale)
	}

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		r.failures++
		if r.failures >= DefaultMaxConsecutiveWriteFailures {
			stopErr := r.closeLocked()
			return errors.Join(fmt.Errorf("recording stopped after %d failed writes: %w", r.failures, err), stopErr)
		}
		return err
	}
	r.failures = 0
	return nil
}

// Stop finalizes the WAV header and closes the file. Stopping a recorder
// that is not recording does nothing.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *Recorder) closeLocked() error {
	if !r.isRecording.Load() {
		return nil
	}
	r.isRecording.Store(false)

	var errs []error
	if r.wavEncoder != nil {
		errs = append(errs, r.wavEncoder.Close())
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		errs = append(errs, r.outputFile.Close())
		r.outputFile = nil
	}
	return errors.Join(errs...)
}

// IsRecording reports whether a file is open.
func (r *Recorder) IsRecording() bool { return r.isRecording.Load() }

// Path returns the file of the current or last recording.
func (r *Recorder) Path() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.path
}
