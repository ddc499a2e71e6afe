// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"stemviz/internal/log"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"golang.org/x/sync/errgroup"
)

// StemNames are the four stems of a song, in mapping order.
var StemNames = [4]string{"bass", "drums", "vocal", "other"}

// Extensions tried for each stem, in order.
var stemExtensions = []string{".mp3", ".wav"}

var (
	ErrMissingStem        = errors.New("missing stem")
	ErrSampleRateMismatch = errors.New("stem sample rates differ")
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
)

// Stem is one decoded track, held as interleaved stereo float32 in [-1, 1].
type Stem struct {
	Name       string
	Path       string
	SampleRate int
	Samples    []float32
}

// Frames is the number of stereo frames in the stem.
func (s *Stem) Frames() int { return len(s.Samples) / 2 }

// Duration is the playing time of the stem.
func (s *Stem) Duration() time.Duration {
	if s.SampleRate == 0 {
		return 0
	}
	return time.Duration(s.Frames()) * time.Second / time.Duration(s.SampleRate)
}

// Song is four stems sharing one sample rate, indexed like StemNames.
type Song struct {
	Name       string
	SampleRate int
	Stems      [4]*Stem
}

// Frames is the length of the longest stem.
func (s *Song) Frames() int {
	n := 0
	for _, st := range s.Stems {
		n = max(n, st.Frames())
	}
	return n
}

// Duration is the playing time of the longest stem.
func (s *Song) Duration() time.Duration {
	if s.SampleRate == 0 {
		return 0
	}
	return time.Duration(s.Frames()) * time.Second / time.Duration(s.SampleRate)
}

// LoadSong decodes <dir>/<name>/{bass,drums,vocal,other}.{mp3,wav}
// concurrently. Every stem must exist and all must share one sample rate.
func LoadSong(ctx context.Context, dir, name string) (*Song, error) {
	songDir := filepath.Join(dir, name)
	song := &Song{Name: name}

	g, ctx := errgroup.WithContext(ctx)
	for i, stem := range StemNames {
		g.Go(func() error {
			path, err := findStem(songDir, stem)
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			s, err := DecodeFile(path)
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", path, err)
			}
			s.Name = stem
			song.Stems[i] = s
			log.Debugf("Stems: decoded %s (%d Hz, %v) in %v", path, s.SampleRate, s.Duration(), time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	song.SampleRate = song.Stems[0].SampleRate
	for _, s := range song.Stems[1:] {
		if s.SampleRate != song.SampleRate {
			return nil, fmt.Errorf("%w: %s is %d Hz, %s is %d Hz",
				ErrSampleRateMismatch, song.Stems[0].Name, song.SampleRate, s.Name, s.SampleRate)
		}
	}

	log.Infof("Stems: loaded %q at %d Hz, %v", name, song.SampleRate, song.Duration())
	return song, nil
}

func findStem(dir, stem string) (string, error) {
	for _, ext := range stemExtensions {
		path := filepath.Join(dir, stem+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrMissingStem, stem, dir)
}

// DecodeFile decodes an .mp3 or .wav file by extension.
func DecodeFile(path string) (*Stem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var samples []float32
	var sampleRate int
	switch filepath.Ext(path) {
	case ".mp3":
		samples, sampleRate, err = decodeMP3(f)
	case ".wav":
		samples, sampleRate, err = decodeWAV(f)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	return &Stem{Path: path, SampleRate: sampleRate, Samples: samples}, nil
}

// decodeMP3 reads the decoder's 16-bit little-endian stereo stream.
func decodeMP3(r io.Reader) ([]float32, int, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, err
	}

	nsamples := len(raw) / 2
	samples := make([]float32, nsamples&^1)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(raw[i*2:]))
		samples[i] = float32(v) / 32768
	}
	return samples, decoder.SampleRate(), nil
}

// decodeWAV converts PCM of any bit depth to stereo float32. Mono is
// duplicated into both channels; channels past the second are dropped.
func decodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: invalid WAV file", ErrUnsupportedFormat)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		return nil, 0, fmt.Errorf("%w: unknown bit depth", ErrUnsupportedFormat)
	}
	nchannels := buf.Format.NumChannels
	if nchannels <= 0 {
		return nil, 0, fmt.Errorf("%w: no channels", ErrUnsupportedFormat)
	}

	factor := math.Pow(2, float64(bitDepth-1))
	offset := 0.0
	if bitDepth == 8 {
		// 8-bit WAV is unsigned.
		offset = factor
	}

	nframes := len(buf.Data) / nchannels
	samples := make([]float32, nframes*2)
	for f := range nframes {
		left := (float64(buf.Data[f*nchannels]) - offset) / factor
		right := left
		if nchannels > 1 {
			right = (float64(buf.Data[f*nchannels+1]) - offset) / factor
		}
		samples[f*2] = float32(left)
		samples[f*2+1] = float32(right)
	}
	return samples, buf.Format.SampleRate, nil
}
