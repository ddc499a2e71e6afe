// SPDX-License-Identifier: MIT
package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const testSampleRate = 44100

// writeWAV encodes raw PCM values to path.
func writeWAV(t *testing.T, path string, sampleRate, channels, bitDepth int, data []int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

// constantPCM returns frames of stereo 16-bit PCM at value v.
func constantPCM(frames int, v int) []int {
	data := make([]int, frames*2)
	for i := range data {
		data[i] = v
	}
	return data
}

// testSong builds an in-memory song whose stems hold constant stereo
// values for the given number of frames.
func testSong(frames [4]int, values [4]float32) *Song {
	song := &Song{Name: "test", SampleRate: testSampleRate}
	for i := range song.Stems {
		samples := make([]float32, frames[i]*2)
		for j := range samples {
			samples[j] = values[i]
		}
		song.Stems[i] = &Stem{Name: StemNames[i], SampleRate: testSampleRate, Samples: samples}
	}
	return song
}
