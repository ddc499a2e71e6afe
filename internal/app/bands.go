// SPDX-License-Identifier: MIT
package app

import (
	"stemviz/internal/analysis"
	"stemviz/internal/animation"
	"stemviz/internal/audio"
	"stemviz/internal/log"
)

// bandsEnricher attaches per-stem band energies to frames.
type bandsEnricher struct {
	taps  [4]*audio.Tap
	bands [4]*analysis.BandEnergy
}

func newBandsEnricher(taps [4]*audio.Tap, window int, sampleRate float64, windowName string) (*bandsEnricher, error) {
	fn, err := analysis.ParseWindowFunc(windowName)
	if err != nil {
		return nil, err
	}

	e := &bandsEnricher{taps: taps}
	for i, tap := range taps {
		fft, err := analysis.NewFFTProcessor(window, sampleRate, fn)
		if err != nil {
			return nil, err
		}
		if err := tap.EnableSpectrum(fft); err != nil {
			return nil, err
		}
		e.bands[i] = analysis.NewBandEnergy(fft)
	}
	return e, nil
}

// enrich runs on the loop goroutine, the only reader of the taps' spectra.
func (e *bandsEnricher) enrich(f *animation.Frame) {
	var out [4]analysis.Bands
	for i, tap := range e.taps {
		if err := tap.UpdateSpectrum(); err != nil {
			log.Warnf("App: band energy for %s: %v", audio.StemNames[i], err)
			return
		}
		b, err := e.bands[i].Compute()
		if err != nil {
			log.Warnf("App: band energy for %s: %v", audio.StemNames[i], err)
			return
		}
		out[i] = b
	}
	f.Bands = &animation.StemBands{Bass: out[0], Drums: out[1], Vocal: out[2], Other: out[3]}
}
