// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"stemviz/internal/config"
)

func TestParseArgs(t *testing.T) {
	t.Chdir(t.TempDir())

	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, cfg *config.Config)
		wantErr bool
	}{
		{
			name: "defaults",
			args: nil,
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Song.Name != config.DefaultSongName || cfg.Audio.Backend != config.DefaultBackend {
					t.Errorf("got song %q backend %q", cfg.Song.Name, cfg.Audio.Backend)
				}
				if cfg.Command != "" || cfg.TUI || cfg.Debug || cfg.Recording.AutoStop {
					t.Errorf("unexpected flags set: %+v", cfg)
				}
			},
		},
		{
			name: "song and flags",
			args: []string{"--backend", "null", "--fps", "30", "-r", "--auto-stop", "-t", "-v", "--bands", "--dir", "music", "-d", "3", "song-a"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Song.Name != "song-a" || cfg.Song.Dir != "music" {
					t.Errorf("song = %s/%s", cfg.Song.Dir, cfg.Song.Name)
				}
				if cfg.Audio.Backend != "null" || cfg.Scene.FPS != 30 || cfg.Audio.OutputDevice != 3 {
					t.Errorf("backend %q fps %d device %d", cfg.Audio.Backend, cfg.Scene.FPS, cfg.Audio.OutputDevice)
				}
				if !cfg.Recording.Enabled || !cfg.Recording.AutoStop || !cfg.TUI || !cfg.Debug || !cfg.Analysis.BandEnergy {
					t.Errorf("boolean flags not applied: %+v", cfg)
				}
			},
		},
		{
			name: "list",
			args: []string{"list"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg.Command != "list" {
					t.Errorf("Command = %q, want list", cfg.Command)
				}
			},
		},
		{
			name: "help",
			args: []string{"--help"},
			check: func(t *testing.T, cfg *config.Config) {
				if cfg != nil {
					t.Error("--help returned a config")
				}
			},
		},
		{name: "unknown backend", args: []string{"--backend", "alsa"}, wantErr: true},
		{name: "two songs", args: []string{"a", "b"}, wantErr: true},
		{name: "missing config file", args: []string{"--config", "nope.yaml"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseArgs() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseArgs() unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseArgsFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "viz.yaml")
	data := "song:\n  name: from-file\n  dir: /music\nscene:\n  fps: 24\naudio:\n  backend: oto\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseArgs([]string{"--config", path, "--fps", "50"})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Song.Name != "from-file" || cfg.Song.Dir != "/music" || cfg.Audio.Backend != "oto" {
		t.Errorf("file values lost: %+v", cfg.Song)
	}
	if cfg.Scene.FPS != 50 {
		t.Errorf("fps = %d, want the flag value 50", cfg.Scene.FPS)
	}
}
