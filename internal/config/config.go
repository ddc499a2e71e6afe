// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"stemviz/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Defaults and hard limits for the visualizer.
const (
	DefaultBackend         = "portaudio" // PortAudio output stream
	DefaultDeviceID        = MinDeviceID // System default output device
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultAnalysisWindow  = 1024        // Samples per loudness window
	DefaultSongDir         = "."
	DefaultSongName        = "till-i-die"
	DefaultStars           = 8000
	DefaultFPS             = 60
	DefaultOutputDir       = "./recordings"
	DefaultBitDepth        = 16
	DefaultWebSocketAddr   = ":8080"
	DefaultUDPTarget       = "127.0.0.1:9090"
	DefaultUDPInterval     = 16 * time.Millisecond // ~60Hz

	MinDeviceID       = -1 // -1 represents the system default device
	MinSampleRate     = 8000
	MaxSampleRate     = 192000
	MaxBufferFrames   = 8192
	MaxAnalysisWindow = 32768
	MaxFPS            = 240
)

// Backends accepted by audio.backend.
var Backends = []string{"portaudio", "oto", "null"}

// Config represents the application configuration, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`             // Enable debug logging.
	LogLevel  string          `yaml:"log_level"`         // debug, info, warn, error.
	Command   string          `yaml:"command,omitempty"` // One-off command instead of running (e.g. "list").
	Audio     AudioConfig     `yaml:"audio"`
	Song      SongConfig      `yaml:"song"`
	Scene     SceneConfig     `yaml:"scene"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
	TUI       bool            `yaml:"tui"` // Show the live terminal meter.
}

// AudioConfig holds playback and analysis window settings.
type AudioConfig struct {
	Backend         string  `yaml:"backend"`           // portaudio, oto or null.
	OutputDevice    int     `yaml:"output_device"`     // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Must match the stems.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the device.
	AnalysisWindow  int     `yaml:"analysis_window"`   // Time-domain samples per loudness window.
	SilenceFloor    float64 `yaml:"silence_floor"`     // Tap samples below this magnitude read as 0.
}

// SongConfig locates the four stems: <dir>/<name>/{bass,drums,vocal,other}.{mp3,wav}.
type SongConfig struct {
	Dir  string `yaml:"dir"`
	Name string `yaml:"name"`
}

// SceneConfig holds star field and frame pacing settings.
type SceneConfig struct {
	Stars int   `yaml:"stars"`
	Seed  int64 `yaml:"seed"`
	FPS   int   `yaml:"fps"`
}

// AnalysisConfig toggles optional per-stem analysis published with frames.
type AnalysisConfig struct {
	BandEnergy bool   `yaml:"band_energy"`
	FFTWindow  string `yaml:"fft_window"` // Window function for band energy (e.g. "Hann").
}

// RecordingConfig holds settings for recording the mixed output.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	OutputDir string `yaml:"output_dir"`
	File      string `yaml:"file,omitempty"` // Overrides the generated name.
	BitDepth  int    `yaml:"bit_depth"`
	AutoStop  bool   `yaml:"auto_stop"` // With Enabled, stop the run when the longest stem ends.
}

// TransportConfig holds settings for publishing frames to external renderers.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`
	WebSocketAddress string        `yaml:"websocket_address"`
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"`
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`
	LogFrames        bool          `yaml:"log_frames"` // Debug-log every frame.
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Audio: AudioConfig{
			Backend:         DefaultBackend,
			OutputDevice:    DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			AnalysisWindow:  DefaultAnalysisWindow,
		},
		Song: SongConfig{
			Dir:  DefaultSongDir,
			Name: DefaultSongName,
		},
		Scene: SceneConfig{
			Stars: DefaultStars,
			Seed:  1,
			FPS:   DefaultFPS,
		},
		Analysis: AnalysisConfig{
			FFTWindow: "Hann",
		},
		Recording: RecordingConfig{
			OutputDir: DefaultOutputDir,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			WebSocketAddress: DefaultWebSocketAddr,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  DefaultUDPInterval,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches "config.yaml" in the working directory and falls back to the built-in
// defaults. Environment overrides are applied after the file, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	var errs []error

	if !validBackend(c.Audio.Backend) {
		errs = append(errs, fmt.Errorf("audio.backend %q must be one of %v", c.Audio.Backend, Backends))
	}
	if c.Audio.OutputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.output_device must be >= %d, got %d", MinDeviceID, c.Audio.OutputDevice))
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate))
	}
	if c.Audio.FramesPerBuffer <= 0 || c.Audio.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer %d outside (0, %d]", c.Audio.FramesPerBuffer, MaxBufferFrames))
	}
	if !bitint.IsPowerOfTwo(c.Audio.AnalysisWindow) || c.Audio.AnalysisWindow > MaxAnalysisWindow {
		errs = append(errs, fmt.Errorf("audio.analysis_window must be a power of 2 <= %d, got %d", MaxAnalysisWindow, c.Audio.AnalysisWindow))
	}
	if c.Audio.SilenceFloor < 0 || c.Audio.SilenceFloor >= 1 {
		errs = append(errs, fmt.Errorf("audio.silence_floor must be in [0, 1), got %g", c.Audio.SilenceFloor))
	}
	if c.Song.Name == "" {
		errs = append(errs, errors.New("song.name must be set"))
	}
	if c.Scene.Stars < 0 {
		errs = append(errs, fmt.Errorf("scene.stars must be >= 0, got %d", c.Scene.Stars))
	}
	if c.Scene.FPS <= 0 || c.Scene.FPS > MaxFPS {
		errs = append(errs, fmt.Errorf("scene.fps %d outside (0, %d]", c.Scene.FPS, MaxFPS))
	}
	if c.Recording.Enabled && c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 {
		errs = append(errs, fmt.Errorf("recording.bit_depth must be 16 or 24, got %d", c.Recording.BitDepth))
	}
	if c.Transport.WebSocketEnabled && c.Transport.WebSocketAddress == "" {
		errs = append(errs, errors.New("transport.websocket_address must be set when the websocket is enabled"))
	}
	if c.Transport.UDPEnabled {
		if c.Transport.UDPTargetAddress == "" {
			errs = append(errs, errors.New("transport.udp_target_address must be set when UDP is enabled"))
		}
		if c.Transport.UDPSendInterval <= 0 {
			errs = append(errs, errors.New("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}

	return errors.Join(errs...)
}

// FrameInterval is the time between animation ticks.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.Scene.FPS)
}

// RecordingPath returns the explicit recording file or a generated one.
func (c *Config) RecordingPath(now time.Time) string {
	if c.Recording.File != "" {
		return c.Recording.File
	}
	name := c.Song.Name + "-" + now.UTC().Format("02-01-2006-150405") + ".wav"
	return filepath.Join(c.Recording.OutputDir, name)
}

func validBackend(name string) bool {
	for _, b := range Backends {
		if b == name {
			return true
		}
	}
	return false
}

// applyEnvOverrides lets ENV_* variables override file and default values.
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Debug = b
		}
	}
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
	}
	if val, ok := os.LookupEnv("ENV_AUDIO_BACKEND"); ok {
		c.Audio.Backend = val
	}
	if val, ok := os.LookupEnv("ENV_SONG_DIR"); ok {
		c.Song.Dir = val
	}
	if val, ok := os.LookupEnv("ENV_SONG_NAME"); ok {
		c.Song.Name = val
	}

	// ENV_UDP_{...} are specific to the transport layer.
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = b
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if d, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = d
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WebSocketAddress = val
	}
}
