// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"stemviz/internal/config"
	"stemviz/pkg/build"

	"github.com/spf13/cobra"
)

// options are the command-line values that may override the config file.
type options struct {
	configPath string
	songDir    string
	backend    string
	deviceID   int
	fps        int
	record     bool
	autoStop   bool
	output     string
	bandEnergy bool
	tui        bool
	verbose    bool
}

// ParseArgs parses args (without the program name) and returns the merged
// configuration. It returns a nil config without error when cobra handled
// the invocation itself, e.g. for --help or --version.
func ParseArgs(args []string) (*config.Config, error) {
	info := build.GetBuildInfo()
	opts := options{}
	var cfg *config.Config

	rootCmd := &cobra.Command{
		Use:           info.Name + " [song]",
		Short:         info.Description,
		Version:       info.String(),
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := resolve(cmd, &opts, args)
			if err != nil {
				return err
			}
			cfg = c
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio output devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := resolve(cmd, &opts, nil)
			if err != nil {
				return err
			}
			c.Command = "list"
			cfg = c
			return nil
		},
	}
	rootCmd.AddCommand(listCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "",
		"Path to a YAML config file. Defaults to ./config.yaml when present")

	// Song and playback
	flags.StringVar(&opts.songDir, "dir", config.DefaultSongDir,
		"Directory holding one sub-directory of stems per song")
	flags.StringVarP(&opts.backend, "backend", "b", config.DefaultBackend,
		"Playback backend: portaudio, oto or null")
	flags.IntVarP(&opts.deviceID, "device", "d", config.DefaultDeviceID,
		"Output device ID for portaudio. Use 'list' command to see available devices")
	flags.IntVar(&opts.fps, "fps", config.DefaultFPS,
		"Animation frames per second")

	// Recording
	flags.BoolVarP(&opts.record, "record", "r", false,
		"Record the mixed output to a WAV file")
	flags.BoolVar(&opts.autoStop, "auto-stop", false,
		"Stop when the longest stem ends. Only applies while recording")
	flags.StringVarP(&opts.output, "output", "o", "",
		"Recording file name. Default is <song>-DD-MM-YYYY-HHMMSS.wav in the output directory")

	// Analysis and display
	flags.BoolVar(&opts.bandEnergy, "bands", false,
		"Publish per-stem band energies with every frame")
	flags.BoolVarP(&opts.tui, "tui", "t", false,
		"Show the live terminal meter")

	// Debug Configuration
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolve loads the config file and applies the flags the user set.
func resolve(cmd *cobra.Command, opts *options, args []string) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if len(args) == 1 {
		cfg.Song.Name = args[0]
	}
	if changed("dir") {
		cfg.Song.Dir = opts.songDir
	}
	if changed("backend") {
		cfg.Audio.Backend = opts.backend
	}
	if changed("device") {
		cfg.Audio.OutputDevice = opts.deviceID
	}
	if changed("fps") {
		cfg.Scene.FPS = opts.fps
	}
	if changed("record") {
		cfg.Recording.Enabled = opts.record
	}
	if changed("auto-stop") {
		cfg.Recording.AutoStop = opts.autoStop
	}
	if changed("output") {
		cfg.Recording.File = opts.output
	}
	if changed("bands") {
		cfg.Analysis.BandEnergy = opts.bandEnergy
	}
	if changed("tui") {
		cfg.TUI = opts.tui
	}
	if changed("verbose") {
		cfg.Debug = opts.verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return cfg, nil
}
