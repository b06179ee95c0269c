package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings holds values that can be set in the YAML settings file.
type Settings struct {
	// Device is the advertised BLE name of the board.
	Device string `yaml:"device"`

	ScanTimeout  time.Duration `yaml:"scan_timeout"`
	SyncInterval time.Duration `yaml:"sync_interval"`

	Pins DefaultPins `yaml:"pins"`
}

// DefaultPins are the pin labels each peripheral starts on.
type DefaultPins struct {
	Pin        string `yaml:"pin"`
	Buzzer     string `yaml:"buzzer"`
	Ultrasonic string `yaml:"ultrasonic"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Device:       "MT7697",
		ScanTimeout:  15 * time.Second,
		SyncInterval: 500 * time.Millisecond,
		Pins: DefaultPins{
			Pin:        "2",
			Buzzer:     "10",
			Ultrasonic: "8",
		},
	}
}

// DefaultPath returns the default settings path (~/.mt7697/config.yaml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mt7697", "config.yaml"), nil
}

// Load reads settings from path on top of Defaults. A missing file is not an
// error.
func Load(path string) (Settings, error) {
	s := Defaults()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		Debugf("No settings file at %s, using defaults", path)
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	// Zero values in the file fall back to defaults
	d := Defaults()
	if s.Device == "" {
		s.Device = d.Device
	}
	if s.ScanTimeout <= 0 {
		s.ScanTimeout = d.ScanTimeout
	}
	if s.SyncInterval <= 0 {
		s.SyncInterval = d.SyncInterval
	}
	if s.Pins.Pin == "" {
		s.Pins.Pin = d.Pins.Pin
	}
	if s.Pins.Buzzer == "" {
		s.Pins.Buzzer = d.Pins.Buzzer
	}
	if s.Pins.Ultrasonic == "" {
		s.Pins.Ultrasonic = d.Pins.Ultrasonic
	}

	Debugf("Loaded settings from %s", path)
	return s, nil
}
