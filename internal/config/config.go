// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config holds the YAML configuration model for the bme680-monitor
// tool.
//
// Optional keys are pointers: a key absent from the file stays nil and the
// matching device register is never written. BuildSettings translates the
// present keys into a bme680.Settings update whose desired-settings mask
// covers exactly those keys.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GermanBionicSystems/bme680"
)

// Duration wraps time.Duration so values can be written as "150ms" or "5s"
// in the configuration file.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Config is the root of the configuration file.
type Config struct {
	// Bus is the I2C bus name, empty for the first available bus.
	Bus string `yaml:"bus,omitempty"`
	// Address is the I2C address of the sensor.
	Address uint16 `yaml:"address,omitempty"`
	// Interval between readings when monitoring continuously.
	Interval Duration `yaml:"interval,omitempty"`
	// LogLevel: debug, info, warn or error. Empty disables logging.
	LogLevel string `yaml:"log_level,omitempty"`

	Oversampling OversamplingConfig `yaml:"oversampling,omitempty"`
	// Filter is the IIR filter coefficient: 0, 1, 3, 7, 15, 31, 63 or 127.
	Filter *int      `yaml:"filter,omitempty"`
	Gas    GasConfig `yaml:"gas,omitempty"`
}

// OversamplingConfig selects the per-channel oversampling. Valid values:
// "off", "1x", "2x", "4x", "8x", "16x".
type OversamplingConfig struct {
	Temperature *string `yaml:"temperature,omitempty"`
	Pressure    *string `yaml:"pressure,omitempty"`
	Humidity    *string `yaml:"humidity,omitempty"`
}

// GasConfig holds the gas conversion parameters.
type GasConfig struct {
	// Enabled switches the gas conversion on or off.
	Enabled *bool `yaml:"enabled,omitempty"`
	// HeaterTemperature is the heater plate target in °C.
	HeaterTemperature *uint16 `yaml:"heater_temperature,omitempty"`
	// HeaterDuration is the heater hold time, e.g. "150ms".
	HeaterDuration *Duration `yaml:"heater_duration,omitempty"`
	// AmbientTemperature in °C, corrects the heater calculation.
	AmbientTemperature int8 `yaml:"ambient_temperature,omitempty"`
	// Profile is the heater set-point slot (0-9).
	Profile *int `yaml:"profile,omitempty"`
}

// Default returns the configuration used when no file is given: a
// conservative measurement setup with the gas conversion left untouched.
func Default() *Config {
	return &Config{
		Address:  bme680.DefaultAddress,
		Interval: Duration(5 * time.Second),
	}
}

// Load reads and parses a configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

var oversamplingNames = map[string]bme680.Oversampling{
	"off": bme680.OversamplingOff,
	"1x":  bme680.Oversampling1x,
	"2x":  bme680.Oversampling2x,
	"4x":  bme680.Oversampling4x,
	"8x":  bme680.Oversampling8x,
	"16x": bme680.Oversampling16x,
}

var filterCoefficients = map[int]bme680.FilterCoefficient{
	0:   bme680.FilterOff,
	1:   bme680.Filter1,
	3:   bme680.Filter3,
	7:   bme680.Filter7,
	15:  bme680.Filter15,
	31:  bme680.Filter31,
	63:  bme680.Filter63,
	127: bme680.Filter127,
}

// BuildSettings translates the configuration into a settings update. Only
// the keys present in the file end up flagged in the desired-settings mask.
func (c *Config) BuildSettings() (bme680.Settings, error) {
	b := bme680.NewSettingsBuilder()

	if c.Oversampling.Temperature != nil {
		os, err := parseOversampling(*c.Oversampling.Temperature)
		if err != nil {
			return bme680.Settings{}, err
		}
		b.WithTemperatureOversampling(os)
	}
	if c.Oversampling.Pressure != nil {
		os, err := parseOversampling(*c.Oversampling.Pressure)
		if err != nil {
			return bme680.Settings{}, err
		}
		b.WithPressureOversampling(os)
	}
	if c.Oversampling.Humidity != nil {
		os, err := parseOversampling(*c.Oversampling.Humidity)
		if err != nil {
			return bme680.Settings{}, err
		}
		b.WithHumidityOversampling(os)
	}
	if c.Filter != nil {
		f, ok := filterCoefficients[*c.Filter]
		if !ok {
			return bme680.Settings{}, fmt.Errorf("config: invalid filter coefficient %d", *c.Filter)
		}
		b.WithTemperatureFilter(f)
	}
	if c.Gas.HeaterTemperature != nil || c.Gas.HeaterDuration != nil {
		if c.Gas.HeaterTemperature == nil || c.Gas.HeaterDuration == nil {
			return bme680.Settings{}, fmt.Errorf("config: gas heater_temperature and heater_duration must be set together")
		}
		b.WithGasMeasurement(time.Duration(*c.Gas.HeaterDuration), *c.Gas.HeaterTemperature, c.Gas.AmbientTemperature)
	}
	if c.Gas.Profile != nil {
		if *c.Gas.Profile < 0 || *c.Gas.Profile > 9 {
			return bme680.Settings{}, fmt.Errorf("config: gas profile %d out of range 0-9", *c.Gas.Profile)
		}
		b.WithProfile(uint8(*c.Gas.Profile))
	}
	if c.Gas.Enabled != nil {
		b.WithRunGas(*c.Gas.Enabled)
	}
	return b.Build(), nil
}

func parseOversampling(name string) (bme680.Oversampling, error) {
	os, ok := oversamplingNames[name]
	if !ok {
		return 0, fmt.Errorf("config: invalid oversampling %q", name)
	}
	return os, nil
}
