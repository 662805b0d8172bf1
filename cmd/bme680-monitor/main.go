// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Bme680-monitor reads a BME680 environmental sensor and prints its
// measurements.
//
// The sensor configuration comes from an optional YAML file; only the keys
// present in the file are written to the device, everything else keeps its
// current register value.
//
// Usage:
//
//	bme680-monitor [flags]
//
// See 'bme680-monitor --help' for available options.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/GermanBionicSystems/bme680"
	"github.com/GermanBionicSystems/bme680/internal/config"
	"github.com/GermanBionicSystems/bme680/internal/logging"
)

var (
	configPath string
	busName    string
	address    uint16
	interval   time.Duration
	count      int
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "bme680-monitor",
	Short: "BME680 environmental sensor monitor",
	Long: `Reads temperature, humidity, pressure and gas resistance from a
BME680 sensor over I2C and prints the measurements at a fixed interval.

Settings given in the configuration file are applied as a sparse update:
the tool only writes the device registers for the keys that are present,
so a file containing nothing but an oversampling entry leaves the gas
heater configuration alone.`,
	Example: `  # Monitor with the device's current configuration
  bme680-monitor

  # Apply a measurement profile first
  bme680-monitor --settings bme680.yaml --interval 2s

  # Take a single reading on a specific bus
  bme680-monitor --bus /dev/i2c-1 --count 1`,
	RunE:          runMonitor,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "settings", "s", "", "YAML file with the sensor settings to apply")
	rootCmd.Flags().StringVarP(&busName, "bus", "b", "", "I2C bus name (default: first available)")
	rootCmd.Flags().Uint16VarP(&address, "address", "a", 0, "I2C address of the sensor (default 0x77)")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", 0, "time between readings (default 5s)")
	rootCmd.Flags().IntVarP(&count, "count", "n", 0, "number of readings to take, 0 for unlimited")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	// Flags win over the file.
	if busName != "" {
		cfg.Bus = busName
	}
	if address != 0 {
		cfg.Address = address
	}
	if interval != 0 {
		cfg.Interval = config.Duration(interval)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return err
	}
	defer logging.Sync()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("initializing host: %w", err)
	}
	bus, err := i2creg.Open(cfg.Bus)
	if err != nil {
		return fmt.Errorf("opening I2C bus: %w", err)
	}
	defer func() { _ = bus.Close() }()

	dev, err := bme680.NewI2C(bus, cfg.Address, nil)
	if err != nil {
		return err
	}
	logging.Info("sensor detected", zap.String("dev", dev.String()))

	settings, err := cfg.BuildSettings()
	if err != nil {
		return err
	}
	if settings.Desired != 0 {
		logging.Debug("applying settings", zap.Uint16("mask", uint16(settings.Desired)))
		if err := dev.Configure(settings); err != nil {
			return err
		}
	}

	ch, err := dev.SenseContinuous(time.Duration(cfg.Interval))
	if err != nil {
		return err
	}
	defer func() { _ = dev.Halt() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	taken := 0
	for {
		select {
		case s := <-sig:
			logging.Info("stopping", zap.String("signal", s.String()))
			return nil
		case env, ok := <-ch:
			if !ok {
				return nil
			}
			fmt.Println(env.String())
			taken++
			if count > 0 && taken >= count {
				return nil
			}
		}
	}
}
