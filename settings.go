// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import (
	"fmt"
	"time"
)

// Oversampling is the per-channel oversampling multiplier. Higher values
// improve resolution at the cost of conversion time.
type Oversampling uint8

const (
	// OversamplingOff skips measurement of the channel entirely.
	OversamplingOff Oversampling = iota
	Oversampling1x
	Oversampling2x
	Oversampling4x
	Oversampling8x
	Oversampling16x
)

// OversamplingFrom converts a raw register value to an Oversampling. It
// panics if v is out of range; an out of range value means the caller fed the
// driver a corrupted register read or a miscomputed constant, and silently
// substituting a default would configure the sensor with the wrong
// oversampling.
func OversamplingFrom(v uint8) Oversampling {
	if v > uint8(Oversampling16x) {
		panic(fmt.Sprintf("bme680: invalid oversampling value %d", v))
	}
	return Oversampling(v)
}

func (o Oversampling) String() string {
	switch o {
	case OversamplingOff:
		return "Off"
	case Oversampling1x:
		return "1x"
	case Oversampling2x:
		return "2x"
	case Oversampling4x:
		return "4x"
	case Oversampling8x:
		return "8x"
	case Oversampling16x:
		return "16x"
	}
	return fmt.Sprintf("Oversampling(%d)", uint8(o))
}

// FilterCoefficient is the IIR filter constant applied to temperature and
// pressure readings. The value is the register encoding, not the coefficient
// itself.
type FilterCoefficient uint8

const (
	FilterOff FilterCoefficient = iota
	Filter1
	Filter3
	Filter7
	Filter15
	Filter31
	Filter63
	Filter127
)

// Optional is a register value that may be left unspecified. The zero value
// is unset. It has value semantics: copying an Optional, or a struct
// containing one, yields a fully independent copy.
type Optional[T any] struct {
	value T
	set   bool
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// Get returns the held value and whether one was set.
func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

// IsSet reports whether a value was set.
func (o Optional[T]) IsSet() bool {
	return o.set
}

// TPHSettings holds the temperature, pressure and humidity conversion
// parameters. An unset field means "leave the corresponding register bits
// alone".
type TPHSettings struct {
	// Humidity oversampling.
	Humidity Optional[Oversampling]
	// Temperature oversampling.
	Temperature Optional[Oversampling]
	// Pressure oversampling.
	Pressure Optional[Oversampling]
	// IIR filter applied to temperature and pressure.
	Filter Optional[FilterCoefficient]
}

// GasSettings holds the gas measurement parameters.
type GasSettings struct {
	// Profile selects one of the ten heater set-points (0-9).
	Profile uint8
	// HeaterControl is the raw heater control register value.
	HeaterControl Optional[uint8]
	// RunGas enables gas measurement. Disabled by default.
	RunGas bool
	// HeaterTemperature is the heater plate target temperature in °C.
	HeaterTemperature Optional[uint16]
	// HeaterDuration is how long the heater plate is held at the target
	// temperature before the gas conversion starts.
	HeaterDuration Optional[time.Duration]
	// AmbientTemperature in °C, used to correct the heater resistance
	// calculation.
	AmbientTemperature int8
}

// SensorSettings is the full set of configurable parameters, whichever were
// actually set. Which of them the caller intends to write is recorded
// separately in a DesiredSettings mask; a zero field here is
// indistinguishable from an explicitly requested zero without it.
type SensorSettings struct {
	Gas GasSettings
	TPH TPHSettings
}

// DesiredSettings flags the parameters a caller explicitly selected.
// Configure only touches registers whose flag is set, so an untouched flag
// leaves the device's current value alone. The bit layout is stable; do not
// reorder.
type DesiredSettings uint16

const (
	// DesiredTemperatureOversampling selects the temperature oversampling.
	DesiredTemperatureOversampling DesiredSettings = 1 << iota
	// DesiredPressureOversampling selects the pressure oversampling.
	DesiredPressureOversampling
	// DesiredHumidityOversampling selects the humidity oversampling.
	DesiredHumidityOversampling
	// DesiredGasMeasurement selects the gas measurement setting.
	DesiredGasMeasurement
	// DesiredFilter selects the IIR filter.
	DesiredFilter
	// DesiredHeaterControl selects the heater control setting.
	DesiredHeaterControl
	// DesiredRunGas selects the run-gas setting.
	DesiredRunGas
	// DesiredProfile selects the heater set-point index.
	DesiredProfile

	// DesiredGasSensor selects all gas sensor related settings.
	DesiredGasSensor = DesiredGasMeasurement | DesiredRunGas | DesiredProfile
)

// Any reports whether at least one of the flags in mask is set in d.
func (d DesiredSettings) Any(mask DesiredSettings) bool {
	return d&mask != 0
}

// All reports whether every flag in mask is set in d.
func (d DesiredSettings) All(mask DesiredSettings) bool {
	return d&mask == mask
}

// Settings pairs the parameter values with the mask of parameters the caller
// selected. It is produced once by SettingsBuilder.Build and read-only
// thereafter.
type Settings struct {
	Sensor  SensorSettings
	Desired DesiredSettings
}

// SettingsBuilder accumulates a sparse configuration update. Each With method
// records the supplied value and flags the matching aspect in the desired
// mask, then returns the builder for chaining. A builder is single use:
// Build consumes it.
//
// A SettingsBuilder is not safe for concurrent use.
type SettingsBuilder struct {
	sensor  SensorSettings
	desired DesiredSettings
	built   bool
}

// NewSettingsBuilder returns an empty builder: no parameters set, empty mask.
func NewSettingsBuilder() *SettingsBuilder {
	return &SettingsBuilder{}
}

func (b *SettingsBuilder) usable() {
	if b.built {
		panic("bme680: SettingsBuilder used after Build")
	}
}

// WithTemperatureFilter sets the IIR filter coefficient.
func (b *SettingsBuilder) WithTemperatureFilter(f FilterCoefficient) *SettingsBuilder {
	b.usable()
	b.sensor.TPH.Filter = Some(f)
	b.desired |= DesiredFilter
	return b
}

// WithHeaterControl sets the raw heater control register value.
func (b *SettingsBuilder) WithHeaterControl(ctrl uint8) *SettingsBuilder {
	b.usable()
	b.sensor.Gas.HeaterControl = Some(ctrl)
	b.desired |= DesiredHeaterControl
	return b
}

// WithTemperatureOversampling sets the temperature oversampling.
func (b *SettingsBuilder) WithTemperatureOversampling(os Oversampling) *SettingsBuilder {
	b.usable()
	b.sensor.TPH.Temperature = Some(os)
	b.desired |= DesiredTemperatureOversampling
	return b
}

// WithPressureOversampling sets the pressure oversampling.
func (b *SettingsBuilder) WithPressureOversampling(os Oversampling) *SettingsBuilder {
	b.usable()
	b.sensor.TPH.Pressure = Some(os)
	b.desired |= DesiredPressureOversampling
	return b
}

// WithHumidityOversampling sets the humidity oversampling.
func (b *SettingsBuilder) WithHumidityOversampling(os Oversampling) *SettingsBuilder {
	b.usable()
	b.sensor.TPH.Humidity = Some(os)
	b.desired |= DesiredHumidityOversampling
	return b
}

// WithGasMeasurement sets the heater profile: hold the heater plate at
// temperature °C for duration before the gas conversion, with ambient (°C)
// feeding the heater resistance correction.
//
// Note this flags DesiredRunGas, the same bit WithRunGas flags, not
// DesiredGasMeasurement: selecting a heater profile and enabling the gas
// conversion are the same aspect as far as register selection is concerned.
func (b *SettingsBuilder) WithGasMeasurement(duration time.Duration, temperature uint16, ambient int8) *SettingsBuilder {
	b.usable()
	b.sensor.Gas.HeaterDuration = Some(duration)
	b.sensor.Gas.HeaterTemperature = Some(temperature)
	b.sensor.Gas.AmbientTemperature = ambient
	b.desired |= DesiredRunGas
	return b
}

// WithProfile selects the heater set-point index (0-9).
func (b *SettingsBuilder) WithProfile(index uint8) *SettingsBuilder {
	b.usable()
	b.sensor.Gas.Profile = index
	b.desired |= DesiredProfile
	return b
}

// WithRunGas enables or disables the gas conversion.
func (b *SettingsBuilder) WithRunGas(run bool) *SettingsBuilder {
	b.usable()
	b.sensor.Gas.RunGas = run
	b.desired |= DesiredRunGas
	return b
}

// Build returns the accumulated settings and consumes the builder. Any use
// of the builder after Build panics.
func (b *SettingsBuilder) Build() Settings {
	b.usable()
	b.built = true
	return Settings{Sensor: b.sensor, Desired: b.desired}
}
