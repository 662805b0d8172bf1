// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import (
	"testing"
	"time"
)

func TestOversamplingFrom(t *testing.T) {
	want := []Oversampling{
		OversamplingOff,
		Oversampling1x,
		Oversampling2x,
		Oversampling4x,
		Oversampling8x,
		Oversampling16x,
	}
	for v, expected := range want {
		if os := OversamplingFrom(uint8(v)); os != expected {
			t.Errorf("OversamplingFrom(%d) = %s, expected %s", v, os, expected)
		}
	}
}

func TestOversamplingFromInvalid(t *testing.T) {
	for _, v := range []uint8{6, 7, 0xFF} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("OversamplingFrom(%d) did not panic", v)
				}
			}()
			OversamplingFrom(v)
		}()
	}
}

func TestBuilderEmpty(t *testing.T) {
	s := NewSettingsBuilder().Build()
	if s.Desired != 0 {
		t.Errorf("empty builder produced mask %#04x, expected 0", uint16(s.Desired))
	}
	if s.Sensor != (SensorSettings{}) {
		t.Errorf("empty builder produced non-default settings: %#v", s.Sensor)
	}
	if s.Sensor.Gas.Profile != 0 || s.Sensor.Gas.RunGas || s.Sensor.Gas.AmbientTemperature != 0 {
		t.Errorf("unexpected gas defaults: %#v", s.Sensor.Gas)
	}
	if s.Sensor.TPH.Temperature.IsSet() || s.Sensor.TPH.Filter.IsSet() {
		t.Errorf("unexpected tph defaults: %#v", s.Sensor.TPH)
	}
}

func TestDesiredSettingsLayout(t *testing.T) {
	// The numeric values are part of the contract with code that persists
	// the mask. Do not renumber.
	tests := []struct {
		flag DesiredSettings
		want uint16
	}{
		{DesiredTemperatureOversampling, 1},
		{DesiredPressureOversampling, 2},
		{DesiredHumidityOversampling, 4},
		{DesiredGasMeasurement, 8},
		{DesiredFilter, 16},
		{DesiredHeaterControl, 32},
		{DesiredRunGas, 64},
		{DesiredProfile, 128},
		{DesiredGasSensor, 8 | 64 | 128},
	}
	for _, test := range tests {
		if uint16(test.flag) != test.want {
			t.Errorf("flag = %d, expected %d", uint16(test.flag), test.want)
		}
	}
}

func TestBuilderMaskBits(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*SettingsBuilder) *SettingsBuilder
		want  DesiredSettings
	}{
		{
			"temperature filter",
			func(b *SettingsBuilder) *SettingsBuilder { return b.WithTemperatureFilter(Filter7) },
			DesiredFilter,
		},
		{
			"heater control",
			func(b *SettingsBuilder) *SettingsBuilder { return b.WithHeaterControl(0x08) },
			DesiredHeaterControl,
		},
		{
			"temperature oversampling",
			func(b *SettingsBuilder) *SettingsBuilder { return b.WithTemperatureOversampling(Oversampling2x) },
			DesiredTemperatureOversampling,
		},
		{
			"pressure oversampling",
			func(b *SettingsBuilder) *SettingsBuilder { return b.WithPressureOversampling(Oversampling16x) },
			DesiredPressureOversampling,
		},
		{
			"humidity oversampling",
			func(b *SettingsBuilder) *SettingsBuilder { return b.WithHumidityOversampling(Oversampling1x) },
			DesiredHumidityOversampling,
		},
		{
			"gas measurement",
			func(b *SettingsBuilder) *SettingsBuilder {
				return b.WithGasMeasurement(100*time.Millisecond, 300, 20)
			},
			DesiredRunGas,
		},
		{
			"profile",
			func(b *SettingsBuilder) *SettingsBuilder { return b.WithProfile(3) },
			DesiredProfile,
		},
		{
			"run gas",
			func(b *SettingsBuilder) *SettingsBuilder { return b.WithRunGas(true) },
			DesiredRunGas,
		},
	}
	for _, test := range tests {
		s := test.apply(NewSettingsBuilder()).Build()
		if s.Desired != test.want {
			t.Errorf("%s: mask = %#04x, expected %#04x", test.name, uint16(s.Desired), uint16(test.want))
		}
	}
}

// WithGasMeasurement and WithRunGas deliberately share the run-gas flag:
// either order must produce a mask with that single bit.
func TestBuilderRunGasBitSharing(t *testing.T) {
	s := NewSettingsBuilder().
		WithRunGas(true).
		WithGasMeasurement(150*time.Millisecond, 300, 25).
		Build()
	if s.Desired != DesiredRunGas {
		t.Errorf("mask = %#04x, expected exactly DesiredRunGas", uint16(s.Desired))
	}

	s = NewSettingsBuilder().
		WithGasMeasurement(150*time.Millisecond, 300, 25).
		WithRunGas(true).
		Build()
	if s.Desired != DesiredRunGas {
		t.Errorf("reverse order: mask = %#04x, expected exactly DesiredRunGas", uint16(s.Desired))
	}
}

func TestBuilderTemperatureOversampling(t *testing.T) {
	s := NewSettingsBuilder().
		WithTemperatureOversampling(OversamplingFrom(3)).
		Build()
	if s.Desired != DesiredTemperatureOversampling {
		t.Errorf("mask = %#04x, expected exactly DesiredTemperatureOversampling", uint16(s.Desired))
	}
	os, set := s.Sensor.TPH.Temperature.Get()
	if !set || os != Oversampling4x {
		t.Errorf("temperature oversampling = (%s, %t), expected (4x, true)", os, set)
	}
	if s.Sensor.TPH.Pressure.IsSet() || s.Sensor.TPH.Humidity.IsSet() {
		t.Error("unrelated oversampling fields were set")
	}
}

func TestBuilderGasMeasurement(t *testing.T) {
	s := NewSettingsBuilder().
		WithGasMeasurement(150*time.Millisecond, 300, 25).
		Build()
	if s.Desired != DesiredRunGas {
		t.Errorf("mask = %#04x, expected exactly DesiredRunGas", uint16(s.Desired))
	}
	if dur, set := s.Sensor.Gas.HeaterDuration.Get(); !set || dur != 150*time.Millisecond {
		t.Errorf("heater duration = (%s, %t), expected (150ms, true)", dur, set)
	}
	if temp, set := s.Sensor.Gas.HeaterTemperature.Get(); !set || temp != 300 {
		t.Errorf("heater temperature = (%d, %t), expected (300, true)", temp, set)
	}
	if s.Sensor.Gas.AmbientTemperature != 25 {
		t.Errorf("ambient temperature = %d, expected 25", s.Sensor.Gas.AmbientTemperature)
	}
	if s.Sensor.Gas.RunGas {
		t.Error("run gas flag was set without WithRunGas")
	}
}

func TestBuilderOverwrite(t *testing.T) {
	s := NewSettingsBuilder().
		WithTemperatureFilter(Filter3).
		WithTemperatureFilter(Filter127).
		Build()
	if s.Desired != DesiredFilter {
		t.Errorf("mask = %#04x, expected exactly DesiredFilter", uint16(s.Desired))
	}
	if f, _ := s.Sensor.TPH.Filter.Get(); f != Filter127 {
		t.Errorf("filter = %d, expected Filter127", f)
	}
}

func TestDesiredGasSensorContainment(t *testing.T) {
	s := NewSettingsBuilder().WithRunGas(true).Build()
	if !s.Desired.Any(DesiredGasSensor) {
		t.Error("run gas alone should partially satisfy DesiredGasSensor")
	}
	if s.Desired.All(DesiredGasSensor) {
		t.Error("run gas alone should not fully satisfy DesiredGasSensor")
	}

	mask := NewSettingsBuilder().WithRunGas(true).WithProfile(2).Build().Desired
	// Register selection code may request the gas measurement aspect
	// directly; the composite must then be fully contained.
	mask |= DesiredGasMeasurement
	if !mask.All(DesiredGasSensor) {
		t.Errorf("mask %#04x should fully contain DesiredGasSensor", uint16(mask))
	}
}

func TestSettingsCopyIndependent(t *testing.T) {
	s := NewSettingsBuilder().
		WithHumidityOversampling(Oversampling4x).
		WithGasMeasurement(100*time.Millisecond, 250, 20).
		Build()
	cp := s.Sensor
	cp.TPH.Humidity = Some(Oversampling16x)
	cp.Gas.HeaterTemperature = Some(uint16(400))
	if os, _ := s.Sensor.TPH.Humidity.Get(); os != Oversampling4x {
		t.Error("modifying a copy changed the original humidity oversampling")
	}
	if temp, _ := s.Sensor.Gas.HeaterTemperature.Get(); temp != 250 {
		t.Error("modifying a copy changed the original heater temperature")
	}
}

func TestBuilderConsumedByBuild(t *testing.T) {
	b := NewSettingsBuilder().WithRunGas(true)
	_ = b.Build()

	expectPanic := func(name string, f func()) {
		defer func() {
			if recover() == nil {
				t.Errorf("%s after Build did not panic", name)
			}
		}()
		f()
	}
	expectPanic("Build", func() { b.Build() })
	expectPanic("WithRunGas", func() { b.WithRunGas(false) })
	expectPanic("WithProfile", func() { b.WithProfile(1) })
}
