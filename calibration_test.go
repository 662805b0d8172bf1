// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import (
	"testing"
	"time"
)

// Synthetic coefficient blocks shared with the playback tests. The values
// decode to the calibration checked in TestCalibrationParse.
var testCoeff1 = []byte{
	0x00, 0xED, 0x68, 0x03, 0x00, 0xBF, 0x8F, 0xB2,
	0xD6, 0x58, 0x00, 0x35, 0x1F, 0x92, 0xFF, 0x3F,
	0x1E, 0x00, 0x00, 0xD6, 0xCF, 0xE1, 0xFF, 0x1E,
	0x00,
}

var testCoeff2 = []byte{
	0x40, 0x52, 0x2A, 0x00, 0x2D, 0x14, 0x78, 0x9C,
	0x43, 0x67, 0xAF, 0xE8, 0xE2, 0x12, 0x00, 0x00,
}

func testCal() calibration {
	return newCalibration(testCoeff1, testCoeff2, 0x10, 0x32, 0x00)
}

func TestCalibrationParse(t *testing.T) {
	cal := newCalibration(testCoeff1, testCoeff2, 0x10, 0x32, 0x2C)
	if cal.t1 != 26435 || cal.t2 != 26861 || cal.t3 != 3 {
		t.Errorf("temperature coefficients: %#v", cal)
	}
	if cal.p1 != 36799 || cal.p2 != -10574 || cal.p3 != 88 || cal.p7 != 63 || cal.p10 != 30 {
		t.Errorf("pressure coefficients: %#v", cal)
	}
	if cal.h1 != 674 || cal.h2 != 1029 || cal.h6 != 120 || cal.h7 != -100 {
		t.Errorf("humidity coefficients: %#v", cal)
	}
	if cal.gh1 != -30 || cal.gh2 != -5969 || cal.gh3 != 18 {
		t.Errorf("gas coefficients: %#v", cal)
	}
	if cal.resHeatRange != 1 || cal.resHeatVal != 50 || cal.rangeSwErr != 2 {
		t.Errorf("heater calibration: %#v", cal)
	}
}

func TestTemperatureCompensation(t *testing.T) {
	cal := testCal()
	tFine := cal.tFine(503654)
	if tFine != 132303 {
		t.Errorf("tFine = %d, expected 132303", tFine)
	}
	if t100 := cal.temperature(tFine); t100 != 2584 {
		t.Errorf("temperature = %d, expected 2584 (25.84°C)", t100)
	}
}

func TestPressureCompensation(t *testing.T) {
	cal := testCal()
	p := cal.pressure(132303, 415148)
	t.Logf("pressure = %d Pa", p)
	if p < 80000 || p > 90000 {
		t.Errorf("pressure = %d Pa, outside the expected window", p)
	}
}

func TestHumidityCompensation(t *testing.T) {
	cal := testCal()
	h := cal.humidity(132303, 17835)
	t.Logf("humidity = %d milli%%", h)
	if h < 30000 || h > 40000 {
		t.Errorf("humidity = %d, outside the expected window", h)
	}

	// The result is clamped to the physical range.
	if h := cal.humidity(132303, 0x7FFF); h > 100000 {
		t.Errorf("humidity = %d, expected clamp at 100000", h)
	}
}

func TestGasResistance(t *testing.T) {
	cal := testCal()
	if r := cal.gasResistance(600, 6); r != 117297 {
		t.Errorf("gasResistance(600, 6) = %d, expected 117297", r)
	}
	// Resistance grows with the raw reading within a range.
	if lo, hi := cal.gasResistance(500, 6), cal.gasResistance(900, 6); lo >= hi {
		t.Errorf("gas resistance not monotonic: %d >= %d", lo, hi)
	}
}

func TestHeaterResistance(t *testing.T) {
	cal := testCal()
	if r := cal.heaterResistance(320, 25); r != 116 {
		t.Errorf("heaterResistance(320, 25) = %d, expected 116", r)
	}
	// Targets above 400°C are capped.
	if r, capped := cal.heaterResistance(500, 25), cal.heaterResistance(400, 25); r != capped {
		t.Errorf("heaterResistance(500) = %d, expected the 400°C value %d", r, capped)
	}
}

func TestHeaterDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want uint8
	}{
		{0, 0},
		{63 * time.Millisecond, 63},
		{100 * time.Millisecond, 89},  // 25ms mantissa, x4
		{150 * time.Millisecond, 101}, // 37ms mantissa, x4
		{4032 * time.Millisecond, 0xFF},
		{5 * time.Second, 0xFF},
	}
	for _, test := range tests {
		if got := heaterDuration(test.d); got != test.want {
			t.Errorf("heaterDuration(%s) = %d, expected %d", test.d, got, test.want)
		}
	}
}
