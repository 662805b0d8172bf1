// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import "time"

// calibration holds the factory trim values read from the coefficient
// registers at start-up. The compensation formulas below are the integer
// versions from the Bosch reference driver:
// https://github.com/BoschSensortec/BME680_driver/blob/master/bme680.c
type calibration struct {
	// Temperature.
	t1 uint16
	t2 int16
	t3 int8

	// Pressure.
	p1  uint16
	p2  int16
	p3  int8
	p4  int16
	p5  int16
	p6  int8
	p7  int8
	p8  int16
	p9  int16
	p10 uint8

	// Humidity.
	h1 uint16
	h2 uint16
	h3 int8
	h4 int8
	h5 int8
	h6 uint8
	h7 int8

	// Gas heater.
	gh1          int8
	gh2          int16
	gh3          int8
	resHeatRange uint8
	resHeatVal   int8
	rangeSwErr   int8
}

// newCalibration parses the two coefficient blocks (0x89 and 0xE1) plus the
// heater calibration registers. Offsets per the reference driver; the blocks
// are concatenated into a single 41 byte buffer first.
func newCalibration(coeff1, coeff2 []byte, heatRange, heatVal, swErr byte) calibration {
	b := make([]byte, 0, coeff1Len+coeff2Len)
	b = append(b, coeff1...)
	b = append(b, coeff2...)

	return calibration{
		t1: uint16(b[34])<<8 | uint16(b[33]),
		t2: int16(b[2])<<8 | int16(b[1]),
		t3: int8(b[3]),

		p1:  uint16(b[6])<<8 | uint16(b[5]),
		p2:  int16(b[8])<<8 | int16(b[7]),
		p3:  int8(b[9]),
		p4:  int16(b[12])<<8 | int16(b[11]),
		p5:  int16(b[14])<<8 | int16(b[13]),
		p6:  int8(b[16]),
		p7:  int8(b[15]),
		p8:  int16(b[20])<<8 | int16(b[19]),
		p9:  int16(b[22])<<8 | int16(b[21]),
		p10: b[23],

		h1: uint16(b[27])<<4 | uint16(b[26])&0x0F,
		h2: uint16(b[25])<<4 | uint16(b[26])>>4,
		h3: int8(b[28]),
		h4: int8(b[29]),
		h5: int8(b[30]),
		h6: b[31],
		h7: int8(b[32]),

		gh1:          int8(b[37]),
		gh2:          int16(b[36])<<8 | int16(b[35]),
		gh3:          int8(b[38]),
		resHeatRange: (heatRange & 0x30) >> 4,
		resHeatVal:   int8(heatVal),
		rangeSwErr:   int8(swErr&0xF0) >> 4,
	}
}

// tFine computes the fine temperature value every other compensation formula
// depends on.
func (c *calibration) tFine(tempADC int32) int32 {
	var1 := (tempADC >> 3) - (int32(c.t1) << 1)
	var2 := (var1 * int32(c.t2)) >> 11
	var3 := ((((var1 >> 1) * (var1 >> 1)) >> 12) * (int32(c.t3) << 4)) >> 14
	return var2 + var3
}

// temperature returns the compensated temperature in 0.01°C.
func (c *calibration) temperature(tFine int32) int32 {
	return ((tFine * 5) + 128) >> 8
}

// pressure returns the compensated pressure in Pa.
func (c *calibration) pressure(tFine, presADC int32) uint32 {
	var1 := (tFine >> 1) - 64000
	var2 := ((((var1 >> 2) * (var1 >> 2)) >> 11) * int32(c.p6)) >> 2
	var2 += (var1 * int32(c.p5)) << 1
	var2 = (var2 >> 2) + (int32(c.p4) << 16)
	var1 = (((((var1 >> 2) * (var1 >> 2)) >> 13) * (int32(c.p3) << 5)) >> 3) + ((int32(c.p2) * var1) >> 1)
	var1 >>= 18
	var1 = ((32768 + var1) * int32(c.p1)) >> 15
	comp := (1048576 - presADC - (var2 >> 12)) * 3125
	if comp >= 1<<30 {
		comp = (comp / var1) << 1
	} else {
		comp = (comp << 1) / var1
	}
	var1 = (int32(c.p9) * (((comp >> 3) * (comp >> 3)) >> 13)) >> 12
	var2 = ((comp >> 2) * int32(c.p8)) >> 13
	var3 := ((comp >> 8) * (comp >> 8) * (comp >> 8) * int32(c.p10)) >> 17
	return uint32(comp + ((var1 + var2 + var3 + (int32(c.p7) << 7)) >> 4))
}

// humidity returns the compensated relative humidity in 0.001%.
func (c *calibration) humidity(tFine, humADC int32) uint32 {
	tempScaled := ((tFine * 5) + 128) >> 8
	var1 := humADC - (int32(c.h1) << 4) - (((tempScaled * int32(c.h3)) / 100) >> 1)
	var2 := (int32(c.h2) * (((tempScaled * int32(c.h4)) / 100) +
		(((tempScaled * ((tempScaled * int32(c.h5)) / 100)) >> 6) / 100) + (1 << 14))) >> 10
	var3 := var1 * var2
	var4 := ((int32(c.h6) << 7) + ((tempScaled * int32(c.h7)) / 100)) >> 4
	var5 := ((var3 >> 14) * (var3 >> 14)) >> 10
	var6 := (var4 * var5) >> 1
	hum := (((var3 + var6) >> 10) * 1000) >> 12
	if hum > 100000 {
		hum = 100000
	} else if hum < 0 {
		hum = 0
	}
	return uint32(hum)
}

// Range specific constants for the gas resistance calculation, indexed by
// gas_range.
var gasRangeConst1 = [16]uint32{
	2147483647, 2147483647, 2147483647, 2147483647,
	2147483647, 2126008810, 2147483647, 2130303777,
	2147483647, 2147483647, 2143188679, 2136746228,
	2147483647, 2126008810, 2147483647, 2147483647,
}

var gasRangeConst2 = [16]uint32{
	4096000000, 2048000000, 1024000000, 512000000,
	255744255, 127110228, 64000000, 32258064,
	16016016, 8000000, 4000000, 2000000,
	1000000, 500000, 250000, 125000,
}

// gasResistance returns the compensated gas resistance in Ohm.
func (c *calibration) gasResistance(gasADC uint16, gasRange uint8) uint32 {
	var1 := ((1340 + 5*int64(c.rangeSwErr)) * int64(gasRangeConst1[gasRange])) >> 16
	var2 := ((int64(gasADC) << 15) - 16777216) + var1
	var3 := (int64(gasRangeConst2[gasRange]) * var1) >> 9
	return uint32((var3 + (var2 >> 1)) / var2)
}

// heaterResistance converts a heater target temperature in °C to the
// res_heat register encoding. The ambient temperature corrects for the heat
// already present at the plate. Targets above 400°C are capped to the
// maximum the heater supports.
func (c *calibration) heaterResistance(target uint16, ambient int8) uint8 {
	if target > 400 {
		target = 400
	}
	var1 := ((int32(ambient) * int32(c.gh3)) / 1000) * 256
	var2 := (int32(c.gh1) + 784) * (((((int32(c.gh2) + 154009) * int32(target) * 5) / 100) + 3276800) / 10)
	var3 := var1 + (var2 / 2)
	var4 := var3 / (int32(c.resHeatRange) + 4)
	var5 := (131 * int32(c.resHeatVal)) + 65536
	resX100 := ((var4 / var5) - 250) * 34
	return uint8((resX100 + 50) / 100)
}

// heaterDuration converts a heater hold time to the gas_wait register
// encoding: a 6 bit mantissa in milliseconds with a 2 bit x4 multiplier.
// Durations of 0xFC0 ms and above saturate at the register maximum.
func heaterDuration(d time.Duration) uint8 {
	ms := d.Milliseconds()
	if ms >= 0xFC0 {
		return 0xFF
	}
	var factor uint8
	for ms > 0x3F {
		ms /= 4
		factor++
	}
	return uint8(ms) + factor*64
}
