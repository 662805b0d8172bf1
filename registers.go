// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

// Register addresses. Refer to the memory map in section 5.2 of the
// datasheet.
const (
	regMeasStatus0 byte = 0x1D // field 0 status, start of the data frame
	regIdacHeat0   byte = 0x50 // heater current set-points 0-9
	regResHeat0    byte = 0x5A // heater resistance set-points 0-9
	regGasWait0    byte = 0x64 // heater wait time set-points 0-9
	regCtrlGas0    byte = 0x70 // heat_off
	regCtrlGas1    byte = 0x71 // run_gas + nb_conv
	regCtrlHum     byte = 0x72 // osrs_h
	regCtrlMeas    byte = 0x74 // osrs_t + osrs_p + mode
	regConfig      byte = 0x75 // IIR filter
	regCoeff1      byte = 0x89 // first calibration coefficient block
	regChipID      byte = 0xD0
	regCoeff2      byte = 0xE1 // second calibration coefficient block
	regSoftReset   byte = 0xE0

	// Heater calibration registers.
	regResHeatVal   byte = 0x00
	regResHeatRange byte = 0x02
	regRangeSwErr   byte = 0x04
)

const (
	chipID        byte = 0x61
	softResetCmd  byte = 0xB6
	coeff1Len          = 25
	coeff2Len          = 16
	fieldDataLen       = 15
)

// Power modes, bits [1:0] of ctrl_meas. The device falls back to sleep after
// every conversion in forced mode; Sense restarts it for each reading.
const (
	modeSleep  byte = 0x00
	modeForced byte = 0x01
	modeMask   byte = 0x03
)

// Field 0 status bits.
const (
	bitNewData    byte = 1 << 7
	bitGasValid   byte = 1 << 5 // in gas_r_lsb
	bitHeatStable byte = 1 << 4 // in gas_r_lsb
	gasRangeMask  byte = 0x0F
)

// ctrl_gas bits.
const (
	bitHeatOff byte = 1 << 3
	bitRunGas  byte = 1 << 4
	nbConvMask byte = 0x0F
)
