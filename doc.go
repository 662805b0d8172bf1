// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package bme680 provides a driver for the Bosch BME680 environmental
// sensor. The device measures temperature, humidity, barometric pressure and
// gas resistance (a proxy for air quality) over I2C.
//
// Configuration is expressed as a sparse update: SettingsBuilder collects
// the parameters the caller wants to change together with a mask of which
// aspects were selected, and Dev.Configure writes only the registers that
// mask covers. Registers for unselected aspects keep whatever value the
// device currently holds.
//
//	settings := bme680.NewSettingsBuilder().
//		WithTemperatureOversampling(bme680.Oversampling8x).
//		WithPressureOversampling(bme680.Oversampling4x).
//		WithHumidityOversampling(bme680.Oversampling2x).
//		WithTemperatureFilter(bme680.Filter3).
//		WithGasMeasurement(150*time.Millisecond, 320, 25).
//		WithRunGas(true).
//		Build()
//	if err := dev.Configure(settings); err != nil {
//		...
//	}
//
// Datasheet
//
//	https://www.bosch-sensortec.com/media/boschsensortec/downloads/datasheets/bst-bme680-ds001.pdf
package bme680
