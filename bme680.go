// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package bme680

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the default I2C address. Pulling the SDO pin low changes
// it to 0x76.
const DefaultAddress uint16 = 0x77

// The device has ten heater set-point slots.
const profileCount = 10

var (
	errWrongChip      = errors.New("bme680: unexpected chip ID, check wiring and address")
	errProfileRange   = errors.New("bme680: heater profile index out of range")
	errHeaterSetpoint = errors.New("bme680: gas measurement requires a heater temperature and duration")
	errReadTimeout    = errors.New("bme680: timeout waiting for measurement")
)

// Opts holds the configuration options for the device.
type Opts struct {
	// MeasurementReadTimeout bounds the wait for a forced mode conversion to
	// finish. 0 means no timeout.
	MeasurementReadTimeout time.Duration
	// MeasurementWaitInterval is the poll interval while a conversion is in
	// progress. Leave 0 to use the default of 10ms.
	MeasurementWaitInterval time.Duration
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	MeasurementReadTimeout:  500 * time.Millisecond,
	MeasurementWaitInterval: 10 * time.Millisecond,
}

// Env is a single reading. GasResistance is 0 when the gas conversion is
// disabled or the heater had not yet reached its target temperature.
type Env struct {
	physic.Env
	GasResistance physic.ElectricResistance
}

// String returns the reading in string format.
func (e *Env) String() string {
	return fmt.Sprintf("Temperature: %s Humidity: %s Pressure: %s GasResistance: %s",
		e.Temperature.String(), e.Humidity.String(), e.Pressure.String(), e.GasResistance.String())
}

// Dev represents a BME680 environmental sensor.
type Dev struct {
	d    *i2c.Dev
	opts Opts
	cal  calibration
	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
	// Ambient temperature from the last applied gas settings.
	ambient int8
}

// NewI2C returns an object that communicates over I2C to a BME680
// environmental sensor. The device is soft reset and its calibration
// coefficients are read. The Opts can be nil.
func NewI2C(b i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if opts.MeasurementWaitInterval <= 0 {
		opts.MeasurementWaitInterval = 10 * time.Millisecond
	}

	d := &Dev{d: &i2c.Dev{Bus: b, Addr: addr}, opts: *opts}
	if err := d.SoftReset(); err != nil {
		return nil, fmt.Errorf("bme680: soft reset failed: %w", err)
	}
	id, err := d.readRegister(regChipID, 1)
	if err != nil {
		return nil, fmt.Errorf("bme680: reading chip ID: %w", err)
	}
	if id[0] != chipID {
		return nil, errWrongChip
	}
	if err := d.readCalibration(); err != nil {
		return nil, fmt.Errorf("bme680: reading calibration: %w", err)
	}
	return d, nil
}

// SoftReset restarts the device. All register values fall back to their
// power-on defaults; the calibration coefficients are unaffected.
func (d *Dev) SoftReset() error {
	if err := d.writeRegister(regSoftReset, softResetCmd); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond) // start-up time per datasheet
	return nil
}

// Configure applies a settings update produced by SettingsBuilder.Build.
// Only the registers whose aspect is flagged in s.Desired are touched;
// everything else keeps its current value. The device is put to sleep for
// the duration of the update.
func (d *Dev) Configure(s Settings) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.Sensor.Gas.Profile >= profileCount {
		return errProfileRange
	}
	if err := d.setSleep(); err != nil {
		return err
	}

	if s.Desired.Any(DesiredRunGas | DesiredGasMeasurement) {
		if err := d.setGasConfig(s.Sensor.Gas); err != nil {
			return err
		}
	}
	if s.Desired.Any(DesiredRunGas | DesiredProfile | DesiredGasMeasurement) {
		if err := d.setGasControl(s.Sensor.Gas, s.Desired); err != nil {
			return err
		}
	}
	if s.Desired.Any(DesiredHeaterControl) {
		if err := d.setHeaterControl(s.Sensor.Gas); err != nil {
			return err
		}
	}
	if s.Desired.Any(DesiredHumidityOversampling) {
		if err := d.setHumidityOversampling(s.Sensor.TPH); err != nil {
			return err
		}
	}
	if s.Desired.Any(DesiredTemperatureOversampling | DesiredPressureOversampling) {
		if err := d.setTPOversampling(s.Sensor.TPH, s.Desired); err != nil {
			return err
		}
	}
	if s.Desired.Any(DesiredFilter) {
		if err := d.setFilter(s.Sensor.TPH); err != nil {
			return err
		}
	}
	return nil
}

// setSleep forces the device into sleep mode so configuration registers can
// be written.
func (d *Dev) setSleep() error {
	ctrl, err := d.readRegister(regCtrlMeas, 1)
	if err != nil {
		return err
	}
	if ctrl[0]&modeMask == modeSleep {
		return nil
	}
	return d.writeRegister(regCtrlMeas, ctrl[0]&^modeMask)
}

// setGasConfig writes the heater set-point registers for the selected
// profile slot and records the ambient temperature correction.
func (d *Dev) setGasConfig(gas GasSettings) error {
	temp, hasTemp := gas.HeaterTemperature.Get()
	dur, hasDur := gas.HeaterDuration.Get()
	if !hasTemp || !hasDur {
		if gas.RunGas {
			return errHeaterSetpoint
		}
		// Gas conversion is being switched off, nothing to program.
		return nil
	}
	d.ambient = gas.AmbientTemperature
	if err := d.writeRegister(regResHeat0+gas.Profile, d.cal.heaterResistance(temp, gas.AmbientTemperature)); err != nil {
		return err
	}
	return d.writeRegister(regGasWait0+gas.Profile, heaterDuration(dur))
}

// setGasControl updates the run_gas and nb_conv fields of ctrl_gas_1,
// preserving whichever of the two the caller did not select.
func (d *Dev) setGasControl(gas GasSettings, desired DesiredSettings) error {
	ctrl, err := d.readRegister(regCtrlGas1, 1)
	if err != nil {
		return err
	}
	v := ctrl[0]
	if desired.Any(DesiredRunGas | DesiredGasMeasurement) {
		v &^= bitRunGas
		if gas.RunGas {
			v |= bitRunGas
		}
	}
	if desired.Any(DesiredProfile) {
		v = v&^nbConvMask | gas.Profile&nbConvMask
	}
	return d.writeRegister(regCtrlGas1, v)
}

func (d *Dev) setHeaterControl(gas GasSettings) error {
	ctrl, hasCtrl := gas.HeaterControl.Get()
	if !hasCtrl {
		return nil
	}
	cur, err := d.readRegister(regCtrlGas0, 1)
	if err != nil {
		return err
	}
	return d.writeRegister(regCtrlGas0, cur[0]&^bitHeatOff|ctrl&bitHeatOff)
}

func (d *Dev) setHumidityOversampling(tph TPHSettings) error {
	os, hasOS := tph.Humidity.Get()
	if !hasOS {
		return nil
	}
	cur, err := d.readRegister(regCtrlHum, 1)
	if err != nil {
		return err
	}
	return d.writeRegister(regCtrlHum, cur[0]&^0x07|uint8(os))
}

// setTPOversampling updates the osrs_t and osrs_p fields of ctrl_meas
// without disturbing the power mode bits.
func (d *Dev) setTPOversampling(tph TPHSettings, desired DesiredSettings) error {
	cur, err := d.readRegister(regCtrlMeas, 1)
	if err != nil {
		return err
	}
	v := cur[0]
	if os, hasOS := tph.Temperature.Get(); hasOS && desired.Any(DesiredTemperatureOversampling) {
		v = v&^(0x07<<5) | uint8(os)<<5
	}
	if os, hasOS := tph.Pressure.Get(); hasOS && desired.Any(DesiredPressureOversampling) {
		v = v&^(0x07<<2) | uint8(os)<<2
	}
	return d.writeRegister(regCtrlMeas, v)
}

func (d *Dev) setFilter(tph TPHSettings) error {
	f, hasFilter := tph.Filter.Get()
	if !hasFilter {
		return nil
	}
	cur, err := d.readRegister(regConfig, 1)
	if err != nil {
		return err
	}
	return d.writeRegister(regConfig, cur[0]&^(0x07<<2)|uint8(f)<<2)
}

// Sense triggers a forced mode conversion and returns the compensated
// readings. The conversion time depends on the configured oversampling and
// heater duration; Sense polls until the device reports fresh data or the
// configured timeout elapses.
func (d *Dev) Sense(e *Env) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctrl, err := d.readRegister(regCtrlMeas, 1)
	if err != nil {
		return err
	}
	if err := d.writeRegister(regCtrlMeas, ctrl[0]&^modeMask|modeForced); err != nil {
		return err
	}

	end := time.Now().Add(d.opts.MeasurementReadTimeout)
	for d.opts.MeasurementReadTimeout <= 0 || time.Now().Before(end) {
		status, err := d.readRegister(regMeasStatus0, 1)
		if err != nil {
			return err
		}
		if status[0]&bitNewData != 0 {
			data, err := d.readRegister(regMeasStatus0, fieldDataLen)
			if err != nil {
				return err
			}
			d.interpret(data, e)
			return nil
		}
		time.Sleep(d.opts.MeasurementWaitInterval)
	}
	return errReadTimeout
}

// interpret converts a raw field 0 data frame into physical units.
func (d *Dev) interpret(data []byte, e *Env) {
	tempADC := int32(data[5])<<12 | int32(data[6])<<4 | int32(data[7])>>4
	presADC := int32(data[2])<<12 | int32(data[3])<<4 | int32(data[4])>>4
	humADC := int32(data[8])<<8 | int32(data[9])
	gasADC := uint16(data[13])<<2 | uint16(data[14])>>6
	gasRange := data[14] & gasRangeMask

	tFine := d.cal.tFine(tempADC)
	t100 := d.cal.temperature(tFine)
	e.Temperature = physic.ZeroCelsius + physic.Temperature(t100)*physic.Celsius/100
	e.Pressure = physic.Pressure(d.cal.pressure(tFine, presADC)) * physic.Pascal
	e.Humidity = physic.RelativeHumidity(d.cal.humidity(tFine, humADC)) * physic.MilliRH

	e.GasResistance = 0
	if data[14]&bitGasValid != 0 && data[14]&bitHeatStable != 0 {
		e.GasResistance = physic.ElectricResistance(d.cal.gasResistance(gasADC, gasRange)) * physic.Ohm
	}
}

// SenseContinuous returns a channel that receives a reading every interval.
// It is the caller's responsibility to call Halt() when done. Readings may
// lag the interval when the conversion itself takes longer.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan Env, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop != nil {
		return nil, errors.New("bme680: SenseContinuous() already running")
	}
	d.wg.Add(1)

	sensing := make(chan Env)
	d.stop = make(chan struct{})
	stop := d.stop
	go func() {
		defer d.wg.Done()
		defer close(sensing)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				var e Env
				if err := d.Sense(&e); err != nil {
					continue
				}
				select {
				case sensing <- e:
				case <-stop:
					return
				}
			}
		}
	}()
	return sensing, nil
}

// Precision returns the worst case resolution of the compensated readings.
func (d *Dev) Precision(e *Env) {
	e.Temperature = 10 * physic.MilliKelvin
	e.Pressure = physic.Pascal
	e.Humidity = physic.MilliRH
	e.GasResistance = physic.Ohm
}

// Halt stops a SenseContinuous() loop. The device itself falls back to
// sleep mode on its own after a forced conversion.
func (d *Dev) Halt() error {
	d.mu.Lock()
	if d.stop == nil {
		d.mu.Unlock()
		return nil
	}
	close(d.stop)
	// Release the lock while waiting so an in-flight Sense can finish.
	d.mu.Unlock()
	d.wg.Wait()
	d.mu.Lock()
	d.stop = nil
	d.mu.Unlock()
	return nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("bme680: %s", d.d.String())
}

func (d *Dev) readCalibration() error {
	coeff1, err := d.readRegister(regCoeff1, coeff1Len)
	if err != nil {
		return err
	}
	coeff2, err := d.readRegister(regCoeff2, coeff2Len)
	if err != nil {
		return err
	}
	heatVal, err := d.readRegister(regResHeatVal, 1)
	if err != nil {
		return err
	}
	heatRange, err := d.readRegister(regResHeatRange, 1)
	if err != nil {
		return err
	}
	swErr, err := d.readRegister(regRangeSwErr, 1)
	if err != nil {
		return err
	}
	d.cal = newCalibration(coeff1, coeff2, heatRange[0], heatVal[0], swErr[0])
	return nil
}

func (d *Dev) readRegister(reg byte, n int) ([]byte, error) {
	r := make([]byte, n)
	if err := d.d.Tx([]byte{reg}, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (d *Dev) writeRegister(reg, value byte) error {
	return d.d.Tx([]byte{reg, value}, nil)
}
