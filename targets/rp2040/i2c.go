//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"
)

// i2cBusConfig describes one hardware I2C controller and its pins
type i2cBusConfig struct {
	i2c  *machine.I2C
	sda  machine.Pin
	scl  machine.Pin
	name string
}

// RP2040/RP2350 have I2C0 and I2C1
var rpI2CBuses = map[uint8]i2cBusConfig{
	0: {i2c: machine.I2C0, sda: machine.GPIO4, scl: machine.GPIO5, name: "i2c0"},
	1: {i2c: machine.I2C1, sda: machine.GPIO6, scl: machine.GPIO7, name: "i2c1"},
}

// configureI2C sets up a hardware I2C controller and returns it.
// The returned bus is meant to be moved into a gate right away.
func configureI2C(bus uint8, frequencyHz uint32) (*machine.I2C, string, error) {
	busConfig, exists := rpI2CBuses[bus]
	if !exists {
		return nil, "", errors.New("unsupported I2C bus ID")
	}

	err := busConfig.i2c.Configure(machine.I2CConfig{
		Frequency: frequencyHz,
		SDA:       busConfig.sda,
		SCL:       busConfig.scl,
	})
	if err != nil {
		return nil, "", err
	}

	return busConfig.i2c, busConfig.name, nil
}
