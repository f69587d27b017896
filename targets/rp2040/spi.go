//go:build rp2040 || rp2350

package main

import (
	"errors"
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"
)

// spiBusConfig describes the pins of a PIO-driven SPI bus.
// PIO SPI leaves both hardware SPI controllers free for other uses.
type spiBusConfig struct {
	block *pio.PIO
	sm    uint8
	sck   machine.Pin
	sdo   machine.Pin
	sdi   machine.Pin
	name  string
}

var rpPIOSPIBuses = map[uint8]spiBusConfig{
	0: {block: pio.PIO0, sm: 3, sck: machine.GPIO10, sdo: machine.GPIO11, sdi: machine.GPIO12, name: "piospi0"},
	1: {block: pio.PIO1, sm: 3, sck: machine.GPIO14, sdo: machine.GPIO15, sdi: machine.GPIO8, name: "piospi1"},
}

// configurePIOSPI claims the bus's state machine and loads the SPI program on it
func configurePIOSPI(bus uint8, mode uint8, frequencyHz uint32) (*piolib.SPI, string, error) {
	busConfig, exists := rpPIOSPIBuses[bus]
	if !exists {
		return nil, "", errors.New("invalid SPI bus ID")
	}
	if mode > 3 {
		return nil, "", errors.New("invalid SPI mode")
	}

	sm := busConfig.block.StateMachine(busConfig.sm)
	if !sm.TryClaim() {
		return nil, "", errors.New("PIO state machine already claimed")
	}

	spi, err := piolib.NewSPI(sm, machine.SPIConfig{
		Frequency: frequencyHz,
		SCK:       busConfig.sck,
		SDO:       busConfig.sdo,
		SDI:       busConfig.sdi,
		Mode:      mode,
	})
	if err != nil {
		return nil, "", err
	}

	return spi, busConfig.name, nil
}
