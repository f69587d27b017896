//go:build rp2040 || rp2350

package main

import (
	"busguard/core"
	"machine"
	"strconv"
	"time"

	"tinygo.org/x/drivers/adxl345"
	"tinygo.org/x/drivers/bmp280"
	"tinygo.org/x/drivers/lis3dh"
	"tinygo.org/x/drivers/max6675"
	"tinygo.org/x/drivers/mcp3008"
)

const (
	i2cFrequency = 400 * machine.KHz
	spiFrequency = 4 * machine.MHz // MAX6675 tops out at 4.3MHz

	mcp3008CS = machine.GPIO13
	max6675CS = machine.GPIO9

	pollInterval = 500 * time.Millisecond
)

// sensors holds every driver reachable from the main loop.
// Each bus gate is only ever touched through this bundle.
type sensors struct {
	accel   adxl345.Device
	motion  lis3dh.Device
	baro    bmp280.Device
	adc     *mcp3008.Device
	thermo  *max6675.Device
	hasSPI  bool
	samples uint32
}

func main() {
	// Watchdog may still be running from the previous firmware
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	machine.Serial.Configure(machine.UARTConfig{})
	core.SetDebugWriter(func(msg string) {
		machine.Serial.Write([]byte(msg))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.SetTraceEnabled(true)

	// A bus conflict means the locking discipline is broken. Report and stop.
	core.SetFatalHandler(func(err error) {
		for {
			core.DebugPrintln("HALTED: " + err.Error())
			time.Sleep(2 * time.Second)
		}
	})

	bundle := core.NewResource(setupSensors())

	for {
		// Only bus traffic runs with interrupts masked; USB CDC output needs them
		line := core.LockResult(bundle, (*sensors).poll)
		core.DebugPrintln(line)
		time.Sleep(pollInterval)
	}
}

func setupSensors() sensors {
	var s sensors

	i2c, i2cName, err := configureI2C(0, i2cFrequency)
	if err != nil {
		core.DebugPrintln("I2C setup failed: " + err.Error())
		for {
			time.Sleep(time.Second)
		}
	}
	// The gate is the only owner of the controller from here on
	i2cGate := core.NewNamed(i2cName, i2c)

	s.accel = adxl345.New(core.I2C(i2cGate.Acquire()))
	s.motion = lis3dh.New(core.I2C(i2cGate.Acquire()))
	s.baro = bmp280.New(core.I2C(i2cGate.Acquire()))

	s.accel.Configure()
	s.motion.Configure()
	s.motion.SetRange(lis3dh.RANGE_2_G)
	if s.baro.Connected() {
		s.baro.Configure(bmp280.STANDBY_125MS, bmp280.FILTER_4X,
			bmp280.SAMPLING_2X, bmp280.SAMPLING_16X, bmp280.MODE_NORMAL)
	} else {
		core.DebugPrintln("BMP280 not found on " + i2cName)
	}

	spi, spiName, err := configurePIOSPI(0, 0, spiFrequency)
	if err != nil {
		core.DebugPrintln("PIO SPI setup failed: " + err.Error())
		return s
	}
	spiGate := core.NewNamed(spiName, spi)

	s.adc = mcp3008.New(core.SPI(spiGate.Acquire()), mcp3008CS)
	s.thermo = max6675.NewDevice(core.SPI(spiGate.Acquire()), max6675CS)
	s.adc.Configure()
	max6675CS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	max6675CS.High()
	s.hasSPI = true

	core.DebugPrintln("sensors ready: " + i2cName + ", " + spiName)
	return s
}

// poll reads every sensor once and returns the formatted sample line
func (s *sensors) poll() string {
	s.samples++
	line := "#" + strconv.FormatUint(uint64(s.samples), 10)

	if x, y, z, err := s.accel.ReadAcceleration(); err == nil {
		line += " adxl=" + xyz(x, y, z)
	} else {
		line += " adxl=err"
	}

	if x, y, z, err := s.motion.ReadAcceleration(); err == nil {
		line += " lis=" + xyz(x, y, z)
	} else {
		line += " lis=err"
	}

	if t, err := s.baro.ReadTemperature(); err == nil {
		line += " t=" + strconv.FormatInt(int64(t), 10) + "mC"
	}
	if p, err := s.baro.ReadPressure(); err == nil {
		line += " p=" + strconv.FormatInt(int64(p), 10) + "mPa"
	}

	if s.hasSPI {
		if v, err := s.adc.Read(0); err == nil {
			line += " ch0=" + strconv.FormatUint(uint64(v), 10)
		}
		if c, err := s.thermo.Read(); err == nil {
			line += " tc=" + strconv.FormatFloat(float64(c), 'f', 2, 32) + "C"
		} else {
			line += " tc=err"
		}
	}

	return line
}

func xyz(x, y, z int32) string {
	return strconv.FormatInt(int64(x), 10) + "," +
		strconv.FormatInt(int64(y), 10) + "," +
		strconv.FormatInt(int64(z), 10)
}
