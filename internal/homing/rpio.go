package homing

import (
	"fmt"

	"github.com/stianeikeland/go-rpio/v4"
)

// RPiDriver reads the index-pulse pin on a Raspberry Pi via go-rpio.
type RPiDriver struct {
	pins map[int]rpio.Pin
}

// NewRPiDriver opens the GPIO memory map. Requires running on a Raspberry
// Pi with access to /dev/gpiomem or as root.
func NewRPiDriver() (*RPiDriver, error) {
	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpio: %w (are you running on a Raspberry Pi?)", err)
	}
	return &RPiDriver{pins: make(map[int]rpio.Pin)}, nil
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	p := rpio.Pin(pin)
	r.pins[pin] = p
	switch mode {
	case Input:
		p.Input()
	case Output:
		p.Output()
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}
	return nil
}

func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	p, ok := r.pins[pin]
	if !ok {
		if err := r.SetupPin(pin, Input); err != nil {
			return Low, err
		}
		p = r.pins[pin]
	}
	if p.Read() == rpio.High {
		return High, nil
	}
	return Low, nil
}

func (r *RPiDriver) Close() error {
	for _, p := range r.pins {
		p.Input()
	}
	return rpio.Close()
}
