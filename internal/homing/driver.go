// Package homing zeroes an axis's encoder against a physical index-pulse
// input read over GPIO, with a mock driver standing in for real hardware
// during bench testing.
package homing

// Level is the logical state of a GPIO pin.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// PinMode indicates whether a GPIO pin is configured as input or output.
type PinMode int

const (
	Input PinMode = iota
	Output
)

// Driver is the abstract interface for reading the index-pulse input, so a
// real Raspberry Pi implementation and a mock for bench/CI use are
// interchangeable.
type Driver interface {
	SetupPin(pin int, mode PinMode) error
	ReadPin(pin int) (Level, error)
	Close() error
}

// MockDriver is a test/dev implementation whose pin state is set
// programmatically via Set, standing in for the real index pulse.
type MockDriver struct {
	levels map[int]Level
}

// NewMockDriver returns a MockDriver with every pin defaulting to Low.
func NewMockDriver() *MockDriver {
	return &MockDriver{levels: make(map[int]Level)}
}

func (m *MockDriver) SetupPin(pin int, mode PinMode) error {
	if _, ok := m.levels[pin]; !ok {
		m.levels[pin] = Low
	}
	return nil
}

func (m *MockDriver) ReadPin(pin int) (Level, error) {
	return m.levels[pin], nil
}

// Set forces pin to level, for tests driving a simulated index pulse.
func (m *MockDriver) Set(pin int, level Level) {
	m.levels[pin] = level
}

func (m *MockDriver) Close() error { return nil }

// NewDriver returns a MockDriver when mock is true, otherwise a real
// RPiDriver.
func NewDriver(mock bool) (Driver, error) {
	if mock {
		return NewMockDriver(), nil
	}
	return NewRPiDriver()
}
