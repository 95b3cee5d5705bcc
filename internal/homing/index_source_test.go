package homing

import "testing"

type fakeEstimate struct {
	posLinear, posCircular, velocity float64
	valid                            bool
}

func (f fakeEstimate) PosLinear() float64   { return f.posLinear }
func (f fakeEstimate) PosCircular() float64 { return f.posCircular }
func (f fakeEstimate) Velocity() float64    { return f.velocity }
func (f fakeEstimate) Valid() bool          { return f.valid }

func TestIndexZeroedSource_InvalidBeforeHoming(t *testing.T) {
	driver := NewMockDriver()
	src, err := NewIndexZeroedSource(fakeEstimate{posLinear: 10, valid: true}, driver, 4)
	if err != nil {
		t.Fatalf("NewIndexZeroedSource: %v", err)
	}
	if src.Valid() {
		t.Fatal("source should be invalid before the index pulse is seen")
	}
}

func TestIndexZeroedSource_LatchesOffsetOnRisingEdge(t *testing.T) {
	driver := NewMockDriver()
	underlying := fakeEstimate{posLinear: 10, posCircular: 0.4, valid: true}
	src, err := NewIndexZeroedSource(underlying, driver, 4)
	if err != nil {
		t.Fatalf("NewIndexZeroedSource: %v", err)
	}

	if err := src.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if src.Homed() {
		t.Fatal("should not be homed before a rising edge")
	}

	driver.Set(4, High)
	if err := src.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if !src.Homed() {
		t.Fatal("should be homed after a rising edge")
	}
	if src.PosCircular() != 0 {
		t.Errorf("PosCircular = %v, want 0 right at the homing pulse", src.PosCircular())
	}
	if src.PosLinear() != 10 {
		t.Errorf("PosLinear = %v, want unaffected passthrough of 10", src.PosLinear())
	}
	if !src.Valid() {
		t.Error("should be valid once homed and underlying is valid")
	}
}

func TestIndexZeroedSource_OnlyLatchesOnce(t *testing.T) {
	driver := NewMockDriver()
	underlying := fakeEstimate{posCircular: 0.4, valid: true}
	src, err := NewIndexZeroedSource(underlying, driver, 4)
	if err != nil {
		t.Fatalf("NewIndexZeroedSource: %v", err)
	}

	driver.Set(4, High)
	src.Poll()
	driver.Set(4, Low)
	src.Poll()
	driver.Set(4, High) // second rising edge must not relatch
	src.Poll()

	if src.PosCircular() != 0 {
		t.Errorf("PosCircular = %v, want offset unchanged at 0", src.PosCircular())
	}
}

func TestIndexZeroedSource_InvalidWhenUnderlyingInvalid(t *testing.T) {
	driver := NewMockDriver()
	src, _ := NewIndexZeroedSource(fakeEstimate{valid: false}, driver, 4)
	driver.Set(4, High)
	src.Poll()
	if src.Valid() {
		t.Fatal("should stay invalid if the underlying source is invalid")
	}
}
