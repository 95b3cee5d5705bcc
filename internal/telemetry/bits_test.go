package telemetry

import "testing"

func TestGetSetBits_RoundTrip(t *testing.T) {
	var payload uint64
	payload = setBits(payload, 8, 16, 0xBEEF)
	if got := getBits(payload, 8, 16); got != 0xBEEF {
		t.Errorf("getBits = 0x%X, want 0xBEEF", got)
	}
}

func TestSetBits_DoesNotDisturbOtherFields(t *testing.T) {
	var payload uint64
	payload = setBits(payload, 0, 8, 0xFF)
	payload = setBits(payload, 8, 8, 0x00)
	if getBits(payload, 0, 8) != 0xFF {
		t.Errorf("low field clobbered")
	}
}

func TestUnsignedToRawInt64_SignExtends(t *testing.T) {
	// 12-bit two's complement -1 is 0xFFF.
	got := unsignedToRawInt64(0xFFF, 12, true)
	if got != -1 {
		t.Errorf("unsignedToRawInt64(0xFFF, 12, true) = %d, want -1", got)
	}
}

func TestRawToUnsigned_NegativeRoundTrips(t *testing.T) {
	u := rawToUnsigned(-1, 12)
	back := unsignedToRawInt64(u, 12, true)
	if back != -1 {
		t.Errorf("round trip of -1 through 12-bit two's complement = %d", back)
	}
}

func TestClampRaw_UnsignedFloorsAtZero(t *testing.T) {
	if got := clampRaw(-5, 8, false); got != 0 {
		t.Errorf("clampRaw(-5, 8, false) = %d, want 0", got)
	}
}

func TestClampRaw_SignedRespectsRange(t *testing.T) {
	if got := clampRaw(1000, 8, true); got != 127 {
		t.Errorf("clampRaw(1000, 8, true) = %d, want 127", got)
	}
	if got := clampRaw(-1000, 8, true); got != -128 {
		t.Errorf("clampRaw(-1000, 8, true) = %d, want -128", got)
	}
}
