package transport

import "testing"

func TestCRC16CanonicalFrame(t *testing.T) {
	frame := []byte{0x01, 0x04, 0x00, 0x00, 0x00, 0x01}
	got := CRC16(frame)
	if got != 0x31CA {
		t.Fatalf("CRC16(%x) = 0x%04X, want 0x31CA", frame, got)
	}
}

func TestUnpackBits(t *testing.T) {
	raw := []byte{0b00000101}
	bits := unpackBits(raw, 3)
	want := []bool{true, false, true}
	for i := range want {
		if bits[i] != want[i] {
			t.Fatalf("bit %d = %v, want %v", i, bits[i], want[i])
		}
	}
}

func TestExceptionName(t *testing.T) {
	if exceptionName(0x02) != "Illegal Data Address" {
		t.Fatalf("unexpected exception name: %s", exceptionName(0x02))
	}
}
