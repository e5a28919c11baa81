package block

import "testing"

func TestCRC16Vector(t *testing.T) {
	got := CRC16([]byte("123456789"), 0)
	const want = 0x31C3
	if got != want {
		t.Errorf("CRC16(\"123456789\") = 0x%04X, want 0x%04X", got, want)
	}
}

func TestCRC16Associative(t *testing.T) {
	a := []byte("the quick brown fox")
	b := []byte("jumps over the lazy dog")
	whole := CRC16(append(append([]byte{}, a...), b...), 0)
	split := CRC16(b, CRC16(a, 0))
	if whole != split {
		t.Errorf("CRC16(a‖b, 0) = 0x%04X, CRC16(b, CRC16(a, 0)) = 0x%04X", whole, split)
	}
}

func TestCRC16Empty(t *testing.T) {
	if got := CRC16(nil, 0); got != 0 {
		t.Errorf("CRC16(nil, 0) = 0x%04X, want 0", got)
	}
}
