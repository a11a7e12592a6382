package fitcodec

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/tormoder/fit/dyncrc16"
)

func TestPutUintRoundTrip(t *testing.T) {
	cases := []struct {
		width int
		value uint64
	}{
		{1, 0},
		{1, 0xFE},
		{2, 0x1234},
		{2, 0xFFFF},
		{4, 0xDEADBEEF},
		{8, 0x0102030405060708},
	}
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		for _, tc := range cases {
			buf := make([]byte, tc.width)
			if err := PutUint(buf, tc.value, tc.width, order); err != nil {
				t.Fatalf("PutUint(%d, %d) error: %v", tc.value, tc.width, err)
			}
			got, err := Uint(buf, tc.width, order)
			if err != nil {
				t.Fatalf("Uint error: %v", err)
			}
			if got != tc.value {
				t.Fatalf("%v width %d: got 0x%X want 0x%X", order, tc.width, got, tc.value)
			}
		}
	}
}

func TestPutUintOverflow(t *testing.T) {
	buf := make([]byte, 2)
	err := PutUint(buf, 0x10000, 2, binary.LittleEndian)
	if !errors.Is(err, ErrFieldOverflow) {
		t.Fatalf("expected ErrFieldOverflow, got %v", err)
	}
	var overflow *OverflowError
	if !errors.As(err, &overflow) || overflow.Width != 2 {
		t.Fatalf("expected OverflowError with width 2, got %#v", err)
	}
}

func TestUintTruncated(t *testing.T) {
	if _, err := Uint([]byte{1, 2}, 4, binary.LittleEndian); !errors.Is(err, ErrTruncatedRecord) {
		t.Fatalf("expected ErrTruncatedRecord, got %v", err)
	}
}

func TestCRC16KnownVector(t *testing.T) {
	if got := CRC16([]byte("123456789"), 0); got != 0xBB3D {
		t.Fatalf("crc of check string: got 0x%04X want 0xBB3D", got)
	}
}

func TestCRC16MatchesDyncrc16(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 0; n < 64; n++ {
		data := make([]byte, rng.Intn(512))
		rng.Read(data)
		if got, want := CRC16(data, 0), dyncrc16.Checksum(data); got != want {
			t.Fatalf("len %d: got 0x%04X want 0x%04X", len(data), got, want)
		}
	}
}

func TestCRC16Seeded(t *testing.T) {
	data := []byte("definition and data records")
	split := CRC16(data[10:], CRC16(data[:10], 0))
	if whole := CRC16(data, 0); split != whole {
		t.Fatalf("seeded crc 0x%04X != whole crc 0x%04X", split, whole)
	}
}

func TestEncodeNumericRejectsInvalidSentinel(t *testing.T) {
	cases := []struct {
		bt    BaseType
		value float64
		ok    bool
	}{
		{BaseUint8, 254, true},
		{BaseUint8, 255, false},
		{BaseUint16, 65534, true},
		{BaseUint16, 65535, false},
		{BaseUint16, -1, false},
		{BaseSint8, -128, true},
		{BaseSint8, 127, false},
		{BaseUint32z, 0, false},
		{BaseUint32z, 0xFFFFFFFF, true},
		{BaseEnum, 255, false},
	}
	for _, tc := range cases {
		buf := make([]byte, tc.bt.Size())
		err := encodeNumeric(buf, tc.value, tc.bt, binary.LittleEndian, "f")
		if tc.ok && err != nil {
			t.Fatalf("%s %v: unexpected error %v", tc.bt, tc.value, err)
		}
		if !tc.ok && !errors.Is(err, ErrFieldOverflow) {
			t.Fatalf("%s %v: expected overflow, got %v", tc.bt, tc.value, err)
		}
	}
}

func TestNormalizeBaseType(t *testing.T) {
	if got := normalizeBaseType(0x04); got != BaseUint16 {
		t.Fatalf("0x04 normalized to %s", got)
	}
	if got := normalizeBaseType(0x84); got != BaseUint16 {
		t.Fatalf("0x84 normalized to %s", got)
	}
	if got := normalizeBaseType(0x07); got != BaseString {
		t.Fatalf("0x07 normalized to %s", got)
	}
}
