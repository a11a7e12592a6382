package fitcodec

import (
	"encoding/binary"
	"fmt"
)

const (
	headerSizeNoCRC = 12
	headerSizeCRC   = 14

	// ProtocolVersion20 is the protocol version byte written by the encoder.
	ProtocolVersion20 = 0x20
	// ProfileVersion is the profile version written by the encoder (21.32).
	ProfileVersion = 2132

	dataType = ".FIT"
)

// Header is the FIT file header.
type Header struct {
	Size            uint8
	ProtocolVersion uint8
	ProfileVersion  uint16
	DataSize        uint32
	// CRC is the stored header CRC of a 14-byte header. Zero means absent.
	CRC uint16
}

// NewHeader returns the 14-byte header the encoder writes.
func NewHeader(dataSize uint32) Header {
	return Header{
		Size:            headerSizeCRC,
		ProtocolVersion: ProtocolVersion20,
		ProfileVersion:  ProfileVersion,
		DataSize:        dataSize,
	}
}

// MarshalBinary encodes h. A 14-byte header gets its CRC computed over the
// first 12 bytes.
func (h Header) MarshalBinary() ([]byte, error) {
	size := h.Size
	if size == 0 {
		size = headerSizeCRC
	}
	if size != headerSizeNoCRC && size != headerSizeCRC {
		return nil, fmt.Errorf("%w: size %d", ErrMalformedHeader, size)
	}
	out := make([]byte, size)
	out[0] = size
	out[1] = h.ProtocolVersion
	binary.LittleEndian.PutUint16(out[2:4], h.ProfileVersion)
	binary.LittleEndian.PutUint32(out[4:8], h.DataSize)
	copy(out[8:12], dataType)
	if size == headerSizeCRC {
		binary.LittleEndian.PutUint16(out[12:14], CRC16(out[:headerSizeNoCRC], 0))
	}
	return out, nil
}

// ParseHeader validates and decodes the header at the front of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < headerSizeNoCRC {
		return Header{}, fmt.Errorf("%w: need %d bytes, have %d", ErrMalformedHeader, headerSizeNoCRC, len(b))
	}
	size := b[0]
	if size != headerSizeNoCRC && size != headerSizeCRC {
		return Header{}, fmt.Errorf("%w: invalid size %d", ErrMalformedHeader, size)
	}
	if len(b) < int(size) {
		return Header{}, fmt.Errorf("%w: truncated, need %d bytes", ErrMalformedHeader, size)
	}
	if string(b[8:12]) != dataType {
		return Header{}, fmt.Errorf("%w: invalid data type %q", ErrMalformedHeader, b[8:12])
	}
	h := Header{
		Size:            size,
		ProtocolVersion: b[1],
		ProfileVersion:  binary.LittleEndian.Uint16(b[2:4]),
		DataSize:        binary.LittleEndian.Uint32(b[4:8]),
	}
	if size == headerSizeCRC {
		h.CRC = binary.LittleEndian.Uint16(b[12:14])
	}
	return h, nil
}

// HeaderCRCValid reports whether the header CRC in raw, if any, matches.
// Producers may leave it zero, which counts as valid.
func (h Header) HeaderCRCValid(raw []byte) bool {
	if h.Size != headerSizeCRC || h.CRC == 0 || len(raw) < headerSizeNoCRC {
		return true
	}
	return CRC16(raw[:headerSizeNoCRC], 0) == h.CRC
}
