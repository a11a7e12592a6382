package fitcodec

import (
	"encoding/binary"
	"fmt"
)

// PutUint writes v into the first width bytes of b using order.
// Supported widths are 1, 2, 4 and 8 bytes.
func PutUint(b []byte, v uint64, width int, order binary.ByteOrder) error {
	if len(b) < width {
		return fmt.Errorf("put uint: buffer of %d bytes too small for width %d", len(b), width)
	}
	if width < 8 && v>>(uint(width)*8) != 0 {
		return &OverflowError{Field: "uint", Value: float64(v), Width: width}
	}
	switch width {
	case 1:
		b[0] = uint8(v)
	case 2:
		order.PutUint16(b, uint16(v))
	case 4:
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	default:
		return fmt.Errorf("put uint: unsupported width %d", width)
	}
	return nil
}

// Uint reads a width-byte unsigned integer from the front of b.
func Uint(b []byte, width int, order binary.ByteOrder) (uint64, error) {
	if len(b) < width {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncatedRecord, width, len(b))
	}
	switch width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(order.Uint16(b)), nil
	case 4:
		return uint64(order.Uint32(b)), nil
	case 8:
		return order.Uint64(b), nil
	default:
		return 0, fmt.Errorf("uint: unsupported width %d", width)
	}
}
