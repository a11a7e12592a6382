package fitcodec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BaseType is the FIT base type byte carried in field definitions.
type BaseType uint8

const (
	BaseEnum    BaseType = 0x00
	BaseSint8   BaseType = 0x01
	BaseUint8   BaseType = 0x02
	BaseSint16  BaseType = 0x83
	BaseUint16  BaseType = 0x84
	BaseSint32  BaseType = 0x85
	BaseUint32  BaseType = 0x86
	BaseString  BaseType = 0x07
	BaseFloat32 BaseType = 0x88
	BaseFloat64 BaseType = 0x89
	BaseUint8z  BaseType = 0x0A
	BaseUint16z BaseType = 0x8B
	BaseUint32z BaseType = 0x8C
	BaseByte    BaseType = 0x0D
	BaseSint64  BaseType = 0x8E
	BaseUint64  BaseType = 0x8F
	BaseUint64z BaseType = 0x90
)

type baseSpec struct {
	name          string
	size          int
	signed        bool
	floating      bool
	zeroIsInvalid bool
}

var baseSpecs = map[BaseType]baseSpec{
	BaseEnum:    {name: "enum", size: 1},
	BaseSint8:   {name: "sint8", size: 1, signed: true},
	BaseUint8:   {name: "uint8", size: 1},
	BaseSint16:  {name: "sint16", size: 2, signed: true},
	BaseUint16:  {name: "uint16", size: 2},
	BaseSint32:  {name: "sint32", size: 4, signed: true},
	BaseUint32:  {name: "uint32", size: 4},
	BaseString:  {name: "string", size: 1},
	BaseFloat32: {name: "float32", size: 4, signed: true, floating: true},
	BaseFloat64: {name: "float64", size: 8, signed: true, floating: true},
	BaseUint8z:  {name: "uint8z", size: 1, zeroIsInvalid: true},
	BaseUint16z: {name: "uint16z", size: 2, zeroIsInvalid: true},
	BaseUint32z: {name: "uint32z", size: 4, zeroIsInvalid: true},
	BaseByte:    {name: "byte", size: 1},
	BaseSint64:  {name: "sint64", size: 8, signed: true},
	BaseUint64:  {name: "uint64", size: 8},
	BaseUint64z: {name: "uint64z", size: 8, zeroIsInvalid: true},
}

// Size returns the width in bytes of one element of the base type.
func (bt BaseType) Size() int {
	if spec, ok := baseSpecs[bt]; ok {
		return spec.size
	}
	return 1
}

func (bt BaseType) String() string {
	if spec, ok := baseSpecs[bt]; ok {
		return spec.name
	}
	return fmt.Sprintf("unknown_0x%02X", uint8(bt))
}

// normalizeBaseType maps the low five bits of a definition byte back to the
// canonical base type, since some producers omit the endian-ability bit.
func normalizeBaseType(b byte) BaseType {
	switch b & 0x1F {
	case 0x03:
		return BaseSint16
	case 0x04:
		return BaseUint16
	case 0x05:
		return BaseSint32
	case 0x06:
		return BaseUint32
	case 0x08:
		return BaseFloat32
	case 0x09:
		return BaseFloat64
	case 0x0B:
		return BaseUint16z
	case 0x0C:
		return BaseUint32z
	case 0x0E:
		return BaseSint64
	case 0x0F:
		return BaseUint64
	case 0x10:
		return BaseUint64z
	default:
		return BaseType(b & 0x1F)
	}
}

// decodeNumeric reads one element and reports whether it holds a valid value.
func decodeNumeric(raw []byte, bt BaseType, order binary.ByteOrder) (float64, bool) {
	switch bt {
	case BaseEnum, BaseUint8, BaseByte:
		return float64(raw[0]), raw[0] != 0xFF
	case BaseSint8:
		v := int8(raw[0])
		return float64(v), v != 0x7F
	case BaseUint8z:
		return float64(raw[0]), raw[0] != 0x00
	case BaseSint16:
		v := int16(order.Uint16(raw))
		return float64(v), v != 0x7FFF
	case BaseUint16:
		v := order.Uint16(raw)
		return float64(v), v != 0xFFFF
	case BaseUint16z:
		v := order.Uint16(raw)
		return float64(v), v != 0
	case BaseSint32:
		v := int32(order.Uint32(raw))
		return float64(v), v != 0x7FFFFFFF
	case BaseUint32:
		v := order.Uint32(raw)
		return float64(v), v != 0xFFFFFFFF
	case BaseUint32z:
		v := order.Uint32(raw)
		return float64(v), v != 0
	case BaseFloat32:
		bits := order.Uint32(raw)
		return float64(math.Float32frombits(bits)), bits != 0xFFFFFFFF
	case BaseFloat64:
		bits := order.Uint64(raw)
		return math.Float64frombits(bits), bits != 0xFFFFFFFFFFFFFFFF
	case BaseSint64:
		v := int64(order.Uint64(raw))
		return float64(v), v != 0x7FFFFFFFFFFFFFFF
	case BaseUint64:
		v := order.Uint64(raw)
		return float64(v), v != 0xFFFFFFFFFFFFFFFF
	case BaseUint64z:
		v := order.Uint64(raw)
		return float64(v), v != 0
	default:
		return 0, false
	}
}

// encodeNumeric writes one element. v must already be scaled to wire units;
// integer types reject fractional inputs by rounding and values outside the
// valid range (the invalid sentinel included) with an OverflowError.
func encodeNumeric(b []byte, v float64, bt BaseType, order binary.ByteOrder, field string) error {
	spec, ok := baseSpecs[bt]
	if !ok {
		return fmt.Errorf("encode %s: unsupported base type %s", field, bt)
	}
	overflow := &OverflowError{Field: field, Value: v, Width: spec.size}

	if spec.floating {
		if bt == BaseFloat32 {
			if math.Abs(v) > math.MaxFloat32 {
				return overflow
			}
			order.PutUint32(b, math.Float32bits(float32(v)))
			return nil
		}
		order.PutUint64(b, math.Float64bits(v))
		return nil
	}

	r := math.Round(v)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return overflow
	}
	bits := uint(spec.size) * 8
	if spec.signed {
		lo := -math.Ldexp(1, int(bits)-1)
		hi := math.Ldexp(1, int(bits)-1) - 2
		if r < lo || r > hi {
			return overflow
		}
		return PutUint(b, uint64(int64(r))&widthMask(spec.size), spec.size, order)
	}

	lo := 0.0
	hi := math.Ldexp(1, int(bits)) - 2
	if spec.zeroIsInvalid {
		lo = 1
		hi = math.Ldexp(1, int(bits)) - 1
	}
	if r < lo || r > hi {
		return overflow
	}
	return PutUint(b, uint64(r), spec.size, order)
}

// invalidBytes fills b with the invalid sentinel for bt, element by element.
func invalidBytes(b []byte, bt BaseType, order binary.ByteOrder) {
	spec := baseSpecs[bt]
	switch {
	case spec.zeroIsInvalid || bt == BaseString:
		for i := range b {
			b[i] = 0
		}
	case spec.signed && !spec.floating:
		for i := range b {
			b[i] = 0xFF
		}
		// sint max is 0x7F in the most significant byte.
		for off := 0; off+spec.size <= len(b); off += spec.size {
			if order == binary.LittleEndian {
				b[off+spec.size-1] = 0x7F
			} else {
				b[off] = 0x7F
			}
		}
	default:
		for i := range b {
			b[i] = 0xFF
		}
	}
}

func widthMask(size int) uint64 {
	if size >= 8 {
		return math.MaxUint64
	}
	return (uint64(1) << (uint(size) * 8)) - 1
}
