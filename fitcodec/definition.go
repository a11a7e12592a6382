package fitcodec

import (
	"encoding/binary"
	"fmt"
)

const (
	compressedHeaderMask       = 0x80
	compressedLocalMesgNumMask = 0x60
	compressedTimeMask         = 0x1F
	mesgDefinitionMask         = 0x40
	devDataMask                = 0x20
	localMesgNumMask           = 0x0F
)

// FieldDef is one (field number, size, base type) triple of a definition.
type FieldDef struct {
	Num  uint8
	Size uint8
	Type BaseType
}

// DevFieldDef is a developer field slot. Its bytes are carried but not interpreted.
type DevFieldDef struct {
	Num          uint8
	Size         uint8
	DevDataIndex uint8
}

// Definition binds a local message type to a global message and field layout.
type Definition struct {
	Local     uint8
	Num       MesgNum
	BigEndian bool
	Fields    []FieldDef
	DevFields []DevFieldDef
}

func (d *Definition) byteOrder() binary.ByteOrder {
	if d.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// DataSize is the byte length of a data record body for this definition.
func (d *Definition) DataSize() int {
	n := 0
	for _, f := range d.Fields {
		n += int(f.Size)
	}
	for _, f := range d.DevFields {
		n += int(f.Size)
	}
	return n
}

// SameLayout reports whether two definitions describe identical data records.
func (d *Definition) SameLayout(o *Definition) bool {
	if o == nil || d.Num != o.Num || d.BigEndian != o.BigEndian ||
		len(d.Fields) != len(o.Fields) || len(d.DevFields) != len(o.DevFields) {
		return false
	}
	for i := range d.Fields {
		if d.Fields[i] != o.Fields[i] {
			return false
		}
	}
	for i := range d.DevFields {
		if d.DevFields[i] != o.DevFields[i] {
			return false
		}
	}
	return true
}

// MarshalBinary encodes the definition record, record header byte included.
func (d *Definition) MarshalBinary() ([]byte, error) {
	if d.Local > localMesgNumMask {
		return nil, fmt.Errorf("definition: local message type %d out of range", d.Local)
	}
	if len(d.Fields) > 255 || len(d.DevFields) > 255 {
		return nil, fmt.Errorf("definition: too many fields (%d)", len(d.Fields))
	}
	header := byte(mesgDefinitionMask) | d.Local
	if len(d.DevFields) > 0 {
		header |= devDataMask
	}
	arch := byte(0)
	if d.BigEndian {
		arch = 1
	}

	out := make([]byte, 0, 6+3*len(d.Fields)+1+3*len(d.DevFields))
	var num [2]byte
	d.byteOrder().PutUint16(num[:], uint16(d.Num))
	out = append(out, header, 0, arch, num[0], num[1], byte(len(d.Fields)))
	for _, f := range d.Fields {
		out = append(out, f.Num, f.Size, byte(f.Type))
	}
	if len(d.DevFields) > 0 {
		out = append(out, byte(len(d.DevFields)))
		for _, f := range d.DevFields {
			out = append(out, f.Num, f.Size, f.DevDataIndex)
		}
	}
	return out, nil
}

// parseDefinition reads a definition record body (after the header byte).
func parseDefinition(b []byte, header byte) (*Definition, int, error) {
	pos := 0
	read := func(n int) ([]byte, error) {
		if pos+n > len(b) {
			return nil, fmt.Errorf("%w: definition needs %d more bytes", ErrTruncatedRecord, pos+n-len(b))
		}
		out := b[pos : pos+n]
		pos += n
		return out, nil
	}

	fixed, err := read(5) // reserved, architecture, global number, field count
	if err != nil {
		return nil, 0, err
	}
	def := &Definition{Local: header & localMesgNumMask}
	switch fixed[1] {
	case 0:
	case 1:
		def.BigEndian = true
	default:
		return nil, 0, fmt.Errorf("definition: invalid architecture byte %d", fixed[1])
	}
	def.Num = MesgNum(def.byteOrder().Uint16(fixed[2:4]))

	numFields := int(fixed[4])
	def.Fields = make([]FieldDef, 0, numFields)
	for i := 0; i < numFields; i++ {
		raw, err := read(3)
		if err != nil {
			return nil, 0, err
		}
		def.Fields = append(def.Fields, FieldDef{Num: raw[0], Size: raw[1], Type: normalizeBaseType(raw[2])})
	}

	if header&devDataMask == devDataMask {
		countRaw, err := read(1)
		if err != nil {
			return nil, 0, err
		}
		for i := 0; i < int(countRaw[0]); i++ {
			raw, err := read(3)
			if err != nil {
				return nil, 0, err
			}
			def.DevFields = append(def.DevFields, DevFieldDef{Num: raw[0], Size: raw[1], DevDataIndex: raw[2]})
		}
	}
	return def, pos, nil
}
