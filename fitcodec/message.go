package fitcodec

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"
)

// FITEpoch is the zero instant of FIT timestamps.
var FITEpoch = time.Date(1989, time.December, 31, 0, 0, 0, 0, time.UTC)

// Field is one populated field of a message. Value holds a float64 for
// numeric fields (physical units), a time.Time for timestamps and a string
// for enum names and text.
type Field struct {
	Spec  *FieldSpec
	Value any
}

// Message is a decoded or to-be-encoded data message. Fields are kept in the
// canonical order of the message's field table.
type Message struct {
	Num    MesgNum
	Spec   *MessageSpec
	Fields []Field
}

// NewMessage returns an empty message of a registered type.
func NewMessage(num MesgNum) (*Message, error) {
	spec, err := SpecFor(num)
	if err != nil {
		return nil, err
	}
	return &Message{Num: num, Spec: spec}, nil
}

// Set stores v under the named field, replacing any previous value. A nil v
// removes the field.
func (m *Message) Set(name string, v any) error {
	fs, ok := m.Spec.Field(name)
	if !ok {
		return fmt.Errorf("%s: no field %q", m.Spec.Name, name)
	}
	if v == nil {
		m.remove(fs.Num)
		return nil
	}
	value, err := normalizeValue(fs, v)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", m.Spec.Name, name, err)
	}
	m.put(Field{Spec: fs, Value: value})
	return nil
}

// MustSet is Set for callers that build messages from static field names.
func (m *Message) MustSet(name string, v any) *Message {
	if err := m.Set(name, v); err != nil {
		panic(err)
	}
	return m
}

func (m *Message) put(f Field) {
	pos := m.Spec.position(f.Spec.Num)
	i := sort.Search(len(m.Fields), func(i int) bool {
		return m.Spec.position(m.Fields[i].Spec.Num) >= pos
	})
	if i < len(m.Fields) && m.Fields[i].Spec.Num == f.Spec.Num {
		m.Fields[i] = f
		return
	}
	m.Fields = append(m.Fields, Field{})
	copy(m.Fields[i+1:], m.Fields[i:])
	m.Fields[i] = f
}

func (m *Message) remove(num uint8) {
	for i, f := range m.Fields {
		if f.Spec.Num == num {
			m.Fields = append(m.Fields[:i], m.Fields[i+1:]...)
			return
		}
	}
}

// Get returns the raw stored value of a field.
func (m *Message) Get(name string) (any, bool) {
	for _, f := range m.Fields {
		if f.Spec.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Float returns a numeric field.
func (m *Message) Float(name string) (float64, bool) {
	v, ok := m.Get(name)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// Time returns a timestamp field.
func (m *Message) Time(name string) (time.Time, bool) {
	v, ok := m.Get(name)
	if !ok {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

// Enum returns the symbolic name of an enum field.
func (m *Message) Enum(name string) (string, bool) {
	v, ok := m.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Text returns a string field.
func (m *Message) Text(name string) (string, bool) {
	return m.Enum(name)
}

func normalizeValue(fs *FieldSpec, v any) (any, error) {
	switch {
	case fs.Time:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("want time.Time, got %T", v)
		}
		return t.UTC(), nil
	case fs.IsString():
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("want string, got %T", v)
		}
		return s, nil
	case fs.Enum != "":
		if s, ok := v.(string); ok {
			return s, nil
		}
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("want enum name or code, got %T", v)
		}
		return EnumName(fs.Enum, uint16(f)), nil
	default:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("want number, got %T", v)
		}
		return f, nil
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// BuildDefinition derives a little-endian definition for m bound to the
// local message type local. Fields keep the canonical order of m.
func BuildDefinition(m *Message, local uint8) (*Definition, error) {
	if local > localMesgNumMask {
		return nil, fmt.Errorf("build definition: local message type %d out of range", local)
	}
	def := &Definition{
		Local:  local,
		Num:    m.Num,
		Fields: make([]FieldDef, 0, len(m.Fields)),
	}
	for _, f := range m.Fields {
		size := f.Spec.Size()
		if f.Spec.IsString() {
			s, _ := f.Value.(string)
			size = len(s) + 1
			if size > math.MaxUint8 {
				size = math.MaxUint8
			}
		}
		def.Fields = append(def.Fields, FieldDef{
			Num:  f.Spec.Num,
			Size: uint8(size),
			Type: f.Spec.Type,
		})
	}
	return def, nil
}

// EncodeData serializes the field bytes of m in the order def declares them.
// Fields def names that m lacks are written as the invalid sentinel.
func EncodeData(m *Message, def *Definition) ([]byte, error) {
	if m.Num != def.Num {
		return nil, fmt.Errorf("encode data: message %d does not match definition %d", m.Num, def.Num)
	}
	order := def.byteOrder()
	out := make([]byte, def.DataSize())
	pos := 0
	for _, fd := range def.Fields {
		buf := out[pos : pos+int(fd.Size)]
		pos += int(fd.Size)

		var (
			fs    *FieldSpec
			value any
		)
		for _, f := range m.Fields {
			if f.Spec.Num == fd.Num {
				fs, value = f.Spec, f.Value
				break
			}
		}
		if fs == nil {
			invalidBytes(buf, fd.Type, order)
			continue
		}
		if err := encodeValue(buf, fs, fd, value, def); err != nil {
			return nil, fmt.Errorf("encode %s: %w", m.Spec.Name, err)
		}
	}
	return out, nil
}

func encodeValue(buf []byte, fs *FieldSpec, fd FieldDef, value any, def *Definition) error {
	order := def.byteOrder()
	if fd.Type == BaseString {
		s, _ := value.(string)
		n := copy(buf[:len(buf)-1], s)
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		return nil
	}

	elem := fd.Type.Size()
	if elem > len(buf) {
		return &OverflowError{Field: fs.Name, Width: len(buf)}
	}
	// Array fields carry the value in the first element only.
	if elem < len(buf) {
		invalidBytes(buf[elem:], fd.Type, order)
		buf = buf[:elem]
	}

	var raw float64
	switch v := value.(type) {
	case time.Time:
		secs := math.Floor(float64(v.Sub(FITEpoch)) / float64(time.Second))
		if secs < 0 {
			return &OverflowError{Field: fs.Name, Value: secs, Width: elem}
		}
		raw = secs
	case string:
		code, err := ResolveEnum(fs.Enum, v)
		if err != nil {
			return &EnumError{Field: fs.Name, Value: v}
		}
		raw = float64(code)
	case float64:
		raw = fs.ToWire(v)
	default:
		return fmt.Errorf("field %s: unsupported value %T", fs.Name, value)
	}
	return encodeNumeric(buf, raw, fd.Type, order, fs.Name)
}

// DecodeData reads one data record body against def and returns the message
// with the number of bytes consumed. Fields absent from the profile, invalid
// values and developer fields are skipped.
func DecodeData(b []byte, def *Definition) (*Message, int, error) {
	need := def.DataSize()
	if len(b) < need {
		return nil, 0, fmt.Errorf("%w: message %d needs %d bytes, have %d", ErrTruncatedRecord, def.Num, need, len(b))
	}
	spec, err := SpecFor(def.Num)
	if err != nil {
		return nil, need, err
	}
	m := &Message{Num: def.Num, Spec: spec}
	order := def.byteOrder()
	pos := 0
	for _, fd := range def.Fields {
		raw := b[pos : pos+int(fd.Size)]
		pos += int(fd.Size)

		fs, ok := spec.FieldByNum(fd.Num)
		if !ok {
			continue
		}
		value, ok := decodeValue(raw, fs, fd, order)
		if !ok {
			continue
		}
		m.put(Field{Spec: fs, Value: value})
	}
	return m, need, nil
}

func decodeValue(raw []byte, fs *FieldSpec, fd FieldDef, order binary.ByteOrder) (any, bool) {
	if fd.Type == BaseString || fs.IsString() {
		s := nullTerminated(raw)
		return s, s != ""
	}
	elem := fd.Type.Size()
	if len(raw) < elem {
		return nil, false
	}
	v, ok := decodeNumeric(raw[:elem], fd.Type, order)
	if !ok {
		return nil, false
	}
	switch {
	case fs.Time:
		return FITEpoch.Add(time.Duration(v) * time.Second), true
	case fs.Enum != "":
		return EnumName(fs.Enum, uint16(v)), true
	default:
		return fs.FromWire(v), true
	}
}

func nullTerminated(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
