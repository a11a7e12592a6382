package fitcodec

import "fmt"

// MesgNum is a FIT global message number.
type MesgNum uint16

const (
	MesgNumFileID      MesgNum = 0
	MesgNumSport       MesgNum = 12
	MesgNumSession     MesgNum = 18
	MesgNumLap         MesgNum = 19
	MesgNumRecord      MesgNum = 20
	MesgNumEvent       MesgNum = 21
	MesgNumActivity    MesgNum = 34
	MesgNumFileCreator MesgNum = 49
	MesgNumLength      MesgNum = 101
)

// Field numbers shared by every message that carries them.
const (
	FieldTimestamp    uint8 = 253
	FieldMessageIndex uint8 = 254
)

// SpeedUnitFactor converts m/s on the wire to the km/h carried in documents.
const SpeedUnitFactor = 3.6

// FieldSpec describes one profile field.
//
// A numeric physical value relates to its wire value as
//
//	physical = (raw/Scale - Offset) * UnitFactor
//	raw      = round((physical/UnitFactor + Offset) * Scale)
//
// Enum fields carry the name of their enum table, Time fields are uint32
// seconds since the FIT epoch, and string fields are null terminated.
type FieldSpec struct {
	Name       string
	Num        uint8
	Type       BaseType
	Scale      float64
	Offset     float64
	UnitFactor float64
	Enum       string
	Time       bool
}

// Size is the element width of the field on the wire. Strings are sized by
// their value when a definition is built.
func (fs *FieldSpec) Size() int { return fs.Type.Size() }

// IsString reports whether the field carries text.
func (fs *FieldSpec) IsString() bool { return fs.Type == BaseString }

func (fs *FieldSpec) scale() float64 {
	if fs.Scale == 0 {
		return 1
	}
	return fs.Scale
}

func (fs *FieldSpec) unitFactor() float64 {
	if fs.UnitFactor == 0 {
		return 1
	}
	return fs.UnitFactor
}

// ToWire converts a physical value to its unrounded wire value.
func (fs *FieldSpec) ToWire(v float64) float64 {
	return (v/fs.unitFactor() + fs.Offset) * fs.scale()
}

// FromWire converts a raw wire value to its physical value.
func (fs *FieldSpec) FromWire(raw float64) float64 {
	return (raw/fs.scale() - fs.Offset) * fs.unitFactor()
}

// MessageSpec is the ordered field table of one global message.
type MessageSpec struct {
	Num    MesgNum
	Name   string
	Fields []FieldSpec

	byName map[string]int
	byNum  map[uint8]int
}

// Field looks a field up by profile name.
func (ms *MessageSpec) Field(name string) (*FieldSpec, bool) {
	i, ok := ms.byName[name]
	if !ok {
		return nil, false
	}
	return &ms.Fields[i], true
}

// FieldByNum looks a field up by field number.
func (ms *MessageSpec) FieldByNum(num uint8) (*FieldSpec, bool) {
	i, ok := ms.byNum[num]
	if !ok {
		return nil, false
	}
	return &ms.Fields[i], true
}

// position returns the canonical order of a field within the message.
func (ms *MessageSpec) position(num uint8) int {
	if i, ok := ms.byNum[num]; ok {
		return i
	}
	return len(ms.Fields)
}

func numeric(name string, num uint8, bt BaseType) FieldSpec {
	return FieldSpec{Name: name, Num: num, Type: bt}
}

func scaled(name string, num uint8, bt BaseType, scale float64) FieldSpec {
	return FieldSpec{Name: name, Num: num, Type: bt, Scale: scale}
}

func speed(name string, num uint8, bt BaseType) FieldSpec {
	return FieldSpec{Name: name, Num: num, Type: bt, Scale: 1000, UnitFactor: SpeedUnitFactor}
}

func enumField(name string, num uint8, table string) FieldSpec {
	return FieldSpec{Name: name, Num: num, Type: BaseEnum, Enum: table}
}

func timeField(name string, num uint8) FieldSpec {
	return FieldSpec{Name: name, Num: num, Type: BaseUint32, Time: true}
}

func text(name string, num uint8) FieldSpec {
	return FieldSpec{Name: name, Num: num, Type: BaseString}
}

var (
	timestamp    = timeField("timestamp", FieldTimestamp)
	messageIndex = numeric("message_index", FieldMessageIndex, BaseUint16)
)

var registry = map[MesgNum]*MessageSpec{}

func register(num MesgNum, name string, fields ...FieldSpec) {
	ms := &MessageSpec{
		Num:    num,
		Name:   name,
		Fields: fields,
		byName: make(map[string]int, len(fields)),
		byNum:  make(map[uint8]int, len(fields)),
	}
	for i, f := range fields {
		ms.byName[f.Name] = i
		ms.byNum[f.Num] = i
	}
	registry[num] = ms
}

func init() {
	register(MesgNumFileID, "file_id",
		enumField("type", 0, "file"),
		FieldSpec{Name: "manufacturer", Num: 1, Type: BaseUint16, Enum: "manufacturer"},
		numeric("product", 2, BaseUint16),
		numeric("serial_number", 3, BaseUint32z),
		timeField("time_created", 4),
		numeric("number", 5, BaseUint16),
		text("product_name", 8),
	)
	register(MesgNumFileCreator, "file_creator",
		numeric("software_version", 0, BaseUint16),
		numeric("hardware_version", 1, BaseUint8),
	)
	register(MesgNumActivity, "activity",
		timestamp,
		scaled("total_timer_time", 0, BaseUint32, 1000),
		numeric("num_sessions", 1, BaseUint16),
		enumField("type", 2, "activity"),
		enumField("event", 3, "event"),
		enumField("event_type", 4, "event_type"),
		timeField("local_timestamp", 5),
		numeric("event_group", 6, BaseUint8),
	)
	register(MesgNumEvent, "event",
		timestamp,
		enumField("event", 0, "event"),
		enumField("event_type", 1, "event_type"),
		numeric("data16", 2, BaseUint16),
		numeric("data", 3, BaseUint32),
		numeric("event_group", 4, BaseUint8),
	)
	register(MesgNumRecord, "record",
		timestamp,
		FieldSpec{Name: "altitude", Num: 2, Type: BaseUint16, Scale: 5, Offset: 500},
		numeric("heart_rate", 3, BaseUint8),
		numeric("cadence", 4, BaseUint8),
		scaled("distance", 5, BaseUint32, 100),
		speed("speed", 6, BaseUint16),
		numeric("temperature", 13, BaseSint8),
	)
	register(MesgNumSession, "session",
		timestamp,
		messageIndex,
		enumField("event", 0, "event"),
		enumField("event_type", 1, "event_type"),
		timeField("start_time", 2),
		enumField("sport", 5, "sport"),
		enumField("sub_sport", 6, "sub_sport"),
		scaled("total_elapsed_time", 7, BaseUint32, 1000),
		scaled("total_timer_time", 8, BaseUint32, 1000),
		scaled("total_distance", 9, BaseUint32, 100),
		numeric("total_strokes", 10, BaseUint32),
		numeric("total_calories", 11, BaseUint16),
		speed("avg_speed", 14, BaseUint16),
		speed("max_speed", 15, BaseUint16),
		numeric("avg_heart_rate", 16, BaseUint8),
		numeric("max_heart_rate", 17, BaseUint8),
		numeric("avg_cadence", 18, BaseUint8),
		scaled("total_training_effect", 24, BaseUint8, 10),
		numeric("first_lap_index", 25, BaseUint16),
		numeric("num_laps", 26, BaseUint16),
		numeric("event_group", 27, BaseUint8),
		enumField("trigger", 28, "session_trigger"),
		numeric("num_lengths", 33, BaseUint16),
		scaled("avg_stroke_count", 41, BaseUint32, 10),
		scaled("avg_stroke_distance", 42, BaseUint16, 100),
		scaled("pool_length", 44, BaseUint16, 100),
		enumField("pool_length_unit", 46, "display_measure"),
		numeric("num_active_lengths", 47, BaseUint16),
		speed("enhanced_avg_speed", 124, BaseUint32),
		speed("enhanced_max_speed", 125, BaseUint32),
		scaled("total_anaerobic_training_effect", 137, BaseUint8, 10),
	)
	register(MesgNumLap, "lap",
		timestamp,
		messageIndex,
		enumField("event", 0, "event"),
		enumField("event_type", 1, "event_type"),
		timeField("start_time", 2),
		scaled("total_elapsed_time", 7, BaseUint32, 1000),
		scaled("total_timer_time", 8, BaseUint32, 1000),
		scaled("total_distance", 9, BaseUint32, 100),
		numeric("total_cycles", 10, BaseUint32),
		numeric("total_calories", 11, BaseUint16),
		speed("avg_speed", 13, BaseUint16),
		speed("max_speed", 14, BaseUint16),
		numeric("avg_heart_rate", 15, BaseUint8),
		numeric("max_heart_rate", 16, BaseUint8),
		numeric("avg_cadence", 17, BaseUint8),
		enumField("lap_trigger", 24, "lap_trigger"),
		enumField("sport", 25, "sport"),
		numeric("event_group", 26, BaseUint8),
		numeric("num_lengths", 32, BaseUint16),
		numeric("first_length_index", 35, BaseUint16),
		scaled("avg_stroke_distance", 37, BaseUint16, 100),
		enumField("swim_stroke", 38, "swim_stroke"),
		enumField("sub_sport", 39, "sub_sport"),
		numeric("num_active_lengths", 40, BaseUint16),
		speed("enhanced_avg_speed", 110, BaseUint32),
		speed("enhanced_max_speed", 111, BaseUint32),
	)
	register(MesgNumLength, "length",
		timestamp,
		messageIndex,
		enumField("event", 0, "event"),
		enumField("event_type", 1, "event_type"),
		timeField("start_time", 2),
		scaled("total_elapsed_time", 3, BaseUint32, 1000),
		scaled("total_timer_time", 4, BaseUint32, 1000),
		numeric("total_strokes", 5, BaseUint16),
		speed("avg_speed", 6, BaseUint16),
		enumField("swim_stroke", 7, "swim_stroke"),
		numeric("avg_swimming_cadence", 9, BaseUint8),
		numeric("event_group", 10, BaseUint8),
		numeric("total_calories", 11, BaseUint16),
		enumField("length_type", 12, "length_type"),
	)
	register(MesgNumSport, "sport",
		enumField("sport", 0, "sport"),
		enumField("sub_sport", 1, "sub_sport"),
		text("name", 3),
	)
}

// SpecFor returns the registered field table for num.
func SpecFor(num MesgNum) (*MessageSpec, error) {
	ms, ok := registry[num]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, num)
	}
	return ms, nil
}

// SpecByName returns the registered field table for a profile message name.
func SpecByName(name string) (*MessageSpec, error) {
	for _, ms := range registry {
		if ms.Name == name {
			return ms, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, name)
}
