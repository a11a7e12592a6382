// Package swimdata holds the editable swim session document: decoding a FIT
// upload into it, editing its lengths, analysing it and encoding it back.
package swimdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"
)

// Length types.
const (
	LengthActive = "active"
	LengthIdle   = "idle"
)

// Time is a UTC instant that reads RFC 3339 or any format dateparser
// understands, and writes RFC 3339 with millisecond precision.
type Time struct {
	time.Time
}

// NewTime wraps t, normalized to UTC.
func NewTime(t time.Time) Time { return Time{Time: t.UTC()} }

const jsonTimeLayout = "2006-01-02T15:04:05.000Z07:00"

var dateConfig = &dateparser.Configuration{DefaultTimezone: time.UTC}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(jsonTimeLayout))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTime reads a timestamp from JSON input. Empty input is the zero Time.
func ParseTime(s string) (Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return NewTime(ts), nil
	}
	dt, err := dateparser.Parse(dateConfig, s)
	if err != nil {
		return Time{}, fmt.Errorf("timestamp %q: %w", s, err)
	}
	return NewTime(dt.Time), nil
}

// MessageIndex is a message_index value. It reads a bare number or the
// {"value": n} object the browser parser emits, and always writes the object.
type MessageIndex int

func (mi MessageIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value int `json:"value"`
	}{Value: int(mi)})
}

func (mi *MessageIndex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*mi = 0
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var obj struct {
			Value float64 `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("message_index: %w", err)
		}
		*mi = MessageIndex(obj.Value)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("message_index: %w", err)
	}
	*mi = MessageIndex(n)
	return nil
}

// FileID identifies the file and the device that produced it.
type FileID struct {
	Type         string `json:"type,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Product      int    `json:"product,omitempty"`
	SerialNumber uint32 `json:"serial_number,omitempty"`
	TimeCreated  Time   `json:"time_created"`
	Number       int    `json:"number,omitempty"`
	ProductName  string `json:"product_name,omitempty"`
}

type FileCreator struct {
	SoftwareVersion int `json:"software_version"`
	HardwareVersion int `json:"hardware_version,omitempty"`
}

type Activity struct {
	Timestamp      Time    `json:"timestamp"`
	TotalTimerTime float64 `json:"total_timer_time"`
	NumSessions    int     `json:"num_sessions"`
	Type           string  `json:"type,omitempty"`
	Event          string  `json:"event,omitempty"`
	EventType      string  `json:"event_type,omitempty"`
	LocalTimestamp Time    `json:"local_timestamp"`
}

type Event struct {
	Timestamp  Time    `json:"timestamp"`
	Event      string  `json:"event,omitempty"`
	EventType  string  `json:"event_type,omitempty"`
	Data       float64 `json:"data,omitempty"`
	EventGroup int     `json:"event_group,omitempty"`
}

// Record is one sampled data point. Speed is km/h, distance metres.
type Record struct {
	Timestamp   Time    `json:"timestamp"`
	HeartRate   int     `json:"heart_rate,omitempty"`
	Cadence     int     `json:"cadence,omitempty"`
	Distance    float64 `json:"distance,omitempty"`
	Speed       float64 `json:"speed,omitempty"`
	Altitude    float64 `json:"altitude,omitempty"`
	Temperature int     `json:"temperature,omitempty"`
}

// Session holds the workout summary. Speeds are km/h, times seconds,
// distances metres.
type Session struct {
	Timestamp                    Time         `json:"timestamp"`
	MessageIndex                 MessageIndex `json:"message_index"`
	Event                        string       `json:"event,omitempty"`
	EventType                    string       `json:"event_type,omitempty"`
	StartTime                    Time         `json:"start_time"`
	Sport                        string       `json:"sport,omitempty"`
	SubSport                     string       `json:"sub_sport,omitempty"`
	TotalElapsedTime             float64      `json:"total_elapsed_time"`
	TotalTimerTime               float64      `json:"total_timer_time"`
	TotalDistance                float64      `json:"total_distance"`
	TotalStrokes                 int          `json:"total_strokes"`
	TotalCalories                int          `json:"total_calories"`
	AvgHeartRate                 int          `json:"avg_heart_rate,omitempty"`
	MaxHeartRate                 int          `json:"max_heart_rate,omitempty"`
	AvgCadence                   int          `json:"avg_cadence,omitempty"`
	TotalTrainingEffect          float64      `json:"total_training_effect,omitempty"`
	FirstLapIndex                int          `json:"first_lap_index"`
	NumLaps                      int          `json:"num_laps"`
	Trigger                      string       `json:"trigger,omitempty"`
	NumLengths                   int          `json:"num_lengths"`
	AvgStrokeDistance            float64      `json:"avg_stroke_distance,omitempty"`
	PoolLength                   float64      `json:"pool_length"`
	PoolLengthUnit               string       `json:"pool_length_unit,omitempty"`
	NumActiveLengths             int          `json:"num_active_lengths"`
	EnhancedAvgSpeed             float64      `json:"enhanced_avg_speed"`
	EnhancedMaxSpeed             float64      `json:"enhanced_max_speed"`
	TotalAnaerobicTrainingEffect float64      `json:"total_anaerobic_training_effect,omitempty"`
}

type Lap struct {
	Timestamp         Time         `json:"timestamp"`
	MessageIndex      MessageIndex `json:"message_index"`
	Event             string       `json:"event,omitempty"`
	EventType         string       `json:"event_type,omitempty"`
	StartTime         Time         `json:"start_time"`
	TotalElapsedTime  float64      `json:"total_elapsed_time"`
	TotalTimerTime    float64      `json:"total_timer_time"`
	TotalDistance     float64      `json:"total_distance"`
	TotalCycles       int          `json:"total_cycles"`
	TotalCalories     int          `json:"total_calories"`
	AvgHeartRate      int          `json:"avg_heart_rate,omitempty"`
	MaxHeartRate      int          `json:"max_heart_rate,omitempty"`
	AvgCadence        int          `json:"avg_cadence,omitempty"`
	LapTrigger        string       `json:"lap_trigger,omitempty"`
	Sport             string       `json:"sport,omitempty"`
	NumLengths        int          `json:"num_lengths"`
	FirstLengthIndex  int          `json:"first_length_index"`
	AvgStrokeDistance float64      `json:"avg_stroke_distance,omitempty"`
	SwimStroke        string       `json:"swim_stroke,omitempty"`
	SubSport          string       `json:"sub_sport,omitempty"`
	NumActiveLengths  int          `json:"num_active_lengths"`
	EnhancedAvgSpeed  float64      `json:"enhanced_avg_speed"`
	EnhancedMaxSpeed  float64      `json:"enhanced_max_speed"`
}

// Length is one pool length, swum (active) or rested (idle). AvgSpeed is km/h.
type Length struct {
	Timestamp          Time         `json:"timestamp"`
	StartTime          Time         `json:"start_time"`
	TotalElapsedTime   float64      `json:"total_elapsed_time"`
	TotalTimerTime     float64      `json:"total_timer_time"`
	MessageIndex       MessageIndex `json:"message_index"`
	TotalStrokes       int          `json:"total_strokes,omitempty"`
	AvgSpeed           float64      `json:"avg_speed,omitempty"`
	TotalCalories      int          `json:"total_calories,omitempty"`
	Event              string       `json:"event,omitempty"`
	EventType          string       `json:"event_type,omitempty"`
	SwimStroke         string       `json:"swim_stroke,omitempty"`
	AvgSwimmingCadence int          `json:"avg_swimming_cadence,omitempty"`
	LengthType         string       `json:"length_type"`
}

// Active reports whether the length was swum.
func (l Length) Active() bool {
	return strings.EqualFold(l.LengthType, LengthActive)
}

type Sport struct {
	Sport    string `json:"sport,omitempty"`
	SubSport string `json:"sub_sport,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Document is the editable session tree. Only Lengths is restructured by
// the editor; everything else is carried through to export.
type Document struct {
	FileIDs     []FileID     `json:"file_ids"`
	FileCreator *FileCreator `json:"file_creator,omitempty"`
	Activity    *Activity    `json:"activity,omitempty"`
	Events      []Event      `json:"events"`
	Records     []Record     `json:"records"`
	Sessions    []Session    `json:"sessions"`
	Laps        []Lap        `json:"laps"`
	Lengths     []Length     `json:"lengths"`
	Sports      []Sport      `json:"sports"`
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		FileIDs:  append([]FileID(nil), d.FileIDs...),
		Events:   append([]Event(nil), d.Events...),
		Records:  append([]Record(nil), d.Records...),
		Sessions: append([]Session(nil), d.Sessions...),
		Laps:     append([]Lap(nil), d.Laps...),
		Lengths:  append([]Length(nil), d.Lengths...),
		Sports:   append([]Sport(nil), d.Sports...),
	}
	if d.FileCreator != nil {
		fc := *d.FileCreator
		out.FileCreator = &fc
	}
	if d.Activity != nil {
		a := *d.Activity
		out.Activity = &a
	}
	return out
}

// Session returns the first session, if any.
func (d *Document) Session() (*Session, bool) {
	if d == nil || len(d.Sessions) == 0 {
		return nil, false
	}
	return &d.Sessions[0], true
}

// PoolLength returns the pool length of the first session in metres.
func (d *Document) PoolLength() float64 {
	if s, ok := d.Session(); ok {
		return s.PoolLength
	}
	return 0
}

// IsPoolSwim reports whether the first sport message describes lap
// swimming. Files without a sport message pass.
func (d *Document) IsPoolSwim() bool {
	if len(d.Sports) == 0 {
		return true
	}
	s := d.Sports[0]
	return strings.EqualFold(s.Sport, "swimming") && strings.EqualFold(s.SubSport, "lap_swimming")
}

// ActiveLengths returns copies of the active lengths in order.
func (d *Document) ActiveLengths() []Length {
	var out []Length
	for _, l := range d.Lengths {
		if l.Active() {
			out = append(out, l)
		}
	}
	return out
}

// ParseDocument reads a document from its JSON form.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return &doc, nil
}
