package swimdata

import (
	"fmt"
	"math"
	"time"

	"github.com/PeterK-end/swim-data-analyser/fitcodec"
)

// msgWriter accumulates fields on a message and keeps the first error.
type msgWriter struct {
	m   *fitcodec.Message
	now time.Time
	err error
}

func newWriter(num fitcodec.MesgNum, now time.Time) *msgWriter {
	m, err := fitcodec.NewMessage(num)
	return &msgWriter{m: m, now: now, err: err}
}

func (w *msgWriter) set(name string, v any) {
	if w.err != nil {
		return
	}
	w.err = w.m.Set(name, v)
}

// enum writes v, or def when v is empty.
func (w *msgWriter) enum(name, v, def string) {
	if v == "" {
		v = def
	}
	w.set(name, v)
}

// time writes t, or the export time when t is unset.
func (w *msgWriter) time(name string, t Time) {
	if t.IsZero() {
		w.set(name, w.now)
		return
	}
	w.set(name, t.Time)
}

func (w *msgWriter) optionalTime(name string, t Time) {
	if !t.IsZero() {
		w.set(name, t.Time)
	}
}

func (w *msgWriter) nonZero(name string, v float64) {
	if v != 0 {
		w.set(name, v)
	}
}

func (w *msgWriter) text(name, v string) {
	if v != "" {
		w.set(name, v)
	}
}

func (w *msgWriter) done() (*fitcodec.Message, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.m, nil
}

// msgReader reads typed values off a decoded message.
type msgReader struct{ m *fitcodec.Message }

func (r msgReader) float(name string) float64 {
	v, _ := r.m.Float(name)
	return v
}

func (r msgReader) int(name string) int {
	v, _ := r.m.Float(name)
	return int(math.Round(v))
}

func (r msgReader) enum(name string) string {
	v, _ := r.m.Enum(name)
	return v
}

func (r msgReader) text(name string) string {
	v, _ := r.m.Text(name)
	return v
}

func (r msgReader) time(name string) Time {
	v, ok := r.m.Time(name)
	if !ok {
		return Time{}
	}
	return NewTime(v)
}

func (r msgReader) index() MessageIndex {
	return MessageIndex(r.int("message_index"))
}

// Messages lowers the document to FIT messages in export order. Missing
// enum values fall back to their usual swim defaults and missing
// timestamps to now. A document without a file_id gets one created now.
func (d *Document) Messages(now time.Time) ([]*fitcodec.Message, error) {
	now = now.UTC().Truncate(time.Second)
	var out []*fitcodec.Message
	add := func(what string, i int, w *msgWriter) error {
		m, err := w.done()
		if err != nil {
			return fmt.Errorf("%s %d: %w", what, i, err)
		}
		out = append(out, m)
		return nil
	}

	fileIDs := d.FileIDs
	if len(fileIDs) == 0 {
		fileIDs = []FileID{{}}
	}
	for i, f := range fileIDs {
		w := newWriter(fitcodec.MesgNumFileID, now)
		w.enum("type", f.Type, "activity")
		w.enum("manufacturer", f.Manufacturer, "garmin")
		w.set("product", f.Product)
		if f.SerialNumber != 0 {
			w.set("serial_number", f.SerialNumber)
		}
		w.time("time_created", f.TimeCreated)
		w.nonZero("number", float64(f.Number))
		w.text("product_name", f.ProductName)
		if err := add("file_id", i, w); err != nil {
			return nil, err
		}
	}

	if fc := d.FileCreator; fc != nil {
		w := newWriter(fitcodec.MesgNumFileCreator, now)
		w.set("software_version", fc.SoftwareVersion)
		w.nonZero("hardware_version", float64(fc.HardwareVersion))
		if err := add("file_creator", 0, w); err != nil {
			return nil, err
		}
	}

	if a := d.Activity; a != nil {
		w := newWriter(fitcodec.MesgNumActivity, now)
		w.time("timestamp", a.Timestamp)
		w.set("total_timer_time", a.TotalTimerTime)
		w.set("num_sessions", a.NumSessions)
		w.enum("type", a.Type, "manual")
		w.enum("event", a.Event, "activity")
		w.enum("event_type", a.EventType, "stop")
		w.optionalTime("local_timestamp", a.LocalTimestamp)
		if err := add("activity", 0, w); err != nil {
			return nil, err
		}
	}

	for i, e := range d.Events {
		w := newWriter(fitcodec.MesgNumEvent, now)
		w.time("timestamp", e.Timestamp)
		w.enum("event", e.Event, "timer")
		w.enum("event_type", e.EventType, "start")
		w.nonZero("data", e.Data)
		w.nonZero("event_group", float64(e.EventGroup))
		if err := add("event", i, w); err != nil {
			return nil, err
		}
	}

	for i, r := range d.Records {
		w := newWriter(fitcodec.MesgNumRecord, now)
		w.time("timestamp", r.Timestamp)
		w.nonZero("altitude", r.Altitude)
		w.nonZero("heart_rate", float64(r.HeartRate))
		w.nonZero("cadence", float64(r.Cadence))
		w.nonZero("distance", r.Distance)
		w.nonZero("speed", r.Speed)
		w.nonZero("temperature", float64(r.Temperature))
		if err := add("record", i, w); err != nil {
			return nil, err
		}
	}

	for i, s := range d.Sessions {
		w := newWriter(fitcodec.MesgNumSession, now)
		w.time("timestamp", s.Timestamp)
		w.set("message_index", int(s.MessageIndex))
		w.enum("event", s.Event, "session")
		w.enum("event_type", s.EventType, "stop")
		w.time("start_time", s.StartTime)
		w.enum("sport", s.Sport, "swimming")
		w.enum("sub_sport", s.SubSport, "lap_swimming")
		w.set("total_elapsed_time", s.TotalElapsedTime)
		w.set("total_timer_time", s.TotalTimerTime)
		w.set("total_distance", s.TotalDistance)
		w.set("total_strokes", s.TotalStrokes)
		w.set("total_calories", s.TotalCalories)
		w.nonZero("avg_heart_rate", float64(s.AvgHeartRate))
		w.nonZero("max_heart_rate", float64(s.MaxHeartRate))
		w.nonZero("avg_cadence", float64(s.AvgCadence))
		w.nonZero("total_training_effect", s.TotalTrainingEffect)
		w.set("first_lap_index", s.FirstLapIndex)
		w.set("num_laps", s.NumLaps)
		w.enum("trigger", s.Trigger, "activity_end")
		w.set("num_lengths", s.NumLengths)
		w.nonZero("avg_stroke_distance", s.AvgStrokeDistance)
		w.set("pool_length", s.PoolLength)
		w.enum("pool_length_unit", s.PoolLengthUnit, "metric")
		w.set("num_active_lengths", s.NumActiveLengths)
		w.set("enhanced_avg_speed", s.EnhancedAvgSpeed)
		w.set("enhanced_max_speed", s.EnhancedMaxSpeed)
		w.nonZero("total_anaerobic_training_effect", s.TotalAnaerobicTrainingEffect)
		if err := add("session", i, w); err != nil {
			return nil, err
		}
	}

	for i, l := range d.Lengths {
		w := newWriter(fitcodec.MesgNumLength, now)
		w.time("timestamp", l.Timestamp)
		w.set("message_index", int(l.MessageIndex))
		w.enum("event", l.Event, "length")
		w.enum("event_type", l.EventType, "stop")
		w.time("start_time", l.StartTime)
		w.set("total_elapsed_time", l.TotalElapsedTime)
		w.set("total_timer_time", l.TotalTimerTime)
		if l.Active() {
			w.set("total_strokes", l.TotalStrokes)
			w.set("avg_speed", l.AvgSpeed)
			w.enum("swim_stroke", l.SwimStroke, "mixed")
			w.set("avg_swimming_cadence", l.AvgSwimmingCadence)
			w.set("total_calories", l.TotalCalories)
		}
		w.enum("length_type", l.LengthType, LengthIdle)
		if err := add("length", i, w); err != nil {
			return nil, err
		}
	}

	for i, l := range d.Laps {
		w := newWriter(fitcodec.MesgNumLap, now)
		w.time("timestamp", l.Timestamp)
		w.set("message_index", int(l.MessageIndex))
		w.enum("event", l.Event, "lap")
		w.enum("event_type", l.EventType, "stop")
		w.time("start_time", l.StartTime)
		w.set("total_elapsed_time", l.TotalElapsedTime)
		w.set("total_timer_time", l.TotalTimerTime)
		w.set("total_distance", l.TotalDistance)
		w.set("total_cycles", l.TotalCycles)
		w.set("total_calories", l.TotalCalories)
		w.nonZero("avg_heart_rate", float64(l.AvgHeartRate))
		w.nonZero("max_heart_rate", float64(l.MaxHeartRate))
		w.nonZero("avg_cadence", float64(l.AvgCadence))
		w.enum("lap_trigger", l.LapTrigger, "manual")
		w.enum("sport", l.Sport, "swimming")
		w.set("num_lengths", l.NumLengths)
		w.set("first_length_index", l.FirstLengthIndex)
		w.nonZero("avg_stroke_distance", l.AvgStrokeDistance)
		w.enum("swim_stroke", l.SwimStroke, "mixed")
		w.enum("sub_sport", l.SubSport, "lap_swimming")
		w.set("num_active_lengths", l.NumActiveLengths)
		w.set("enhanced_avg_speed", l.EnhancedAvgSpeed)
		w.set("enhanced_max_speed", l.EnhancedMaxSpeed)
		if err := add("lap", i, w); err != nil {
			return nil, err
		}
	}

	for i, s := range d.Sports {
		w := newWriter(fitcodec.MesgNumSport, now)
		w.enum("sport", s.Sport, "swimming")
		w.enum("sub_sport", s.SubSport, "lap_swimming")
		w.text("name", s.Name)
		if err := add("sport", i, w); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// FromFile groups decoded messages into a document.
func FromFile(f *fitcodec.File) *Document {
	doc := &Document{}
	for _, m := range f.Messages {
		r := msgReader{m: m}
		switch m.Num {
		case fitcodec.MesgNumFileID:
			doc.FileIDs = append(doc.FileIDs, FileID{
				Type:         r.enum("type"),
				Manufacturer: r.enum("manufacturer"),
				Product:      r.int("product"),
				SerialNumber: uint32(r.float("serial_number")),
				TimeCreated:  r.time("time_created"),
				Number:       r.int("number"),
				ProductName:  r.text("product_name"),
			})
		case fitcodec.MesgNumFileCreator:
			doc.FileCreator = &FileCreator{
				SoftwareVersion: r.int("software_version"),
				HardwareVersion: r.int("hardware_version"),
			}
		case fitcodec.MesgNumActivity:
			doc.Activity = &Activity{
				Timestamp:      r.time("timestamp"),
				TotalTimerTime: r.float("total_timer_time"),
				NumSessions:    r.int("num_sessions"),
				Type:           r.enum("type"),
				Event:          r.enum("event"),
				EventType:      r.enum("event_type"),
				LocalTimestamp: r.time("local_timestamp"),
			}
		case fitcodec.MesgNumEvent:
			doc.Events = append(doc.Events, Event{
				Timestamp:  r.time("timestamp"),
				Event:      r.enum("event"),
				EventType:  r.enum("event_type"),
				Data:       r.float("data"),
				EventGroup: r.int("event_group"),
			})
		case fitcodec.MesgNumRecord:
			doc.Records = append(doc.Records, Record{
				Timestamp:   r.time("timestamp"),
				HeartRate:   r.int("heart_rate"),
				Cadence:     r.int("cadence"),
				Distance:    r.float("distance"),
				Speed:       r.float("speed"),
				Altitude:    r.float("altitude"),
				Temperature: r.int("temperature"),
			})
		case fitcodec.MesgNumSession:
			doc.Sessions = append(doc.Sessions, Session{
				Timestamp:                    r.time("timestamp"),
				MessageIndex:                 r.index(),
				Event:                        r.enum("event"),
				EventType:                    r.enum("event_type"),
				StartTime:                    r.time("start_time"),
				Sport:                        r.enum("sport"),
				SubSport:                     r.enum("sub_sport"),
				TotalElapsedTime:             r.float("total_elapsed_time"),
				TotalTimerTime:               r.float("total_timer_time"),
				TotalDistance:                r.float("total_distance"),
				TotalStrokes:                 r.int("total_strokes"),
				TotalCalories:                r.int("total_calories"),
				AvgHeartRate:                 r.int("avg_heart_rate"),
				MaxHeartRate:                 r.int("max_heart_rate"),
				AvgCadence:                   r.int("avg_cadence"),
				TotalTrainingEffect:          r.float("total_training_effect"),
				FirstLapIndex:                r.int("first_lap_index"),
				NumLaps:                      r.int("num_laps"),
				Trigger:                      r.enum("trigger"),
				NumLengths:                   r.int("num_lengths"),
				AvgStrokeDistance:            r.float("avg_stroke_distance"),
				PoolLength:                   r.float("pool_length"),
				PoolLengthUnit:               r.enum("pool_length_unit"),
				NumActiveLengths:             r.int("num_active_lengths"),
				EnhancedAvgSpeed:             r.float("enhanced_avg_speed"),
				EnhancedMaxSpeed:             r.float("enhanced_max_speed"),
				TotalAnaerobicTrainingEffect: r.float("total_anaerobic_training_effect"),
			})
		case fitcodec.MesgNumLap:
			doc.Laps = append(doc.Laps, Lap{
				Timestamp:         r.time("timestamp"),
				MessageIndex:      r.index(),
				Event:             r.enum("event"),
				EventType:         r.enum("event_type"),
				StartTime:         r.time("start_time"),
				TotalElapsedTime:  r.float("total_elapsed_time"),
				TotalTimerTime:    r.float("total_timer_time"),
				TotalDistance:     r.float("total_distance"),
				TotalCycles:       r.int("total_cycles"),
				TotalCalories:     r.int("total_calories"),
				AvgHeartRate:      r.int("avg_heart_rate"),
				MaxHeartRate:      r.int("max_heart_rate"),
				AvgCadence:        r.int("avg_cadence"),
				LapTrigger:        r.enum("lap_trigger"),
				Sport:             r.enum("sport"),
				NumLengths:        r.int("num_lengths"),
				FirstLengthIndex:  r.int("first_length_index"),
				AvgStrokeDistance: r.float("avg_stroke_distance"),
				SwimStroke:        r.enum("swim_stroke"),
				SubSport:          r.enum("sub_sport"),
				NumActiveLengths:  r.int("num_active_lengths"),
				EnhancedAvgSpeed:  r.float("enhanced_avg_speed"),
				EnhancedMaxSpeed:  r.float("enhanced_max_speed"),
			})
		case fitcodec.MesgNumLength:
			doc.Lengths = append(doc.Lengths, Length{
				Timestamp:          r.time("timestamp"),
				StartTime:          r.time("start_time"),
				TotalElapsedTime:   r.float("total_elapsed_time"),
				TotalTimerTime:     r.float("total_timer_time"),
				MessageIndex:       r.index(),
				TotalStrokes:       r.int("total_strokes"),
				AvgSpeed:           r.float("avg_speed"),
				TotalCalories:      r.int("total_calories"),
				Event:              r.enum("event"),
				EventType:          r.enum("event_type"),
				SwimStroke:         r.enum("swim_stroke"),
				AvgSwimmingCadence: r.int("avg_swimming_cadence"),
				LengthType:         r.enum("length_type"),
			})
		case fitcodec.MesgNumSport:
			doc.Sports = append(doc.Sports, Sport{
				Sport:    r.enum("sport"),
				SubSport: r.enum("sub_sport"),
				Name:     r.text("name"),
			})
		}
	}
	return doc
}
