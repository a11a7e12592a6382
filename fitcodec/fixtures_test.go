package fitcodec

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/tormoder/fit"
)

var fixtureStart = time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

// buildSwimFIT encodes a pool swim with one ACTIVE length per stroke count,
// followed by one IDLE length, using an independent FIT implementation.
func buildSwimFIT(t *testing.T, strokes []uint16) []byte {
	t.Helper()

	header := fit.NewHeader(fit.V20, true)
	file, err := fit.NewFile(fit.FileTypeActivity, header)
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	start := fit.NewEventMsg()
	start.Timestamp = fixtureStart
	start.Event = fit.EventTimer
	start.EventType = fit.EventTypeStart
	activity.Events = append(activity.Events, start)

	for i, s := range strokes {
		l := fit.NewLengthMsg()
		l.MessageIndex = fit.MessageIndex(i)
		l.StartTime = fixtureStart.Add(time.Duration(i) * 30 * time.Second)
		l.Timestamp = l.StartTime.Add(30 * time.Second)
		l.Event = fit.EventLength
		l.EventType = fit.EventTypeStop
		l.TotalElapsedTime = 30000
		l.TotalTimerTime = 30000
		l.TotalStrokes = s
		l.AvgSpeed = 833
		l.SwimStroke = fit.SwimStrokeFreestyle
		l.LengthType = fit.LengthTypeActive
		activity.Lengths = append(activity.Lengths, l)
	}

	idle := fit.NewLengthMsg()
	idle.MessageIndex = fit.MessageIndex(len(strokes))
	idle.StartTime = fixtureStart.Add(time.Duration(len(strokes)) * 30 * time.Second)
	idle.Timestamp = idle.StartTime.Add(20 * time.Second)
	idle.Event = fit.EventLength
	idle.EventType = fit.EventTypeStop
	idle.TotalElapsedTime = 20000
	idle.TotalTimerTime = 20000
	idle.LengthType = fit.LengthTypeIdle
	activity.Lengths = append(activity.Lengths, idle)

	rec := fit.NewRecordMsg()
	rec.Timestamp = fixtureStart.Add(10 * time.Second)
	rec.HeartRate = 128
	activity.Records = append(activity.Records, rec)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

// swimMessages builds the message set the session exporter produces for a
// short pool swim.
func swimMessages(t *testing.T) []*Message {
	t.Helper()

	newMsg := func(num MesgNum) *Message {
		m, err := NewMessage(num)
		if err != nil {
			t.Fatalf("new message %d: %v", num, err)
		}
		return m
	}

	fileID := newMsg(MesgNumFileID).
		MustSet("type", "activity").
		MustSet("manufacturer", "garmin").
		MustSet("product", 3113).
		MustSet("serial_number", 3412345678).
		MustSet("time_created", fixtureStart)
	creator := newMsg(MesgNumFileCreator).MustSet("software_version", 1210)

	msgs := []*Message{fileID, creator}
	for i := 0; i < 4; i++ {
		startTime := fixtureStart.Add(time.Duration(i) * 35 * time.Second)
		active := newMsg(MesgNumLength).
			MustSet("timestamp", startTime.Add(30*time.Second)).
			MustSet("message_index", i*2).
			MustSet("event", "length").
			MustSet("event_type", "stop").
			MustSet("start_time", startTime).
			MustSet("total_elapsed_time", 30.5).
			MustSet("total_timer_time", 30.5).
			MustSet("total_strokes", 10+i).
			MustSet("avg_speed", 3.6).
			MustSet("swim_stroke", "breaststroke").
			MustSet("avg_swimming_cadence", 24).
			MustSet("length_type", "active")
		idle := newMsg(MesgNumLength).
			MustSet("timestamp", startTime.Add(35*time.Second)).
			MustSet("message_index", i*2+1).
			MustSet("event", "length").
			MustSet("event_type", "stop").
			MustSet("start_time", startTime.Add(30*time.Second)).
			MustSet("total_elapsed_time", 5).
			MustSet("total_timer_time", 5).
			MustSet("length_type", "idle")
		msgs = append(msgs, active, idle)
	}

	session := newMsg(MesgNumSession).
		MustSet("timestamp", fixtureStart.Add(140*time.Second)).
		MustSet("message_index", 0).
		MustSet("event", "session").
		MustSet("event_type", "stop").
		MustSet("start_time", fixtureStart).
		MustSet("sport", "swimming").
		MustSet("sub_sport", "lap_swimming").
		MustSet("total_elapsed_time", 140).
		MustSet("total_distance", 100).
		MustSet("pool_length", 25).
		MustSet("pool_length_unit", "metric").
		MustSet("num_lengths", 4).
		MustSet("enhanced_avg_speed", 2.88)
	sport := newMsg(MesgNumSport).
		MustSet("sport", "swimming").
		MustSet("sub_sport", "lap_swimming").
		MustSet("name", "Pool Swim")

	return append(msgs, session, sport)
}
