package swimdata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/tormoder/fit"

	"github.com/PeterK-end/swim-data-analyser/fitcodec"
)

// thirdPartySwim encodes a short pool swim with an independent FIT encoder.
func thirdPartySwim(t *testing.T) []byte {
	t.Helper()

	file, err := fit.NewFile(fit.FileTypeActivity, fit.NewHeader(fit.V20, true))
	if err != nil {
		t.Fatalf("new fit file: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatalf("activity accessor: %v", err)
	}

	for i, strokes := range []uint16{10, 12, 11, 9} {
		l := fit.NewLengthMsg()
		l.MessageIndex = fit.MessageIndex(i)
		l.StartTime = testStart.Add(time.Duration(i) * 25 * time.Second)
		l.Timestamp = l.StartTime.Add(25 * time.Second)
		l.Event = fit.EventLength
		l.EventType = fit.EventTypeStop
		l.TotalElapsedTime = 25000
		l.TotalTimerTime = 25000
		l.TotalStrokes = strokes
		l.AvgSpeed = 1000
		l.SwimStroke = fit.SwimStrokeBackstroke
		l.LengthType = fit.LengthTypeActive
		activity.Lengths = append(activity.Lengths, l)
	}

	s := fit.NewSessionMsg()
	s.Timestamp = testStart.Add(100 * time.Second)
	s.StartTime = testStart
	s.Sport = fit.SportSwimming
	s.SubSport = fit.SubSportLapSwimming
	s.PoolLength = 2500
	activity.Sessions = append(activity.Sessions, s)

	var buf bytes.Buffer
	if err := fit.Encode(&buf, file, binary.LittleEndian); err != nil {
		t.Fatalf("encode fit: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeThirdPartyFile(t *testing.T) {
	doc, report, err := Decode(thirdPartySwim(t))
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !report.CRCValid || len(report.Warnings()) != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if len(doc.Lengths) != 4 {
		t.Fatalf("decoded %d lengths", len(doc.Lengths))
	}
	if report.Counts["length"] != 4 {
		t.Fatalf("message counts = %v", report.Counts)
	}
	first := doc.Lengths[0]
	if first.SwimStroke != "backstroke" || first.LengthType != LengthActive {
		t.Fatalf("first length = %+v", first)
	}
	if first.AvgSpeed != 3.6 {
		t.Fatalf("avg_speed = %v km/h, want 3.6", first.AvgSpeed)
	}
	if first.TotalElapsedTime != 25 {
		t.Fatalf("total_elapsed_time = %v", first.TotalElapsedTime)
	}
	if !first.StartTime.Equal(testStart) {
		t.Fatalf("start_time = %v", first.StartTime)
	}
	if doc.PoolLength() != 25 {
		t.Fatalf("pool length = %v", doc.PoolLength())
	}
	if s, _ := doc.Session(); s.Sport != "swimming" || s.SubSport != "lap_swimming" {
		t.Fatalf("session sport = %s/%s", s.Sport, s.SubSport)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := Decode([]byte("definitely not a fit file")); !errors.Is(err, fitcodec.ErrMalformedHeader) {
		t.Fatalf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	doc, err := DefaultDocument()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	data, err := Encode(doc, EncodeOptions{TempDir: dir})
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}

	got, report, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if !report.CRCValid || !report.HeaderCRCValid {
		t.Fatalf("report %+v", report)
	}

	opts := []cmp.Option{
		cmpopts.EquateApprox(1e-3, 1e-3),
		cmpopts.EquateEmpty(),
		cmp.Comparer(func(a, b Time) bool { return a.Truncate(time.Second).Equal(b.Truncate(time.Second)) }),
	}
	if diff := cmp.Diff(doc, got, opts...); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch files left behind: %v", entries)
	}
}

func TestEncodeInMemoryMatchesScratchFile(t *testing.T) {
	doc, err := DefaultDocument()
	if err != nil {
		t.Fatal(err)
	}
	now := func() time.Time { return testStart }

	dir := t.TempDir()
	viaFile, err := Encode(doc, EncodeOptions{TempDir: dir, Now: now})
	if err != nil {
		t.Fatal(err)
	}
	inMemory, err := Encode(doc, EncodeOptions{TempDir: filepath.Join(dir, "missing"), Now: now, InMemory: true})
	if err != nil {
		t.Fatalf("in-memory encode: %v", err)
	}
	if !bytes.Equal(viaFile, inMemory) {
		t.Fatalf("in-memory encode differs: %d vs %d bytes", len(inMemory), len(viaFile))
	}

	if _, err := Encode(poolDoc(70000), EncodeOptions{InMemory: true}); !errors.Is(err, fitcodec.ErrFieldOverflow) {
		t.Fatalf("expected ErrFieldOverflow, got %v", err)
	}
}

func TestEncodeFailureLeavesNothing(t *testing.T) {
	doc := poolDoc(10, 12)
	doc.Lengths[0].SwimStroke = "doggy paddle"

	dir := t.TempDir()
	data, err := Encode(doc, EncodeOptions{TempDir: dir})
	if err == nil {
		t.Fatal("expected encode error")
	}
	var enumErr *fitcodec.EnumError
	if !errors.As(err, &enumErr) {
		t.Fatalf("expected *EnumError, got %T: %v", err, err)
	}
	if data != nil {
		t.Fatal("failed encode returned bytes")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("scratch files left behind: %v", entries)
	}
}

func TestEncodeOverflow(t *testing.T) {
	doc := poolDoc(10)
	doc.Lengths[0].TotalStrokes = 70000
	if _, err := Encode(doc, EncodeOptions{TempDir: t.TempDir()}); !errors.Is(err, fitcodec.ErrFieldOverflow) {
		t.Fatalf("expected ErrFieldOverflow, got %v", err)
	}
}

func TestEncodeSpeedIsWireUnits(t *testing.T) {
	doc := poolDoc(10)
	doc.Lengths[0].AvgSpeed = 3.6
	data, err := Encode(doc, EncodeOptions{TempDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	file, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("third-party decode: %v", err)
	}
	activity, err := file.Activity()
	if err != nil {
		t.Fatal(err)
	}
	if got := activity.Lengths[0].AvgSpeed; got != 1000 {
		t.Fatalf("wire avg_speed = %d, want 1000", got)
	}
}

func TestEncodeAddsFileIDWhenMissing(t *testing.T) {
	now := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	doc := poolDoc(10, 12)
	data, err := Encode(doc, EncodeOptions{TempDir: t.TempDir(), Now: func() time.Time { return now }})
	if err != nil {
		t.Fatal(err)
	}

	file, err := fit.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("third-party decode: %v", err)
	}
	if file.FileId.Type != fit.FileTypeActivity || file.FileId.Manufacturer != fit.ManufacturerGarmin {
		t.Fatalf("file_id = %+v", file.FileId)
	}
	if !file.FileId.TimeCreated.Equal(now) {
		t.Fatalf("time_created = %v, want %v", file.FileId.TimeCreated, now)
	}

	got, _, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.FileIDs) != 1 || got.FileIDs[0].Type != "activity" || got.FileIDs[0].Manufacturer != "garmin" {
		t.Fatalf("decoded file ids = %+v", got.FileIDs)
	}
}

func TestEncodeDefaultsMissingValues(t *testing.T) {
	now := time.Date(2026, 5, 4, 3, 2, 1, 500, time.UTC)
	doc := &Document{
		Sessions: []Session{{PoolLength: 25}},
		Lengths:  []Length{{TotalElapsedTime: 10}},
	}
	data, err := Encode(doc, EncodeOptions{TempDir: t.TempDir(), Now: func() time.Time { return now }})
	if err != nil {
		t.Fatal(err)
	}
	got, _, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	l := got.Lengths[0]
	if l.LengthType != LengthIdle || l.Event != "length" || l.EventType != "stop" {
		t.Fatalf("length defaults = %+v", l)
	}
	if !l.Timestamp.Equal(now.Truncate(time.Second)) {
		t.Fatalf("timestamp = %v, want %v", l.Timestamp, now.Truncate(time.Second))
	}
	if s, _ := got.Session(); s.Sport != "swimming" || s.Trigger != "activity_end" || s.PoolLengthUnit != "metric" {
		t.Fatalf("session defaults = %+v", s)
	}
}

func TestEncodeNilDocument(t *testing.T) {
	if _, err := Encode(nil, EncodeOptions{}); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("got %v", err)
	}
}
