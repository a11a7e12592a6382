package swimdata

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
)

var testStart = time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)

// poolDoc builds a 25 m pool session with one active freestyle length per
// stroke count and one idle length after the second active length.
func poolDoc(strokes ...int) *Document {
	doc := &Document{
		Sessions: []Session{{PoolLength: 25, Sport: "swimming", SubSport: "lap_swimming"}},
	}
	at := testStart
	add := func(l Length) {
		l.MessageIndex = MessageIndex(len(doc.Lengths))
		l.StartTime = NewTime(at)
		at = at.Add(time.Duration(l.TotalElapsedTime * float64(time.Second)))
		l.Timestamp = NewTime(at)
		doc.Lengths = append(doc.Lengths, l)
	}
	for i, s := range strokes {
		add(Length{
			TotalElapsedTime:   30,
			TotalTimerTime:     30,
			TotalStrokes:       s,
			AvgSpeed:           3,
			AvgSwimmingCadence: 30 + i,
			SwimStroke:         "freestyle",
			LengthType:         LengthActive,
		})
		if i == 1 {
			add(Length{TotalElapsedTime: 20, TotalTimerTime: 20, LengthType: LengthIdle})
		}
	}
	RefreshAggregates(doc)
	return doc
}

func activeStrokes(e *Editor) []int {
	var out []int
	for _, l := range e.ActiveLengths() {
		out = append(out, l.TotalStrokes)
	}
	return out
}

func TestMergeThenSplit(t *testing.T) {
	e := NewEditor(poolDoc(10, 12, 11, 9))

	if err := e.Merge([]int{0, 1}); err != nil {
		t.Fatalf("Merge error: %v", err)
	}
	if diff := cmp.Diff([]int{22, 11, 9}, activeStrokes(e)); diff != "" {
		t.Fatalf("strokes after merge (-want +got):\n%s", diff)
	}
	merged := e.ActiveLengths()[0]
	if merged.TotalElapsedTime != 60 {
		t.Fatalf("merged elapsed = %v, want 60", merged.TotalElapsedTime)
	}
	if merged.MessageIndex != 0 {
		t.Fatalf("merged message_index = %d, want 0", merged.MessageIndex)
	}
	if merged.AvgSwimmingCadence != 31 {
		t.Fatalf("merged cadence = %d, want mean 31", merged.AvgSwimmingCadence)
	}

	if err := e.Split(0); err != nil {
		t.Fatalf("Split error: %v", err)
	}
	if diff := cmp.Diff([]int{11, 11, 11, 9}, activeStrokes(e)); diff != "" {
		t.Fatalf("strokes after split (-want +got):\n%s", diff)
	}
	halves := e.ActiveLengths()[:2]
	if halves[0].TotalElapsedTime+halves[1].TotalElapsedTime != 60 {
		t.Fatalf("split halves do not sum to 60: %s", spew.Sdump(halves))
	}
}

func TestSplitOddStrokes(t *testing.T) {
	e := NewEditor(poolDoc(11))
	if err := e.Split(0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{5, 6}, activeStrokes(e)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestIdleLengthsKeepTheirPlace(t *testing.T) {
	e := NewEditor(poolDoc(10, 12, 11, 9))
	// active index 2 sits after the idle length
	if err := e.Restroke([]int{2}, "BACKSTROKE"); err != nil {
		t.Fatal(err)
	}
	lengths := e.Document().Lengths
	if lengths[2].LengthType != LengthIdle {
		t.Fatalf("idle length moved: %s", spew.Sdump(lengths))
	}
	if lengths[3].SwimStroke != "backstroke" {
		t.Fatalf("restroke hit %q", lengths[3].SwimStroke)
	}
}

func TestRefreshAggregates(t *testing.T) {
	e := NewEditor(poolDoc(10, 12, 11, 9))
	if err := e.DeleteLengths([]int{3}); err != nil {
		t.Fatal(err)
	}
	s, _ := e.Document().Session()
	want := Session{
		PoolLength:       25,
		Sport:            "swimming",
		SubSport:         "lap_swimming",
		TotalElapsedTime: 90,
		TotalStrokes:     33,
		NumLengths:       3,
		NumActiveLengths: 3,
		TotalDistance:    75,
	}
	if diff := cmp.Diff(want, *s); diff != "" {
		t.Fatalf("session aggregates (-want +got):\n%s", diff)
	}
}

func TestUndoRestoresOriginal(t *testing.T) {
	doc := poolDoc(10, 12, 11, 9)
	want := doc.Clone()
	RefreshAggregates(want)
	e := NewEditor(doc)

	if err := e.Merge([]int{0, 1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := e.Restroke([]int{0}, "butterfly"); err != nil {
		t.Fatal(err)
	}
	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, e.Document()); diff != "" {
		t.Fatalf("undo (-want +got):\n%s", diff)
	}

	// the snapshot must survive edits made after an undo
	if err := e.Split(0); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, e.Original()); diff != "" {
		t.Fatalf("snapshot mutated (-want +got):\n%s", diff)
	}
}

func TestDeviceTotalsReplacedOnLoadAndUndo(t *testing.T) {
	doc, err := DefaultDocument()
	if err != nil {
		t.Fatal(err)
	}
	// device totals count the idle lengths and the rest between sets
	doc.Sessions[0].NumLengths = 14
	doc.Sessions[0].TotalElapsedTime = 420.1
	data, err := Encode(doc, EncodeOptions{TempDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	loaded, _, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}

	check := func(step string, d *Document) {
		t.Helper()
		s, ok := d.Session()
		if !ok {
			t.Fatalf("%s: no session", step)
		}
		if s.NumLengths != 12 || s.NumActiveLengths != 12 || math.Abs(s.TotalElapsedTime-315.1) > 1e-3 {
			t.Fatalf("%s: session totals %s", step, spew.Sdump(s))
		}
	}

	e := NewEditor(loaded)
	check("load", e.Document())
	check("snapshot", e.Original())

	if err := e.Restroke([]int{0}, "butterfly"); err != nil {
		t.Fatal(err)
	}
	check("edit", e.Document())

	if err := e.Undo(); err != nil {
		t.Fatal(err)
	}
	check("undo", e.Document())

	stale := e.Document().Clone()
	stale.Sessions[0].NumLengths = 14
	restored := RestoreEditor(stale.Clone(), stale)
	if err := restored.Undo(); err != nil {
		t.Fatal(err)
	}
	check("undo of stored snapshot", restored.Document())
}

func TestEditErrorsLeaveDocumentUntouched(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Editor) error
		want error
	}{
		{"merge out of range", func(e *Editor) error { return e.Merge([]int{0, 4}) }, ErrIndexOutOfRange},
		{"merge negative", func(e *Editor) error { return e.Merge([]int{-1}) }, ErrIndexOutOfRange},
		{"merge empty", func(e *Editor) error { return e.Merge(nil) }, ErrEmptySelection},
		{"split out of range", func(e *Editor) error { return e.Split(9) }, ErrIndexOutOfRange},
		{"delete empty", func(e *Editor) error { return e.DeleteLengths([]int{}) }, ErrEmptySelection},
		{"restroke out of range", func(e *Editor) error { return e.Restroke([]int{7}, "freestyle") }, ErrIndexOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEditor(poolDoc(10, 12, 11, 9))
			before := e.Document().Clone()
			if err := tt.edit(e); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if diff := cmp.Diff(before, e.Document()); diff != "" {
				t.Fatalf("document mutated (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRestrokeRejectsUnknownStroke(t *testing.T) {
	e := NewEditor(poolDoc(10))
	before := e.Document().Clone()
	if err := e.Restroke([]int{0}, "doggy paddle"); err == nil {
		t.Fatal("expected an error for an unknown stroke")
	}
	if diff := cmp.Diff(before, e.Document()); diff != "" {
		t.Fatalf("document mutated (-want +got):\n%s", diff)
	}
}

func TestEditorWithoutDocument(t *testing.T) {
	e := NewEditor(nil)
	if err := e.Merge([]int{0}); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Merge: %v", err)
	}
	if err := e.RefreshAggregates(); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("RefreshAggregates: %v", err)
	}
	if err := e.Undo(); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Undo: %v", err)
	}
}
