package swimdata

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSummarizeGroupsByStroke(t *testing.T) {
	doc := poolDoc(10, 12, 11, 9)
	doc.Lengths[3].SwimStroke = "breaststroke"
	doc.Lengths[4].SwimStroke = "Breaststroke"

	sum := Summarize(doc)

	var strokes []string
	for _, g := range sum.Strokes {
		strokes = append(strokes, g.Stroke)
	}
	// ordered by stroke code: freestyle 0, breaststroke 2
	if diff := cmp.Diff([]string{"freestyle", "breaststroke"}, strokes); diff != "" {
		t.Fatalf("stroke order (-want +got):\n%s", diff)
	}

	free := sum.Strokes[0]
	if free.Lengths != 2 || free.DistanceMeters != 50 || free.TimeSeconds != 60 {
		t.Fatalf("freestyle = %+v", free)
	}
	if free.PacePer100m != 120 {
		t.Fatalf("freestyle pace = %v, want 120", free.PacePer100m)
	}
	if free.StrokesPerLen != 11 || free.StrokesPerMin != 30.5 {
		t.Fatalf("freestyle spl/spm = %v/%v", free.StrokesPerLen, free.StrokesPerMin)
	}

	if sum.RestSeconds != 20 || sum.ActiveSeconds != 120 || sum.TotalSeconds != 140 {
		t.Fatalf("times = %+v", sum)
	}
	if sum.TotalLengths != 4 || sum.DistanceMeters != 100 {
		t.Fatalf("totals = %d lengths / %v m", sum.TotalLengths, sum.DistanceMeters)
	}
	if math.Abs(sum.AvgSPL-10.5) > 1e-9 {
		t.Fatalf("avg spl = %v", sum.AvgSPL)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(&Document{})
	if len(sum.Strokes) != 0 || sum.PacePer100m != 0 || sum.AvgSPM != 0 {
		t.Fatalf("empty summary = %+v", sum)
	}
}

func TestIntervals(t *testing.T) {
	doc, err := DefaultDocument()
	if err != nil {
		t.Fatal(err)
	}
	ivs := Intervals(doc)
	if len(ivs) != 3 {
		t.Fatalf("intervals = %d, want 3", len(ivs))
	}

	want := []struct {
		stroke  string
		lengths int
		rest    float64
	}{
		{"freestyle", 4, 45},
		{"breaststroke", 4, 60},
		{StrokeMixed, 4, 0},
	}
	for i, w := range want {
		iv := ivs[i]
		if iv.Number != i+1 || iv.Stroke != w.stroke || len(iv.Lengths) != w.lengths || iv.RestSeconds != w.rest {
			t.Fatalf("interval %d = %s %d lengths rest %v", iv.Number, iv.Stroke, len(iv.Lengths), iv.RestSeconds)
		}
		if iv.DistanceMeters != float64(w.lengths)*25 {
			t.Fatalf("interval %d distance = %v", iv.Number, iv.DistanceMeters)
		}
	}
	if math.Abs(ivs[0].TimeSeconds-93.1) > 1e-9 {
		t.Fatalf("first interval time = %v", ivs[0].TimeSeconds)
	}
}

func TestIntervalsSkipLapsWithoutSwimming(t *testing.T) {
	doc := poolDoc(10, 12, 11)
	doc.Laps = []Lap{
		{FirstLengthIndex: 0, NumActiveLengths: 2},
		{FirstLengthIndex: 2, NumActiveLengths: 0},
		{FirstLengthIndex: 3, NumActiveLengths: 1},
	}
	ivs := Intervals(doc)
	if len(ivs) != 2 {
		t.Fatalf("intervals = %d", len(ivs))
	}
	// the idle lap is absorbed as rest of the first interval
	if len(ivs[0].Lengths) != 2 || ivs[0].RestSeconds != 20 {
		t.Fatalf("first interval = %+v", ivs[0])
	}
	if len(ivs[1].Lengths) != 1 || ivs[1].Lengths[0].TotalStrokes != 11 {
		t.Fatalf("second interval = %+v", ivs[1])
	}
}

func TestBestTimes(t *testing.T) {
	doc := poolDoc(10, 12, 11, 9)
	// 4 freestyle lengths, idle in between does not break the streak
	doc.Lengths[0].TotalElapsedTime = 25
	doc.Lengths[4].TotalElapsedTime = 28

	best := BestTimes(doc)
	got := map[float64]float64{}
	for _, bt := range best {
		if bt.Stroke != "freestyle" {
			t.Fatalf("unexpected stroke %q", bt.Stroke)
		}
		got[bt.DistanceMeters] = bt.TimeSeconds
	}
	want := map[float64]float64{50: 55, 100: 113}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("best times (-want +got):\n%s", diff)
	}
}

func TestBestTimesStrokeChangeBreaksStreak(t *testing.T) {
	doc := poolDoc(10, 12, 11, 9)
	doc.Lengths[3].SwimStroke = "backstroke"

	for _, bt := range BestTimes(doc) {
		if bt.DistanceMeters > 50 {
			t.Fatalf("streak crossed a stroke change: %+v", bt)
		}
	}
}

func TestBuildNotes(t *testing.T) {
	doc, err := DefaultDocument()
	if err != nil {
		t.Fatal(err)
	}
	notes := BuildNotes(doc)
	for _, want := range []string{
		"Session: swimming (lap_swimming)",
		"Pool 25 m | Distance 300 m",
		"- Freestyle: 6 x 25 m = 150 m",
		"- 1st: 100 m Freestyle",
		"- 3rd: 100 m Mixed",
		"Best Times",
	} {
		if !strings.Contains(notes, want) {
			t.Fatalf("notes missing %q:\n%s", want, notes)
		}
	}
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{formatDuration(0), "0s"},
		{formatDuration(59.6), "1m00s"},
		{formatDuration(3725), "1h02m05s"},
		{formatPace(95.4), "1:35"},
		{ordinal(1), "1st"},
		{ordinal(12), "12th"},
		{ordinal(23), "23rd"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
