package swimdata

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/PeterK-end/swim-data-analyser/fitcodec"
)

var (
	// ErrIndexOutOfRange reports an active-length index outside the current view.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrEmptySelection reports an edit called with no lengths selected.
	ErrEmptySelection = errors.New("empty selection")
	// ErrNoActiveSession reports an edit on an editor with no document loaded.
	ErrNoActiveSession = errors.New("no active session")
)

// Editor applies length edits to a document. Indices address the active
// lengths only; idle lengths keep their place in the underlying sequence.
// Every edit validates its arguments before touching the document and
// refreshes the session aggregates afterwards.
//
// An Editor is not safe for concurrent use.
type Editor struct {
	doc      *Document
	original *Document
}

// NewEditor takes ownership of doc, refreshes its session totals and
// snapshots it for Undo.
func NewEditor(doc *Document) *Editor {
	RefreshAggregates(doc)
	return &Editor{doc: doc, original: doc.Clone()}
}

// RestoreEditor resumes an edit session from a persisted working copy and
// its load-time snapshot.
func RestoreEditor(current, original *Document) *Editor {
	return &Editor{doc: current, original: original}
}

// Document returns the working copy.
func (e *Editor) Document() *Document { return e.doc }

// Original returns a copy of the load-time snapshot.
func (e *Editor) Original() *Document { return e.original.Clone() }

// ActiveLengths returns the active lengths in order.
func (e *Editor) ActiveLengths() []Length {
	if e.doc == nil {
		return nil
	}
	return e.doc.ActiveLengths()
}

// activePositions maps active ordinal -> position in doc.Lengths.
func (e *Editor) activePositions() []int {
	var pos []int
	for i, l := range e.doc.Lengths {
		if l.Active() {
			pos = append(pos, i)
		}
	}
	return pos
}

// selection validates indices against the active view and returns their
// underlying positions, ascending and deduplicated.
func (e *Editor) selection(indices []int) ([]int, error) {
	if e.doc == nil {
		return nil, ErrNoActiveSession
	}
	if len(indices) == 0 {
		return nil, ErrEmptySelection
	}
	active := e.activePositions()
	seen := make(map[int]bool, len(indices))
	var out []int
	for _, i := range indices {
		if i < 0 || i >= len(active) {
			return nil, fmt.Errorf("%w: %d (have %d active lengths)", ErrIndexOutOfRange, i, len(active))
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, active[i])
	}
	sort.Ints(out)
	return out, nil
}

// Merge replaces the selected lengths with one length. Times, strokes and
// calories are summed, speed and cadence averaged, and the rest is taken
// from the earliest selected length. The merged length sits where the
// earliest selected one was.
func (e *Editor) Merge(indices []int) error {
	positions, err := e.selection(indices)
	if err != nil {
		return err
	}

	picked := make([]Length, len(positions))
	for i, p := range positions {
		picked[i] = e.doc.Lengths[p]
	}
	merged := picked[0]
	merged.TotalElapsedTime = 0
	merged.TotalTimerTime = 0
	merged.TotalStrokes = 0
	merged.TotalCalories = 0
	var speeds, cadences []float64
	for _, l := range picked {
		merged.TotalElapsedTime += l.TotalElapsedTime
		merged.TotalTimerTime += l.TotalTimerTime
		merged.TotalStrokes += l.TotalStrokes
		merged.TotalCalories += l.TotalCalories
		if l.MessageIndex < merged.MessageIndex {
			merged.MessageIndex = l.MessageIndex
		}
		speeds = append(speeds, l.AvgSpeed)
		cadences = append(cadences, float64(l.AvgSwimmingCadence))
	}
	merged.AvgSpeed = mean(speeds)
	merged.AvgSwimmingCadence = int(math.Round(mean(cadences)))

	drop := make(map[int]bool, len(positions))
	for _, p := range positions[1:] {
		drop[p] = true
	}
	lengths := make([]Length, 0, len(e.doc.Lengths)-len(positions)+1)
	for i, l := range e.doc.Lengths {
		switch {
		case i == positions[0]:
			lengths = append(lengths, merged)
		case !drop[i]:
			lengths = append(lengths, l)
		}
	}
	e.doc.Lengths = lengths
	return e.RefreshAggregates()
}

// Split halves the length at index into two consecutive lengths. Strokes
// split as floor(n/2) and the remainder so the total is kept.
func (e *Editor) Split(index int) error {
	positions, err := e.selection([]int{index})
	if err != nil {
		return err
	}
	p := positions[0]
	orig := e.doc.Lengths[p]

	first, second := orig, orig
	first.TotalElapsedTime = orig.TotalElapsedTime / 2
	second.TotalElapsedTime = orig.TotalElapsedTime - first.TotalElapsedTime
	first.TotalTimerTime = orig.TotalTimerTime / 2
	second.TotalTimerTime = orig.TotalTimerTime - first.TotalTimerTime
	first.TotalStrokes = orig.TotalStrokes / 2
	second.TotalStrokes = orig.TotalStrokes - first.TotalStrokes

	lengths := make([]Length, 0, len(e.doc.Lengths)+1)
	lengths = append(lengths, e.doc.Lengths[:p]...)
	lengths = append(lengths, first, second)
	lengths = append(lengths, e.doc.Lengths[p+1:]...)
	e.doc.Lengths = lengths
	return e.RefreshAggregates()
}

// Restroke sets the swim stroke of the selected lengths.
func (e *Editor) Restroke(indices []int, stroke string) error {
	if _, err := fitcodec.ResolveEnum("swim_stroke", stroke); err != nil {
		return err
	}
	positions, err := e.selection(indices)
	if err != nil {
		return err
	}
	name := normalizeStroke(stroke)
	for _, p := range positions {
		e.doc.Lengths[p].SwimStroke = name
	}
	return e.RefreshAggregates()
}

// DeleteLengths removes the selected active lengths.
func (e *Editor) DeleteLengths(indices []int) error {
	positions, err := e.selection(indices)
	if err != nil {
		return err
	}
	drop := make(map[int]bool, len(positions))
	for _, p := range positions {
		drop[p] = true
	}
	lengths := make([]Length, 0, len(e.doc.Lengths)-len(positions))
	for i, l := range e.doc.Lengths {
		if !drop[i] {
			lengths = append(lengths, l)
		}
	}
	e.doc.Lengths = lengths
	return e.RefreshAggregates()
}

// Undo restores the load-time snapshot. It is a full replace, not a step back.
func (e *Editor) Undo() error {
	if e.original == nil {
		return ErrNoActiveSession
	}
	e.doc = e.original.Clone()
	RefreshAggregates(e.doc)
	return nil
}

// RefreshAggregates recomputes the derived session totals from the active
// lengths: elapsed time, strokes, length counts and distance (count times
// pool length).
func (e *Editor) RefreshAggregates() error {
	if e.doc == nil {
		return ErrNoActiveSession
	}
	RefreshAggregates(e.doc)
	return nil
}

// RefreshAggregates recomputes the derived totals of every session in doc.
func RefreshAggregates(doc *Document) {
	if doc == nil {
		return
	}
	var (
		count   int
		elapsed float64
		strokes int
	)
	for _, l := range doc.Lengths {
		if !l.Active() {
			continue
		}
		count++
		elapsed += l.TotalElapsedTime
		strokes += l.TotalStrokes
	}
	for i := range doc.Sessions {
		s := &doc.Sessions[i]
		s.TotalElapsedTime = elapsed
		s.TotalStrokes = strokes
		s.NumLengths = count
		s.NumActiveLengths = count
		s.TotalDistance = float64(count) * s.PoolLength
	}
}

func normalizeStroke(stroke string) string {
	code, _ := fitcodec.ResolveEnum("swim_stroke", stroke)
	return fitcodec.EnumName("swim_stroke", code)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
