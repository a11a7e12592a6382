package swimdata

import (
	"encoding/json"
	"errors"
	"fmt"
)

// DefaultMaxDocumentBytes is the JSON size a stored document may reach.
const DefaultMaxDocumentBytes = 2400 << 10

// ErrDocumentTooLarge reports a document that stays over budget after thinning.
var ErrDocumentTooLarge = errors.New("document too large")

var recordStrides = []int{2, 3, 4, 5, 6}

// Reduce fits doc into maxBytes of JSON. Documents already within budget
// are returned untouched with stride 1. Otherwise laps without active
// lengths are dropped and, if that is not enough, records are thinned to
// every Nth sample. The stride used is returned; doc itself is not
// modified.
func Reduce(doc *Document, maxBytes int) (*Document, int, error) {
	if doc == nil {
		return nil, 0, ErrNoActiveSession
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	size, err := jsonSize(doc)
	if err != nil {
		return nil, 0, err
	}
	if size <= maxBytes {
		return doc, 1, nil
	}

	reduced := doc.Clone()
	laps := reduced.Laps[:0]
	for _, lap := range reduced.Laps {
		if lap.NumActiveLengths > 0 {
			laps = append(laps, lap)
		}
	}
	reduced.Laps = laps
	if size, err = jsonSize(reduced); err != nil {
		return nil, 0, err
	} else if size <= maxBytes {
		return reduced, 1, nil
	}

	records := reduced.Records
	for _, stride := range recordStrides {
		thinned := make([]Record, 0, len(records)/stride+1)
		for i := 0; i < len(records); i += stride {
			thinned = append(thinned, records[i])
		}
		reduced.Records = thinned
		if size, err = jsonSize(reduced); err != nil {
			return nil, 0, err
		}
		if size <= maxBytes {
			return reduced, stride, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: %d bytes after thinning, budget %d", ErrDocumentTooLarge, size, maxBytes)
}

func jsonSize(doc *Document) (int, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("measure document: %w", err)
	}
	return len(b), nil
}
