package swimdata

import (
	_ "embed"
	"fmt"
)

//go:embed example_workout.json
var exampleWorkout []byte

// DefaultDocument returns a fresh copy of the bundled example workout, used
// when a client starts without an upload.
func DefaultDocument() (*Document, error) {
	doc, err := ParseDocument(exampleWorkout)
	if err != nil {
		return nil, fmt.Errorf("default document: %w", err)
	}
	return doc, nil
}

// DefaultDocumentJSON returns the bundled example workout as stored.
func DefaultDocumentJSON() []byte {
	return append([]byte(nil), exampleWorkout...)
}
