package swimdata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/PeterK-end/swim-data-analyser/fitcodec"
)

// DecodeReport carries what Decode noticed but did not fail on.
type DecodeReport struct {
	Messages       int            `json:"messages"`
	Counts         map[string]int `json:"message_counts,omitempty"`
	Definitions    int            `json:"definitions"`
	HeaderCRCValid bool           `json:"header_crc_valid"`
	CRCValid       bool           `json:"crc_valid"`
	CRCError       string         `json:"crc_error,omitempty"`
	Skipped        map[string]int `json:"skipped_messages,omitempty"`
}

// Warnings lists the report's findings as user-facing sentences.
func (r *DecodeReport) Warnings() []string {
	var out []string
	if !r.HeaderCRCValid {
		out = append(out, "header crc does not match header bytes")
	}
	if r.CRCError != "" {
		out = append(out, r.CRCError)
	}
	return out
}

// Decode parses a FIT upload into a document.
func Decode(data []byte) (*Document, *DecodeReport, error) {
	f, err := fitcodec.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode fit: %w", err)
	}
	report := &DecodeReport{
		Messages:       len(f.Messages),
		Definitions:    f.DefinitionCount,
		HeaderCRCValid: f.HeaderCRCValid,
		CRCValid:       f.CRCErr == nil,
		Counts:         make(map[string]int),
	}
	for _, m := range f.Messages {
		report.Counts[m.Spec.Name]++
	}
	if f.CRCErr != nil {
		report.CRCError = f.CRCErr.Error()
	}
	if len(f.Skipped) > 0 {
		report.Skipped = make(map[string]int, len(f.Skipped))
		for num, n := range f.Skipped {
			report.Skipped[strconv.Itoa(int(num))] = n
		}
	}
	return FromFile(f), report, nil
}

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// TempDir holds the scratch file while the stream is assembled. Empty
	// means the OS default.
	TempDir string
	// Now stamps messages that carry no timestamp. Defaults to time.Now.
	Now func() time.Time
	// InMemory assembles the stream in a buffer instead of a scratch file.
	// Required where there is no filesystem, such as js/wasm.
	InMemory bool
}

// Encode writes doc as a FIT file. Unless opts.InMemory is set, the stream
// is assembled in a scratch file that is removed on every return path, so a
// failed encode leaves nothing behind.
func Encode(doc *Document, opts EncodeOptions) (out []byte, err error) {
	if doc == nil {
		return nil, ErrNoActiveSession
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	msgs, err := doc.Messages(now())
	if err != nil {
		return nil, fmt.Errorf("encode fit: %w", err)
	}

	if opts.InMemory {
		data, err := fitcodec.Marshal(msgs)
		if err != nil {
			return nil, fmt.Errorf("encode fit: %w", err)
		}
		return data, nil
	}

	tmp, err := os.CreateTemp(opts.TempDir, "swimfit-*.fit")
	if err != nil {
		return nil, fmt.Errorf("encode fit: scratch file: %w", err)
	}
	defer func() {
		closeErr := tmp.Close()
		if removeErr := os.Remove(tmp.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) && err == nil {
			err = fmt.Errorf("encode fit: remove scratch file: %w", removeErr)
		}
		if closeErr != nil && err == nil && !errors.Is(closeErr, os.ErrClosed) {
			err = fmt.Errorf("encode fit: close scratch file: %w", closeErr)
		}
		if err != nil {
			out = nil
		}
	}()

	enc, err := fitcodec.NewEncoder(tmp)
	if err != nil {
		return nil, fmt.Errorf("encode fit: %w", err)
	}
	for _, m := range msgs {
		if err := enc.WriteMessage(m); err != nil {
			return nil, fmt.Errorf("encode fit: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode fit: %w", err)
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("encode fit: rewind scratch file: %w", err)
	}
	data, err := io.ReadAll(tmp)
	if err != nil {
		return nil, fmt.Errorf("encode fit: read scratch file: %w", err)
	}
	return data, nil
}
