package fitcodec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/tormoder/fit/dyncrc16"
)

// Encoder streams messages into a FIT file. It writes a placeholder header
// first and rewrites it on Close once the record size is known.
type Encoder struct {
	w     io.WriteSeeker
	start int64

	slots [localMesgNumMask + 1]*Definition
	used  int
	evict int

	size        uint32
	crc         dyncrc16.Hash16
	definitions int
	closed      bool
}

// NewEncoder writes a placeholder header at the current offset of w.
func NewEncoder(w io.WriteSeeker) (*Encoder, error) {
	start, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("encoder: locate start: %w", err)
	}
	header, err := NewHeader(0).MarshalBinary()
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(header); err != nil {
		return nil, fmt.Errorf("encoder: write header: %w", err)
	}
	return &Encoder{w: w, start: start, crc: dyncrc16.New()}, nil
}

// WriteMessage writes m, preceded by a definition record when no local slot
// already holds an identical layout.
func (e *Encoder) WriteMessage(m *Message) error {
	if e.closed {
		return errors.New("encoder: write after close")
	}
	def, err := BuildDefinition(m, 0)
	if err != nil {
		return err
	}

	local, found := e.slotFor(def)
	def = e.slots[local]
	if !found {
		raw, err := def.MarshalBinary()
		if err != nil {
			return err
		}
		if err := e.writeRecord(raw); err != nil {
			return err
		}
		e.definitions++
	}

	body, err := EncodeData(m, def)
	if err != nil {
		return err
	}
	record := make([]byte, 0, 1+len(body))
	record = append(record, local&localMesgNumMask)
	record = append(record, body...)
	return e.writeRecord(record)
}

// slotFor returns the local type holding def's layout, binding a free or
// evicted slot when none does. found is false when a definition must be
// written.
func (e *Encoder) slotFor(def *Definition) (uint8, bool) {
	for i := 0; i < e.used; i++ {
		if e.slots[i].SameLayout(def) {
			return uint8(i), true
		}
	}
	var local uint8
	if e.used < len(e.slots) {
		local = uint8(e.used)
		e.used++
	} else {
		local = uint8(e.evict)
		e.evict = (e.evict + 1) % len(e.slots)
	}
	def.Local = local
	e.slots[local] = def
	return local, false
}

func (e *Encoder) writeRecord(b []byte) error {
	if uint64(e.size)+uint64(len(b)) > 0xFFFFFFFF {
		return &OverflowError{Field: "data_size", Value: float64(uint64(e.size) + uint64(len(b))), Width: 4}
	}
	if _, err := e.w.Write(b); err != nil {
		return fmt.Errorf("encoder: write record: %w", err)
	}
	e.size += uint32(len(b))
	e.crc.Write(b)
	return nil
}

// DataSize is the number of record bytes written so far.
func (e *Encoder) DataSize() uint32 { return e.size }

// DefinitionCount is the number of definition records written so far.
func (e *Encoder) DefinitionCount() int { return e.definitions }

// Close writes the trailing CRC and rewrites the header with the final data
// size. The writer is left positioned at the end of the file.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var trailer [2]byte
	binary.LittleEndian.PutUint16(trailer[:], e.crc.Sum16())
	if _, err := e.w.Write(trailer[:]); err != nil {
		return fmt.Errorf("encoder: write crc: %w", err)
	}
	end, err := e.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("encoder: locate end: %w", err)
	}

	header, err := NewHeader(e.size).MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := e.w.Seek(e.start, io.SeekStart); err != nil {
		return fmt.Errorf("encoder: seek header: %w", err)
	}
	if _, err := e.w.Write(header); err != nil {
		return fmt.Errorf("encoder: rewrite header: %w", err)
	}
	if _, err := e.w.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("encoder: seek end: %w", err)
	}
	return nil
}

// Marshal encodes msgs into an in-memory FIT file.
func Marshal(msgs []*Message) ([]byte, error) {
	buf := &seekBuffer{}
	enc, err := NewEncoder(buf)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		if err := enc.WriteMessage(m); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.data, nil
}

type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		b.data = append(b.data, make([]byte, need-len(b.data))...)
	}
	n := copy(b.data[b.pos:], p)
	b.pos += n
	return n, nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("seek: negative position %d", abs)
	}
	b.pos = int(abs)
	return abs, nil
}
