package fitcodec

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/tormoder/fit/dyncrc16"
)

// File is a decoded FIT stream.
type File struct {
	Header   Header
	Messages []*Message

	DefinitionCount int
	// Skipped counts data messages whose global number has no registered spec.
	Skipped map[MesgNum]int

	HeaderCRCValid bool
	StoredCRC      uint16
	ComputedCRC    uint16
	// CRCErr wraps ErrCRCMismatch when the trailing CRC is missing or wrong.
	// Decoding still succeeds.
	CRCErr error
}

// ByNum returns the messages of one global type in file order.
func (f *File) ByNum(num MesgNum) []*Message {
	var out []*Message
	for _, m := range f.Messages {
		if m.Num == num {
			out = append(out, m)
		}
	}
	return out
}

type decodeState struct {
	data           []byte
	definitions    [localMesgNumMask + 1]*Definition
	lastTimestamp  uint32
	lastTimeOffset int32
	file           *File
}

// Decode parses a complete FIT byte stream.
func Decode(data []byte) (*File, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	start := int(h.Size)
	end := start + int(h.DataSize)
	if len(data) < end {
		return nil, fmt.Errorf("%w: header declares %d data bytes, have %d", ErrTruncatedRecord, h.DataSize, len(data)-start)
	}

	f := &File{
		Header:         h,
		Skipped:        make(map[MesgNum]int),
		HeaderCRCValid: h.HeaderCRCValid(data),
		ComputedCRC:    dyncrc16.Checksum(data[:end]),
	}
	if len(data) < end+2 {
		f.CRCErr = fmt.Errorf("%w: trailing crc missing", ErrCRCMismatch)
	} else {
		f.StoredCRC = binary.LittleEndian.Uint16(data[end : end+2])
		if f.StoredCRC != f.ComputedCRC {
			f.CRCErr = fmt.Errorf("%w: stored 0x%04X, computed 0x%04X", ErrCRCMismatch, f.StoredCRC, f.ComputedCRC)
		}
	}

	ds := &decodeState{data: data[start:end], file: f}
	if err := ds.decodeRecords(); err != nil {
		return nil, err
	}
	return f, nil
}

func (ds *decodeState) decodeRecords() error {
	pos := 0
	for pos < len(ds.data) {
		offset := pos
		header := ds.data[pos]
		pos++

		switch {
		case header&compressedHeaderMask == compressedHeaderMask:
			local := (header & compressedLocalMesgNumMask) >> 5
			n, err := ds.decodeDataRecord(ds.data[pos:], local, header)
			if err != nil {
				return fmt.Errorf("record at offset %d: %w", offset, err)
			}
			pos += n
		case header&mesgDefinitionMask == mesgDefinitionMask:
			def, n, err := parseDefinition(ds.data[pos:], header)
			if err != nil {
				return fmt.Errorf("record at offset %d: %w", offset, err)
			}
			ds.definitions[def.Local] = def
			ds.file.DefinitionCount++
			pos += n
		default:
			n, err := ds.decodeDataRecord(ds.data[pos:], header&localMesgNumMask, header)
			if err != nil {
				return fmt.Errorf("record at offset %d: %w", offset, err)
			}
			pos += n
		}
	}
	return nil
}

func (ds *decodeState) decodeDataRecord(b []byte, local, header byte) (int, error) {
	def := ds.definitions[local]
	if def == nil {
		return 0, fmt.Errorf("%w: %d", ErrUndefinedLocalType, local)
	}
	if _, err := SpecFor(def.Num); err != nil {
		if len(b) < def.DataSize() {
			return 0, fmt.Errorf("%w: message %d", ErrTruncatedRecord, def.Num)
		}
		ds.file.Skipped[def.Num]++
		return def.DataSize(), nil
	}

	m, n, err := DecodeData(b, def)
	if err != nil {
		return 0, err
	}

	if header&compressedHeaderMask == compressedHeaderMask {
		if ds.lastTimestamp != 0 {
			timeOffset := int32(header & compressedTimeMask)
			ds.lastTimestamp += uint32((timeOffset - ds.lastTimeOffset) & compressedTimeMask)
			ds.lastTimeOffset = timeOffset
			if _, ok := m.Spec.FieldByNum(FieldTimestamp); ok {
				if _, has := m.Time("timestamp"); !has {
					_ = m.Set("timestamp", FITEpoch.Add(time.Duration(ds.lastTimestamp)*time.Second))
				}
			}
		}
	} else if ts, ok := m.Time("timestamp"); ok {
		raw := uint32(ts.Sub(FITEpoch) / time.Second)
		ds.lastTimestamp = raw
		ds.lastTimeOffset = int32(raw & compressedTimeMask)
	}

	ds.file.Messages = append(ds.file.Messages, m)
	return n, nil
}
