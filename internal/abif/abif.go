// Package abif reads Applied Biosystems ABIF trace files (.fsa, .ab1).
//
// An ABIF file starts with the magic "ABIF", a version and a directory entry
// pointing at the directory proper: a table of 28 byte entries, each naming a
// tag (four characters plus a number) and where its data lives. Values of four
// bytes or less are stored inline in the offset field. All integers are big
// endian.
package abif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

// Element types used by trace files.
const (
	TypeByte    = 1
	TypeChar    = 2
	TypeWord    = 3
	TypeShort   = 4
	TypeLong    = 5
	TypeFloat   = 7
	TypeDouble  = 8
	TypePString = 18
	TypeCString = 19
)

const (
	magic     = "ABIF"
	entrySize = 28
	headerLen = 6 + entrySize
)

var (
	// ErrNotABIF is returned when the magic bytes are missing.
	ErrNotABIF = errors.New("abif: not an ABIF file")
	// ErrNoTag is returned when a requested tag is absent.
	ErrNoTag = errors.New("abif: tag not found")
)

// Tag identifies a directory entry, for example DATA 1 or DyeN 2.
type Tag struct {
	Name   string
	Number int
}

func (t Tag) String() string {
	return fmt.Sprintf("%s%d", t.Name, t.Number)
}

// Entry is one directory record with its data resolved.
type Entry struct {
	Tag         Tag
	ElementType int
	ElementSize int
	NumElements int
	Data        []byte
}

// File is a parsed ABIF directory.
type File struct {
	Version int
	entries map[Tag]Entry
	order   []Tag
}

// rawEntry mirrors the on-disk layout of a directory entry.
type rawEntry struct {
	Name        [4]byte
	Number      int32
	ElementType int16
	ElementSize int16
	NumElements int32
	DataSize    int32
	DataOffset  int32
	DataHandle  int32
}

// ReadFile parses the ABIF file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes an in-memory ABIF file.
func Parse(data []byte) (*File, error) {
	if len(data) < headerLen || string(data[:4]) != magic {
		return nil, ErrNotABIF
	}
	version := int(binary.BigEndian.Uint16(data[4:6]))

	var root rawEntry
	if err := binary.Read(bytes.NewReader(data[6:headerLen]), binary.BigEndian, &root); err != nil {
		return nil, fmt.Errorf("abif: header: %w", err)
	}
	start, count := int(root.DataOffset), int(root.NumElements)
	if start < 0 || count < 0 || start+count*entrySize > len(data) {
		return nil, fmt.Errorf("abif: directory of %d entries at %d exceeds file size %d", count, start, len(data))
	}

	f := &File{Version: version, entries: make(map[Tag]Entry, count)}
	r := bytes.NewReader(data[start : start+count*entrySize])
	for i := range count {
		var raw rawEntry
		if err := binary.Read(r, binary.BigEndian, &raw); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("abif: entry %d: %w", i, err)
		}
		payload, err := entryData(data, raw)
		if err != nil {
			return nil, err
		}
		tag := Tag{Name: string(raw.Name[:]), Number: int(raw.Number)}
		f.entries[tag] = Entry{
			Tag:         tag,
			ElementType: int(raw.ElementType),
			ElementSize: int(raw.ElementSize),
			NumElements: int(raw.NumElements),
			Data:        payload,
		}
		f.order = append(f.order, tag)
	}
	return f, nil
}

func entryData(data []byte, raw rawEntry) ([]byte, error) {
	size := int(raw.DataSize)
	if size <= 4 {
		var inline [4]byte
		binary.BigEndian.PutUint32(inline[:], uint32(raw.DataOffset))
		return inline[:max(size, 0)], nil
	}
	off := int(raw.DataOffset)
	if off < 0 || off+size > len(data) {
		return nil, fmt.Errorf("abif: %s%d data at %d+%d exceeds file size", raw.Name[:], raw.Number, off, size)
	}
	return data[off : off+size], nil
}

// Tags returns the directory tags in file order.
func (f *File) Tags() []Tag {
	return append([]Tag(nil), f.order...)
}

// Entry returns the directory entry for a tag.
func (f *File) Entry(name string, number int) (Entry, error) {
	e, ok := f.entries[Tag{name, number}]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s%d", ErrNoTag, name, number)
	}
	return e, nil
}

// Has reports whether a tag is present.
func (f *File) Has(name string, number int) bool {
	_, ok := f.entries[Tag{name, number}]
	return ok
}

// Shorts returns a short array as floats. Trace channels are stored this way.
func (f *File) Shorts(name string, number int) ([]float64, error) {
	e, err := f.Entry(name, number)
	if err != nil {
		return nil, err
	}
	if e.ElementType != TypeShort || e.NumElements < 0 || len(e.Data) < 2*e.NumElements {
		return nil, fmt.Errorf("abif: %s is type %d, not short", e.Tag, e.ElementType)
	}
	out := make([]float64, e.NumElements)
	for i := range out {
		out[i] = float64(int16(binary.BigEndian.Uint16(e.Data[2*i:])))
	}
	return out, nil
}

// Int returns the first element of an integer tag.
func (f *File) Int(name string, number int) (int, error) {
	e, err := f.Entry(name, number)
	if err != nil {
		return 0, err
	}
	switch {
	case e.ElementType == TypeShort && len(e.Data) >= 2:
		return int(int16(binary.BigEndian.Uint16(e.Data))), nil
	case e.ElementType == TypeWord && len(e.Data) >= 2:
		return int(binary.BigEndian.Uint16(e.Data)), nil
	case e.ElementType == TypeLong && len(e.Data) >= 4:
		return int(int32(binary.BigEndian.Uint32(e.Data))), nil
	case e.ElementType == TypeByte && len(e.Data) >= 1:
		return int(e.Data[0]), nil
	}
	return 0, fmt.Errorf("abif: %s is type %d, not an integer", e.Tag, e.ElementType)
}

// String returns a text tag, decoding Pascal, C and char strings.
func (f *File) String(name string, number int) (string, error) {
	e, err := f.Entry(name, number)
	if err != nil {
		return "", err
	}
	switch e.ElementType {
	case TypePString:
		if len(e.Data) == 0 {
			return "", nil
		}
		n := min(int(e.Data[0]), len(e.Data)-1)
		return string(e.Data[1 : 1+n]), nil
	case TypeCString:
		return string(bytes.TrimRight(e.Data, "\x00")), nil
	case TypeChar:
		return string(e.Data), nil
	}
	return "", fmt.Errorf("abif: %s is type %d, not a string", e.Tag, e.ElementType)
}
