package abif

import (
	"bytes"
	"encoding/binary"
)

// Builder assembles an ABIF file. It writes what Parse reads and is used to
// produce fixtures and to re-export traces.
type Builder struct {
	entries []Entry
}

// AddShorts appends a short array tag.
func (b *Builder) AddShorts(name string, number int, values []int16) {
	data := make([]byte, 2*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(data[2*i:], uint16(v))
	}
	b.entries = append(b.entries, Entry{Tag: Tag{name, number}, ElementType: TypeShort, ElementSize: 2, NumElements: len(values), Data: data})
}

// AddPString appends a Pascal string tag.
func (b *Builder) AddPString(name string, number int, s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	data := append([]byte{byte(len(s))}, s...)
	b.entries = append(b.entries, Entry{Tag: Tag{name, number}, ElementType: TypePString, ElementSize: 1, NumElements: len(data), Data: data})
}

// Bytes returns the encoded file: header, data blocks, then the directory.
func (b *Builder) Bytes() []byte {
	var buf bytes.Buffer
	buf.WriteString(magic)
	_ = binary.Write(&buf, binary.BigEndian, uint16(101))
	buf.Write(make([]byte, entrySize)) // root entry, patched below

	dir := make([]rawEntry, len(b.entries))
	for i, e := range b.entries {
		raw := rawEntry{
			Number:      int32(e.Tag.Number),
			ElementType: int16(e.ElementType),
			ElementSize: int16(e.ElementSize),
			NumElements: int32(e.NumElements),
			DataSize:    int32(len(e.Data)),
		}
		copy(raw.Name[:], e.Tag.Name)
		if len(e.Data) <= 4 {
			var inline [4]byte
			copy(inline[:], e.Data)
			raw.DataOffset = int32(binary.BigEndian.Uint32(inline[:]))
		} else {
			raw.DataOffset = int32(buf.Len())
			buf.Write(e.Data)
		}
		dir[i] = raw
	}

	dirOffset := buf.Len()
	for _, raw := range dir {
		_ = binary.Write(&buf, binary.BigEndian, raw)
	}

	root := rawEntry{
		Number:      1,
		ElementType: 1023,
		ElementSize: entrySize,
		NumElements: int32(len(dir)),
		DataSize:    int32(len(dir) * entrySize),
		DataOffset:  int32(dirOffset),
	}
	copy(root.Name[:], "tdir")
	out := buf.Bytes()
	var hdr bytes.Buffer
	_ = binary.Write(&hdr, binary.BigEndian, root)
	copy(out[6:headerLen], hdr.Bytes())
	return out
}
