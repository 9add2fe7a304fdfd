// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2021  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdf

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"
)

var errStartXRefNotFound = errors.New("no startxref keyword found")

// xRefEntry describes where to find one indirect object.  Entries come
// either from a classic "xref" table or from a cross-reference stream;
// both forms are normalised to this shape while reading.
type xRefEntry struct {
	// Pos is the byte offset of the object in the file, for objects
	// stored directly.  Zero if the object lives inside an object
	// stream (InStream is set instead).
	Pos int64

	// InStream is the reference of the object stream containing this
	// object, or the zero Reference if the object is stored directly.
	InStream Reference

	// Index is the object's position within InStream's body. Only
	// meaningful when InStream is non-zero.
	Index int

	Generation uint16

	free bool
}

// IsFree reports whether the entry marks the object number as
// unused/deleted.
func (e *xRefEntry) IsFree() bool {
	return e.free
}

const xrefSearchChunk = 1024

// lastOccurence returns the byte offset of the last occurrence of pat in
// the underlying file, searching backwards from the end.
func (r *Reader) lastOccurence(pat string) (int64, error) {
	if pat == "" {
		return 0, errors.New("empty search pattern")
	}
	needle := []byte(pat)
	overlap := int64(len(needle) - 1)

	end := r.size
	for end > 0 {
		start := end - xrefSearchChunk
		if start < 0 {
			start = 0
		}
		readEnd := end
		if overlap > 0 && readEnd+overlap < r.size {
			readEnd += overlap
		}

		buf := make([]byte, readEnd-start)
		_, err := r.r.ReadAt(buf, start)
		if err != nil && err != io.EOF {
			return 0, err
		}
		if idx := bytes.LastIndex(buf, needle); idx >= 0 {
			return start + int64(idx), nil
		}
		end = start
	}
	return 0, errStartXRefNotFound
}

// findXRef locates the "startxref" keyword near the end of the file and
// returns the byte offset of the cross-reference table/stream it points
// to.
func (r *Reader) findXRef() (int64, error) {
	pos, err := r.lastOccurence("startxref")
	if err != nil {
		return 0, err
	}

	after := pos + int64(len("startxref"))
	tail := r.size - after
	if tail > 64 {
		tail = 64
	}
	if tail < 0 {
		return 0, &MalformedFileError{Err: errStartXRefNotFound, Pos: pos}
	}
	buf := make([]byte, tail)
	if _, err := r.r.ReadAt(buf, after); err != nil && err != io.EOF {
		return 0, err
	}

	s := strings.TrimLeft(string(buf), "\x00\t\n\f\r ")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, &MalformedFileError{Err: errors.New("startxref not followed by an integer"), Pos: pos}
	}
	val, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, &MalformedFileError{Err: err, Pos: pos}
	}
	return val, nil
}

// readXRefSection reads one cross-reference section (table or stream) at
// the given file offset, merges its entries into xref (without
// overwriting entries already present, since later sections in the
// /Prev chain are older), and returns the section's trailer dictionary.
func (r *Reader) readXRefSection(pos int64, xref map[uint32]*xRefEntry) (Dict, error) {
	sr := io.NewSectionReader(r.r, pos, r.size-pos)
	lookahead := make([]byte, 32)
	n, _ := sr.ReadAt(lookahead, 0)
	lookahead = lookahead[:n]

	if bytes.HasPrefix(bytes.TrimLeft(lookahead, "\x00\t\n\f\r "), []byte("xref")) {
		return r.readClassicXRef(sr, xref)
	}
	return r.readXRefStream(sr, xref)
}

// readClassicXRef parses a classic "xref ... trailer <<...>>" section.
func (r *Reader) readClassicXRef(sr io.Reader, xref map[uint32]*xRefEntry) (Dict, error) {
	sc := newScanner(sr, nil, nil)
	if err := sc.SkipWhiteSpace(); err != nil {
		return nil, err
	}
	if ok, err := sc.literal("xref"); err != nil {
		return nil, err
	} else if !ok {
		return nil, sc.malformed("expected xref keyword")
	}

	for {
		if err := sc.SkipWhiteSpace(); err != nil {
			return nil, err
		}
		if ok, err := sc.literal("trailer"); err != nil {
			return nil, err
		} else if ok {
			break
		}

		start, err := sc.ReadInteger()
		if err != nil {
			return nil, err
		}
		if err := sc.SkipWhiteSpace(); err != nil {
			return nil, err
		}
		count, err := sc.ReadInteger()
		if err != nil {
			return nil, err
		}

		for i := Integer(0); i < count; i++ {
			if err := sc.SkipWhiteSpace(); err != nil {
				return nil, err
			}
			offs, err := sc.ReadInteger()
			if err != nil {
				return nil, err
			}
			if err := sc.SkipWhiteSpace(); err != nil {
				return nil, err
			}
			gen, err := sc.ReadInteger()
			if err != nil {
				return nil, err
			}
			if err := sc.SkipWhiteSpace(); err != nil {
				return nil, err
			}
			kind, err := sc.ReadObject()
			if err != nil {
				return nil, err
			}
			name, _ := kind.(Name)

			num := uint32(start) + uint32(i)
			if _, seen := xref[num]; seen {
				continue
			}
			xref[num] = &xRefEntry{
				Pos:        int64(offs),
				Generation: uint16(gen),
				free:       name == "f",
			}
		}
	}

	trailerObj, err := sc.ReadObject()
	if err != nil {
		return nil, err
	}
	trailer, ok := trailerObj.(Dict)
	if !ok {
		return nil, sc.malformed("trailer is not a dictionary")
	}
	return trailer, nil
}

// readXRefStream parses a PDF 1.5+ cross-reference stream.
func (r *Reader) readXRefStream(sr io.Reader, xref map[uint32]*xRefEntry) (Dict, error) {
	sc := newScanner(sr, nil, nil)
	if err := sc.SkipWhiteSpace(); err != nil {
		return nil, err
	}
	if _, err := sc.readNumberOrReference(); err != nil { // object number
		return nil, err
	}
	if err := sc.SkipWhiteSpace(); err != nil {
		return nil, err
	}
	if _, err := sc.ReadInteger(); err != nil { // generation
		return nil, err
	}
	if err := sc.SkipWhiteSpace(); err != nil {
		return nil, err
	}
	if ok, err := sc.literal("obj"); err != nil {
		return nil, err
	} else if !ok {
		return nil, sc.malformed("expected obj keyword")
	}
	if err := sc.SkipWhiteSpace(); err != nil {
		return nil, err
	}

	obj, err := sc.ReadObject()
	if err != nil {
		return nil, err
	}
	stm, ok := obj.(*Stream)
	if !ok {
		return nil, sc.malformed("cross-reference stream is not a stream")
	}

	wArr, ok := stm.Dict["W"].(Array)
	if !ok || len(wArr) != 3 {
		return nil, sc.malformed("invalid /W in cross-reference stream")
	}
	widths := make([]int, 3)
	for i, o := range wArr {
		n, ok := o.(Integer)
		if !ok {
			return nil, sc.malformed("invalid /W entry")
		}
		widths[i] = int(n)
	}

	var index []int64
	if idxArr, ok := stm.Dict["Index"].(Array); ok {
		for _, o := range idxArr {
			n, ok := o.(Integer)
			if !ok {
				return nil, sc.malformed("invalid /Index entry")
			}
			index = append(index, int64(n))
		}
	} else {
		size, ok := stm.Dict["Size"].(Integer)
		if !ok {
			return nil, sc.malformed("cross-reference stream has no /Size")
		}
		index = []int64{0, int64(size)}
	}

	data, err := DecodeStream(r, stm, 0)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	rowLen := widths[0] + widths[1] + widths[2]
	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start := index[i]
		count := index[i+1]
		for j := int64(0); j < count; j++ {
			if pos+rowLen > len(raw) {
				return nil, sc.malformed("truncated cross-reference stream")
			}
			row := raw[pos : pos+rowLen]
			pos += rowLen

			field := func(w int, off int) int64 {
				if w == 0 {
					return -1
				}
				var v int64
				for k := 0; k < w; k++ {
					v = v<<8 | int64(row[off+k])
				}
				return v
			}
			typ := field(widths[0], 0)
			if typ < 0 {
				typ = 1
			}
			f2 := field(widths[1], widths[0])
			f3 := field(widths[2], widths[0]+widths[1])

			num := uint32(start + j)
			if _, seen := xref[num]; seen {
				continue
			}
			switch typ {
			case 0:
				xref[num] = &xRefEntry{free: true}
			case 1:
				xref[num] = &xRefEntry{Pos: f2, Generation: uint16(f3)}
			case 2:
				xref[num] = &xRefEntry{InStream: NewReference(uint32(f2), 0), Index: int(f3)}
			}
		}
	}

	return stm.Dict, nil
}

// readXRefChain walks the /Prev chain starting at startPos, merging all
// sections into a single xref table, and returns the trailer dictionary
// of the first (most recent) section, since that is the one whose
// /Root and /Info entries apply.
func (r *Reader) readXRefChain(startPos int64) (Dict, map[uint32]*xRefEntry, error) {
	xref := make(map[uint32]*xRefEntry)
	var firstTrailer Dict
	seen := make(map[int64]bool)

	pos := startPos
	for pos != 0 {
		if seen[pos] {
			break
		}
		seen[pos] = true

		trailer, err := r.readXRefSection(pos, xref)
		if err != nil {
			return nil, nil, err
		}
		if firstTrailer == nil {
			firstTrailer = trailer
		}

		prev, ok := trailer["Prev"].(Integer)
		if !ok {
			break
		}
		pos = int64(prev)

		if xrefStm, ok := trailer["XRefStm"].(Integer); ok {
			if _, err := r.readXRefSection(int64(xrefStm), xref); err != nil {
				return nil, nil, err
			}
		}
	}

	return firstTrailer, xref, nil
}
