// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2022  Jochen Voss <voss@seehuhn.de>
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

package lzw

import (
	"bufio"
	"errors"
	"io"
)

// Reader decompresses data written by a [Writer].
type Reader struct {
	r           *bufio.Reader
	earlyChange bool

	bitBuf  uint32
	bitBits int

	table [tableSize][]byte
	next  int
	width int

	pending []byte
	prev    []byte

	done bool
	err  error
}

// NewReader creates a new LZW reader.  earlyChange must match the value
// passed to [NewWriter] when the data was compressed.
func NewReader(r io.Reader, earlyChange bool) *Reader {
	lr := &Reader{
		r:           bufio.NewReader(r),
		earlyChange: earlyChange,
	}
	lr.reset()
	return lr
}

func (r *Reader) reset() {
	for i := 0; i < 256; i++ {
		r.table[i] = []byte{byte(i)}
	}
	r.next = firstCode
	r.width = minWidth
	r.prev = nil
}

func (r *Reader) widthFor(next int) int {
	limit := next
	if r.earlyChange {
		limit++
	}
	switch {
	case limit > 2048:
		return 12
	case limit > 1024:
		return 11
	case limit > 512:
		return 10
	default:
		return 9
	}
}

func (r *Reader) readCode() (int, error) {
	for r.bitBits < r.width {
		b, err := r.r.ReadByte()
		if err != nil {
			return 0, err
		}
		r.bitBuf = r.bitBuf<<8 | uint32(b)
		r.bitBits += 8
	}
	r.bitBits -= r.width
	code := int(r.bitBuf>>uint(r.bitBits)) & ((1 << uint(r.width)) - 1)
	return code, nil
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.pending) > 0 {
			m := copy(p[n:], r.pending)
			n += m
			r.pending = r.pending[m:]
			continue
		}
		if r.done {
			if r.err != nil {
				return n, r.err
			}
			return n, io.EOF
		}

		code, err := r.readCode()
		if err != nil {
			r.done = true
			if err == io.EOF {
				r.err = errors.New("lzw: truncated stream")
			} else {
				r.err = err
			}
			if n > 0 {
				return n, nil
			}
			return 0, r.err
		}

		switch code {
		case clearCode:
			r.reset()
			continue
		case eodCode:
			r.done = true
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}

		var entry []byte
		switch {
		case code < 256:
			entry = r.table[code]
		case code < r.next && r.table[code] != nil:
			entry = r.table[code]
		case code == r.next && r.prev != nil:
			entry = append(append([]byte{}, r.prev...), r.prev[0])
		default:
			r.done = true
			r.err = errors.New("lzw: invalid code")
			if n > 0 {
				return n, nil
			}
			return 0, r.err
		}

		if r.prev != nil && r.next < tableSize {
			newEntry := append(append([]byte{}, r.prev...), entry[0])
			r.table[r.next] = newEntry
			r.next++
			r.width = r.widthFor(r.next + 1)
		}

		r.pending = entry
		cp := make([]byte, len(entry))
		copy(cp, entry)
		r.prev = cp
	}
	return n, nil
}

// Close releases resources associated with the reader.
func (r *Reader) Close() error {
	return nil
}
