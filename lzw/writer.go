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

// Package lzw implements the variant of the LZW compression algorithm
// used by the PDF LZWDecode filter (PDF 32000-1:2008, section 7.4.4):
// MSB-first bit packing, a 256 clear code, a 257 end-of-data code, code
// widths growing from 9 to 12 bits, and an optional "early change" where
// the width grows one code early.
package lzw

import (
	"bufio"
	"errors"
	"io"
)

const (
	clearCode = 256
	eodCode   = 257
	firstCode = 258
	maxWidth  = 12
	minWidth  = 9
	tableSize = 1 << maxWidth
)

// Writer compresses data written to it and writes the LZW-encoded result
// to the underlying writer.  Close must be called to flush the final
// codes.
type Writer struct {
	w           *bufio.Writer
	earlyChange bool

	bitBuf  uint32
	bitBits int

	table    map[string]int
	next     int
	width    int
	prefix   []byte
	closed   bool
}

// NewWriter creates a new LZW writer.  earlyChange selects the optional
// "early change" code-width convention used by most PDF producers.
func NewWriter(w io.Writer, earlyChange bool) (*Writer, error) {
	lw := &Writer{
		w:           bufio.NewWriter(w),
		earlyChange: earlyChange,
	}
	lw.reset()
	if err := lw.emit(clearCode); err != nil {
		return nil, err
	}
	return lw, nil
}

func (w *Writer) reset() {
	w.table = make(map[string]int, tableSize)
	w.next = firstCode
	w.width = minWidth
	w.prefix = nil
}

func (w *Writer) emit(code int) error {
	w.bitBuf = w.bitBuf<<uint(w.width) | uint32(code)
	w.bitBits += w.width
	for w.bitBits >= 8 {
		w.bitBits -= 8
		if err := w.w.WriteByte(byte(w.bitBuf >> uint(w.bitBits))); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) widthFor(next int) int {
	limit := next
	if w.earlyChange {
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

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("lzw: write after close")
	}
	n := len(p)
	for _, c := range p {
		cand := append(append([]byte{}, w.prefix...), c)
		if _, ok := w.table[string(cand)]; ok || w.prefix == nil {
			if w.prefix == nil {
				w.prefix = []byte{c}
				continue
			}
			w.prefix = cand
			continue
		}

		code, ok := w.table[string(w.prefix)]
		if !ok {
			code = int(w.prefix[0])
		}
		if err := w.emit(code); err != nil {
			return 0, err
		}

		if w.next < tableSize {
			w.table[string(cand)] = w.next
			w.next++
			w.width = w.widthFor(w.next)
		} else {
			if err := w.emit(clearCode); err != nil {
				return 0, err
			}
			w.reset()
		}

		w.prefix = []byte{c}
	}
	return n, nil
}

// Close flushes any pending codes and writes the end-of-data code.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	if w.prefix != nil {
		code, ok := w.table[string(w.prefix)]
		if !ok {
			code = int(w.prefix[0])
		}
		if err := w.emit(code); err != nil {
			return err
		}
	}
	if err := w.emit(eodCode); err != nil {
		return err
	}
	if w.bitBits > 0 {
		if err := w.w.WriteByte(byte(w.bitBuf << uint(8-w.bitBits))); err != nil {
			return err
		}
		w.bitBits = 0
	}
	return w.w.Flush()
}
