// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2024  Jochen Voss <voss@seehuhn.de>
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

// Package tempfile provides an in-memory stand-in for the temporary
// scratch file the writer uses while assembling a document, for use in
// tests that would otherwise need a real filesystem.
package tempfile

import (
	"errors"
	"io"
)

var (
	errInvalidOffset = errors.New("tempfile: invalid offset")
	errInvalidWhence = errors.New("tempfile: invalid whence")
)

// MemFile is an io.ReadWriteSeeker backed by an in-memory byte slice.
type MemFile struct {
	Data   []byte
	Offset int64
}

// New creates a new, empty MemFile.
func New() *MemFile {
	return &MemFile{}
}

// Write implements io.Writer.  Writes past the current end of Data
// extend it, zero-filling any gap.
func (f *MemFile) Write(p []byte) (int, error) {
	end := f.Offset + int64(len(p))
	if end > int64(len(f.Data)) {
		grown := make([]byte, end)
		copy(grown, f.Data)
		f.Data = grown
	}
	n := copy(f.Data[f.Offset:end], p)
	f.Offset = end
	return n, nil
}

// Read implements io.Reader.
func (f *MemFile) Read(p []byte) (int, error) {
	if f.Offset >= int64(len(f.Data)) {
		return 0, io.EOF
	}
	n := copy(p, f.Data[f.Offset:])
	f.Offset += int64(n)
	return n, nil
}

// Seek implements io.Seeker.
func (f *MemFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = f.Offset + offset
	case io.SeekEnd:
		abs = int64(len(f.Data)) + offset
	default:
		return 0, errInvalidWhence
	}
	if abs < 0 {
		return 0, errInvalidOffset
	}
	f.Offset = abs
	return abs, nil
}
