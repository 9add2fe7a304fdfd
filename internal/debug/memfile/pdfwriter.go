// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
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

// Package memfile provides an in-memory [PDFWriter] that can be read
// back from both before and after it is closed, for use in tests that
// want to write a document and immediately check its contents without
// touching the filesystem.
package memfile

import (
	"bytes"
	"io"

	"seehuhn.de/go/pdfcore"
	"seehuhn.de/go/pdfcore/internal/debug/tempfile"
)

// PDFWriter wraps a [pdf.Writer] writing into an in-memory [tempfile.MemFile].
// Every object passed to Put is also kept in memory, so that Get can
// hand it straight back without needing to go through the file's
// cross-reference table first -- this works both before and after Close.
type PDFWriter struct {
	*pdf.Writer
	objs map[pdf.Reference]pdf.Native
}

// NewPDFWriter creates a PDFWriter which writes a new document of the
// given version into an in-memory buffer, returning both the writer
// and the buffer it writes into.
func NewPDFWriter(v pdf.Version, opt *pdf.WriterOptions) (*PDFWriter, *tempfile.MemFile) {
	buf := tempfile.New()
	w, err := pdf.NewWriter(buf, v, opt)
	if err != nil {
		panic(err)
	}
	return &PDFWriter{
		Writer: w,
		objs:   make(map[pdf.Reference]pdf.Native),
	}, buf
}

// Put writes obj as the indirect object ref, same as [pdf.Writer.Put],
// and additionally caches it so that Get can read it back.  Stream
// contents are buffered in memory at Put time, since the underlying
// reader is drained by the time the object is written to the file.
func (pw *PDFWriter) Put(ref pdf.Reference, obj pdf.Object) error {
	native := obj.AsPDF(0)
	if stm, ok := native.(*pdf.Stream); ok {
		var content []byte
		if stm.R != nil {
			var err error
			content, err = io.ReadAll(stm.R)
			if err != nil {
				return err
			}
		}
		pw.objs[ref] = &pdf.Stream{Dict: stm.Dict, R: bytes.NewReader(content)}
		return pw.Writer.Put(ref, &pdf.Stream{Dict: stm.Dict, R: bytes.NewReader(content)})
	}
	pw.objs[ref] = native
	return pw.Writer.Put(ref, obj)
}

// Get implements the [pdf.Getter] interface by returning the cached
// object passed to the matching Put call, if any.
func (pw *PDFWriter) Get(ref pdf.Reference, canObjStm bool) (pdf.Native, error) {
	if native, ok := pw.objs[ref]; ok {
		return native, nil
	}
	return pw.Writer.Get(ref, canObjStm)
}
