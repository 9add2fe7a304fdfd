// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2023  Jochen Voss <voss@seehuhn.de>
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
	"bufio"
	"compress/zlib"
	"errors"
	"fmt"
	"io"

	"seehuhn.de/go/pdfcore/ascii85"
	"seehuhn.de/go/pdfcore/internal/filter/predict"
	"seehuhn.de/go/pdfcore/lzw"
)

// Filter represents one entry of a stream's /Filter array together with
// its /DecodeParms.  Filters are chained: the first filter in a stream's
// /Filter array is removed first on decoding and applied last on
// encoding.
type Filter interface {
	// Info returns the /Filter name and /DecodeParms dictionary which
	// describe this filter for the given PDF version.  A filter which is
	// transparent to the file format (such as encryption) returns an
	// empty name.
	Info(v Version) (Name, Dict, error)

	// Encode wraps w so that data written to the result is encoded by
	// this filter before reaching w.
	Encode(v Version, w io.WriteCloser) (io.WriteCloser, error)

	// Decode wraps r so that data read from the result has been decoded
	// by this filter.
	Decode(v Version, r io.Reader) (io.ReadCloser, error)
}

// FilterInfo describes one element of a stream's /Filter and
// /DecodeParms entries, as read from a PDF file.
type FilterInfo struct {
	Name  Name
	Parms Dict
}

// extractFilterInfo reads the /Filter and /DecodeParms entries of dict,
// resolving indirect references as it goes, and returns one FilterInfo
// per chained filter.  [GetFilters] turns the result into runnable
// [Filter] values via [makeFilter].
func extractFilterInfo(r Getter, dict Dict) ([]*FilterInfo, error) {
	parms := dict["DecodeParms"]
	filterObj, err := Resolve(r, dict["Filter"])
	if err != nil {
		return nil, err
	}

	var filters []*FilterInfo
	switch f := filterObj.(type) {
	case nil:
		// pass
	case Array:
		pa, err := asArrayOrNil(r, parms)
		if err != nil {
			return nil, err
		}
		for i, fi := range f {
			name, err := asName(r, fi)
			if err != nil {
				return nil, err
			}
			var pDict Dict
			if len(pa) > i {
				x, err := asDict(r, pa[i])
				if err != nil {
					return nil, err
				}
				pDict = x
			}
			filters = append(filters, &FilterInfo{Name: name, Parms: pDict})
		}
	case Name:
		pDict, err := asDict(r, parms)
		if err != nil {
			return nil, err
		}
		filters = append(filters, &FilterInfo{Name: f, Parms: pDict})
	default:
		return nil, wrapErr(KindSyntax, errors.New("invalid /Filter field"))
	}
	return filters, nil
}

// asArrayOrNil resolves obj and casts it to an Array, treating a missing
// entry (obj == nil) as an empty array rather than an error.
func asArrayOrNil(r Getter, obj Object) (Array, error) {
	resolved, err := Resolve(r, obj)
	if err != nil {
		return nil, err
	}
	if resolved == nil {
		return nil, nil
	}
	a, ok := resolved.(Array)
	if !ok {
		return nil, wrapErr(KindSyntax, fmt.Errorf("expected Array but got %T", resolved))
	}
	return a, nil
}

// makeFilter constructs the [Filter] value for one /Filter name together
// with its /DecodeParms dictionary.  Unknown filter names produce a
// filter which fails on first use, rather than an error here.
func makeFilter(name Name, parms Dict) Filter {
	switch name {
	case "FlateDecode", "Fl":
		return newFlateFilter(parms)
	case "LZWDecode", "LZW":
		return newLZWFilter(parms)
	case "ASCII85Decode", "A85":
		return filterASCII85{}
	case "ASCIIHexDecode", "AHx":
		return filterASCIIHex{}
	case "RunLengthDecode", "RL":
		return filterRunLength{}
	case "CCITTFaxDecode", "CCF":
		return filterPassthrough{name: name, parms: parms}
	case "DCTDecode", "DCT":
		return filterPassthrough{name: name, parms: parms}
	case "JPXDecode":
		return filterPassthrough{name: name, parms: parms}
	case "JBIG2Decode":
		return filterPassthrough{name: name, parms: parms}
	default:
		return filterUnknown{name: name}
	}
}

// -- FlateDecode --------------------------------------------------------

// FilterCompress implements the /FlateDecode filter, optionally combined
// with a TIFF or PNG predictor (/Predictor 2 or 10-15).
type FilterCompress struct {
	Predictor        int
	Colors           int
	BitsPerComponent int
	Columns          int
}

func newFlateFilter(parms Dict) *FilterCompress {
	ff := &FilterCompress{
		Predictor:        1,
		Colors:           1,
		BitsPerComponent: 8,
		Columns:          1,
	}
	if parms == nil {
		return ff
	}
	if val, ok := parms["Predictor"].(Integer); ok && val >= 1 && val <= 15 {
		ff.Predictor = int(val)
	}
	if val, ok := parms["Colors"].(Integer); ok && val >= 1 {
		ff.Colors = int(val)
	}
	if val, ok := parms["BitsPerComponent"].(Integer); ok &&
		(val == 1 || val == 2 || val == 4 || val == 8 || val == 16) {
		ff.BitsPerComponent = int(val)
	}
	if val, ok := parms["Columns"].(Integer); ok && val >= 0 && ff.Predictor > 1 {
		ff.Columns = int(val)
	}
	return ff
}

func (ff *FilterCompress) Info(Version) (Name, Dict, error) {
	parms := Dict{}
	if ff.Predictor != 1 {
		parms["Predictor"] = Integer(ff.Predictor)
		parms["Colors"] = Integer(ff.Colors)
		parms["BitsPerComponent"] = Integer(ff.BitsPerComponent)
		parms["Columns"] = Integer(ff.Columns)
	}
	if len(parms) == 0 {
		parms = nil
	}
	return "FlateDecode", parms, nil
}

func (ff *FilterCompress) predictParams() *predict.Params {
	return &predict.Params{
		Predictor:        ff.Predictor,
		Colors:           ff.Colors,
		BitsPerComponent: ff.BitsPerComponent,
		Columns:          ff.Columns,
	}
}

func (ff *FilterCompress) Encode(_ Version, w io.WriteCloser) (io.WriteCloser, error) {
	zw := zlib.NewWriter(w)
	zwc := &withClose{zw, func() error {
		if err := zw.Close(); err != nil {
			return err
		}
		return w.Close()
	}}
	if ff.Predictor == 1 {
		return zwc, nil
	}
	return predict.NewWriter(zwc, ff.predictParams())
}

func (ff *FilterCompress) Decode(_ Version, r io.Reader) (io.ReadCloser, error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	if ff.Predictor == 1 {
		return zr, nil
	}
	return predict.NewReader(zr, ff.predictParams())
}

type withoutClose struct {
	io.Writer
}

func (w withoutClose) Close() error {
	return nil
}

type withClose struct {
	io.Writer
	close func() error
}

func (w *withClose) Close() error {
	return w.close()
}

// -- LZWDecode ------------------------------------------------------------

// FilterLZW implements the /LZWDecode filter.
type FilterLZW struct {
	EarlyChange bool
}

func newLZWFilter(parms Dict) *FilterLZW {
	lf := &FilterLZW{EarlyChange: true}
	if parms != nil {
		if val, ok := parms["EarlyChange"].(Integer); ok {
			lf.EarlyChange = val != 0
		}
	}
	return lf
}

func (lf *FilterLZW) Info(Version) (Name, Dict, error) {
	var parms Dict
	if !lf.EarlyChange {
		parms = Dict{"EarlyChange": Integer(0)}
	}
	return "LZWDecode", parms, nil
}

func (lf *FilterLZW) Encode(_ Version, w io.WriteCloser) (io.WriteCloser, error) {
	lw, err := lzw.NewWriter(w, lf.EarlyChange)
	if err != nil {
		return nil, err
	}
	return &withClose{lw, func() error {
		if err := lw.Close(); err != nil {
			return err
		}
		return w.Close()
	}}, nil
}

func (lf *FilterLZW) Decode(_ Version, r io.Reader) (io.ReadCloser, error) {
	return lzw.NewReader(r, lf.EarlyChange), nil
}

// -- ASCII85Decode --------------------------------------------------------

// filterASCII85 implements the /ASCII85Decode filter.
type filterASCII85 struct{}

func (filterASCII85) Info(Version) (Name, Dict, error) {
	return "ASCII85Decode", nil, nil
}

func (filterASCII85) Encode(_ Version, w io.WriteCloser) (io.WriteCloser, error) {
	return ascii85.Encode(w, 72)
}

func (filterASCII85) Decode(_ Version, r io.Reader) (io.ReadCloser, error) {
	dr, err := ascii85.Decode(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(dr), nil
}

// -- ASCIIHexDecode -------------------------------------------------------

// filterASCIIHex implements the /ASCIIHexDecode filter.
type filterASCIIHex struct{}

func (filterASCIIHex) Info(Version) (Name, Dict, error) {
	return "ASCIIHexDecode", nil, nil
}

func (filterASCIIHex) Encode(_ Version, w io.WriteCloser) (io.WriteCloser, error) {
	return &asciiHexWriter{w: w}, nil
}

func (filterASCIIHex) Decode(_ Version, r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(&asciiHexReader{r: bufio.NewReader(r)}), nil
}

const hexDigits = "0123456789ABCDEF"

type asciiHexWriter struct {
	w     io.WriteCloser
	col   int
	buf   []byte
	closed bool
}

func (hw *asciiHexWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		hw.buf = append(hw.buf, hexDigits[b>>4], hexDigits[b&0xf])
		hw.col += 2
		if hw.col >= 72 {
			hw.buf = append(hw.buf, '\n')
			hw.col = 0
		}
	}
	if len(hw.buf) > 0 {
		if _, err := hw.w.Write(hw.buf); err != nil {
			return 0, err
		}
		hw.buf = hw.buf[:0]
	}
	return len(p), nil
}

func (hw *asciiHexWriter) Close() error {
	if hw.closed {
		return nil
	}
	hw.closed = true
	if _, err := hw.w.Write([]byte{'>'}); err != nil {
		return err
	}
	return hw.w.Close()
}

type asciiHexReader struct {
	r    *bufio.Reader
	high byte
	have bool
	done bool
}

func (hr *asciiHexReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if hr.done {
			return n, io.EOF
		}
		c, err := hr.r.ReadByte()
		if err != nil {
			hr.done = true
			return n, io.EOF
		}
		var v byte
		switch {
		case c >= '0' && c <= '9':
			v = c - '0'
		case c >= 'A' && c <= 'F':
			v = c - 'A' + 10
		case c >= 'a' && c <= 'f':
			v = c - 'a' + 10
		case c == '>':
			hr.done = true
			if hr.have {
				p[n] = hr.high << 4
				n++
				hr.have = false
			}
			continue
		default:
			// whitespace and any other bytes are ignored
			continue
		}
		if !hr.have {
			hr.high = v
			hr.have = true
			continue
		}
		p[n] = hr.high<<4 | v
		n++
		hr.have = false
	}
	return n, nil
}

// -- RunLengthDecode --------------------------------------------------------

// filterRunLength implements the /RunLengthDecode filter.
type filterRunLength struct{}

func (filterRunLength) Info(Version) (Name, Dict, error) {
	return "RunLengthDecode", nil, nil
}

func (filterRunLength) Encode(_ Version, w io.WriteCloser) (io.WriteCloser, error) {
	return &runLengthWriter{w: w}, nil
}

func (filterRunLength) Decode(_ Version, r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(&runLengthReader{r: bufio.NewReader(r)}), nil
}

type runLengthWriter struct {
	w      io.WriteCloser
	pend   []byte
	closed bool
}

const runLengthMaxLit = 128

func (rw *runLengthWriter) Write(p []byte) (int, error) {
	rw.pend = append(rw.pend, p...)
	for len(rw.pend) > runLengthMaxLit {
		if err := rw.flushChunk(runLengthMaxLit); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (rw *runLengthWriter) flushChunk(n int) error {
	chunk := rw.pend[:n]
	rw.pend = rw.pend[n:]
	if _, err := rw.w.Write([]byte{byte(n - 1)}); err != nil {
		return err
	}
	_, err := rw.w.Write(chunk)
	return err
}

func (rw *runLengthWriter) Close() error {
	if rw.closed {
		return nil
	}
	rw.closed = true
	for len(rw.pend) > 0 {
		n := len(rw.pend)
		if n > runLengthMaxLit {
			n = runLengthMaxLit
		}
		if err := rw.flushChunk(n); err != nil {
			return err
		}
	}
	if _, err := rw.w.Write([]byte{128}); err != nil {
		return err
	}
	return rw.w.Close()
}

type runLengthReader struct {
	r    *bufio.Reader
	pend []byte
	done bool
}

func (rr *runLengthReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(rr.pend) > 0 {
			m := copy(p[n:], rr.pend)
			n += m
			rr.pend = rr.pend[m:]
			continue
		}
		if rr.done {
			return n, io.EOF
		}
		length, err := rr.r.ReadByte()
		if err != nil {
			rr.done = true
			return n, io.EOF
		}
		switch {
		case length == 128:
			rr.done = true
		case length < 128:
			buf := make([]byte, int(length)+1)
			if _, err := io.ReadFull(rr.r, buf); err != nil {
				rr.done = true
				return n, io.ErrUnexpectedEOF
			}
			rr.pend = buf
		default:
			b, err := rr.r.ReadByte()
			if err != nil {
				rr.done = true
				return n, io.ErrUnexpectedEOF
			}
			count := 257 - int(length)
			buf := make([]byte, count)
			for i := range buf {
				buf[i] = b
			}
			rr.pend = buf
		}
	}
	return n, nil
}

// -- passthrough filters ----------------------------------------------------

// filterPassthrough represents a filter whose encoded form this library
// does not attempt to produce or interpret (CCITTFax, DCT, JBIG2, JPX).  Decoded
// data is returned unchanged; callers which need the decoded image data
// must interpret the raw stream bytes themselves.
type filterPassthrough struct {
	name  Name
	parms Dict
}

func (f filterPassthrough) Info(Version) (Name, Dict, error) {
	return f.name, f.parms, nil
}

func (f filterPassthrough) Encode(_ Version, w io.WriteCloser) (io.WriteCloser, error) {
	return w, nil
}

func (f filterPassthrough) Decode(_ Version, r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type filterUnknown struct {
	name Name
}

func (f filterUnknown) Info(Version) (Name, Dict, error) {
	return f.name, nil, nil
}

func (f filterUnknown) Encode(_ Version, w io.WriteCloser) (io.WriteCloser, error) {
	return nil, &Error{Kind: KindSyntax, Err: errors.New("unsupported filter type " + string(f.name))}
}

func (f filterUnknown) Decode(_ Version, r io.Reader) (io.ReadCloser, error) {
	return nil, &Error{Kind: KindSyntax, Err: errors.New("unsupported filter type " + string(f.name))}
}
