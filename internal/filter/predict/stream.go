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

package predict

import "io"

// NewReader returns a reader which undoes the predictor described by p on
// data read from r.
func NewReader(r io.ReadCloser, p *Params) (io.ReadCloser, error) {
	pp := *p
	if err := pp.Validate(); err != nil {
		return nil, err
	}
	if pp.Predictor == 1 {
		return r, nil
	}
	rowSize := pp.bytesPerRow()
	return &predictReader{
		r:       r,
		p:       pp,
		rowSize: rowSize,
		prev:    make([]byte, rowSize),
	}, nil
}

// NewWriter returns a writer which applies the predictor described by p
// to data written to it before passing it on to w.  Close must be called
// to flush any buffered partial row.
func NewWriter(w io.WriteCloser, p *Params) (io.WriteCloser, error) {
	pp := *p
	if err := pp.Validate(); err != nil {
		return nil, err
	}
	if pp.Predictor == 1 {
		return w, nil
	}
	rowSize := pp.bytesPerRow()
	return &predictWriter{
		w:       w,
		p:       pp,
		rowSize: rowSize,
		prev:    make([]byte, rowSize),
	}, nil
}

func pngFilterForPredictor(predictor int, cur, prev []byte, bpp int) int {
	switch predictor {
	case 10:
		return pngNone
	case 11:
		return pngSub
	case 12:
		return pngUp
	case 13:
		return pngAvg
	case 14:
		return pngPaeth
	case 15:
		best, bestCost := pngNone, -1
		for _, ft := range []int{pngNone, pngSub, pngUp, pngAvg, pngPaeth} {
			cost := pngRowCost(pngEncodeRow(ft, cur, prev, bpp))
			if bestCost == -1 || cost < bestCost {
				best, bestCost = ft, cost
			}
		}
		return best
	default:
		return pngNone
	}
}

type predictWriter struct {
	w       io.WriteCloser
	p       Params
	rowSize int
	pending []byte
	prev    []byte
	closed  bool
}

func (pw *predictWriter) Write(data []byte) (int, error) {
	pw.pending = append(pw.pending, data...)
	for len(pw.pending) >= pw.rowSize {
		row := append([]byte(nil), pw.pending[:pw.rowSize]...)
		pw.pending = pw.pending[pw.rowSize:]
		if err := pw.flushRow(row); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (pw *predictWriter) flushRow(row []byte) error {
	if pw.p.Predictor == 2 {
		enc := tiffEncodeRow(row, pw.p)
		_, err := pw.w.Write(enc)
		return err
	}
	bpp := pw.p.bytesPerPixel()
	ft := pngFilterForPredictor(pw.p.Predictor, row, pw.prev, bpp)
	enc := pngEncodeRow(ft, row, pw.prev, bpp)
	if _, err := pw.w.Write([]byte{byte(ft)}); err != nil {
		return err
	}
	if _, err := pw.w.Write(enc); err != nil {
		return err
	}
	pw.prev = row
	return nil
}

func (pw *predictWriter) Close() error {
	if pw.closed {
		return nil
	}
	pw.closed = true
	if len(pw.pending) > 0 {
		// An incomplete final row cannot be predicted meaningfully;
		// pass it through unmodified.
		if _, err := pw.w.Write(pw.pending); err != nil {
			return err
		}
		pw.pending = nil
	}
	return pw.w.Close()
}

type predictReader struct {
	r       io.ReadCloser
	p       Params
	rowSize int
	prev    []byte
	pending []byte
	eof     bool
}

func (pr *predictReader) Read(out []byte) (int, error) {
	n := 0
	for n < len(out) {
		if len(pr.pending) > 0 {
			m := copy(out[n:], pr.pending)
			n += m
			pr.pending = pr.pending[m:]
			continue
		}
		if pr.eof {
			if n > 0 {
				return n, nil
			}
			return 0, io.EOF
		}
		row, err := pr.readRow()
		if err != nil {
			if err == io.EOF {
				pr.eof = true
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
			return n, err
		}
		pr.pending = row
	}
	return n, nil
}

func (pr *predictReader) readRow() ([]byte, error) {
	if pr.p.Predictor == 2 {
		buf := make([]byte, pr.rowSize)
		if _, err := io.ReadFull(pr.r, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, io.EOF
			}
			return nil, err
		}
		return tiffDecodeRow(buf, pr.p), nil
	}

	tagBuf := make([]byte, 1)
	if _, err := io.ReadFull(pr.r, tagBuf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	buf := make([]byte, pr.rowSize)
	if _, err := io.ReadFull(pr.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}
	row := pngDecodeRow(int(tagBuf[0]), buf, pr.prev, pr.p.bytesPerPixel())
	pr.prev = row
	return row, nil
}

func (pr *predictReader) Close() error {
	return pr.r.Close()
}
