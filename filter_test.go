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
	"fmt"
	"io"
	"testing"
)

func TestFilterChaining(t *testing.T) {
	F1 := filterASCII85{}
	F2 := filterASCIIHex{}
	F3 := &FilterLZW{EarlyChange: true}
	F4 := &FilterCompress{Predictor: 1}

	testData := "Hello, World!\n"

	testCases := [][]Filter{
		{F1, F2, F3},
		{F3, F2, F1},
		{F1, F3, F2},

		{F1, F2, F4},
		{F4, F2, F1},
		{F1, F4, F2},
	}
	for i, filters := range testCases {
		t.Run(fmt.Sprintf("case %d", i), func(t *testing.T) {
			buf := &bytes.Buffer{}
			w, err := NewWriter(buf, V2_0, nil)
			if err != nil {
				t.Fatal(err)
			}

			ref := w.Alloc()

			out, err := w.OpenStream(ref, nil, filters...)
			if err != nil {
				t.Fatal(err)
			}
			_, err = io.WriteString(out, testData)
			if err != nil {
				t.Fatal(err)
			}
			err = out.Close()
			if err != nil {
				t.Fatal(err)
			}

			err = w.Close()
			if err != nil {
				t.Fatal(err)
			}

			opt := &ReaderOptions{
				ErrorHandling: ErrorHandlingReport,
			}
			r, err := NewReader(bytes.NewReader(buf.Bytes()), opt)
			if err != nil {
				t.Fatal(err)
			}
			stmObj, err := GetStream(r, ref)
			if err != nil {
				t.Fatal(err)
			}
			in, err := DecodeStream(r, stmObj, 0)
			if err != nil {
				t.Fatal(err)
			}

			res, err := io.ReadAll(in)
			if err != nil {
				t.Fatal(err)
			}
			if string(res) != testData {
				t.Errorf("wrong result: %q vs %q", res, testData)
			}
		})
	}
}

func TestFlateRoundTrip(t *testing.T) {
	parmsCases := []*FilterCompress{
		{Predictor: 1},
		{Predictor: 12, Colors: 1, BitsPerComponent: 8, Columns: 5},
	}
	for _, ff := range parmsCases {
		for _, in := range []string{"", "12345", "1234567890"} {
			buf := &bytes.Buffer{}
			w, err := ff.Encode(V2_0, withDummyClose{buf})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := w.Write([]byte(in)); err != nil {
				t.Fatal(err)
			}
			if err := w.Close(); err != nil {
				t.Fatal(err)
			}

			r, err := ff.Decode(V2_0, buf)
			if err != nil {
				t.Fatal(err)
			}
			out, err := io.ReadAll(r)
			if err != nil {
				t.Fatal(err)
			}
			if in != string(out) {
				t.Errorf("wrong result: %q vs %q", in, string(out))
			}
		}
	}
}

type withDummyClose struct {
	io.Writer
}

func (withDummyClose) Close() error { return nil }
