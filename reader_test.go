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
	"strconv"
	"strings"
	"testing"
)

func TestReferenceChain(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := addPage(w); err != nil {
		t.Fatal(err)
	}

	a := w.Alloc()
	b := w.Alloc()
	if err := w.Put(a, b); err != nil {
		t.Fatal(err)
	}
	if err := w.Put(b, Integer(42)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	x, err := Resolve(r, a)
	if err != nil {
		t.Fatal(err)
	}
	if x != Integer(42) {
		t.Errorf("got %v, want 42", x)
	}
}

func TestReferenceLoop(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := addPage(w); err != nil {
		t.Fatal(err)
	}

	a := w.Alloc()
	b := w.Alloc()
	if err := w.Put(a, b); err != nil {
		t.Fatal(err)
	}
	if err := w.Put(b, a); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Resolve(r, a); err == nil {
		t.Error("reference loop not detected")
	}
}

func TestIndirectStreamLength(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := addPage(w); err != nil {
		t.Fatal(err)
	}

	sRef := w.Alloc()
	s, err := w.OpenStream(sRef, Dict{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("123456")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	sObj, err := GetStream(r, sRef)
	if err != nil {
		t.Fatal(err)
	}
	length, err := GetInteger(r, sObj.Dict["Length"])
	if err != nil {
		t.Fatal(err)
	}
	if length != 6 {
		t.Errorf("wrong stream length: got %v, want 6", length)
	}
	data, err := DecodeStream(r, sObj, 0)
	if err != nil {
		t.Fatal(err)
	}
	sData, err := io.ReadAll(data)
	if err != nil {
		t.Fatal(err)
	}
	if string(sData) != "123456" {
		t.Errorf("wrong stream data: got %q, want %q", sData, "123456")
	}
}

func TestStreamLengthInStream(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := addPage(w); err != nil {
		t.Fatal(err)
	}

	sRef := w.Alloc()
	s, err := w.OpenStream(sRef, Dict{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("123456")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	sObj, err := GetStream(r, sRef)
	if err != nil {
		t.Fatal(err)
	}
	length, err := GetInteger(r, sObj.Dict["Length"])
	if err != nil {
		t.Fatal(err)
	}
	if length != 6 {
		t.Errorf("wrong stream length: got %v, want 6", length)
	}
	data, err := DecodeStream(r, sObj, 0)
	if err != nil {
		t.Fatal(err)
	}
	sData, err := io.ReadAll(data)
	if err != nil {
		t.Fatal(err)
	}
	if string(sData) != "123456" {
		t.Errorf("wrong stream data: got %q, want %q", sData, "123456")
	}
}

// TestStreamLengthCycle checks that a stream whose own /Length entry
// refers back to the stream itself is reported as a reference loop,
// not read as a truncated or zero-length stream.
func TestStreamLengthCycle(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}

	sRef := w.Alloc()
	s, err := w.OpenStream(sRef, Dict{"Length": sRef})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte("123456")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := addPage(w, Name("Contents"), sRef); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := GetStream(r, sRef); err == nil {
		t.Error("reference loop not detected")
	}
}

// TestStreamLengthCycle2 manually constructs two object streams whose
// /Length entries point into each other, to check that the cycle is
// caught even when it runs through compressed objects.
func TestStreamLengthCycle2(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}

	xRef := w.Alloc()
	if err := addPage(w, Name("Rotate"), xRef); err != nil {
		t.Fatal(err)
	}

	// Two object streams whose /Length entries point at each other:
	// decoding either one first requires decoding the other.
	L1 := w.Alloc()
	L2 := w.Alloc()
	sRef1 := w.Alloc()
	sRef2 := w.Alloc()

	s1, err := w.OpenStream(sRef1, Dict{
		"Length": L2,
		"Type":   Name("ObjStm"),
		"N":      Integer(2),
		"First":  Integer(8),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s1.Write([]byte(fmt.Sprintf("%d 0\n%d 2\n6\n90",
		L1.Number(), xRef.Number()))); err != nil {
		t.Fatal(err)
	}
	if err := s1.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := w.OpenStream(sRef2, Dict{
		"Length": L1,
		"Type":   Name("ObjStm"),
		"N":      Integer(1),
		"First":  Integer(4),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s2.Write([]byte(fmt.Sprintf("%d 0\n12", L2.Number()))); err != nil {
		t.Fatal(err)
	}
	if err := s2.Close(); err != nil {
		t.Fatal(err)
	}

	w.xref[L2.Number()] = &xRefEntry{InStream: sRef2, Index: 0}
	w.xref[L1.Number()] = &xRefEntry{InStream: sRef1, Index: 0}
	w.xref[xRef.Number()] = &xRefEntry{InStream: sRef1, Index: 1}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := GetStream(r, xRef); err == nil {
		t.Error("reference loop not detected")
	}
}

func TestReaderGoFuzz(t *testing.T) {
	// found by go-fuzz - check that the reader doesn't panic
	cases := []string{
		"%PDF-1.0\n0 0obj<startxref8",
		"%PDF-1.0\n0 0obj(startxref8",
		"%PDF-1.0\n0 0obj<</Length -40>>stream\nstartxref8\n",
		"%PDF-1.0\n0 0obj<</ 0 0%startxref8",
	}
	for _, test := range cases {
		buf := strings.NewReader(test)
		_, _ = NewReader(buf, nil)
	}
}

func TestObjectStream(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := addPage(w); err != nil {
		t.Fatal(err)
	}

	refs := make([]Reference, 9)
	objs := make([]Object, len(refs))
	for i := range refs {
		refs[i] = w.Alloc()
		objs[i] = Name("obj" + strconv.Itoa(i))
	}

	if err := w.Put(refs[1], objs[1]); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteCompressed([]Reference{refs[0], refs[3], refs[6]},
		objs[0], objs[3], objs[6]); err != nil {
		t.Fatal(err)
	}
	if err := w.Put(refs[4], objs[4]); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteCompressed([]Reference{refs[2], refs[5], refs[8]},
		objs[2], objs[5], objs[8]); err != nil {
		t.Fatal(err)
	}
	if err := w.Put(refs[7], objs[7]); err != nil {
		t.Fatal(err)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}

	for i, ref := range refs {
		obj, err := Resolve(r, ref)
		if err != nil {
			t.Fatal(err)
		}
		if obj != objs[i] {
			t.Errorf("%d: got %s, want %s", i, obj, objs[i])
		}
	}
}

// addPage writes a single-page document structure (Catalog -> Pages ->
// Page) into w, using the current object as the page's Contents if
// provided via args, and returns once the Catalog's /Pages entry is
// set. Extra key/value pairs in args are merged into the page
// dictionary, the way the reference writer's sample documents do.
func addPage(w *Writer, args ...Object) error {
	pagesRef := w.Alloc()
	pageRef := w.Alloc()

	pageDict := Dict{
		"Type":      Name("Page"),
		"Parent":    pagesRef,
		"Resources": Dict{},
		"MediaBox":  &Rectangle{URx: 100, URy: 100},
	}
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(Name)
		if !ok {
			return fmt.Errorf("addPage: key %d is not a Name", i)
		}
		pageDict[key] = args[i+1]
	}
	if err := w.Put(pageRef, pageDict); err != nil {
		return err
	}

	if err := w.Put(pagesRef, Dict{
		"Type":  Name("Pages"),
		"Kids":  Array{pageRef},
		"Count": Integer(1),
	}); err != nil {
		return err
	}

	w.meta.Catalog.Pages = pagesRef
	return nil
}
