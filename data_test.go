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

package pdf

import (
	"bytes"
	"testing"
)

// makeSinglePageDoc builds a minimal one-page document with the given
// label baked into the content stream, so that merged output can
// be checked for order.
func makeSinglePageDoc(t *testing.T, label string) *Reader {
	t.Helper()

	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}

	contentRef := w.Alloc()
	stream, err := w.OpenStream(contentRef, Dict{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := stream.Write([]byte("% " + label + "\n")); err != nil {
		t.Fatal(err)
	}
	if err := stream.Close(); err != nil {
		t.Fatal(err)
	}

	mediaBox := &Rectangle{LLx: 0, LLy: 0, URx: 100, URy: 100}
	if _, err := w.AddPage(contentRef, Dict{}, mediaBox, nil); err != nil {
		t.Fatal(err)
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

// TestDataMergePages copies pages in order from several single-page
// source documents into a fresh Data, and checks that the merged
// document has all pages, in the original order.
func TestDataMergePages(t *testing.T) {
	const numSources = 5

	sources := make([]*Reader, numSources)
	srcPageRefs := make([]Reference, numSources)
	for i := range sources {
		r := makeSinglePageDoc(t, string(rune('A'+i)))
		sources[i] = r
		ref, err := r.GetPage(0)
		if err != nil {
			t.Fatal(err)
		}
		srcPageRefs[i] = ref
	}

	d := NewData(V1_7)
	for i, r := range sources {
		if _, err := d.CopyPage(r, srcPageRefs[i]); err != nil {
			t.Fatal(err)
		}
	}

	if n := d.NumPages(); n != numSources {
		t.Fatalf("expected %d pages, got %d", numSources, n)
	}

	out := &bytes.Buffer{}
	if err := d.Write(out); err != nil {
		t.Fatal(err)
	}

	merged, err := NewReader(bytes.NewReader(out.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := merged.NumPages(); n != numSources {
		t.Fatalf("expected %d pages after read-back, got %d", numSources, n)
	}

	for i := 0; i < numSources; i++ {
		pageRef, err := merged.GetPage(i)
		if err != nil {
			t.Fatal(err)
		}
		dict, err := GetDict(merged, pageRef)
		if err != nil {
			t.Fatal(err)
		}
		contentRef, ok := dict["Contents"].(Reference)
		if !ok {
			t.Fatalf("page %d: /Contents is not a reference", i)
		}
		stream, err := GetStream(merged, contentRef)
		if err != nil {
			t.Fatal(err)
		}
		data, err := DecodeStream(merged, stream, 0)
		if err != nil {
			t.Fatal(err)
		}
		content := make([]byte, 64)
		n, _ := data.Read(content)
		want := "% " + string(rune('A'+i))
		if !bytes.Contains(content[:n], []byte(want)) {
			t.Errorf("page %d: content %q does not contain %q", i, content[:n], want)
		}
	}
}

// TestDataCopyPageSharesResources checks that copying two pages that
// share a resource (here, a font held via an object stream) from the
// same source reuses a single copy in the destination.
func TestDataCopyPageSharesResources(t *testing.T) {
	buf := &bytes.Buffer{}
	w, err := NewWriter(buf, V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}

	fontRef := w.Alloc()
	err = w.WriteCompressed([]Reference{fontRef}, Dict{
		"Type":     Name("Font"),
		"Subtype":  Name("Type1"),
		"BaseFont": Name("Helvetica"),
	})
	if err != nil {
		t.Fatal(err)
	}
	resources := Dict{"Font": Dict{"F1": fontRef}}

	for i := 0; i < 2; i++ {
		if _, err := w.AddPage(0, resources, &Rectangle{LLx: 0, LLy: 0, URx: 10, URy: 10}, nil); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	src, err := NewReader(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}

	d := NewData(V1_7)
	for i := 0; i < 2; i++ {
		ref, err := src.GetPage(i)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := d.CopyPage(src, ref); err != nil {
			t.Fatal(err)
		}
	}

	page0, _ := d.GetPage(0)
	page1, _ := d.GetPage(1)
	dict0, err := GetDict(d, page0)
	if err != nil {
		t.Fatal(err)
	}
	dict1, err := GetDict(d, page1)
	if err != nil {
		t.Fatal(err)
	}
	res0, _ := GetDict(d, dict0["Resources"])
	res1, _ := GetDict(d, dict1["Resources"])
	font0, ok0 := res0["Font"].(Dict)["F1"].(Reference)
	font1, ok1 := res1["Font"].(Dict)["F1"].(Reference)
	if !ok0 || !ok1 {
		t.Fatal("font resource missing after copy")
	}
	if font0 != font1 {
		t.Errorf("shared font was copied twice: %v != %v", font0, font1)
	}
}
