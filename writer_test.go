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
	"path/filepath"
	"testing"
	"time"
)

func TestWriter(t *testing.T) {
	out := &bytes.Buffer{}

	opt := &WriterOptions{
		ID:             [][]byte{},
		OwnerPassword:  "test",
		UserPermission: PermCopy,
	}
	w, err := NewWriter(out, V1_7, opt)
	if err != nil {
		t.Fatal(err)
	}
	encryptDict, err := w.enc.AsDict(w.meta.Version)
	if err != nil {
		t.Fatal(err)
	}
	encInfo1 := format(encryptDict)

	author := "Jochen Voß"
	w.SetInfo(&Info{
		Title:        "PDF Test Document",
		Author:       author,
		Subject:      "Testing",
		Keywords:     "PDF, testing, Go",
		CreationDate: Date(time.Now()),
	})

	refs := []Reference{w.Alloc()}
	err = w.WriteCompressed(refs,
		Dict{
			"Type":     Name("Font"),
			"Subtype":  Name("Type1"),
			"BaseFont": Name("Helvetica"),
			"Encoding": Name("MacRomanEncoding"),
		})
	if err != nil {
		t.Fatal(err)
	}
	font := refs[0]

	contentNode := w.Alloc()
	stream, err := w.OpenStream(contentNode, Dict{})
	if err != nil {
		t.Fatal(err)
	}
	_, err = stream.Write([]byte(`BT
/F1 24 Tf
30 30 Td
(Hello World) Tj
ET
`))
	if err != nil {
		t.Fatal(err)
	}
	err = stream.Close()
	if err != nil {
		t.Fatal(err)
	}

	resources := Dict{
		"Font": Dict{"F1": font},
	}

	pagesRef := w.Alloc()
	pages := Dict{
		"Type":  Name("Pages"),
		"Kids":  Array{},
		"Count": Integer(0),
	}

	page1 := w.Alloc()
	err = w.Put(page1, Dict{
		"Type":      Name("Page"),
		"MediaBox":  Array{Integer(0), Integer(0), Integer(200), Integer(100)},
		"Resources": resources,
		"Contents":  contentNode,
		"Parent":    pagesRef,
	})
	if err != nil {
		t.Fatal(err)
	}

	pages["Kids"] = append(pages["Kids"].(Array), page1)
	pages["Count"] = pages["Count"].(Integer) + 1
	err = w.Put(pagesRef, pages)
	if err != nil {
		t.Fatal(err)
	}

	w.meta.Catalog.Pages = pagesRef

	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}

	outR := bytes.NewReader(out.Bytes())
	r, err := NewReader(outR, nil)
	if err != nil {
		t.Fatal(err)
	}
	encryptDict, err = r.enc.AsDict(w.meta.Version)
	if err != nil {
		t.Fatal(err)
	}
	encInfo2 := format(encryptDict)

	if encInfo1 != encInfo2 {
		fmt.Println()
		fmt.Println(encInfo1)
		fmt.Println()
		fmt.Println(encInfo2)
		t.Error("encryption dictionaries differ")
	}

	_, err = r.enc.sec.GetKey(false)
	if err != nil {
		t.Fatal(err)
	}

	if x := r.meta.Info.Author; x != TextString(author) {
		t.Error("wrong author " + x)
	}
}

func TestPutRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test.pdf")

	const testVal = 12345

	w, err := Create(tmpFile, V1_7, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.meta.Catalog.Pages = w.Alloc() // pretend we have pages

	testRef := w.Alloc()
	err = w.Put(testRef, Dict{
		"Test":   Boolean(true),
		"Length": Integer(testVal),
	})
	if err != nil {
		t.Fatal(err)
	}

	err = w.Close()
	if err != nil {
		t.Fatal(err)
	}

	r, err := Open(tmpFile, nil)
	if err != nil {
		t.Fatal(err)
	}
	obj, err := GetDict(r, testRef)
	if err != nil {
		t.Fatal(err)
	}

	lengthOut, err := GetInt(r, obj["Length"])
	if err != nil {
		t.Fatal(err)
	}

	if lengthOut != testVal {
		t.Errorf("wrong /Length: %d vs %d", lengthOut, testVal)
	}
}

func TestWriterAddPage(t *testing.T) {
	out := &bytes.Buffer{}

	mediaBox := &Rectangle{LLx: 0, LLy: 0, URx: 200, URy: 300}
	opt := &WriterOptions{
		DefaultMediaBox: mediaBox,
	}
	w, err := NewWriter(out, V1_7, opt)
	if err != nil {
		t.Fatal(err)
	}

	var refs []Reference
	for i := 0; i < 3; i++ {
		ref, err := w.AddPage(0, Dict{}, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		refs = append(refs, ref)
	}

	if n := w.NumPages(); n != 3 {
		t.Fatalf("expected 3 pages, got %d", n)
	}
	for i, ref := range refs {
		got, err := w.GetPage(i)
		if err != nil {
			t.Fatal(err)
		}
		if got != ref {
			t.Errorf("page %d: got %v, want %v", i, got, ref)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := NewReader(bytes.NewReader(out.Bytes()), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := r.NumPages(); n != 3 {
		t.Fatalf("expected 3 pages on read-back, got %d", n)
	}
	for i := 0; i < 3; i++ {
		pageRef, err := r.GetPage(i)
		if err != nil {
			t.Fatal(err)
		}
		dict, err := GetDict(r, pageRef)
		if err != nil {
			t.Fatal(err)
		}
		box, err := GetRectangle(r, dict["MediaBox"])
		if err != nil {
			t.Fatal(err)
		}
		if box == nil || box.URx != mediaBox.URx || box.URy != mediaBox.URy {
			t.Errorf("page %d: wrong media box %v", i, box)
		}
	}
}

// compile time test
var _ Putter = &Writer{}
