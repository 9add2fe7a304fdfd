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
	"bytes"
	"fmt"
	"io"
	"slices"
	"sort"

	"golang.org/x/exp/maps"
)

// Data is an in-memory representation of a PDF document.  It is the
// type the File Orchestrator's merge operations build up in memory
// before a single [Data.Write] call serializes the result, so that
// object numbers can be renumbered and object streams repacked without
// re-reading the source files.
type Data struct {
	meta      MetaInfo
	objects   map[Reference]Object
	lastRef   uint32
	autoclose []io.Closer

	// compressedGroups records, in call order, the reference groups
	// passed to WriteCompressed, so that Write can re-emit each group as
	// a single packed object stream instead of as separate indirect
	// objects.
	compressedGroups [][]Reference
	compressed       map[Reference]bool

	// pages is the flat page registry built by CopyPage. Write uses it
	// to assemble a fresh /Pages tree. Documents loaded whole via Read
	// already carry a complete Pages tree among d.objects and leave
	// this nil.
	pages []Reference

	// copiers caches one Copier per source Getter, so that pages copied
	// from the same source document in multiple CopyPage calls share
	// resources (fonts, images) instead of duplicating them.
	copiers map[Getter]*Copier

	strings stringPool
}

func NewData(v Version) *Data {
	res := &Data{
		meta: MetaInfo{
			Version: v,
			Catalog: &Catalog{},
		},
		objects: map[Reference]Object{},
		lastRef: 0,
	}
	return res
}

// Read reads a complete PDF document into memory.
func Read(r io.ReadSeeker, opt *ReaderOptions) (*Data, error) {
	pdf, err := NewReader(r, opt)
	if err != nil {
		return nil, err
	}

	res := &Data{
		meta:    pdf.meta,
		objects: map[Reference]Object{},
	}

	isObjectStream := make(map[Reference]bool)
	for _, entry := range pdf.xref {
		if entry.InStream != 0 {
			isObjectStream[entry.InStream] = true
		}
	}

	for number, entry := range pdf.xref {
		if entry.IsFree() {
			continue
		}
		ref := NewReference(number, entry.Generation)
		if isObjectStream[ref] {
			continue
		}

		obj, err := pdf.Get(ref, true)
		if err != nil {
			return nil, err
		}
		if _, isDict := obj.(Dict); isDict {
			if pdf.meta.Trailer["Root"] == ref || pdf.meta.Trailer["Info"] == ref {
				continue
			}
		}
		if s, isStream := obj.(*Stream); isStream {
			data, err := io.ReadAll(s.R)
			if err != nil {
				return nil, err
			}
			s.Dict["Length"] = Integer(len(data))
			obj = &Stream{
				Dict: s.Dict,
				R:    bytes.NewReader(data),
			}
		}
		if obj != nil {
			res.objects[ref] = obj
		}
	}

	return res, nil
}

// Write writes the PDF document to w.
// TODO(voss): take a *WriterOptions argument?
func (d *Data) Write(w io.Writer) error {
	opt := &WriterOptions{
		ID: d.meta.ID,
	}
	pdf, err := NewWriter(w, d.meta.Version, opt)
	if err != nil {
		return err
	}
	meta := pdf.GetMeta()
	meta.Catalog = d.meta.Catalog
	meta.Info = d.meta.Info

	if len(d.pages) > 0 {
		pagesRef := d.Alloc()
		kids := make(Array, len(d.pages))
		for i, ref := range d.pages {
			kids[i] = ref
			if pg, ok := d.objects[ref].(Dict); ok {
				pg["Parent"] = pagesRef
			}
		}
		d.objects[pagesRef] = Dict{
			"Type":  Name("Pages"),
			"Kids":  kids,
			"Count": Integer(len(d.pages)),
		}
		if meta.Catalog == nil {
			meta.Catalog = &Catalog{}
		}
		meta.Catalog.Pages = pagesRef
	}

	refs := maps.Keys(d.objects)
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Number() < refs[j].Number()
	})

	for _, group := range d.compressedGroups {
		objs := make([]Object, len(group))
		for i, ref := range group {
			objs[i] = d.objects[ref]
		}
		if err := pdf.WriteCompressed(group, objs...); err != nil {
			return err
		}
	}

	for _, ref := range refs {
		if d.compressed[ref] {
			continue
		}
		err := pdf.Put(ref, d.objects[ref])
		if err != nil {
			return err
		}
	}

	err = pdf.Close()
	if err != nil {
		return err
	}

	return nil
}

func (d *Data) Close() error {
	for _, obj := range d.autoclose {
		err := obj.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (d *Data) GetMeta() *MetaInfo {
	return &d.meta
}

// GetOptions implements the [Putter] interface.
func (d *Data) GetOptions() OutputOptions {
	return 0
}

// Alloc allocates a new object number for an indirect object.
func (d *Data) Alloc() Reference {
	for {
		d.lastRef++
		ref := NewReference(d.lastRef, 0)
		if _, isUsed := d.objects[ref]; !isUsed {
			return ref
		}
	}
}

// Get implements the [Getter] interface.
func (d *Data) Get(ref Reference, _ bool) (Object, error) {
	if ref.IsInternal() {
		panic("internal reference") // TODO(voss): return an error instead?
	}
	obj := d.objects[ref]
	switch x := obj.(type) {
	case *Stream:
		if ss, ok := x.R.(io.Seeker); ok {
			_, err := ss.Seek(0, io.SeekStart)
			if err != nil {
				return nil, err
			}
		}
	case Dict:
		obj = maps.Clone(x)
	case Array:
		obj = slices.Clone(x)
	}
	return obj, nil
}

func (d *Data) Put(ref Reference, obj Object) error {
	if obj == nil {
		delete(d.objects, ref)
	} else if _, exists := d.objects[ref]; exists {
		return errDuplicateRef
	} else {
		d.objects[ref] = d.strings.internObject(obj)
	}
	return nil
}

// NumPages returns the number of pages registered in d's flat page
// list, as built up by [Data.CopyPage].
func (d *Data) NumPages() int {
	return len(d.pages)
}

// GetPage returns the reference of the index-th page (zero-based) in
// d's page registry. Lookup is O(1).
func (d *Data) GetPage(index int) (Reference, error) {
	if index < 0 || index >= len(d.pages) {
		return 0, fmt.Errorf("page index %d out of range (have %d pages)", index, len(d.pages))
	}
	return d.pages[index], nil
}

// copierFor returns the Copier used to bring objects into d from
// source r, creating and caching one on first use.
func (d *Data) copierFor(r Getter) *Copier {
	if d.copiers == nil {
		d.copiers = make(map[Getter]*Copier)
	}
	c, ok := d.copiers[r]
	if !ok {
		c = NewCopier(d, r)
		d.copiers[r] = c
	}
	return c
}

// CopyPage deep-copies the page object src out of r into d and appends
// it to d's page registry. Objects that src shares with other pages
// already copied from the same r (fonts, images, other resources) are
// copied at most once, since CopyPage reuses one Copier per source.
func (d *Data) CopyPage(r Getter, src Reference) (Reference, error) {
	newRef, err := d.copierFor(r).CopyReference(src)
	if err != nil {
		return 0, err
	}
	d.pages = append(d.pages, newRef)
	return newRef, nil
}

func (d *Data) OpenStream(ref Reference, dict Dict, filters ...Filter) (io.WriteCloser, error) {
	// Copy dict, dict["Filter"], and dict["DecodeParms"], so that we don't
	// change the caller's dict.
	streamDict := maps.Clone(dict)
	if streamDict == nil {
		streamDict = Dict{}
	}
	if filter, ok := streamDict["Filter"].(Array); ok {
		streamDict["Filter"] = append(Array{}, filter...)
	}
	if decodeParms, ok := streamDict["DecodeParms"].(Array); ok {
		streamDict["DecodeParms"] = append(Array{}, decodeParms...)
	}

	s := &Stream{
		Dict: streamDict,
	}
	d.objects[ref] = s

	var w io.WriteCloser = &dataStreamWriter{s: s}
	var err error
	for _, filter := range filters {
		w, err = filter.Encode(d.meta.Version, w)
		if err != nil {
			return nil, err
		}

		name, parms, err := filter.Info(d.meta.Version)
		if err != nil {
			return nil, err
		}
		appendFilter(streamDict, name, parms)
	}
	return w, err
}

type dataStreamWriter struct {
	bytes.Buffer
	s *Stream
}

func (w *dataStreamWriter) Close() error {
	w.s.R = bytes.NewReader(w.Bytes())
	w.s.Dict["Length"] = Integer(w.Len())
	return nil
}

// WriteCompressed records that refs/objects belong together in a single
// compressed object stream.  The objects are stored like any other
// object put into d (so Get and AutoClose see them immediately); the
// grouping itself is replayed by [Data.Write], which calls the
// underlying [Writer.WriteCompressed] once per group instead of writing
// each object as a separate indirect object.
func (d *Data) WriteCompressed(refs []Reference, objects ...Object) error {
	if err := checkCompressed(refs, objects); err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	for i, obj := range objects {
		if err := d.Put(refs[i], obj); err != nil {
			return err
		}
	}

	group := append([]Reference(nil), refs...)
	d.compressedGroups = append(d.compressedGroups, group)
	if d.compressed == nil {
		d.compressed = make(map[Reference]bool, len(refs))
	}
	for _, ref := range refs {
		d.compressed[ref] = true
	}
	return nil
}

func (d *Data) AutoClose(obj io.Closer) {
	d.autoclose = append(d.autoclose, obj)
}
