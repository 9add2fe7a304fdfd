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
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// ErrorHandling selects how a [Reader] reacts to recoverable errors in a
// malformed PDF file.
type ErrorHandling int

const (
	// ErrorHandlingReport causes errors to be returned to the caller.
	ErrorHandlingReport ErrorHandling = iota

	// ErrorHandlingIgnore causes the reader to recover as best it can and
	// continue, e.g. by treating a damaged object as absent.
	ErrorHandlingIgnore
)

// ReaderOptions controls the behaviour of [NewReader].
type ReaderOptions struct {
	// ErrorHandling selects how the reader behaves when it encounters a
	// part of the file it cannot parse.
	ErrorHandling ErrorHandling

	// ReadPassword is called to obtain a password for an encrypted file.
	// The function is called repeatedly, with try starting at 0 and
	// incrementing on every failed attempt, until it returns the empty
	// string (giving up) or a correct password is supplied.
	ReadPassword func(userPassword []byte, try int) string
}

// MetaInfo collects the document-level data associated with a PDF file
// which is not part of the file's object graph: the format version, the
// document catalog and information dictionary, the file identifier, and
// the raw trailer dictionary the file was read with (or will be written
// with).
type MetaInfo struct {
	Version Version
	Catalog *Catalog
	Info    *Info
	ID      [][]byte
	Trailer Dict
}

// Reader gives access to the contents of an existing PDF file.  Readers
// are not safe for concurrent use from multiple goroutines.
type Reader struct {
	r    io.ReaderAt
	size int64

	meta MetaInfo
	xref map[uint32]*xRefEntry

	// ID holds the file identifier from the trailer's /ID entry, needed
	// by the standard security handler to derive the encryption key.
	ID [][]byte

	enc *encryptInfo
	opt ReaderOptions

	objStmCache map[uint32][]Object
	objStmIdx   map[uint32]map[uint32]int

	// objStmPending marks object streams currently being decoded, so a
	// circular /Length dependency between two object streams is reported
	// as a reference loop instead of recursing until the goroutine stack
	// overflows.
	objStmPending map[uint32]bool

	// pages is the flattened page list built from the Catalog's /Pages
	// tree when the file is opened; see [Reader.GetPage].
	pages []Reference

	// cache holds recently parsed top-level (non-object-stream) objects,
	// keyed by reference, so that repeated Resolve calls for the same
	// object (e.g. a page's /Resources dict visited from several content
	// streams) do not re-scan the file.
	cache *lruCache
}

// readerCacheSize bounds how many top-level objects a Reader keeps
// parsed in memory at once.
const readerCacheSize = 256

// NewReader reads the cross-reference information and trailer of a PDF
// file and returns a [Reader] which gives access to its contents.  Object
// contents are read lazily, as they are requested via [Reader.Get].
func NewReader(r io.ReadSeeker, opt *ReaderOptions) (*Reader, error) {
	if opt == nil {
		opt = &ReaderOptions{}
	}

	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	pdf := &Reader{
		r:             asReaderAt(r),
		size:          size,
		opt:           *opt,
		objStmCache:   make(map[uint32][]Object),
		objStmIdx:     make(map[uint32]map[uint32]int),
		objStmPending: make(map[uint32]bool),
		cache:         newCache(readerCacheSize),
	}

	sc := newScanner(io.NewSectionReader(pdf.r, 0, size), nil, nil)
	version, err := sc.readHeaderVersion()
	if err != nil && opt.ErrorHandling != ErrorHandlingIgnore {
		return nil, err
	}
	pdf.meta.Version = version

	start, err := pdf.findXRef()
	if err != nil {
		return nil, err
	}
	trailer, xref, err := pdf.readXRefChain(start)
	if err != nil {
		return nil, err
	}
	pdf.xref = xref
	pdf.meta.Trailer = trailer

	if idArr, ok := trailer["ID"].(Array); ok {
		for _, o := range idArr {
			if s, ok := o.(String); ok {
				pdf.ID = append(pdf.ID, []byte(s))
			}
		}
	}
	pdf.meta.ID = pdf.ID

	if encObj, ok := trailer["Encrypt"]; ok {
		readPwd := opt.ReadPassword
		if readPwd == nil {
			readPwd = func([]byte, int) string { return "" }
		}
		enc, err := pdf.parseEncryptDict(encObj, readPwd)
		if err != nil {
			return nil, err
		}
		pdf.enc = enc
	}

	rootRef, _ := trailer["Root"].(Reference)
	if rootRef == 0 {
		if opt.ErrorHandling != ErrorHandlingIgnore {
			return nil, &MalformedFileError{Err: errNoRoot}
		}
	} else {
		catalog, err := ExtractCatalog(pdf, rootRef)
		if err != nil && opt.ErrorHandling != ErrorHandlingIgnore {
			return nil, err
		}
		pdf.meta.Catalog = catalog

		if catalog != nil {
			pages, err := walkPages(pdf, catalog.Pages)
			if err != nil && opt.ErrorHandling != ErrorHandlingIgnore {
				return nil, err
			}
			pdf.pages = pages
		}
	}

	if infoRef, ok := trailer["Info"].(Reference); ok {
		infoDict, err := GetDict(pdf, infoRef)
		if err == nil && infoDict != nil {
			pdf.meta.Info = extractInfo(pdf, infoDict)
		}
	}

	return pdf, nil
}

// Open reads the PDF file at path.
func Open(path string, opt *ReaderOptions) (*Reader, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(fd, opt)
	if err != nil {
		fd.Close()
		return nil, err
	}
	return r, nil
}

// GetMeta implements the [Getter] interface.
func (r *Reader) GetMeta() *MetaInfo {
	return &r.meta
}

// AuthenticateOwner tries to authenticate as the owner of an encrypted
// file, requesting passwords via the ReaderOptions.ReadPassword callback
// supplied to [NewReader] if the correct password was not already found
// while decrypting an earlier object. It has no effect on an unencrypted
// file.
func (r *Reader) AuthenticateOwner() error {
	if r.enc == nil {
		return nil
	}
	_, err := r.enc.sec.GetKey(true)
	return err
}

// Get implements the [Getter] interface.
func (r *Reader) Get(ref Reference, canObjStm bool) (Native, error) {
	entry, ok := r.xref[ref.Number()]
	if !ok || entry.IsFree() {
		return nil, nil
	}

	if entry.InStream != 0 {
		if !canObjStm {
			return nil, &MalformedFileError{
				Err: errors.New("object unexpectedly found in an object stream"),
			}
		}
		return r.getFromObjStm(entry.InStream, ref.Number())
	}

	if obj, ok := r.cache.Get(ref); ok {
		return obj, nil
	}

	sr := io.NewSectionReader(r.r, entry.Pos, r.size-entry.Pos)
	sc := newScanner(sr, r.makeGetInt(), r.makeDecrypt())
	sc.SetRef(ref)

	if err := sc.SkipWhiteSpace(); err != nil {
		return nil, err
	}
	gotNum, err := sc.ReadInteger()
	if err != nil {
		return nil, err
	}
	if err := sc.SkipWhiteSpace(); err != nil {
		return nil, err
	}
	gotGen, err := sc.ReadInteger()
	if err != nil {
		return nil, err
	}
	if uint32(gotNum) != ref.Number() {
		return nil, &MalformedFileError{
			Err: fmt.Errorf("xref table points to wrong object: wanted %d, found %d", ref.Number(), gotNum),
			Pos: entry.Pos,
		}
	}
	_ = gotGen

	if err := sc.SkipWhiteSpace(); err != nil {
		return nil, err
	}
	if ok, err := sc.literal("obj"); err != nil {
		return nil, err
	} else if !ok {
		return nil, &MalformedFileError{Err: errors.New("expected obj keyword"), Pos: entry.Pos}
	}
	if err := sc.SkipWhiteSpace(); err != nil {
		return nil, err
	}

	obj, err := sc.ReadObject()
	if err != nil {
		return nil, err
	}
	if stm, isStream := obj.(*Stream); isStream {
		// Stream.R reads directly from the file at the position the
		// scanner left it; it is consumed at most once, so streams
		// cannot go through r.cache the way other objects do.
		if r.enc != nil {
			stm.crypt = &filterCrypt{enc: r.enc, ref: ref}
		}
		return obj, nil
	}

	r.cache.Put(ref, obj)
	return obj, nil
}

// getFromObjStm reads object number `want` out of the object stream
// stored at ref, decompressing and parsing the whole stream the first
// time any of its objects is requested.
func (r *Reader) getFromObjStm(ref Reference, want uint32) (Native, error) {
	num := ref.Number()
	if _, cached := r.objStmCache[num]; !cached {
		if r.objStmPending[num] {
			return nil, &MalformedFileError{
				Err: fmt.Errorf("object stream %d depends on itself", num),
			}
		}
		r.objStmPending[num] = true
		defer delete(r.objStmPending, num)

		stm, err := GetStream(r, ref)
		if err != nil {
			return nil, err
		}
		if stm == nil {
			return nil, &MalformedFileError{Err: fmt.Errorf("missing object stream %d", num)}
		}

		n, err := GetInt(r, stm.Dict["N"])
		if err != nil {
			return nil, err
		}
		first, err := GetInt(r, stm.Dict["First"])
		if err != nil {
			return nil, err
		}

		body, err := DecodeStream(r, stm, 0)
		if err != nil {
			return nil, err
		}
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}

		headSc := newScanner(newByteReader(raw), nil, nil)
		type objStmEntry struct {
			num uint32
			off int64
		}
		entries := make([]objStmEntry, 0, n)
		for i := Integer(0); i < n; i++ {
			if err := headSc.SkipWhiteSpace(); err != nil {
				return nil, err
			}
			objNum, err := headSc.ReadInteger()
			if err != nil {
				return nil, err
			}
			if err := headSc.SkipWhiteSpace(); err != nil {
				return nil, err
			}
			off, err := headSc.ReadInteger()
			if err != nil {
				return nil, err
			}
			entries = append(entries, objStmEntry{num: uint32(objNum), off: int64(off)})
		}

		objs := make([]Object, len(entries))
		for i, e := range entries {
			bodySc := newScanner(newByteReader(raw[int64(first)+e.off:]), nil, nil)
			obj, err := bodySc.ReadObject()
			if err != nil {
				return nil, err
			}
			objs[i] = obj
		}

		idx := make(map[uint32]int, len(entries))
		for i, e := range entries {
			idx[e.num] = i
		}
		r.objStmCache[num] = objs
		r.objStmIdx[num] = idx
	}

	idx, ok := r.objStmIdx[num][want]
	if !ok {
		return nil, &MalformedFileError{Err: fmt.Errorf("object %d not found in object stream %d", want, num)}
	}
	return r.objStmCache[num][idx], nil
}

func (r *Reader) makeGetInt() func(Object) (Integer, error) {
	return func(obj Object) (Integer, error) {
		return GetInt(r, obj)
	}
}

func (r *Reader) makeDecrypt() func(Reference, []byte) ([]byte, error) {
	if r.enc == nil {
		return nil
	}
	return func(ref Reference, buf []byte) ([]byte, error) {
		return r.enc.DecryptBytes(ref, buf)
	}
}

// newByteReader avoids pulling in "bytes" just for a reader over a
// []byte where we also want accurate EOF behaviour for the scanner.
func newByteReader(buf []byte) io.Reader {
	return &sliceReader{buf: buf}
}

type sliceReader struct {
	buf []byte
	pos int
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if s.pos >= len(s.buf) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[s.pos:])
	s.pos += n
	return n, nil
}

// asReaderAt adapts an io.ReadSeeker to io.ReaderAt.  Most concrete types
// used in practice (*os.File, *bytes.Reader, *strings.Reader) already
// implement ReaderAt directly and are returned unchanged.
func asReaderAt(r io.ReadSeeker) io.ReaderAt {
	if ra, ok := r.(io.ReaderAt); ok {
		return ra
	}
	return &seekerReaderAt{r: r}
}

type seekerReaderAt struct {
	mu sync.Mutex
	r  io.ReadSeeker
}

func (s *seekerReaderAt) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.r.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(s.r, p)
}
