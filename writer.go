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
	"bufio"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// WriterOptions controls the behaviour of [NewWriter].
type WriterOptions struct {
	// ID is the file identifier to write into the trailer's /ID entry.
	// If nil, a random identifier is generated.
	ID [][]byte

	// UserPassword and OwnerPassword, if set, cause the file to be
	// written with standard-security-handler encryption.
	UserPassword  string
	OwnerPassword string

	// UserPermission restricts what a reader who only knows the user
	// password is allowed to do with the file.
	UserPermission Perm

	// TextStringEncoding controls how [TextString] values are encoded
	// by [Writer.Put] and related calls; see [OptTextStringUtf8].
	TextStringEncoding OutputOptions

	// DefaultMediaBox and DefaultCropBox, if set, are used by
	// [Writer.AddPage] for pages that don't specify their own box.
	DefaultMediaBox *Rectangle
	DefaultCropBox  *Rectangle
}

// countingWriter tracks how many bytes have been written through it, so
// that the Writer can record accurate byte offsets for the cross
// reference table.
type countingWriter struct {
	w   *bufio.Writer
	pos int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.pos += int64(n)
	return n, err
}

// Writer writes a new PDF file.  Objects must be allocated with
// [Writer.Alloc] and written with [Writer.Put] or [Writer.OpenStream];
// [Writer.Close] must be called to write the cross-reference table and
// trailer.
type Writer struct {
	w   *countingWriter
	out io.Writer

	meta    MetaInfo
	xref    map[uint32]*xRefEntry
	lastRef uint32
	closed  bool

	openStreamRef *Reference

	enc  *encryptInfo
	opts OutputOptions

	// pagesRef is allocated up front so that AddPage can set each
	// page's /Parent before the /Pages object itself is written.
	pagesRef Reference
	pages    []Reference

	defaultMediaBox *Rectangle
	defaultCropBox  *Rectangle
}

// GetOptions returns the [OutputOptions] this writer uses to convert
// [Object] values to their [Native] representation.
func (pdf *Writer) GetOptions() OutputOptions {
	return pdf.opts
}

// NewWriter creates a [Writer] which writes a new PDF file to w, using
// the given format version.
func NewWriter(w io.Writer, v Version, opt *WriterOptions) (*Writer, error) {
	if opt == nil {
		opt = &WriterOptions{}
	}

	cw := &countingWriter{w: bufio.NewWriter(w)}
	pdf := &Writer{
		w:   cw,
		out: w,
		meta: MetaInfo{
			Version: v,
			Catalog: &Catalog{},
		},
		xref:            make(map[uint32]*xRefEntry),
		opts:            opt.TextStringEncoding,
		defaultMediaBox: opt.DefaultMediaBox,
		defaultCropBox:  opt.DefaultCropBox,
	}
	pdf.pagesRef = pdf.Alloc()
	pdf.meta.Catalog.Pages = pdf.pagesRef

	id := opt.ID
	if id == nil {
		id = [][]byte{randomID(), randomID()}
	}
	pdf.meta.ID = id

	vStr, err := v.ToString()
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(cw, "%%PDF-%s\n%%\xE2\xE3\xCF\xD3\n", vStr); err != nil {
		return nil, err
	}

	if opt.UserPassword != "" || opt.OwnerPassword != "" {
		enc, err := newEncryptInfo(id[0], opt.UserPassword, opt.OwnerPassword, opt.UserPermission)
		if err != nil {
			return nil, err
		}
		pdf.enc = enc
	}

	return pdf, nil
}

// Create creates a new PDF file at path.
func Create(path string, v Version, opt *WriterOptions) (*Writer, error) {
	fd, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	pdf, err := NewWriter(fd, v, opt)
	if err != nil {
		fd.Close()
		return nil, err
	}
	return pdf, nil
}

func randomID() []byte {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return buf
}

// newEncryptInfo sets up AES-128 (V=4/R=4) standard-security-handler
// encryption for a freshly created file.
func newEncryptInfo(id []byte, userPwd, ownerPwd string, perm Perm) (*encryptInfo, error) {
	const length = 128
	const V = 4
	sec, err := createStdSecHandler(id, userPwd, ownerPwd, perm, length, V)
	if err != nil {
		return nil, err
	}
	cf := &cryptFilter{Cipher: cipherAES, Length: length}
	return &encryptInfo{
		sec:             sec,
		stmF:            cf,
		strF:            cf,
		efF:             cf,
		UserPermissions: stdSecPToPerm(sec.R, sec.P),
	}, nil
}

// GetMeta implements the [Getter] interface.
func (pdf *Writer) GetMeta() *MetaInfo {
	return &pdf.meta
}

// Get implements the [Getter] interface.  Writers don't support reading
// back previously-written objects; this always returns nil, nil.
func (pdf *Writer) Get(ref Reference, canObjStm bool) (Native, error) {
	return nil, nil
}

// Alloc allocates a new, unused object number.
func (pdf *Writer) Alloc() Reference {
	for {
		pdf.lastRef++
		num := pdf.lastRef
		if _, used := pdf.xref[num]; !used {
			return NewReference(num, 0)
		}
	}
}

// SetInfo sets the document information dictionary to be written to the
// trailer's /Info entry.
func (pdf *Writer) SetInfo(info *Info) {
	pdf.meta.Info = info
}

// AddPage allocates and writes a new Page object with the given content
// stream reference and resources, registers it in the writer's flat
// page list, and returns its reference. A nil mediaBox or cropBox falls
// back to [WriterOptions.DefaultMediaBox] / [WriterOptions.DefaultCropBox].
// [Writer.Close] assembles the accumulated list into a single /Pages
// object that each page's /Parent already points to.
func (pdf *Writer) AddPage(contents Reference, resources Dict, mediaBox, cropBox *Rectangle) (Reference, error) {
	if mediaBox == nil {
		mediaBox = pdf.defaultMediaBox
	}
	if cropBox == nil {
		cropBox = pdf.defaultCropBox
	}

	dict := Dict{
		"Type":      Name("Page"),
		"Parent":    pdf.pagesRef,
		"Resources": resources,
	}
	if contents != 0 {
		dict["Contents"] = contents
	}
	if mediaBox != nil {
		dict["MediaBox"] = mediaBox
	}
	if cropBox != nil {
		dict["CropBox"] = cropBox
	}

	ref := pdf.Alloc()
	if err := pdf.Put(ref, dict); err != nil {
		return 0, err
	}
	pdf.pages = append(pdf.pages, ref)
	return ref, nil
}

// NumPages returns the number of pages added via [Writer.AddPage] so far.
func (pdf *Writer) NumPages() int {
	return len(pdf.pages)
}

// GetPage returns the reference of the index-th page (zero-based)
// added via [Writer.AddPage]. Lookup is O(1).
func (pdf *Writer) GetPage(index int) (Reference, error) {
	if index < 0 || index >= len(pdf.pages) {
		return 0, fmt.Errorf("page index %d out of range (have %d pages)", index, len(pdf.pages))
	}
	return pdf.pages[index], nil
}

// CheckVersion returns an error if the writer's format version is older
// than earliest.  This is used by callers that want to report a clear
// error rather than silently emitting a feature the receiving reader
// may not understand.
func (pdf *Writer) CheckVersion(operation string, earliest Version) error {
	if pdf.meta.Version < earliest {
		return &VersionError{Operation: operation, Earliest: earliest}
	}
	return nil
}

// Put writes obj as the indirect object identified by ref.  ref must
// have been obtained from [Writer.Alloc] (or be a number the caller
// otherwise knows to be free).
func (pdf *Writer) Put(ref Reference, obj Object) error {
	if pdf.closed {
		return errClosed
	}
	if pdf.openStreamRef != nil {
		return errStreamOpen
	}
	num := ref.Number()
	if _, used := pdf.xref[num]; used {
		return errDuplicateRef
	}

	pdf.xref[num] = &xRefEntry{
		Pos:        pdf.w.pos,
		Generation: ref.Generation(),
	}

	enc := pdf.streamlessEncrypter(ref)
	native := obj.AsPDF(0)
	if enc != nil {
		native = encryptStrings(native, enc)
	}

	if _, err := fmt.Fprintf(pdf.w, "%d %d obj\n", num, ref.Generation()); err != nil {
		return err
	}
	if err := Format(pdf.w, 0, native); err != nil {
		return err
	}
	if _, err := io.WriteString(pdf.w, "\nendobj\n"); err != nil {
		return err
	}
	return nil
}

// streamlessEncrypter returns a string-encryption function for ref, or
// nil if the document is not encrypted.
func (pdf *Writer) streamlessEncrypter(ref Reference) func([]byte) []byte {
	if pdf.enc == nil {
		return nil
	}
	return func(buf []byte) []byte {
		out, err := pdf.enc.EncryptBytes(ref, buf)
		if err != nil {
			return buf
		}
		return out
	}
}

// encryptStrings returns a copy of obj with every String leaf encrypted
// using enc.  Other object types are returned unchanged (streams encrypt
// their binary data separately, via OpenStream).
func encryptStrings(obj Object, enc func([]byte) []byte) Object {
	switch x := obj.(type) {
	case String:
		return String(enc([]byte(x)))
	case Array:
		res := make(Array, len(x))
		for i, e := range x {
			res[i] = encryptStrings(e.AsPDF(0), enc)
		}
		return res
	case Dict:
		res := make(Dict, len(x))
		for k, v := range x {
			res[k] = encryptStrings(v.AsPDF(0), enc)
		}
		return res
	default:
		return obj
	}
}

// fileStreamWriter buffers stream contents in memory until Close, at
// which point it writes the length-prefixed "stream ... endstream"
// object body in one piece, so that /Length never needs to be an
// indirect reference.
type fileStreamWriter struct {
	pdf    *Writer
	ref    Reference
	dict   Dict
	buf    []byte
	closed bool
}

func (w *fileStreamWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errClosed
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *fileStreamWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.pdf.openStreamRef = nil

	// Encryption, if any, has already been applied to w.buf by the
	// filterCrypt stage OpenStream wrapped this writer in.
	data := w.buf

	dict := w.dict
	dict["Length"] = Integer(len(data))

	num := w.ref.Number()
	w.pdf.xref[num] = &xRefEntry{
		Pos:        w.pdf.w.pos,
		Generation: w.ref.Generation(),
	}

	if _, err := fmt.Fprintf(w.pdf.w, "%d %d obj\n", num, w.ref.Generation()); err != nil {
		return err
	}
	if err := Format(w.pdf.w, 0, dict); err != nil {
		return err
	}
	if _, err := io.WriteString(w.pdf.w, "\nstream\n"); err != nil {
		return err
	}
	if _, err := w.pdf.w.Write(data); err != nil {
		return err
	}
	if _, err := io.WriteString(w.pdf.w, "\nendstream\nendobj\n"); err != nil {
		return err
	}
	return nil
}

// OpenStream starts writing a new stream object identified by ref, with
// the given stream dictionary entries, passed through filters (applied
// in the given order, outermost first).  The caller must write the
// stream's decoded data to the returned writer and Close it.
func (pdf *Writer) OpenStream(ref Reference, dict Dict, filters ...Filter) (io.WriteCloser, error) {
	if pdf.closed {
		return nil, errClosed
	}
	if pdf.openStreamRef != nil {
		return nil, errStreamOpen
	}

	streamDict := Dict{}
	for k, v := range dict {
		streamDict[k] = v
	}

	fw := &fileStreamWriter{pdf: pdf, ref: ref, dict: streamDict}
	pdf.openStreamRef = &ref

	// Build the chain innermost-first: encryption, if any, must be the
	// last transform applied before bytes reach the file, so it wraps
	// fw before the content filters do (mirrors the decode order in
	// DecodeStream, which undoes encryption first).
	var w io.WriteCloser = fw
	var err error
	if pdf.enc != nil {
		w, err = (&filterCrypt{enc: pdf.enc, ref: ref}).Encode(pdf.meta.Version, w)
		if err != nil {
			pdf.openStreamRef = nil
			return nil, err
		}
	}

	for _, filter := range filters {
		w, err = filter.Encode(pdf.meta.Version, w)
		if err != nil {
			pdf.openStreamRef = nil
			return nil, err
		}
		name, parms, err := filter.Info(pdf.meta.Version)
		if err != nil {
			pdf.openStreamRef = nil
			return nil, err
		}
		appendFilter(streamDict, name, parms)
	}

	return w, nil
}

// appendFilter records that name/parms have been applied to a stream,
// appending to any filters already listed (filters are applied in the
// order written, closest-to-the-data first, but recorded outermost
// first to match the order readers must undo them in).
func appendFilter(dict Dict, name Name, parms Dict) {
	if name == "" {
		return
	}
	switch existing := dict["Filter"].(type) {
	case nil:
		dict["Filter"] = name
		if parms != nil {
			dict["DecodeParms"] = parms
		}
	case Name:
		dict["Filter"] = Array{existing, name}
		oldParms, _ := dict["DecodeParms"].(Dict)
		dict["DecodeParms"] = Array{oldParms, parms}
	case Array:
		dict["Filter"] = append(existing, name)
		parmsArr, _ := dict["DecodeParms"].(Array)
		dict["DecodeParms"] = append(parmsArr, parms)
	}
}

// checkCompressed verifies that refs and objects can legally be written
// together into a single object stream: equal lengths, no streams (which
// cannot be compressed this way), and no duplicate object numbers.
func checkCompressed(refs []Reference, objects []Object) error {
	if len(refs) != len(objects) {
		return errors.New("checkCompressed: mismatched lengths")
	}
	seen := make(map[uint32]bool, len(refs))
	for i, ref := range refs {
		if seen[ref.Number()] {
			return fmt.Errorf("checkCompressed: duplicate object number %d", ref.Number())
		}
		seen[ref.Number()] = true
		if _, isStream := objects[i].(*Stream); isStream {
			return errors.New("checkCompressed: streams cannot be stored in an object stream")
		}
	}
	return nil
}

// WriteCompressed writes a batch of non-stream objects into a single
// PDF object stream, which is typically much smaller than writing the
// objects directly.
func (pdf *Writer) WriteCompressed(refs []Reference, objects ...Object) error {
	if err := checkCompressed(refs, objects); err != nil {
		return err
	}
	if len(refs) == 0 {
		return nil
	}

	var head []byte
	var body []byte
	offsets := make([]int, len(refs))
	for i, obj := range objects {
		offsets[i] = len(body)
		head = append(head, []byte(fmt.Sprintf("%d %d ", refs[i].Number(), offsets[i]))...)
		var buf []byte
		w := &sliceWriteCloser{}
		if err := Format(w, 0, obj.AsPDF(0)); err != nil {
			return err
		}
		buf = w.buf
		body = append(body, buf...)
		body = append(body, ' ')
	}

	stmRef := pdf.Alloc()
	dict := Dict{
		"Type":  Name("ObjStm"),
		"N":     Integer(len(refs)),
		"First": Integer(len(head)),
	}
	w, err := pdf.OpenStream(stmRef, dict, &FilterCompress{Predictor: 1, Colors: 1, BitsPerComponent: 8, Columns: 1})
	if err != nil {
		return err
	}
	if _, err := w.Write(head); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	for i, ref := range refs {
		pdf.xref[ref.Number()] = &xRefEntry{
			InStream:   stmRef,
			Index:      i,
			Generation: ref.Generation(),
		}
	}
	return nil
}

type sliceWriteCloser struct {
	buf []byte
}

func (s *sliceWriteCloser) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Close writes the cross-reference table and trailer, flushing all
// buffered output.  After Close returns, the Writer must not be used
// again.
func (pdf *Writer) Close() error {
	if pdf.closed {
		return errClosed
	}
	if pdf.openStreamRef != nil {
		return errStreamOpen
	}
	pdf.closed = true

	if pdf.meta.Catalog == nil {
		pdf.meta.Catalog = &Catalog{}
	}

	if len(pdf.pages) > 0 {
		kids := make(Array, len(pdf.pages))
		copy(kids, pdf.pages)
		pagesDict := Dict{
			"Type":  Name("Pages"),
			"Kids":  kids,
			"Count": Integer(len(pdf.pages)),
		}
		if err := pdf.Put(pdf.pagesRef, pagesDict); err != nil {
			return err
		}
	}

	rootRef := pdf.Alloc()
	if err := pdf.Put(rootRef, pdf.meta.Catalog); err != nil {
		return err
	}

	var infoRef Reference
	if pdf.meta.Info != nil {
		infoRef = pdf.Alloc()
		if err := pdf.Put(infoRef, pdf.meta.Info.ToDict()); err != nil {
			return err
		}
	}

	// The /Encrypt dictionary's own strings (O, U, OE, UE, Perms) are
	// the raw cryptographic parameters, not document content: they must
	// not be run through the string encryption that every other Put
	// applies, since a reader has to parse this dictionary before it
	// can derive the key needed to undo that encryption.
	var encRef Reference
	if pdf.enc != nil {
		encRef = pdf.Alloc()
		encDict, err := pdf.enc.AsDict(pdf.meta.Version)
		if err != nil {
			return err
		}
		savedEnc := pdf.enc
		pdf.enc = nil
		err = pdf.Put(encRef, encDict)
		pdf.enc = savedEnc
		if err != nil {
			return err
		}
	}

	hasCompressed := false
	for _, entry := range pdf.xref {
		if entry.InStream != 0 {
			hasCompressed = true
			break
		}
	}
	if hasCompressed {
		return pdf.writeXRefStream(rootRef, infoRef, encRef)
	}
	return pdf.writeXRefTable(rootRef, infoRef, encRef)
}

// writeXRefTable writes a classic cross-reference table and trailer.
// Classic tables cannot record objects stored inside an object stream,
// so this path is only used when the file has none.
func (pdf *Writer) writeXRefTable(rootRef, infoRef, encRef Reference) error {
	xrefPos := pdf.w.pos
	maxNum := uint32(0)
	for n := range pdf.xref {
		if n > maxNum {
			maxNum = n
		}
	}

	if _, err := io.WriteString(pdf.w, "xref\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(pdf.w, "0 %d\n", maxNum+1); err != nil {
		return err
	}
	if _, err := io.WriteString(pdf.w, "0000000000 65535 f \n"); err != nil {
		return err
	}
	for num := uint32(1); num <= maxNum; num++ {
		entry, ok := pdf.xref[num]
		if !ok || entry.InStream != 0 {
			if _, err := io.WriteString(pdf.w, "0000000000 00000 f \n"); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(pdf.w, "%010d %05d n \n", entry.Pos, entry.Generation); err != nil {
			return err
		}
	}

	trailer := Dict{
		"Size": Integer(maxNum + 1),
		"Root": rootRef,
	}
	if infoRef != 0 {
		trailer["Info"] = infoRef
	}
	if encRef != 0 {
		trailer["Encrypt"] = encRef
	}
	if len(pdf.meta.ID) == 2 {
		trailer["ID"] = Array{String(pdf.meta.ID[0]), String(pdf.meta.ID[1])}
	}

	if _, err := io.WriteString(pdf.w, "trailer\n"); err != nil {
		return err
	}
	if err := Format(pdf.w, 0, trailer); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(pdf.w, "\nstartxref\n%d\n%%%%EOF\n", xrefPos); err != nil {
		return err
	}

	return pdf.w.w.Flush()
}

// writeXRefStream writes a PDF 1.5-style cross-reference stream instead
// of a classic table. Unlike the classic format, its rows can point
// into an object stream (type 2), which is required whenever
// [Writer.WriteCompressed] has packed any objects.
func (pdf *Writer) writeXRefStream(rootRef, infoRef, encRef Reference) error {
	xrefRef := pdf.Alloc()
	xrefPos := pdf.w.pos

	maxNum := xrefRef.Number()
	for n := range pdf.xref {
		if n > maxNum {
			maxNum = n
		}
	}

	row := func(body *[]byte, typ byte, f2 int64, f3 uint16) {
		*body = append(*body, typ,
			byte(f2>>24), byte(f2>>16), byte(f2>>8), byte(f2),
			byte(f3>>8), byte(f3))
	}

	var body []byte
	row(&body, 0, 0, 65535) // object 0 heads the free list
	for num := uint32(1); num <= maxNum; num++ {
		if num == xrefRef.Number() {
			row(&body, 1, xrefPos, xrefRef.Generation())
			continue
		}
		entry, ok := pdf.xref[num]
		if !ok {
			row(&body, 0, 0, 65535)
			continue
		}
		if entry.InStream != 0 {
			row(&body, 2, int64(entry.InStream.Number()), uint16(entry.Index))
			continue
		}
		row(&body, 1, entry.Pos, entry.Generation)
	}

	dict := Dict{
		"Type": Name("XRef"),
		"Size": Integer(maxNum + 1),
		"W":    Array{Integer(1), Integer(4), Integer(2)},
		"Root": rootRef,
	}
	if infoRef != 0 {
		dict["Info"] = infoRef
	}
	if encRef != 0 {
		dict["Encrypt"] = encRef
	}
	if len(pdf.meta.ID) == 2 {
		dict["ID"] = Array{String(pdf.meta.ID[0]), String(pdf.meta.ID[1])}
	}

	// Like the /Encrypt dictionary, a cross-reference stream is never
	// itself encrypted: a reader must be able to walk the xref chain
	// before any decryption key is available.
	savedEnc := pdf.enc
	pdf.enc = nil
	w, err := pdf.OpenStream(xrefRef, dict)
	pdf.enc = savedEnc
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(pdf.w, "startxref\n%d\n%%%%EOF\n", xrefPos); err != nil {
		return err
	}
	return pdf.w.w.Flush()
}
