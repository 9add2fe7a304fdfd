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
	"io"
)

// filterCrypt applies a document's stream encryption through the ordinary
// [Filter] interface.  It is not part of the chain built by [GetFilters]:
// the reader attaches it to a [Stream] separately, and [DecodeStream]
// runs it before the filters listed in /Filter, while the writer wraps a
// stream's output in it.  It never appears in a stream's /Filter array: the
// encryption it applies is implied by the document's /Encrypt
// dictionary, not recorded per-stream.
//
// Keeping decryption inside the filter chain, rather than eagerly
// decrypting Stream.R when the object is read, lets the raw encrypted
// bytes stay seekable: a stream can be decoded more than once without
// re-fetching it from the underlying file.
type filterCrypt struct {
	enc *encryptInfo
	ref Reference
}

// Info implements the [Filter] interface.
func (f *filterCrypt) Info(Version) (Name, Dict, error) {
	return "", nil, nil
}

// Encode implements the [Filter] interface.
func (f *filterCrypt) Encode(_ Version, w io.WriteCloser) (io.WriteCloser, error) {
	w, err := f.enc.EncryptStream(f.ref, w)
	if err != nil {
		return nil, wrapErr(KindCrypto, err)
	}
	return w, nil
}

// Decode implements the [Filter] interface.
func (f *filterCrypt) Decode(_ Version, r io.Reader) (io.ReadCloser, error) {
	decrypted, err := f.enc.DecryptStream(f.ref, r)
	if err != nil {
		return nil, wrapErr(KindCrypto, err)
	}
	if rc, ok := decrypted.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(decrypted), nil
}
