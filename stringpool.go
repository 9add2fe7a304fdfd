// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2024  Jochen Voss <voss@seehuhn.de>
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

import "sort"

// stringPool deduplicates the byte strings backing Name and String
// values. The same /Name ("Type", "Font", "Page", ...) and the same
// literal string tend to reappear throughout a document; interning
// them means every occurrence shares one backing array instead of
// each parse or copy allocating its own.
//
// Entries are kept sorted, so intern and owns both resolve by binary
// search. The pool has no eviction: it lives exactly as long as the
// [Data] that owns it.
type stringPool struct {
	entries [][]byte
}

// intern returns a []byte with the same content as s. If an equal byte
// string was already interned, the existing slice is returned and s is
// not retained; otherwise a copy of s is added to the pool.
func (p *stringPool) intern(s []byte) []byte {
	i := sort.Search(len(p.entries), func(i int) bool {
		return string(p.entries[i]) >= string(s)
	})
	if i < len(p.entries) && string(p.entries[i]) == string(s) {
		return p.entries[i]
	}

	entry := append([]byte(nil), s...)
	p.entries = append(p.entries, nil)
	copy(p.entries[i+1:], p.entries[i:])
	p.entries[i] = entry
	return entry
}

// owns reports whether buf is itself an entry of this pool, as opposed
// to caller-owned memory that merely has equal content. Deep copy uses
// this to decide whether a byte slice can be shared as-is or must be
// duplicated before it is stored in a different pool.
func (p *stringPool) owns(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	i := sort.Search(len(p.entries), func(i int) bool {
		return string(p.entries[i]) >= string(buf)
	})
	return i < len(p.entries) && len(p.entries[i]) == len(buf) && &p.entries[i][0] == &buf[0]
}

// internName interns n's bytes and returns the equivalent Name backed
// by the pooled storage.
func (p *stringPool) internName(n Name) Name {
	return Name(p.intern([]byte(n)))
}

// internString interns s's bytes and returns the equivalent String
// backed by the pooled storage.
func (p *stringPool) internString(s String) String {
	return String(p.intern([]byte(s)))
}

// internObject recursively interns every Name and String leaf reachable
// from obj through Dicts and Arrays. Other object kinds, and indirect
// References, are returned unchanged.
func (p *stringPool) internObject(obj Object) Object {
	switch x := obj.(type) {
	case Name:
		return p.internName(x)
	case String:
		return p.internString(x)
	case Array:
		res := make(Array, len(x))
		for i, e := range x {
			res[i] = p.internObject(e)
		}
		return res
	case Dict:
		res := make(Dict, len(x))
		for k, v := range x {
			res[p.internName(k)] = p.internObject(v)
		}
		return res
	default:
		return obj
	}
}
