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

import "testing"

func TestStringPoolInterning(t *testing.T) {
	var p stringPool

	a := p.intern([]byte("Font"))
	b := p.intern([]byte("Font"))
	if &a[0] != &b[0] {
		t.Error("interning equal strings returned different pointers")
	}

	c := p.intern([]byte("Page"))
	if &a[0] == &c[0] {
		t.Error("interning distinct strings returned the same pointer")
	}

	if !p.owns(a) {
		t.Error("owns(a) is false for a pool-produced slice")
	}
	if p.owns([]byte("Font")) {
		t.Error("owns reported a caller-owned slice as pool-owned")
	}
}

func TestStringPoolSorted(t *testing.T) {
	var p stringPool
	words := []string{"Page", "Font", "XObject", "Annot", "Font"}
	for _, w := range words {
		p.intern([]byte(w))
	}

	if len(p.entries) != 4 {
		t.Fatalf("got %d entries, want 4 (duplicates must not be re-added)", len(p.entries))
	}
	for i := 1; i < len(p.entries); i++ {
		if string(p.entries[i-1]) >= string(p.entries[i]) {
			t.Errorf("entries not sorted: %q >= %q", p.entries[i-1], p.entries[i])
		}
	}
}

func TestInternObjectDedup(t *testing.T) {
	var p stringPool

	d1 := Dict{"Type": Name("Font"), "Subtype": Name("Type1")}
	d2 := Dict{"Type": Name("Font"), "Parent": Name("Type1")}

	r1 := p.internObject(d1).(Dict)
	r2 := p.internObject(d2).(Dict)

	n1 := string(r1["Subtype"].(Name))
	n2 := string(r2["Parent"].(Name))
	if n1 != n2 {
		t.Fatalf("expected equal names, got %q and %q", n1, n2)
	}

	b1 := []byte(r1["Subtype"].(Name))
	b2 := []byte(r2["Parent"].(Name))
	if &b1[0] != &b2[0] {
		t.Error("internObject did not share storage for equal Names found via different Dicts")
	}
}
