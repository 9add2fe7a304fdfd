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

import (
	"errors"
	"fmt"
)

// maxPageTreeDepth bounds recursion into a malformed or cyclic /Pages
// tree.
const maxPageTreeDepth = 64

// walkPages flattens the Pages tree rooted at root into an ordered list
// of leaf Page object references, in the order the pages are meant to
// be displayed. A node is treated as a leaf if its /Type is /Page, or
// if it has no /Kids array; everything else is assumed to be an
// intermediate /Pages node and is recursed into.
func walkPages(r Getter, root Reference) ([]Reference, error) {
	if root == 0 {
		return nil, nil
	}

	var pages []Reference
	var visit func(ref Reference, depth int) error
	visit = func(ref Reference, depth int) error {
		if depth > maxPageTreeDepth {
			return &MalformedFileError{Err: errors.New("page tree nested too deeply")}
		}

		node, err := GetDict(r, ref)
		if err != nil {
			return err
		}
		if node == nil {
			return nil
		}

		typeName, _ := GetName(r, node["Type"])
		kids, err := GetArray(r, node["Kids"])
		if err != nil {
			return err
		}
		if typeName == "Page" || kids == nil {
			pages = append(pages, ref)
			return nil
		}

		for _, kid := range kids {
			kidRef, ok := kid.(Reference)
			if !ok {
				continue
			}
			if err := visit(kidRef, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(root, 0); err != nil {
		return nil, err
	}
	return pages, nil
}

// NumPages returns the number of pages found when the file was opened.
func (r *Reader) NumPages() int {
	return len(r.pages)
}

// GetPage returns the reference of the index-th page (zero-based), in
// reading order. The flattened page list is built once, by [NewReader];
// lookup here is O(1).
func (r *Reader) GetPage(index int) (Reference, error) {
	if index < 0 || index >= len(r.pages) {
		return 0, fmt.Errorf("page index %d out of range (have %d pages)", index, len(r.pages))
	}
	return r.pages[index], nil
}
