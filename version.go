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

import "fmt"

// Version represents a PDF version as used in the file header and, for
// PDF 1.4 and later, a possible /Version entry in the document catalog.
type Version int

// The PDF versions supported by this package.
const (
	V1_0 Version = iota
	V1_1
	V1_2
	V1_3
	V1_4
	V1_5
	V1_6
	V1_7
	V2_0

	tooHighVersion // sentinel, one past the last valid version
)

// ParseVersion parses a version string like "1.7" or "2.0".
func ParseVersion(s string) (Version, error) {
	for v := V1_0; v < tooHighVersion; v++ {
		str, err := v.ToString()
		if err == nil && str == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("pdf: invalid version %q", s)
}

// ToString returns the version as used in the PDF file header, e.g. "1.7".
func (v Version) ToString() (string, error) {
	switch v {
	case V1_0:
		return "1.0", nil
	case V1_1:
		return "1.1", nil
	case V1_2:
		return "1.2", nil
	case V1_3:
		return "1.3", nil
	case V1_4:
		return "1.4", nil
	case V1_5:
		return "1.5", nil
	case V1_6:
		return "1.6", nil
	case V1_7:
		return "1.7", nil
	case V2_0:
		return "2.0", nil
	default:
		return "", fmt.Errorf("pdf: invalid version %d", int(v))
	}
}

// String implements the [fmt.Stringer] interface.
func (v Version) String() string {
	s, err := v.ToString()
	if err != nil {
		return fmt.Sprintf("pdf.Version(%d)", int(v))
	}
	return s
}
