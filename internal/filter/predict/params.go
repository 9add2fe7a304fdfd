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

// Package predict implements the TIFF and PNG predictors used by the
// /DecodeParms entries of the FlateDecode and LZWDecode stream filters
// (PDF 32000-1:2008, Table 8).
package predict

import "fmt"

// Params describes the predictor parameters taken from a stream's
// /DecodeParms dictionary.
type Params struct {
	Colors           int
	BitsPerComponent int
	Columns          int
	Predictor        int
}

// String returns a short human-readable description of p, for use in
// test names and error messages.
func (p Params) String() string {
	return fmt.Sprintf("predictor=%d/colors=%d/bpc=%d/columns=%d",
		p.Predictor, p.Colors, p.BitsPerComponent, p.Columns)
}

// Validate reports whether p describes a supported predictor
// configuration.
func (p Params) Validate() error {
	switch p.Predictor {
	case 1, 2, 10, 11, 12, 13, 14, 15:
	default:
		return fmt.Errorf("predict: unsupported predictor %d", p.Predictor)
	}
	if p.Colors < 1 {
		return fmt.Errorf("predict: invalid Colors %d", p.Colors)
	}
	if p.Predictor == 2 && p.Colors > 60 {
		return fmt.Errorf("predict: Colors %d too large for TIFF predictor", p.Colors)
	}
	if p.Colors > 256 {
		return fmt.Errorf("predict: invalid Colors %d", p.Colors)
	}
	switch p.BitsPerComponent {
	case 1, 2, 4, 8, 16:
	default:
		return fmt.Errorf("predict: invalid BitsPerComponent %d", p.BitsPerComponent)
	}
	if p.Columns < 1 {
		return fmt.Errorf("predict: invalid Columns %d", p.Columns)
	}
	return nil
}

func (p Params) bytesPerRow() int {
	bits := p.Colors * p.BitsPerComponent * p.Columns
	return (bits + 7) / 8
}

func (p Params) bytesPerPixel() int {
	bits := p.Colors * p.BitsPerComponent
	n := (bits + 7) / 8
	if n < 1 {
		n = 1
	}
	return n
}
