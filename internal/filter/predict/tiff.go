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

package predict

// tiffEncodeRow applies horizontal differencing (PDF Predictor 2) across
// each color channel of row, leaving the first pixel unchanged.  The
// result is returned in a new slice; row itself is not modified.
func tiffEncodeRow(row []byte, p Params) []byte {
	mod := uint32(1) << uint(p.BitsPerComponent)
	samples := unpackSamples(row, p.BitsPerComponent, p.Columns*p.Colors)
	for col := p.Columns - 1; col > 0; col-- {
		for k := 0; k < p.Colors; k++ {
			i := col*p.Colors + k
			j := (col-1)*p.Colors + k
			samples[i] = (samples[i] - samples[j] + mod) % mod
		}
	}
	return packSamples(samples, p.BitsPerComponent, p.Columns*p.Colors)
}

// tiffDecodeRow reverses tiffEncodeRow.
func tiffDecodeRow(row []byte, p Params) []byte {
	mod := uint32(1) << uint(p.BitsPerComponent)
	samples := unpackSamples(row, p.BitsPerComponent, p.Columns*p.Colors)
	for col := 1; col < p.Columns; col++ {
		for k := 0; k < p.Colors; k++ {
			i := col*p.Colors + k
			j := (col-1)*p.Colors + k
			samples[i] = (samples[i] + samples[j]) % mod
		}
	}
	return packSamples(samples, p.BitsPerComponent, p.Columns*p.Colors)
}
