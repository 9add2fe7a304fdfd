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

// pdfDocSpecial lists the byte codes of PDFDocEncoding (Annex D of
// ISO 32000-1:2008) whose meaning differs from Latin-1/ISO-8859-1.  Every
// other byte in 0x00-0xFF maps to the Unicode code point of the same
// value.
var pdfDocSpecial = map[byte]rune{
	0x18: '˘', // breve
	0x19: 'ˇ', // caron
	0x1A: 'ˆ', // circumflex
	0x1B: '˙', // dotaccent
	0x1C: '˝', // hungarumlaut
	0x1D: '˛', // ogonek
	0x1E: '˚', // ring
	0x1F: '˜', // small tilde

	0x80: '•', // bullet
	0x81: '†', // dagger
	0x82: '‡', // daggerdbl
	0x83: '…', // ellipsis
	0x84: '—', // emdash
	0x85: '–', // endash
	0x86: 'ƒ', // florin
	0x87: '⁄', // fraction
	0x88: '‹', // guilsinglleft
	0x89: '›', // guilsinglright
	0x8A: '−', // minus
	0x8B: '‰', // perthousand
	0x8C: '„', // quotedblbase
	0x8D: '“', // quotedblleft
	0x8E: '”', // quotedblright
	0x8F: '‘', // quoteleft
	0x90: '’', // quoteright
	0x91: '‚', // quotesinglbase
	0x92: '™', // trademark
	0x93: 'ﬁ', // fi
	0x94: 'ﬂ', // fl
	0x95: 'Ł', // Lslash
	0x96: 'Œ', // OE
	0x97: 'Š', // Scaron
	0x98: 'Ÿ', // Ydieresis
	0x99: 'Ž', // Zcaron
	0x9A: 'ı', // dotlessi
	0x9B: 'ł', // lslash
	0x9C: 'œ', // oe
	0x9D: 'š', // scaron
	0x9E: 'ž', // zcaron
	0xA0: '€', // Euro
}

var pdfDocSpecialRev = func() map[rune]byte {
	m := make(map[rune]byte, len(pdfDocSpecial))
	for b, r := range pdfDocSpecial {
		m[r] = b
	}
	return m
}()

// PDFDocEncode converts s to PDFDocEncoding, as used for PDF text strings
// that don't need Unicode support.  The second return value is false if s
// contains a character that cannot be represented.  Control characters
// below 0x18 other than tab, line feed, form feed and carriage return
// count as not representable.
func PDFDocEncode(s string) ([]byte, bool) {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x80 {
			if _, isSpecial := pdfDocSpecial[byte(r)]; isSpecial {
				return nil, false
			}
			if r < 0x18 && r != '\t' && r != '\n' && r != '\f' && r != '\r' {
				return nil, false
			}
			buf = append(buf, byte(r))
			continue
		}
		if b, ok := pdfDocSpecialRev[r]; ok {
			buf = append(buf, b)
			continue
		}
		if r <= 0xFF && r != 0xA0 {
			buf = append(buf, byte(r))
			continue
		}
		return nil, false
	}
	return buf, true
}

// pdfDocEncode is an alias for [PDFDocEncode], used internally by the
// standard security handler to pad and hash passwords.
func pdfDocEncode(s string) ([]byte, bool) {
	return PDFDocEncode(s)
}

// PDFDocDecode converts a PDFDocEncoding-encoded byte string to a Go
// string.
func PDFDocDecode(x String) string {
	runes := make([]rune, len(x))
	for i, b := range x {
		if r, ok := pdfDocSpecial[b]; ok {
			runes[i] = r
		} else {
			runes[i] = rune(b)
		}
	}
	return string(runes)
}
