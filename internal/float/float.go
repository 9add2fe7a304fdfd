// seehuhn.de/go/pdf - a library for reading and writing PDF files
// Copyright (C) 2022  Jochen Voss <voss@seehuhn.de>
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

// Package float formats float64 values the way PDF numbers are
// written: no exponents, no unnecessary trailing zeros, and a leading
// "0" before the decimal point dropped for values in [0, 1).
package float

import (
	"strconv"
	"strings"
)

// Format renders x rounded to at most digits decimal places, in the
// compact form PDF numbers use (no trailing zeros, no exponent, and no
// leading "0" before the point for non-negative values; negative values
// keep it, as in "-0.2").
func Format(x float64, digits int) string {
	s := strconv.FormatFloat(x, 'f', digits, 64)

	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}

	neg := strings.HasPrefix(s, "-")
	unsigned := s
	if neg {
		unsigned = s[1:]
	}
	if unsigned == "0" || unsigned == "" {
		return "0"
	}
	if !neg && strings.HasPrefix(s, "0.") && len(s) > 2 {
		s = s[1:]
	}
	return s
}

// Round rounds x to at most digits decimal places, using the same
// rounding rule as [Format], so that Format(Round(x, digits), digits)
// always equals Format(x, digits).
func Round(x float64, digits int) float64 {
	y, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', digits, 64), 64)
	return y
}
