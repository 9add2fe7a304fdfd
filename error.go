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
	"errors"
	"fmt"
	"strconv"
)

var (
	errVersion      = errors.New("unsupported PDF version")
	errCorrupted    = errors.New("corrupted ciphertext")
	errNoDate       = errors.New("not a valid date string")
	errNoRectangle  = errors.New("not a valid PDF rectangle")
	errDuplicateRef = errors.New("object already written")
	errShortID      = errors.New("PDF file identifier too short")

	errNoRoot        = errors.New("trailer has no /Root entry")
	errDanglingRef   = errors.New("dangling indirect reference")
	errNestingTooDeep = errors.New("object nesting too deep")
	errStreamOpen    = errors.New("a stream is already open for this object")
	errWriteOnReader = errors.New("cannot write to a File opened for reading")
	errClosed        = errors.New("operation on a closed File")
	errUnknownFilter = errors.New("unknown stream filter")
	errBadDecodeParms = errors.New("invalid /DecodeParms")
	errInvalidPassword = errors.New("password cannot be represented in PDFDocEncoding")
)

// Kind classifies an error into one of a small set of categories: IO,
// Syntax, Reference, Crypto, Filter, State, Resource.  It is not a
// replacement for Go's normal error wrapping; it is a coarse, documented
// way for callers to decide whether a read error is recoverable enough
// to keep extracting objects.
type Kind int

const (
	KindIO Kind = iota
	KindSyntax
	KindReference
	KindCrypto
	KindFilter
	KindState
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IO"
	case KindSyntax:
		return "Syntax"
	case KindReference:
		return "Reference"
	case KindCrypto:
		return "Crypto"
	case KindFilter:
		return "Filter"
	case KindState:
		return "State"
	case KindResource:
		return "Resource"
	default:
		return "Unknown"
	}
}

// Error is an error value annotated with a [Kind] from the taxonomy in
// §7.  Crypto and filter failures, among others, are returned as *Error;
// many structural read failures are reported as [MalformedFileError]
// instead.  Callers that want to distinguish e.g. a State error
// (retryable after closing a stream) from a Syntax error (the file is
// malformed) can use [errors.As].
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Err: err}
}

// wrap annotates err with a short context label, e.g. the dictionary key
// being processed when the error occurred.
func wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrap is the exported form of [wrap], for use by callers outside this
// package's error-construction helpers.
func Wrap(err error, context string) error {
	return wrap(err, context)
}

// AuthenticationError indicates that authentication failed because the correct
// password has not been supplied.
type AuthenticationError struct {
	ID []byte
}

func (err *AuthenticationError) Error() string {
	if err.ID == nil {
		return "authentication failed"
	}
	return fmt.Sprintf("authentication failed for document ID %x", err.ID)
}

// MalformedFileError indicates that the PDF file could not be parsed.
type MalformedFileError struct {
	Err error
	Pos int64

	// Loc, if non-empty, gives a trail of context strings (innermost
	// first) describing where in the object graph the error occurred,
	// e.g. "object 12 0 R".
	Loc []string
}

func (err *MalformedFileError) Error() string {
	middle := ""
	if err.Err != nil {
		middle = ": " + err.Err.Error()
	}
	tail := ""
	if err.Pos > 0 {
		tail = " (at byte " + strconv.FormatInt(err.Pos, 10) + ")"
	}
	loc := ""
	for _, l := range err.Loc {
		loc += " in " + l
	}
	return "not a valid PDF file" + middle + loc + tail
}

func (err *MalformedFileError) Unwrap() error {
	return err.Err
}

// VersionError is returned when trying to use a feature in a PDF file which is
// not supported by the PDF version used.  Use [Writer.CheckVersion] to create
// VersionError objects.
type VersionError struct {
	Operation string
	Earliest  Version
}

func (err *VersionError) Error() string {
	return (err.Operation + " requires PDF version " +
		err.Earliest.String() + " or later")
}
