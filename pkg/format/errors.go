/*
   GCRConv - Commodore 1541 disk image converter
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of GCRConv.

   GCRConv is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   GCRConv is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with GCRConv. If not, see <http://www.gnu.org/licenses/>.
*/

package format

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrNotWritable       = errors.New("image format is read-only")
)

// FormatError signals an image that does not adhere to its format, e.g.
// because of a bad signature, a truncated header, or an unexpected size
type FormatError struct {
	Format string
	Reason string
}

//
func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid %s image: %s", e.Format, e.Reason)
}

//
func formatErrorf(format, reason string, args ...interface{}) error {
	return &FormatError{Format: format, Reason: fmt.Sprintf(reason, args...)}
}

// IOError wraps failures of the underlying reader or writer
type IOError struct {
	Op  string
	Err error
}

//
func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

//
func (e *IOError) Unwrap() error {
	return e.Err
}

//
func readAll(in io.Reader) ([]byte, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, &IOError{Op: "reading image", Err: err}
	}
	return data, nil
}

//
func writeAll(out io.Writer, data []byte) error {
	if _, err := out.Write(data); err != nil {
		return &IOError{Op: "writing image", Err: err}
	}
	return nil
}
