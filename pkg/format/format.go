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
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xelalexv/gcrconv/pkg/disk"
)

// Reader interface for reading in a disk image. Reads are not transactional:
// when an error occurs partway through, the returned store may be non-nil and
// hold the tracks read up to that point.
type Reader interface {
	Read(in io.Reader, p *disk.Policy) (*disk.Store, error)
}

// Writer interface for writing out a disk image
type Writer interface {
	Write(store *disk.Store, out io.Writer, p *disk.Policy) error
}

// ReaderWriter interface for reading/writing a disk image
type ReaderWriter interface {
	Reader
	Writer
}

//
func NewFormat(typ string, codec disk.Codec,
	observer disk.Observer) (ReaderWriter, error) {

	if observer == nil {
		observer = disk.NopObserver{}
	}

	switch strings.ToLower(typ) {

	case "nib":
		return NewNIB(observer), nil

	case "nb2":
		return NewNB2(codec, observer), nil

	case "g64":
		return NewG64(codec, observer), nil

	case "d64":
		return NewD64(codec, observer), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, typ)
	}
}

// IsRaw reports whether images of format typ hold raw track captures, which
// need to be aligned before their tracks can be used
func IsRaw(typ string) bool {
	switch strings.ToLower(typ) {
	case "nib", "nb2":
		return true
	}
	return false
}

// IsWritable reports whether images of format typ can be written
func IsWritable(typ string) bool {
	switch strings.ToLower(typ) {
	case "nib", "g64", "d64":
		return true
	}
	return false
}

// TypeFromName derives the image format from a file name's extension
func TypeFromName(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// layout determines halftrack step and last halftrack to read for an image
// holding the given number of track slots. Images with more than MaxTracks
// slots contain halftracks.
func layout(slots int, p *disk.Policy) (int, disk.Halftrack) {

	step := 2
	last := disk.FirstHalftrack + disk.Halftrack((slots-1)*2)

	if slots > disk.MaxTracks {
		step = 1
		last = disk.FirstHalftrack + disk.Halftrack(slots-1)
	}

	if last > disk.LastHalftrack {
		last = disk.LastHalftrack
	}
	if p.End() < last {
		last = p.End()
	}

	return step, last
}
