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

package disk

import (
	"errors"
	"fmt"
)

// ErrNoDirectory is returned when the directory sector, and hence the disk id,
// cannot be found
var ErrNoDirectory = errors.New("cannot find directory sector")

// FatalError signals that the disk id is unrecoverable. Since the id is
// needed for every sector level conversion, the whole operation is aborted.
type FatalError struct {
	Err error
}

//
func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

//
func (e *FatalError) Unwrap() error {
	return e.Err
}

// Codec converts between sector data and GCR bit streams
type Codec interface {

	// SectorToGCR encodes one sector of SectorSize bytes into its on-disk
	// representation of GCRSectorSize bytes, reproducing the given error code
	SectorToGCR(data []byte, t Track, sector int, id DiskID, code ErrorCode) []byte

	// GCRToSector locates and decodes a sector inside GCR track data. The
	// decoded bytes are returned on a best effort basis, also when the error
	// code is not SectorOK.
	GCRToSector(track []byte, t Track, sector int, id DiskID) ([]byte, ErrorCode)

	// ExtractID finds the disk id in the GCR data of the directory track
	ExtractID(track []byte) (DiskID, error)

	// ExtractTrack isolates one revolution of between min and max bytes from
	// a raw capture, rotates it according to the wanted alignment, and places
	// it in dest. It returns the length of the revolution and the alignment
	// that was actually achieved.
	ExtractTrack(dest, capture []byte, t Track, want Alignment,
		min, max int) (int, Alignment)

	// CheckErrors returns the number of sectors of track t that do not decode
	// cleanly
	CheckErrors(track []byte, t Track, id DiskID) int

	// CountBadGCR returns the number of bytes containing invalid GCR
	CountBadGCR(track []byte) int

	// Runs finds all runs of marker of at least min bytes
	Runs(track []byte, marker byte, min int) []Run

	// Gaps finds all inter-sector gaps of at least min bytes
	Gaps(track []byte, min int) []Run
}

// EncodeTrack encodes consecutive sectors of track t from data into one GCR
// track, reproducing the error codes given per sector. Missing codes are
// taken as SectorOK, missing data as zeros.
func EncodeTrack(c Codec, data []byte, t Track, id DiskID,
	codes []ErrorCode) []byte {

	n := SectorCount(t)
	ret := make([]byte, 0, n*GCRSectorSize)
	sec := make([]byte, SectorSize)

	for s := 0; s < n; s++ {

		for ix := range sec {
			sec[ix] = 0
		}
		if off := s * SectorSize; off < len(data) {
			copy(sec, data[off:])
		}

		code := SectorOK
		if s < len(codes) {
			code = codes[s]
		}

		ret = append(ret, c.SectorToGCR(sec, t, s, id, code)...)
	}

	return ret
}
