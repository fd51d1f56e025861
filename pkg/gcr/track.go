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

package gcr

import (
	"bytes"

	"github.com/xelalexv/gcrconv/pkg/disk"
)

// number of bytes compared when looking for the repetition of a track's start
// inside a capture
const cycleMatchLength = 16

// marker bytes of copy protection schemes that place their own sync-less
// sectors on a track
var (
	vmaxMarkers         = []byte{0x4b, 0x49, 0x69}
	vmaxCWMarkers       = []byte{0x64, 0x46, 0x4e}
	pirateSlayerPattern = []byte{0xd7, 0xd7, 0xeb, 0xcc, 0xad}
)

// ExtractTrack isolates one revolution from capture and places it rotated
// into dest. The revolution length is found by looking for the first repeat
// of the capture's start at a distance between min and max. If there is none,
// the longest allowed length is used.
func (c *Codec) ExtractTrack(dest, capture []byte, t disk.Track,
	want disk.Alignment, min, max int) (int, disk.Alignment) {

	for ix := range dest {
		dest[ix] = 0
	}

	if !isFormatted(capture) {
		return 0, disk.AlignNone
	}

	start := 0
	if want != disk.AlignRaw {
		start = firstSyncEnd(capture)
	}
	data := capture[start:]

	length := findCycle(data, min, max)
	if length > len(dest) {
		length = len(dest)
	}
	if length <= 0 {
		return 0, disk.AlignNone
	}
	rev := data[:length]

	if want == disk.AlignRaw {
		copy(dest, rev)
		return length, disk.AlignRaw
	}

	off, got := c.align(rev, t, want)
	n := copy(dest, rev[off:])
	copy(dest[n:], rev[:off])

	return length, got
}

// isFormatted reports whether capture holds anything but noise. Captures
// without any sync that are mostly zero bytes stem from unformatted tracks.
func isFormatted(capture []byte) bool {
	if len(capture) == 0 {
		return false
	}
	if hasSync(capture) {
		return true
	}
	zeros := 0
	for _, b := range capture {
		if b == 0 {
			zeros++
		}
	}
	return zeros*2 < len(capture)
}

//
func findCycle(data []byte, min, max int) int {

	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}

	if len(data) >= cycleMatchLength {
		pattern := data[:cycleMatchLength]
		for p := min; p <= max && p+cycleMatchLength <= len(data); p++ {
			if bytes.Equal(pattern, data[p:p+cycleMatchLength]) {
				return p
			}
		}
	}

	if max > len(data) {
		return len(data)
	}
	return max
}

// align determines the rotation offset for the wanted alignment. When the
// wanted alignment cannot be achieved, it falls back to the longest sync, and
// finally to no rotation.
func (c *Codec) align(rev []byte, t disk.Track, want disk.Alignment) (
	int, disk.Alignment) {

	for _, a := range []disk.Alignment{want, disk.AlignLongSync} {
		if off, ok := c.offset(rev, t, a); ok {
			return off, a
		}
	}
	return 0, disk.AlignNone
}

//
func (c *Codec) offset(rev []byte, t disk.Track, a disk.Alignment) (int, bool) {

	switch a {

	case disk.AlignNone:
		return 0, true

	case disk.AlignSec0:
		return sectorZero(rev, t)

	case disk.AlignLongSync, disk.AlignRapidlok:
		if r, ok := longest(c.Runs(rev, disk.SyncByte, minSyncBytes)); ok {
			return r.Start, true
		}

	case disk.AlignBadGCR:
		if r, ok := longest(c.Runs(rev, disk.BadGCRByte, 1)); ok {
			return r.End() % len(rev), true
		}

	case disk.AlignGap:
		if r, ok := longest(c.Runs(rev, disk.GapByte, c.gapMatch)); ok {
			return r.End() % len(rev), true
		}

	case disk.AlignAutoGap:
		if r, ok := longest(c.Gaps(rev, c.gapMatch)); ok {
			return r.End() % len(rev), true
		}

	case disk.AlignVMax:
		return markerRun(rev, vmaxMarkers)

	case disk.AlignVMaxCW:
		return markerRun(rev, vmaxCWMarkers)

	case disk.AlignPirateSlayer:
		if p := bytes.Index(rev, pirateSlayerPattern); p >= 0 {
			return p, true
		}
	}

	return 0, false
}

// sectorZero returns the start of the sync preceding the header of sector 0
func sectorZero(rev []byte, t disk.Track) (int, bool) {
	for _, p := range syncEnds(rev) {
		hd := decodeHeader(rev, p)
		if hd.GetByte("marker") == headerMarker &&
			hd.GetByte("sector") == 0 &&
			disk.Track(hd.GetByte("track")) == t {
			return syncStart(rev, p), true
		}
	}
	return 0, false
}

// markerRun returns the start of the longest run consisting of any of the
// given marker bytes
func markerRun(rev []byte, markers []byte) (int, bool) {
	r, ok := longest(runs(rev, 2, func(b byte) bool {
		return bytes.IndexByte(markers, b) >= 0
	}))
	return r.Start, ok
}
