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
	"github.com/xelalexv/gcrconv/pkg/disk"
)

// minimum number of sync bytes recognized as a sync mark
const minSyncBytes = 2

// syncEnds returns the positions of the first byte after each sync mark,
// treating track as circular
func syncEnds(track []byte) []int {
	n := len(track)
	if n <= minSyncBytes {
		return nil
	}
	var ret []int
	for p := 0; p < n; p++ {
		if track[p] != disk.SyncByte &&
			track[(p+n-1)%n] == disk.SyncByte &&
			track[(p+n-2)%n] == disk.SyncByte {
			ret = append(ret, p)
		}
	}
	return ret
}

// firstSyncEnd returns the position after the first sync mark, not wrapping
// around at the end of track, or 0 if there is none
func firstSyncEnd(track []byte) int {
	for p := minSyncBytes; p < len(track); p++ {
		if track[p] != disk.SyncByte &&
			track[p-1] == disk.SyncByte && track[p-2] == disk.SyncByte {
			return p
		}
	}
	return 0
}

// syncStart walks back from the end of a sync mark to its first byte
func syncStart(track []byte, end int) int {
	n := len(track)
	p := end
	for ix := 0; ix < n; ix++ {
		prev := (p + n - 1) % n
		if track[prev] != disk.SyncByte {
			break
		}
		p = prev
	}
	return p
}

//
func hasSync(track []byte) bool {
	for p := 1; p < len(track); p++ {
		if track[p] == disk.SyncByte && track[p-1] == disk.SyncByte {
			return true
		}
	}
	return false
}

// circular returns n bytes of track starting at pos, wrapping around at the
// end of track
func circular(track []byte, pos, n int) []byte {
	ret := make([]byte, n)
	if len(track) == 0 {
		return ret
	}
	for ix := range ret {
		ret[ix] = track[(pos+ix)%len(track)]
	}
	return ret
}

// Runs returns all runs of marker in track that are at least min bytes long
func (c *Codec) Runs(track []byte, marker byte, min int) []disk.Run {
	return runs(track, min, func(b byte) bool { return b == marker })
}

// Gaps returns all runs of at least min identical bytes other than sync and
// bad GCR markers. These are the gaps between and inside of sectors.
func (c *Codec) Gaps(track []byte, min int) []disk.Run {
	var ret []disk.Run
	for ix := 0; ix < len(track); {
		b := track[ix]
		start := ix
		for ix < len(track) && track[ix] == b {
			ix++
		}
		if b == disk.SyncByte || b == disk.BadGCRByte {
			continue
		}
		if ix-start >= min {
			ret = append(ret, disk.Run{Start: start, Length: ix - start})
		}
	}
	return ret
}

//
func runs(track []byte, min int, match func(b byte) bool) []disk.Run {
	if min < 1 {
		min = 1
	}
	var ret []disk.Run
	for ix := 0; ix < len(track); {
		if !match(track[ix]) {
			ix++
			continue
		}
		start := ix
		for ix < len(track) && match(track[ix]) {
			ix++
		}
		if ix-start >= min {
			ret = append(ret, disk.Run{Start: start, Length: ix - start})
		}
	}
	return ret
}

// longest returns the first of the longest runs
func longest(runs []disk.Run) (disk.Run, bool) {
	var ret disk.Run
	found := false
	for _, r := range runs {
		if !found || r.Length > ret.Length {
			ret = r
			found = true
		}
	}
	return ret, found
}
