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

// Package track holds the track level processing steps applied between
// reading and writing an image: selecting the best of several captures of a
// track, aligning raw captures, and reducing tracks to a target capacity.
package track

import (
	"github.com/xelalexv/gcrconv/pkg/disk"
)

// Selector picks the best of several raw captures of the same halftrack
type Selector struct {
	codec    disk.Codec
	observer disk.Observer
}

//
func NewSelector(codec disk.Codec, observer disk.Observer) *Selector {
	if observer == nil {
		observer = disk.NopObserver{}
	}
	return &Selector{codec: codec, observer: observer}
}

// Select extracts a revolution from each candidate capture, and scores it by
// the number of sectors that fail to decode. It returns the index of the
// winning candidate and its error count, or -1 if there are no candidates.
func (s *Selector) Select(h disk.Halftrack, d disk.Density,
	candidates [][]byte, id disk.DiskID) (int, int) {

	if len(candidates) == 0 {
		return -1, 0
	}

	zone := d.Zone()
	buf := make([]byte, disk.TrackBufferLength)
	scores := make([]int, len(candidates))

	for ix, c := range candidates {
		n, _ := s.codec.ExtractTrack(buf, c, h.Track(), disk.AlignNone,
			disk.CapacityMin[zone], disk.CapacityMax[zone])
		scores[ix] = s.codec.CheckErrors(buf[:n], h.Track(), id)
	}

	best := Best(scores)
	s.observer.PassSelected(h, best, scores[best])
	return best, scores[best]
}

// Best returns the index of the strictly lowest score. On ties, the earliest
// score wins. For an empty list, -1 is returned.
func Best(scores []int) int {
	ret := -1
	for ix, s := range scores {
		if ret < 0 || s < scores[ret] {
			ret = ix
		}
	}
	return ret
}
