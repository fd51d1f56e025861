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

package track

import (
	"github.com/xelalexv/gcrconv/pkg/disk"
)

const (
	// shortest gap considered for gap reduction, and its reduced length
	minGapLength  = 5
	keepGapLength = 4
)

// Reducer compresses tracks exceeding a target capacity. It first shortens
// sync runs, then bad GCR runs, then sector gaps, as enabled by the policy for
// the track. Whatever still exceeds capacity after that is cut off the end.
type Reducer struct {
	codec    disk.Codec
	policy   *disk.Policy
	observer disk.Observer
}

//
func NewReducer(codec disk.Codec, p *disk.Policy,
	observer disk.Observer) *Reducer {
	if observer == nil {
		observer = disk.NopObserver{}
	}
	return &Reducer{codec: codec, policy: p, observer: observer}
}

// Reduce returns a copy of track in a fresh buffer of TrackBufferLength bytes,
// reduced to at most capacity bytes, together with its reduced length. A track
// of zero length flagged as without sync is returned as a full buffer of
// unformatted data.
func (r *Reducer) Reduce(h disk.Halftrack, track []byte, d disk.Density,
	length, capacity int) ([]byte, int) {

	buf := make([]byte, disk.TrackBufferLength)
	if length > len(buf) {
		length = len(buf)
	}
	if length > len(track) {
		length = len(track)
	}
	copy(buf, track[:length])

	if length == 0 {
		if d.IsNoSync() {
			for ix := range buf {
				buf[ix] = disk.UnformattedFill
			}
			return buf, len(buf)
		}
		return buf, 0
	}

	t := h.Track()
	reduce := r.policy.Reduction(t)

	if length > capacity && !d.IsNoSync() && reduce&disk.ReduceSync != 0 {
		length = r.step(h, "sync", buf, length, capacity, r.policy.MinSync(),
			func(data []byte) []disk.Run {
				return r.codec.Runs(data, disk.SyncByte, r.policy.MinSync()+1)
			})
	}

	if length > capacity && reduce&disk.ReduceBadGCR != 0 {
		length = r.step(h, "badgcr", buf, length, capacity, 0,
			func(data []byte) []disk.Run {
				return r.codec.Runs(data, disk.BadGCRByte, 1)
			})
	}

	if length > capacity && reduce&disk.ReduceGap != 0 {
		length = r.step(h, "gap", buf, length, capacity, keepGapLength,
			func(data []byte) []disk.Run {
				return r.codec.Gaps(data, minGapLength)
			})
	}

	if length > capacity {
		r.observer.TrackTruncated(h, length-capacity)
		zero(buf[capacity:length])
		length = capacity
	}

	return buf, length
}

// step repeatedly shortens the longest run found by scan, never below keep
// bytes, until length fits capacity or no run can be shortened any more
func (r *Reducer) step(h disk.Halftrack, name string, buf []byte, length,
	capacity, keep int, scan func([]byte) []disk.Run) int {

	orig := length

	for length > capacity {

		var first, second disk.Run
		for _, run := range scan(buf[:length]) {
			if run.Length <= keep {
				continue
			}
			if run.Length > first.Length {
				first, second = run, first
			} else if run.Length > second.Length {
				second = run
			}
		}

		if first.Length == 0 {
			break
		}

		level := keep
		if second.Length > level {
			level = second.Length
		}
		cut := first.Length - level
		if cut < 1 {
			cut = 1
		}
		if cut > length-capacity {
			cut = length - capacity
		}

		length = remove(buf, length, first.Start, cut)
	}

	if orig > length {
		r.observer.TrackReduced(h, name, orig-length)
	}
	return length
}

// remove cuts n bytes at pos out of the first length bytes of buf, and
// returns the new length
func remove(buf []byte, length, pos, n int) int {
	copy(buf[pos:], buf[pos+n:length])
	zero(buf[length-n : length])
	return length - n
}

//
func zero(buf []byte) {
	for ix := range buf {
		buf[ix] = 0
	}
}
