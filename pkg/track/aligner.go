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

// Aligner turns the raw captures held in a store into single, aligned
// revolutions
type Aligner struct {
	codec    disk.Codec
	policy   *disk.Policy
	observer disk.Observer
}

//
func NewAligner(codec disk.Codec, p *disk.Policy,
	observer disk.Observer) *Aligner {
	if observer == nil {
		observer = disk.NopObserver{}
	}
	return &Aligner{codec: codec, policy: p, observer: observer}
}

// Align processes all halftracks in the policy's range. Each slot's content
// is replaced by the extracted revolution, and its length and achieved
// alignment are recorded in the slot.
func (a *Aligner) Align(store *disk.Store) {

	capture := make([]byte, disk.TrackBufferLength)

	for _, h := range a.policy.Halftracks() {

		slot := store.Slot(h)
		if slot == nil {
			continue
		}

		n := copy(capture, slot.Data())
		t := h.Track()
		zone := slot.Density.Zone()

		slot.Length, slot.Alignment = a.codec.ExtractTrack(
			slot.Raw, capture[:n], t, a.policy.Alignment(t),
			disk.CapacityMin[zone], disk.CapacityMax[zone])

		a.observer.TrackAligned(h, slot)
	}
}
