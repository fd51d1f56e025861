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
	"io"

	"github.com/xelalexv/gcrconv/pkg/disk"
	"github.com/xelalexv/gcrconv/pkg/track"
)

// each NB2 track slot holds four captures for each of the four densities
const (
	nb2Densities = 4
	nb2Repeats   = 4
	nb2Passes    = nb2Densities * nb2Repeats
	nb2SlotSize  = nb2Passes * disk.TrackBufferLength
)

// NB2 is a reader for NB2 format, a NIB variant with multiple captures per
// track. For each track, the capture that decodes with the least errors is
// selected. NB2 images cannot be written.
type NB2 struct {
	codec    disk.Codec
	observer disk.Observer
}

//
func NewNB2(codec disk.Codec, observer disk.Observer) *NB2 {
	return &NB2{codec: codec, observer: observer}
}

//
func (n *NB2) Read(in io.Reader, p *disk.Policy) (*disk.Store, error) {

	data, err := readAll(in)
	if err != nil {
		return nil, err
	}

	hd, err := parseNIBHeader(data, "NB2")
	if err != nil {
		return nil, err
	}

	slots := (len(data) - nibHeaderSize) / nb2SlotSize
	if slots == 0 {
		return nil, formatErrorf("NB2", "no track data")
	}

	step, last := layout(slots, p)
	n.observer.FormatDetected("NB2", slots, step == 1)

	id, err := n.diskID(data, step)
	if err != nil {
		return nil, err
	}

	store := disk.NewStore()
	sel := track.NewSelector(n.codec, n.observer)

	for ix := 0; ix < slots && ix < nibEntries; ix++ {

		h := disk.FirstHalftrack + disk.Halftrack(ix*step)
		if h > last {
			break
		}

		d := disk.Density(hd.Entries[ix].Density)
		base := nibHeaderSize + ix*nb2SlotSize

		var candidates [][]byte
		for pass := 0; pass < nb2Passes; pass++ {
			if pass/nb2Repeats == d.Zone() {
				off := base + pass*disk.TrackBufferLength
				candidates = append(candidates,
					data[off:off+disk.TrackBufferLength])
			}
		}

		best, _ := sel.Select(h, d, candidates, id)

		slot := store.Slot(h)
		copy(slot.Raw, candidates[best])
		slot.Length = disk.TrackBufferLength
		slot.Density = d
		slot.Alignment = disk.AlignRaw

		n.observer.TrackLoaded(h, slot)
	}

	return store, nil
}

// diskID extracts the disk id from the first capture of the directory track
// at its default density
func (n *NB2) diskID(data []byte, step int) (disk.DiskID, error) {

	entry := int(disk.DirectoryTrack.Halftrack()-disk.FirstHalftrack) / step
	zone := disk.SpeedZone(disk.DirectoryTrack)
	off := nibHeaderSize + entry*nb2SlotSize +
		zone*nb2Repeats*disk.TrackBufferLength

	if off+disk.TrackBufferLength > len(data) {
		return disk.DiskID{}, &disk.FatalError{Err: disk.ErrNoDirectory}
	}

	id, err := n.codec.ExtractID(data[off : off+disk.TrackBufferLength])
	if err != nil {
		return disk.DiskID{}, &disk.FatalError{Err: err}
	}
	return id, nil
}

//
func (n *NB2) Write(store *disk.Store, out io.Writer, p *disk.Policy) error {
	return ErrNotWritable
}
