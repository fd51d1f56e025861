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
)

// position of the disk id in the BAM of a D64 image
const d64IDOffset = 0x165a2

// D64 is a reader/writer for D64 format, a plain sector dump with an optional
// error table of one byte per sector
type D64 struct {
	codec    disk.Codec
	observer disk.Observer
}

//
func NewD64(codec disk.Codec, observer disk.Observer) *D64 {
	return &D64{codec: codec, observer: observer}
}

// d64Geometry returns number of tracks and presence of an error table for an
// image of given size
func d64Geometry(size int) (int, bool, error) {
	switch size {
	case disk.BlocksOnDisk * disk.SectorSize:
		return disk.StandardTracks, false, nil
	case disk.BlocksOnDisk * (disk.SectorSize + 1):
		return disk.StandardTracks, true, nil
	case disk.MaxBlocksOnDisk * disk.SectorSize:
		return disk.ExtendedTracks, false, nil
	case disk.MaxBlocksOnDisk * (disk.SectorSize + 1):
		return disk.ExtendedTracks, true, nil
	}
	return 0, false, formatErrorf("D64", "unknown image size: %d", size)
}

// Read GCR encodes all sectors, reproducing the errors recorded in the error
// table if present. For a 35 track image, the remaining tracks up to the end
// of the policy's range are set up as unformatted.
func (d *D64) Read(in io.Reader, p *disk.Policy) (*disk.Store, error) {

	data, err := readAll(in)
	if err != nil {
		return nil, err
	}

	tracks, hasErrors, err := d64Geometry(len(data))
	if err != nil {
		return nil, err
	}

	blocks := disk.BlockCount(tracks)
	var errs []byte
	if hasErrors {
		errs = data[blocks*disk.SectorSize:]
	}

	id := disk.DiskID{data[d64IDOffset], data[d64IDOffset+1]}
	d.observer.FormatDetected("D64", tracks, false)

	store := disk.NewStore()
	block := 0

	for t := disk.Track(1); t <= disk.Track(tracks); t++ {

		n := disk.SectorCount(t)
		codes := make([]disk.ErrorCode, n)

		for s := range codes {
			codes[s] = disk.SectorOK
			if errs != nil && !disk.ErrorCode(errs[block+s]).IsOK() {
				codes[s] = disk.ErrorCode(errs[block+s])
				d.observer.SectorError(t, s, codes[s])
			}
		}

		off := block * disk.SectorSize
		gcr := disk.EncodeTrack(
			d.codec, data[off:off+n*disk.SectorSize], t, id, codes)
		block += n

		slot := store.TrackSlot(t)
		if err := slot.Set(gcr); err != nil {
			return store, err
		}
		slot.Density = disk.Density(disk.SpeedZone(t))
		slot.Alignment = disk.AlignSec0

		d.observer.TrackLoaded(t.Halftrack(), slot)
	}

	if tracks == disk.StandardTracks {
		for h := disk.Track(tracks + 1).Halftrack(); h <= p.End(); h += 2 {
			slot := store.Slot(h)
			slot.Clear()
			slot.Density = disk.Density(2) | disk.NoSync
		}
	}

	return store, nil
}

// Write decodes all sectors of the tracks in the policy's range, up to track
// 40. Sectors outside of the range are left empty. Tracks beyond 35 are only
// written if they contain at least one good sector. The error table is added
// when any sector of the written tracks did not decode cleanly.
func (d *D64) Write(store *disk.Store, out io.Writer, p *disk.Policy) error {

	id, err := d.codec.ExtractID(store.Directory().Data())
	if err != nil {
		return &disk.FatalError{Err: err}
	}

	img := make([]byte, disk.MaxBlocksOnDisk*disk.SectorSize)
	table := make([]byte, disk.MaxBlocksOnDisk)
	for ix := range table {
		table[ix] = byte(disk.SectorOK)
	}

	var errors35, errors40, has40 bool

	first, last := p.Start().Track(), p.End().Track()
	if first < 1 {
		first = 1
	}
	if last > disk.ExtendedTracks {
		last = disk.ExtendedTracks
	}

	for t := first; t <= last; t++ {

		data := store.TrackSlot(t).Data()

		for s := 0; s < disk.SectorCount(t); s++ {

			block := disk.BlockOffset(t) + s
			sec, code := d.codec.GCRToSector(data, t, s, id)
			copy(img[block*disk.SectorSize:], sec)
			table[block] = byte(code)

			switch {
			case !code.IsOK() && t <= disk.StandardTracks:
				errors35 = true
				d.observer.SectorError(t, s, code)
			case !code.IsOK():
				errors40 = true
			case t > disk.StandardTracks:
				has40 = true
			}
		}
	}

	blocks := disk.BlocksOnDisk
	if has40 {
		blocks = disk.MaxBlocksOnDisk
	}

	if err := writeAll(out, img[:blocks*disk.SectorSize]); err != nil {
		return err
	}
	if errors35 || (has40 && errors40) {
		return writeAll(out, table[:blocks])
	}
	return nil
}
