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

// Layout of a sector on disk: sync, header block, header gap, sync, data
// block, tail gap. Blocks are GCR encoded, everything else is not.
const (
	syncLength      = 5
	headerLength    = 8
	headerGCRLength = 10
	headerGapLength = 9
	dataLength      = 260
	dataGCRLength   = 325
	tailGapLength   = 7

	headerMarker = 0x08
	dataMarker   = 0x07
	headerFiller = 0x0f
)

// SectorToGCR encodes a sector. The error code is reproduced in the encoded
// sector, so that decoding yields the same code where possible.
func (c *Codec) SectorToGCR(data []byte, t disk.Track, sector int,
	id disk.DiskID, code disk.ErrorCode) []byte {

	hd := disk.NewBlock(disk.HeaderIndex, make([]byte, headerLength))
	hd.Data[0] = headerMarker
	hd.Data[2] = byte(sector)
	hd.Data[3] = byte(t)
	hd.Data[4] = id[1]
	hd.Data[5] = id[0]
	hd.Data[6] = headerFiller
	hd.Data[7] = headerFiller

	if code == disk.IDMismatch {
		hd.Data[5] ^= 0xff
	}
	hd.SetByte("checksum", hd.XOR("covered"))

	switch code {
	case disk.BadHeaderChecksum:
		hd.Data[1] ^= 0xff
	case disk.HeaderNotFound:
		hd.Data[0] = 0x00
	}

	blk := disk.NewBlock(disk.DataIndex, make([]byte, dataLength))
	blk.Data[0] = dataMarker
	copy(blk.Data[1:1+disk.SectorSize], data)
	blk.SetByte("checksum", blk.XOR("data"))

	switch code {
	case disk.BadDataChecksum:
		blk.Data[disk.SectorSize+1] ^= 0xff
	case disk.DataNotFound:
		blk.Data[0] = 0x00
	}

	var sync byte = disk.SyncByte
	if code == disk.SyncNotFound {
		sync = disk.GapByte
	}

	ret := make([]byte, 0, disk.GCRSectorSize)
	ret = appendRun(ret, sync, syncLength)
	ret = append(ret, Encode(hd.Data)...)
	ret = appendRun(ret, disk.GapByte, headerGapLength)
	ret = appendRun(ret, sync, syncLength)
	ret = append(ret, Encode(blk.Data)...)
	ret = appendRun(ret, disk.GapByte, tailGapLength)

	return ret
}

// GCRToSector finds the header of the requested sector in track, and decodes
// the data block following it. The track is treated as circular.
func (c *Codec) GCRToSector(track []byte, t disk.Track, sector int,
	id disk.DiskID) ([]byte, disk.ErrorCode) {

	ret := make([]byte, disk.SectorSize)

	ends := syncEnds(track)
	if len(ends) == 0 {
		return ret, disk.SyncNotFound
	}

	for ix, p := range ends {

		hd := decodeHeader(track, p)
		if hd.GetByte("marker") != headerMarker ||
			int(hd.GetByte("sector")) != sector ||
			disk.Track(hd.GetByte("track")) != t {
			continue
		}

		code := disk.SectorOK
		hid := hd.GetSlice("id")
		if hd.XOR("covered") != hd.GetByte("checksum") {
			code = disk.BadHeaderChecksum
		} else if hid[0] != id[1] || hid[1] != id[0] {
			code = disk.IDMismatch
		}

		raw, valid := Decode(
			circular(track, ends[(ix+1)%len(ends)], dataGCRLength))
		blk := disk.NewBlock(disk.DataIndex, raw)
		copy(ret, blk.GetSlice("data"))

		switch {
		case code != disk.SectorOK:
			return ret, code
		case blk.GetByte("marker") != dataMarker:
			return ret, disk.DataNotFound
		case !valid:
			return ret, disk.BadGCRCode
		case blk.XOR("data") != blk.GetByte("checksum"):
			return ret, disk.BadDataChecksum
		}

		return ret, disk.SectorOK
	}

	return ret, disk.HeaderNotFound
}

// ExtractID determines the disk id from the headers of the directory track.
// Each intact header casts a vote for the id it carries, and the id with most
// votes wins. On a tie, the id of sector 0 is preferred. Since a single header
// may deliberately carry a foreign id, sector 0 alone is only used when no
// header is intact.
func (c *Codec) ExtractID(track []byte) (disk.DiskID, error) {

	votes := map[disk.DiskID]int{}
	var order []disk.DiskID
	var sec0 *disk.DiskID

	for _, p := range syncEnds(track) {

		hd := decodeHeader(track, p)
		if hd.GetByte("marker") != headerMarker ||
			disk.Track(hd.GetByte("track")) != disk.DirectoryTrack {
			continue
		}

		hid := hd.GetSlice("id")
		id := disk.DiskID{hid[1], hid[0]}

		if hd.GetByte("sector") == 0 && sec0 == nil {
			sec0 = &id
		}
		if hd.XOR("covered") != hd.GetByte("checksum") {
			continue
		}

		if votes[id] == 0 {
			order = append(order, id)
		}
		votes[id]++
	}

	if len(order) == 0 {
		if sec0 != nil {
			return *sec0, nil
		}
		return disk.DiskID{}, disk.ErrNoDirectory
	}

	ret := order[0]
	for _, id := range order[1:] {
		if votes[id] > votes[ret] {
			ret = id
		}
	}
	if sec0 != nil && *sec0 != ret && votes[*sec0] == votes[ret] {
		ret = *sec0
	}

	return ret, nil
}

//
func decodeHeader(track []byte, pos int) *disk.Block {
	raw, _ := Decode(circular(track, pos, headerGCRLength))
	return disk.NewBlock(disk.HeaderIndex, raw)
}

//
func appendRun(buf []byte, b byte, n int) []byte {
	for ix := 0; ix < n; ix++ {
		buf = append(buf, b)
	}
	return buf
}
