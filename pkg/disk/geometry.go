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

//
const (
	MaxTracks     = 42
	MaxHalftracks = MaxTracks * 2

	FirstHalftrack Halftrack = 2
	LastHalftrack  Halftrack = MaxHalftracks + 1

	// TrackBufferLength is the capacity of every track slot, large enough for
	// a raw capture of more than one revolution
	TrackBufferLength = 0x2000

	SectorSize    = 256
	GCRSectorSize = 361

	DirectoryTrack Track = 18

	StandardTracks = 35
	ExtendedTracks = 40

	BlocksOnDisk    = 683
	MaxBlocksOnDisk = 768

	SyncByte        = 0xff
	BadGCRByte      = 0x00
	GapByte         = 0x55
	UnformattedFill = 0x00
)

// BytesPerMinute is the raw data rate of each speed zone
var BytesPerMinute = [4]float64{
	1875000.000,
	2000000.000,
	2142857.143,
	2307692.308,
}

// Capacity is the number of bytes per revolution of each speed zone at
// 300 rpm, CapacityMin and CapacityMax the same at 305 and 295 rpm.
var (
	Capacity    = capacities(300)
	CapacityMin = capacities(305)
	CapacityMax = capacities(295)
)

//
func capacities(rpm float64) [4]int {
	var ret [4]int
	for ix := range BytesPerMinute {
		ret[ix] = CapacityAt(ix, rpm)
	}
	return ret
}

// CapacityAt returns the bytes per revolution for a speed zone at given rpm
func CapacityAt(zone int, rpm float64) int {
	if zone < 0 || zone > 3 || rpm <= 0 {
		return 0
	}
	return int(BytesPerMinute[zone] / rpm)
}

// SectorCount returns the number of sectors on physical track t, or 0 if t is
// out of range
func SectorCount(t Track) int {
	switch {
	case t < 1 || t > MaxTracks:
		return 0
	case t <= 17:
		return 21
	case t <= 24:
		return 19
	case t <= 30:
		return 18
	default:
		return 17
	}
}

// SpeedZone returns the default speed zone of physical track t
func SpeedZone(t Track) int {
	switch {
	case t <= 17:
		return 3
	case t <= 24:
		return 2
	case t <= 30:
		return 1
	default:
		return 0
	}
}

// BlockOffset returns the number of sectors preceding track t in a sector
// image
func BlockOffset(t Track) int {
	ret := 0
	for tr := Track(1); tr < t; tr++ {
		ret += SectorCount(tr)
	}
	return ret
}

// BlockCount returns the number of sectors in a sector image with given
// number of tracks
func BlockCount(tracks int) int {
	return BlockOffset(Track(tracks + 1))
}
