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
	"fmt"
	"strings"
)

// Track is a physical track number, starting at 1
type Track int

// Halftrack is a head position in half track steps, i.e. a physical track
// number times two. Odd values denote the position between two tracks.
type Halftrack int

//
func (t Track) Halftrack() Halftrack {
	return Halftrack(t * 2)
}

//
func (t Track) IsValid() bool {
	return 1 <= t && t <= MaxTracks
}

//
func (h Halftrack) Track() Track {
	return Track(h / 2)
}

//
func (h Halftrack) IsHalf() bool {
	return h%2 != 0
}

//
func (h Halftrack) IsValid() bool {
	return FirstHalftrack <= h && h <= LastHalftrack
}

//
func (h Halftrack) String() string {
	return fmt.Sprintf("%4.1f", float64(h)/2)
}

// Density is the density byte kept for each halftrack. The lower two bits
// select the speed zone, the upper bits carry track flags.
type Density byte

const (
	Match   Density = 0x10 // not used, but exists in very old images
	NoCycle Density = 0x20
	NoSync  Density = 0x40
	Killer  Density = 0x80

	zoneMask Density = 0x03
)

//
func (d Density) Zone() int {
	return int(d & zoneMask)
}

//
func (d Density) IsNoSync() bool {
	return d&NoSync != 0
}

//
func (d Density) IsKiller() bool {
	return d&Killer != 0
}

// Capacity returns the nominal number of bytes per revolution at 300 rpm for
// the density's speed zone.
func (d Density) Capacity() int {
	return Capacity[d.Zone()]
}

//
func (d Density) String() string {
	ret := fmt.Sprintf("%d", d.Zone())
	if d.IsNoSync() {
		ret += " NOSYNC"
	}
	if d.IsKiller() {
		ret += " KILLER"
	}
	return ret
}

// Alignment records the strategy that was used for positioning the start of
// a track's content.
type Alignment byte

const (
	AlignNone Alignment = iota
	AlignGap
	AlignSec0
	AlignLongSync
	AlignBadGCR
	AlignVMax
	AlignAutoGap
	AlignVMaxCW
	AlignRaw
	AlignPirateSlayer
	AlignRapidlok
)

var alignmentNames = []string{
	"none", "gap", "sec0", "sync", "badgcr", "vmax", "autogap", "vmax-cw",
	"raw", "pirateslayer", "rapidlok",
}

//
func (a Alignment) String() string {
	if int(a) < len(alignmentNames) {
		return strings.ToUpper(alignmentNames[a])
	}
	return "<unknown>"
}

//
func ParseAlignment(s string) (Alignment, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for ix, n := range alignmentNames {
		if n == s {
			return Alignment(ix), nil
		}
	}
	return AlignNone, fmt.Errorf("unknown alignment: '%s'", s)
}

// Reduction is a set of track reduction heuristics
type Reduction byte

const (
	ReduceNone   Reduction = 0x00
	ReduceSync   Reduction = 0x01
	ReduceBadGCR Reduction = 0x02
	ReduceGap    Reduction = 0x04
)

//
func (r Reduction) String() string {
	var ret []string
	if r&ReduceSync != 0 {
		ret = append(ret, "sync")
	}
	if r&ReduceBadGCR != 0 {
		ret = append(ret, "badgcr")
	}
	if r&ReduceGap != 0 {
		ret = append(ret, "gap")
	}
	if len(ret) == 0 {
		return "none"
	}
	return strings.Join(ret, ",")
}

//
func ParseReduction(items []string) (Reduction, error) {
	var ret Reduction
	for _, i := range items {
		switch strings.ToLower(strings.TrimSpace(i)) {
		case "sync":
			ret |= ReduceSync
		case "badgcr", "bad":
			ret |= ReduceBadGCR
		case "gap":
			ret |= ReduceGap
		case "none", "":
		default:
			return ReduceNone, fmt.Errorf("unknown reduction: '%s'", i)
		}
	}
	return ret, nil
}

// DiskID is the two byte identifier stored in the BAM and in every sector
// header of a disk
type DiskID [2]byte

//
func (id DiskID) String() string {
	return DecodePETSCII(id[:])
}

// ErrorCode is a per sector decode result, using the values found in D64
// error tables
type ErrorCode byte

const (
	SectorOK          ErrorCode = 0x01
	HeaderNotFound    ErrorCode = 0x02
	SyncNotFound      ErrorCode = 0x03
	DataNotFound      ErrorCode = 0x04
	BadDataChecksum   ErrorCode = 0x05
	BadGCRCode        ErrorCode = 0x06
	VerifyError       ErrorCode = 0x07
	WriteProtected    ErrorCode = 0x08
	BadHeaderChecksum ErrorCode = 0x09
	IDMismatch        ErrorCode = 0x0b
	DriveNotReady     ErrorCode = 0x0f
)

// IsOK reports whether the code denotes a good sector. Zero is used by some
// tools for sectors without recorded error.
func (e ErrorCode) IsOK() bool {
	return e == SectorOK || e == 0
}

//
func (e ErrorCode) String() string {
	switch e {
	case 0, SectorOK:
		return "ok"
	case HeaderNotFound:
		return "header not found"
	case SyncNotFound:
		return "sync not found"
	case DataNotFound:
		return "data not found"
	case BadDataChecksum:
		return "data checksum error"
	case BadGCRCode:
		return "bad GCR"
	case VerifyError:
		return "verify error"
	case WriteProtected:
		return "write protected"
	case BadHeaderChecksum:
		return "header checksum error"
	case IDMismatch:
		return "disk id mismatch"
	case DriveNotReady:
		return "drive not ready"
	default:
		return fmt.Sprintf("error 0x%02x", byte(e))
	}
}

// Run is a sequence of identical bytes inside a track
type Run struct {
	Start  int
	Length int
}

//
func (r Run) End() int {
	return r.Start + r.Length
}
