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

// Package gcr implements the Group Code Recording used on 1541 disks, i.e.
// encoding and decoding of sectors, locating syncs and gaps, and isolating and
// aligning single revolutions from raw track captures.
package gcr

import (
	"github.com/xelalexv/gcrconv/pkg/disk"
)

// nibble to 5-bit GCR code
var gcrEncode = [16]byte{
	0x0a, 0x0b, 0x12, 0x13, 0x0e, 0x0f, 0x16, 0x17,
	0x09, 0x19, 0x1a, 0x1b, 0x0d, 0x1d, 0x1e, 0x15,
}

// 5-bit GCR code to nibble, 0xff for invalid codes
var gcrDecode [32]byte

func init() {
	for ix := range gcrDecode {
		gcrDecode[ix] = 0xff
	}
	for n, g := range gcrEncode {
		gcrDecode[g] = byte(n)
	}
}

// Codec is the default implementation of disk.Codec
type Codec struct {
	gapMatch int
}

// New creates a codec. gapMatch is the minimum number of repeated bytes that
// is recognized as a gap when auto-detecting gaps.
func New(gapMatch int) *Codec {
	if gapMatch < 2 {
		gapMatch = disk.DefaultGapMatch
	}
	return &Codec{gapMatch: gapMatch}
}

// Encode converts plain bytes to GCR, every 4 bytes into 5. Trailing bytes
// not forming a complete group of 4 are ignored.
func Encode(src []byte) []byte {
	ret := make([]byte, len(src)/4*5)
	for ix := 0; ix+4 <= len(src); ix += 4 {
		encodeGroup(ret[ix/4*5:], src[ix:ix+4])
	}
	return ret
}

//
func encodeGroup(dst, src []byte) {
	var v uint64
	for _, b := range src[:4] {
		v = v<<10 | uint64(gcrEncode[b>>4])<<5 | uint64(gcrEncode[b&0x0f])
	}
	for ix := 4; ix >= 0; ix-- {
		dst[ix] = byte(v)
		v >>= 8
	}
}

// Decode converts GCR back to plain bytes, every 5 bytes into 4. When src
// contains invalid codes, these decode as zero nibbles and ok is false.
func Decode(src []byte) (ret []byte, ok bool) {
	ret = make([]byte, len(src)/5*4)
	ok = true
	for ix := 0; ix+5 <= len(src); ix += 5 {
		if !decodeGroup(ret[ix/5*4:], src[ix:ix+5]) {
			ok = false
		}
	}
	return ret, ok
}

//
func decodeGroup(dst, src []byte) bool {

	var v uint64
	for _, b := range src[:5] {
		v = v<<8 | uint64(b)
	}

	ok := true
	for ix := 3; ix >= 0; ix-- {
		lo := gcrDecode[v&0x1f]
		v >>= 5
		hi := gcrDecode[v&0x1f]
		v >>= 5
		if lo == 0xff {
			lo, ok = 0, false
		}
		if hi == 0xff {
			hi, ok = 0, false
		}
		dst[ix] = hi<<4 | lo
	}

	return ok
}

// CountBadGCR counts the bytes in which a run of three or more zero bits
// ends. Such runs cannot occur in valid GCR.
func (c *Codec) CountBadGCR(track []byte) int {
	ret, zeros := 0, 0
	for _, b := range track {
		bad := false
		for bit := 7; bit >= 0; bit-- {
			if b&(1<<uint(bit)) == 0 {
				if zeros++; zeros >= 3 {
					bad = true
				}
			} else {
				zeros = 0
			}
		}
		if bad {
			ret++
		}
	}
	return ret
}

// CheckErrors returns the number of sectors of track t that don't decode
// cleanly
func (c *Codec) CheckErrors(track []byte, t disk.Track, id disk.DiskID) int {
	ret := 0
	for s := 0; s < disk.SectorCount(t); s++ {
		if _, code := c.GCRToSector(track, t, s, id); !code.IsOK() {
			ret++
		}
	}
	return ret
}
