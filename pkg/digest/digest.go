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

// Package digest computes checksums over the decoded content of a disk, for
// verifying conversions and for identifying duplicate images independent of
// their format.
package digest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"strings"

	"github.com/xelalexv/gcrconv/pkg/disk"
)

// Algorithm selects the checksum function
type Algorithm int

const (
	CRC32 Algorithm = iota
	MD5
)

//
func (a Algorithm) String() string {
	switch a {
	case CRC32:
		return "crc32"
	case MD5:
		return "md5"
	}
	return "<unknown>"
}

//
func (a Algorithm) new() hash.Hash {
	if a == MD5 {
		return md5.New()
	}
	return crc32.NewIEEE()
}

//
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "crc", "crc32", "":
		return CRC32, nil
	case "md5":
		return MD5, nil
	}
	return CRC32, fmt.Errorf("unknown digest algorithm: '%s'", s)
}

// Scope selects the sectors covered by a digest
type Scope int

const (
	// Directory covers the BAM and the first directory sector
	Directory Scope = iota
	// FullDisk covers all sectors of a standard 35 track disk
	FullDisk
)

//
func (s Scope) String() string {
	switch s {
	case Directory:
		return "dir"
	case FullDisk:
		return "all"
	}
	return "<unknown>"
}

//
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(s) {
	case "dir", "directory", "":
		return Directory, nil
	case "all", "full", "disk":
		return FullDisk, nil
	}
	return Directory, fmt.Errorf("unknown digest scope: '%s'", s)
}

// Summary is the result of a digest computation
type Summary struct {
	Algorithm Algorithm
	Scope     Scope
	Sum       []byte
	// number of sectors that decoded cleanly, and total sectors covered
	Clean int
	Total int
}

//
func (s *Summary) String() string {
	return hex.EncodeToString(s.Sum)
}

// IsClean reports whether all covered sectors decoded without error
func (s *Summary) IsClean() bool {
	return s.Clean == s.Total
}

// Compute calculates the digest over the given scope. Sectors that fail to
// decode still contribute whatever data the codec recovered, so that the sum
// is reproducible for damaged disks. A missing directory is fatal.
func Compute(store *disk.Store, codec disk.Codec, alg Algorithm,
	scope Scope) (*Summary, error) {

	id, err := codec.ExtractID(store.Directory().Data())
	if err != nil {
		return nil, &disk.FatalError{Err: err}
	}

	ret := &Summary{Algorithm: alg, Scope: scope}
	h := alg.new()

	add := func(t disk.Track, sector int) {
		data, code := codec.GCRToSector(store.TrackSlot(t).Data(), t, sector, id)
		h.Write(data)
		ret.Total++
		if code.IsOK() {
			ret.Clean++
		}
	}

	switch scope {

	case Directory:
		add(disk.DirectoryTrack, 0)
		add(disk.DirectoryTrack, 1)

	case FullDisk:
		for t := disk.Track(1); t <= disk.StandardTracks; t++ {
			for s := 0; s < disk.SectorCount(t); s++ {
				add(t, s)
			}
		}

	default:
		return nil, fmt.Errorf("unknown digest scope: %d", scope)
	}

	ret.Sum = h.Sum(nil)
	return ret, nil
}

// DirectoryDigest hashes the two sectors of the directory track holding BAM
// and first directory entries
func DirectoryDigest(store *disk.Store, codec disk.Codec,
	alg Algorithm) (*Summary, error) {
	return Compute(store, codec, alg, Directory)
}

// FullDiskDigest hashes all sectors of tracks 1 through 35 in order
func FullDiskDigest(store *disk.Store, codec disk.Codec,
	alg Algorithm) (*Summary, error) {
	return Compute(store, codec, alg, FullDisk)
}
