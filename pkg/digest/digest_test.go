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

package digest

import (
	"bytes"
	"crypto/md5"
	"errors"
	"hash/crc32"
	"math/rand"
	"testing"

	"github.com/xelalexv/gcrconv/pkg/disk"
	"github.com/xelalexv/gcrconv/pkg/format"
	"github.com/xelalexv/gcrconv/pkg/gcr"
)

//
func makeD64(seed int64) []byte {
	ret := make([]byte, disk.BlocksOnDisk*disk.SectorSize)
	rand.New(rand.NewSource(seed)).Read(ret)
	ret[0x165a2] = 'Q'
	ret[0x165a3] = 'Z'
	return ret
}

//
func load(t *testing.T, img []byte, typ string) *disk.Store {
	c := format.NewConverter(gcr.New(0), disk.DefaultPolicy(), nil)
	store, err := c.Load(bytes.NewReader(img), typ, true)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func TestParse(t *testing.T) {

	for in, want := range map[string]Algorithm{
		"": CRC32, "crc": CRC32, "CRC32": CRC32, "md5": MD5} {
		if got, err := ParseAlgorithm(in); err != nil || got != want {
			t.Errorf("%s: got %s, %v", in, got, err)
		}
	}
	if _, err := ParseAlgorithm("sha1"); err == nil {
		t.Error("unknown algorithm accepted")
	}

	for in, want := range map[string]Scope{
		"": Directory, "dir": Directory, "all": FullDisk, "FULL": FullDisk} {
		if got, err := ParseScope(in); err != nil || got != want {
			t.Errorf("%s: got %s, %v", in, got, err)
		}
	}
	if _, err := ParseScope("track"); err == nil {
		t.Error("unknown scope accepted")
	}
}

func TestCompute(t *testing.T) {

	img := makeD64(1)
	store := load(t, img, "d64")
	codec := gcr.New(0)

	dir := img[357*disk.SectorSize : 359*disk.SectorSize]

	tests := []struct {
		alg   Algorithm
		scope Scope
		data  []byte
		total int
	}{
		{CRC32, Directory, dir, 2},
		{MD5, Directory, dir, 2},
		{CRC32, FullDisk, img, disk.BlocksOnDisk},
		{MD5, FullDisk, img, disk.BlocksOnDisk},
	}

	for _, tc := range tests {
		t.Run(tc.alg.String()+"/"+tc.scope.String(), func(t *testing.T) {

			sum, err := Compute(store, codec, tc.alg, tc.scope)
			if err != nil {
				t.Fatal(err)
			}

			var want []byte
			if tc.alg == MD5 {
				m := md5.Sum(tc.data)
				want = m[:]
			} else {
				c := crc32.ChecksumIEEE(tc.data)
				want = []byte{byte(c >> 24), byte(c >> 16), byte(c >> 8), byte(c)}
			}

			if !bytes.Equal(sum.Sum, want) {
				t.Errorf("got %x, want %x", sum.Sum, want)
			}
			if sum.Total != tc.total || !sum.IsClean() {
				t.Errorf("clean %d, total %d", sum.Clean, sum.Total)
			}
		})
	}
}

func TestFormatIndependence(t *testing.T) {

	img := makeD64(2)
	codec := gcr.New(0)
	c := format.NewConverter(codec, disk.DefaultPolicy(), nil)

	var g64 bytes.Buffer
	if err := c.Convert(bytes.NewReader(img), "d64", &g64, "g64"); err != nil {
		t.Fatal(err)
	}

	a, err := FullDiskDigest(load(t, img, "d64"), codec, MD5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := FullDiskDigest(load(t, g64.Bytes(), "g64"), codec, MD5)
	if err != nil {
		t.Fatal(err)
	}

	if a.String() != b.String() {
		t.Errorf("digest differs between formats: %s, %s", a, b)
	}
}

func TestSensitivity(t *testing.T) {

	img := makeD64(3)
	codec := gcr.New(0)

	before, err := DirectoryDigest(load(t, img, "d64"), codec, CRC32)
	if err != nil {
		t.Fatal(err)
	}

	img[358*disk.SectorSize+17] ^= 0x01
	after, err := DirectoryDigest(load(t, img, "d64"), codec, CRC32)
	if err != nil {
		t.Fatal(err)
	}

	if before.String() == after.String() {
		t.Error("digest did not change after modifying directory")
	}

	full, err := FullDiskDigest(load(t, img, "d64"), codec, CRC32)
	if err != nil {
		t.Fatal(err)
	}

	img[0] ^= 0x01
	store := load(t, img, "d64")

	again, err := DirectoryDigest(store, codec, CRC32)
	if err != nil {
		t.Fatal(err)
	}
	if again.String() != after.String() {
		t.Error("directory digest depends on sectors outside directory")
	}

	fullAgain, err := FullDiskDigest(store, codec, CRC32)
	if err != nil {
		t.Fatal(err)
	}
	if full.String() == fullAgain.String() {
		t.Error("full disk digest did not change after modifying track 1")
	}

	repeat, err := FullDiskDigest(store, codec, CRC32)
	if err != nil {
		t.Fatal(err)
	}
	if repeat.String() != fullAgain.String() {
		t.Error("repeated digest differs")
	}
}

func TestDamagedSectors(t *testing.T) {

	img := makeD64(4)
	table := make([]byte, disk.BlocksOnDisk)
	for ix := range table {
		table[ix] = byte(disk.SectorOK)
	}
	table[358] = byte(disk.BadDataChecksum)
	table[500] = byte(disk.BadDataChecksum)

	sum, err := FullDiskDigest(load(t, append(img, table...), "d64"),
		gcr.New(0), MD5)
	if err != nil {
		t.Fatal(err)
	}

	if sum.Clean != disk.BlocksOnDisk-2 || sum.Total != disk.BlocksOnDisk {
		t.Errorf("clean %d, total %d", sum.Clean, sum.Total)
	}
	if m := md5.Sum(img); !bytes.Equal(sum.Sum, m[:]) {
		t.Error("recovered data of damaged sectors not included")
	}
}

func TestMissingDirectory(t *testing.T) {
	_, err := Compute(disk.NewStore(), gcr.New(0), CRC32, Directory)
	var fatal *disk.FatalError
	if !errors.As(err, &fatal) {
		t.Errorf("got error %v, want fatal error", err)
	}
}
