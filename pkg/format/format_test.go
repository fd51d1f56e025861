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
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"testing"

	"github.com/xelalexv/gcrconv/pkg/disk"
	"github.com/xelalexv/gcrconv/pkg/gcr"
)

var testID = disk.DiskID{'X', 'Y'}

// makeD64 creates a sector image with random content and a BAM carrying disk
// name and id
func makeD64(tracks int, seed int64) []byte {
	ret := make([]byte, disk.BlockCount(tracks)*disk.SectorSize)
	rand.New(rand.NewSource(seed)).Read(ret)
	name := []byte("TEST DISK\xa0\xa0\xa0\xa0\xa0\xa0\xa0")
	copy(ret[0x16590:], name)
	ret[d64IDOffset] = testID[0]
	ret[d64IDOffset+1] = testID[1]
	ret[0x165a5] = '2'
	ret[0x165a6] = 'A'
	return ret
}

// errorTable returns an error table for an image with given number of tracks,
// with all sectors OK except those listed in errs
func errorTable(tracks int, errs map[int]disk.ErrorCode) []byte {
	ret := make([]byte, disk.BlockCount(tracks))
	for ix := range ret {
		ret[ix] = byte(disk.SectorOK)
		if code, ok := errs[ix]; ok {
			ret[ix] = byte(code)
		}
	}
	return ret
}

//
func newConverter(t *testing.T, opts ...disk.PolicyOption) *Converter {
	p, err := disk.NewPolicy(opts...)
	if err != nil {
		t.Fatal(err)
	}
	return NewConverter(gcr.New(0), p, nil)
}

//
func convert(t *testing.T, c *Converter, in []byte, from, to string) []byte {
	var out bytes.Buffer
	if err := c.Convert(bytes.NewReader(in), from, &out, to); err != nil {
		t.Fatalf("converting %s to %s: %v", from, to, err)
	}
	return out.Bytes()
}

// padded returns the revolution held by a slot, padded with gap bytes to the
// nominal capacity of its track's speed zone
func padded(slot *disk.Slot, t disk.Track) []byte {
	ret := append([]byte{}, slot.Data()...)
	for len(ret) < disk.Capacity[disk.SpeedZone(t)] {
		ret = append(ret, disk.GapByte)
	}
	return ret
}

//
func capture(track []byte) []byte {
	ret := make([]byte, disk.TrackBufferLength)
	for ix := range ret {
		ret[ix] = track[ix%len(track)]
	}
	return ret
}

func TestNewFormat(t *testing.T) {

	for _, typ := range []string{"nib", "NB2", "g64", "D64"} {
		if _, err := NewFormat(typ, gcr.New(0), nil); err != nil {
			t.Errorf("%s: unexpected error: %v", typ, err)
		}
	}

	_, err := NewFormat("mdr", gcr.New(0), nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("got error %v, want %v", err, ErrUnsupportedFormat)
	}

	tests := []struct {
		typ      string
		raw      bool
		writable bool
	}{
		{"nib", true, true},
		{"nb2", true, false},
		{"g64", false, true},
		{"d64", false, true},
		{"mdr", false, false},
	}

	for _, tc := range tests {
		if IsRaw(tc.typ) != tc.raw || IsWritable(tc.typ) != tc.writable {
			t.Errorf("%s: raw %v, writable %v", tc.typ,
				IsRaw(tc.typ), IsWritable(tc.typ))
		}
	}

	if typ := TypeFromName("/tmp/Game.G64"); typ != "g64" {
		t.Errorf("got type %s, want g64", typ)
	}
}

func TestConvertNotWritable(t *testing.T) {
	c := newConverter(t)
	err := c.Convert(bytes.NewReader(makeD64(35, 1)), "d64",
		&bytes.Buffer{}, "nb2")
	if !errors.Is(err, ErrNotWritable) {
		t.Errorf("got error %v, want %v", err, ErrNotWritable)
	}
}

func TestD64RoundTrip(t *testing.T) {

	tests := []struct {
		name   string
		tracks int
		errs   map[int]disk.ErrorCode
	}{
		{"35 tracks", 35, nil},
		{"35 tracks with errors", 35, map[int]disk.ErrorCode{
			3:   disk.BadDataChecksum,
			100: disk.BadHeaderChecksum,
			600: disk.BadDataChecksum,
		}},
		{"foreign id on directory sector 0", 35, map[int]disk.ErrorCode{
			357: disk.IDMismatch,
		}},
		{"40 tracks", 40, nil},
		{"40 tracks with errors", 40, map[int]disk.ErrorCode{
			10:  disk.BadDataChecksum,
			700: disk.BadHeaderChecksum,
		}},
	}

	for ix, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {

			img := makeD64(tc.tracks, int64(ix))
			if tc.errs != nil {
				img = append(img, errorTable(tc.tracks, tc.errs)...)
			}

			out := convert(t, newConverter(t), img, "d64", "d64")
			if !bytes.Equal(img, out) {
				t.Errorf("image changed, length %d, want %d",
					len(out), len(img))
			}
		})
	}
}

func TestD64ReadErrors(t *testing.T) {

	c := newConverter(t)

	_, err := c.Load(bytes.NewReader(make([]byte, 1000)), "d64", false)
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("got error %v, want FormatError", err)
	}

	store, err := c.Load(bytes.NewReader(makeD64(35, 2)), "d64", false)
	if err != nil {
		t.Fatal(err)
	}
	slot := store.TrackSlot(36)
	if !slot.IsEmpty() || !slot.Density.IsNoSync() || slot.Density.Zone() != 2 {
		t.Errorf("track 36 of 35 track image: %s/%d", slot.Density, slot.Length)
	}
	if s := store.TrackSlot(1); s.Length != 21*disk.GCRSectorSize ||
		s.Alignment != disk.AlignSec0 || s.Density.Zone() != 3 {
		t.Errorf("track 1: %s/%d/%s", s.Density, s.Length, s.Alignment)
	}
}

func TestD64WriteWithoutDirectory(t *testing.T) {

	c := newConverter(t)
	var out bytes.Buffer
	err := NewD64(c.Codec(), disk.NopObserver{}).Write(
		disk.NewStore(), &out, c.Policy())

	var fatal *disk.FatalError
	if !errors.As(err, &fatal) || !errors.Is(err, disk.ErrNoDirectory) {
		t.Errorf("got error %v, want fatal error", err)
	}
}

func TestG64(t *testing.T) {

	c := newConverter(t)
	img := makeD64(35, 3)
	g64 := convert(t, c, img, "d64", "g64")

	if want := g64HeaderSize + 42*g64RecordSize; len(g64) != want {
		t.Fatalf("image length %d, want %d", len(g64), want)
	}
	if string(g64[:8]) != g64Signature || g64[9] != 84 ||
		g64[10] != byte(g64MaxTrackLength&0xff) ||
		g64[11] != byte(g64MaxTrackLength>>8) {
		t.Errorf("bad header: %x", g64[:12])
	}

	off := func(ix int) int {
		p := 12 + ix*4
		return int(g64[p]) | int(g64[p+1])<<8 | int(g64[p+2])<<16 |
			int(g64[p+3])<<24
	}
	if off(0) != g64HeaderSize || off(1) != 0 ||
		off(2) != g64HeaderSize+g64RecordSize {
		t.Errorf("bad offsets: %d, %d, %d", off(0), off(1), off(2))
	}

	if length := int(g64[off(0)]) | int(g64[off(0)+1])<<8; length != 21*361 {
		t.Errorf("track 1 length %d, want %d", length, 21*361)
	}
	if length := int(g64[off(70)]) | int(g64[off(70)+1])<<8; length !=
		disk.Capacity[0] {
		t.Errorf("unformatted track 36 length %d, want %d", length,
			disk.Capacity[0])
	}

	if out := convert(t, c, g64, "g64", "d64"); !bytes.Equal(img, out) {
		t.Error("image changed after going through G64")
	}

	partial := convert(t, newConverter(t, disk.WithRange(1, 20, false)),
		img, "d64", "g64")
	if !bytes.Equal(partial[:12], g64[:12]) {
		t.Errorf("header depends on track range: %x", partial[:12])
	}
}

func TestG64Halftracks(t *testing.T) {

	c := newConverter(t, disk.WithRange(1, 42, true))
	img := makeD64(35, 11)
	g64 := convert(t, c, img, "d64", "g64")

	if want := g64HeaderSize + 84*g64RecordSize; len(g64) != want {
		t.Fatalf("image length %d, want %d", len(g64), want)
	}
	for ix := 1; ix < 84; ix += 2 {
		p := 12 + ix*4
		if off := binary.LittleEndian.Uint32(g64[p:]); off == 0 {
			t.Errorf("no offset for halftrack index %d", ix)
		}
	}

	if out := convert(t, c, g64, "g64", "d64"); !bytes.Equal(img, out) {
		t.Error("image changed after going through halftrack G64")
	}
}

func TestD64WriteRange(t *testing.T) {

	img := makeD64(35, 12)
	c := newConverter(t, disk.WithRange(1, 20, false))
	out := convert(t, c, img, "d64", "d64")

	if len(out) != len(img) {
		t.Fatalf("image length %d, want %d", len(out), len(img))
	}
	split := disk.BlockOffset(21) * disk.SectorSize
	if !bytes.Equal(img[:split], out[:split]) {
		t.Error("tracks in range changed")
	}
	for ix, b := range out[split:] {
		if b != 0 {
			t.Fatalf("track beyond range written, offset %d", split+ix)
		}
	}
}

func TestG64ReadErrors(t *testing.T) {

	c := newConverter(t)
	g64 := convert(t, c, makeD64(35, 4), "d64", "g64")

	tests := []struct {
		name  string
		patch func([]byte) []byte
	}{
		{"truncated header", func(b []byte) []byte { return b[:100] }},
		{"bad signature", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"bad length record", func(b []byte) []byte {
			b[g64HeaderSize] = 0xff
			b[g64HeaderSize+1] = 0xff
			return b
		}},
		{"truncated track", func(b []byte) []byte {
			return b[:g64HeaderSize+10*g64RecordSize+100]
		}},
		{"track beyond end", func(b []byte) []byte {
			return b[:g64HeaderSize+10*g64RecordSize]
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := tc.patch(append([]byte{}, g64...))
			_, err := c.Load(bytes.NewReader(img), "g64", false)
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Errorf("got error %v, want FormatError", err)
			}
		})
	}
}

// nibStore loads a D64 image and turns its tracks into raw captures of more
// than one revolution, as a disk drive would deliver them
func nibStore(t *testing.T, c *Converter, img []byte) *disk.Store {

	store, err := c.Load(bytes.NewReader(img), "d64", false)
	if err != nil {
		t.Fatal(err)
	}

	for tr := disk.Track(1); tr <= 35; tr++ {
		slot := store.TrackSlot(tr)
		if err := slot.Set(capture(padded(slot, tr))); err != nil {
			t.Fatal(err)
		}
		slot.Alignment = disk.AlignRaw
	}

	return store
}

func TestNIB(t *testing.T) {

	c := newConverter(t, disk.WithRange(1, 35, false))
	img := makeD64(35, 5)

	var nib bytes.Buffer
	if err := NewNIB(disk.NopObserver{}).Write(
		nibStore(t, c, img), &nib, c.Policy()); err != nil {
		t.Fatal(err)
	}

	data := nib.Bytes()
	if want := nibHeaderSize + 35*disk.TrackBufferLength; len(data) != want {
		t.Fatalf("image length %d, want %d", len(data), want)
	}
	if string(data[:13]) != nibSignature {
		t.Errorf("bad signature: %s", data[:13])
	}
	for ix := 0; ix < nibEntries; ix++ {
		h, d := data[0x10+2*ix], data[0x11+2*ix]
		if ix < 35 && (h != byte(2+2*ix) ||
			int(d) != disk.SpeedZone(disk.Track(ix+1))) {
			t.Errorf("entry %d: %d/%d", ix, h, d)
		}
		if ix >= 35 && h != 0 {
			t.Errorf("unexpected entry %d: %d/%d", ix, h, d)
		}
	}

	if out := convert(t, c, data, "nib", "d64"); !bytes.Equal(img, out) {
		t.Error("image changed after going through NIB")
	}

	if out := convert(t, c, data, "nib", "nib"); !bytes.Equal(data, out) {
		t.Error("NIB changed when written unaligned")
	}
}

func TestLayout(t *testing.T) {

	tests := []struct {
		name  string
		slots int
		opts  []disk.PolicyOption
		step  int
		last  disk.Halftrack
	}{
		{"35 tracks", 35, nil, 2, 70},
		{"42 tracks, default range", 42, nil, 2, 82},
		{"42 tracks, full range", 42,
			[]disk.PolicyOption{disk.WithRange(1, 42, false)}, 2, 84},
		{"84 halftracks, default range", 84, nil, 1, 82},
		{"84 halftracks, full range", 84,
			[]disk.PolicyOption{disk.WithRange(1, 42, true)}, 1, 85},
		{"35 tracks, short range", 35,
			[]disk.PolicyOption{disk.WithRange(1, 20, false)}, 2, 40},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			step, last := layout(tc.slots, newConverter(t, tc.opts...).Policy())
			if step != tc.step || last != tc.last {
				t.Errorf("got step %d, last %d, want %d, %d",
					step, last, tc.step, tc.last)
			}
		})
	}
}

// writeNIB creates a NIB image from a D64 image, covering the converter's
// track range
func writeNIB(t *testing.T, c *Converter, img []byte) []byte {
	var nib bytes.Buffer
	if err := NewNIB(disk.NopObserver{}).Write(
		nibStore(t, c, img), &nib, c.Policy()); err != nil {
		t.Fatal(err)
	}
	return nib.Bytes()
}

// clearEntries zeroes the halftrack numbers in a NIB header
func clearEntries(nib []byte) []byte {
	ret := append([]byte{}, nib...)
	for ix := 0; ix < nibEntries; ix++ {
		ret[0x10+2*ix] = 0
	}
	return ret
}

func TestNIBPartialRange(t *testing.T) {

	c := newConverter(t, disk.WithRange(18, 20, false))
	img := makeD64(35, 8)
	data := writeNIB(t, c, img)

	if want := nibHeaderSize + 3*disk.TrackBufferLength; len(data) != want {
		t.Fatalf("image length %d, want %d", len(data), want)
	}
	if data[0x10] != 36 || data[0x12] != 38 || data[0x14] != 40 {
		t.Errorf("bad entries: %x", data[0x10:0x16])
	}

	store, err := c.Load(bytes.NewReader(data), "nib", false)
	if err != nil {
		t.Fatal(err)
	}
	for tr := disk.Track(17); tr <= 21; tr++ {
		slot := store.TrackSlot(tr)
		inRange := tr >= 18 && tr <= 20
		if inRange && slot.Length != disk.TrackBufferLength {
			t.Errorf("track %d not loaded", tr)
		}
		if !inRange && !slot.IsEmpty() {
			t.Errorf("track %d should be empty", tr)
		}
	}

	out := convert(t, c, data, "nib", "d64")
	if len(out) != len(img) {
		t.Fatalf("image length %d, want %d", len(out), len(img))
	}
	from := disk.BlockOffset(18) * disk.SectorSize
	to := disk.BlockOffset(21) * disk.SectorSize
	if !bytes.Equal(img[from:to], out[from:to]) {
		t.Error("tracks 18 through 20 changed after going through NIB")
	}
}

func TestNIBHalftracks(t *testing.T) {

	c := newConverter(t, disk.WithRange(1, 42, true))
	img := makeD64(35, 9)
	data := writeNIB(t, c, img)

	if want := nibHeaderSize + 84*disk.TrackBufferLength; len(data) != want {
		t.Fatalf("image length %d, want %d", len(data), want)
	}
	if data[0x0f] != 1 {
		t.Error("halftrack flag not set")
	}
	for ix := 0; ix < 84; ix++ {
		if h := data[0x10+2*ix]; h != byte(2+ix) {
			t.Errorf("entry %d: halftrack %d, want %d", ix, h, 2+ix)
		}
	}

	if out := convert(t, c, data, "nib", "d64"); !bytes.Equal(img, out) {
		t.Error("image changed after going through halftrack NIB")
	}
	if out := convert(t, c, clearEntries(data), "nib",
		"d64"); !bytes.Equal(img, out) {
		t.Error("image changed after going through positional halftrack NIB")
	}
}

func TestNIBPositional(t *testing.T) {

	c := newConverter(t, disk.WithRange(1, 35, false))
	img := makeD64(35, 10)
	data := clearEntries(writeNIB(t, c, img))

	store, err := c.Load(bytes.NewReader(data), "nib", false)
	if err != nil {
		t.Fatal(err)
	}
	if store.TrackSlot(35).IsEmpty() || !store.Slot(3).IsEmpty() {
		t.Error("tracks not laid out by position")
	}

	if out := convert(t, c, data, "nib", "d64"); !bytes.Equal(img, out) {
		t.Error("image changed after going through positional NIB")
	}
}

func TestNB2(t *testing.T) {

	c := newConverter(t)
	img := makeD64(35, 6)
	good := nibStore(t, c, img)

	// same disk with data checksum errors in several sectors
	damaged := append([]byte{}, img...)
	errs := map[int]disk.ErrorCode{}
	for ix := 0; ix < disk.BlocksOnDisk; ix += 11 {
		if ix < 357 || ix >= 376 {
			errs[ix] = disk.BadDataChecksum
		}
	}
	damaged = append(damaged, errorTable(35, errs)...)
	bad := nibStore(t, c, damaged)

	data := make([]byte, nibHeaderSize+35*nb2SlotSize)
	copy(data, nibSignature)
	data[13] = nibVersion

	for ix := 0; ix < 35; ix++ {
		tr := disk.Track(ix + 1)
		zone := disk.SpeedZone(tr)
		data[0x10+2*ix] = byte(tr.Halftrack())
		data[0x11+2*ix] = byte(zone)

		base := nibHeaderSize + ix*nb2SlotSize +
			zone*nb2Repeats*disk.TrackBufferLength
		copy(data[base:], bad.TrackSlot(tr).Data())
		copy(data[base+disk.TrackBufferLength:], good.TrackSlot(tr).Data())
	}

	if out := convert(t, c, data, "nb2", "d64"); !bytes.Equal(img, out) {
		t.Error("best passes not selected")
	}

	data[0] = 'X'
	if _, err := c.Load(bytes.NewReader(data), "nb2", true); err == nil {
		t.Error("bad signature not detected")
	}
}

func TestNB2Halftracks(t *testing.T) {

	c := newConverter(t, disk.WithRange(1, 42, true))
	img := makeD64(35, 13)
	good := nibStore(t, c, img)

	data := make([]byte, nibHeaderSize+disk.MaxHalftracks*nb2SlotSize)
	copy(data, nibSignature)
	data[13] = nibVersion

	for tr := disk.Track(1); tr <= 35; tr++ {
		ix := int(tr.Halftrack() - disk.FirstHalftrack)
		zone := disk.SpeedZone(tr)
		data[0x10+2*ix] = byte(tr.Halftrack())
		data[0x11+2*ix] = byte(zone)
		base := nibHeaderSize + ix*nb2SlotSize +
			zone*nb2Repeats*disk.TrackBufferLength
		copy(data[base:], good.TrackSlot(tr).Data())
	}

	store, err := c.Load(bytes.NewReader(data), "nb2", false)
	if err != nil {
		t.Fatal(err)
	}
	if store.Slot(3).Length != disk.TrackBufferLength {
		t.Error("halftrack slots not loaded")
	}

	if out := convert(t, c, data, "nb2", "d64"); !bytes.Equal(img, out) {
		t.Error("image changed after going through halftrack NB2")
	}
}

func TestNB2WithoutDirectory(t *testing.T) {

	c := newConverter(t)
	data := make([]byte, nibHeaderSize+35*nb2SlotSize)
	copy(data, nibSignature)

	_, err := c.Load(bytes.NewReader(data), "nb2", true)
	var fatal *disk.FatalError
	if !errors.As(err, &fatal) {
		t.Errorf("got error %v, want fatal error", err)
	}
}

func TestDescribe(t *testing.T) {

	c := newConverter(t)
	store, err := c.Load(bytes.NewReader(makeD64(35, 7)), "d64", false)
	if err != nil {
		t.Fatal(err)
	}

	info, err := Describe(store, c.Codec())
	if err != nil {
		t.Fatal(err)
	}
	if info.Name != "TEST DISK" || info.ID != "XY" || info.DOSType != "2A" ||
		info.Tracks != 35 {
		t.Errorf("unexpected info: %+v", info)
	}

	var out bytes.Buffer
	if err := List(store, c.Codec(), c.Policy(), &out); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte(`"TEST DISK" XY 2A, 35 tracks`)) {
		t.Errorf("unexpected listing: %s", out.String())
	}

	out.Reset()
	if err := List(disk.NewStore(), c.Codec(), c.Policy(), &out); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("no directory found")) {
		t.Errorf("unexpected listing: %s", out.String())
	}
}
