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
	"io"

	"github.com/go-restruct/restruct"

	"github.com/xelalexv/gcrconv/pkg/disk"
)

//
const (
	nibSignature  = "MNIB-1541-RAW"
	nibVersion    = 3
	nibHeaderSize = 0x100
	nibEntries    = (nibHeaderSize - 0x10) / 2
)

// nibEntry records halftrack and density of one track slot
type nibEntry struct {
	Halftrack byte
	Density   byte
}

// nibHeader is shared by NIB and NB2 images
type nibHeader struct {
	Signature  [13]byte
	Version    byte
	Reserved   byte
	Halftracks byte
	Entries    [nibEntries]nibEntry
}

//
func parseNIBHeader(data []byte, format string) (*nibHeader, error) {

	if len(data) < nibHeaderSize {
		return nil, formatErrorf(format, "truncated header")
	}

	var hd nibHeader
	if err := restruct.Unpack(
		data[:nibHeaderSize], binary.LittleEndian, &hd); err != nil {
		return nil, formatErrorf(format, "cannot parse header: %v", err)
	}

	if !bytes.Equal(hd.Signature[:], []byte(nibSignature)) {
		return nil, formatErrorf(format, "bad signature")
	}

	return &hd, nil
}

// NIB is a reader/writer for NIB format. NIB files hold one raw capture of
// TrackBufferLength bytes for each track or halftrack, preceded by a header
// listing density per track.
type NIB struct {
	observer disk.Observer
}

//
func NewNIB(observer disk.Observer) *NIB {
	return &NIB{observer: observer}
}

//
func (n *NIB) Read(in io.Reader, p *disk.Policy) (*disk.Store, error) {

	data, err := readAll(in)
	if err != nil {
		return nil, err
	}

	hd, err := parseNIBHeader(data, "NIB")
	if err != nil {
		return nil, err
	}

	slots := (len(data) - nibHeaderSize) / disk.TrackBufferLength
	if slots == 0 {
		return nil, formatErrorf("NIB", "no track data")
	}

	step, _ := layout(slots, p)
	n.observer.FormatDetected("NIB", slots, step == 1 || hd.Halftracks != 0)

	store := disk.NewStore()

	// entries name their halftrack; images without these are laid out
	// positionally, starting at track 1
	for ix := 0; ix < slots && ix < nibEntries; ix++ {

		e := hd.Entries[ix]
		h := disk.FirstHalftrack + disk.Halftrack(ix*step)
		if e.Halftrack != 0 {
			h = disk.Halftrack(e.Halftrack)
		}
		if h > p.End() {
			continue
		}

		slot := store.Slot(h)
		if slot == nil {
			return store, formatErrorf("NIB", "invalid halftrack %d in entry %d",
				e.Halftrack, ix)
		}

		off := nibHeaderSize + ix*disk.TrackBufferLength
		copy(slot.Raw, data[off:off+disk.TrackBufferLength])
		slot.Length = disk.TrackBufferLength
		slot.Density = disk.Density(e.Density) &^ disk.Match
		slot.Alignment = disk.AlignRaw

		n.observer.TrackLoaded(h, slot)
	}

	return store, nil
}

// Write writes the raw track buffers for all halftracks in the policy's
// range. The header gets exactly one entry per written track.
func (n *NIB) Write(store *disk.Store, out io.Writer, p *disk.Policy) error {

	hd := nibHeader{Version: nibVersion}
	copy(hd.Signature[:], nibSignature)
	if p.HalftracksEnabled() {
		hd.Halftracks = 1
	}

	hts := p.Halftracks()
	if len(hts) > nibEntries {
		hts = hts[:nibEntries]
	}

	body := make([]byte, 0, len(hts)*disk.TrackBufferLength)

	for ix, h := range hts {
		slot := store.Slot(h)
		hd.Entries[ix] = nibEntry{Halftrack: byte(h), Density: byte(slot.Density)}
		body = append(body, slot.Raw...)
		n.observer.TrackWritten(h, len(slot.Raw), 0)
	}

	header, err := restruct.Pack(binary.LittleEndian, &hd)
	if err != nil {
		return err
	}

	if err := writeAll(out, header); err != nil {
		return err
	}
	return writeAll(out, body)
}
