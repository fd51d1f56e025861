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
	"github.com/xelalexv/gcrconv/pkg/track"
)

//
const (
	g64Signature      = "GCR-1541"
	g64Version        = 0
	g64MaxTrackLength = 7928
	g64HeaderSize     = 12 + 2*disk.MaxHalftracks*4
	g64RecordSize     = g64MaxTrackLength + 2
)

// g64Header is the fixed part of a G64 image, followed by the track records.
// Offsets and speeds are indexed by halftrack, starting at track 1. An offset
// of zero denotes a missing track.
type g64Header struct {
	Signature   [8]byte
	Version     byte
	Halftracks  byte
	TrackLength uint16
	Offsets     [disk.MaxHalftracks]uint32
	Speeds      [disk.MaxHalftracks]uint32
}

// G64 is a reader/writer for G64 format, as used by emulators. Each track is
// stored as a single, aligned revolution.
type G64 struct {
	codec    disk.Codec
	observer disk.Observer
}

//
func NewG64(codec disk.Codec, observer disk.Observer) *G64 {
	return &G64{codec: codec, observer: observer}
}

//
func (g *G64) Read(in io.Reader, p *disk.Policy) (*disk.Store, error) {

	data, err := readAll(in)
	if err != nil {
		return nil, err
	}

	if len(data) < g64HeaderSize {
		return nil, formatErrorf("G64", "truncated header")
	}

	var hd g64Header
	if err := restruct.Unpack(
		data[:g64HeaderSize], binary.LittleEndian, &hd); err != nil {
		return nil, formatErrorf("G64", "cannot parse header: %v", err)
	}

	if !bytes.Equal(hd.Signature[:], []byte(g64Signature)) {
		return nil, formatErrorf("G64", "bad signature")
	}

	count := int(hd.Halftracks)
	if count > disk.MaxHalftracks {
		return nil, formatErrorf("G64", "too many halftracks: %d", count)
	}

	maxLen := int(hd.TrackLength)
	if maxLen > disk.TrackBufferLength {
		return nil, formatErrorf("G64", "track length too large: %d", maxLen)
	}

	tracks, halftracks := 0, false
	for ix := 0; ix < count; ix++ {
		if hd.Offsets[ix] != 0 {
			tracks++
			halftracks = halftracks || ix%2 != 0
		}
	}
	g.observer.FormatDetected("G64", tracks, halftracks)

	store := disk.NewStore()

	for ix := 0; ix < count; ix++ {

		h := disk.FirstHalftrack + disk.Halftrack(ix)
		if h > p.End() {
			break
		}

		off := int(hd.Offsets[ix])
		if off == 0 {
			continue
		}
		if off+2 > len(data) {
			return store, formatErrorf("G64",
				"track %s beyond end of image", h)
		}

		length := int(binary.LittleEndian.Uint16(data[off:]))
		if length > maxLen {
			return store, formatErrorf("G64",
				"bad length record for track %s: %d", h, length)
		}
		if off+2+length > len(data) {
			return store, formatErrorf("G64", "track %s truncated", h)
		}

		slot := store.Slot(h)
		if err := slot.Set(data[off+2 : off+2+length]); err != nil {
			return store, formatErrorf("G64", "track %s: %v", h, err)
		}

		speed := hd.Speeds[ix]
		if speed > 3 { // offset into speed zone map, not supported
			speed = uint32(disk.SpeedZone(h.Track()))
		}
		slot.Density = disk.Density(speed)

		g.observer.TrackLoaded(h, slot)
	}

	return store, nil
}

// Write always declares the maximum number of halftracks and the maximum
// track length in the header, regardless of the policy's track range. Tracks
// are reduced to fit, and padded with the policy's fill byte.
func (g *G64) Write(store *disk.Store, out io.Writer, p *disk.Policy) error {

	hd := g64Header{
		Version:     g64Version,
		Halftracks:  disk.MaxHalftracks,
		TrackLength: g64MaxTrackLength,
	}
	copy(hd.Signature[:], g64Signature)

	red := track.NewReducer(g.codec, p, g.observer)
	step := disk.Halftrack(p.Step())

	var body []byte
	rec := make([]byte, g64RecordSize)

	for h := disk.FirstHalftrack; h <= disk.LastHalftrack; h += step {

		ix := int(h - disk.FirstHalftrack)
		slot := store.Slot(h)

		hd.Offsets[ix] = uint32(g64HeaderSize + len(body))
		hd.Speeds[ix] = uint32(slot.Density.Zone())

		fill := p.Fill(slot.Data())
		for i := range rec {
			rec[i] = fill
		}

		zone := slot.Density.Zone()
		data, length := red.Reduce(h, slot.Data(), slot.Density, slot.Length,
			p.Capacity(zone, g64MaxTrackLength))

		if length == 0 || length > g64MaxTrackLength {
			// unformatted
			zone = disk.SpeedZone(h.Track())
			hd.Speeds[ix] = uint32(zone)
			length = disk.Capacity[zone]
			for i := 2; i < 2+length; i++ {
				rec[i] = disk.UnformattedFill
			}
		} else {
			copy(rec[2:], data[:length])
		}

		binary.LittleEndian.PutUint16(rec, uint16(length))
		body = append(body, rec...)

		g.observer.TrackWritten(h, length, g.codec.CountBadGCR(slot.Data()))
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
