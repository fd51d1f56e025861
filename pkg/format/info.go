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
	"errors"
	"fmt"
	"io"

	"github.com/xelalexv/gcrconv/pkg/disk"
)

// Info describes a loaded disk
type Info struct {
	Name    string
	ID      string
	DOSType string
	Tracks  int
}

// Describe decodes the BAM of a loaded disk. If the directory cannot be
// found, a FatalError is returned.
func Describe(store *disk.Store, codec disk.Codec) (*Info, error) {

	dir := store.Directory().Data()

	id, err := codec.ExtractID(dir)
	if err != nil {
		return nil, &disk.FatalError{Err: err}
	}

	ret := &Info{ID: id.String()}

	if data, code := codec.GCRToSector(
		dir, disk.DirectoryTrack, 0, id); code.IsOK() {
		bam := disk.NewBlock(disk.BAMIndex, data)
		ret.Name = bam.GetString("name")
		ret.DOSType = bam.GetString("dostype")
	}

	for h := disk.FirstHalftrack; h <= disk.LastHalftrack; h++ {
		if !store.Slot(h).IsEmpty() {
			ret.Tracks++
		}
	}

	return ret, nil
}

// List writes disk name and id, followed by a per track listing for the
// policy's range
func List(store *disk.Store, codec disk.Codec, p *disk.Policy,
	out io.Writer) error {

	info, err := Describe(store, codec)
	if err != nil {
		if !errors.Is(err, disk.ErrNoDirectory) {
			return err
		}
		fmt.Fprintln(out, "no directory found")
	} else {
		fmt.Fprintf(out, "\"%s\" %s %s, %d tracks\n\n",
			info.Name, info.ID, info.DOSType, info.Tracks)
	}

	store.Emit(out, p.Start(), p.End(), p.Step())
	return nil
}
