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
	"fmt"
	"io"
	"strings"

	"github.com/xelalexv/gcrconv/pkg/disk"
	"github.com/xelalexv/gcrconv/pkg/track"
)

// Converter runs the conversion pipeline: reading an image, aligning raw
// captures, and writing the result in another format
type Converter struct {
	codec    disk.Codec
	policy   *disk.Policy
	observer disk.Observer
}

//
func NewConverter(codec disk.Codec, p *disk.Policy,
	observer disk.Observer) *Converter {
	if observer == nil {
		observer = disk.NopObserver{}
	}
	return &Converter{codec: codec, policy: p, observer: observer}
}

//
func (c *Converter) Codec() disk.Codec {
	return c.codec
}

//
func (c *Converter) Policy() *disk.Policy {
	return c.policy
}

// Load reads an image of format typ into a new store. With align set, raw
// captures are aligned after reading.
func (c *Converter) Load(in io.Reader, typ string, align bool) (
	*disk.Store, error) {

	rd, err := NewFormat(typ, c.codec, c.observer)
	if err != nil {
		return nil, err
	}

	store, err := rd.Read(in, c.policy)
	if err != nil {
		return store, err
	}

	if align && IsRaw(typ) {
		track.NewAligner(c.codec, c.policy, c.observer).Align(store)
	}

	return store, nil
}

// Convert reads an image of format from and writes it as format to. Raw
// captures are aligned, unless they are written to NIB again.
func (c *Converter) Convert(in io.Reader, from string, out io.Writer,
	to string) error {

	wr, err := NewFormat(to, c.codec, c.observer)
	if err != nil {
		return err
	}
	if !IsWritable(to) {
		return fmt.Errorf("%w: %s", ErrNotWritable, to)
	}

	store, err := c.Load(in, from, strings.ToLower(to) != "nib")
	if err != nil {
		return err
	}

	return wr.Write(store, out, c.policy)
}
