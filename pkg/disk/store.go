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
	"io"
)

// Slot holds the content of one halftrack. Raw always has the fixed capacity
// TrackBufferLength, Length says how many of its bytes are meaningful.
type Slot struct {
	Raw       []byte
	Density   Density
	Length    int
	Alignment Alignment
}

// Data returns the meaningful part of the slot's buffer
func (s *Slot) Data() []byte {
	l := s.Length
	if l < 0 {
		l = 0
	} else if l > len(s.Raw) {
		l = len(s.Raw)
	}
	return s.Raw[:l]
}

//
func (s *Slot) Capacity() int {
	return len(s.Raw)
}

// Set replaces the slot's content with data, which needs to fit into the
// slot's buffer.
func (s *Slot) Set(data []byte) error {
	if len(data) > len(s.Raw) {
		return fmt.Errorf(
			"track data of %d bytes exceeds buffer capacity %d",
			len(data), len(s.Raw))
	}
	s.Clear()
	copy(s.Raw, data)
	s.Length = len(data)
	return nil
}

// Clear zeroes the slot's buffer and resets its length
func (s *Slot) Clear() {
	for ix := range s.Raw {
		s.Raw[ix] = 0
	}
	s.Length = 0
}

//
func (s *Slot) IsEmpty() bool {
	return s.Length == 0
}

// Store is the in-memory representation of one disk, indexed by halftrack.
// A store is filled by exactly one image read and is not meant to be shared
// between concurrent conversions.
type Store struct {
	slots []*Slot
}

//
func NewStore() *Store {
	s := &Store{slots: make([]*Slot, LastHalftrack+1)}
	for ix := range s.slots {
		s.slots[ix] = &Slot{Raw: make([]byte, TrackBufferLength)}
	}
	return s
}

// Slot returns the slot for halftrack h, or nil if h is out of range
func (s *Store) Slot(h Halftrack) *Slot {
	if !h.IsValid() {
		return nil
	}
	return s.slots[h]
}

// TrackSlot returns the slot for physical track t
func (s *Store) TrackSlot(t Track) *Slot {
	return s.Slot(t.Halftrack())
}

// Directory returns the slot of the directory track
func (s *Store) Directory() *Slot {
	return s.TrackSlot(DirectoryTrack)
}

// IsFormatted reports whether any slot holds data
func (s *Store) IsFormatted() bool {
	for h := FirstHalftrack; h <= LastHalftrack; h++ {
		if !s.slots[h].IsEmpty() {
			return true
		}
	}
	return false
}

// Emit writes a per track listing of the store's content for the given
// halftrack range
func (s *Store) Emit(w io.Writer, from, to Halftrack, step int) {
	if step < 1 {
		step = 1
	}
	for h := from; h <= to; h += Halftrack(step) {
		slot := s.Slot(h)
		if slot == nil {
			continue
		}
		fmt.Fprintf(w, "%s: (%s:%d) %5.1f%% [align=%s]\n", h,
			slot.Density, slot.Length,
			float64(slot.Length)/float64(slot.Density.Capacity())*100,
			slot.Alignment)
	}
}
