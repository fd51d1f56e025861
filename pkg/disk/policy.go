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

//
const (
	DefaultFillByte = GapByte
	DefaultMinSync  = 4
	DefaultGapMatch = 7
)

// Policy holds the settings of one conversion run. A policy is built once
// via NewPolicy and must not be changed afterwards.
type Policy struct {
	start Halftrack
	end   Halftrack
	step  int
	//
	fill     byte
	fillLoop bool
	minSync  int
	gapMatch int
	rpm      int
	//
	reduce [MaxTracks + 1]Reduction
	align  [MaxTracks + 1]Alignment
}

// PolicyOption configures a policy under construction
type PolicyOption func(p *Policy) error

// NewPolicy creates a policy with default settings, modified by the given
// options in order. Defaults are tracks 1 through 41 without halftracks, sync
// reduction to four bytes, no alignment, and 0x55 as fill byte.
func NewPolicy(opts ...PolicyOption) (*Policy, error) {

	p := &Policy{
		start:    FirstHalftrack,
		end:      Track(41).Halftrack(),
		step:     2,
		fill:     DefaultFillByte,
		minSync:  DefaultMinSync,
		gapMatch: DefaultGapMatch,
	}

	for ix := range p.reduce {
		p.reduce[ix] = ReduceSync
	}

	for _, o := range opts {
		if err := o(p); err != nil {
			return nil, err
		}
	}

	if p.minSync == 0 {
		for ix := range p.reduce {
			p.reduce[ix] &^= ReduceSync
		}
	}

	return p, nil
}

// DefaultPolicy returns a policy with default settings
func DefaultPolicy() *Policy {
	p, _ := NewPolicy()
	return p
}

// WithRange sets the range of physical tracks to operate on. With halftracks
// set, the range is walked in half track steps.
func WithRange(start, end Track, halftracks bool) PolicyOption {
	return func(p *Policy) error {
		if !start.IsValid() || !end.IsValid() || end < start {
			return fmt.Errorf("invalid track range: %d - %d", start, end)
		}
		p.start = start.Halftrack()
		p.end = end.Halftrack()
		p.step = 2
		if halftracks {
			p.step = 1
			if end == MaxTracks {
				p.end = LastHalftrack
			}
		}
		return nil
	}
}

// WithFill sets the byte used for padding tracks in G64 output
func WithFill(b byte) PolicyOption {
	return func(p *Policy) error {
		p.fill = b
		p.fillLoop = false
		return nil
	}
}

// WithFillLoop pads tracks with their own last byte
func WithFillLoop() PolicyOption {
	return func(p *Policy) error {
		p.fillLoop = true
		return nil
	}
}

// WithMinSync sets the length to which sync runs are reduced. Zero disables
// sync reduction altogether.
func WithMinSync(n int) PolicyOption {
	return func(p *Policy) error {
		if n < 0 {
			return fmt.Errorf("invalid sync length: %d", n)
		}
		p.minSync = n
		return nil
	}
}

// WithGapMatch sets the minimum number of repeated bytes recognized as gap
func WithGapMatch(n int) PolicyOption {
	return func(p *Policy) error {
		if n < 2 {
			return fmt.Errorf("invalid gap match length: %d", n)
		}
		p.gapMatch = n
		return nil
	}
}

// WithRPM simulates the given drive speed when determining G64 track
// capacity. Zero turns simulation off.
func WithRPM(rpm int) PolicyOption {
	return func(p *Policy) error {
		if rpm != 0 && (rpm < 250 || rpm > 350) {
			return fmt.Errorf("unreasonable rpm: %d", rpm)
		}
		p.rpm = rpm
		return nil
	}
}

// WithAlignment sets the alignment for all tracks
func WithAlignment(a Alignment) PolicyOption {
	return func(p *Policy) error {
		for ix := range p.align {
			p.align[ix] = a
		}
		return nil
	}
}

// WithTrackAlignment sets the alignment for a single track
func WithTrackAlignment(t Track, a Alignment) PolicyOption {
	return func(p *Policy) error {
		if !t.IsValid() {
			return fmt.Errorf("invalid track: %d", t)
		}
		p.align[t] = a
		return nil
	}
}

// WithReduction sets the reduction heuristics for all tracks
func WithReduction(r Reduction) PolicyOption {
	return func(p *Policy) error {
		for ix := range p.reduce {
			p.reduce[ix] = r
		}
		return nil
	}
}

// WithTrackReduction sets the reduction heuristics for a single track
func WithTrackReduction(t Track, r Reduction) PolicyOption {
	return func(p *Policy) error {
		if !t.IsValid() {
			return fmt.Errorf("invalid track: %d", t)
		}
		p.reduce[t] = r
		return nil
	}
}

// WithProtection applies the preset for a known copy protection scheme
func WithProtection(name string) PolicyOption {
	return func(p *Policy) error {

		switch strings.ToLower(name) {

		case "":

		case "vmax":
			setAlignment(p, 1, MaxTracks, AlignVMax)

		case "vmax-cw":
			setAlignment(p, 1, MaxTracks, AlignVMaxCW)

		case "securispeed", "rainbowarts":
			for t := Track(36); t <= MaxTracks; t++ {
				p.reduce[t] = ReduceNone
				p.align[t] = AlignAutoGap
			}

		case "vorpal":
			setAlignment(p, 1, MaxTracks, AlignAutoGap)
			p.align[DirectoryTrack] = AlignNone

		case "rapidlok":
			for t := Track(1); t <= MaxTracks; t++ {
				p.reduce[t] = ReduceBadGCR | ReduceGap
			}
			setAlignment(p, 1, MaxTracks, AlignSec0)

		default:
			return fmt.Errorf("unknown protection handler: '%s'", name)
		}

		return nil
	}
}

//
func setAlignment(p *Policy, from, to Track, a Alignment) {
	for t := from; t <= to; t++ {
		p.align[t] = a
	}
}

//
func (p *Policy) Start() Halftrack {
	return p.start
}

//
func (p *Policy) End() Halftrack {
	return p.end
}

// Step is 1 when operating on halftracks, 2 otherwise
func (p *Policy) Step() int {
	return p.step
}

//
func (p *Policy) HalftracksEnabled() bool {
	return p.step == 1
}

// Halftracks returns the halftracks covered by the configured range
func (p *Policy) Halftracks() []Halftrack {
	var ret []Halftrack
	for h := p.start; h <= p.end; h += Halftrack(p.step) {
		ret = append(ret, h)
	}
	return ret
}

// Fill returns the fill byte for padding the given track data
func (p *Policy) Fill(data []byte) byte {
	if p.fillLoop && len(data) > 0 {
		return data[len(data)-1]
	}
	return p.fill
}

//
func (p *Policy) MinSync() int {
	return p.minSync
}

//
func (p *Policy) GapMatch() int {
	return p.gapMatch
}

//
func (p *Policy) RPM() int {
	return p.rpm
}

// Reduction returns the reduction heuristics enabled for track t
func (p *Policy) Reduction(t Track) Reduction {
	if t < 0 || int(t) >= len(p.reduce) {
		return ReduceNone
	}
	return p.reduce[t]
}

// Alignment returns the alignment strategy configured for track t
func (p *Policy) Alignment(t Track) Alignment {
	if t < 0 || int(t) >= len(p.align) {
		return AlignNone
	}
	return p.align[t]
}

// Capacity returns the maximum number of bytes a track of the given speed
// zone may occupy in an image whose slots hold up to limit bytes. When rpm
// simulation is on, this is the capacity at the simulated speed.
func (p *Policy) Capacity(zone, limit int) int {
	if p.rpm == 0 {
		return limit
	}
	if c := CapacityAt(zone, float64(p.rpm)); c < limit {
		return c
	}
	return limit
}
