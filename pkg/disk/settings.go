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
	"sort"
	"strconv"
	"strings"
)

// TrackSettings holds the overrides for a single track. Empty fields leave
// the global setting in effect.
type TrackSettings struct {
	Align  string   `json:"align,omitempty"`
	Reduce []string `json:"reduce,omitempty"`
}

// PolicySettings is the textual form of a policy, as given on the command
// line, in a config file, or with an API request.
type PolicySettings struct {
	Start      int                     `json:"start"`
	End        int                     `json:"end"`
	Halftracks bool                    `json:"halftracks"`
	Align      string                  `json:"align"`
	Reduce     []string                `json:"reduce"`
	Fill       string                  `json:"fill"`
	Sync       int                     `json:"sync"`
	GapMatch   int                     `json:"gapMatch"`
	RPM        int                     `json:"rpm"`
	Protection string                  `json:"protection,omitempty"`
	Tracks     map[Track]TrackSettings `json:"tracks,omitempty"`
}

//
func DefaultPolicySettings() *PolicySettings {
	return &PolicySettings{
		Start:    1,
		End:      41,
		Align:    "none",
		Reduce:   []string{"sync"},
		Fill:     fmt.Sprintf("0x%02x", DefaultFillByte),
		Sync:     DefaultMinSync,
		GapMatch: DefaultGapMatch,
	}
}

// Policy builds the policy described by the settings. Per track overrides
// are applied last, in track order.
func (s *PolicySettings) Policy() (*Policy, error) {

	opts := []PolicyOption{
		WithRange(Track(s.Start), Track(s.End), s.Halftracks),
		WithMinSync(s.Sync),
		WithGapMatch(s.GapMatch),
		WithRPM(s.RPM),
	}

	fill, err := FillOption(s.Fill)
	if err != nil {
		return nil, err
	}
	opts = append(opts, fill)

	align, err := ParseAlignment(s.Align)
	if err != nil {
		return nil, err
	}
	reduce, err := ParseReduction(s.Reduce)
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		WithAlignment(align),
		WithReduction(reduce),
		WithProtection(s.Protection))

	for _, t := range s.TrackList() {

		ts := s.Tracks[t]

		if ts.Align != "" {
			a, err := ParseAlignment(ts.Align)
			if err != nil {
				return nil, fmt.Errorf("track %d: %v", t, err)
			}
			opts = append(opts, WithTrackAlignment(t, a))
		}

		if ts.Reduce != nil {
			red, err := ParseReduction(ts.Reduce)
			if err != nil {
				return nil, fmt.Errorf("track %d: %v", t, err)
			}
			opts = append(opts, WithTrackReduction(t, red))
		}
	}

	return NewPolicy(opts...)
}

// TrackList returns the tracks with overrides, in ascending order
func (s *PolicySettings) TrackList() []Track {
	ret := make([]Track, 0, len(s.Tracks))
	for t := range s.Tracks {
		ret = append(ret, t)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// FillOption parses a fill setting, which is either a byte value or 'loop'
// for repeating the last byte of a track
func FillOption(s string) (PolicyOption, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "loop" {
		return WithFillLoop(), nil
	}
	b, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid fill byte: '%s'", s)
	}
	return WithFill(byte(b)), nil
}
