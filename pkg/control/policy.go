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


package control

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/xelalexv/gcrconv/pkg/disk"
)

//
const trackKeyPrefix = "track."

var policyKeys = []string{"start", "end", "halftracks", "align", "reduce",
	"fill", "sync", "gap-match", "rpm", "protection"}

// PolicyQuery encodes policy settings as query parameters of an API request.
// Per track overrides use keys track.<n>.align and track.<n>.reduce.
func PolicyQuery(s *disk.PolicySettings) url.Values {

	q := url.Values{}
	q.Set("start", strconv.Itoa(s.Start))
	q.Set("end", strconv.Itoa(s.End))
	q.Set("halftracks", strconv.FormatBool(s.Halftracks))
	q.Set("align", s.Align)
	q.Set("reduce", strings.Join(s.Reduce, ","))
	q.Set("fill", s.Fill)
	q.Set("sync", strconv.Itoa(s.Sync))
	q.Set("gap-match", strconv.Itoa(s.GapMatch))
	q.Set("rpm", strconv.Itoa(s.RPM))
	if s.Protection != "" {
		q.Set("protection", s.Protection)
	}

	for _, t := range s.TrackList() {
		ts := s.Tracks[t]
		if ts.Align != "" {
			q.Set(fmt.Sprintf("%s%d.align", trackKeyPrefix, t), ts.Align)
		}
		if ts.Reduce != nil {
			q.Set(fmt.Sprintf("%s%d.reduce", trackKeyPrefix, t),
				strings.Join(ts.Reduce, ","))
		}
	}

	return q
}

// parsePolicyQuery extracts policy settings from request parameters. If the
// query carries none, nil is returned. Settings not given in the query take
// their default values.
func parsePolicyQuery(q url.Values) (*disk.PolicySettings, error) {

	found := false
	for k := range q {
		if isPolicyKey(k) {
			found = true
			break
		}
	}
	if !found {
		return nil, nil
	}

	s := disk.DefaultPolicySettings()
	var err error

	ints := map[string]*int{
		"start": &s.Start, "end": &s.End, "sync": &s.Sync,
		"gap-match": &s.GapMatch, "rpm": &s.RPM,
	}
	for k, v := range ints {
		if q.Has(k) {
			if *v, err = strconv.Atoi(q.Get(k)); err != nil {
				return nil, fmt.Errorf("invalid value for %s: '%s'", k, q.Get(k))
			}
		}
	}

	if q.Has("halftracks") {
		if s.Halftracks, err = strconv.ParseBool(q.Get("halftracks")); err != nil {
			return nil, fmt.Errorf("invalid value for halftracks: '%s'",
				q.Get("halftracks"))
		}
	}

	if q.Has("align") {
		s.Align = q.Get("align")
	}
	if q.Has("reduce") {
		s.Reduce = splitList(q.Get("reduce"))
	}
	if q.Has("fill") {
		s.Fill = q.Get("fill")
	}
	if q.Has("protection") {
		s.Protection = q.Get("protection")
	}

	for k := range q {

		if !strings.HasPrefix(k, trackKeyPrefix) {
			continue
		}

		parts := strings.Split(strings.TrimPrefix(k, trackKeyPrefix), ".")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid track setting: '%s'", k)
		}
		n, err := strconv.Atoi(parts[0])
		if err != nil || !disk.Track(n).IsValid() {
			return nil, fmt.Errorf("invalid track in setting: '%s'", k)
		}

		if s.Tracks == nil {
			s.Tracks = map[disk.Track]disk.TrackSettings{}
		}
		t := disk.Track(n)
		ts := s.Tracks[t]

		switch parts[1] {
		case "align":
			if ts.Align = q.Get(k); ts.Align == "" {
				return nil, fmt.Errorf("empty alignment for track %d", n)
			}
		case "reduce":
			ts.Reduce = splitList(q.Get(k))
		default:
			return nil, fmt.Errorf("invalid track setting: '%s'", k)
		}
		s.Tracks[t] = ts
	}

	return s, nil
}

//
func isPolicyKey(k string) bool {
	if strings.HasPrefix(k, trackKeyPrefix) {
		return true
	}
	for _, p := range policyKeys {
		if k == p {
			return true
		}
	}
	return false
}

//
func splitList(s string) []string {
	ret := []string{}
	for _, i := range strings.Split(s, ",") {
		if i = strings.TrimSpace(i); i != "" {
			ret = append(ret, i)
		}
	}
	return ret
}
