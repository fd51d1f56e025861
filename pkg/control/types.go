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

	"github.com/xelalexv/gcrconv/pkg/digest"
	"github.com/xelalexv/gcrconv/pkg/disk"
	"github.com/xelalexv/gcrconv/pkg/format"
)

//
type DigestReply struct {
	Algorithm string `json:"algorithm"`
	Scope     string `json:"scope"`
	Sum       string `json:"sum"`
	Clean     int    `json:"clean"`
	Total     int    `json:"total"`
}

//
func newDigestReply(s *digest.Summary) *DigestReply {
	return &DigestReply{
		Algorithm: s.Algorithm.String(),
		Scope:     s.Scope.String(),
		Sum:       s.String(),
		Clean:     s.Clean,
		Total:     s.Total,
	}
}

//
func (d *DigestReply) String() string {
	if d.Clean == d.Total {
		return d.Sum
	}
	return fmt.Sprintf("%s [%d/%d sectors]", d.Sum, d.Clean, d.Total)
}

//
type InfoReply struct {
	Name    string       `json:"name"`
	ID      string       `json:"id"`
	DOSType string       `json:"dosType"`
	Tracks  []*TrackInfo `json:"tracks"`
}

//
type TrackInfo struct {
	Track     float64 `json:"track"`
	Zone      int     `json:"zone"`
	NoSync    bool    `json:"noSync,omitempty"`
	Killer    bool    `json:"killer,omitempty"`
	Length    int     `json:"length"`
	Alignment string  `json:"alignment"`
}

//
func newInfoReply(info *format.Info, store *disk.Store,
	p *disk.Policy) *InfoReply {

	ret := &InfoReply{Name: info.Name, ID: info.ID, DOSType: info.DOSType}

	for _, h := range p.Halftracks() {
		slot := store.Slot(h)
		if slot == nil || slot.IsEmpty() {
			continue
		}
		ret.Tracks = append(ret.Tracks, &TrackInfo{
			Track:     float64(h) / 2,
			Zone:      slot.Density.Zone(),
			NoSync:    slot.Density.IsNoSync(),
			Killer:    slot.Density.IsKiller(),
			Length:    slot.Length,
			Alignment: slot.Alignment.String(),
		})
	}

	return ret
}
