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

package run

import (
	"net/url"
	"testing"

	"github.com/spf13/viper"

	"github.com/xelalexv/gcrconv/pkg/disk"
)

//
func defaultRunner() *Runner {
	return &Runner{
		Start:    1,
		End:      41,
		Align:    "none",
		Reduce:   []string{"sync"},
		Fill:     "0x55",
		Sync:     disk.DefaultMinSync,
		GapMatch: disk.DefaultGapMatch,
	}
}

func TestPolicy(t *testing.T) {

	r := defaultRunner()
	p, err := r.policy()
	if err != nil {
		t.Fatal(err)
	}
	if p.Start() != 2 || p.End() != 82 || p.Alignment(5) != disk.AlignNone ||
		p.Reduction(5) != disk.ReduceSync {
		t.Errorf("unexpected policy: %+v", p)
	}

	r.Halftracks = true
	r.End = 42
	r.Align = "sec0"
	r.Reduce = []string{"sync", "gap"}
	r.Protection = "securispeed"
	if p, err = r.policy(); err != nil {
		t.Fatal(err)
	}
	if p.End() != disk.LastHalftrack || p.Step() != 1 ||
		p.Alignment(5) != disk.AlignSec0 ||
		p.Reduction(5) != disk.ReduceSync|disk.ReduceGap ||
		p.Alignment(38) != disk.AlignAutoGap ||
		p.Reduction(38) != disk.ReduceNone {
		t.Errorf("unexpected policy: %+v", p)
	}

	for _, mod := range []func(r *Runner){
		func(r *Runner) { r.Align = "spiral" },
		func(r *Runner) { r.Reduce = []string{"everything"} },
		func(r *Runner) { r.Fill = "none" },
		func(r *Runner) { r.Start = 0 },
		func(r *Runner) { r.RPM = 42 },
		func(r *Runner) { r.Protection = "lenslok" },
	} {
		r := defaultRunner()
		mod(r)
		if _, err := r.policy(); err == nil {
			t.Errorf("invalid settings accepted: %+v", r)
		}
	}
}

func TestTrackSettings(t *testing.T) {

	defer viper.Reset()

	viper.Set("tracks", map[string]interface{}{
		"18": map[string]interface{}{
			"align":  "gap",
			"reduce": []string{"gap"},
		},
		"36": map[string]interface{}{
			"align": "autogap",
		},
	})

	p, err := defaultRunner().policy()
	if err != nil {
		t.Fatal(err)
	}

	if p.Alignment(18) != disk.AlignGap || p.Reduction(18) != disk.ReduceGap ||
		p.Alignment(36) != disk.AlignAutoGap ||
		p.Reduction(36) != disk.ReduceSync || p.Alignment(17) != disk.AlignNone {
		t.Errorf("per track settings not applied: %+v", p)
	}

	viper.Set("tracks", map[string]interface{}{
		"eighteen": map[string]interface{}{"align": "gap"},
	})
	if _, err := defaultRunner().policy(); err == nil {
		t.Error("invalid track key accepted")
	}

	viper.Set("tracks", map[string]interface{}{
		"18": map[string]interface{}{"align": ""},
	})
	if _, err := defaultRunner().settings(); err == nil {
		t.Error("empty alignment accepted")
	}
}

func TestAPIPath(t *testing.T) {

	defer viper.Reset()
	viper.Set("tracks", map[string]interface{}{
		"18": map[string]interface{}{"align": "gap"},
	})

	r := defaultRunner()
	r.End = 20
	path, err := r.apiPath("/convert", "type", "d64", "to", "g64")
	if err != nil {
		t.Fatal(err)
	}

	u, err := url.Parse(path)
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	if u.Path != "/convert" || q.Get("type") != "d64" || q.Get("to") != "g64" ||
		q.Get("end") != "20" || q.Get("align") != "none" ||
		q.Get("reduce") != "sync" || q.Get("track.18.align") != "gap" {
		t.Errorf("unexpected path: %s", path)
	}
}
