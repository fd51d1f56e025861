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
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/xelalexv/gcrconv/pkg/control"
	"github.com/xelalexv/gcrconv/pkg/disk"
	"github.com/xelalexv/gcrconv/pkg/format"
	"github.com/xelalexv/gcrconv/pkg/gcr"
)

//
const runnerHelpPrologue = ""
const runnerHelpEpilogue = `- When a flag can be set via environment variable, the variable name is given
  in parenthesis at the end of the flag explanation. Note however that a flag,
  when specified overrides an environment variable. Environment variables can
  also be placed in a .env file in the working directory.

- Policy settings can also be given in a config file (YAML, JSON, or TOML)
  passed via --config, using the flag names as keys. Per track overrides of
  alignment and reduction go into a 'tracks' section, e.g.:

    tracks:
      "18": {align: none, reduce: [sync, gap]}

- Alignments: none, gap, sec0, sync, badgcr, vmax, autogap, vmax-cw, raw,
  pirateslayer, rapidlok
- Reductions: sync, badgcr, gap, none
- Protections: vmax, vmax-cw, securispeed, vorpal, rapidlok
`

/*
	NewRunner creates a base runner for commands to use. The parameters are
	passed to the base command wrapped by this runner.
*/
func NewRunner(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Runner {
	return &Runner{
		Command: *NewCommand(
			use, short, long, helpPrologue, helpEpilogue, exec),
	}
}

//
type Runner struct {
	//
	Command
	//
	Server string
	Config string
	//
	Start      int
	End        int
	Halftracks bool
	Align      string
	Reduce     []string
	Fill       string
	Sync       int
	GapMatch   int
	RPM        int
	Protection string
}

//
func (r *Runner) AddBaseSettings() {
	// Implementation Note: This cannot be included in NewRunner, but rather has
	// to be called from the top level command type. Otherwise, we will confuse
	// Cobra/Viper and the settings will not be filled with their values.
	r.AddSetting(&r.Server, "server", "s", "GCRCONV_SERVER", nil,
		"address of API server to use instead of converting locally", false)
	r.AddPolicySettings()
}

// AddPolicySettings adds the settings that make up the conversion policy
func (r *Runner) AddPolicySettings() {
	r.AddSetting(&r.Config, "config", "c", "GCRCONV_CONFIG", nil,
		"policy config file", false)
	r.AddSetting(&r.Start, "start", "", "GCRCONV_START", 1,
		"first track to process", false)
	r.AddSetting(&r.End, "end", "", "GCRCONV_END", 41,
		"last track to process", false)
	r.AddSetting(&r.Halftracks, "halftracks", "", "GCRCONV_HALFTRACKS", false,
		"process halftracks", false)
	r.AddSetting(&r.Align, "align", "", "GCRCONV_ALIGN", "none",
		"track alignment", false)
	r.AddSetting(&r.Reduce, "reduce", "", "GCRCONV_REDUCE", []string{"sync"},
		"track reductions, comma separated", false)
	r.AddSetting(&r.Fill, "fill", "", "GCRCONV_FILL", "0x55",
		"fill byte for padding G64 tracks, or 'loop' for repeating last byte",
		false)
	r.AddSetting(&r.Sync, "sync", "", "GCRCONV_SYNC", disk.DefaultMinSync,
		"minimum sync length when reducing, 0 turns off sync reduction", false)
	r.AddSetting(&r.GapMatch, "gap-match", "", "GCRCONV_GAP_MATCH",
		disk.DefaultGapMatch, "minimum gap length for gap detection", false)
	r.AddSetting(&r.RPM, "rpm", "", "GCRCONV_RPM", 0,
		"simulate drive speed for G64 track capacity, 0 for off", false)
	r.AddSetting(&r.Protection, "protection", "p", "GCRCONV_PROTECTION", nil,
		"copy protection preset", false)
}

// ParseSettings reads the policy config file if one is given, and then
// parses all settings. Flags and environment take precedence over the file.
func (r *Runner) ParseSettings() {
	if cfg := viper.GetString("config"); cfg != "" {
		viper.SetConfigFile(cfg)
		DieOnError(viper.ReadInConfig())
	}
	r.Command.ParseSettings()
}

// settings collects the policy settings from flags, environment, and config
// file
func (r *Runner) settings() (*disk.PolicySettings, error) {

	tracks, err := trackSettings()
	if err != nil {
		return nil, err
	}

	return &disk.PolicySettings{
		Start:      r.Start,
		End:        r.End,
		Halftracks: r.Halftracks,
		Align:      r.Align,
		Reduce:     r.Reduce,
		Fill:       r.Fill,
		Sync:       r.Sync,
		GapMatch:   r.GapMatch,
		RPM:        r.RPM,
		Protection: r.Protection,
		Tracks:     tracks,
	}, nil
}

// policy builds the conversion policy from the parsed settings
func (r *Runner) policy() (*disk.Policy, error) {
	s, err := r.settings()
	if err != nil {
		return nil, err
	}
	return s.Policy()
}

// trackSettings collects the per track overrides from the config file
func trackSettings() (map[disk.Track]disk.TrackSettings, error) {

	tracks := viper.GetStringMap("tracks")
	if len(tracks) == 0 {
		return nil, nil
	}

	ret := make(map[disk.Track]disk.TrackSettings, len(tracks))

	for k := range tracks {

		t, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("invalid track in config: '%s'", k)
		}

		sub := viper.Sub("tracks." + k)
		if sub == nil {
			continue
		}

		var ts disk.TrackSettings
		if sub.IsSet("align") {
			if ts.Align = sub.GetString("align"); ts.Align == "" {
				return nil, fmt.Errorf("track %d: empty alignment", t)
			}
		}
		if sub.IsSet("reduce") {
			ts.Reduce = append([]string{}, sub.GetStringSlice("reduce")...)
		}
		ret[disk.Track(t)] = ts
	}

	return ret, nil
}

//
func newConverter(p *disk.Policy) *format.Converter {
	return format.NewConverter(
		gcr.New(p.GapMatch()), p, disk.LogObserver{})
}

//
func (r *Runner) isRemote() bool {
	return r.Server != ""
}

// apiPath builds the path for an API request. The query carries the policy
// settings, and the given key/value pairs.
func (r *Runner) apiPath(path string, kv ...string) (string, error) {

	s, err := r.settings()
	if err != nil {
		return "", err
	}

	q := control.PolicyQuery(s)
	for ix := 0; ix+1 < len(kv); ix += 2 {
		q.Set(kv[ix], kv[ix+1])
	}

	return fmt.Sprintf("%s?%s", path, q.Encode()), nil
}

// apiCall sends a request to the API server. The caller has to close the
// returned body.
func (r *Runner) apiCall(method, path string, json bool,
	body io.Reader) (io.ReadCloser, error) {

	client := &http.Client{}
	req, err := http.NewRequest(
		method, fmt.Sprintf("http://%s%s", r.Server, path), body)
	if err != nil {
		return nil, err
	}

	if json {
		req.Header.Add("Accept", "application/json")
	} else {
		req.Header.Add("Accept", "text/plain")
	}
	req.Header.Add("Content-Type", "application/octet-stream")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := ioutil.ReadAll(resp.Body)
		return nil, fmt.Errorf("API server: %s: %s", resp.Status,
			strings.TrimSpace(string(msg)))
	}

	return resp.Body, nil
}

//
func openImage(file string) (*os.File, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, &format.IOError{Op: "opening image", Err: err}
	}
	return f, nil
}
