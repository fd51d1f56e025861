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
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/xelalexv/gcrconv/pkg/format"
)

//
func NewConvert() *Convert {

	c := &Convert{}
	c.Runner = *NewRunner(
		`convert -i|--input {file} -o|--output {file} [-f|--force]
      [-c|--config {file}] [policy flags] [-s|--server {address}]`,
		"convert disk image",
		`
Use the convert command to convert a disk image from one format to another.
Supported input formats are .nib, .nb2, .g64, and .d64, supported output formats
.nib, .g64, and .d64. Raw captures (.nib, .nb2) are aligned according to the
policy, unless written to .nib again.`,
		"", `- The formats are determined by the file extensions of the given file names.

`+runnerHelpEpilogue, c.Run)

	c.AddBaseSettings()
	c.AddSetting(&c.Input, "input", "i", "", nil, "input image file", true)
	c.AddSetting(&c.Output, "output", "o", "", nil, "output image file", true)
	c.AddSetting(&c.Force, "force", "f", "", false,
		"force overwriting output file", false)

	return c
}

//
type Convert struct {
	//
	Runner
	//
	Input  string
	Output string
	Force  bool
}

//
func (c *Convert) Run() error {

	c.ParseSettings()

	p, err := c.policy()
	if err != nil {
		return err
	}

	from := format.TypeFromName(c.Input)
	to := format.TypeFromName(c.Output)
	if !format.IsWritable(to) {
		return fmt.Errorf("cannot write images of type '%s'", to)
	}

	if !c.Force {
		if _, err := os.Stat(c.Output); err == nil &&
			!GetUserConfirmation("File exists, overwrite?") {
			return nil
		}
	}

	f, err := openImage(c.Input)
	if err != nil {
		return err
	}
	defer f.Close()
	in := bufio.NewReader(f)

	// the output file is only created once conversion has succeeded
	var out bytes.Buffer

	if c.isRemote() {
		path, err := c.apiPath("/convert", "type", from, "to", to)
		if err != nil {
			return err
		}
		resp, err := c.apiCall("POST", path, false, in)
		if err != nil {
			return err
		}
		defer resp.Close()
		if _, err := io.Copy(&out, resp); err != nil {
			return err
		}

	} else if err := newConverter(p).Convert(in, from, &out, to); err != nil {
		return err
	}

	if err := ioutil.WriteFile(c.Output, out.Bytes(), 0644); err != nil {
		return &format.IOError{Op: "writing image", Err: err}
	}

	fmt.Println("image converted")
	return nil
}
