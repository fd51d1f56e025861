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
	"fmt"
	"io/ioutil"
	"os"

	"github.com/xelalexv/gcrconv/pkg/format"
)

//
func NewInfo() *Info {

	i := &Info{}
	i.Runner = *NewRunner(
		`info -i|--input {file} [-c|--config {file}] [policy flags]
      [-s|--server {address}]`,
		"show disk image info",
		`
Use the info command to list disk name and id, and the tracks of a disk image with
their density, length, fill level, and alignment.`,
		"", runnerHelpEpilogue, i.Run)

	i.AddBaseSettings()
	i.AddSetting(&i.Input, "input", "i", "", nil, "input image file", true)

	return i
}

//
type Info struct {
	//
	Runner
	//
	Input string
}

//
func (i *Info) Run() error {

	i.ParseSettings()

	p, err := i.policy()
	if err != nil {
		return err
	}

	f, err := openImage(i.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	typ := format.TypeFromName(i.Input)

	if i.isRemote() {
		path, err := i.apiPath("/info", "type", typ)
		if err != nil {
			return err
		}
		resp, err := i.apiCall("POST", path, false, bufio.NewReader(f))
		if err != nil {
			return err
		}
		defer resp.Close()
		msg, err := ioutil.ReadAll(resp)
		if err != nil {
			return err
		}
		fmt.Printf("%s", msg)
		return nil
	}

	conv := newConverter(p)
	store, err := conv.Load(bufio.NewReader(f), typ, true)
	if err != nil {
		return err
	}

	fmt.Println()
	return format.List(store, conv.Codec(), p, os.Stdout)
}
