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
	"strings"

	"github.com/xelalexv/gcrconv/pkg/digest"
	"github.com/xelalexv/gcrconv/pkg/format"
)

//
func NewDigest() *Digest {

	d := &Digest{}
	d.Runner = *NewRunner(
		`digest -i|--input {file} [-a|--algo {crc|md5}] [-S|--scope {dir|all}]
      [-c|--config {file}] [policy flags] [-s|--server {address}]`,
		"calculate digest of disk content",
		`
Use the digest command to calculate a checksum over the decoded sectors of a disk
image. With scope 'dir', only BAM and first directory sector are covered, which is
usually enough to tell disks apart. With scope 'all', all sectors of tracks 1
through 35 are covered. Digests are independent of image format.`,
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Input, "input", "i", "", nil, "input image file", true)
	d.AddSetting(&d.Algorithm, "algo", "a", "GCRCONV_DIGEST_ALGO", "crc32",
		"digest algorithm, 'crc32' or 'md5'", false)
	d.AddSetting(&d.Scope, "scope", "S", "GCRCONV_DIGEST_SCOPE", "dir",
		"digest scope, 'dir' or 'all'", false)

	return d
}

//
type Digest struct {
	//
	Runner
	//
	Input     string
	Algorithm string
	Scope     string
}

//
func (d *Digest) Run() error {

	d.ParseSettings()

	p, err := d.policy()
	if err != nil {
		return err
	}

	alg, err := digest.ParseAlgorithm(d.Algorithm)
	if err != nil {
		return err
	}
	scope, err := digest.ParseScope(d.Scope)
	if err != nil {
		return err
	}

	f, err := openImage(d.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	typ := format.TypeFromName(d.Input)

	if d.isRemote() {
		path, err := d.apiPath("/digest", "type", typ,
			"algo", alg.String(), "scope", scope.String())
		if err != nil {
			return err
		}
		resp, err := d.apiCall("POST", path, false, bufio.NewReader(f))
		if err != nil {
			return err
		}
		defer resp.Close()
		msg, err := ioutil.ReadAll(resp)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s\n", alg, strings.TrimSpace(string(msg)))
		return nil
	}

	conv := newConverter(p)
	store, err := conv.Load(bufio.NewReader(f), typ, true)
	if err != nil {
		return err
	}

	sum, err := digest.Compute(store, conv.Codec(), alg, scope)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s", alg, sum)
	if !sum.IsClean() {
		fmt.Printf(" [%d/%d sectors]", sum.Clean, sum.Total)
	}
	fmt.Println()

	return nil
}
