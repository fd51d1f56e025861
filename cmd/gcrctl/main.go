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

package main

import (
	"fmt"
	"os"

	"github.com/xelalexv/gcrconv/pkg/run"
)

//
var GCRConvVersion string

//
func synopsis() {
	fmt.Print(`
synopsis: gcrctl {convert|digest|info|serve|version} ...

run 'gcrctl {action} -h|--help' to see detailed info

`)
}

//
func version() {
	fmt.Printf("\nGCRConv %s\n\n", GCRConvVersion)
}

//
func main() {

	var action string
	var args []string

	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	if len(os.Args) > 2 {
		args = os.Args[2:]
	}

	switch action {

	case "convert":
		run.DieOnError(run.NewConvert().Execute(args))

	case "digest":
		run.DieOnError(run.NewDigest().Execute(args))

	case "info":
		run.DieOnError(run.NewInfo().Execute(args))

	case "serve":
		version()
		run.DieOnError(run.NewServe().Execute(args))

	case "version":
		version()

	case "":
		fallthrough
	case "-h":
		fallthrough
	case "--help":
		synopsis()

	default:
		run.Die("unknown action: %s\n", action)
	}
}
