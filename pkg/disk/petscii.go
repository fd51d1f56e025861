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
	"strings"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// PETSCII returns a transformer decoding PETSCII text as found in disk names
// and directory entries into UTF-8
func PETSCII() transform.Transformer {
	return petsciiDecoder{}
}

// DecodePETSCII decodes b and strips the shifted space padding used in
// directory entries
func DecodePETSCII(b []byte) string {
	ret, _, err := transform.Bytes(PETSCII(), b)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(ret), " ")
}

//
type petsciiDecoder struct {
	transform.NopResetter
}

//
func (petsciiDecoder) Transform(dst, src []byte, atEOF bool) (
	nDst, nSrc int, err error) {

	for nSrc < len(src) {
		r := petsciiRune(src[nSrc])
		if nDst+utf8.RuneLen(r) > len(dst) {
			err = transform.ErrShortDst
			return
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc++
	}
	return
}

//
func petsciiRune(b byte) rune {
	switch {
	case b == 0x5c:
		return '£'
	case b == 0x5e:
		return '↑'
	case b == 0x5f:
		return '←'
	case 0x20 <= b && b <= 0x5d:
		return rune(b)
	case 0xc1 <= b && b <= 0xda:
		return rune(b - 0x80)
	case b == 0xa0:
		return ' '
	default:
		return '?'
	}
}
