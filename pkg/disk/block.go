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

// NewBlock wraps data with an index of named fields. Each index entry holds
// the offset and length of a field.
func NewBlock(index map[string][2]int, data []byte) *Block {
	return &Block{index: index, Data: data}
}

//
type Block struct {
	index map[string][2]int
	Data  []byte
}

//
var HeaderIndex = map[string][2]int{
	"marker":   {0, 1},
	"checksum": {1, 1},
	"sector":   {2, 1},
	"track":    {3, 1},
	"id":       {4, 2},
	"covered":  {2, 4},
	"filler":   {6, 2},
}

//
var DataIndex = map[string][2]int{
	"marker":   {0, 1},
	"data":     {1, SectorSize},
	"checksum": {SectorSize + 1, 1},
}

//
var BAMIndex = map[string][2]int{
	"dirtrack":   {0, 1},
	"dirsector":  {1, 1},
	"dosversion": {2, 1},
	"name":       {0x90, 16},
	"id":         {0xa2, 2},
	"dostype":    {0xa5, 2},
}

//
func (b *Block) GetByte(key string) byte {
	if ix, ok := b.index[key]; ok {
		if 0 <= ix[0] && ix[0] < len(b.Data) && ix[1] == 1 {
			return b.Data[ix[0]]
		}
	}
	return 0
}

//
func (b *Block) SetByte(key string, v byte) {
	if ix, ok := b.index[key]; ok {
		if 0 <= ix[0] && ix[0] < len(b.Data) && ix[1] == 1 {
			b.Data[ix[0]] = v
		}
	}
}

//
func (b *Block) GetSlice(key string) []byte {
	if ix, ok := b.index[key]; ok {
		start := ix[0]
		end := start + ix[1]
		if 0 <= start && end <= len(b.Data) {
			return b.Data[start:end]
		}
	}
	return []byte{}
}

//
func (b *Block) GetString(key string) string {
	return DecodePETSCII(b.GetSlice(key))
}

// XOR returns the exclusive or over all bytes of a field, as used for sector
// checksums
func (b *Block) XOR(key string) byte {
	var ret byte
	for _, s := range b.GetSlice(key) {
		ret ^= s
	}
	return ret
}
