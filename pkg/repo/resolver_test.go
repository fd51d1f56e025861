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

package repo

import (
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

//
func setupRepo(t *testing.T) string {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"game.d64":        "d64",
		"sub/Demo.G64":    "g64",
		"sub/readme.txt":  "txt",
		"raw/capture.nib": "nib",
	} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestResolve(t *testing.T) {

	dir := setupRepo(t)

	in, err := Resolve("repo://sub/Demo.G64", dir)
	if err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(in)
	in.Close()
	if err != nil || string(data) != "g64" {
		t.Errorf("got '%s', %v", data, err)
	}

	tests := []struct {
		name string
		ref  string
		repo string
	}{
		{"no reference", "sub/Demo.G64", dir},
		{"repo disabled", "repo://game.d64", ""},
		{"traversal", "repo://../outside.d64", dir},
		{"nested traversal", "repo://sub/../../outside.d64", dir},
		{"missing file", "repo://nothing.d64", dir},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if in, err := Resolve(tc.ref, tc.repo); err == nil {
				in.Close()
				t.Error("expected error")
			}
		})
	}
}

func TestList(t *testing.T) {

	dir := setupRepo(t)

	refs, err := List(dir, "d64", "g64", "nib")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"repo://game.d64", "repo://raw/capture.nib", "repo://sub/Demo.G64"}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("got %v, want %v", refs, want)
	}

	if refs, _ = List(dir); len(refs) != 4 {
		t.Errorf("got %d files without filter, want 4", len(refs))
	}

	if _, err := List(""); err == nil {
		t.Error("expected error for disabled repository")
	}
}
