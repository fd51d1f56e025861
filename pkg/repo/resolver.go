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
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

//
const PrefixRepoRef = "repo://"

//
func newFileSource(file string) (*fileSource, error) {
	if f, err := os.Open(file); err != nil {
		return nil, err
	} else {
		return &fileSource{file: f, reader: bufio.NewReader(f)}, nil
	}
}

//
type fileSource struct {
	file   *os.File
	reader io.Reader
}

//
func (fs *fileSource) Read(p []byte) (n int, err error) {
	return fs.reader.Read(p)
}

//
func (fs *fileSource) Close() error {
	return fs.file.Close()
}

// Resolve opens the image file a repo reference points to. References must
// not leave the repository folder.
func Resolve(ref, repo string) (io.ReadCloser, error) {

	log.WithFields(log.Fields{
		"reference":  ref,
		"repository": repo,
	}).Debug("resolving ref")

	if !IsReference(ref) {
		return nil, fmt.Errorf("not a repo reference: %s", ref)
	}

	if repo == "" {
		return nil, fmt.Errorf("image repository is not enabled")
	}

	path, err := resolvePath(repo, ref[len(PrefixRepoRef):])
	if err != nil {
		return nil, err
	}

	return newFileSource(path)
}

//
func resolvePath(repo, rel string) (string, error) {
	base, err := filepath.Abs(repo)
	if err != nil {
		return "", err
	}
	path := filepath.Join(base, filepath.FromSlash(rel))
	if path != base && !strings.HasPrefix(path, base+string(filepath.Separator)) {
		return "", fmt.Errorf("reference outside of repository: %s", rel)
	}
	return path, nil
}

//
func IsReference(r string) bool {
	return strings.HasPrefix(r, PrefixRepoRef)
}

// List returns references to all files in the repository with one of the
// given extensions, sorted by name. Extensions are matched case-insensitive,
// and without leading dot.
func List(repo string, exts ...string) ([]string, error) {

	if repo == "" {
		return nil, fmt.Errorf("image repository is not enabled")
	}

	want := map[string]bool{}
	for _, e := range exts {
		want[strings.ToLower(e)] = true
	}

	var ret []string

	err := filepath.Walk(repo, func(path string, info os.FileInfo,
		err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if len(want) > 0 && !want[ext] {
			return nil
		}
		rel, err := filepath.Rel(repo, path)
		if err != nil {
			return err
		}
		ret = append(ret, PrefixRepoRef+filepath.ToSlash(rel))
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(ret)
	return ret, nil
}
