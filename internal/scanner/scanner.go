// Package scanner lists the contents of an extracted release so that
// placement can be decided without touching the filesystem.
package scanner

import (
	"context"
	"path"
	"sort"
	"strings"
)

// Entry is one path of an extracted release, slash-separated and relative
// to the extraction root
type Entry struct {
	Path  string
	IsDir bool
	Size  int64
}

// Name returns the last element of the entry path
func (e Entry) Name() string {
	return path.Base(e.Path)
}

// Tree indexes entries by parent directory. The root directory is "".
type Tree struct {
	children map[string][]Entry
	kinds    map[string]bool
}

// NewTree builds a tree from entries. Parent directories missing from the
// listing are added, since archives are not required to list them.
func NewTree(entries []Entry) *Tree {
	t := &Tree{
		children: make(map[string][]Entry),
		kinds:    make(map[string]bool),
	}

	for _, e := range entries {
		p := strings.Trim(path.Clean(strings.ReplaceAll(e.Path, "\\", "/")), "/")
		if p == "" || p == "." {
			continue
		}
		t.add(Entry{Path: p, IsDir: e.IsDir, Size: e.Size})
	}

	for dir := range t.children {
		sort.Slice(t.children[dir], func(i, j int) bool {
			return t.children[dir][i].Path < t.children[dir][j].Path
		})
	}
	return t
}

func (t *Tree) add(e Entry) {
	if _, seen := t.kinds[e.Path]; seen {
		return
	}
	t.kinds[e.Path] = e.IsDir

	parent := path.Dir(e.Path)
	if parent == "." {
		parent = ""
	} else {
		t.add(Entry{Path: parent, IsDir: true})
	}
	t.children[parent] = append(t.children[parent], e)
}

// Children returns the entries directly inside dir in lexical order
func (t *Tree) Children(dir string) []Entry {
	return t.children[dir]
}

// IsDir reports whether p is a directory of the tree
func (t *Tree) IsDir(p string) bool {
	if p == "" {
		return true
	}
	return t.kinds[p]
}

// HasFile reports whether dir directly contains a file called name
func (t *Tree) HasFile(dir, name string) bool {
	p := name
	if dir != "" {
		p = dir + "/" + name
	}
	isDir, ok := t.kinds[p]
	return ok && !isDir
}

// Walk visits directories depth-first in pre-order, children in lexical
// order, starting at the root. It stops when fn returns false.
func (t *Tree) Walk(fn func(dir string) bool) {
	t.walk("", fn)
}

func (t *Tree) walk(dir string, fn func(dir string) bool) bool {
	if !fn(dir) {
		return false
	}
	for _, child := range t.children[dir] {
		if child.IsDir && !t.walk(child.Path, fn) {
			return false
		}
	}
	return true
}

// Files returns every file in walk order: the files of a directory come
// before the contents of its subdirectories.
func (t *Tree) Files() []Entry {
	var files []Entry
	t.Walk(func(dir string) bool {
		for _, child := range t.children[dir] {
			if !child.IsDir {
				files = append(files, child)
			}
		}
		return true
	})
	return files
}

// Scanner lists an extracted release
type Scanner interface {
	// Scan lists dir recursively into a tree
	Scan(ctx context.Context, dir string) (*Tree, error)
}
