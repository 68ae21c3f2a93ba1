// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vfs

import (
	"sort"
)

// Kind is the result of a Stat lookup.
type Kind int

const (
	NotFound Kind = iota
	File
	Directory
)

// Node is a directory or a file in the virtual tree.
// Nodes are never modified once they are reachable from a root: every
// mutation copies the path from the root to the changed node and returns
// the new root, so older roots remain valid snapshots.
type Node struct {
	Dir      bool             `json:"dir,omitempty"`
	Children map[string]*Node `json:"children,omitempty"`
	Content  string           `json:"content,omitempty"`
}

// NewRoot returns an empty root directory.
func NewRoot() *Node {
	return newDir()
}

func newDir() *Node {
	return &Node{Dir: true, Children: map[string]*Node{}}
}

// copyDir returns a shallow copy of [n] that may be modified. A nil node or
// a file yields a fresh empty directory.
func copyDir(n *Node) *Node {
	d := newDir()
	if n == nil || !n.Dir {
		return d
	}
	for name, child := range n.Children {
		d.Children[name] = child
	}
	return d
}

func lookup(root *Node, p string) *Node {
	n := root
	for _, seg := range segments(p) {
		if n == nil || !n.Dir {
			return nil
		}
		n = n.Children[seg]
	}
	return n
}

// Stat reports whether [p] is a file, a directory or missing.
func Stat(root *Node, p string) Kind {
	n := lookup(root, p)
	switch {
	case n == nil:
		return NotFound
	case n.Dir:
		return Directory
	default:
		return File
	}
}

// GetFile returns the content of the file at [p]. The boolean is false when
// [p] is missing or is a directory.
func GetFile(root *Node, p string) (string, bool) {
	n := lookup(root, p)
	if n == nil || n.Dir {
		return "", false
	}
	return n.Content, true
}

// ListDir returns the sorted entry names of the directory at [p], or nil
// when [p] is missing or not a directory.
func ListDir(root *Node, p string) []string {
	n := lookup(root, p)
	if n == nil || !n.Dir {
		return nil
	}
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsDirectory applies the console's directory rule: [p] is a directory when
// the tree has a directory there, or when it is the session or project root,
// which exist even before anything has been written under them.
func IsDirectory(root *Node, p string) bool {
	p = Normalize(p)
	if p == "/" || p == HomeDir || p == ProjectRoot {
		return true
	}
	return Stat(root, p) == Directory
}

// SetFile writes [content] to [p], creating missing intermediate
// directories. A file standing where a directory is needed is replaced.
// Writing over an existing directory, or to the root, leaves the tree as is.
func SetFile(root *Node, p string, content string) *Node {
	segs := segments(p)
	if len(segs) == 0 || Stat(root, p) == Directory {
		return root
	}
	return put(root, segs, &Node{Content: content})
}

// Mkdir creates the directory [p] and its parents. Existing directories and
// files are left untouched.
func Mkdir(root *Node, p string) *Node {
	segs := segments(p)
	if len(segs) == 0 || Stat(root, p) != NotFound {
		return root
	}
	return put(root, segs, newDir())
}

func put(n *Node, segs []string, leaf *Node) *Node {
	d := copyDir(n)
	name := segs[0]
	if len(segs) == 1 {
		d.Children[name] = leaf
		return d
	}
	d.Children[name] = put(d.Children[name], segs[1:], leaf)
	return d
}

// DeleteNode removes the file or directory at [p]. Deleting a missing path,
// or the root, returns [root] itself.
func DeleteNode(root *Node, p string) *Node {
	segs := segments(p)
	if len(segs) == 0 || root == nil {
		return root
	}
	return remove(root, segs)
}

func remove(n *Node, segs []string) *Node {
	child, ok := n.Children[segs[0]]
	if !ok {
		return n
	}
	if len(segs) == 1 {
		d := copyDir(n)
		delete(d.Children, segs[0])
		return d
	}
	if !child.Dir {
		return n
	}
	updated := remove(child, segs[1:])
	if updated == child {
		return n
	}
	d := copyDir(n)
	d.Children[segs[0]] = updated
	return d
}

// Walk calls [fn] for [p] and every node below it in lexical order,
// parents before children. Walking a missing path calls nothing.
func Walk(root *Node, p string, fn func(path string, n *Node)) {
	n := lookup(root, p)
	if n == nil {
		return
	}
	walk(Normalize(p), n, fn)
}

func walk(p string, n *Node, fn func(string, *Node)) {
	fn(p, n)
	if !n.Dir {
		return
	}
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child := p + "/" + name
		if p == "/" {
			child = "/" + name
		}
		walk(child, n.Children[name], fn)
	}
}

// Files returns the paths of every file under [p], sorted.
func Files(root *Node, p string) []string {
	var files []string
	Walk(root, p, func(path string, n *Node) {
		if !n.Dir {
			files = append(files, path)
		}
	})
	return files
}
