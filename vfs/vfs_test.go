// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		cwd, input, want string
	}{
		{"/home/user/project", "", "/home/user/project"},
		{"/home/user/project", ".", "/home/user/project"},
		{"/home/user/project", "~", HomeDir},
		{"/home/user/project", "~/.config/solana", "/home/user/.config/solana"},
		{"/home/user/project", "..", "/home/user"},
		{"/home/user/project", "../../../../..", "/"},
		{"/home/user/project", "src//lib.rs", "/home/user/project/src/lib.rs"},
		{"/home/user/project", "./a/./b/../c/", "/home/user/project/a/c"},
		{"/home/user/project", "/etc/hosts", "/etc/hosts"},
		{"/", "..", "/"},
		{"", "a", "/a"},
		{"/home/user", "~foo", "/home/user/~foo"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, Resolve(test.cwd, test.input), "Resolve(%q, %q)", test.cwd, test.input)
	}
}

func TestToVFSPath(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(ProjectRoot, ToVFSPath("/project"))
	assert.Equal(ProjectRoot+"/src/lib.rs", ToVFSPath("/project/src/lib.rs"))
	assert.Equal("/projects/x", ToVFSPath("/projects/x"))
	assert.Equal("/home/user/a", ToVFSPath("/home/user/a/"))
	assert.Equal("/", ToVFSPath("/../.."))
}

func TestRelAndDisplay(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(".", Rel(ProjectRoot, ProjectRoot))
	assert.Equal("src/lib.rs", Rel(ProjectRoot, ProjectRoot+"/src/lib.rs"))
	assert.Equal("/etc", Rel(ProjectRoot, "/etc"))
	assert.Equal("~", Display(HomeDir))
	assert.Equal("~/project", Display(ProjectRoot))
	assert.Equal("/tmp", Display("/tmp"))
}

func TestFileRoundTrip(t *testing.T) {
	assert := assert.New(t)
	root := NewRoot()

	root2 := SetFile(root, "/a/b/c.txt", "hello\nworld")
	content, ok := GetFile(root2, "/a/b/c.txt")
	assert.True(ok)
	assert.Equal("hello\nworld", content)

	// intermediate directories are materialized
	assert.Equal(Directory, Stat(root2, "/a"))
	assert.Equal(Directory, Stat(root2, "/a/b"))
	assert.Equal([]string{"c.txt"}, ListDir(root2, "/a/b"))

	// the old root is untouched
	_, ok = GetFile(root, "/a/b/c.txt")
	assert.False(ok)
	assert.Empty(ListDir(root, "/"))

	root3 := DeleteNode(root2, "/a/b/c.txt")
	_, ok = GetFile(root3, "/a/b/c.txt")
	assert.False(ok)
	assert.Equal(Directory, Stat(root3, "/a/b"))
	content, ok = GetFile(root2, "/a/b/c.txt")
	assert.True(ok)
	assert.Equal("hello\nworld", content)
}

func TestSetFileShares(t *testing.T) {
	assert := assert.New(t)
	root := SetFile(NewRoot(), "/x/one", "1")
	root = SetFile(root, "/y/two", "2")
	next := SetFile(root, "/y/three", "3")

	// untouched subtrees are shared between snapshots
	assert.Same(root.Children["x"], next.Children["x"])
	assert.NotSame(root.Children["y"], next.Children["y"])
}

func TestSetFileEdgeCases(t *testing.T) {
	assert := assert.New(t)
	root := Mkdir(NewRoot(), "/dir")

	assert.Same(root, SetFile(root, "/", "x"))
	assert.Same(root, SetFile(root, "/dir", "x"))

	// a file in the way of a directory is replaced
	root = SetFile(root, "/f", "file")
	root = SetFile(root, "/f/g", "nested")
	assert.Equal(Directory, Stat(root, "/f"))
	content, ok := GetFile(root, "/f/g")
	assert.True(ok)
	assert.Equal("nested", content)
}

func TestMkdir(t *testing.T) {
	assert := assert.New(t)
	root := Mkdir(NewRoot(), "/a/b/c")
	assert.Equal(Directory, Stat(root, "/a/b/c"))
	assert.Empty(ListDir(root, "/a/b/c"))
	assert.Same(root, Mkdir(root, "/a/b"))

	root = SetFile(root, "/a/file", "x")
	assert.Same(root, Mkdir(root, "/a/file"))
}

func TestDeleteMissing(t *testing.T) {
	assert := assert.New(t)
	root := SetFile(NewRoot(), "/a/b", "x")
	assert.Same(root, DeleteNode(root, "/nope"))
	assert.Same(root, DeleteNode(root, "/a/b/c"))
	assert.Same(root, DeleteNode(root, "/"))

	root = DeleteNode(root, "/a")
	assert.Equal(NotFound, Stat(root, "/a/b"))
}

func TestListDirNotDirectory(t *testing.T) {
	assert := assert.New(t)
	root := SetFile(NewRoot(), "/a/b", "x")
	assert.Nil(ListDir(root, "/a/b"))
	assert.Nil(ListDir(root, "/missing"))
	assert.Nil(ListDir(nil, "/"))
}

func TestIsDirectory(t *testing.T) {
	assert := assert.New(t)
	root := NewRoot()
	assert.True(IsDirectory(root, HomeDir))
	assert.True(IsDirectory(root, ProjectRoot))
	assert.False(IsDirectory(root, ProjectRoot+"/src"))

	root = Mkdir(root, ProjectRoot+"/src")
	assert.True(IsDirectory(root, ProjectRoot+"/src/"))
	root = SetFile(root, ProjectRoot+"/README.md", "")
	assert.False(IsDirectory(root, ProjectRoot+"/README.md"))
}

func TestWalkAndFiles(t *testing.T) {
	assert := assert.New(t)
	root := SetFile(NewRoot(), "/p/b.txt", "b")
	root = SetFile(root, "/p/a/z.txt", "z")
	root = Mkdir(root, "/p/empty")

	var visited []string
	Walk(root, "/p", func(p string, _ *Node) { visited = append(visited, p) })
	assert.Equal([]string{"/p", "/p/a", "/p/a/z.txt", "/p/b.txt", "/p/empty"}, visited)
	assert.Equal([]string{"/p/a/z.txt", "/p/b.txt"}, Files(root, "/"))
	assert.Empty(Files(root, "/missing"))
}
