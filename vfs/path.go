// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vfs

import (
	"path"
	"strings"
)

const (
	// HomeDir is the session root that "~" expands to.
	HomeDir = "/home/user"
	// ProjectRoot is the directory the console starts in.
	ProjectRoot = HomeDir + "/project"

	// projectAlias is the prefix editor panes use for project files.
	projectAlias = "/project"
)

// Normalize returns the canonical form of [p]: a single leading slash, no
// "." or ".." segments and no trailing slash except for the root itself.
// ".." never climbs above the root. A relative [p] is taken from the root.
func Normalize(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// Resolve resolves [input] against [currentDir] the way a shell resolves
// the argument of cd. It never fails: malformed input maps to the closest
// sane absolute path.
func Resolve(currentDir, input string) string {
	input = strings.TrimSpace(input)
	switch {
	case input == "" || input == ".":
		return Normalize(currentDir)
	case input == "~":
		return HomeDir
	case strings.HasPrefix(input, "~/"):
		return Normalize(HomeDir + input[1:])
	case strings.HasPrefix(input, "/"):
		return Normalize(input)
	default:
		return Normalize(Normalize(currentDir) + "/" + input)
	}
}

// ToVFSPath maps an absolute session path into the key space of the tree.
// Paths under the editor's project alias are rebased onto [ProjectRoot].
func ToVFSPath(sessionPath string) string {
	p := Normalize(sessionPath)
	if p == projectAlias || strings.HasPrefix(p, projectAlias+"/") {
		return Normalize(ProjectRoot + p[len(projectAlias):])
	}
	return p
}

// Rel returns [p] relative to [base] when [p] lies inside it, and [p]
// unchanged otherwise. Used for display only.
func Rel(base, p string) string {
	base, p = Normalize(base), Normalize(p)
	if p == base {
		return "."
	}
	if base == "/" {
		return p[1:]
	}
	if strings.HasPrefix(p, base+"/") {
		return p[len(base)+1:]
	}
	return p
}

// Display renders [p] with the home directory abbreviated to "~".
func Display(p string) string {
	p = Normalize(p)
	if p == HomeDir {
		return "~"
	}
	if strings.HasPrefix(p, HomeDir+"/") {
		return "~" + p[len(HomeDir):]
	}
	return p
}

func segments(p string) []string {
	p = Normalize(p)
	if p == "/" {
		return nil
	}
	return strings.Split(p[1:], "/")
}

// Base returns the last element of [p].
func Base(p string) string { return path.Base(Normalize(p)) }

// Dir returns all but the last element of [p].
func Dir(p string) string { return path.Dir(Normalize(p)) }
