// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tools implements the simulated command line tools. Every handler
// is a pure function of its arguments and an Env snapshot: it reports what
// it wants changed as Effects and never touches shared state.
package tools

import (
	"sort"
	"time"

	"github.com/ava-labs/chainconsole/chain"
	"github.com/ava-labs/chainconsole/vfs"
)

// Env is the read-only view a handler runs against. Seed and Now are the
// only sources of fresh addresses and timestamps a handler may use.
type Env struct {
	State chain.State
	FS    *vfs.Node
	Seed  uint64
	Now   time.Time
}

// Path resolves [p] against the working directory into the tree's key space.
func (e Env) Path(p string) string {
	return vfs.ToVFSPath(vfs.Resolve(e.State.CurrentDir, p))
}

// Keys returns the deterministic key source for this invocation.
func (e Env) Keys() *chain.KeySource {
	return chain.NewKeySource(e.Seed)
}

// writeFile returns a create or update effect depending on whether [p]
// already holds a file.
func (e Env) writeFile(p, content string) Effect {
	if vfs.Stat(e.FS, p) == vfs.File {
		return UpdateFile{Path: p, Content: content}
	}
	return CreateFile{Path: p, Content: content}
}

// fileAncestor returns the closest ancestor of [p] that is a file. Writing
// at [p] would replace that file with a directory.
func (e Env) fileAncestor(p string) (string, bool) {
	for dir := vfs.Dir(p); ; dir = vfs.Dir(dir) {
		if vfs.Stat(e.FS, dir) == vfs.File {
			return dir, true
		}
		if dir == "/" {
			return "", false
		}
	}
}

// Handler runs one program.
type Handler interface {
	Handle(name string, args []string, env Env) Result
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(name string, args []string, env Env) Result

// Handle calls f.
func (f HandlerFunc) Handle(name string, args []string, env Env) Result {
	return f(name, args, env)
}

const (
	SolanaProgram   = "solana"
	KeygenProgram   = "solana-keygen"
	AnchorProgram   = "anchor"
	SPLTokenProgram = "spl-token"
)

var programs = map[string]Handler{
	SolanaProgram:   HandlerFunc(Solana),
	KeygenProgram:   HandlerFunc(Keygen),
	AnchorProgram:   HandlerFunc(Anchor),
	SPLTokenProgram: HandlerFunc(SPLToken),
}

// Lookup returns the handler for [name]. Names that are not one of the
// simulated tools go to the shell, which also reports unknown commands.
func Lookup(name string) Handler {
	if h, ok := programs[name]; ok {
		return h
	}
	return HandlerFunc(Shell)
}

// Commands lists every command name the console understands, sorted.
func Commands() []string {
	names := make([]string, 0, len(programs)+len(builtins))
	for name := range programs {
		names = append(names, name)
	}
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
