// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package interpreter runs one console line: it parses the line, dispatches
// it to a tool handler and folds the handler's effects into new state.
package interpreter

import (
	"fmt"
	"time"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/chainconsole/chain"
	"github.com/ava-labs/chainconsole/parser"
	"github.com/ava-labs/chainconsole/tools"
	"github.com/ava-labs/chainconsole/vfs"
)

const readme = `# Project

Welcome to the console. Try:

    solana-keygen new
    solana airdrop 2
    anchor init my_program
`

// Options carries the inputs a command may not read from anywhere else.
type Options struct {
	// Seed derives every address, keypair and signature the command mints.
	Seed uint64
	// Now stamps recorded transactions and deployed programs.
	Now time.Time
}

// CreateInitialState returns the state and tree of a fresh session.
func CreateInitialState() (chain.State, *vfs.Node) {
	root := vfs.NewRoot()
	root = vfs.Mkdir(root, vfs.HomeDir)
	root = vfs.SetFile(root, vfs.ProjectRoot+"/README.md", readme)
	return chain.NewState(), root
}

// Execute runs [line] against [state] and [root]. The inputs are never
// modified; the returned values are the state after the command.
func Execute(line string, state chain.State, root *vfs.Node, opts Options) (tools.Result, chain.State, *vfs.Node) {
	argv := parser.Parse(line)
	if len(argv) == 0 {
		return tools.Result{}, state, root
	}

	name, args := argv[0], argv[1:]
	env := tools.Env{State: state, FS: root, Seed: opts.Seed, Now: opts.Now}
	result := tools.Lookup(name).Handle(name, args, env)
	log.Debug("executed command",
		"program", name,
		"args", len(args),
		"exit", result.ExitCode,
		"effects", len(result.Effects),
	)

	if result.Failed() {
		// a failed command never changes anything, whatever it returned
		result.Effects = nil
		result.NextDir = ""
	}
	for _, e := range result.Effects {
		state, root = fold(state, root, e, opts.Now)
	}
	if result.NextDir != "" {
		state = chain.SetCurrentDir(state, result.NextDir)
	}
	if tools.IsBuild(argv) {
		state = chain.SetBuildStatus(state, !result.Failed())
	}
	return result, state, root
}

func fold(state chain.State, root *vfs.Node, e tools.Effect, now time.Time) (chain.State, *vfs.Node) {
	switch e := e.(type) {
	case tools.CreateFile:
		return state, vfs.SetFile(root, e.Path, e.Content)
	case tools.UpdateFile:
		return state, vfs.SetFile(root, e.Path, e.Content)
	case tools.DeleteFile:
		return state, vfs.DeleteNode(root, e.Path)
	case tools.CreateDir:
		return state, vfs.Mkdir(root, e.Path)
	case tools.SetConfig:
		return chain.SetConfig(state, e.Key, e.Value), root
	case tools.RecordTx:
		return chain.RecordTransaction(state, e.Signature, e.Description, now), root
	case tools.DeployProgram:
		return chain.DeployProgram(state, e.ProgramID, e.Name, now), root
	}
	s, ok := tools.ApplyStateEffect(state, e)
	if !ok {
		panic(fmt.Sprintf("interpreter: no fold for effect %q", e.Kind()))
	}
	return s, root
}
