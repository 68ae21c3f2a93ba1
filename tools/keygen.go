// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tools

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ava-labs/chainconsole/chain"
	"github.com/ava-labs/chainconsole/vfs"
)

const separator = "================================================================================"

// Keygen simulates the keypair tool.
func Keygen(_ string, args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("error: a subcommand is required: new, pubkey, verify")
	}
	switch args[0] {
	case "--version", "-V":
		return Success("solana-keygen " + solanaVersion)
	case "new":
		return keygenNew(args[1:], env)
	case "pubkey":
		return keygenPubkey(args[1:], env)
	case "verify":
		return keygenVerify(args[1:], env)
	default:
		return Failure("error: unrecognized subcommand '%s'", args[0])
	}
}

func keygenNew(args []string, env Env) Result {
	p, err := parseFlags(args,
		valueFlag("--outfile", "-o"),
		boolFlag("--force", "-f"),
		boolFlag("--no-bip39-passphrase"),
		boolFlag("--silent", "-s"),
		valueFlag("--word-count"),
	)
	if err != nil {
		return Failure("%s", err)
	}
	if len(p.positional) > 0 {
		return Failure("error: unexpected argument '%s' found", p.positional[0])
	}

	wordCount := 12
	if v, ok := p.get("--word-count"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 12 || n > 24 || n%3 != 0 {
			return Failure("error: invalid value '%s' for '--word-count <NUMBER>': expected one of 12, 15, 18, 21, 24", v)
		}
		wordCount = n
	}

	outfile := env.State.Config.KeypairPath
	if v, ok := p.get("--outfile"); ok {
		outfile = v
	}
	path := env.Path(outfile)
	if blocker, blocked := env.fileAncestor(path); blocked {
		return Failure("Error: %s: Not a directory", blocker)
	}
	switch vfs.Stat(env.FS, path) {
	case vfs.Directory:
		return Failure("Error: %s is a directory", path)
	case vfs.File:
		if !p.has("--force") {
			return Failure("Refusing to overwrite %s without --force flag", path)
		}
	}

	keys := env.Keys()
	kp := keys.Keypair()
	words := keys.Words(wordCount)

	var out strings.Builder
	if !p.has("--silent") {
		out.WriteString("Generating a new keypair\n\n")
	}
	fmt.Fprintf(&out, "Wrote new keypair to %s\n", path)
	if !p.has("--silent") {
		fmt.Fprintf(&out, "%s\npubkey: %s\n%s\n", separator, kp.Address(), separator)
		fmt.Fprintf(&out, "Save this seed phrase to recover your new keypair:\n%s\n%s", strings.Join(words, " "), separator)
	}
	return Success(strings.TrimRight(out.String(), "\n"),
		env.writeFile(path, kp.MarshalFile()),
		UpsertWallet{Pubkey: kp.Address(), KeypairPath: path},
	)
}

// readKeypair loads the keypair at [arg], or the configured keypair when
// [arg] is empty.
func readKeypair(arg string, env Env) (chain.Keypair, string, *Result) {
	if arg == "" {
		arg = env.State.Config.KeypairPath
	}
	path := env.Path(arg)
	content, ok := vfs.GetFile(env.FS, path)
	if !ok {
		r := Failure(`Error: could not read keypair file "%s". Run "solana-keygen new" to create a keypair file: No such file or directory (os error 2)`, path)
		return chain.Keypair{}, path, &r
	}
	kp, err := chain.ParseKeypairFile(content)
	if err != nil {
		r := Failure("Error: %s is not a valid keypair file: %s", path, err)
		return chain.Keypair{}, path, &r
	}
	return kp, path, nil
}

func keygenPubkey(args []string, env Env) Result {
	p, err := parseFlags(args)
	if err != nil {
		return Failure("%s", err)
	}
	arg, _ := p.arg(0)
	kp, _, fail := readKeypair(arg, env)
	if fail != nil {
		return *fail
	}
	return Success(kp.Address())
}

func keygenVerify(args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("error: the following required arguments were not provided: <PUBKEY>")
	}
	pubkey := args[0]
	var keypairArg string
	if len(args) > 1 {
		keypairArg = args[1]
	}
	kp, _, fail := readKeypair(keypairArg, env)
	if fail != nil {
		return *fail
	}
	if kp.Address() != pubkey {
		return Failure("Verification for public key: %s: Failed", pubkey)
	}
	return Success(fmt.Sprintf("Verification for public key: %s: Success", pubkey))
}
