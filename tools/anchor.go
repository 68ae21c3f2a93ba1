// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tools

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/ava-labs/chainconsole/chain"
	"github.com/ava-labs/chainconsole/vfs"
)

const (
	anchorVersion = "0.30.1"

	// MinDeployLamports is the balance the default wallet needs to deploy.
	MinDeployLamports = 1 * chain.LamportsPerSOL
	// DeployCostLamports is debited per deployed program.
	DeployCostLamports = 2_282_880

	// Markers the build and test steps look for.
	declareIDMarker = "declare_id!"
	programMarker   = "#[program]"
	assertMarker    = "assert"

	workspaceManifest = "Anchor.toml"
)

var (
	workspaceNameRE = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)
	instructionRE   = regexp.MustCompile(`pub fn ([a-z_][a-z0-9_]*)\s*[(<]`)
	describeRE      = regexp.MustCompile("describe\\(\\s*[\"'`]([^\"'`]+)")
	itRE            = regexp.MustCompile("\\bit\\(\\s*[\"'`]([^\"'`]+)")
)

// Anchor simulates the program framework tool.
func Anchor(_ string, args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("error: a subcommand is required: init, build, test, deploy, keys")
	}
	switch args[0] {
	case "--version", "-V":
		return Success("anchor-cli " + anchorVersion)
	case "init":
		return anchorInit(args[1:], env)
	case "build":
		return anchorBuild(env)
	case "test":
		return anchorTest(env)
	case "deploy":
		return anchorDeploy(env)
	case "keys":
		if len(args) < 2 || args[1] != "list" {
			return Failure("error: 'anchor keys' supports only 'list'")
		}
		return anchorKeysList(env)
	default:
		return Failure("error: unrecognized subcommand '%s'", args[0])
	}
}

// IsBuild reports whether [argv] is the framework's build command, whose
// exit code decides whether a later deploy is allowed.
func IsBuild(argv []string) bool {
	return len(argv) >= 2 && argv[0] == AnchorProgram && argv[1] == "build"
}

func join(dir, name string) string {
	return vfs.Normalize(dir + "/" + name)
}

func snakeCase(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

func camelCase(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}

// findWorkspace returns the closest directory at or above the working
// directory that holds an Anchor.toml.
func findWorkspace(env Env) (string, bool) {
	dir := vfs.Normalize(env.State.CurrentDir)
	for {
		if vfs.Stat(env.FS, join(dir, workspaceManifest)) == vfs.File {
			return dir, true
		}
		if dir == "/" {
			return "", false
		}
		dir = vfs.Dir(dir)
	}
}

func noWorkspaceFailure() Result {
	return Failure("Error: %s not found in this directory or any parent; run `anchor init <name>` first", workspaceManifest)
}

// workspaceProgram is a program crate inside a workspace.
type workspaceProgram struct {
	crate  string // directory name under programs/
	module string // snake case library name
	dir    string
	source string // path of src/lib.rs
}

func (p workspaceProgram) artifact(ws string) string {
	return join(ws, "target/deploy/"+p.module+".so")
}

func (p workspaceProgram) keypair(ws string) string {
	return join(ws, "target/deploy/"+p.module+"-keypair.json")
}

func (p workspaceProgram) idl(ws string) string {
	return join(ws, "target/idl/"+p.module+".json")
}

func workspacePrograms(env Env, ws string) []workspaceProgram {
	var progs []workspaceProgram
	root := join(ws, "programs")
	for _, name := range vfs.ListDir(env.FS, root) {
		source := join(root, name+"/src/lib.rs")
		if vfs.Stat(env.FS, source) != vfs.File {
			continue
		}
		progs = append(progs, workspaceProgram{
			crate:  name,
			module: snakeCase(name),
			dir:    join(root, name),
			source: source,
		})
	}
	return progs
}

// programID returns the address of the program keypair written at init or
// build time, if it is present and valid.
func programID(env Env, ws string, p workspaceProgram) (string, bool) {
	content, ok := vfs.GetFile(env.FS, p.keypair(ws))
	if !ok {
		return "", false
	}
	kp, err := chain.ParseKeypairFile(content)
	if err != nil {
		return "", false
	}
	return kp.Address(), true
}

func anchorInit(args []string, env Env) Result {
	p, err := parseFlags(args, boolFlag("--no-git"))
	if err != nil {
		return Failure("%s", err)
	}
	name, ok := p.arg(0)
	if !ok {
		return Failure("error: the following required arguments were not provided: <NAME>")
	}
	if !workspaceNameRE.MatchString(name) {
		return Failure("Error: Anchor workspace name must be a valid Rust identifier. It may not start with a number or contain uppercase letters or symbols: %s", name)
	}
	dir := env.Path(name)
	if vfs.Stat(env.FS, dir) != vfs.NotFound {
		return Failure("Error: %s already exists", name)
	}

	module := snakeCase(name)
	kp := env.Keys().Keypair()
	files := []struct{ path, content string }{
		{workspaceManifest, anchorTOML(module, kp.Address())},
		{"Cargo.toml", workspaceCargoTOML},
		{"package.json", packageJSON},
		{"tsconfig.json", tsconfigJSON},
		{".gitignore", gitignore},
		{"programs/" + name + "/Cargo.toml", programCargoTOML(name, module)},
		{"programs/" + name + "/src/lib.rs", libRS(module, kp.Address())},
		{"tests/" + name + ".ts", testTS(name, module)},
		{"target/deploy/" + module + "-keypair.json", kp.MarshalFile()},
	}
	if !p.has("--no-git") {
		files = append(files, struct{ path, content string }{".git/HEAD", gitHead})
	}

	var (
		effects = []Effect{CreateDir{Path: dir}}
		out     strings.Builder
	)
	for _, f := range files {
		effects = append(effects, CreateFile{Path: join(dir, f.path), Content: f.content})
	}
	if !p.has("--no-git") {
		fmt.Fprintf(&out, "Initialized empty Git repository in %s/.git/\n", dir)
	}
	fmt.Fprintf(&out, "%s initialized", name)
	return Success(out.String(), effects...)
}

// sourceDiagnostic checks a program source for the markers and delimiter
// balance a build needs, returning a compiler style message on failure.
func sourceDiagnostic(rel, source string) (string, bool) {
	if !strings.Contains(source, declareIDMarker) {
		return fmt.Sprintf("error: cannot find the program id; add `declare_id!(\"<PROGRAM_ID>\");`\n --> %s", rel), false
	}
	if !strings.Contains(source, programMarker) {
		return fmt.Sprintf("error: no `#[program]` module found\n --> %s", rel), false
	}
	if msg, line, col, ok := checkDelimiters(source); !ok {
		return fmt.Sprintf("error: %s\n --> %s:%d:%d", msg, rel, line, col), false
	}
	return "", true
}

// checkDelimiters verifies that braces, brackets and parentheses balance,
// ignoring string literals and line comments.
func checkDelimiters(source string) (msg string, line, col int, ok bool) {
	type open struct {
		r         rune
		line, col int
	}
	var (
		stack    []open
		inString bool
		escaped  bool
		comment  bool
		prev     rune
	)
	pairs := map[rune]rune{'}': '{', ']': '[', ')': '('}
	line, col = 1, 0
	for _, r := range source {
		col++
		if r == '\n' {
			line, col = line+1, 0
			comment = false
			prev = r
			continue
		}
		switch {
		case comment:
		case inString:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
		case r == '/' && prev == '/':
			comment = true
		case r == '"':
			inString = true
		case r == '{' || r == '[' || r == '(':
			stack = append(stack, open{r, line, col})
		case r == '}' || r == ']' || r == ')':
			if len(stack) == 0 || stack[len(stack)-1].r != pairs[r] {
				return fmt.Sprintf("unexpected closing delimiter: `%c`", r), line, col, false
			}
			stack = stack[:len(stack)-1]
		}
		prev = r
	}
	if len(stack) > 0 {
		o := stack[len(stack)-1]
		return "this file contains an unclosed delimiter", o.line, o.col, false
	}
	return "", 0, 0, true
}

type idlInstruction struct {
	Name     string   `json:"name"`
	Accounts []string `json:"accounts"`
	Args     []string `json:"args"`
}

type idlMetadata struct {
	Address string `json:"address"`
}

type idlDocument struct {
	Version      string           `json:"version"`
	Name         string           `json:"name"`
	Instructions []idlInstruction `json:"instructions"`
	Metadata     idlMetadata      `json:"metadata"`
}

func buildIDL(module, address, source string) string {
	doc := idlDocument{
		Version:      "0.1.0",
		Name:         module,
		Instructions: []idlInstruction{},
		Metadata:     idlMetadata{Address: address},
	}
	for _, m := range instructionRE.FindAllStringSubmatch(source, -1) {
		doc.Instructions = append(doc.Instructions, idlInstruction{
			Name:     m[1],
			Accounts: []string{},
			Args:     []string{},
		})
	}
	out, _ := json.MarshalIndent(doc, "", "  ") // plain structs always encode
	return string(out)
}

func buildArtifact(module, source string) string {
	digest := hashing.ComputeHash256([]byte(source))
	return fmt.Sprintf("\x7fELF simulated sBPF shared object\nprogram: %s\nsha256: %s\n", module, hex.EncodeToString(digest))
}

func anchorBuild(env Env) Result {
	ws, ok := findWorkspace(env)
	if !ok {
		return noWorkspaceFailure()
	}
	progs := workspacePrograms(env, ws)
	if len(progs) == 0 {
		return Failure("Error: no programs found under %s", join(ws, "programs"))
	}

	var (
		out      strings.Builder
		errs     strings.Builder
		effects  []Effect
		failures int
		keys     = env.Keys()
		size     int
	)
	for _, p := range progs {
		source, _ := vfs.GetFile(env.FS, p.source)
		size += len(source)
		fmt.Fprintf(&out, "   Compiling %s v0.1.0 (%s)\n", p.crate, p.dir)
		if diag, ok := sourceDiagnostic(vfs.Rel(ws, p.source), source); !ok {
			failures++
			fmt.Fprintf(&errs, "%s\n\nerror: could not compile `%s` (lib) due to 1 previous error\n", diag, p.crate)
			continue
		}

		address, ok := programID(env, ws, p)
		outputs := []string{p.artifact(ws), p.idl(ws)}
		if !ok {
			outputs = append(outputs, p.keypair(ws))
		}
		for _, o := range outputs {
			if blocker, blocked := env.fileAncestor(o); blocked {
				return Failure("error: couldn't write %s: %s is not a directory", vfs.Rel(ws, o), vfs.Rel(ws, blocker))
			}
			if vfs.IsDirectory(env.FS, o) {
				return Failure("error: couldn't write %s: Is a directory", vfs.Rel(ws, o))
			}
		}
		if !ok {
			kp := keys.Keypair()
			address = kp.Address()
			effects = append(effects, env.writeFile(p.keypair(ws), kp.MarshalFile()))
		}
		effects = append(effects,
			env.writeFile(p.artifact(ws), buildArtifact(p.module, source)),
			env.writeFile(p.idl(ws), buildIDL(p.module, address, source)),
		)
	}
	if failures > 0 {
		return Result{
			Stdout:   strings.TrimRight(out.String(), "\n"),
			Stderr:   strings.TrimRight(errs.String(), "\n"),
			ExitCode: 1,
		}
	}
	// build time is derived from the source size so transcripts stay stable
	fmt.Fprintf(&out, "    Finished release [optimized] target(s) in %.2fs", 1.2+float64(size)/4000)
	return Success(out.String(), effects...)
}

func anchorTest(env Env) Result {
	ws, ok := findWorkspace(env)
	if !ok {
		return noWorkspaceFailure()
	}
	var tests []string
	for _, f := range vfs.Files(env.FS, join(ws, "tests")) {
		if strings.HasSuffix(f, ".ts") || strings.HasSuffix(f, ".js") {
			tests = append(tests, f)
		}
	}
	if len(tests) == 0 {
		return Failure("Error: no test files found under %s", join(ws, "tests"))
	}

	var (
		out     strings.Builder
		passing int
	)
	for _, f := range tests {
		content, _ := vfs.GetFile(env.FS, f)
		if !strings.Contains(content, assertMarker) {
			return Failure("Error: %s contains no assertions; a test must assert something", vfs.Rel(ws, f))
		}
		suite := vfs.Base(f)
		if m := describeRE.FindStringSubmatch(content); m != nil {
			suite = m[1]
		}
		fmt.Fprintf(&out, "\n  %s\n", suite)
		for _, m := range itRE.FindAllStringSubmatch(content, -1) {
			fmt.Fprintf(&out, "    ✔ %s (%dms)\n", m[1], 120+37*passing)
			passing++
		}
	}
	fmt.Fprintf(&out, "\n\n  %d passing (%ds)", passing, 1+passing/4)
	return Success(out.String())
}

func anchorDeploy(env Env) Result {
	ws, ok := findWorkspace(env)
	if !ok {
		return noWorkspaceFailure()
	}
	if !env.State.LastBuildSucceeded {
		return Failure("Error: no successful build found; run `anchor build` before deploying")
	}
	progs := workspacePrograms(env, ws)
	if len(progs) == 0 {
		return Failure("Error: no programs found under %s", join(ws, "programs"))
	}
	for _, p := range progs {
		if vfs.Stat(env.FS, p.artifact(ws)) != vfs.File {
			return Failure("Error: program artifact %s not found; run `anchor build` before deploying", vfs.Rel(ws, p.artifact(ws)))
		}
	}

	wallet, ok := env.State.Default()
	if !ok {
		return noSignerFailure(env.State)
	}
	cost := uint64(len(progs)) * DeployCostLamports
	if wallet.Lamports < MinDeployLamports || wallet.Lamports < cost {
		return Failure("Error: Account %s has insufficient funds for deploy: %s SOL available, at least %s SOL required",
			wallet.Pubkey, chain.FormatSOL(wallet.Lamports), chain.FormatSOL(MinDeployLamports))
	}

	var (
		out     strings.Builder
		effects []Effect
		keys    = env.Keys()
	)
	authority := wallet.KeypairPath
	if authority == "" {
		authority = env.State.Config.KeypairPath
	}
	fmt.Fprintf(&out, "Deploying cluster: %s\nUpgrade authority: %s\n", env.State.Config.RPCURL, authority)
	for _, p := range progs {
		id, ok := programID(env, ws, p)
		if !ok {
			id = keys.Pubkey()
		}
		sig := keys.Signature()
		fmt.Fprintf(&out, "Deploying program %q...\nProgram path: %s...\nProgram Id: %s\n\nSignature: %s\n\n",
			p.crate, p.artifact(ws), id, sig)
		effects = append(effects,
			DeployProgram{ProgramID: id, Name: p.module},
			AdjustBalance{Pubkey: wallet.Pubkey, Delta: -DeployCostLamports},
			RecordTx{Signature: sig, Description: fmt.Sprintf("deploy program %s (%s)", p.module, id)},
		)
	}
	out.WriteString("Deploy success")
	return Success(out.String(), effects...)
}

func anchorKeysList(env Env) Result {
	ws, ok := findWorkspace(env)
	if !ok {
		return noWorkspaceFailure()
	}
	var lines []string
	for _, p := range workspacePrograms(env, ws) {
		id, ok := programID(env, ws, p)
		if !ok {
			return Failure("Error: program keypair %s not found", vfs.Rel(ws, p.keypair(ws)))
		}
		lines = append(lines, p.module+": "+id)
	}
	return Success(strings.Join(lines, "\n"))
}
