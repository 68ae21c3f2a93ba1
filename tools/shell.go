// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tools

import (
	"fmt"
	"strings"

	"github.com/ava-labs/chainconsole/vfs"
)

const shellUser = "user"

var builtins map[string]HandlerFunc

// help lists [Commands], which reads this map, so it is filled in init.
func init() {
	builtins = map[string]HandlerFunc{
		"pwd":    shellPwd,
		"ls":     shellLs,
		"cd":     shellCd,
		"cat":    shellCat,
		"echo":   shellEcho,
		"mkdir":  shellMkdir,
		"touch":  shellTouch,
		"rm":     shellRm,
		"clear":  shellClear,
		"help":   shellHelp,
		"whoami": shellWhoami,
		"git":    shellGit,
		"node":   toolVersion,
		"npm":    toolVersion,
		"yarn":   toolVersion,
		"rustc":  toolVersion,
		"cargo":  toolVersion,
	}
}

var toolVersions = map[string]string{
	"node":  "v20.11.1",
	"npm":   "10.2.4",
	"yarn":  "1.22.19",
	"rustc": "rustc 1.79.0 (129f3b996 2024-06-10)",
	"cargo": "cargo 1.79.0 (ffa9cf99a 2024-06-03)",
	"git":   "git version 2.43.0",
}

// Shell runs a builtin, or reports that [name] is not a command.
func Shell(name string, args []string, env Env) Result {
	h, ok := builtins[name]
	if !ok {
		return Failure("%s: command not found", name)
	}
	return h(name, args, env)
}

func shellPwd(_ string, _ []string, env Env) Result {
	return Success(env.State.CurrentDir)
}

func shellWhoami(string, []string, Env) Result {
	return Success(shellUser)
}

func shellLs(_ string, args []string, env Env) Result {
	letters, paths, fail := letterFlags("ls", args, "al")
	if fail != nil {
		return *fail
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var sections []string
	for _, arg := range paths {
		p := env.Path(arg)
		switch {
		case vfs.Stat(env.FS, p) == vfs.File:
			content, _ := vfs.GetFile(env.FS, p)
			sections = append(sections, lsEntry(arg, false, len(content), letters['l']))
		case vfs.IsDirectory(env.FS, p):
			var lines []string
			for _, name := range vfs.ListDir(env.FS, p) {
				if strings.HasPrefix(name, ".") && !letters['a'] {
					continue
				}
				child := join(p, name)
				content, isFile := vfs.GetFile(env.FS, child)
				lines = append(lines, lsEntry(name, !isFile, len(content), letters['l']))
			}
			listing := strings.Join(lines, "\n")
			if !letters['l'] && len(lines) > 0 {
				listing = strings.Join(lines, "  ")
			}
			if len(paths) > 1 {
				listing = arg + ":\n" + listing
			}
			sections = append(sections, listing)
		default:
			return Failure("ls: cannot access '%s': No such file or directory", arg)
		}
	}
	return Success(strings.Join(sections, "\n\n"))
}

func lsEntry(name string, dir bool, size int, long bool) string {
	if !long {
		return name
	}
	mode := "-rw-r--r--"
	if dir {
		mode, size = "drwxr-xr-x", 4096
	}
	return fmt.Sprintf("%s 1 %s %s %6d %s", mode, shellUser, shellUser, size, name)
}

func shellCd(_ string, args []string, env Env) Result {
	if len(args) > 1 {
		return Failure("cd: too many arguments")
	}
	target := vfs.HomeDir
	if len(args) == 1 {
		target = env.Path(args[0])
	}
	switch {
	case vfs.IsDirectory(env.FS, target):
		return Result{NextDir: target}
	case vfs.Stat(env.FS, target) == vfs.File:
		return Failure("cd: not a directory: %s", args[0])
	default:
		return Failure("cd: no such file or directory: %s", args[0])
	}
}

func shellCat(_ string, args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("cat: missing file operand")
	}
	var (
		out  []string
		errs []string
	)
	for _, arg := range args {
		p := env.Path(arg)
		if content, ok := vfs.GetFile(env.FS, p); ok {
			out = append(out, strings.TrimSuffix(content, "\n"))
			continue
		}
		if vfs.IsDirectory(env.FS, p) {
			errs = append(errs, fmt.Sprintf("cat: %s: Is a directory", arg))
		} else {
			errs = append(errs, fmt.Sprintf("cat: %s: No such file or directory", arg))
		}
	}
	r := Success(strings.Join(out, "\n"))
	if len(errs) > 0 {
		r.Stderr = strings.Join(errs, "\n")
		r.ExitCode = 1
	}
	return r
}

func shellEcho(_ string, args []string, env Env) Result {
	newline := true
	if len(args) > 0 && args[0] == "-n" {
		newline, args = false, args[1:]
	}

	var (
		words    []string
		target   string
		appendTo bool
	)
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, ">") {
			words = append(words, a)
			continue
		}
		appendTo = strings.HasPrefix(a, ">>")
		target = strings.TrimLeft(a, ">")
		if target == "" {
			if i+1 >= len(args) {
				return Failure("echo: syntax error near unexpected token `newline'")
			}
			i++
			target = args[i]
		}
		words = append(words, args[i+1:]...)
		break
	}
	text := strings.Join(words, " ")
	if target == "" {
		return Success(text)
	}

	p := env.Path(target)
	if vfs.IsDirectory(env.FS, p) {
		return Failure("echo: %s: Is a directory", target)
	}
	if !vfs.IsDirectory(env.FS, vfs.Dir(p)) {
		return Failure("echo: %s: No such file or directory", target)
	}
	if newline {
		text += "\n"
	}
	if appendTo {
		existing, _ := vfs.GetFile(env.FS, p)
		text = existing + text
	}
	return Success("", env.writeFile(p, text))
}

func shellMkdir(_ string, args []string, env Env) Result {
	letters, dirs, fail := letterFlags("mkdir", args, "p")
	if fail != nil {
		return *fail
	}
	if len(dirs) == 0 {
		return Failure("mkdir: missing operand")
	}
	var (
		effects []Effect
		queued  = map[string]bool{}
	)
	for _, arg := range dirs {
		p := env.Path(arg)
		switch {
		case vfs.Stat(env.FS, p) == vfs.File:
			return Failure("mkdir: cannot create directory '%s': File exists", arg)
		case vfs.IsDirectory(env.FS, p) || queued[p]:
			if letters['p'] {
				continue
			}
			return Failure("mkdir: cannot create directory '%s': File exists", arg)
		}
		if _, blocked := env.fileAncestor(p); blocked {
			return Failure("mkdir: cannot create directory '%s': Not a directory", arg)
		}
		if parent := vfs.Dir(p); !letters['p'] && !vfs.IsDirectory(env.FS, parent) && !queued[parent] {
			return Failure("mkdir: cannot create directory '%s': No such file or directory", arg)
		}
		queued[p] = true
		effects = append(effects, CreateDir{Path: p})
	}
	return Success("", effects...)
}

func shellTouch(_ string, args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("touch: missing file operand")
	}
	var effects []Effect
	for _, arg := range args {
		p := env.Path(arg)
		if vfs.Stat(env.FS, p) != vfs.NotFound {
			continue
		}
		if !vfs.IsDirectory(env.FS, vfs.Dir(p)) {
			return Failure("touch: cannot touch '%s': No such file or directory", arg)
		}
		effects = append(effects, CreateFile{Path: p})
	}
	return Success("", effects...)
}

func protectedPath(p string) bool {
	return p == "/" || p == vfs.HomeDir || p == vfs.ProjectRoot
}

func shellRm(_ string, args []string, env Env) Result {
	letters, paths, fail := letterFlags("rm", args, "rRf")
	if fail != nil {
		return *fail
	}
	recursive := letters['r'] || letters['R']
	if len(paths) == 0 {
		return Failure("rm: missing operand")
	}
	var effects []Effect
	for _, arg := range paths {
		p := env.Path(arg)
		if protectedPath(p) {
			return Failure("rm: refusing to remove '%s'", arg)
		}
		switch vfs.Stat(env.FS, p) {
		case vfs.NotFound:
			if letters['f'] {
				continue
			}
			return Failure("rm: cannot remove '%s': No such file or directory", arg)
		case vfs.Directory:
			if !recursive {
				return Failure("rm: cannot remove '%s': Is a directory", arg)
			}
			if strings.HasPrefix(env.State.CurrentDir+"/", p+"/") {
				return Failure("rm: refusing to remove '%s': it contains the working directory", arg)
			}
		}
		effects = append(effects, DeleteFile{Path: p})
	}
	return Success("", effects...)
}

func shellClear(string, []string, Env) Result {
	return Result{Clear: true}
}

func shellHelp(string, []string, Env) Result {
	return Success("Available commands:\n  " + strings.Join(Commands(), "\n  "))
}

func toolVersion(name string, args []string, _ Env) Result {
	if len(args) == 1 && (args[0] == "--version" || args[0] == "-v" || args[0] == "-V") {
		return Success(toolVersions[name])
	}
	return Failure("%s: only --version is available in this console", name)
}

// gitRoot returns the closest directory at or above the working directory
// that holds a repository.
func gitRoot(env Env) (string, bool) {
	dir := vfs.Normalize(env.State.CurrentDir)
	for {
		if vfs.Stat(env.FS, join(dir, ".git/HEAD")) == vfs.File {
			return dir, true
		}
		if dir == "/" {
			return "", false
		}
		dir = vfs.Dir(dir)
	}
}

func shellGit(name string, args []string, env Env) Result {
	if len(args) == 0 {
		return Failure("usage: git [--version] <command> [<args>]")
	}
	switch args[0] {
	case "--version", "version":
		return Success(toolVersions[name])
	case "init":
		dir := env.Path(".")
		if vfs.Stat(env.FS, join(dir, ".git/HEAD")) == vfs.File {
			return Success(fmt.Sprintf("Reinitialized existing Git repository in %s/.git/", dir))
		}
		return Success(fmt.Sprintf("Initialized empty Git repository in %s/.git/", dir),
			CreateFile{Path: join(dir, ".git/HEAD"), Content: gitHead})
	}

	root, ok := gitRoot(env)
	if !ok {
		return Failure("fatal: not a git repository (or any of the parent directories): .git")
	}
	switch args[0] {
	case "status":
		var untracked []string
		for _, entry := range vfs.ListDir(env.FS, root) {
			if entry == ".git" {
				continue
			}
			if vfs.IsDirectory(env.FS, join(root, entry)) {
				entry += "/"
			}
			untracked = append(untracked, "\t"+entry)
		}
		if len(untracked) == 0 {
			return Success("On branch main\n\nNo commits yet\n\nnothing to commit (create/copy files and use \"git add\" to track)")
		}
		return Success("On branch main\n\nNo commits yet\n\nUntracked files:\n  (use \"git add <file>...\" to include in what will be committed)\n" +
			strings.Join(untracked, "\n") +
			"\n\nnothing added to commit but untracked files present (use \"git add\" to track)")
	case "log":
		return Failure("fatal: your current branch 'main' does not have any commits yet")
	default:
		return Failure("git: '%s' is not a git command supported by this console", args[0])
	}
}
