// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tools

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// flag declares an option. The first name is the canonical "--long" one, a
// two character name is its shorthand and any other long name is an alias.
type flag struct {
	names []string
	value bool
}

func boolFlag(names ...string) flag  { return flag{names: names} }
func valueFlag(names ...string) flag { return flag{names: names, value: true} }

type parsedArgs struct {
	positional []string
	flags      map[string]string
}

func (p parsedArgs) has(name string) bool {
	_, ok := p.flags[name]
	return ok
}

func (p parsedArgs) get(name string) (string, bool) {
	v, ok := p.flags[name]
	return v, ok
}

func (p parsedArgs) arg(i int) (string, bool) {
	if i >= len(p.positional) {
		return "", false
	}
	return p.positional[i], true
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// numberGuard hides words that look like negative numbers from pflag, which
// would read them as shorthand clusters. They stay positional so the amount
// validation can reject them with a proper message.
type numberGuard map[string]string

func guardNumbers(args []string) ([]string, numberGuard) {
	guard := numberGuard{}
	guarded := make([]string, len(args))
	for i, a := range args {
		if looksNumeric(a) {
			key := fmt.Sprintf("\x00%d", i)
			guard[key] = a
			a = key
		}
		guarded[i] = a
	}
	return guarded, guard
}

func (g numberGuard) restore(a string) string {
	if orig, ok := g[a]; ok {
		return orig
	}
	return a
}

// parseFlags separates [args] into positional arguments and declared flags.
// Value flags accept "--name value" and "--name=value", and "--" ends flag
// parsing.
func parseFlags(args []string, defs ...flag) (parsedArgs, error) {
	fs := newFlagSet()
	aliases := map[string]string{}
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if canonical, ok := aliases[name]; ok {
			return pflag.NormalizedName(canonical)
		}
		return pflag.NormalizedName(name)
	})
	for _, def := range defs {
		long := strings.TrimPrefix(def.names[0], "--")
		var short string
		for _, name := range def.names[1:] {
			if len(name) == 2 && name[0] == '-' {
				short = name[1:]
			} else {
				aliases[strings.TrimPrefix(name, "--")] = long
			}
		}
		if def.value {
			fs.StringP(long, short, "", "")
		} else {
			fs.BoolP(long, short, false, "")
		}
	}

	guarded, guard := guardNumbers(args)
	if err := fs.Parse(guarded); err != nil {
		return parsedArgs{}, fmt.Errorf("error: %w", err)
	}

	parsed := parsedArgs{flags: map[string]string{}}
	fs.Visit(func(f *pflag.Flag) {
		if f.Value.Type() == "bool" && f.Value.String() != "true" {
			return
		}
		parsed.flags["--"+f.Name] = guard.restore(f.Value.String())
	})
	for _, a := range fs.Args() {
		parsed.positional = append(parsed.positional, guard.restore(a))
	}
	return parsed, nil
}

func looksNumeric(a string) bool {
	rest := strings.TrimPrefix(a, "-")
	if rest == "" || rest == a {
		return false
	}
	for _, r := range rest {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}

// letterFlags parses the single letter options of a shell builtin drawn
// from [allowed], clustered ("-rf") or not.
func letterFlags(cmd string, args []string, allowed string) (map[rune]bool, []string, *Result) {
	fs := newFlagSet()
	values := map[rune]*bool{}
	for _, r := range allowed {
		values[r] = fs.BoolP(string(r), string(r), false, "")
	}
	if err := fs.Parse(args); err != nil {
		res := Failure("%s: %s", cmd, err)
		return nil, nil, &res
	}
	letters := map[rune]bool{}
	for r, v := range values {
		if *v {
			letters[r] = true
		}
	}
	return letters, fs.Args(), nil
}
