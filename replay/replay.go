// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/chainconsole/interpreter"
)

var errStopped = errors.New("script stopped at the first failing command")

// script runs console lines read from [in] in one fresh session and
// writes a transcript to [out].
type script struct {
	seed        uint64
	now         func() time.Time
	stopOnError bool
}

// run returns the number of commands that failed.
func (s script) run(in io.Reader, out io.Writer) (int, error) {
	state, root := interpreter.CreateInitialState()
	seed := s.seed

	var (
		failures int
		lineNo   int
		scanner  = bufio.NewScanner(in)
	)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		result, nextState, nextRoot := interpreter.Execute(line, state, root, interpreter.Options{
			Seed: seed,
			Now:  s.now(),
		})
		state, root = nextState, nextRoot
		seed++

		fmt.Fprintf(out, "$ %s\n", trimmed)
		if result.Stdout != "" {
			fmt.Fprintln(out, result.Stdout)
		}
		if result.Stderr != "" {
			fmt.Fprintln(out, result.Stderr)
		}
		fmt.Fprintf(out, "[exit %d]\n", result.ExitCode)

		if result.Failed() {
			failures++
			log.Debug("command failed", "line", lineNo, "exit", result.ExitCode)
			if s.stopOnError {
				return failures, fmt.Errorf("%w: line %d", errStopped, lineNo)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return failures, fmt.Errorf("couldn't read script: %w", err)
	}
	return failures, nil
}
