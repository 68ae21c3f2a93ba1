// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package tools

import (
	"fmt"
)

// Result is the outcome of one command.
//
// A failed Result (ExitCode != 0) never carries effects: the state a
// failing command leaves behind is exactly the state it started from.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Effects  []Effect
	// NextDir, when set, becomes the working directory.
	NextDir string
	// Clear asks the presentation layer to clear the display.
	Clear bool
}

// Failed reports whether the command failed.
func (r Result) Failed() bool { return r.ExitCode != 0 }

// Success returns a successful result.
func Success(stdout string, effects ...Effect) Result {
	return Result{Stdout: stdout, Effects: effects}
}

// Failure returns a handled failure with a formatted stderr line.
func Failure(format string, args ...interface{}) Result {
	return Result{Stderr: fmt.Sprintf(format, args...), ExitCode: 1}
}
