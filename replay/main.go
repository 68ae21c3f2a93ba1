// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/inconshreveable/log15"
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/chainconsole/session"
)

var (
	seedFlag = &cli.Uint64Flag{
		Name:  "seed",
		Usage: "seed of the first command; every later command uses the next one",
		Value: session.FirstSeed,
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "log level (debug, info, warn, error, crit)",
		Value: "info",
	}
	stopOnErrorFlag = &cli.BoolFlag{
		Name:  "stop-on-error",
		Usage: "if enabled, stops at the first failing command and exits non-zero",
	}
)

func main() {
	app := &cli.App{
		Name:      "replay",
		Usage:     "Runs a console script and prints its transcript",
		ArgsUsage: "[<script>]",
		Copyright: "(c) 2023 Ava Labs, Inc.",
		Flags:     []cli.Flag{seedFlag, logLevelFlag, stopOnErrorFlag},
		Action:    doReplay,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func doReplay(ctx *cli.Context) error {
	lvl, err := log.LvlFromString(ctx.String(logLevelFlag.Name))
	if err != nil {
		return err
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.LogfmtFormat())))

	var in io.Reader = os.Stdin
	if ctx.Args().Len() > 1 {
		return fmt.Errorf("at most one script may be given, got %d", ctx.Args().Len())
	}
	if path := ctx.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	s := script{
		seed:        ctx.Uint64(seedFlag.Name),
		now:         time.Now,
		stopOnError: ctx.Bool(stopOnErrorFlag.Name),
	}
	failures, err := s.run(in, os.Stdout)
	if err != nil {
		return err
	}
	log.Info("replay finished", "failures", failures)
	return nil
}
