// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/chzyer/readline"
	log "github.com/inconshreveable/log15"

	"github.com/ava-labs/chainconsole/interpreter"
	"github.com/ava-labs/chainconsole/service"
	"github.com/ava-labs/chainconsole/session"
	"github.com/ava-labs/chainconsole/tools"
	"github.com/ava-labs/chainconsole/vfs"
)

const clearScreen = "\033[H\033[2J"

func prompt(cwd string) string {
	return vfs.Display(cwd) + "$ "
}

func completer() readline.AutoCompleter {
	commands := append(tools.Commands(), "exit", "quit")
	items := make([]readline.PrefixCompleterInterface, len(commands))
	for i, cmd := range commands {
		items[i] = readline.PcItem(cmd)
	}
	return readline.NewPrefixCompleter(items...)
}

// runConsole runs the interactive console until exit or end of input.
func runConsole(seed uint64, historyFile string) error {
	state, root := interpreter.CreateInitialState()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt(state.CurrentDir),
		HistoryFile:     historyFile,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if err == io.EOF {
				return nil
			}
			return err
		}
		switch strings.TrimSpace(line) {
		case "exit", "quit":
			return nil
		}

		var result tools.Result
		result, state, root = interpreter.Execute(line, state, root, interpreter.Options{
			Seed: seed,
			Now:  time.Now(),
		})
		seed++

		if result.Clear {
			fmt.Fprint(rl.Stdout(), clearScreen)
		}
		if result.Stdout != "" {
			fmt.Fprintln(rl.Stdout(), result.Stdout)
		}
		if result.Stderr != "" {
			fmt.Fprintln(rl.Stderr(), result.Stderr)
		}
		rl.SetPrompt(prompt(state.CurrentDir))
	}
}

// serve runs the JSON-RPC console service on [addr].
func serve(addr string, cacheSize int) error {
	store, err := session.New(memdb.New(), cacheSize)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.New(store)
	handler, err := service.NewHandler(svc)
	if err != nil {
		return fmt.Errorf("couldn't create service handler: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/", handler)
	mux.Handle(service.StreamPath, service.NewStreamHandler(svc))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info("serving console service", "addr", addr, "service", service.Name)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
