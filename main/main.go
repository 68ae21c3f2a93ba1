// Copyright (C) 2019-2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	log "github.com/inconshreveable/log15"
)

const (
	Name    = "chainconsole"
	Version = "v0.1.0"
)

func main() {
	v, err := getViper()
	if err != nil {
		fmt.Printf("couldn't get config: %s\n", err)
		os.Exit(1)
	}
	// Print version and exit
	if v.GetBool(versionKey) {
		fmt.Printf("%s@%s\n", Name, Version)
		os.Exit(0)
	}

	lvl, err := log.LvlFromString(v.GetString(logLevelKey))
	if err != nil {
		fmt.Printf("couldn't parse log level: %s\n", err)
		os.Exit(1)
	}
	log.Root().SetHandler(log.LvlFilterHandler(lvl, log.StreamHandler(os.Stderr, log.LogfmtFormat())))

	if addr := v.GetString(httpKey); addr != "" {
		err = serve(addr, v.GetInt(cacheSizeKey))
	} else {
		err = runConsole(v.GetUint64(seedKey), v.GetString(historyFileKey))
	}
	if err != nil {
		log.Error("console exited with an error", "err", err)
		os.Exit(1)
	}
}
