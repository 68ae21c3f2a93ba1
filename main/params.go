// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ava-labs/chainconsole/session"
)

const (
	versionKey     = "version"
	configFileKey  = "config"
	seedKey        = "seed"
	logLevelKey    = "log-level"
	httpKey        = "http"
	historyFileKey = "history-file"
	cacheSizeKey   = "cache-size"

	envPrefix = "chainconsole"
)

func buildFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("chainconsole", flag.ContinueOnError)

	fs.Bool(versionKey, false, "If true, prints the version and quits")
	fs.String(configFileKey, "", "Path to a config file holding any of these flags")
	fs.Uint64(seedKey, session.FirstSeed, "Seed of the first command; every later command uses the next one")
	fs.String(logLevelKey, "info", "Log level (debug, info, warn, error, crit)")
	fs.String(httpKey, "", "If set, serves the JSON-RPC console service on this address instead of the interactive console")
	fs.String(historyFileKey, "", "File the interactive console keeps its history in")
	fs.Int(cacheSizeKey, session.DefaultCacheSize, "Number of decoded sessions the service keeps in memory")

	return fs
}

// getViper returns the viper environment for the console binary
func getViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := buildFlagSet()
	pflag.CommandLine.AddGoFlagSet(fs)
	pflag.Parse()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	if path := v.GetString(configFileKey); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file %s: %w", path, err)
		}
	}
	return v, nil
}
