// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config defines the defaulted option struct this core's ambient
// knobs are read into, in the teacher's go-flags struct-tag idiom. Parsing
// a config file or command line into this struct is a host program's job;
// this package only owns the struct and its defaults.
package config

import (
	"github.com/jessevdk/go-flags"
)

// Default values applied by Defaults before a caller overlays a config file
// or command line onto the struct.
const (
	DefaultGapLimit       = 20
	DefaultIdleTimeoutSec = 600
	DefaultFeeRateSatKvB  = 1000
	DefaultCoinType       = 0
)

// Config is the set of ambient options this core needs regardless of which
// host program embeds it: the lookahead window, the MasterSecret idle
// timeout, and the default fee rate new transactions target absent an
// explicit override.
type Config struct {
	GapLimit       int    `long:"gaplimit" description:"Number of addresses to generate ahead of the last used address"`
	IdleTimeoutSec int64  `long:"idletimeout" description:"Seconds of inactivity before the unlocked seed is cleared from memory"`
	FeeRateSatKvB  int64  `long:"feerate" description:"Default fee rate in satoshis per 1000 vbytes"`
	CoinType       uint32 `long:"cointype" description:"BIP44 coin type used for deterministic account derivation"`
	Network        string `long:"network" description:"Network to operate on (mainnet, testnet, regnet, simnet)" default:"mainnet"`
}

// Defaults returns a Config populated with this core's default values.
func Defaults() *Config {
	return &Config{
		GapLimit:       DefaultGapLimit,
		IdleTimeoutSec: DefaultIdleTimeoutSec,
		FeeRateSatKvB:  DefaultFeeRateSatKvB,
		CoinType:       DefaultCoinType,
		Network:        "mainnet",
	}
}

// Parse overlays command-line arguments onto a Defaults-initialized Config,
// mirroring the teacher's flags.NewParser/Parse idiom.
func Parse(args []string) (*Config, error) {
	cfg := Defaults()
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}
	return cfg, nil
}
