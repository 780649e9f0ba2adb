// Copyright (c) 2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.GapLimit != DefaultGapLimit {
		t.Errorf("GapLimit: got %d, want %d", cfg.GapLimit, DefaultGapLimit)
	}
	if cfg.IdleTimeoutSec != DefaultIdleTimeoutSec {
		t.Errorf("IdleTimeoutSec: got %d, want %d", cfg.IdleTimeoutSec, DefaultIdleTimeoutSec)
	}
	if cfg.FeeRateSatKvB != DefaultFeeRateSatKvB {
		t.Errorf("FeeRateSatKvB: got %d, want %d", cfg.FeeRateSatKvB, DefaultFeeRateSatKvB)
	}
	if cfg.Network != "mainnet" {
		t.Errorf("Network: got %q, want mainnet", cfg.Network)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]string{"--gaplimit=40", "--network=testnet"})
	if err != nil {
		t.Fatalf("Parse: unexpected error: %v", err)
	}
	if cfg.GapLimit != 40 {
		t.Errorf("GapLimit: got %d, want 40", cfg.GapLimit)
	}
	if cfg.Network != "testnet" {
		t.Errorf("Network: got %q, want testnet", cfg.Network)
	}
	if cfg.FeeRateSatKvB != DefaultFeeRateSatKvB {
		t.Errorf("FeeRateSatKvB: got %d, want default %d unchanged", cfg.FeeRateSatKvB, DefaultFeeRateSatKvB)
	}
}
