// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.Network != "mainnet" && cfg.Network != "testnet" && cfg.Network != "regtest" {
		return ErrInvalidNetwork
	}

	switch cfg.Backend {
	case BackendWOC:
		if cfg.Network == "regtest" {
			return fmt.Errorf("%w: woc has no regtest endpoint", ErrInvalidBackend)
		}
		if err := validateURL(cfg.WOCURL); err != nil {
			return err
		}
	case BackendRPC:
		if err := validateURL(cfg.RPCURL); err != nil {
			return err
		}
	default:
		return ErrInvalidBackend
	}

	if cfg.FeePerKB == 0 {
		return fmt.Errorf("%w: feeperkb must be positive", ErrInvalidFeeRate)
	}
	rate, err := cfg.MarketFee()
	if err != nil {
		return err
	}
	if rate.IsNegative() {
		return fmt.Errorf("%w: market fee rate %s is negative", ErrInvalidFeeRate, rate)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// validateURL accepts an empty string (use the default) or an absolute
// http(s) URL.
func validateURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return nil
}
