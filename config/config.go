// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config holds the settings ordctl is started with: where it keeps
// its data, which network and indexer it talks to, and the fee policy used
// when assembling transactions.
//
// The file format is the INI dialect understood by go-flags, so every field
// can also be overridden from the command line with the same long name.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
	"github.com/shopspring/decimal"
)

const (
	// DefaultConfigFilename is the name of the configuration file inside the data directory.
	DefaultConfigFilename = "ordctl.conf"

	defaultNetwork            = "mainnet"
	defaultBackend            = BackendWOC
	defaultFeePerKB           = 1
	defaultSelectionTolerance = 149
	defaultMarketFeeRate      = "0"
	defaultLogLevel           = "info"
)

// Backend names accepted in Config.Backend.
const (
	BackendWOC = "woc"
	BackendRPC = "rpc"
)

// Config is the process-wide configuration. It is loaded once at startup
// and not mutated afterwards.
type Config struct {
	DataDir string `long:"datadir" ini-name:"datadir" description:"Directory for the transaction cache and log files"`
	Network string `long:"network" ini-name:"network" description:"Network to operate on {mainnet, testnet, regtest}"`
	Backend string `long:"backend" ini-name:"backend" description:"Blockchain backend {woc, rpc}"`

	WOCURL string `long:"wocurl" ini-name:"wocurl" description:"WhatsOnChain API base URL (empty selects the network default)"`

	RPCURL      string `long:"rpcurl" ini-name:"rpcurl" description:"Node JSON-RPC endpoint"`
	RPCUser     string `long:"rpcuser" ini-name:"rpcuser" description:"Node JSON-RPC username"`
	RPCPassword string `long:"rpcpass" ini-name:"rpcpass" default-mask:"-" description:"Node JSON-RPC password"`

	FeePerKB           uint64 `long:"feeperkb" ini-name:"feeperkb" description:"Miner fee rate in satoshis per 1000 bytes"`
	SelectionTolerance uint64 `long:"selectiontolerance" ini-name:"selectiontolerance" description:"Window in satoshis inside which a short greedy coin selection is accepted"`
	MarketFeeRate      string `long:"marketfeerate" ini-name:"marketfeerate" description:"Default market fee rate charged on purchases, as a fraction of the price"`

	EnableCache bool `long:"enablecache" ini-name:"enablecache" description:"Cache fetched raw transactions in a local bbolt database"`

	LogLevel string `long:"loglevel" ini-name:"loglevel" description:"Logging level {debug, info, warn, error}"`
	LogFile  string `long:"logfile" ini-name:"logfile" description:"Log file path (empty logs to stderr only)"`
}

// DefaultDataDir returns the platform application data directory for ordctl.
func DefaultDataDir() string {
	return btcutil.AppDataDir("ordctl", false)
}

// ConfigPath returns the configuration file path inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, DefaultConfigFilename)
}

// CachePath returns the path of the raw transaction cache inside dataDir.
func CachePath(dataDir string) string {
	return filepath.Join(dataDir, "txcache.db")
}

// DefaultConfig returns a Config populated with default values.
func DefaultConfig() Config {
	return Config{
		DataDir:            DefaultDataDir(),
		Network:            defaultNetwork,
		Backend:            defaultBackend,
		FeePerKB:           defaultFeePerKB,
		SelectionTolerance: defaultSelectionTolerance,
		MarketFeeRate:      defaultMarketFeeRate,
		LogLevel:           defaultLogLevel,
	}
}

// Mainnet reports whether addresses should be encoded for mainnet.
func (c Config) Mainnet() bool {
	return c.Network == "mainnet"
}

// MarketFee parses MarketFeeRate. An empty rate is zero.
func (c Config) MarketFee() (decimal.Decimal, error) {
	if c.MarketFeeRate == "" {
		return decimal.Zero, nil
	}
	rate, err := decimal.NewFromString(c.MarketFeeRate)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidFeeRate, c.MarketFeeRate)
	}
	return rate, nil
}

// LoadConfig reads the INI file at path on top of DefaultConfig. Keys the
// parser does not know are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	parser := flags.NewParser(&cfg, flags.IgnoreUnknown)
	err := flags.NewIniParser(parser).ParseFile(path)
	if err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) && os.IsNotExist(pathErr) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		var iniErr *flags.IniError
		if errors.As(err, &iniErr) {
			return Config{}, fmt.Errorf("%w: %s:%d: %s",
				ErrInvalidConfigLine, iniErr.File, iniErr.LineNumber, iniErr.Message)
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in INI format, creating parent directories
// as needed. Every field is written, including those at their defaults.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	parser := flags.NewParser(&cfg, flags.None)
	ini := flags.NewIniParser(parser)
	if err := ini.WriteFile(path, flags.IniIncludeDefaults|flags.IniIncludeComments); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}
