// Command ordctl builds and optionally broadcasts 1Sat ordinals
// marketplace transactions: inscriptions, transfers, listings,
// cancellations and purchases.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/libord-go/config"
	"github.com/bitfsorg/libord-go/market"
)

var (
	configFile string
	broadcast  bool

	// Overrides of config file values.
	flagDataDir  string
	flagNetwork  string
	flagBackend  string
	flagLogLevel string

	cfg      config.Config
	mkt      *market.Market
	closeSvc = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:           "ordctl",
	Short:         "Build 1Sat ordinals marketplace transactions.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeSvc()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "configfile", "C", "", "path to configuration file (default <datadir>/ordctl.conf)")
	pf.StringVar(&flagDataDir, "datadir", "", "data directory")
	pf.StringVar(&flagNetwork, "network", "", "network {mainnet, testnet, regtest}")
	pf.StringVar(&flagBackend, "backend", "", "blockchain backend {woc, rpc}")
	pf.StringVar(&flagLogLevel, "loglevel", "", "logging level {debug, info, warn, error}")
	pf.BoolVarP(&broadcast, "broadcast", "b", false, "broadcast the transaction instead of only printing it")

	rootCmd.AddCommand(fundCmd, inscribeCmd, transferCmd, listCmd, cancelCmd, buyCmd)
}

// setup loads configuration, starts logging and connects the backend.
func setup(cmd *cobra.Command) error {
	var err error
	cfg, err = loadConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.LogFile != "" {
		if err := initLogRotator(cfg.LogFile); err != nil {
			return err
		}
	}
	setLogLevels(cfg.LogLevel)

	svc, closer, err := newService(cfg)
	if err != nil {
		return err
	}
	closeSvc = closer
	mkt, err = market.New(svc, market.Config{
		FeePerKB:  cfg.FeePerKB,
		Tolerance: cfg.SelectionTolerance,
		Mainnet:   cfg.Mainnet(),
	})
	return err
}

// loadConfig reads the config file, if any, and applies command line
// overrides. A missing file is only an error when named explicitly.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	dataDir := config.DefaultDataDir()
	if flagDataDir != "" {
		dataDir = flagDataDir
	}
	path := configFile
	if path == "" {
		path = config.ConfigPath(dataDir)
	}

	c, err := config.LoadConfig(path)
	switch {
	case errors.Is(err, config.ErrConfigNotFound) && configFile == "":
		c = config.DefaultConfig()
	case err != nil:
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("datadir") {
		c.DataDir = flagDataDir
	}
	if flags.Changed("network") {
		c.Network = flagNetwork
	}
	if flags.Changed("backend") {
		c.Backend = flagBackend
	}
	if flags.Changed("loglevel") {
		c.LogLevel = flagLogLevel
	}

	if err := config.ValidateConfig(c); err != nil {
		return config.Config{}, err
	}
	return c, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLogRotator()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
