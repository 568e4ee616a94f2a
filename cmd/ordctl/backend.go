package main

import (
	"fmt"
	"os"

	"github.com/bitfsorg/libord-go/config"
	"github.com/bitfsorg/libord-go/network"
)

// newService builds the configured blockchain backend, wrapped in the raw
// transaction cache when enabled. The returned func releases it.
func newService(c config.Config) (network.BlockchainService, func() error, error) {
	var backend network.BlockchainService
	switch c.Backend {
	case config.BackendWOC:
		backend = network.NewWOCClient(network.WOCConfig{
			BaseURL: c.WOCURL,
			Network: c.Network,
		})
	case config.BackendRPC:
		rpcCfg, err := network.ResolveConfig(network.RPCConfig{
			URL:      c.RPCURL,
			User:     c.RPCUser,
			Password: c.RPCPassword,
		}, os.Getenv, c.Network)
		if err != nil {
			return nil, nil, err
		}
		backend = network.NewRPCClient(rpcCfg)
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
	log.Debugf("Using %s backend on %s", c.Backend, c.Network)

	if !c.EnableCache {
		return backend, func() error { return nil }, nil
	}
	if err := os.MkdirAll(c.DataDir, 0700); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}
	cached, err := network.OpenCachedService(backend, config.CachePath(c.DataDir))
	if err != nil {
		return nil, nil, err
	}
	return cached, cached.Close, nil
}
