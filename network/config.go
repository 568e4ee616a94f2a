package network

import "fmt"

// RPCConfig holds the connection parameters of a node's JSON-RPC interface.
type RPCConfig struct {
	URL      string `json:"url"`
	User     string `json:"user"`
	Password string `json:"password"`
	Network  string `json:"network"`
}

// Default node RPC endpoints of the non-production networks. Mainnet has
// none: pointing a marketplace at a mainnet node is always explicit.
var defaultRPCURLs = map[string]string{
	"testnet": "http://localhost:18332",
	"regtest": "http://localhost:18332",
}

// Environment variables consulted by ResolveConfig.
const (
	EnvRPCURL  = "ORD_RPC_URL"
	EnvRPCUser = "ORD_RPC_USER"
	EnvRPCPass = "ORD_RPC_PASS"
)

// ResolveConfig builds the node RPC settings for network. Each field is
// taken from explicit when set, else from getenv, else from the network
// default URL. getenv may be nil.
func ResolveConfig(explicit RPCConfig, getenv func(string) string, network string) (RPCConfig, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}
	pick := func(explicit, env, fallback string) string {
		if explicit != "" {
			return explicit
		}
		if v := getenv(env); v != "" {
			return v
		}
		return fallback
	}

	cfg := RPCConfig{
		URL:      pick(explicit.URL, EnvRPCURL, defaultRPCURLs[network]),
		User:     pick(explicit.User, EnvRPCUser, ""),
		Password: pick(explicit.Password, EnvRPCPass, ""),
		Network:  network,
	}
	if cfg.URL == "" {
		return RPCConfig{}, fmt.Errorf("network: %s node RPC needs a URL (rpcurl or %s)", network, EnvRPCURL)
	}
	return cfg, nil
}
