package main

import (
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/sturdilythatch87/tari/basenode"
	"github.com/sturdilythatch87/tari/utils"
)

const (
	defaultListen          = "127.0.0.1:7878"
	defaultMonerodURL      = "http://127.0.0.1:18081"
	defaultGrpcAddress     = "127.0.0.1:18142"
	defaultMonerodTimeout  = 30 * time.Second
	defaultBaseNodeTimeout = 30 * time.Second
)

// NetworkFlags selects the auxiliary network, mainnet unless another one is given
type NetworkFlags struct {
	Mainnet   bool `long:"mainnet" description:"Use the main network (default)"`
	Rincewind bool `long:"rincewind" description:"Use the rincewind test network"`
	Localnet  bool `long:"localnet" description:"Use a local development network"`

	network basenode.Network
}

// ResolveNetwork errors if more than one network was selected
func (f *NetworkFlags) ResolveNetwork() error {
	f.network = basenode.NetworkMainnet
	numNets := 0
	if f.Mainnet {
		numNets++
	}
	if f.Rincewind {
		numNets++
		f.network = basenode.NetworkRincewind
	}
	if f.Localnet {
		numNets++
		f.network = basenode.NetworkLocalnet
	}
	if numNets > 1 {
		return errors.New("mainnet, rincewind and localnet cannot be used together, choose only one network")
	}
	return nil
}

type config struct {
	ConfigFile string `short:"C" long:"configfile" description:"Path to an INI configuration file"`

	Listen string `long:"listen" description:"Address the proxy listens on, miners connect here as if it was monerod"`

	MonerodURL        string        `long:"monerod-url" description:"Base URL of monerod"`
	MonerodUsername   string        `long:"monerod-username" description:"monerod RPC username"`
	MonerodPassword   string        `long:"monerod-password" description:"monerod RPC password"`
	MonerodUseAuth    bool          `long:"monerod-use-auth" description:"Send basic authentication to monerod"`
	MonerodDigestAuth bool          `long:"monerod-digest-auth" description:"Answer monerod --rpc-login digest challenges"`
	MonerodTimeout    time.Duration `long:"monerod-timeout" description:"Timeout of a monerod request"`
	SocksProxy        string        `long:"socks-proxy" description:"Reach monerod through this SOCKS5 proxy, for example socks5://127.0.0.1:9050"`

	GrpcAddress     string        `long:"grpc-address" description:"Address of the base node gRPC interface"`
	BaseNodeTimeout time.Duration `long:"basenode-timeout" description:"Timeout of a base node call"`

	MetricsListen string `long:"metrics-listen" description:"Serve prometheus metrics on this address, disabled when empty"`

	LogFile  string `long:"log-file" description:"Also write the log to this file, rotated"`
	LogLevel string `long:"log-level" description:"One of error, info, notice, debug"`

	NetworkFlags

	logLevel utils.LogLevel
}

func defaultConfig() config {
	return config{
		Listen:          defaultListen,
		MonerodURL:      defaultMonerodURL,
		MonerodTimeout:  defaultMonerodTimeout,
		GrpcAddress:     defaultGrpcAddress,
		BaseNodeTimeout: defaultBaseNodeTimeout,
		LogLevel:        "info",
	}
}

// loadConfig applies the defaults, then the config file if any, then the command line
func loadConfig(args []string) (*config, error) {
	cfg := defaultConfig()

	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	if _, err := preParser.ParseArgs(args); err != nil {
		return nil, err
	}

	parser := flags.NewParser(&cfg, flags.HelpFlag)
	if preCfg.ConfigFile != "" {
		if err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile); err != nil {
			return nil, errors.Wrapf(err, "error parsing config file %s", preCfg.ConfigFile)
		}
	}

	// command line options take precedence
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := cfg.ResolveNetwork(); err != nil {
		return nil, err
	}

	if cfg.MonerodUseAuth && cfg.MonerodDigestAuth {
		return nil, errors.New("monerod-use-auth and monerod-digest-auth cannot be used together")
	}

	level, err := utils.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.logLevel = level

	return &cfg, nil
}
