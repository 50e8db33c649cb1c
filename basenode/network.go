package basenode

import (
	"github.com/pkg/errors"
)

type Network string

const (
	NetworkMainnet   Network = "mainnet"
	NetworkRincewind Network = "rincewind"
	NetworkLocalnet  Network = "localnet"
)

func ParseNetwork(name string) (Network, error) {
	switch n := Network(name); n {
	case NetworkMainnet, NetworkRincewind, NetworkLocalnet:
		return n, nil
	default:
		return "", errors.Errorf("unknown network %q", name)
	}
}
