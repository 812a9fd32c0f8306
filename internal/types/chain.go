package types

import "fmt"

type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainPolygon  Chain = "polygon"
)

const (
	EthereumChainId uint64 = 1
	PolygonChainId  uint64 = 137
)

// Network discriminators as they appear on inbound webhook payloads.
const (
	NetworkEthMainnet   = "ETH_MAINNET"
	NetworkMaticMainnet = "MATIC_MAINNET"
)

func (c Chain) ToString() string {
	return string(c)
}

func (c Chain) IsValid() bool {
	return c == ChainEthereum || c == ChainPolygon
}

func (c Chain) ChainId() uint64 {
	if c == ChainPolygon {
		return PolygonChainId
	}
	return EthereumChainId
}

// ChainFromNetwork maps a webhook network discriminator to a chain.
func ChainFromNetwork(network string) (Chain, error) {
	switch network {
	case NetworkEthMainnet:
		return ChainEthereum, nil
	case NetworkMaticMainnet:
		return ChainPolygon, nil
	default:
		return "", fmt.Errorf("unknown network: %s", network)
	}
}
