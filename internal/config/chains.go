package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

const (
	defaultEthereumEASAddress = "0xa1207f3bba224e2c9c3c6d5af63d0eb1582ce587"
	defaultPolygonEASAddress  = "0x5e634ef5355f45a855d02d66ecd687b1502af790"
)

// ChainConfig holds the EAS protocol contract and schema identifiers for one chain.
type ChainConfig struct {
	EASAddress string   `mapstructure:"eas-address"`
	SchemaUIDs []string `mapstructure:"schema-uids"`
}

type ChainsConfig struct {
	Ethereum ChainConfig `mapstructure:"ethereum"`
	Polygon  ChainConfig `mapstructure:"polygon"`
}

func (cfg *ChainsConfig) Validate() error {
	if cfg.Ethereum.EASAddress == "" {
		cfg.Ethereum.EASAddress = defaultEthereumEASAddress
	}
	if cfg.Polygon.EASAddress == "" {
		cfg.Polygon.EASAddress = defaultPolygonEASAddress
	}

	if !common.IsHexAddress(cfg.Ethereum.EASAddress) {
		return fmt.Errorf("invalid ethereum EAS contract address: %s", cfg.Ethereum.EASAddress)
	}
	if !common.IsHexAddress(cfg.Polygon.EASAddress) {
		return fmt.Errorf("invalid polygon EAS contract address: %s", cfg.Polygon.EASAddress)
	}

	return nil
}
