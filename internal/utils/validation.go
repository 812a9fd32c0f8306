package utils

import (
	"regexp"

	"github.com/ethereum/go-ethereum/common"
)

var bytes32HexRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// IsValidTxHash checks if the given string is a valid EVM transaction hash.
// Note: it does not check the actual content of the hash.
func IsValidTxHash(txHash string) bool {
	return bytes32HexRegex.MatchString(txHash)
}

// IsValidAttestationUID checks if the given string is a valid EAS attestation
// or schema UID (a 32-byte hex string).
func IsValidAttestationUID(uid string) bool {
	return bytes32HexRegex.MatchString(uid)
}

// IsValidAddress checks if the given string is a valid EVM address.
func IsValidAddress(address string) bool {
	return common.IsHexAddress(address)
}
