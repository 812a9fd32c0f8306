package eas

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/IntegraLedger/integra-eas-worker/internal/types"
)

// EAS event signatures:
// event Attested(address indexed recipient, address indexed attester, bytes32 uid, bytes32 indexed schemaUID)
// event Revoked(address indexed recipient, address indexed revoker, bytes32 uid, bytes32 indexed schemaUID)
var (
	AttestedEventSignature = crypto.Keccak256Hash([]byte("Attested(address,address,bytes32,bytes32)"))
	RevokedEventSignature  = crypto.Keccak256Hash([]byte("Revoked(address,address,bytes32,bytes32)"))
)

type AttestedEvent struct {
	UID       string `json:"uid"`
	SchemaUID string `json:"schema_uid"`
	Attester  string `json:"attester"`
	Recipient string `json:"recipient"`
}

type RevokedEvent struct {
	UID       string `json:"uid"`
	SchemaUID string `json:"schema_uid"`
	Revoker   string `json:"revoker"`
}

// DecodedEvent is the decode result of a single log entry. At most one of the
// two fields is set; the event signatures are mutually exclusive.
type DecodedEvent struct {
	Attested *AttestedEvent
	Revoked  *RevokedEvent
}

// DecodeLog interprets a raw log entry as an EAS event. It returns nil if the
// log does not match either known event shape; an unrecognized log is not an
// error.
func DecodeLog(log *types.ActivityLog) *DecodedEvent {
	if log == nil || len(log.Topics) != 4 {
		return nil
	}

	uid, ok := decodeUidFromData(log.Data)
	if !ok {
		return nil
	}

	// topics[1] = recipient, topics[2] = attester/revoker, topics[3] = schemaUID
	recipient, ok := addressFromTopic(log.Topics[1])
	if !ok {
		return nil
	}
	actor, ok := addressFromTopic(log.Topics[2])
	if !ok {
		return nil
	}
	schemaUID := strings.ToLower(log.Topics[3])

	switch common.HexToHash(log.Topics[0]) {
	case AttestedEventSignature:
		return &DecodedEvent{Attested: &AttestedEvent{
			UID:       uid,
			SchemaUID: schemaUID,
			Attester:  actor,
			Recipient: recipient,
		}}
	case RevokedEventSignature:
		return &DecodedEvent{Revoked: &RevokedEvent{
			UID:       uid,
			SchemaUID: schemaUID,
			Revoker:   actor,
		}}
	default:
		return nil
	}
}

// decodeUidFromData extracts the single non-indexed bytes32 parameter.
func decodeUidFromData(data string) (string, bool) {
	raw, err := hexutil.Decode(data)
	if err != nil || len(raw) != common.HashLength {
		return "", false
	}
	return strings.ToLower(common.BytesToHash(raw).Hex()), true
}

func addressFromTopic(topic string) (string, bool) {
	raw, err := hexutil.Decode(topic)
	if err != nil || len(raw) != common.HashLength {
		return "", false
	}
	return strings.ToLower(common.BytesToAddress(raw).Hex()), true
}
