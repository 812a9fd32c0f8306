package model

const AttestationCollection = "attestations"

type AttestationDirection string

const (
	DirectionSent     AttestationDirection = "sent"
	DirectionReceived AttestationDirection = "received"
)

// AttestationDocument is a finalized on-chain attestation record, stored in
// the requester's designated store once the confirmation webhook arrives.
type AttestationDocument struct {
	AttestationUid  string               `bson:"_id"` // Primary key
	SchemaUid       string               `bson:"schema_uid"`
	IntegraHash     string               `bson:"integra_hash,omitempty"`
	TokenId         uint64               `bson:"token_id,omitempty"`
	AttestationType string               `bson:"attestation_type"`
	RelatesTo       string               `bson:"relates_to"`
	Chain           string               `bson:"chain"`
	ChainId         uint64               `bson:"chain_id"`
	Attester        string               `bson:"attester"`
	Recipient       string               `bson:"recipient"`
	AttestationData string               `bson:"attestation_data"`
	DecodedData     string               `bson:"decoded_data,omitempty"`
	RefUid          string               `bson:"ref_uid,omitempty"`
	ExpirationTime  int64                `bson:"expiration_time"`
	RevocationTime  int64                `bson:"revocation_time"`
	IsRevoked       bool                 `bson:"is_revoked"`
	DateOfIssue     int64                `bson:"date_of_issue"` // unix seconds
	TransactionHash string               `bson:"transaction_hash"`
	BlockNumber     uint64               `bson:"block_number"`
	Direction       AttestationDirection `bson:"direction"`
	Notes           string               `bson:"notes,omitempty"`
}
