package types

type RequestState string

const (
	Pending   RequestState = "pending"
	Confirmed RequestState = "confirmed"
	Timeout   RequestState = "timeout"
)

func (s RequestState) ToString() string {
	return string(s)
}

// IsTerminal reports whether no further lifecycle transition is allowed.
func (s RequestState) IsTerminal() bool {
	return s == Confirmed || s == Timeout
}

// PendingRequest is the tracked context of one attestation or revocation
// workflow, registered before the transaction hash is known.
type PendingRequest struct {
	RequestId      string       `json:"request_id" bson:"request_id"`
	TxHash         string       `json:"tx_hash,omitempty" bson:"tx_hash,omitempty"`
	UserId         string       `json:"user_id" bson:"user_id"`
	OrgDatabase    string       `json:"org_database" bson:"org_database"`
	IntegraHash    string       `json:"integra_hash" bson:"integra_hash"`
	TokenId        uint64       `json:"token_id" bson:"token_id"`
	Recipient      string       `json:"recipient" bson:"recipient"`
	Chain          Chain        `json:"chain" bson:"chain"`
	ChainId        uint64       `json:"chain_id" bson:"chain_id"`
	CreatedAt      int64        `json:"created_at" bson:"created_at"` // unix milliseconds
	DeadlineMs     int64        `json:"deadline_ms" bson:"deadline_ms"`
	State          RequestState `json:"state" bson:"state"`
	AttestationUID string       `json:"attestation_uid,omitempty" bson:"attestation_uid,omitempty"`
	ConfirmedAt    int64        `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"` // unix milliseconds
	Error          string       `json:"error,omitempty" bson:"error,omitempty"`
}
