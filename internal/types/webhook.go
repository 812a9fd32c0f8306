package types

// ActivityLog is the raw log entry attached to a webhook activity record.
type ActivityLog struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Activity is one transaction activity record in an inbound webhook batch.
type Activity struct {
	Hash        string       `json:"hash"`
	BlockNum    string       `json:"blockNum"` // hex string
	FromAddress string       `json:"fromAddress"`
	ToAddress   string       `json:"toAddress"`
	Category    string       `json:"category"`
	Log         *ActivityLog `json:"log,omitempty"`
}

// RPCWebhookPayload is the body of an inbound confirmation webhook.
type RPCWebhookPayload struct {
	Network  string     `json:"network"`
	Activity []Activity `json:"activity"`
}
