package model

import (
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
)

const TrackerSnapshotCollection = "tracker_snapshots"

// TrackerSnapshotVersion is bumped whenever the snapshot layout changes.
const TrackerSnapshotVersion = 1

type TxIndexEntry struct {
	TxHash    string `bson:"tx_hash"`
	RequestId string `bson:"request_id"`
}

// TrackerSnapshotDocument is the full durable state of one tracker instance,
// written wholesale after every mutation and loaded wholesale on startup.
// The requests slice is the source of truth; the index is persisted for
// observability and rebuilt from the requests on load.
type TrackerSnapshotDocument struct {
	Id        string                 `bson:"_id"` // tracker instance name
	Version   int                    `bson:"version"`
	UpdatedAt int64                  `bson:"updated_at"` // unix milliseconds
	Requests  []types.PendingRequest `bson:"requests"`
	TxIndex   []TxIndexEntry         `bson:"tx_index"`
}
