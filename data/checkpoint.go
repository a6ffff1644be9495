package data

// Checkpoint is the durable progress record the keeper keeps per round. It
// is what restart recovery and gap reconciliation resume from, so a full
// history re-scan is never needed.
type Checkpoint struct {
	RoundID               uint64 `json:"roundId"`
	LastObservedDrawCount uint32 `json:"lastObservedDrawCount"`
	LastObservedFinalized bool   `json:"lastObservedFinalized"`
	LastCheckpointTime    int64  `json:"lastCheckpointTime"`
}
