package keeper

import (
	"encoding/json"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/aliakgoz/BingoBase/data"
)

const checkpointPrefix = "checkpoint:"

// CheckpointStore - durable per-round progress records in a local leveldb.
// One record per round id, mirroring the ledger's append-only registry,
// pruned outside a bounded window.
type CheckpointStore struct {
	db *leveldb.DB
}

// NewCheckpointStore - opens (or creates) the store at path
func NewCheckpointStore(path string) (*CheckpointStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	return &CheckpointStore{db: db}, nil
}

func checkpointKey(roundID uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", checkpointPrefix, roundID))
}

// Save - writes the round's checkpoint record
func (cs *CheckpointStore) Save(cp *data.Checkpoint) error {
	value, err := json.Marshal(cp)
	if err != nil {
		return err
	}

	return cs.db.Put(checkpointKey(cp.RoundID), value, nil)
}

// Load - reads one round's checkpoint, nil when absent
func (cs *CheckpointStore) Load(roundID uint64) (*data.Checkpoint, error) {
	value, err := cs.db.Get(checkpointKey(roundID), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cp := &data.Checkpoint{}
	err = json.Unmarshal(value, cp)
	if err != nil {
		return nil, err
	}

	return cp, nil
}

// Latest - the checkpoint with the highest round id, nil when the store is
// empty
func (cs *CheckpointStore) Latest() (*data.Checkpoint, error) {
	iter := cs.db.NewIterator(util.BytesPrefix([]byte(checkpointPrefix)), nil)
	defer iter.Release()

	if !iter.Last() {
		return nil, iter.Error()
	}

	cp := &data.Checkpoint{}
	err := json.Unmarshal(iter.Value(), cp)
	if err != nil {
		return nil, err
	}

	return cp, nil
}

// Prune - deletes every checkpoint with a round id below keepFrom
func (cs *CheckpointStore) Prune(keepFrom uint64) error {
	iter := cs.db.NewIterator(util.BytesPrefix([]byte(checkpointPrefix)), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	limit := string(checkpointKey(keepFrom))
	for iter.Next() {
		if string(iter.Key()) >= limit {
			break
		}
		batch.Delete(append([]byte(nil), iter.Key()...))
	}
	if err := iter.Error(); err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}

	return cs.db.Write(batch, nil)
}

// Close - closes the underlying database
func (cs *CheckpointStore) Close() error {
	return cs.db.Close()
}
