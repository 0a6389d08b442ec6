package history

import (
	"encoding/json"
	"fmt"
	"sort"

	bolt "go.etcd.io/bbolt"
)

var bucketPrevJobInfo = []byte("prev_job_info")

// maxRecordsPerKey bounds how many runs are kept per signature key —
// only recent history is useful for a walltime estimate, and an
// unbounded bucket would grow forever for a script resubmitted daily.
const maxRecordsPerKey = 5

// BoltStore implements Store using a single bbolt bucket, one JSON-encoded
// record slice per signature key.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if needed) a bbolt database at path and
// ensures the prev_job_info bucket exists.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPrevJobInfo)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create prev_job_info bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// RecordFinish appends rec to rec.Key's history, keeping only the
// maxRecordsPerKey newest entries.
func (s *BoltStore) RecordFinish(rec Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPrevJobInfo)
		recs, err := decodeRecords(b.Get([]byte(rec.Key)))
		if err != nil {
			return err
		}
		recs = append(recs, rec)
		if len(recs) > maxRecordsPerKey {
			recs = recs[len(recs)-maxRecordsPerKey:]
		}
		data, err := json.Marshal(recs)
		if err != nil {
			return err
		}
		return b.Put([]byte(rec.Key), data)
	})
}

// MostRecent returns the newest record for key.
func (s *BoltStore) MostRecent(key string) (Record, bool, error) {
	recs, err := s.History(key)
	if err != nil || len(recs) == 0 {
		return Record{}, false, err
	}
	return recs[len(recs)-1], true, nil
}

// History returns every retained record for key, oldest first.
func (s *BoltStore) History(key string) ([]Record, error) {
	var recs []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPrevJobInfo)
		var err error
		recs, err = decodeRecords(b.Get([]byte(key)))
		return err
	})
	return recs, err
}

func decodeRecords(data []byte) ([]Record, error) {
	if data == nil {
		return nil, nil
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ExitTime.Before(recs[j].ExitTime) })
	return recs, nil
}
