package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	bolt "go.etcd.io/bbolt"
)

const boltConnectTimeout = 5 * time.Second

var boltBucket = []byte("state")

// boltRecord is the on-disk form of an entry. Expiry is enforced lazily on
// read, since bbolt has no native TTL.
type boltRecord struct {
	Value     []byte `cbor:"1,keyasint"`
	ExpiresAt int64  `cbor:"2,keyasint,omitempty"` // unix seconds, 0 means never
}

func (rec boltRecord) expired(now time.Time) bool {
	return rec.ExpiresAt != 0 && now.Unix() > rec.ExpiresAt
}

// Bolt is a Store persisted in a single bbolt database file. Take and
// expiry-delete run inside write transactions, which bbolt serializes, so
// consumption stays at-most-once.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens (creating if needed) the database file at path.
func NewBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: boltConnectTimeout})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Bolt{db: db}, nil
}

// Close releases the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// SetValue implements Store.
func (b *Bolt) SetValue(_ context.Context, key string, value []byte, ttl time.Duration) error {
	rec := boltRecord{Value: value}
	if ttl > 0 {
		rec.ExpiresAt = time.Now().Add(ttl).Unix()
	}
	data, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// GetValue implements Store. Reads run in a write transaction so an expired
// entry can be deleted in the same step.
func (b *Bolt) GetValue(_ context.Context, key string) ([]byte, error) {
	return b.load(key, false)
}

// TakeValue implements Store.
func (b *Bolt) TakeValue(_ context.Context, key string) ([]byte, error) {
	return b.load(key, true)
}

func (b *Bolt) load(key string, take bool) ([]byte, error) {
	var value []byte
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(boltBucket)
		data := bucket.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}

		var rec boltRecord
		if err := cbor.Unmarshal(data, &rec); err != nil {
			return err
		}
		if rec.expired(time.Now()) {
			_ = bucket.Delete([]byte(key))
			return ErrNotFound
		}
		if take {
			if err := bucket.Delete([]byte(key)); err != nil {
				return err
			}
		}
		value = append([]byte(nil), rec.Value...)
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

// UnsetValue implements Store.
func (b *Bolt) UnsetValue(_ context.Context, key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
