package store

import (
	"context"
	"fmt"

	"github.com/layer-3/turfbook/core"
	"github.com/layer-3/turfbook/ports"
	"go.etcd.io/bbolt"
)

var credentialsBucket = []byte("credentials")

// BoltStore keeps the credential pair in a BBolt file so a session survives restarts.
type BoltStore struct {
	db *bbolt.DB
}

var _ ports.TokenStore = (*BoltStore)(nil)

// NewBoltStore returns a TokenStore backed by the given BBolt database.
func NewBoltStore(db *bbolt.DB) *BoltStore {
	return &BoltStore{db: db}
}

// NewBoltStoreFromFile opens a BBolt database at the given path.
func NewBoltStoreFromFile(path string, options *bbolt.Options) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewBoltStore(db), nil
}

// Close closes the underlying BBolt database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) Load(ctx context.Context) (core.Credentials, error) {
	var creds core.Credentials
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		if b == nil {
			return nil
		}
		creds.Access = string(b.Get([]byte(ports.AccessKey)))
		creds.Refresh = string(b.Get([]byte(ports.RefreshKey)))
		return nil
	})
	if err != nil {
		return core.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}
	return creds, nil
}

func (s *BoltStore) Save(ctx context.Context, creds core.Credentials) error {
	return s.update(map[string]string{
		ports.AccessKey:  creds.Access,
		ports.RefreshKey: creds.Refresh,
	})
}

func (s *BoltStore) SetAccess(ctx context.Context, access string) error {
	return s.update(map[string]string{ports.AccessKey: access})
}

func (s *BoltStore) Clear(ctx context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(credentialsBucket) == nil {
			return nil
		}
		return tx.DeleteBucket(credentialsBucket)
	})
	if err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}

func (s *BoltStore) update(values map[string]string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(credentialsBucket)
		if err != nil {
			return err
		}
		for k, v := range values {
			if v == "" {
				if err := b.Delete([]byte(k)); err != nil {
					return err
				}
				continue
			}
			if err := b.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}
