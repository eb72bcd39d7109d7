package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"renovation-quote/internal/domain"
)

var leadsBucket = []byte("leads")

// BoltLeadStore is a local append-only lead log. Keys are the bucket sequence
// in big-endian form, so cursor order is insertion order.
type BoltLeadStore struct {
	db *bolt.DB
}

// OpenBoltLeadStore opens (or creates) the bolt file at path.
func OpenBoltLeadStore(path string) (*BoltLeadStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository: bolt path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("repository: create lead store directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("repository: open lead store: %w", err)
	}
	return &BoltLeadStore{db: db}, nil
}

func (s *BoltLeadStore) Close() error {
	return s.db.Close()
}

func (s *BoltLeadStore) Append(ctx context.Context, lead domain.Lead) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateLead(lead); err != nil {
		return err
	}
	if lead.ChatHistory == nil {
		lead.ChatHistory = []domain.Message{}
	}
	value, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("repository: marshal lead: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(leadsBucket)
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return b.Put(key, value)
	})
	if err != nil {
		return fmt.Errorf("repository: append lead: %w", err)
	}
	return nil
}

// List returns all leads in insertion order. A store that has never been
// written to lists as empty.
func (s *BoltLeadStore) List(ctx context.Context) ([]domain.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	leads := []domain.Lead{}
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(leadsBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var lead domain.Lead
			if err := json.Unmarshal(v, &lead); err != nil {
				return fmt.Errorf("decode lead %x: %w", k, err)
			}
			leads = append(leads, lead)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("repository: list leads: %w", err)
	}
	return leads, nil
}
