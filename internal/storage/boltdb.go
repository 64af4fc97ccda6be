package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/clipkeep/clipkeep/internal/types"
)

const itemsBucket = "items"

// Repository is the persistent record store: one record per clipboard item,
// keyed by item id. The in-memory ordered list stays authoritative for the
// session; save failures are logged and absorbed. Only a failure to open
// the database at all is fatal at startup.
type Repository interface {
	Insert(item *types.ClipboardItem) error
	Delete(id string) error
	FetchAll() ([]*types.ClipboardItem, error)
	SaveAll(items []*types.ClipboardItem) error
	Close() error
}

// BoltRepository implements Repository on a bbolt database.
type BoltRepository struct {
	db     *bbolt.DB
	logger *zap.Logger
}

func NewBoltRepository(dbPath string, logger *zap.Logger) (*BoltRepository, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(itemsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	logger.Debug("repository opened", zap.String("db_path", dbPath))

	return &BoltRepository{db: db, logger: logger}, nil
}

// Insert writes or overwrites one item record.
func (r *BoltRepository) Insert(item *types.ClipboardItem) error {
	encoded, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(itemsBucket)).Put([]byte(item.ID), encoded)
	})
}

// Delete removes one item record.
func (r *BoltRepository) Delete(id string) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(itemsBucket)).Delete([]byte(id))
	})
}

// FetchAll returns every stored item sorted most recent first. Records that
// fail to decode are skipped, not fatal.
func (r *BoltRepository) FetchAll() ([]*types.ClipboardItem, error) {
	var items []*types.ClipboardItem

	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(itemsBucket)).ForEach(func(k, v []byte) error {
			var item types.ClipboardItem
			if err := json.Unmarshal(v, &item); err != nil {
				r.logger.Warn("skipping undecodable item record",
					zap.ByteString("key", k),
					zap.Error(err))
				return nil
			}
			items = append(items, &item)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch items: %w", err)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Created.After(items[j].Created)
	})
	return items, nil
}

// SaveAll replaces the full record set with the given items in one
// transaction, so the store mirrors the ordered list.
func (r *BoltRepository) SaveAll(items []*types.ClipboardItem) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(itemsBucket)); err != nil {
			return fmt.Errorf("failed to reset bucket: %w", err)
		}
		b, err := tx.CreateBucket([]byte(itemsBucket))
		if err != nil {
			return fmt.Errorf("failed to recreate bucket: %w", err)
		}
		for _, item := range items {
			encoded, err := json.Marshal(item)
			if err != nil {
				return fmt.Errorf("failed to marshal item %s: %w", item.ID, err)
			}
			if err := b.Put([]byte(item.ID), encoded); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close closes the database.
func (r *BoltRepository) Close() error {
	return r.db.Close()
}
