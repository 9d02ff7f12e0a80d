package receipt

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"go.etcd.io/bbolt"
)

const (
	bucketName        = "receipts"
	correctionsBucket = "corrections"
)

// ErrNotFound is returned when a receipt does not exist
var ErrNotFound = errors.New("receipt not found")

// DB defines the interface for database operations
type DB interface {
	// SaveReceipt inserts or replaces a receipt
	SaveReceipt(receipt *Receipt) error

	// GetReceipt retrieves a receipt by ID. Missing receipts wrap ErrNotFound.
	GetReceipt(id string) (*Receipt, error)

	// ListReceipts returns all receipts, newest first
	ListReceipts() ([]*Receipt, error)

	// DeleteReceipt removes a receipt. Missing receipts wrap ErrNotFound.
	DeleteReceipt(id string) error

	// SaveCorrections appends to the correction log, assigning IDs
	SaveCorrections(corrections []Correction) error

	// ListCorrections returns up to limit corrections, newest first. An empty
	// receiptID lists corrections for every receipt.
	ListCorrections(receiptID string, limit int) ([]Correction, error)

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens or creates the database at path
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketName, correctionsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveReceipt saves a receipt to the database
func (b *BoltDB) SaveReceipt(receipt *Receipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("marshaling receipt: %w", err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(receipt.ID), data)
	})
}

// GetReceipt retrieves a receipt by ID
func (b *BoltDB) GetReceipt(id string) (*Receipt, error) {
	var receipt *Receipt
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return json.Unmarshal(data, &receipt)
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListReceipts returns all receipts, newest first
func (b *BoltDB) ListReceipts() ([]*Receipt, error) {
	receipts := make([]*Receipt, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).ForEach(func(k, v []byte) error {
			var receipt Receipt
			if err := json.Unmarshal(v, &receipt); err != nil {
				return fmt.Errorf("unmarshaling receipt %s: %w", k, err)
			}
			receipts = append(receipts, &receipt)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(receipts)
	return receipts, nil
}

// DeleteReceipt removes a receipt from the database
func (b *BoltDB) DeleteReceipt(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket.Get([]byte(id)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return bucket.Delete([]byte(id))
	})
}

// SaveCorrections appends corrections under increasing sequence keys
func (b *BoltDB) SaveCorrections(corrections []Correction) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(correctionsBucket))
		for i := range corrections {
			seq, err := bucket.NextSequence()
			if err != nil {
				return fmt.Errorf("allocating correction id: %w", err)
			}
			corrections[i].ID = strconv.FormatUint(seq, 10)

			data, err := json.Marshal(corrections[i])
			if err != nil {
				return fmt.Errorf("marshaling correction: %w", err)
			}
			if err := bucket.Put(binary.BigEndian.AppendUint64(nil, seq), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListCorrections walks the log backwards from the newest entry
func (b *BoltDB) ListCorrections(receiptID string, limit int) ([]Correction, error) {
	corrections := make([]Correction, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(correctionsBucket)).Cursor()
		for k, v := c.Last(); k != nil && len(corrections) < limit; k, v = c.Prev() {
			var corr Correction
			if err := json.Unmarshal(v, &corr); err != nil {
				return fmt.Errorf("unmarshaling correction %x: %w", k, err)
			}
			if receiptID != "" && corr.ReceiptID != receiptID {
				continue
			}
			corrections = append(corrections, corr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return corrections, nil
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}

// sortNewestFirst orders by creation time descending, then by ID so the
// order is stable for receipts created in the same instant
func sortNewestFirst(receipts []*Receipt) {
	slices.SortStableFunc(receipts, func(a, b *Receipt) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}
