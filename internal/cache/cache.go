package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"receipt-recon/internal/catalog"
)

const (
	matchBucketName   = "matches"
	barcodeBucketName = "barcodes"
)

// Entry is the best-known match for a normalized receipt name. The cache
// stores the best guess regardless of threshold; thresholding happens at
// enrichment time.
type Entry struct {
	SKU        string `json:"sku"`
	Confidence int    `json:"confidence"`
}

// Store persists the match cache and the barcode cache in a single BoltDB
// file, one bucket each. Match-side writes are buffered until Flush, which
// commits them in one transaction; concurrent resolutions racing on the same
// store are last-flush-wins. Keys are opaque: normalization is the caller's
// responsibility.
type Store struct {
	db *bbolt.DB

	mu      sync.Mutex
	pending map[string]Entry
}

// NewStore opens (or creates) the cache database at path.
func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(matchBucketName)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(barcodeBucketName)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db, pending: make(map[string]Entry)}, nil
}

// Get looks up a match entry. Buffered puts from this process are visible
// before they are flushed. Legacy values stored as a bare SKU string decode as
// an entry with confidence 50; they are only rewritten by a later Put.
func (s *Store) Get(key string) (Entry, bool, error) {
	s.mu.Lock()
	if entry, ok := s.pending[key]; ok {
		s.mu.Unlock()
		return entry, true, nil
	}
	s.mu.Unlock()

	var (
		entry Entry
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(matchBucketName)).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		if err := json.Unmarshal(data, &entry); err == nil {
			return nil
		}
		var legacy string
		if err := json.Unmarshal(data, &legacy); err != nil {
			return fmt.Errorf("unmarshaling cache entry: %w", err)
		}
		entry = Entry{SKU: legacy, Confidence: 50}
		return nil
	})
	if err != nil {
		return Entry{}, false, err
	}
	return entry, found, nil
}

// Put buffers a match entry. It becomes durable on the next Flush.
func (s *Store) Put(key string, entry Entry) {
	s.mu.Lock()
	s.pending[key] = entry
	s.mu.Unlock()
}

// Flush commits all buffered match entries in a single transaction.
func (s *Store) Flush() error {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return nil
	}
	batch := s.pending
	s.pending = make(map[string]Entry)
	s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(matchBucketName))
		for key, entry := range batch {
			data, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("marshaling cache entry: %w", err)
			}
			if err := bucket.Put([]byte(key), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("flushing match cache: %w", err)
	}
	return nil
}

// Clear deletes every match entry, persisted and buffered.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.pending = make(map[string]Entry)
	s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(matchBucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(matchBucketName))
		return err
	})
	if err != nil {
		return fmt.Errorf("clearing match cache: %w", err)
	}
	return nil
}

// GetBarcode looks up a cached barcode resolution.
func (s *Store) GetBarcode(code string) (catalog.BarcodeResult, bool, error) {
	var (
		result catalog.BarcodeResult
		found  bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(barcodeBucketName)).Get([]byte(code))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &result); err != nil {
			return fmt.Errorf("unmarshaling barcode entry: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return catalog.BarcodeResult{}, false, err
	}
	return result, found, nil
}

// PutBarcode stores a barcode resolution immediately. Barcode lookups are
// individual requests, so there is no batch to buffer.
func (s *Store) PutBarcode(code string, result catalog.BarcodeResult) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshaling barcode entry: %w", err)
		}
		return tx.Bucket([]byte(barcodeBucketName)).Put([]byte(code), data)
	})
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
