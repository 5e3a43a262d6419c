package storage

import (
	"errors"

	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Database is a generic interface for a key-value store.
// This allows the ledger to run over any backend that honours these semantics.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	Close() // A way to gracefully shut down the database connection.
}

// --- In-Memory DB ---

// MemDB is an in-memory key-value store backed by the goleveldb skiplist.
// Returned values are copies and may be modified by the caller.
type MemDB struct {
	db *memdb.DB
}

func NewMemDB() *MemDB {
	return &MemDB{db: memdb.New(comparer.DefaultComparer, 0)}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	return db.db.Put(key, value)
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	value, err := db.db.Get(key)
	if errors.Is(err, memdb.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), value...), nil
}

func (db *MemDB) Has(key []byte) (bool, error) {
	return db.db.Contains(key), nil
}

// Delete removes the key. Deleting a missing key is not an error.
func (db *MemDB) Delete(key []byte) error {
	err := db.db.Delete(key)
	if errors.Is(err, memdb.ErrNotFound) {
		return nil
	}
	return err
}

// Len reports the number of live entries.
func (db *MemDB) Len() int {
	return db.db.Len()
}

// Close releases the skiplist buffers. The database is empty afterwards.
func (db *MemDB) Close() {
	db.db.Reset()
}
