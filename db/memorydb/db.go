package memorydb

import (
	"container/list"
	"sync"

	paymasterdb "github.com/Timi16/Etherspotpaymaster/db"
)

func NewDB() *DB {
	return &DB{
		db: make(map[string][]byte),
	}
}

// Enforce database and transaction implements interfaces
var _ paymasterdb.DB = (*DB)(nil)

type DB struct {
	lock sync.Mutex
	db   map[string][]byte
}

func (db *DB) Type() string {
	return "memorydb"
}

func (db *DB) Set(namespace []byte, key []byte, value []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = paymasterdb.PrependNamespace(namespace, key)
	key = paymasterdb.ConvNilToBytes(key)
	value = paymasterdb.ConvNilToBytes(value)

	db.db[string(key)] = value
	return nil
}

func (db *DB) Delete(namespace []byte, key []byte) error {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = paymasterdb.PrependNamespace(namespace, key)
	key = paymasterdb.ConvNilToBytes(key)

	delete(db.db, string(key))
	return nil
}

func (db *DB) Get(namespace []byte, key []byte) ([]byte, bool, error) {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = paymasterdb.PrependNamespace(namespace, key)
	key = paymasterdb.ConvNilToBytes(key)

	value, exists := db.db[string(key)]
	return value, exists, nil
}

func (db *DB) Exist(namespace []byte, key []byte) (bool, error) {
	db.lock.Lock()
	defer db.lock.Unlock()

	key = paymasterdb.PrependNamespace(namespace, key)
	key = paymasterdb.ConvNilToBytes(key)

	_, ok := db.db[string(key)]

	return ok, nil
}

func (db *DB) Close() error {
	return nil
}

func (db *DB) NewTx() paymasterdb.Transaction {
	return &Transaction{
		db:        db,
		opList:    list.New(),
		isDiscard: false,
		isCommit:  false,
	}
}
