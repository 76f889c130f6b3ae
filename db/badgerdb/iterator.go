package badgerdb

import (
	"bytes"
	"errors"

	paymasterdb "github.com/Timi16/Etherspotpaymaster/db"
	"github.com/dgraph-io/badger/v2"
)

type Iterator struct {
	start   []byte
	end     []byte
	reverse bool
	iter    *badger.Iterator
}

func (db *DB) Iterator(start, end []byte) paymasterdb.Iterator {
	badgerTx := db.db.NewTransaction(false)

	var reverse bool

	// if end is bigger then start, then reverse order
	if bytes.Compare(start, end) == 1 {
		reverse = true
	} else {
		reverse = false
	}

	opt := badger.DefaultIteratorOptions
	opt.PrefetchValues = false
	opt.Reverse = reverse

	badgerIter := badgerTx.NewIterator(opt)

	badgerIter.Seek(start)

	return &Iterator{
		start:   start,
		end:     end,
		reverse: reverse,
		iter:    badgerIter,
	}
}

func (iter *Iterator) Next() error {
	if !iter.Valid() {
		return errors.New("Invalid iterator")
	}
	iter.iter.Next()
	return nil
}

func (iter *Iterator) Valid() bool {
	if !iter.iter.Valid() {
		return false
	}

	if iter.end != nil {
		if !iter.reverse {
			if bytes.Compare(iter.end, iter.iter.Item().Key()) <= 0 {
				return false
			}
		} else {
			if bytes.Compare(iter.iter.Item().Key(), iter.end) <= 0 {
				return false
			}
		}
	}

	return true
}

func (iter *Iterator) Key() ([]byte, error) {
	if !iter.Valid() {
		return nil, errors.New("Invalid iterator")
	}
	return iter.iter.Item().KeyCopy(nil), nil
}

func (iter *Iterator) Value() ([]byte, error) {
	if !iter.Valid() {
		return nil, errors.New("Invalid iterator")
	}
	return iter.iter.Item().ValueCopy(nil)
}
