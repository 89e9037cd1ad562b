// Package bolt is a storage.Storage backed by a bbolt database.
package bolt

import (
	"context"
	"time"

	"github.com/xStarless-Skyx/skparse/storage"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Bucket holds the variables.
var Bucket = []byte("variables")

type Storage struct {
	Codec  *storage.Codec
	Logger *zap.Logger

	filename string
	db       *bolt.DB
}

// NewStorage makes a Storage for the given file.  Call Open before
// using it.  The codec and logger can be nil.
func NewStorage(filename string, codec *storage.Codec, logger *zap.Logger) *Storage {
	if codec == nil {
		codec = storage.NewCodec()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Storage{
		Codec:    codec,
		Logger:   logger,
		filename: filename,
	}
}

func (s *Storage) Open() error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	if err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(Bucket)
		return err
	}); err != nil {
		db.Close()
		return err
	}
	s.db = db
	s.Logger.Debug("opened", zap.String("filename", s.filename))
	return nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Storage) Get(ctx context.Context, name string) (interface{}, bool, error) {
	if s.db == nil {
		return nil, false, storage.Closed
	}
	var bs []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if got := tx.Bucket(Bucket).Get([]byte(name)); got != nil {
			// Only valid during the transaction.
			bs = append([]byte(nil), got...)
		}
		return nil
	})
	if err != nil || bs == nil {
		return nil, false, err
	}
	v, err := s.Codec.Decode(bs)
	if err != nil {
		return nil, false, err
	}
	s.Logger.Debug("get", zap.String("name", name))
	return v, true, nil
}

func (s *Storage) Put(ctx context.Context, name string, v interface{}) error {
	if s.db == nil {
		return storage.Closed
	}
	bs, err := s.Codec.Encode(v)
	if err != nil {
		return err
	}
	s.Logger.Debug("put", zap.String("name", name), zap.Int("bytes", len(bs)))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(Bucket).Put([]byte(name), bs)
	})
}

func (s *Storage) Delete(ctx context.Context, name string) error {
	if s.db == nil {
		return storage.Closed
	}
	s.Logger.Debug("delete", zap.String("name", name))
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(Bucket).Delete([]byte(name))
	})
}

func (s *Storage) Names(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, storage.Closed
	}
	var acc []string
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(Bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			acc = append(acc, string(k))
		}
		return nil
	})
	return acc, err
}
