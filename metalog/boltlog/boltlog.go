// Package boltlog is a durable, single-writer record log backed by
// bbolt. It implements the append side of the metadata log contract
// for tests and single-node bootstrap, where the replicated consensus
// layer is not in play: offsets are assigned locally and records are
// replayed in offset order.
package boltlog

import (
	"context"
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/skua-io/skua/metalog"
)

var recordsBucket = []byte("records")

// Config configures a boltlog.
type Config struct {
	Path string
}

var _ metalog.Appender = (*Log)(nil)

// Log is an append-only record log in a bbolt file. Records are keyed
// by their big-endian offset, so a cursor scan replays them in order.
type Log struct {
	db *bolt.DB
}

// Open opens the log at the configured path, creating it if needed.
func Open(config Config) (*Log, error) {
	db, err := bolt.Open(config.Path, 0666, nil)

	if err != nil {
		return nil, fmt.Errorf("could not open record log at %s: %w", config.Path, err)
	}

	if err := db.Update(func(txn *bolt.Tx) error {
		_, err := txn.CreateBucketIfNotExists(recordsBucket)

		return err
	}); err != nil {
		db.Close()

		return nil, fmt.Errorf("could not ensure records bucket exists: %w", err)
	}

	return &Log{db: db}, nil
}

// Close closes the log.
func (log *Log) Close() error {
	return log.db.Close()
}

// Append implements metalog.Appender.Append
func (log *Log) Append(ctx context.Context, record metalog.Record) (metalog.Offset, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := encodeRecord(record)

	if err != nil {
		return 0, fmt.Errorf("could not encode record: %w", err)
	}

	var offset metalog.Offset

	if err := log.db.Update(func(txn *bolt.Tx) error {
		bucket := txn.Bucket(recordsBucket)

		sequence, err := bucket.NextSequence()

		if err != nil {
			return err
		}

		offset = metalog.Offset(sequence)

		return bucket.Put(offsetKey(offset), data)
	}); err != nil {
		return 0, fmt.Errorf("could not append record: %w", err)
	}

	return offset, nil
}

// Replay streams every record with offset >= from into the applier in
// offset order.
func (log *Log) Replay(from metalog.Offset, applier metalog.Applier) error {
	return log.db.View(func(txn *bolt.Tx) error {
		cursor := txn.Bucket(recordsBucket).Cursor()

		for key, data := cursor.Seek(offsetKey(from)); key != nil; key, data = cursor.Next() {
			offset := metalog.Offset(binary.BigEndian.Uint64(key))

			record, err := decodeRecord(data)

			if err != nil {
				return fmt.Errorf("could not decode record at offset %d: %w", offset, err)
			}

			if err := applier.Apply(offset, record); err != nil {
				return fmt.Errorf("could not apply record at offset %d: %w", offset, err)
			}
		}

		return nil
	})
}

// LastOffset returns the offset of the newest record, or zero if the
// log is empty.
func (log *Log) LastOffset() (metalog.Offset, error) {
	var offset metalog.Offset

	if err := log.db.View(func(txn *bolt.Tx) error {
		key, _ := txn.Bucket(recordsBucket).Cursor().Last()

		if key != nil {
			offset = metalog.Offset(binary.BigEndian.Uint64(key))
		}

		return nil
	}); err != nil {
		return 0, err
	}

	return offset, nil
}

func offsetKey(offset metalog.Offset) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(offset))

	return key
}
