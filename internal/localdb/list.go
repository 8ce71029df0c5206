// Audittrail - Security Audit Trail Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/audittrail

package localdb

import (
	"context"
	"encoding/binary"
	"fmt"
	"iter"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// Entry is one stored value and its position in the list.
type Entry struct {
	Seq   uint64
	Value []byte
}

// List is a durable FIFO of opaque values. Appends go to the tail, removals
// come off the head, and the sequence numbers in between are contiguous.
// All mutations are serialized by the list mutex.
type List struct {
	db     *badger.DB
	name   string
	prefix []byte

	mu   sync.Mutex
	head uint64 // sequence of the oldest entry; equals next when empty
	next uint64 // sequence assigned to the next append
}

// Name returns the list name.
func (l *List) Name() string {
	return l.name
}

func (l *List) key(seq uint64) []byte {
	k := make([]byte, len(l.prefix)+8)
	copy(k, l.prefix)
	binary.BigEndian.PutUint64(k[len(l.prefix):], seq)
	return k
}

func (l *List) seqOf(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(l.prefix):])
}

// recover reads the first and last keys to rebuild head and next.
func (l *List) recover() error {
	return l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = l.prefix

		it := txn.NewIterator(opts)
		it.Seek(l.prefix)
		if !it.ValidForPrefix(l.prefix) {
			it.Close()
			l.head, l.next = 0, 0
			return nil
		}
		l.head = l.seqOf(it.Item().Key())
		it.Close()

		opts.Reverse = true
		rit := txn.NewIterator(opts)
		defer rit.Close()
		rit.Seek(l.key(^uint64(0)))
		if !rit.ValidForPrefix(l.prefix) {
			return fmt.Errorf("list %s: tail key vanished during recovery", l.name)
		}
		l.next = l.seqOf(rit.Item().Key()) + 1
		return nil
	})
}

// Len returns the number of entries.
func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return int(l.next - l.head)
}

// Append stores value at the tail and returns its sequence number.
func (l *List) Append(value []byte) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq := l.next
	if err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(l.key(seq), value)
	}); err != nil {
		return 0, fmt.Errorf("append to %s: %w", l.name, err)
	}
	l.next++
	return seq, nil
}

// Peek returns the head entry without removing it.
func (l *List) Peek() (Entry, bool, error) {
	var (
		entry Entry
		found bool
	)
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 1
		opts.Prefix = l.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		it.Seek(l.prefix)
		if !it.ValidForPrefix(l.prefix) {
			return nil
		}
		item := it.Item()
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		entry = Entry{Seq: l.seqOf(item.Key()), Value: val}
		found = true
		return nil
	})
	if err != nil {
		return Entry{}, false, fmt.Errorf("peek %s: %w", l.name, err)
	}
	return entry, found, nil
}

// RemoveHead deletes up to n entries from the head and returns how many were removed.
func (l *List) RemoveHead(n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.removeLocked(func(_ uint64, count int) bool { return count < n })
}

// RemoveThrough deletes every entry with a sequence number <= seq. Entries
// already removed are skipped, so a worker holding a stale head is harmless.
func (l *List) RemoveThrough(seq uint64) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq < l.head {
		return 0, nil
	}
	return l.removeLocked(func(s uint64, _ int) bool { return s <= seq })
}

// removeLocked deletes head entries while take returns true. Caller holds l.mu.
func (l *List) removeLocked(take func(seq uint64, count int) bool) (int, error) {
	var keys [][]byte
	var last uint64

	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = l.prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(l.prefix); it.ValidForPrefix(l.prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			seq := l.seqOf(key)
			if !take(seq, len(keys)) {
				break
			}
			keys = append(keys, key)
			last = seq
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan %s head: %w", l.name, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	wb := l.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, fmt.Errorf("delete from %s: %w", l.name, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush %s deletes: %w", l.name, err)
	}

	l.head = last + 1
	if l.head > l.next {
		l.next = l.head
	}
	return len(keys), nil
}

// Descending yields entries newest first, reading pageSize entries per
// read transaction so a slow consumer never pins a transaction open.
// A storage error is yielded once and ends the sequence.
func (l *List) Descending(ctx context.Context, pageSize int) iter.Seq2[Entry, error] {
	if pageSize <= 0 {
		pageSize = 256
	}
	return func(yield func(Entry, error) bool) {
		l.mu.Lock()
		cursor := l.next
		l.mu.Unlock()

		for cursor > 0 {
			if err := ctx.Err(); err != nil {
				yield(Entry{}, err)
				return
			}
			page, err := l.readBefore(cursor, pageSize)
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if len(page) == 0 {
				return
			}
			for _, e := range page {
				if !yield(e, nil) {
					return
				}
			}
			cursor = page[len(page)-1].Seq
		}
	}
}

// readBefore returns up to n entries with sequence < cursor, newest first.
func (l *List) readBefore(cursor uint64, n int) ([]Entry, error) {
	page := make([]Entry, 0, n)
	err := l.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = l.prefix
		if n < opts.PrefetchSize {
			opts.PrefetchSize = n
		}
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(l.key(cursor - 1)); it.ValidForPrefix(l.prefix) && len(page) < n; it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			page = append(page, Entry{Seq: l.seqOf(item.Key()), Value: val})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", l.name, err)
	}
	return page, nil
}
