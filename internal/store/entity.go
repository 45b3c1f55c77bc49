package store

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/dgraph-io/badger/v4"
)

// Entity provides generic persistence for one record type under a key prefix.
type Entity[T any] struct {
	store  *Store
	prefix string
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s *Store, prefix string) *Entity[T] {
	return &Entity[T]{store: s, prefix: prefix}
}

// Put creates or overwrites the record stored under id.
func (e *Entity[T]) Put(ctx context.Context, id string, entity *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entityKey(e.prefix, id), data)
	})
}

// Get retrieves a record by id.
// Returns ErrNotFound if the record does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entity T
	err := e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entityKey(e.prefix, id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get key: %w", err)
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, &entity); err != nil {
				return ErrCorrupt.WithCause(err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return &entity, nil
}

// Delete removes a record. Deleting a missing record is not an error.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.store.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entityKey(e.prefix, id))
	})
}

// List returns an iterator over all records in key order.
func (e *Entity[T]) List(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		_ = e.store.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if ctx.Err() != nil {
					yield(nil, ctx.Err())
					return ctx.Err()
				}

				var entity T
				err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &entity)
				})
				if err != nil {
					err = ErrCorrupt.WithCause(err)
					yield(nil, err)
					return err
				}

				if !yield(&entity, nil) {
					return nil
				}
			}
			return nil
		})
	}
}

// Replace swaps the whole collection for items in one transaction and
// records ids as the collection order. Records not in ids are deleted.
func (e *Entity[T]) Replace(ctx context.Context, ids []string, items []*T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(ids) != len(items) {
		return fmt.Errorf("replace %s: %d ids for %d items", e.prefix, len(ids), len(items))
	}

	values := make([][]byte, len(items))
	for i, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("failed to marshal entity %s: %w", ids[i], err)
		}
		values[i] = data
	}
	order, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[string(entityKey(e.prefix, id))] = struct{}{}
	}

	err = e.store.db.Update(func(txn *badger.Txn) error {
		for _, key := range e.staleKeys(txn, keep) {
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("failed to delete stale key: %w", err)
			}
		}

		for i, id := range ids {
			if err := txn.Set(entityKey(e.prefix, id), values[i]); err != nil {
				return fmt.Errorf("failed to set key: %w", err)
			}
		}
		return txn.Set(orderKey(e.prefix), order)
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		return fmt.Errorf("replace %s: %d records do not fit one transaction: %w", e.prefix, len(ids), err)
	}
	return err
}

// Ordered returns the collection last written by Replace in its recorded
// order. present is false when Replace has never been called.
func (e *Entity[T]) Ordered(ctx context.Context) (items []*T, present bool, err error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	err = e.store.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(orderKey(e.prefix))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get order: %w", err)
		}
		present = true

		var ids []string
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &ids) }); err != nil {
			return ErrCorrupt.WithCause(err)
		}

		items = make([]*T, 0, len(ids))
		for _, id := range ids {
			record, err := txn.Get(entityKey(e.prefix, id))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrCorrupt.WithCause(fmt.Errorf("ordered record %s%s missing", e.prefix, id))
			}
			if err != nil {
				return fmt.Errorf("failed to get key: %w", err)
			}

			var entity T
			if err := record.Value(func(val []byte) error { return json.Unmarshal(val, &entity) }); err != nil {
				return ErrCorrupt.WithCause(err)
			}
			items = append(items, &entity)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return items, present, nil
}

func (e *Entity[T]) staleKeys(txn *badger.Txn, keep map[string]struct{}) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(e.prefix)
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	var stale [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		key := it.Item().KeyCopy(nil)
		if _, ok := keep[string(key)]; !ok {
			stale = append(stale, key)
		}
	}
	return stale
}
