// Package embedded persists a waypoint workspace in BadgerDB: the current
// graph snapshot and the path history ledger.
package embedded

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/imyousuf/waypoint/internal/graph"
	"github.com/imyousuf/waypoint/internal/history"
)

// Key prefixes for the BadgerDB key scheme.
const (
	prefixNode = "n:"
	prefixEdge = "e:"

	// keyHistory holds the whole history collection as one JSON array.
	keyHistory = "h:entries"
)

// Store is a BadgerDB-backed workspace database.
type Store struct {
	db *badger.DB
}

// NewStore opens (or creates) a BadgerDB workspace at dbPath.
func NewStore(dbPath string) (*Store, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // suppress badger logs
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// NewInMemoryStore opens a workspace database that lives only in memory.
func NewInMemoryStore() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// nodeKey returns the primary key for the node at position seq. Zero-padded
// sequence numbers keep Badger's key order equal to snapshot order.
func nodeKey(seq int) []byte { return []byte(fmt.Sprintf("%s%08d", prefixNode, seq)) }

// edgeKey returns the primary key for the edge at position seq.
func edgeKey(seq int) []byte { return []byte(fmt.Sprintf("%s%08d", prefixEdge, seq)) }

// SaveGraph replaces the stored graph with snap in a single transaction.
func (s *Store) SaveGraph(_ context.Context, snap graph.Snapshot) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, prefix := range []string{prefixNode, prefixEdge} {
			keys := collectKeys(txn, []byte(prefix))
			for _, k := range keys {
				if err := txn.Delete(k); err != nil {
					return fmt.Errorf("delete %s: %w", k, err)
				}
			}
		}
		for i, n := range snap.Nodes {
			data, err := json.Marshal(n)
			if err != nil {
				return fmt.Errorf("marshal node %s: %w", n.ID, err)
			}
			if err := txn.Set(nodeKey(i), data); err != nil {
				return err
			}
		}
		for i, e := range snap.Edges {
			data, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("marshal edge %s-%s: %w", e.Source, e.Target, err)
			}
			if err := txn.Set(edgeKey(i), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadGraph reads the stored graph. An empty database yields an empty
// snapshot.
func (s *Store) LoadGraph(_ context.Context) (graph.Snapshot, error) {
	snap := graph.Snapshot{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	err := s.db.View(func(txn *badger.Txn) error {
		if err := scanPrefix(txn, []byte(prefixNode), func(val []byte) error {
			var n graph.Node
			if err := json.Unmarshal(val, &n); err != nil {
				return fmt.Errorf("unmarshal node: %w", err)
			}
			snap.Nodes = append(snap.Nodes, n)
			return nil
		}); err != nil {
			return err
		}
		return scanPrefix(txn, []byte(prefixEdge), func(val []byte) error {
			var e graph.Edge
			if err := json.Unmarshal(val, &e); err != nil {
				return fmt.Errorf("unmarshal edge: %w", err)
			}
			snap.Edges = append(snap.Edges, e)
			return nil
		})
	})
	return snap, err
}

// History returns a history.Backend that stores the ledger in this database.
func (s *Store) History() *HistoryBackend {
	return &HistoryBackend{db: s.db}
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// HistoryBackend implements history.Backend on top of a single Badger key.
type HistoryBackend struct {
	db *badger.DB
}

// Load implements history.Backend. A missing key loads as an empty ledger.
func (h *HistoryBackend) Load(_ context.Context) ([]history.Entry, error) {
	var entries []history.Entry
	err := h.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyHistory))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get history: %w", err)
		}
		return item.Value(func(val []byte) error {
			var uerr error
			entries, uerr = history.Unmarshal(val)
			return uerr
		})
	})
	return entries, err
}

// Save implements history.Backend.
func (h *HistoryBackend) Save(_ context.Context, entries []history.Entry) error {
	data, err := history.Marshal(entries)
	if err != nil {
		return err
	}
	return h.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyHistory), data)
	})
}

// --- helpers ---

// collectKeys returns copies of all keys with the given prefix.
func collectKeys(txn *badger.Txn, prefix []byte) [][]byte {
	var keys [][]byte
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

// scanPrefix calls fn with the value of every key under prefix, in key order.
func scanPrefix(txn *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.Valid(); it.Next() {
		if err := it.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}
