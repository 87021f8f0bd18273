// Package history keeps the ledger of completed shortest-path queries,
// most recent first, and persists it through a Backend after every change.
//
// Persistence is best effort: a backend that cannot be read yields an empty
// ledger, and a failed save is logged while the ledger keeps working in
// memory. Unsaved reports whether the latest state reached the backend.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/imyousuf/waypoint/internal/graph"
)

var (
	// ErrUnavailable is returned by Replay when the entry is unknown or one
	// of its endpoints is no longer part of the graph.
	ErrUnavailable = errors.New("history entry unavailable")

	// ErrPersistence wraps backend read and write failures.
	ErrPersistence = errors.New("history persistence failed")
)

// Backend stores the whole entry collection under a single logical key.
type Backend interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

// Options tunes a Ledger.
type Options struct {
	// MaxEntries caps the ledger size; the oldest entries are dropped first.
	// Zero means unlimited.
	MaxEntries int
	// Logger receives persistence warnings. Defaults to slog.Default().
	Logger *slog.Logger
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// NewID returns a fresh entry id. Defaults to random UUIDs.
	NewID func() string
}

// Ledger is the ordered collection of history entries. It is not safe for
// concurrent use.
type Ledger struct {
	backend Backend
	opts    Options
	entries []Entry
	unsaved bool
	lastErr error
}

// Open loads the ledger from backend. Load failures and corrupt data are
// logged and produce an empty ledger; Open never fails.
func Open(ctx context.Context, backend Backend, opts Options) *Ledger {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}

	l := &Ledger{backend: backend, opts: opts}
	entries, err := backend.Load(ctx)
	if err != nil {
		l.lastErr = fmt.Errorf("%w: %v", ErrPersistence, err)
		opts.Logger.Warn("history could not be loaded; starting empty", "error", err)
		return l
	}
	l.entries = entries
	l.trim()
	opts.Logger.Debug("history loaded", "entries", len(l.entries))
	return l
}

// Record prepends a new entry for a successful query and persists the
// ledger.
func (l *Ledger) Record(ctx context.Context, start, end string, path []string, distance float64) Entry {
	e := Entry{
		ID:        l.opts.NewID(),
		CreatedAt: normalizeTime(l.opts.Now()),
		Start:     start,
		End:       end,
		Path:      append([]string{}, path...),
		Distance:  distance,
	}
	l.entries = append([]Entry{e}, l.entries...)
	l.trim()
	l.persist(ctx)
	return e.clone()
}

// Remove deletes the entry with the given id and persists the ledger. It
// reports whether an entry was removed.
func (l *Ledger) Remove(ctx context.Context, id string) bool {
	for i, e := range l.entries {
		if e.ID == id {
			l.entries = append(l.entries[:i], l.entries[i+1:]...)
			l.persist(ctx)
			return true
		}
	}
	return false
}

// Clear removes every entry and persists the empty ledger.
func (l *Ledger) Clear(ctx context.Context) {
	l.entries = nil
	l.persist(ctx)
}

// Entries returns a copy of all entries, most recent first.
func (l *Ledger) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.clone()
	}
	return out
}

// Get returns a copy of the entry with the given id.
func (l *Ledger) Get(id string) (Entry, bool) {
	for _, e := range l.entries {
		if e.ID == id {
			return e.clone(), true
		}
	}
	return Entry{}, false
}

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Replay returns the stored path of an entry if both of its endpoints still
// exist in snap. Intermediate nodes are not checked.
func (l *Ledger) Replay(id string, snap graph.Snapshot) ([]string, error) {
	e, ok := l.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: no entry %q", ErrUnavailable, id)
	}
	if !snap.HasNode(e.Start) || !snap.HasNode(e.End) {
		return nil, fmt.Errorf("%w: endpoints %s and %s are no longer both in the graph", ErrUnavailable, e.Start, e.End)
	}
	return e.Path, nil
}

// Unsaved reports whether the most recent change failed to persist.
func (l *Ledger) Unsaved() bool { return l.unsaved }

// LastError returns the most recent persistence error, if any.
func (l *Ledger) LastError() error { return l.lastErr }

func (l *Ledger) trim() {
	if l.opts.MaxEntries > 0 && len(l.entries) > l.opts.MaxEntries {
		l.entries = l.entries[:l.opts.MaxEntries]
	}
}

func (l *Ledger) persist(ctx context.Context) {
	if err := l.backend.Save(ctx, l.Entries()); err != nil {
		l.unsaved = true
		l.lastErr = fmt.Errorf("%w: %v", ErrPersistence, err)
		l.opts.Logger.Warn("history not saved; continuing in memory", "error", err, "entries", len(l.entries))
		return
	}
	l.unsaved = false
	l.lastErr = nil
}
