package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/imyousuf/waypoint/internal/graph"
)

// failingBackend fails every call with err.
type failingBackend struct {
	err   error
	saves int
}

func (f *failingBackend) Load(context.Context) ([]Entry, error) { return nil, f.err }
func (f *failingBackend) Save(context.Context, []Entry) error {
	f.saves++
	return f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOptions() Options {
	clock := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.FixedZone("CET", 3600))
	n := 0
	return Options{
		Logger: quietLogger(),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			n++
			return fmt.Sprintf("entry-%d", n)
		},
	}
}

func TestRecordPrependsAndPersists(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	l := Open(ctx, backend, testOptions())

	first := l.Record(ctx, "Paris", "Prague", []string{"Paris", "Berlin", "Prague"}, 1158)
	second := l.Record(ctx, "Rome", "Rome", []string{"Rome"}, 0)

	if first.ID == second.ID {
		t.Fatalf("duplicate ids %q", first.ID)
	}
	entries := l.Entries()
	if len(entries) != 2 || entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Fatalf("entries = %+v, want most recent first", entries)
	}
	if loc := first.CreatedAt.Location(); loc != time.UTC {
		t.Errorf("CreatedAt location = %v, want UTC", loc)
	}
	if first.CreatedAt.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("CreatedAt = %v, want millisecond precision", first.CreatedAt)
	}

	reloaded := Open(ctx, backend, testOptions())
	if diff := cmp.Diff(entries, reloaded.Entries()); diff != "" {
		t.Errorf("reloaded entries (-want +got):\n%s", diff)
	}
}

func TestRecordCopiesPath(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, NewMemoryBackend(), testOptions())

	path := []string{"A", "B"}
	e := l.Record(ctx, "A", "B", path, 1)
	path[0] = "mutated"
	e.Path[1] = "mutated"

	got, _ := l.Get(e.ID)
	if !cmp.Equal(got.Path, []string{"A", "B"}) {
		t.Errorf("stored path = %v, want [A B]", got.Path)
	}
}

func TestRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	l := Open(ctx, backend, testOptions())

	var ids []string
	for i := 0; i < 5; i++ {
		ids = append(ids, l.Record(ctx, "A", "B", []string{"A", "B"}, float64(i)).ID)
	}

	if !l.Remove(ctx, ids[2]) {
		t.Fatalf("Remove(%s) = false", ids[2])
	}
	if l.Remove(ctx, ids[2]) {
		t.Errorf("second Remove(%s) = true", ids[2])
	}
	if _, ok := l.Get(ids[2]); ok {
		t.Error("removed entry still present")
	}
	if l.Len() != 4 {
		t.Errorf("Len = %d, want 4", l.Len())
	}

	l.Clear(ctx)
	if l.Len() != 0 {
		t.Errorf("Len after Clear = %d", l.Len())
	}
	if got := string(backend.Bytes()); got != "[]" {
		t.Errorf("persisted after Clear = %s, want []", got)
	}
	if reloaded := Open(ctx, backend, testOptions()); reloaded.Len() != 0 {
		t.Errorf("reloaded Len = %d, want 0", reloaded.Len())
	}
}

func TestReplay(t *testing.T) {
	ctx := context.Background()
	l := Open(ctx, NewMemoryBackend(), testOptions())

	store := graph.NewStore()
	store.LoadSample()
	e := l.Record(ctx, "Paris", "Prague", []string{"Paris", "Berlin", "Prague"}, 1158)

	path, err := l.Replay(e.ID, store.Snapshot())
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !cmp.Equal(path, e.Path) {
		t.Errorf("path = %v, want %v", path, e.Path)
	}

	// Intermediate nodes are not re-validated.
	store.RemoveNode("Berlin")
	if _, err := l.Replay(e.ID, store.Snapshot()); err != nil {
		t.Errorf("Replay without intermediate node: %v", err)
	}

	store.RemoveNode("Prague")
	if _, err := l.Replay(e.ID, store.Snapshot()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Replay without endpoint: err = %v, want ErrUnavailable", err)
	}
	if _, err := l.Replay("nope", store.Snapshot()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Replay unknown id: err = %v, want ErrUnavailable", err)
	}
}

func TestOpenCorruptDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	backend.SetBytes([]byte(`{"not": "an array"`))

	l := Open(ctx, backend, testOptions())
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
	if !errors.Is(l.LastError(), ErrPersistence) {
		t.Errorf("LastError = %v, want ErrPersistence", l.LastError())
	}

	// The ledger still works and overwrites the corrupt data.
	l.Record(ctx, "A", "B", []string{"A", "B"}, 1)
	if l.Unsaved() {
		t.Error("Unsaved = true after successful save")
	}
	if reloaded := Open(ctx, backend, testOptions()); reloaded.Len() != 1 {
		t.Errorf("reloaded Len = %d, want 1", reloaded.Len())
	}
}

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{err: errors.New("disk full")}

	l := Open(ctx, backend, testOptions())
	e := l.Record(ctx, "A", "B", []string{"A", "B"}, 2)

	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}
	if e.ID == "" {
		t.Error("entry has no id")
	}
	if !l.Unsaved() {
		t.Error("Unsaved = false after failed save")
	}
	if !errors.Is(l.LastError(), ErrPersistence) {
		t.Errorf("LastError = %v, want ErrPersistence", l.LastError())
	}
	if backend.saves != 1 {
		t.Errorf("saves = %d, want 1", backend.saves)
	}
}

func TestMaxEntries(t *testing.T) {
	ctx := context.Background()
	opts := testOptions()
	opts.MaxEntries = 2
	l := Open(ctx, NewMemoryBackend(), opts)

	l.Record(ctx, "A", "B", nil, 1)
	b := l.Record(ctx, "B", "C", nil, 2)
	c := l.Record(ctx, "C", "D", nil, 3)

	entries := l.Entries()
	if len(entries) != 2 || entries[0].ID != c.ID || entries[1].ID != b.ID {
		t.Errorf("entries = %+v, want the two most recent", entries)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	created := time.Date(2026, 10, 17, 8, 30, 0, 250_000_000, time.UTC)
	entries := []Entry{
		{ID: "b", CreatedAt: created.Add(time.Minute), Start: "X", End: "Y", Path: []string{"X", "Y"}, Distance: 2.5},
		{ID: "a", CreatedAt: created, Start: "Paris", End: "Paris", Path: []string{"Paris"}, Distance: 0},
	}

	data, err := Marshal(entries)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(entries, got); diff != "" {
		t.Errorf("round trip (-want +got):\n%s", diff)
	}
}

func TestUnmarshalNormalizesTimestamps(t *testing.T) {
	data := []byte(`[
		{"id":"1","timestamp":"2026-10-17T10:30:00.123+02:00","start":"A","end":"B","path":["A","B"],"distance":3},
		{"timestamp":"2026-10-17T10:30:00Z","start":"A","end":"B","path":["A","B"],"distance":3}
	]`)
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("entries = %d, want 1 (entry without id dropped)", len(got))
	}
	want := time.Date(2026, 10, 17, 8, 30, 0, 123_000_000, time.UTC)
	if !got[0].CreatedAt.Equal(want) || got[0].CreatedAt.Location() != time.UTC {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, want)
	}
}
