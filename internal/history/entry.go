package history

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one recorded shortest-path query. Entries are never modified
// after creation and hold copies of node ids, not references into a graph.
type Entry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"timestamp"`
	Start     string    `json:"start"`
	End       string    `json:"end"`
	Path      []string  `json:"path"`
	Distance  float64   `json:"distance"`
}

// clone returns a deep copy of the entry.
func (e Entry) clone() Entry {
	e.Path = append([]string(nil), e.Path...)
	return e
}

// normalizeTime puts a timestamp in the form that survives a round trip
// through the stored representation unchanged.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// Marshal serializes entries (most recent first) into the stored
// representation: a JSON array with RFC 3339 UTC timestamps.
func Marshal(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("marshal history: %w", err)
	}
	return data, nil
}

// Unmarshal parses the stored representation. Entries without an id are
// dropped; timestamps are normalized to UTC.
func Unmarshal(data []byte) ([]Entry, error) {
	var raw []Entry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		if e.ID == "" {
			continue
		}
		e.CreatedAt = normalizeTime(e.CreatedAt)
		if e.Path == nil {
			e.Path = []string{}
		}
		entries = append(entries, e)
	}
	return entries, nil
}
