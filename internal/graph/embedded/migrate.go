package embedded

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/imyousuf/waypoint/internal/history"
)

// MigrateResult holds statistics about a legacy history migration.
type MigrateResult struct {
	EntriesScanned  int
	EntriesMigrated int
	EntriesSkipped  int
	Duplicates      int
}

// legacyEntry is one element of the browser tool's saved `pathHistory`
// array: numeric millisecond ids and ISO-8601 timestamps.
type legacyEntry struct {
	ID        json.RawMessage `json:"id"`
	Timestamp string          `json:"timestamp"`
	Start     string          `json:"start"`
	End       string          `json:"end"`
	Path      []string        `json:"path"`
	Distance  float64         `json:"distance"`
}

// MigrateLegacyHistory merges a path history exported by the browser tool
// into the stored ledger. Entries whose id is already present are skipped,
// as are entries without endpoints or with an unparseable timestamp. The
// merged ledger is ordered most recent first.
//
// If dryRun is true, no writes are performed and only the result stats are
// returned.
func (s *Store) MigrateLegacyHistory(ctx context.Context, r io.Reader, dryRun bool) (*MigrateResult, error) {
	var legacy []legacyEntry
	if err := json.NewDecoder(r).Decode(&legacy); err != nil {
		return nil, fmt.Errorf("decode legacy history: %w", err)
	}

	backend := s.History()
	existing, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[e.ID] = struct{}{}
	}

	result := &MigrateResult{}
	merged := append([]history.Entry{}, existing...)
	for _, le := range legacy {
		result.EntriesScanned++
		e, ok := convertLegacy(le)
		if !ok {
			result.EntriesSkipped++
			continue
		}
		if _, dup := seen[e.ID]; dup {
			result.Duplicates++
			continue
		}
		seen[e.ID] = struct{}{}
		merged = append(merged, e)
		result.EntriesMigrated++
	}

	if dryRun || result.EntriesMigrated == 0 {
		return result, nil
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	if err := backend.Save(ctx, merged); err != nil {
		return result, fmt.Errorf("save history: %w", err)
	}
	return result, nil
}

func convertLegacy(le legacyEntry) (history.Entry, bool) {
	id := legacyID(le.ID)
	if id == "" || le.Start == "" || le.End == "" {
		return history.Entry{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, le.Timestamp)
	if err != nil {
		return history.Entry{}, false
	}
	path := le.Path
	if path == nil {
		path = []string{}
	}
	return history.Entry{
		ID:        id,
		CreatedAt: ts.UTC().Truncate(time.Millisecond),
		Start:     le.Start,
		End:       le.End,
		Path:      path,
		Distance:  le.Distance,
	}, true
}

// legacyID turns a numeric or string id into a ledger id. Numeric ids get a
// "legacy-" prefix so they cannot collide with generated UUIDs.
func legacyID(raw json.RawMessage) string {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n != "" {
		return "legacy-" + n.String()
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return ""
}
