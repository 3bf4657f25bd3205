package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"moltcast/internal/fileutil"
	"moltcast/internal/services"
)

// Ledger maps post ids to the episode number that covered them.
type Ledger struct {
	path    string
	entries map[string]int
}

// Load reads the ledger at path. An absent or whitespace-only file yields an
// empty ledger bound to path.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Ledger{path: path, entries: map[string]int{}}, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	entries, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return &Ledger{path: path, entries: entries}, nil
}

// New returns an empty ledger bound to path without touching the filesystem.
func New(path string) *Ledger {
	return &Ledger{path: path, entries: map[string]int{}}
}

// Parse decodes ledger JSON. Whitespace-only input is an empty ledger; every
// value must be a positive episode number.
func Parse(data []byte) (map[string]int, error) {
	entries := map[string]int{}
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, services.Wrap(services.ErrValidation, "ledger", "parse", "malformed ledger JSON", err)
	}
	for id, value := range raw {
		if strings.TrimSpace(id) == "" {
			return nil, services.Wrap(services.ErrValidation, "ledger", "parse", "empty post id", nil)
		}
		n, err := strconv.ParseInt(string(bytes.TrimSpace(value)), 10, 32)
		if err != nil || n <= 0 {
			return nil, services.Wrap(services.ErrValidation, "ledger", "parse",
				fmt.Sprintf("post %q has invalid episode number %s", id, value), nil)
		}
		entries[id] = int(n)
	}
	return entries, nil
}

// Encode renders entries as indented JSON with keys in sorted order.
func Encode(entries map[string]int) ([]byte, error) {
	if entries == nil {
		entries = map[string]int{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode ledger: %w", err)
	}
	return append(data, '\n'), nil
}

// Path returns the backing file location.
func (l *Ledger) Path() string { return l.path }

// IsCovered reports whether id has been confirmed by any episode.
func (l *Ledger) IsCovered(id string) bool {
	_, ok := l.entries[id]
	return ok
}

// Owner returns the episode that covered id.
func (l *Ledger) Owner(id string) (int, bool) {
	n, ok := l.entries[id]
	return n, ok
}

// Covered returns the subset of ids present in the ledger, in input order.
func (l *Ledger) Covered(ids []string) []string {
	var out []string
	for _, id := range ids {
		if l.IsCovered(id) {
			out = append(out, id)
		}
	}
	return out
}

// AllCovered reports whether every id is covered. An empty list is never covered.
func (l *Ledger) AllCovered(ids []string) bool {
	if len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if !l.IsCovered(id) {
			return false
		}
	}
	return true
}

// Entries returns a copy of the mapping.
func (l *Ledger) Entries() map[string]int {
	out := make(map[string]int, len(l.entries))
	for id, n := range l.entries {
		out[id] = n
	}
	return out
}

// IDs returns the covered post ids in sorted order.
func (l *Ledger) IDs() []string {
	ids := make([]string, 0, len(l.entries))
	for id := range l.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of covered posts.
func (l *Ledger) Len() int { return len(l.entries) }

// MarkCovered records episode as the owner of every id and persists the
// ledger. Re-marking overwrites the previous owner.
func (l *Ledger) MarkCovered(episode int, ids []string) error {
	if episode <= 0 {
		return services.Wrap(services.ErrValidation, "ledger", "mark covered", fmt.Sprintf("invalid episode number %d", episode), nil)
	}
	next := l.Entries()
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return services.Wrap(services.ErrValidation, "ledger", "mark covered", "empty post id", nil)
		}
		next[id] = episode
	}
	return l.commit(next)
}

// Unmark removes ids from the ledger and persists it. Missing ids are ignored.
func (l *Ledger) Unmark(ids []string) error {
	next := l.Entries()
	for _, id := range ids {
		delete(next, id)
	}
	return l.commit(next)
}

// commit writes next to disk and only then replaces the in-memory state, so a
// failed write leaves the ledger value consistent with the file.
func (l *Ledger) commit(next map[string]int) error {
	data, err := Encode(next)
	if err != nil {
		return err
	}
	if l.path == "" {
		return errors.New("ledger has no backing path")
	}
	if err := fileutil.WriteFileAtomic(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	l.entries = next
	return nil
}
