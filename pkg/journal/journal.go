package journal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultCapacity is the number of entries kept when none is given
const DefaultCapacity = 256

// Journal is a bounded, in-memory record of what happened to the layout
// during a session. Once full, the oldest entries are dropped.
type Journal struct {
	entries  []*Entry
	capacity int
	now      func() time.Time
}

// New creates a journal holding at most capacity entries
func New(capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{
		entries:  make([]*Entry, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Append adds an entry stamped with the current time
func (j *Journal) Append(kind Kind, added, nodes, edges int, message string) *Entry {
	entry := &Entry{
		Timestamp: j.now(),
		Kind:      kind,
		Added:     added,
		Nodes:     nodes,
		Edges:     edges,
		Message:   message,
	}
	j.add(entry)
	return entry
}

func (j *Journal) add(entry *Entry) {
	if len(j.entries) == j.capacity {
		copy(j.entries, j.entries[1:])
		j.entries = j.entries[:len(j.entries)-1]
	}
	j.entries = append(j.entries, entry)
}

// Len returns the number of entries
func (j *Journal) Len() int {
	return len(j.entries)
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (j *Journal) Recent(n int) []*Entry {
	if n <= 0 || n > len(j.entries) {
		n = len(j.entries)
	}

	out := make([]*Entry, 0, n)
	for i := len(j.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, j.entries[i])
	}
	return out
}

// Last returns the newest entry of the given kind
func (j *Journal) Last(kind Kind) (*Entry, bool) {
	for i := len(j.entries) - 1; i >= 0; i-- {
		if j.entries[i].Kind == kind {
			return j.entries[i], true
		}
	}
	return nil, false
}

// Clear removes all entries
func (j *Journal) Clear() {
	j.entries = j.entries[:0]
}

// Expire removes entries older than maxAge
func (j *Journal) Expire(maxAge time.Duration) {
	cutoff := j.now().Add(-maxAge)

	kept := j.entries[:0]
	for _, entry := range j.entries {
		if entry.Timestamp.After(cutoff) {
			kept = append(kept, entry)
		}
	}
	j.entries = kept
}

// WriteTo writes every entry, oldest first, one line each
func (j *Journal) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, entry := range j.entries {
		n, err := io.WriteString(w, FormatLine(entry)+"\n")
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("write journal entry: %w", err)
		}
	}
	return total, nil
}

// Save writes the journal to path, replacing any previous content
func (j *Journal) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create journal file: %w", err)
	}
	defer file.Close()

	if _, err := j.WriteTo(file); err != nil {
		return err
	}
	return nil
}

// Load reads a saved journal and returns its entries newest first.
// Malformed lines are skipped.
func Load(path string) ([]*Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}
	defer file.Close()

	var entries []*Entry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		entry, err := ParseLine(scanner.Text())
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal file: %w", err)
	}

	// Reverse to show newest first
	for i, k := 0, len(entries)-1; i < k; i, k = i+1, k-1 {
		entries[i], entries[k] = entries[k], entries[i]
	}
	return entries, nil
}

// FormatLine renders an entry as
// <unix-millis> <kind> <added> <nodes> <edges>\t<message>
func FormatLine(entry *Entry) string {
	return fmt.Sprintf("%d %s %d %d %d\t%s",
		entry.Timestamp.UnixMilli(),
		entry.Kind,
		entry.Added,
		entry.Nodes,
		entry.Edges,
		strings.ReplaceAll(entry.Message, "\n", " "),
	)
}

// ParseLine parses a line written by FormatLine
func ParseLine(line string) (*Entry, error) {
	parts := strings.SplitN(line, "\t", 2)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid journal line format")
	}

	fields := strings.Fields(parts[0])
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid metadata format")
	}

	millis, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}

	kind, ok := ParseKind(fields[1])
	if !ok {
		return nil, fmt.Errorf("invalid kind %q", fields[1])
	}

	counts := make([]int, 3)
	for i := range counts {
		n, err := strconv.Atoi(fields[i+2])
		if err != nil {
			return nil, fmt.Errorf("invalid count: %w", err)
		}
		counts[i] = n
	}

	return &Entry{
		Timestamp: time.UnixMilli(millis),
		Kind:      kind,
		Added:     counts[0],
		Nodes:     counts[1],
		Edges:     counts[2],
		Message:   parts[1],
	}, nil
}
