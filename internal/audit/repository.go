package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// ErrChainBroken is returned by Verify when a record hash or linkage does not match.
var ErrChainBroken = errors.New("audit hash chain broken")

// InMemoryTrail is an append-only, hash-chained in-memory audit trail.
// It implements Sink and Lister. Thread-safe via RWMutex.
type InMemoryTrail struct {
	mu      sync.RWMutex
	records []Record
}

// NewInMemoryTrail creates an empty trail.
func NewInMemoryTrail() *InMemoryTrail {
	return &InMemoryTrail{
		records: make([]Record, 0),
	}
}

// Append records entry at the end of the chain.
func (t *InMemoryTrail) Append(entry Entry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prevHash := ""
	if n := len(t.records); n > 0 {
		prevHash = t.records[n-1].Hash
	}

	rec := Record{
		ID:           uuid.New().String(),
		Sequence:     int64(len(t.records)) + 1,
		Entry:        entry,
		PreviousHash: prevHash,
	}
	rec.Hash = computeHash(rec)

	t.records = append(t.records, rec)
}

// Newest returns up to limit records, newest first (0 = no limit).
func (t *InMemoryTrail) Newest(limit int) []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := len(t.records)
	if limit > 0 && limit < n {
		n = limit
	}

	results := make([]Record, 0, n)
	// Iterate in reverse order (newest first)
	for i := len(t.records) - 1; i >= 0 && len(results) < n; i-- {
		results = append(results, t.records[i])
	}
	return results
}

// All returns a copy of every record in insertion order.
func (t *InMemoryTrail) All() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()

	records := make([]Record, len(t.records))
	copy(records, t.records)
	return records
}

// Len returns the number of recorded entries.
func (t *InMemoryTrail) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// LastHash returns the hash of the newest record, or "" when the trail is empty.
func (t *InMemoryTrail) LastHash() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.records) == 0 {
		return ""
	}
	return t.records[len(t.records)-1].Hash
}

// Verify recomputes every record hash and checks the chain linkage.
// An empty trail is valid.
func (t *InMemoryTrail) Verify() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	prevHash := ""
	for i, rec := range t.records {
		if rec.PreviousHash != prevHash {
			return fmt.Errorf("record %d: previous hash %q != %q: %w", rec.Sequence, rec.PreviousHash, prevHash, ErrChainBroken)
		}
		if want := computeHash(rec); rec.Hash != want {
			return fmt.Errorf("record %d: hash mismatch at index %d: %w", rec.Sequence, i, ErrChainBroken)
		}
		prevHash = rec.Hash
	}
	return nil
}

// computeHash hashes the record contents that must not change after append.
func computeHash(r Record) string {
	h := sha256.New()
	for _, part := range []string{
		strconv.FormatInt(r.Sequence, 10),
		r.Entry.Timestamp,
		string(r.Entry.Severity),
		r.Entry.Message,
		r.PreviousHash,
	} {
		// Length-prefix each field so boundaries are unambiguous
		h.Write([]byte(strconv.Itoa(len(part))))
		h.Write([]byte{':'})
		h.Write([]byte(part))
	}
	return hex.EncodeToString(h.Sum(nil))
}
