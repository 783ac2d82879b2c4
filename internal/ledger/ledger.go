// File path: internal/ledger/ledger.go
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/raglinehq/ragline/internal/common"
)

// Status tracks where a generated statement sits in the approval flow.
// Pending entries move to approved or rejected exactly once.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

var (
	ErrNotFound     = errors.New("ledger: entry not found")
	ErrInvalidState = errors.New("ledger: entry is not pending")
)

// Entry is a generated statement awaiting a human decision. Fingerprint is
// the hex digest of the originating question so an approved entry can be
// executed against the same cache slot the generation used.
type Entry struct {
	ID          string    `json:"id"`
	Question    string    `json:"question"`
	Statement   string    `json:"statement"`
	Explanation string    `json:"explanation"`
	Fingerprint string    `json:"fingerprint"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	DecidedAt   *time.Time `json:"decided_at,omitempty"`
}

// Ledger is an in-process approval queue. Entries do not survive a restart.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func New() *Ledger {
	return &Ledger{entries: make(map[string]*Entry)}
}

// Create registers a pending entry and returns its generated ID.
func (l *Ledger) Create(question, statement, explanation, fingerprint string) *Entry {
	entry := &Entry{
		ID:          uuid.NewString(),
		Question:    question,
		Statement:   statement,
		Explanation: explanation,
		Fingerprint: fingerprint,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	l.mu.Lock()
	l.entries[entry.ID] = entry
	l.mu.Unlock()
	common.Logger().Info("ledger entry created", "id", entry.ID, "fingerprint", fingerprint)
	return entry
}

// Get returns a copy of the entry so callers cannot mutate ledger state.
func (l *Ledger) Get(id string) (Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *entry, nil
}

// Approve moves a pending entry to approved. Decisions are irreversible.
func (l *Ledger) Approve(id string) (Entry, error) {
	return l.decide(id, StatusApproved)
}

// Reject moves a pending entry to rejected. Decisions are irreversible.
func (l *Ledger) Reject(id string) (Entry, error) {
	return l.decide(id, StatusRejected)
}

func (l *Ledger) decide(id string, next Status) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if entry.Status != StatusPending {
		return *entry, fmt.Errorf("%w: %s is already %s", ErrInvalidState, id, entry.Status)
	}
	entry.Status = next
	decided := time.Now().UTC()
	entry.DecidedAt = &decided
	common.Logger().Info("ledger entry decided", "id", id, "status", next)
	return *entry, nil
}

// Pending lists pending entries, oldest first.
func (l *Ledger) Pending() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, 0, len(l.entries))
	for _, entry := range l.entries {
		if entry.Status == StatusPending {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
