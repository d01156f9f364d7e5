package secure

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Audit log bounds: once the log grows past DefaultCapacity entries the
// oldest are evicted down to DefaultRetain.
const (
	DefaultCapacity = 1000
	DefaultRetain   = 500
)

// OperationResult is filled in when an operation completes.
type OperationResult struct {
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	AffectedBlocks int    `json:"affected_blocks"`
	ChangeCount    int    `json:"change_count"`
}

// Operation is one append-only audit record. It is created when an
// operation starts and its Result is mutated on completion; records are
// never deleted except by retention eviction.
type Operation struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	DocumentID string            `json:"document_id"`
	UserID     string            `json:"user_id"`
	Timestamp  time.Time         `json:"timestamp"`
	Details    map[string]string `json:"details,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Result     OperationResult   `json:"result"`
}

// AuditLog is a bounded, append-only, in-memory operation log. It is
// explicitly constructed and injected — no process-wide singleton.
type AuditLog struct {
	mu       sync.Mutex
	ops      []*Operation
	capacity int
	retain   int
}

// NewAuditLog builds a log with the given bounds; non-positive values fall
// back to the defaults.
func NewAuditLog(capacity, retain int) *AuditLog {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if retain <= 0 || retain > capacity {
		retain = DefaultRetain
		if retain > capacity {
			retain = capacity
		}
	}
	return &AuditLog{capacity: capacity, retain: retain}
}

// Begin appends a new in-progress record and returns it for later
// completion.
func (l *AuditLog) Begin(opType, documentID, userID string, details map[string]string) *Operation {
	op := &Operation{
		ID:         uuid.NewString(),
		Type:       opType,
		DocumentID: documentID,
		UserID:     userID,
		Timestamp:  time.Now(),
		Details:    details,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.ops = append(l.ops, op)
	if len(l.ops) > l.capacity {
		// Evict oldest entries, keeping the most recent `retain`.
		kept := make([]*Operation, l.retain)
		copy(kept, l.ops[len(l.ops)-l.retain:])
		l.ops = kept
	}
	return op
}

// Complete records the outcome of a previously begun operation.
func (l *AuditLog) Complete(op *Operation, res OperationResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	op.Result = res
}

// SetMetadata attaches extra key/value context to an operation.
func (l *AuditLog) SetMetadata(op *Operation, meta map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	op.Metadata = meta
}

// Len reports how many records the log currently holds.
func (l *AuditLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ops)
}

// History returns copies of matching records, newest first. Empty
// documentID or userID match everything; limit <= 0 means no limit.
func (l *AuditLog) History(documentID, userID string, limit int) []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Operation
	for i := len(l.ops) - 1; i >= 0; i-- {
		op := l.ops[i]
		if documentID != "" && op.DocumentID != documentID {
			continue
		}
		if userID != "" && op.UserID != userID {
			continue
		}
		out = append(out, *op)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
