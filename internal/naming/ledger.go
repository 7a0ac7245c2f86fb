package naming

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Squareczm/DocumentationTool/internal/common"
	"github.com/Squareczm/DocumentationTool/internal/model"
)

// MemoryLedger is an in-process version ledger. It is safe for concurrent use.
type MemoryLedger struct {
	records map[model.IdentityKey][]model.VersionRecord
	format  model.VersionFormat
	mu      sync.RWMutex
}

// NewMemoryLedger creates an empty ledger that only accepts versions in format.
func NewMemoryLedger(format model.VersionFormat) *MemoryLedger {
	return &MemoryLedger{
		records: make(map[model.IdentityKey][]model.VersionRecord),
		format:  format,
	}
}

// Latest returns the newest version recorded for key, or nil.
func (l *MemoryLedger) Latest(_ context.Context, key model.IdentityKey) (*model.Version, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	recs := l.records[key]
	if len(recs) == 0 {
		return nil, nil
	}
	v := recs[len(recs)-1].Version
	if v.Format() != l.format {
		return nil, fmt.Errorf("%w: %s has %s, configured %s", common.ErrVersionFormatMismatch, key, v, l.format)
	}
	return &v, nil
}

// Record appends record. The version must be in the ledger's format and must
// advance past the latest one for the same key.
func (l *MemoryLedger) Record(_ context.Context, record model.VersionRecord) error {
	if record.Version.Format() != l.format {
		return fmt.Errorf("%w: %s is not %s", common.ErrVersionFormatMismatch, record.Version, l.format)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	recs := l.records[record.Key]
	if n := len(recs); n > 0 && !recs[n-1].Version.Less(record.Version) {
		return fmt.Errorf("%w: %s after %s for %s", common.ErrVersionRegression, record.Version, recs[n-1].Version, record.Key)
	}
	l.records[record.Key] = append(recs, record)
	return nil
}

// History lists records whose subject equals subject, or all records when
// subject is empty, oldest first. An unknown subject returns
// common.ErrNotFound.
func (l *MemoryLedger) History(_ context.Context, subject string) ([]model.VersionRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.VersionRecord
	for key, recs := range l.records {
		if subject != "" && key.Subject != subject {
			continue
		}
		out = append(out, recs...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.Before(out[j].RecordedAt)
		}
		if out[i].Key != out[j].Key {
			return out[i].Key.String() < out[j].Key.String()
		}
		return out[i].Version.Less(out[j].Version)
	})
	if subject != "" && len(out) == 0 {
		return nil, fmt.Errorf("%w: no versions for subject %q", common.ErrNotFound, subject)
	}
	return out, nil
}
