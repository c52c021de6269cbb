package core

import (
	"errors"
	"time"

	"github.com/EmundoT/pkgguard/internal/types"
)

// ============================================================================
// Common Test Helpers
// ============================================================================

// stepClock returns base, base+1s, base+2s, ...
type stepClock struct {
	base time.Time
	n    int
}

func newStepClock() *stepClock {
	return &stepClock{base: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	t := c.base.Add(time.Duration(c.n) * time.Second)
	c.n++
	return t
}

// memoryAuditLog collects appended entries; failWith makes Append fail.
type memoryAuditLog struct {
	entries  []types.AuditLogEntry
	appends  int
	failWith error
}

func (m *memoryAuditLog) Append(entries ...types.AuditLogEntry) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.appends++
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memoryAuditLog) Path() string { return "memory" }

var errDiskFull = errors.New("no space left on device")

// countActions tallies entries by action.
func countActions(entries []types.AuditLogEntry) map[types.AuditAction]int {
	counts := make(map[types.AuditAction]int)
	for _, e := range entries {
		counts[e.Action]++
	}
	return counts
}

func pkgWithScripts(name string, scripts map[string]string) types.PackageDescriptor {
	return types.PackageDescriptor{
		Name:         name,
		Version:      "1.0.0",
		Scripts:      scripts,
		Dependencies: map[string]string{"left-pad": "^1.3.0"},
	}
}
