package core

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/EmundoT/pkgguard/internal/types"
)

// DefaultAuditLogName is used by the hook when PKGGUARD_AUDIT_LOG is unset.
const DefaultAuditLogName = "pkgguard-audit.jsonl"

// maxJSONLLine bounds a single JSONL record when reading logs and reports back.
const maxJSONLLine = 1 << 20

// AuditLogWriter is the append-only sink for script policy entries.
//
//go:generate mockgen -source=audit_log.go -destination=audit_log_mock_test.go -package=core
type AuditLogWriter interface {
	Append(entries ...types.AuditLogEntry) error
	Path() string
}

// FileAuditLog appends entries to a JSONL file. The file is opened, appended
// and closed on every call so concurrent hook processes never interleave a
// record and a crash leaves a valid prefix.
type FileAuditLog struct {
	path string
}

// NewFileAuditLog creates a FileAuditLog for path. The file is created on first write.
func NewFileAuditLog(path string) *FileAuditLog {
	return &FileAuditLog{path: path}
}

// Path returns the log file path.
func (l *FileAuditLog) Path() string {
	return l.path
}

// Append writes entries as one JSON object per line.
func (l *FileAuditLog) Append(entries ...types.AuditLogEntry) error {
	values := make([]any, len(entries))
	for i := range entries {
		values[i] = entries[i]
	}
	return appendJSONLines(l.path, values...)
}

// ReadAuditLog reads every entry of a JSONL audit log. A missing file yields no entries.
func ReadAuditLog(path string) ([]types.AuditLogEntry, error) {
	var entries []types.AuditLogEntry
	err := readJSONLines(path, func(line []byte) error {
		var e types.AuditLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return err
		}
		entries = append(entries, e)
		return nil
	})
	return entries, err
}

// FilterRun returns the entries belonging to runID.
func FilterRun(entries []types.AuditLogEntry, runID string) []types.AuditLogEntry {
	var out []types.AuditLogEntry
	for _, e := range entries {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out
}

// appendJSONLines encodes values and appends them to path with a single write.
func appendJSONLines(path string, values ...any) error {
	if len(values) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, v := range values {
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return f.Close()
}

// readJSONLines calls fn for every non-empty line of path.
func readJSONLines(path string, fn func(line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLLine)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	return scanner.Err()
}
