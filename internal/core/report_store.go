package core

import (
	"encoding/json"
	"fmt"

	"github.com/EmundoT/pkgguard/internal/types"
)

// Report line kinds.
const (
	ReportKindRecord  = "record"
	ReportKindSummary = "summary"
	ReportKindTrace   = "trace"
)

// ReportLine is one line of the per-run report file. Exactly one payload is set.
type ReportLine struct {
	Kind    string                `json:"kind"`
	RunID   string                `json:"runId"`
	Record  *types.AuditRecord    `json:"record,omitempty"`
	Summary *types.FleetSummary   `json:"summary,omitempty"`
	Trace   *types.MigrationTrace `json:"trace,omitempty"`
}

// ReportStore appends audit records, fleet summaries and migration traces to a JSONL report.
type ReportStore interface {
	AppendRecord(record types.AuditRecord) error
	AppendSummary(summary types.FleetSummary) error
	AppendTrace(trace types.MigrationTrace) error
	Path() string
}

// Compile-time interface satisfaction check.
var _ ReportStore = (*FileReportStore)(nil)

// FileReportStore opens, appends and closes the report file on every write.
type FileReportStore struct {
	path  string
	runID string
}

// NewFileReportStore creates a report store writing to path.
func NewFileReportStore(path, runID string) *FileReportStore {
	return &FileReportStore{path: path, runID: runID}
}

// Path returns the report file path.
func (s *FileReportStore) Path() string { return s.path }

func (s *FileReportStore) AppendRecord(record types.AuditRecord) error {
	return s.append(ReportLine{Kind: ReportKindRecord, Record: &record})
}

func (s *FileReportStore) AppendSummary(summary types.FleetSummary) error {
	return s.append(ReportLine{Kind: ReportKindSummary, Summary: &summary})
}

func (s *FileReportStore) AppendTrace(trace types.MigrationTrace) error {
	return s.append(ReportLine{Kind: ReportKindTrace, Trace: &trace})
}

func (s *FileReportStore) append(line ReportLine) error {
	line.RunID = s.runID
	if err := appendJSONLines(s.path, line); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// ReadReport reads every line of a report file. A missing file yields no lines.
func ReadReport(path string) ([]ReportLine, error) {
	var lines []ReportLine
	err := readJSONLines(path, func(raw []byte) error {
		var l ReportLine
		if err := json.Unmarshal(raw, &l); err != nil {
			return err
		}
		lines = append(lines, l)
		return nil
	})
	return lines, err
}
