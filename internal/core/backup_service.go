package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/EmundoT/pkgguard/internal/manifest"
)

// Snapshot file names inside a backup directory.
const (
	BackupIndexFile     = "pkgguard-backup.json"
	ScriptsSnapshotFile = "package.scripts.json"
)

// SnapshotLockFiles are copied into the backup before Cleanup deletes them.
var SnapshotLockFiles = []string{PackageLockFile, ShrinkwrapFile, YarnLockFile, PnpmLockFile}

// BackupIndex describes one snapshot. It is written last, so a directory
// without an index holds no usable snapshot.
type BackupIndex struct {
	RepoDir   string    `json:"repoDir"`
	CreatedAt time.Time `json:"createdAt"`
	Files     []string  `json:"files"`
	Scripts   bool      `json:"scripts"` // package.scripts.json holds the manifest "scripts" object
}

// BackupServiceInterface takes and restores the pre-cleanup snapshot of a repository.
type BackupServiceInterface interface {
	Snapshot(repoDir, backupDir string) (BackupIndex, error)
	Restore(backupDir, repoDir string) ([]string, error)
}

// Compile-time interface satisfaction check.
var _ BackupServiceInterface = (*BackupService)(nil)

// BackupService copies lock files and the manifest scripts into a per-run
// backup directory. It is the only rollback mechanism: nothing restores
// automatically.
type BackupService struct {
	fs    FileSystem
	clock Clock
}

// NewBackupService creates a new BackupService
func NewBackupService(fs FileSystem, clock Clock) *BackupService {
	if clock == nil {
		clock = NewMonotonicClock()
	}
	return &BackupService{fs: fs, clock: clock}
}

// Snapshot copies every present lock file and the "scripts" object of
// package.json into backupDir, then writes the index.
func (s *BackupService) Snapshot(repoDir, backupDir string) (BackupIndex, error) {
	index := BackupIndex{RepoDir: repoDir, CreatedAt: s.clock.Now(), Files: []string{}}

	if err := s.fs.MkdirAll(backupDir, 0755); err != nil {
		return index, fmt.Errorf("create backup dir: %w", err)
	}

	for _, name := range SnapshotLockFiles {
		src := filepath.Join(repoDir, name)
		if _, err := s.fs.Stat(src); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return index, fmt.Errorf("snapshot %s: %w", name, err)
		}
		if _, err := s.fs.CopyFile(src, filepath.Join(backupDir, name)); err != nil {
			return index, fmt.Errorf("snapshot %s: %w", name, err)
		}
		index.Files = append(index.Files, name)
	}

	doc, err := manifest.Load(filepath.Join(repoDir, manifest.FileName))
	switch {
	case err == nil:
		if raw, ok := doc.Get(manifest.KeyScripts); ok {
			if err := s.fs.WriteFile(filepath.Join(backupDir, ScriptsSnapshotFile), append(raw, '\n')); err != nil {
				return index, fmt.Errorf("snapshot scripts: %w", err)
			}
			index.Scripts = true
		}
	case !errors.Is(err, os.ErrNotExist):
		return index, fmt.Errorf("snapshot scripts: %w", err)
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return index, err
	}
	if err := s.fs.WriteFile(filepath.Join(backupDir, BackupIndexFile), append(data, '\n')); err != nil {
		return index, fmt.Errorf("write backup index: %w", err)
	}
	return index, nil
}

// Restore copies the snapshot in backupDir back into repoDir and returns the
// restored file names. Files created after the snapshot are left in place.
func (s *BackupService) Restore(backupDir, repoDir string) ([]string, error) {
	index, err := ReadBackupIndex(backupDir)
	if err != nil {
		return nil, err
	}

	var restored []string
	for _, name := range index.Files {
		if err := ValidateDestPath(name); err != nil {
			return restored, fmt.Errorf("backup index: %w", err)
		}
		if _, err := s.fs.CopyFile(filepath.Join(backupDir, name), filepath.Join(repoDir, name)); err != nil {
			return restored, fmt.Errorf("restore %s: %w", name, err)
		}
		restored = append(restored, name)
	}

	if index.Scripts {
		raw, err := os.ReadFile(filepath.Join(backupDir, ScriptsSnapshotFile))
		if err != nil {
			return restored, fmt.Errorf("restore scripts: %w", err)
		}
		manifestPath := filepath.Join(repoDir, manifest.FileName)
		doc, err := manifest.Load(manifestPath)
		if err != nil {
			return restored, fmt.Errorf("restore scripts: %w", err)
		}
		if err := doc.Set(manifest.KeyScripts, json.RawMessage(raw)); err != nil {
			return restored, err
		}
		if err := doc.Save(manifestPath); err != nil {
			return restored, fmt.Errorf("restore scripts: %w", err)
		}
		restored = append(restored, manifest.FileName+"#scripts")
	}
	return restored, nil
}

// ReadBackupIndex loads the index of backupDir. A missing index is ErrSnapshotMissing.
func ReadBackupIndex(backupDir string) (BackupIndex, error) {
	var index BackupIndex
	data, err := os.ReadFile(filepath.Join(backupDir, BackupIndexFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return index, fmt.Errorf("%s: %w", backupDir, ErrSnapshotMissing)
		}
		return index, err
	}
	if err := json.Unmarshal(data, &index); err != nil {
		return index, fmt.Errorf("%s: %w", BackupIndexFile, err)
	}
	return index, nil
}

// RestoreBackup restores backupDir into repoDir on the local file system.
// It is the operator-triggered rollback behind `pkgguard restore`.
func RestoreBackup(backupDir, repoDir string) ([]string, error) {
	return NewBackupService(NewOSFileSystem(), nil).Restore(backupDir, repoDir)
}
