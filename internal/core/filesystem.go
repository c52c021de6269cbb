package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// CopyStats tracks file copy statistics
type CopyStats struct {
	FileCount int
	ByteCount int64
}

// FileSystem abstracts the file operations of backups, cleanup and template copy
type FileSystem interface {
	CopyFile(src, dst string) (CopyStats, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Glob(pattern string) ([]string, error)
	MkdirAll(path string, perm os.FileMode) error
	Stat(path string) (os.FileInfo, error)
	RemoveAll(path string) error
}

// Compile-time interface satisfaction check.
var _ FileSystem = (*OSFileSystem)(nil)

// OSFileSystem implements FileSystem using standard os package
type OSFileSystem struct{}

// NewOSFileSystem creates a new OSFileSystem
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

// CopyFile copies a single file from src to dst, creating parent directories
// and keeping the source permission bits.
func (fs *OSFileSystem) CopyFile(src, dst string) (CopyStats, error) {
	source, err := os.Open(src)
	if err != nil {
		return CopyStats{}, err
	}
	defer func() { _ = source.Close() }()

	info, err := source.Stat()
	if err != nil {
		return CopyStats{}, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return CopyStats{}, err
	}

	dest, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return CopyStats{}, err
	}

	bytes, err := io.Copy(dest, source)
	if closeErr := dest.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return CopyStats{}, err
	}

	return CopyStats{FileCount: 1, ByteCount: bytes}, nil
}

// ReadFile reads the whole file at path.
func (fs *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data to path, creating parent directories.
func (fs *OSFileSystem) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Glob returns the paths matching pattern, as filepath.Glob does.
func (fs *OSFileSystem) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}

// MkdirAll creates a directory path
func (fs *OSFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Stat returns file info
func (fs *OSFileSystem) Stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

// RemoveAll removes a file or directory tree
func (fs *OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// ValidateDestPath ensures a repository-relative path is safe and doesn't allow path traversal
func ValidateDestPath(destPath string) error {
	cleaned := filepath.Clean(destPath)

	// Unix-style absolute or root-relative
	if strings.HasPrefix(destPath, "/") || strings.HasPrefix(destPath, "\\") {
		return fmt.Errorf("invalid destination path: %s (absolute paths are not allowed)", destPath)
	}

	// Windows drive letters are rejected on every platform.
	if len(destPath) >= 2 && destPath[1] == ':' && destPath[0] >= 'A' && destPath[0] <= 'Z' ||
		len(destPath) >= 2 && destPath[1] == ':' && destPath[0] >= 'a' && destPath[0] <= 'z' {
		return fmt.Errorf("invalid destination path: %s (absolute paths are not allowed)", destPath)
	}

	if filepath.IsAbs(cleaned) {
		return fmt.Errorf("invalid destination path: %s (absolute paths are not allowed)", destPath)
	}

	if strings.HasPrefix(cleaned, "..") || strings.Contains(cleaned, string(filepath.Separator)+"..") {
		return fmt.Errorf("invalid destination path: %s (path traversal with .. is not allowed)", destPath)
	}

	return nil
}

// pathExists reports whether path exists. Errors other than not-exist count as present.
func pathExists(fs FileSystem, path string) bool {
	_, err := fs.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
